package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	orderControllers "github.com/mertarslna/b2c-ecommerce-sub000/controllers/order"
	"github.com/mertarslna/b2c-ecommerce-sub000/gateway"
	"github.com/mertarslna/b2c-ecommerce-sub000/models"
	"github.com/mertarslna/b2c-ecommerce-sub000/notification"
	"github.com/mertarslna/b2c-ecommerce-sub000/routes"
)

func main() {
	log.Println("Starting storefront API...")

	_ = godotenv.Load()

	db := initDatabase()

	if err := db.AutoMigrate(
		&models.Customer{},
		&models.Address{},
		&models.Product{},
		&models.Category{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.Payment{},
		&models.Shipping{},
	); err != nil {
		log.Fatalf("AutoMigrate failed: %v", err)
	}

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-API-KEY"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.SetupRoutes(r, routes.Deps{
		DB:       db,
		Gateways: buildGateways(),
		Notifier: notification.NewFromEnv(),
		Hub:      orderControllers.NewHub(),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Server running on port %s...", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// initDatabase sets up the GORM DB connection. TranslateError lets the order
// path detect tracking-number collisions as gorm.ErrDuplicatedKey.
func initDatabase() *gorm.DB {
	gormCfg := &gorm.Config{TranslateError: true}

	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		db, err := gorm.Open(postgres.Open(databaseURL), gormCfg)
		if err != nil {
			log.Fatalf("DB connection failed: %v", err)
		}
		return db
	}

	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)

	db, err := gorm.Open(postgres.Open(dsn), gormCfg)
	if err != nil {
		log.Fatalf("Failed to connect DB: %v", err)
	}
	return db
}

// buildGateways constructs one adapter per configured provider. A provider
// with missing configuration is skipped with a warning so the rest of the
// storefront still runs.
func buildGateways() gateway.Registry {
	registry := gateway.Registry{}

	if cfg, err := gateway.StripeConfigFromEnv(); err != nil {
		log.Printf("stripe gateway disabled: %v", err)
	} else {
		registry["stripe"] = gateway.NewStripe(cfg)
	}

	if cfg, err := gateway.PaythorConfigFromEnv(); err != nil {
		log.Printf("paythor gateway disabled: %v", err)
	} else {
		registry["paythor"] = gateway.NewPaythor(cfg)
	}

	return registry
}
