package orderControllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tealeg/xlsx"
	"gorm.io/gorm"

	"github.com/mertarslna/b2c-ecommerce-sub000/models"
)

// ExportOrdersToExcel streams all orders as an xlsx report for back-office use.
func ExportOrdersToExcel(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var orders []models.Order
		if err := db.
			Preload("Items").
			Preload("Payments").
			Preload("Shipping").
			Order("created_at DESC").
			Find(&orders).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to fetch orders"})
			return
		}

		file := xlsx.NewFile()
		sheet, err := file.AddSheet("Orders")
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to create Excel sheet"})
			return
		}

		headers := []string{
			"ID", "CustomerID", "Status", "TotalAmount", "Items",
			"PaymentStatus", "PaymentMethod", "TrackingNumber", "ShippingStatus",
			"OrderDate",
		}
		headerRow := sheet.AddRow()
		for _, h := range headers {
			headerRow.AddCell().SetValue(h)
		}

		for _, o := range orders {
			row := sheet.AddRow()

			row.AddCell().SetValue(o.ID)
			row.AddCell().SetValue(o.CustomerID)
			row.AddCell().SetValue(string(o.Status))
			row.AddCell().SetValue(o.TotalAmount)
			row.AddCell().SetValue(len(o.Items))

			// Latest payment attempt wins the report columns.
			paymentStatus, paymentMethod := "", ""
			if n := len(o.Payments); n > 0 {
				paymentStatus = string(o.Payments[n-1].Status)
				paymentMethod = string(o.Payments[n-1].Method)
			}
			row.AddCell().SetValue(paymentStatus)
			row.AddCell().SetValue(paymentMethod)

			tracking, shippingStatus := "", ""
			if o.Shipping != nil {
				tracking = o.Shipping.TrackingNumber
				shippingStatus = string(o.Shipping.Status)
			}
			row.AddCell().SetValue(tracking)
			row.AddCell().SetValue(shippingStatus)

			row.AddCell().SetValue(o.OrderDate.Format("2006-01-02 15:04:05"))
		}

		c.Header("Content-Disposition", "attachment; filename=orders.xlsx")
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Transfer-Encoding", "binary")
		c.Header("Expires", "0")

		if err := file.Write(c.Writer); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to write Excel file"})
			return
		}
	}
}
