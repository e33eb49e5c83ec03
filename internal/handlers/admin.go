package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/evergreen-commerce/evergreen-backend/internal/reports"
	"github.com/evergreen-commerce/evergreen-backend/internal/validation"
)

// Admin routes. Role checks belong to the auth layer in front of the
// API; these handlers assume the caller is staff.
func registerAdminRoutes(r *gin.Engine, s *services) {
	r.PATCH("/admin/orders/:orderNumber/status", func(c *gin.Context) {
		var req validation.UpdateOrderStatusRequest
		if err := validation.BindAndValidate(c, &req, s.validate); err != nil {
			return
		}
		o, err := s.lifecycle.UpdateStatus(c.Request.Context(), c.Param("orderNumber"), req.Status)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, renderOrder(o))
	})

	r.POST("/admin/orders/:orderNumber/return/approve", func(c *gin.Context) {
		var req validation.ItemDecisionRequest
		if err := validation.BindAndValidate(c, &req, s.validate); err != nil {
			return
		}
		o, err := s.lifecycle.ApproveReturn(c.Request.Context(), c.Param("orderNumber"), req.ProductID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, renderOrder(o))
	})

	r.POST("/admin/orders/:orderNumber/return/reject", func(c *gin.Context) {
		var req validation.ItemDecisionRequest
		if err := validation.BindAndValidate(c, &req, s.validate); err != nil {
			return
		}
		if req.Reason == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "reason_required"})
			return
		}
		o, err := s.lifecycle.RejectReturn(c.Request.Context(), c.Param("orderNumber"), req.ProductID, req.Reason)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, renderOrder(o))
	})

	r.POST("/admin/orders/:orderNumber/exchange/approve", func(c *gin.Context) {
		var req validation.ItemDecisionRequest
		if err := validation.BindAndValidate(c, &req, s.validate); err != nil {
			return
		}
		o, err := s.lifecycle.ApproveExchange(c.Request.Context(), c.Param("orderNumber"), req.ProductID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, renderOrder(o))
	})

	r.POST("/admin/orders/:orderNumber/exchange/reject", func(c *gin.Context) {
		var req validation.ItemDecisionRequest
		if err := validation.BindAndValidate(c, &req, s.validate); err != nil {
			return
		}
		if req.Reason == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "reason_required"})
			return
		}
		o, err := s.lifecycle.RejectExchange(c.Request.Context(), c.Param("orderNumber"), req.ProductID, req.Reason)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, renderOrder(o))
	})

	// Streams the date range as CSV. Dates are inclusive YYYY-MM-DD.
	r.GET("/admin/reports/sales", func(c *gin.Context) {
		from, err := time.Parse("2006-01-02", c.Query("from"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_from_date"})
			return
		}
		to, err := time.Parse("2006-01-02", c.Query("to"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_to_date"})
			return
		}
		to = to.Add(24*time.Hour - time.Second)

		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", `attachment; filename="sales-report.csv"`)
		if _, err := s.sales.Generate(c.Request.Context(), from, to, reports.NewCSVSink(c.Writer)); err != nil {
			// Headers are already out; the truncated body signals failure.
			c.Status(http.StatusInternalServerError)
			return
		}
	})
}
