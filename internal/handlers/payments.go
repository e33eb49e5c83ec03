package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/evergreen-commerce/evergreen-backend/internal/validation"
)

func registerPaymentRoutes(r *gin.Engine, s *services) {
	// The gateway widget posts back here after the customer pays. No
	// user header: the signature is the authentication.
	r.POST("/payments/verify", func(c *gin.Context) {
		var req validation.VerifyPaymentRequest
		if err := validation.BindAndValidate(c, &req, s.validate); err != nil {
			return
		}
		o, err := s.confirm.Confirm(c.Request.Context(), req.GatewayOrderID, req.PaymentID, req.Signature)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, renderOrder(o))
	})

	r.POST("/payments/failed", func(c *gin.Context) {
		var req validation.PaymentFailedRequest
		if err := validation.BindAndValidate(c, &req, s.validate); err != nil {
			return
		}
		o, err := s.confirm.Fail(c.Request.Context(), req.GatewayOrderID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, renderOrder(o))
	})

	r.POST("/orders/:orderNumber/retry-payment", func(c *gin.Context) {
		uid, ok := userID(c)
		if !ok {
			return
		}
		if !ownsOrder(c, s, uid) {
			return
		}
		o, err := s.confirm.RetryPayment(c.Request.Context(), c.Param("orderNumber"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"order_number":     o.OrderNumber,
			"gateway_order_id": o.GatewayOrderID,
			"total_price":      o.TotalPrice.StringFixed(2),
		})
	})
}
