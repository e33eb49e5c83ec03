package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/evergreen-commerce/evergreen-backend/internal/orders"
	"github.com/evergreen-commerce/evergreen-backend/internal/validation"
)

func registerOrderRoutes(r *gin.Engine, s *services) {
	r.POST("/orders", func(c *gin.Context) {
		uid, ok := userID(c)
		if !ok {
			return
		}
		var req validation.CheckoutRequest
		if err := validation.BindAndValidate(c, &req, s.validate); err != nil {
			return
		}

		res, err := s.assembler.Checkout(c.Request.Context(), orders.CheckoutInput{
			UserID:        uid,
			AddressID:     req.AddressID,
			PaymentMethod: req.PaymentMethod,
			CouponCode:    req.CouponCode,
			DeclaredTotal: decimal.NewFromFloat(req.TotalPrice),
			TermsAccepted: req.TermsAccepted,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		body := gin.H{"order": renderOrder(res.Order)}
		if res.GatewayOrderID != "" {
			body["gateway_order_id"] = res.GatewayOrderID
		}
		c.JSON(http.StatusCreated, body)
	})

	r.GET("/orders", func(c *gin.Context) {
		uid, ok := userID(c)
		if !ok {
			return
		}
		list, err := s.orders.ListByUser(c.Request.Context(), uid)
		if err != nil {
			respondError(c, err)
			return
		}
		out := make([]gin.H, 0, len(list))
		for i := range list {
			out = append(out, renderOrder(&list[i]))
		}
		c.JSON(http.StatusOK, gin.H{"orders": out})
	})

	r.GET("/orders/:orderNumber", func(c *gin.Context) {
		uid, ok := userID(c)
		if !ok {
			return
		}
		o, err := s.orders.Get(c.Request.Context(), c.Param("orderNumber"))
		if err != nil {
			respondError(c, err)
			return
		}
		if o == nil || o.UserID != uid {
			respondError(c, orders.ErrOrderNotFound)
			return
		}
		c.JSON(http.StatusOK, renderOrder(o))
	})

	r.POST("/orders/:orderNumber/cancel", func(c *gin.Context) {
		uid, ok := userID(c)
		if !ok {
			return
		}
		if !ownsOrder(c, s, uid) {
			return
		}
		o, err := s.lifecycle.Cancel(c.Request.Context(), c.Param("orderNumber"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, renderOrder(o))
	})

	r.POST("/orders/:orderNumber/return", func(c *gin.Context) {
		itemAction(c, s, s.lifecycle.RequestReturn)
	})
	r.POST("/orders/:orderNumber/exchange", func(c *gin.Context) {
		itemAction(c, s, s.lifecycle.RequestExchange)
	})
}

// ownsOrder rejects with 404 when the order does not belong to the
// caller, so order numbers cannot be probed across accounts.
func ownsOrder(c *gin.Context, s *services, uid string) bool {
	o, err := s.orders.Get(c.Request.Context(), c.Param("orderNumber"))
	if err != nil {
		respondError(c, err)
		return false
	}
	if o == nil || o.UserID != uid {
		respondError(c, orders.ErrOrderNotFound)
		return false
	}
	return true
}

func itemAction(c *gin.Context, s *services, fn func(ctx context.Context, orderNumber, productID, reason string) (*orders.Order, error)) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	var req validation.ItemActionRequest
	if err := validation.BindAndValidate(c, &req, s.validate); err != nil {
		return
	}
	if !ownsOrder(c, s, uid) {
		return
	}
	o, err := fn(c.Request.Context(), c.Param("orderNumber"), req.ProductID, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, renderOrder(o))
}
