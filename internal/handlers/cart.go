package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/evergreen-commerce/evergreen-backend/internal/validation"
)

func registerCartRoutes(r *gin.Engine, s *services) {
	r.GET("/cart", func(c *gin.Context) {
		uid, ok := userID(c)
		if !ok {
			return
		}
		crt, err := s.carts.Get(c.Request.Context(), uid)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, renderCart(crt))
	})

	r.POST("/cart/items", func(c *gin.Context) {
		uid, ok := userID(c)
		if !ok {
			return
		}
		var req validation.AddToCartRequest
		if err := validation.BindAndValidate(c, &req, s.validate); err != nil {
			return
		}
		crt, err := s.carts.Add(c.Request.Context(), uid, req.ProductID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, renderCart(crt))
	})

	r.PATCH("/cart/items/:productId", func(c *gin.Context) {
		uid, ok := userID(c)
		if !ok {
			return
		}
		var req validation.UpdateQuantityRequest
		if err := validation.BindAndValidate(c, &req, s.validate); err != nil {
			return
		}
		qty := decimal.NewFromFloat(req.Quantity)
		crt, err := s.carts.UpdateQuantity(c.Request.Context(), uid, c.Param("productId"), qty)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, renderCart(crt))
	})

	r.DELETE("/cart/items/:productId", func(c *gin.Context) {
		uid, ok := userID(c)
		if !ok {
			return
		}
		crt, err := s.carts.Remove(c.Request.Context(), uid, c.Param("productId"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, renderCart(crt))
	})

	// Quote a coupon against the current cart. Nothing is persisted; the
	// code travels back in the checkout request.
	r.POST("/cart/coupon", func(c *gin.Context) {
		uid, ok := userID(c)
		if !ok {
			return
		}
		var req validation.ApplyCouponRequest
		if err := validation.BindAndValidate(c, &req, s.validate); err != nil {
			return
		}
		crt, err := s.carts.Get(c.Request.Context(), uid)
		if err != nil {
			respondError(c, err)
			return
		}
		q, err := s.coupons.Quote(c.Request.Context(), req.Code, uid, crt.SubTotal, crt.TotalPrice)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"code":      q.Code,
			"discount":  q.Discount.StringFixed(2),
			"sub_total": q.SubTotal.StringFixed(2),
			"total":     q.Total.StringFixed(2),
		})
	})
}
