package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/evergreen-commerce/evergreen-backend/internal/cart"
	"github.com/evergreen-commerce/evergreen-backend/internal/orders"
	"github.com/evergreen-commerce/evergreen-backend/internal/wallet"
)

// Wire shapes for responses. Money renders as fixed two-decimal
// strings; quantities keep their half steps.

func renderCart(c *cart.Cart) gin.H {
	items := make([]gin.H, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, gin.H{
			"product_id": it.ProductID,
			"name":       it.Name,
			"list_price": it.ListPrice.StringFixed(2),
			"unit_price": it.UnitPrice.StringFixed(2),
			"quantity":   it.Quantity.String(),
			"item_total": it.ItemTotal.StringFixed(2),
		})
	}
	return gin.H{
		"user_id":         c.UserID,
		"items":           items,
		"sub_total":       c.SubTotal.StringFixed(2),
		"shipping_charge": c.ShippingCharge.StringFixed(2),
		"total_price":     c.TotalPrice.StringFixed(2),
	}
}

func renderOrderItem(it orders.Item) gin.H {
	out := gin.H{
		"product_id":       it.ProductID,
		"name":             it.Name,
		"list_price":       it.ListPrice.StringFixed(2),
		"discounted_price": it.DiscountedPrice.StringFixed(2),
		"quantity":         it.Quantity.String(),
		"item_total":       it.ItemTotal.StringFixed(2),
		"status":           it.Status,
	}
	if it.ReturnStatus != orders.RequestNone {
		out["return_status"] = it.ReturnStatus
		out["return_reason"] = it.ReturnReason
		if it.ReturnRejectReason != "" {
			out["return_reject_reason"] = it.ReturnRejectReason
		}
	}
	if it.ExchangeStatus != orders.RequestNone {
		out["exchange_status"] = it.ExchangeStatus
		out["exchange_reason"] = it.ExchangeReason
		if it.ExchangeRejectReason != "" {
			out["exchange_reject_reason"] = it.ExchangeRejectReason
		}
	}
	if it.RefundStatus != orders.RefundNone {
		out["refund_status"] = it.RefundStatus
	}
	return out
}

func renderOrder(o *orders.Order) gin.H {
	items := make([]gin.H, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, renderOrderItem(it))
	}
	out := gin.H{
		"order_number":    o.OrderNumber,
		"user_id":         o.UserID,
		"items":           items,
		"address_id":      o.AddressID,
		"payment_method":  o.PaymentMethod,
		"payment_status":  o.PaymentStatus,
		"status":          o.Status,
		"sub_total":       o.SubTotal.StringFixed(2),
		"shipping_charge": o.ShippingCharge.StringFixed(2),
		"total_price":     o.TotalPrice.StringFixed(2),
		"created_at":      o.CreatedAt,
	}
	if o.CouponCode != "" {
		out["coupon_code"] = o.CouponCode
		out["coupon_discount"] = o.CouponDiscount.StringFixed(2)
	}
	return out
}

func renderWallet(w *wallet.Wallet) gin.H {
	txns := make([]gin.H, 0, len(w.Transactions))
	for _, t := range w.Transactions {
		txns = append(txns, gin.H{
			"txn_id":      t.TxnID,
			"amount":      t.Amount.StringFixed(2),
			"date":        t.Date,
			"description": t.Description,
			"type":        t.Type,
			"status":      t.Status,
		})
	}
	return gin.H{
		"user_id":      w.UserID,
		"balance":      w.Balance.StringFixed(2),
		"transactions": txns,
	}
}
