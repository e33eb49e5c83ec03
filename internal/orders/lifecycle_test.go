package orders

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/evergreen-commerce/evergreen-backend/internal/coupon"
)

// placeOrder runs a full checkout with the given method and returns the
// persisted order.
func placeOrder(t *testing.T, r *rig, method string) *Order {
	t.Helper()
	r.addUser("u1")
	r.addProduct("p1", 100, 10)
	r.addProduct("p2", 50, 10)
	r.addCartLine("u1", "p1", 1)
	r.addCartLine("u1", "p2", 2)
	r.wallet.balances["u1"] = dec("1000")

	res, err := r.assembler.Checkout(context.Background(), CheckoutInput{
		UserID:        "u1",
		AddressID:     "addr-1",
		PaymentMethod: method,
		DeclaredTotal: dec("230"), // 200 subtotal + 30 shipping
		TermsAccepted: true,
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	return res.Order
}

// deliver walks an order to DELIVERED through the legal path.
func deliver(t *testing.T, r *rig, orderNumber string) *Order {
	t.Helper()
	var o *Order
	var err error
	for _, s := range []string{StatusProcessing, StatusShipped, StatusDelivered} {
		o, err = r.lifecycle.UpdateStatus(context.Background(), orderNumber, s)
		if err != nil {
			t.Fatalf("advance to %s: %v", s, err)
		}
	}
	return o
}

func TestUpdateStatus_AdvancesItemsWithOrder(t *testing.T) {
	r := newRig()
	placed := placeOrder(t, r, MethodCOD)

	o, err := r.lifecycle.UpdateStatus(context.Background(), placed.OrderNumber, StatusProcessing)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if o.Status != StatusProcessing {
		t.Errorf("status = %s, want PROCESSING", o.Status)
	}
	for _, it := range o.Items {
		if it.Status != StatusProcessing {
			t.Errorf("item status = %s, want PROCESSING", it.Status)
		}
	}
}

func TestUpdateStatus_IllegalJumpRejected(t *testing.T) {
	r := newRig()
	placed := placeOrder(t, r, MethodCOD)

	if _, err := r.lifecycle.UpdateStatus(context.Background(), placed.OrderNumber, StatusDelivered); !errors.Is(err, ErrIllegalTransition) {
		t.Errorf("PENDING -> DELIVERED: err = %v, want ErrIllegalTransition", err)
	}
}

func TestUpdateStatus_CODDeliveryMarksPaid(t *testing.T) {
	r := newRig()
	placed := placeOrder(t, r, MethodCOD)
	o := deliver(t, r, placed.OrderNumber)

	if o.PaymentStatus != PaymentSuccess {
		t.Errorf("payment status = %s, want SUCCESS after COD delivery", o.PaymentStatus)
	}
}

func TestCancel_DeliveredOrderRejected(t *testing.T) {
	r := newRig()
	placed := placeOrder(t, r, MethodCOD)
	deliver(t, r, placed.OrderNumber)

	if _, err := r.lifecycle.Cancel(context.Background(), placed.OrderNumber); !errors.Is(err, ErrNotCancellable) {
		t.Errorf("err = %v, want ErrNotCancellable", err)
	}
}

func TestCancel_WalletOrderRefundsFullTotal(t *testing.T) {
	r := newRig()
	placed := placeOrder(t, r, MethodWallet)

	// 1000 - 230 paid at checkout.
	if !r.wallet.balances["u1"].Equal(dec("770")) {
		t.Fatalf("balance after checkout = %s, want 770", r.wallet.balances["u1"])
	}

	o, err := r.lifecycle.Cancel(context.Background(), placed.OrderNumber)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if o.Status != StatusCancelled {
		t.Errorf("status = %s, want CANCELLED", o.Status)
	}
	if o.PaymentStatus != PaymentRefunded {
		t.Errorf("payment status = %s, want REFUNDED", o.PaymentStatus)
	}
	if !r.wallet.balances["u1"].Equal(dec("1000")) {
		t.Errorf("balance = %s, want restored 1000", r.wallet.balances["u1"])
	}
}

func TestCancel_CODOrderRefundsNothing(t *testing.T) {
	r := newRig()
	placed := placeOrder(t, r, MethodCOD)

	o, err := r.lifecycle.Cancel(context.Background(), placed.OrderNumber)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if o.Status != StatusCancelled {
		t.Errorf("status = %s, want CANCELLED", o.Status)
	}
	if o.PaymentStatus == PaymentRefunded {
		t.Error("COD cancellation must not mark the payment refunded")
	}
	if !r.wallet.balances["u1"].Equal(dec("1000")) {
		t.Errorf("balance = %s, want untouched 1000", r.wallet.balances["u1"])
	}
}

func TestCancel_ReleasesCoupon(t *testing.T) {
	r := newRig()
	r.addUser("u1")
	r.addProduct("p1", 100, 10)
	r.addCartLine("u1", "p1", 1)
	r.coupons.coupons["SAVE10"] = &coupon.Coupon{
		Code: "SAVE10", Kind: coupon.KindFixed, Value: decimal.NewFromInt(10), Active: true,
	}

	res, err := r.assembler.Checkout(context.Background(), CheckoutInput{
		UserID:        "u1",
		AddressID:     "addr-1",
		PaymentMethod: MethodCOD,
		CouponCode:    "SAVE10",
		DeclaredTotal: dec("130"),
		TermsAccepted: true,
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if _, ok := r.coupons.reserved["u1#SAVE10"]; !ok {
		t.Fatal("coupon not reserved at checkout")
	}

	if _, err := r.lifecycle.Cancel(context.Background(), res.Order.OrderNumber); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, ok := r.coupons.reserved["u1#SAVE10"]; ok {
		t.Error("coupon still reserved after cancellation")
	}
}

func TestReturnFlow_ApprovedItemRefundsLineTotal(t *testing.T) {
	r := newRig()
	placed := placeOrder(t, r, MethodWallet)
	deliver(t, r, placed.OrderNumber)
	balance := r.wallet.balances["u1"]

	if _, err := r.lifecycle.RequestReturn(context.Background(), placed.OrderNumber, "p2", "wrong size"); err != nil {
		t.Fatalf("request return: %v", err)
	}
	o, err := r.lifecycle.ApproveReturn(context.Background(), placed.OrderNumber, "p2")
	if err != nil {
		t.Fatalf("approve return: %v", err)
	}

	idx := o.FindItem("p2")
	it := o.Items[idx]
	if it.Status != StatusReturned || it.ReturnStatus != RequestApproved {
		t.Errorf("item = %s/%s, want RETURNED/APPROVED", it.Status, it.ReturnStatus)
	}
	if it.RefundStatus != RefundCompleted {
		t.Errorf("refund status = %s, want COMPLETED", it.RefundStatus)
	}
	// Two units of p2 at 50.
	if want := balance.Add(dec("100")); !r.wallet.balances["u1"].Equal(want) {
		t.Errorf("balance = %s, want %s", r.wallet.balances["u1"], want)
	}
	if o.Status != StatusDelivered {
		t.Errorf("order status = %s, want still DELIVERED with one line returned", o.Status)
	}
}

func TestReturnFlow_ItemRefundPaysForCODToo(t *testing.T) {
	r := newRig()
	placed := placeOrder(t, r, MethodCOD)
	deliver(t, r, placed.OrderNumber)

	if _, err := r.lifecycle.RequestReturn(context.Background(), placed.OrderNumber, "p1", "damaged"); err != nil {
		t.Fatalf("request return: %v", err)
	}
	if _, err := r.lifecycle.ApproveReturn(context.Background(), placed.OrderNumber, "p1"); err != nil {
		t.Fatalf("approve return: %v", err)
	}
	// The customer paid cash at the door; the return still credits the
	// wallet with the line total.
	if want := dec("1100"); !r.wallet.balances["u1"].Equal(want) {
		t.Errorf("balance = %s, want %s", r.wallet.balances["u1"], want)
	}
}

func TestReturnFlow_UndeliveredItemRejected(t *testing.T) {
	r := newRig()
	placed := placeOrder(t, r, MethodCOD)

	if _, err := r.lifecycle.RequestReturn(context.Background(), placed.OrderNumber, "p1", "changed mind"); !errors.Is(err, ErrIllegalTransition) {
		t.Errorf("err = %v, want ErrIllegalTransition", err)
	}
}

func TestReturnFlow_Reject(t *testing.T) {
	r := newRig()
	placed := placeOrder(t, r, MethodWallet)
	deliver(t, r, placed.OrderNumber)
	balance := r.wallet.balances["u1"]

	if _, err := r.lifecycle.RequestReturn(context.Background(), placed.OrderNumber, "p1", "scratched"); err != nil {
		t.Fatalf("request return: %v", err)
	}
	o, err := r.lifecycle.RejectReturn(context.Background(), placed.OrderNumber, "p1", "wear and tear not covered")
	if err != nil {
		t.Fatalf("reject return: %v", err)
	}

	it := o.Items[o.FindItem("p1")]
	if it.ReturnStatus != RequestRejected {
		t.Errorf("return status = %s, want REJECTED", it.ReturnStatus)
	}
	if it.ReturnRejectReason != "wear and tear not covered" {
		t.Errorf("reject reason = %q", it.ReturnRejectReason)
	}
	if it.Status != StatusDelivered {
		t.Errorf("item status = %s, want still DELIVERED", it.Status)
	}
	if !r.wallet.balances["u1"].Equal(balance) {
		t.Errorf("balance changed on rejected return: %s", r.wallet.balances["u1"])
	}
}

func TestExchangeFlow_NoWalletOrStockMovement(t *testing.T) {
	r := newRig()
	placed := placeOrder(t, r, MethodWallet)
	deliver(t, r, placed.OrderNumber)
	balance := r.wallet.balances["u1"]
	stock := r.catalog.products["p1"].Stock

	if _, err := r.lifecycle.RequestExchange(context.Background(), placed.OrderNumber, "p1", "wrong colour"); err != nil {
		t.Fatalf("request exchange: %v", err)
	}
	o, err := r.lifecycle.ApproveExchange(context.Background(), placed.OrderNumber, "p1")
	if err != nil {
		t.Fatalf("approve exchange: %v", err)
	}

	it := o.Items[o.FindItem("p1")]
	if it.Status != StatusExchanged || it.ExchangeStatus != RequestApproved {
		t.Errorf("item = %s/%s, want EXCHANGED/APPROVED", it.Status, it.ExchangeStatus)
	}
	if !r.wallet.balances["u1"].Equal(balance) {
		t.Errorf("balance moved on exchange: %s", r.wallet.balances["u1"])
	}
	if !r.catalog.products["p1"].Stock.Equal(stock) {
		t.Errorf("stock moved on exchange: %s", r.catalog.products["p1"].Stock)
	}
}

func TestReturn_DoubleApproveRefundsOnce(t *testing.T) {
	r := newRig()
	placed := placeOrder(t, r, MethodWallet)
	deliver(t, r, placed.OrderNumber)

	if _, err := r.lifecycle.RequestReturn(context.Background(), placed.OrderNumber, "p1", "damaged"); err != nil {
		t.Fatalf("request return: %v", err)
	}
	if _, err := r.lifecycle.ApproveReturn(context.Background(), placed.OrderNumber, "p1"); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := r.lifecycle.ApproveReturn(context.Background(), placed.OrderNumber, "p1"); err == nil {
		t.Error("second approval of the same return succeeded")
	}

	credits := 0
	for _, txn := range r.wallet.txns {
		if txn.Type == "CREDIT" {
			credits++
		}
	}
	if credits != 1 {
		t.Errorf("credit count = %d, want 1", credits)
	}
}
