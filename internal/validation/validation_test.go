package validation

import "testing"

func TestCheckoutRequest_Valid(t *testing.T) {
	v := New()

	req := CheckoutRequest{
		AddressID:     "addr-1",
		PaymentMethod: "COD",
		TotalPrice:    130,
		TermsAccepted: true,
	}

	if err := v.Struct(req); err != nil {
		t.Fatalf("expected valid, got error: %v", err)
	}
}

func TestCheckoutRequest_UnknownPaymentMethod(t *testing.T) {
	v := New()

	req := CheckoutRequest{
		AddressID:     "addr-1",
		PaymentMethod: "BARTER",
		TotalPrice:    130,
	}

	if err := v.Struct(req); err == nil {
		t.Fatal("expected validation error for payment method, got nil")
	}
}

func TestCheckoutRequest_MissingFields(t *testing.T) {
	v := New()

	req := CheckoutRequest{
		// AddressID missing
		PaymentMethod: "WALLET",
		TotalPrice:    0,
	}

	if err := v.Struct(req); err == nil {
		t.Fatal("expected validation errors for missing required fields, got nil")
	}
}

func TestUpdateQuantityRequest_HalfSteps(t *testing.T) {
	v := New()

	for _, q := range []float64{0.5, 1, 1.5, 2, 7.5} {
		if err := v.Struct(UpdateQuantityRequest{Quantity: q}); err != nil {
			t.Errorf("quantity %v: expected valid, got %v", q, err)
		}
	}
	for _, q := range []float64{0.3, 1.25, 2.01, -1} {
		if err := v.Struct(UpdateQuantityRequest{Quantity: q}); err == nil {
			t.Errorf("quantity %v: expected validation error, got nil", q)
		}
	}
}
