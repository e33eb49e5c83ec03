package catalog

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestPrice_NoOffers(t *testing.T) {
	e := NewEngine(EnforceExpiry)

	q := e.Price(Product{ProductID: "p1", Price: dec("100")}, nil)
	if !q.BestPrice.Equal(dec("100")) {
		t.Fatalf("expected best price 100, got %s", q.BestPrice)
	}
	if q.Source != SourceNone {
		t.Fatalf("expected no discount source, got %s", q.Source)
	}
}

func TestPrice_FixedBeatsPercentWithinOneOffer(t *testing.T) {
	// fixed=10 and percent=50 on a 100-unit item: fixed is checked first,
	// so the result is 90 even though 50% would give 50.
	e := NewEngine(EnforceExpiry)
	p := Product{
		ProductID: "p1",
		Price:     dec("100"),
		Offer: &Offer{
			Amount:  dec("10"),
			Percent: dec("50"),
			Active:  true,
		},
	}

	q := e.Price(p, nil)
	if !q.BestPrice.Equal(dec("90")) {
		t.Fatalf("expected best price 90, got %s", q.BestPrice)
	}
	if q.Source != SourceProductFixed {
		t.Fatalf("expected PRODUCT_FIXED, got %s", q.Source)
	}
	if !q.FixedOff.Equal(dec("10")) {
		t.Fatalf("expected fixed equivalent 10, got %s", q.FixedOff)
	}
	if !q.PercentOff.Equal(dec("10")) {
		t.Fatalf("expected percent equivalent 10, got %s", q.PercentOff)
	}
}

func TestPrice_CategoryWinsOnlyWhenStrictlyBetter(t *testing.T) {
	e := NewEngine(EnforceExpiry)
	p := Product{
		ProductID: "p1",
		Price:     dec("200"),
		Offer:     &Offer{Amount: dec("20"), Active: true},
	}

	// Equal candidate (180): product offer keeps the win.
	cat := &Category{CategoryID: "c1", Offer: &Offer{Amount: dec("20"), Active: true}}
	q := e.Price(p, cat)
	if q.Source != SourceProductFixed {
		t.Fatalf("tie must keep product offer, got %s", q.Source)
	}

	// Strictly better category offer takes over.
	cat.Offer.Amount = dec("30")
	q = e.Price(p, cat)
	if q.Source != SourceCategoryFixed {
		t.Fatalf("expected CATEGORY_FIXED, got %s", q.Source)
	}
	if !q.BestPrice.Equal(dec("170")) {
		t.Fatalf("expected 170, got %s", q.BestPrice)
	}
}

func TestPrice_PercentOffer(t *testing.T) {
	e := NewEngine(EnforceExpiry)
	p := Product{
		ProductID: "p1",
		Price:     dec("80"),
		Offer:     &Offer{Percent: dec("25"), Active: true},
	}

	q := e.Price(p, nil)
	if !q.BestPrice.Equal(dec("60")) {
		t.Fatalf("expected 60, got %s", q.BestPrice)
	}
	if q.Source != SourceProductPercent {
		t.Fatalf("expected PRODUCT_PERCENT, got %s", q.Source)
	}
	if !q.FixedOff.Equal(dec("20")) {
		t.Fatalf("expected fixed equivalent 20, got %s", q.FixedOff)
	}
}

func TestPrice_InactiveAndExpiredOffers(t *testing.T) {
	past := time.Now().Add(-time.Hour)

	e := NewEngine(EnforceExpiry)
	p := Product{
		ProductID: "p1",
		Price:     dec("100"),
		Offer:     &Offer{Amount: dec("10"), Active: false},
	}
	if q := e.Price(p, nil); q.Source != SourceNone {
		t.Fatalf("inactive offer must not apply, got %s", q.Source)
	}

	p.Offer = &Offer{Amount: dec("10"), Active: true, ExpiresAt: &past}
	if q := e.Price(p, nil); q.Source != SourceNone {
		t.Fatalf("expired offer must not apply under EnforceExpiry, got %s", q.Source)
	}

	// Under IgnoreExpiry the same offer still prices.
	lenient := NewEngine(IgnoreExpiry)
	if q := lenient.Price(p, nil); !q.BestPrice.Equal(dec("90")) {
		t.Fatalf("expected 90 under IgnoreExpiry, got %s", q.BestPrice)
	}
}

func TestPrice_Idempotent(t *testing.T) {
	e := NewEngine(EnforceExpiry)
	p := Product{
		ProductID: "p1",
		Price:     dec("49.50"),
		Offer:     &Offer{Percent: dec("10"), Active: true},
	}

	first := e.Price(p, nil)
	second := e.Price(p, nil)
	if !first.BestPrice.Equal(second.BestPrice) || first.Source != second.Source {
		t.Fatalf("pricing not idempotent: %v vs %v", first, second)
	}
	if !p.Price.Equal(dec("49.50")) {
		t.Fatalf("pricing mutated the product: %s", p.Price)
	}
}
