package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/evergreen-commerce/evergreen-backend/internal/cart"
	"github.com/evergreen-commerce/evergreen-backend/internal/catalog"
	"github.com/evergreen-commerce/evergreen-backend/internal/coupon"
	"github.com/evergreen-commerce/evergreen-backend/internal/users"
	"github.com/evergreen-commerce/evergreen-backend/internal/wallet"
)

// In-memory fakes for the order service collaborators.

type memOrders struct {
	seq    int64
	orders map[string]Order
}

func newMemOrders() *memOrders {
	return &memOrders{orders: map[string]Order{}}
}

func (m *memOrders) NextOrderNumber(ctx context.Context) (string, error) {
	m.seq++
	return fmt.Sprintf("ORD-2026-%05d", m.seq), nil
}

func (m *memOrders) Put(ctx context.Context, o *Order) error {
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now()
	}
	o.UpdatedAt = time.Now()
	m.orders[o.OrderNumber] = *o
	return nil
}

func (m *memOrders) Get(ctx context.Context, orderNumber string) (*Order, error) {
	o, ok := m.orders[orderNumber]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (m *memOrders) GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*Order, error) {
	for _, o := range m.orders {
		if o.GatewayOrderID == gatewayOrderID {
			o := o
			return &o, nil
		}
	}
	return nil, nil
}

func (m *memOrders) ListPendingFinalization(ctx context.Context, cutoff time.Time) ([]Order, error) {
	var out []Order
	for _, o := range m.orders {
		if o.FinalizationStatus != FinalizationPending {
			continue
		}
		if o.Status == StatusAwaitingPayment || o.Status == StatusFailed || o.Status == StatusCancelled {
			continue
		}
		if !o.UpdatedAt.Before(cutoff) {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

type memCartSource struct {
	carts map[string]*cart.Cart
}

func (m *memCartSource) Get(ctx context.Context, userID string) (*cart.Cart, error) {
	return m.carts[userID], nil
}

func (m *memCartSource) Delete(ctx context.Context, userID string) error {
	delete(m.carts, userID)
	return nil
}

type memCatalogSource struct {
	products   map[string]*catalog.Product
	categories map[string]*catalog.Category
}

func (m *memCatalogSource) GetProduct(ctx context.Context, productID string) (*catalog.Product, error) {
	return m.products[productID], nil
}

func (m *memCatalogSource) GetCategory(ctx context.Context, categoryID string) (*catalog.Category, error) {
	return m.categories[categoryID], nil
}

func (m *memCatalogSource) DecrementStock(ctx context.Context, productID string, qty decimal.Decimal) error {
	p, ok := m.products[productID]
	if !ok {
		return catalog.ErrInsufficientStock
	}
	if p.Stock.LessThan(qty) {
		return catalog.ErrInsufficientStock
	}
	p.Stock = p.Stock.Sub(qty)
	p.PurchaseCount = p.PurchaseCount.Add(qty)
	return nil
}

// memCoupons plays both the quoter and the ledger.
type memCoupons struct {
	coupons  map[string]*coupon.Coupon
	reserved map[string]string // userID#code -> orderNumber
}

func newMemCoupons() *memCoupons {
	return &memCoupons{coupons: map[string]*coupon.Coupon{}, reserved: map[string]string{}}
}

func (m *memCoupons) key(userID, code string) string { return userID + "#" + code }

func (m *memCoupons) Quote(ctx context.Context, code, userID string, cartSubTotal, cartTotal decimal.Decimal) (*coupon.Quote, error) {
	c, ok := m.coupons[code]
	if !ok || !c.Active {
		return nil, coupon.ErrInvalidCoupon
	}
	if _, used := m.reserved[m.key(userID, code)]; used {
		return nil, coupon.ErrAlreadyUsed
	}
	if cartSubTotal.LessThan(c.MinPurchase) {
		return nil, coupon.ErrBelowMinimum
	}
	discount := c.Value
	if c.Kind == coupon.KindPercent {
		discount = cartSubTotal.Mul(c.Value).Div(decimal.NewFromInt(100)).Round(2)
	}
	return &coupon.Quote{
		Code:     code,
		Discount: discount,
		SubTotal: cartSubTotal.Sub(discount),
		Total:    cartTotal.Sub(discount),
	}, nil
}

func (m *memCoupons) ReserveForOrder(ctx context.Context, userID, code, orderNumber string) error {
	k := m.key(userID, code)
	if existing, ok := m.reserved[k]; ok {
		if existing == orderNumber {
			return nil
		}
		return coupon.ErrAlreadyUsed
	}
	m.reserved[k] = orderNumber
	return nil
}

func (m *memCoupons) Release(ctx context.Context, userID, code string) error {
	delete(m.reserved, m.key(userID, code))
	return nil
}

type memWallet struct {
	balances map[string]decimal.Decimal
	txns     []wallet.Transaction
}

func newMemWallet() *memWallet {
	return &memWallet{balances: map[string]decimal.Decimal{}}
}

func (m *memWallet) Debit(ctx context.Context, userID string, amount decimal.Decimal, description string) (*wallet.Transaction, error) {
	bal := m.balances[userID]
	if bal.LessThan(amount) {
		return nil, wallet.ErrInsufficientBalance
	}
	m.balances[userID] = bal.Sub(amount)
	t := wallet.Transaction{Amount: amount, Description: description, Type: wallet.TypeDebit, Status: wallet.StatusCompleted}
	m.txns = append(m.txns, t)
	return &t, nil
}

func (m *memWallet) Credit(ctx context.Context, userID string, amount decimal.Decimal, description string) (*wallet.Transaction, error) {
	m.balances[userID] = m.balances[userID].Add(amount)
	t := wallet.Transaction{Amount: amount, Description: description, Type: wallet.TypeCredit, Status: wallet.StatusCompleted}
	m.txns = append(m.txns, t)
	return &t, nil
}

type memUserDir struct {
	users map[string]*users.User
}

func (m *memUserDir) Get(ctx context.Context, userID string) (*users.User, error) {
	return m.users[userID], nil
}

func (m *memUserDir) AppendOrder(ctx context.Context, userID, orderNumber string) error {
	u, ok := m.users[userID]
	if !ok {
		return fmt.Errorf("user %s not found", userID)
	}
	u.OrderNumbers = append(u.OrderNumbers, orderNumber)
	return nil
}

type stubGateway struct {
	nextID     string
	lastAmount int64
	err        error
}

func (g *stubGateway) CreateOrder(ctx context.Context, amountMinorUnits int64, receipt string) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	g.lastAmount = amountMinorUnits
	return g.nextID, nil
}

type stubVerifier struct {
	valid map[string]string // gatewayOrderID|paymentID -> signature
}

func (v *stubVerifier) Verify(gatewayOrderID, paymentID, signature string) bool {
	return v.valid[gatewayOrderID+"|"+paymentID] == signature
}

// rig bundles a fully wired set of order services over the fakes.
type rig struct {
	orders  *memOrders
	carts   *memCartSource
	catalog *memCatalogSource
	coupons *memCoupons
	wallet  *memWallet
	userDir *memUserDir
	gateway *stubGateway

	finalizer *Finalizer
	assembler *Assembler
	lifecycle *Lifecycle
	refunds   *RefundService
}

func newRig() *rig {
	r := &rig{
		orders:  newMemOrders(),
		carts:   &memCartSource{carts: map[string]*cart.Cart{}},
		catalog: &memCatalogSource{products: map[string]*catalog.Product{}, categories: map[string]*catalog.Category{}},
		coupons: newMemCoupons(),
		wallet:  newMemWallet(),
		userDir: &memUserDir{users: map[string]*users.User{}},
		gateway: &stubGateway{nextID: "rzp_order_1"},
	}
	r.finalizer = NewFinalizer(r.orders, r.carts, r.catalog, r.coupons, r.userDir, nil, nil)
	r.assembler = NewAssembler(r.orders, r.carts, r.catalog, r.coupons, r.wallet, r.userDir, r.gateway, r.finalizer, catalog.NewEngine(catalog.EnforceExpiry))
	r.refunds = NewRefundService(r.wallet, nil, nil)
	r.lifecycle = NewLifecycle(r.orders, r.coupons, r.refunds)
	return r
}

func (r *rig) addUser(userID string) {
	r.userDir.users[userID] = &users.User{
		UserID:    userID,
		Addresses: []users.Address{{AddressID: "addr-1", Line1: "1 Main St", City: "Pune", State: "MH", PinCode: "411001"}},
	}
}

func (r *rig) addProduct(id string, price float64, stock int64) {
	r.catalog.products[id] = &catalog.Product{
		ProductID: id,
		Name:      "Product " + id,
		Price:     decimal.NewFromFloat(price),
		Stock:     decimal.NewFromInt(stock),
	}
}

func (r *rig) addCartLine(userID, productID string, qty float64) {
	c := r.carts.carts[userID]
	if c == nil {
		c = &cart.Cart{UserID: userID}
		r.carts.carts[userID] = c
	}
	p := r.catalog.products[productID]
	q := decimal.NewFromFloat(qty)
	c.Items = append(c.Items, cart.Item{
		ProductID: productID,
		Name:      p.Name,
		ListPrice: p.Price,
		UnitPrice: p.Price,
		Quantity:  q,
		ItemTotal: p.Price.Mul(q),
	})
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}
