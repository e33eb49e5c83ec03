package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/evergreen-commerce/evergreen-backend/internal/awsx"
	"github.com/evergreen-commerce/evergreen-backend/internal/cart"
	"github.com/evergreen-commerce/evergreen-backend/internal/catalog"
	"github.com/evergreen-commerce/evergreen-backend/internal/coupon"
	"github.com/evergreen-commerce/evergreen-backend/internal/orders"
	"github.com/evergreen-commerce/evergreen-backend/internal/payment"
	"github.com/evergreen-commerce/evergreen-backend/internal/reports"
	"github.com/evergreen-commerce/evergreen-backend/internal/users"
	"github.com/evergreen-commerce/evergreen-backend/internal/validation"
	"github.com/evergreen-commerce/evergreen-backend/internal/wallet"
)

// HandlerConfig groups dependencies for the storefront API.
type HandlerConfig struct {
	DynamoDBClient   awsx.DynamoDBAPI
	SQSClient        awsx.SQSAPI
	CloudWatchClient awsx.CloudWatchAPI

	ProductsTable    string
	CategoriesTable  string
	CartsTable       string
	CouponsTable     string
	UsedCouponsTable string
	WalletsTable     string
	UsersTable       string
	OrdersTable      string
	CountersTable    string

	QueueURL         string
	MetricsNamespace string

	RazorpayKeyID     string
	RazorpayKeySecret string

	// Gateway and Verifier override the Razorpay defaults in tests.
	Gateway  payment.Gateway
	Verifier orders.SignatureVerifier
}

// services is the wired object graph behind the routes.
type services struct {
	validate *validatorv10.Validate

	carts     *cart.Service
	coupons   *coupon.Evaluator
	wallets   *wallet.Store
	orders    *orders.Store
	assembler *orders.Assembler
	confirm   *orders.Confirmation
	lifecycle *orders.Lifecycle
	sales     *reports.Sales
}

func buildServices(cfg HandlerConfig) *services {
	catalogStore := catalog.NewStore(cfg.DynamoDBClient, cfg.ProductsTable, cfg.CategoriesTable)
	cartStore := cart.NewStore(cfg.DynamoDBClient, cfg.CartsTable)
	couponStore := coupon.NewStore(cfg.DynamoDBClient, cfg.CouponsTable, cfg.UsedCouponsTable)
	walletStore := wallet.NewStore(cfg.DynamoDBClient, cfg.WalletsTable)
	userStore := users.NewStore(cfg.DynamoDBClient, cfg.UsersTable)
	orderStore := orders.NewStore(cfg.DynamoDBClient, cfg.OrdersTable, cfg.CountersTable)

	var events orders.EventPublisher
	if cfg.SQSClient != nil && cfg.QueueURL != "" {
		events = awsx.NewPublisher(cfg.SQSClient, cfg.QueueURL)
	}
	var metrics orders.MetricSink
	if cfg.CloudWatchClient != nil {
		metrics = awsx.NewMetrics(cfg.CloudWatchClient, cfg.MetricsNamespace)
	}

	gateway := cfg.Gateway
	if gateway == nil {
		gateway = payment.NewRazorpayGateway(cfg.RazorpayKeyID, cfg.RazorpayKeySecret, "INR")
	}
	verifier := cfg.Verifier
	if verifier == nil {
		verifier = payment.NewVerifier(cfg.RazorpayKeySecret)
	}

	pricing := catalog.NewEngine(catalog.EnforceExpiry)
	evaluator := coupon.NewEvaluator(couponStore)
	finalizer := orders.NewFinalizer(orderStore, cartStore, catalogStore, couponStore, userStore, events, metrics)
	refunds := orders.NewRefundService(walletStore, events, metrics)

	return &services{
		validate:  validation.New(),
		carts:     cart.NewService(cartStore, catalogStore, userStore, pricing),
		coupons:   evaluator,
		wallets:   walletStore,
		orders:    orderStore,
		assembler: orders.NewAssembler(orderStore, cartStore, catalogStore, evaluator, walletStore, userStore, gateway, finalizer, pricing),
		confirm:   orders.NewConfirmation(orderStore, verifier, finalizer, events, metrics),
		lifecycle: orders.NewLifecycle(orderStore, couponStore, refunds),
		sales:     reports.NewSales(orderStore),
	}
}

// RegisterRoutes mounts the storefront and admin API on the router.
func RegisterRoutes(r *gin.Engine, cfg HandlerConfig) {
	s := buildServices(cfg)

	registerCartRoutes(r, s)
	registerOrderRoutes(r, s)
	registerPaymentRoutes(r, s)
	registerWalletRoutes(r, s)
	registerAdminRoutes(r, s)
}

// userID pulls the authenticated user from the X-User-ID header. The
// session layer in front of this API resolves it; an empty header means
// the request never passed authentication.
func userID(c *gin.Context) (string, bool) {
	id := c.GetHeader("X-User-ID")
	if id == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing_user"})
		return "", false
	}
	return id, true
}

// respondError maps domain errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, orders.ErrOrderNotFound),
		errors.Is(err, orders.ErrItemNotFound),
		errors.Is(err, orders.ErrUserNotFound),
		errors.Is(err, cart.ErrUserNotFound),
		errors.Is(err, cart.ErrProductNotFound),
		errors.Is(err, cart.ErrCartNotFound),
		errors.Is(err, cart.ErrItemNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	case errors.Is(err, orders.ErrInvalidSignature):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})

	case errors.Is(err, cart.ErrOutOfStock),
		errors.Is(err, catalog.ErrInsufficientStock),
		errors.Is(err, coupon.ErrAlreadyUsed),
		errors.Is(err, wallet.ErrInsufficientBalance),
		errors.Is(err, orders.ErrNotCancellable),
		errors.Is(err, orders.ErrIllegalTransition),
		errors.Is(err, orders.ErrAlreadyPaid):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})

	case errors.Is(err, coupon.ErrInvalidCoupon),
		errors.Is(err, coupon.ErrExpired),
		errors.Is(err, coupon.ErrBelowMinimum),
		errors.Is(err, orders.ErrEmptyCart),
		errors.Is(err, orders.ErrInvalidAddress),
		errors.Is(err, orders.ErrProductUnavailable),
		errors.Is(err, orders.ErrTermsNotAccepted),
		errors.Is(err, orders.ErrUnknownPaymentMethod),
		errors.Is(err, orders.ErrCODLimitExceeded),
		errors.Is(err, orders.ErrNotGatewayOrder):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}
