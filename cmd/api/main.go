package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/evergreen-commerce/evergreen-backend/internal/awsx"
	"github.com/evergreen-commerce/evergreen-backend/internal/handlers"
)

func setupRouter(cfg handlers.HandlerConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handlers.RegisterRoutes(r, cfg)

	return r
}

func main() {
	// .env is for local development only; in Lambda the environment is real.
	_ = godotenv.Load()

	clients, err := awsx.NewClients(context.Background())
	if err != nil {
		log.Fatalf("failed to init aws clients: %v", err)
	}

	cfg := handlers.HandlerConfig{
		DynamoDBClient:   clients.DynamoDB,
		SQSClient:        clients.SQS,
		CloudWatchClient: clients.CloudWatch,

		ProductsTable:    os.Getenv("PRODUCTS_TABLE"),
		CategoriesTable:  os.Getenv("CATEGORIES_TABLE"),
		CartsTable:       os.Getenv("CARTS_TABLE"),
		CouponsTable:     os.Getenv("COUPONS_TABLE"),
		UsedCouponsTable: os.Getenv("USED_COUPONS_TABLE"),
		WalletsTable:     os.Getenv("WALLETS_TABLE"),
		UsersTable:       os.Getenv("USERS_TABLE"),
		OrdersTable:      os.Getenv("ORDERS_TABLE"),
		CountersTable:    os.Getenv("COUNTERS_TABLE"),

		QueueURL:         os.Getenv("ORDER_EVENTS_QUEUE_URL"),
		MetricsNamespace: os.Getenv("METRICS_NAMESPACE"),

		RazorpayKeyID:     os.Getenv("RAZORPAY_KEY_ID"),
		RazorpayKeySecret: os.Getenv("RAZORPAY_KEY_SECRET"),
	}

	r := setupRouter(cfg)

	// if environment variable RUN_LOCAL is set to "true", run local HTTP server for development.
	if os.Getenv("RUN_LOCAL") == "true" {
		addr := ":8080"
		log.Printf("running local server on %s", addr)
		if err := r.Run(addr); err != nil {
			log.Fatalf("failed to run local server: %v", err)
		}
		return
	}

	// lambda adapter
	adapter := ginadapter.New(r)

	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (interface{}, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}
