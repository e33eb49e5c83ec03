package main

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/joho/godotenv"

	"github.com/evergreen-commerce/evergreen-backend/internal/awsx"
	"github.com/evergreen-commerce/evergreen-backend/internal/cart"
	"github.com/evergreen-commerce/evergreen-backend/internal/catalog"
	"github.com/evergreen-commerce/evergreen-backend/internal/coupon"
	"github.com/evergreen-commerce/evergreen-backend/internal/notify"
	"github.com/evergreen-commerce/evergreen-backend/internal/orders"
	"github.com/evergreen-commerce/evergreen-backend/internal/users"
)

func buildProcessor(clients *awsx.Clients) *Processor {
	orderStore := orders.NewStore(clients.DynamoDB, os.Getenv("ORDERS_TABLE"), os.Getenv("COUNTERS_TABLE"))
	cartStore := cart.NewStore(clients.DynamoDB, os.Getenv("CARTS_TABLE"))
	catalogStore := catalog.NewStore(clients.DynamoDB, os.Getenv("PRODUCTS_TABLE"), os.Getenv("CATEGORIES_TABLE"))
	couponStore := coupon.NewStore(clients.DynamoDB, os.Getenv("COUPONS_TABLE"), os.Getenv("USED_COUPONS_TABLE"))
	userStore := users.NewStore(clients.DynamoDB, os.Getenv("USERS_TABLE"))

	metrics := awsx.NewMetrics(clients.CloudWatch, os.Getenv("METRICS_NAMESPACE"))

	// The sweep never re-publishes order.finalized: a re-driven saga has
	// already notified the customer once.
	finalizer := orders.NewFinalizer(orderStore, cartStore, catalogStore, couponStore, userStore, nil, metrics)

	return NewProcessor(notify.LogSender{}, finalizer)
}

func main() {
	_ = godotenv.Load()

	clients, err := awsx.NewClients(context.Background())
	if err != nil {
		log.Fatalf("failed to init aws clients: %v", err)
	}
	p := buildProcessor(clients)

	// If RUN_LOCAL=true, simulate a single SQS event for local testing.
	if os.Getenv("RUN_LOCAL") == "true" {
		testBody := os.Getenv("LOCAL_SQS_BODY")
		if testBody == "" {
			testBody = `{"type":"finalization.reconcile"}`
		}
		event := events.SQSEvent{
			Records: []events.SQSMessage{
				{Body: testBody},
			},
		}
		if err := p.Handle(context.Background(), event); err != nil {
			log.Fatalf("local handler error: %v", err)
		}
		return
	}

	lambda.Start(p.Handle)
}
