package httpserver

import (
	"context"
	"errors"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"storefront-backend/internal/domain"
	"storefront-backend/internal/metrics"
	checkoutsvc "storefront-backend/internal/service/checkout"
)

type checkoutService interface {
	Checkout(ctx context.Context, in checkoutsvc.Input) (*domain.Order, error)
}

type orderService interface {
	Get(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context) ([]domain.Order, error)
	ListByBuyer(ctx context.Context, buyerID string) ([]domain.Order, error)
	StatusValues() []domain.OrderStatus
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error)
}

type historyReader interface {
	History(ctx context.Context, userID string) ([]domain.PurchaseHistoryEntry, error)
}

// Deps carries the services the router dispatches to.
type Deps struct {
	CheckoutSvc checkoutService
	OrderSvc    orderService
	HistoryRepo historyReader
	JWTSecret   string
}

// buildRouter wires routes for the API.
func buildRouter(logger *zap.Logger, db *pgxpool.Pool, deps Deps) (*gin.Engine, error) {
	if deps.CheckoutSvc == nil || deps.OrderSvc == nil || deps.HistoryRepo == nil {
		return nil, errors.New("httpserver: missing dependencies")
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:    []string{"Authorization", "Content-Type", idempotencyKeyHeader},
	}))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	authed := router.Group("/", requireAuth(deps.JWTSecret))
	{
		authed.POST("/checkout", checkoutHandler(deps.CheckoutSvc))
		authed.GET("/users/:userId/history", historyHandler(deps.HistoryRepo))
		authed.GET("/users/:userId/orders", userOrdersHandler(deps.OrderSvc))
	}

	admin := router.Group("/", requireAuth(deps.JWTSecret), requireAdmin())
	{
		admin.GET("/orders", listOrdersHandler(deps.OrderSvc))
		admin.GET("/orders/statuses", statusValuesHandler(deps.OrderSvc))
		admin.GET("/orders/:orderId", getOrderHandler(deps.OrderSvc))
		admin.PUT("/orders/:orderId/status", updateStatusHandler(deps.OrderSvc))
	}

	return router, nil
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		logger.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()))
	}
}
