package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-backend/internal/domain"
	checkoutsvc "storefront-backend/internal/service/checkout"
)

// idempotencyKeyHeader lets a client retry a checkout safely: two
// requests carrying the same key settle into a single order.
const idempotencyKeyHeader = "Idempotency-Key"

type checkoutRequest struct {
	LineItems    []lineItemRequest `json:"lineItems" binding:"required"`
	PaymentNonce string            `json:"paymentNonce" binding:"required"`
	BuyerID      string            `json:"buyerId"`
}

type lineItemRequest struct {
	ProductID  string `json:"productId"`
	Name       string `json:"name"`
	PriceCents int64  `json:"priceCents"`
	Count      int    `json:"count"`
}

func checkoutHandler(svc checkoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req checkoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed checkout payload"})
			return
		}

		buyerID := req.BuyerID
		if buyerID == "" {
			buyerID = c.GetString(ctxUserID)
		}
		if !callerMayActFor(c, buyerID) {
			c.JSON(http.StatusForbidden, gin.H{"error": "cannot checkout for another user"})
			return
		}

		lines := make([]domain.LineItem, 0, len(req.LineItems))
		for _, l := range req.LineItems {
			lines = append(lines, domain.LineItem{
				ProductID:  l.ProductID,
				Name:       l.Name,
				PriceCents: l.PriceCents,
				Count:      l.Count,
			})
		}

		order, err := svc.Checkout(c.Request.Context(), checkoutsvc.Input{
			BuyerID:        buyerID,
			Lines:          lines,
			PaymentNonce:   req.PaymentNonce,
			IdempotencyKey: c.GetHeader(idempotencyKeyHeader),
		})
		if err != nil {
			writeCheckoutError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"order": order})
	}
}

func writeCheckoutError(c *gin.Context, err error) {
	var (
		validation   *domain.ValidationError
		declined     *domain.PaymentDeclinedError
		unavailable  *domain.PaymentUnavailableError
		insufficient *domain.InsufficientStockError
		mismatch     *domain.AmountMismatchError
	)
	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Error()})
	case errors.As(err, &mismatch):
		c.JSON(http.StatusBadRequest, gin.H{"error": mismatch.Error()})
	case errors.As(err, &declined):
		c.JSON(http.StatusPaymentRequired, gin.H{"reason": declined.Reason})
	case errors.As(err, &unavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "payment gateway unavailable, retry later"})
	case errors.As(err, &insufficient):
		c.JSON(http.StatusConflict, gin.H{"outOfStock": insufficient.ProductIDs})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "checkout failed"})
	}
}
