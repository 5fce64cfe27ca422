package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-backend/internal/domain"
)

func listOrdersHandler(svc orderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		orders, err := svc.List(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list orders"})
			return
		}
		if orders == nil {
			orders = []domain.Order{}
		}
		c.JSON(http.StatusOK, gin.H{"orders": orders})
	}
}

func getOrderHandler(svc orderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		order, err := svc.Get(c.Request.Context(), c.Param("orderId"))
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load order"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"order": order})
	}
}

func statusValuesHandler(svc orderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"statuses": svc.StatusValues()})
	}
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func updateStatusHandler(svc orderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req updateStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "status required"})
			return
		}

		order, err := svc.UpdateStatus(c.Request.Context(), c.Param("orderId"), domain.OrderStatus(req.Status))
		if err != nil {
			var validation *domain.ValidationError
			switch {
			case errors.Is(err, domain.ErrNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			case errors.As(err, &validation):
				c.JSON(http.StatusBadRequest, gin.H{"error": validation.Error()})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update order"})
			}
			return
		}
		c.JSON(http.StatusOK, gin.H{"order": order})
	}
}

func userOrdersHandler(svc orderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("userId")
		if !callerMayActFor(c, userID) {
			c.JSON(http.StatusForbidden, gin.H{"error": "cannot read another user's orders"})
			return
		}
		orders, err := svc.ListByBuyer(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list orders"})
			return
		}
		if orders == nil {
			orders = []domain.Order{}
		}
		c.JSON(http.StatusOK, gin.H{"orders": orders})
	}
}

func historyHandler(repo historyReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("userId")
		if !callerMayActFor(c, userID) {
			c.JSON(http.StatusForbidden, gin.H{"error": "cannot read another user's history"})
			return
		}
		entries, err := repo.History(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load purchase history"})
			return
		}
		if entries == nil {
			entries = []domain.PurchaseHistoryEntry{}
		}
		c.JSON(http.StatusOK, gin.H{"history": entries})
	}
}
