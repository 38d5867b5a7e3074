package controllers

import (
	"errors"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newsdeskhq/newsdesk-backend/dto"
	"github.com/newsdeskhq/newsdesk-backend/models"
	"github.com/newsdeskhq/newsdesk-backend/payments"
	"github.com/newsdeskhq/newsdesk-backend/subscription"
)

// POST /create-payment-intent (auth)
func CreatePaymentIntent(stripe *payments.StripeClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.CreatePaymentIntentDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		amountCents := int64(math.Round(body.Price * 100))
		intent, err := stripe.CreateIntent(c.Request.Context(), amountCents)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"id":           intent.ID,
			"clientSecret": intent.ClientSecret,
		})
	}
}

// POST /subscriptions (auth)
// The payment intent must already be succeeded; only then does the
// caller's role move to premium with the purchased expiry window.
func CreateSubscription(manager *subscription.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.CreateSubscriptionDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		email := c.GetString("email")
		expiry, err := manager.Activate(c.Request.Context(),
			email, body.SubscriptionPeriod, body.PaymentIntentID, body.SubscriptionCost)
		if err != nil {
			if errors.Is(err, subscription.ErrUnknownPeriod) || errors.Is(err, subscription.ErrPaymentNotSucceeded) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"email":              email,
			"role":               models.RolePremium,
			"subscriptionExpiry": expiry,
		})
	}
}
