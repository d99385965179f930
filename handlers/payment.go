package handlers

import (
	"io"
	"net/http"

	"slotpass/middleware"
	"slotpass/utils"

	"github.com/gin-gonic/gin"
)

// WebhookSignatureHeader carries the gateway's HMAC over the raw body.
const WebhookSignatureHeader = "X-Webhook-Signature"

// CreateBookingOrderHandler opens a gateway order for an accepted booking.
func (hb *HandlerBundle) CreateBookingOrderHandler(c *gin.Context) {
	order, err := hb.Payments.CreateOrderForBooking(c.Request.Context(), middleware.SessionUserID(c), c.Param("bookingID"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// CreateSubscriptionOrderHandler opens a gateway order for the owner
// subscription plan.
func (hb *HandlerBundle) CreateSubscriptionOrderHandler(c *gin.Context) {
	order, err := hb.Payments.CreateOrderForSubscription(c.Request.Context(), middleware.SessionUserID(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// PaymentWebhookHandler receives gateway deliveries. The raw body is read
// before any parsing; the signature covers those exact bytes.
func (hb *HandlerBundle) PaymentWebhookHandler(c *gin.Context) {
	rawBody, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	err = hb.Payments.HandleWebhookEvent(c.Request.Context(), rawBody, c.GetHeader(WebhookSignatureHeader))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

// MySubscriptionHandler returns the caller's active subscription, if any.
func (hb *HandlerBundle) MySubscriptionHandler(c *gin.Context) {
	sub, err := hb.Subscriptions.Current(c.Request.Context(), middleware.SessionUserID(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if sub == nil {
		c.JSON(http.StatusOK, gin.H{"active": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"active": true, "subscription": sub})
}
