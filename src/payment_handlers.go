package main

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"

	"whitepalace/src/common"
	"whitepalace/src/middlewares"
	"whitepalace/src/types"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

func paymentHandlers(g *gin.Engine) {
	apiv1 := apiv1Group(g)
	authed := apiv1.Group("", middlewares.RequireAuth(types.PRINCIPAL_CUSTOMER, types.PRINCIPAL_ADMIN))
	admin := apiv1.Group("", middlewares.RequireAdmin())

	authed.POST("/payments/intent", func(ctx *gin.Context) {
		var body types.CreateIntentRequestBody
		if err := ctx.ShouldBindJSON(&body); err != nil {
			respondError(ctx, types.NewValidationError("order_id and amount_cents are required"))
			return
		}
		principal, _ := middlewares.CurrentPrincipal(ctx)
		if principal.Kind == types.PRINCIPAL_CUSTOMER {
			order, err := common.GetOrder(strconv.FormatUint(uint64(body.OrderID), 10))
			if err != nil {
				respondError(ctx, err)
				return
			}
			if order.CustomerPhone != principal.Phone {
				respondError(ctx, types.NewForbiddenError("not your order"))
				return
			}
		}
		result, err := common.CreateIntent(ctx.Request.Context(), body.OrderID, body.AmountCents, body.Currency)
		if err != nil {
			respondError(ctx, err)
			return
		}
		respondData(ctx, http.StatusCreated, gin.H{
			"payment_intent_id": result.Payment.StripePaymentIntentID,
			"client_secret":     result.ClientSecret,
			"status":            result.Payment.Status,
		})
	})

	authed.GET("/payments/:orderID", func(ctx *gin.Context) {
		atoi, err := strconv.Atoi(ctx.Param("orderID"))
		if err != nil {
			respondError(ctx, types.NewValidationError("invalid order id"))
			return
		}
		orderID := uint(atoi)
		principal, _ := middlewares.CurrentPrincipal(ctx)
		if principal.Kind == types.PRINCIPAL_CUSTOMER {
			order, err := common.GetOrder(ctx.Param("orderID"))
			if err != nil {
				respondError(ctx, err)
				return
			}
			if order.CustomerPhone != principal.Phone {
				respondError(ctx, types.NewForbiddenError("not your order"))
				return
			}
		}
		payment, err := common.GetPaymentByOrder(orderID)
		if err != nil {
			respondError(ctx, err)
			return
		}
		respondData(ctx, http.StatusOK, payment)
	})

	admin.POST("/payments/:orderID/refund", func(ctx *gin.Context) {
		atoi, err := strconv.Atoi(ctx.Param("orderID"))
		if err != nil {
			respondError(ctx, types.NewValidationError("invalid order id"))
			return
		}
		payment, err := common.RefundPayment(ctx.Request.Context(), uint(atoi))
		if err != nil {
			respondError(ctx, err)
			return
		}
		respondData(ctx, http.StatusOK, payment)
	})
}

// stripeWebhookRoute receives gateway outcome callbacks. Delivery is at
// least once; reconciliation dedupes on the intent id, so replays are
// harmless.
func stripeWebhookRoute(g *gin.Engine) {
	apiv1 := apiv1Group(g)
	apiv1.POST("/payments/webhook", func(ctx *gin.Context) {
		payload, err := io.ReadAll(ctx.Request.Body)
		if err != nil {
			log.Printf("Error reading request body: %s\n", err.Error())
			ctx.Status(http.StatusServiceUnavailable)
			return
		}
		whsecret := os.Getenv("STRIPE_WEBHOOK_SECRET")
		event, err := webhook.ConstructEvent(payload, ctx.GetHeader("Stripe-Signature"), whsecret)
		if err != nil {
			log.Printf("Error verifying webhook signature: %s\n", err.Error())
			ctx.Status(http.StatusBadRequest)
			return
		}
		log.Printf("[StripeEvent] %s\n", event.Type)

		var outcome types.PaymentStatus
		switch event.Type {
		case "payment_intent.processing":
			outcome = types.PAYMENT_PROCESSING
		case "payment_intent.succeeded":
			outcome = types.PAYMENT_SUCCEEDED
		case "payment_intent.payment_failed":
			outcome = types.PAYMENT_FAILED
		case "payment_intent.canceled":
			outcome = types.PAYMENT_CANCELED
		default:
			// Not an outcome this engine reconciles.
			ctx.Status(http.StatusOK)
			return
		}

		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			log.Printf("[stripe] Error parsing PaymentIntent: %s\n", err.Error())
			ctx.Status(http.StatusBadRequest)
			return
		}
		if _, err := common.Reconcile(intent.ID, outcome); err != nil {
			if apiErr, ok := types.AsAPIError(err); ok && apiErr.Kind == types.KIND_NOT_FOUND {
				// An intent this process never created; acknowledge so
				// the gateway stops redelivering.
				log.Printf("[stripe] Unknown intent %s in webhook, ignoring\n", intent.ID)
				ctx.Status(http.StatusOK)
				return
			}
			log.Printf("[stripe] Error reconciling intent %s: %s\n", intent.ID, err.Error())
			ctx.Status(http.StatusInternalServerError)
			return
		}
		ctx.Status(http.StatusOK)
	})
}
