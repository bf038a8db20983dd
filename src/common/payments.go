package common

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"whitepalace/src/config"
	"whitepalace/src/db"
	"whitepalace/src/lib"
	"whitepalace/src/models"
	"whitepalace/src/types"

	"github.com/stripe/stripe-go/v82"
	"gorm.io/gorm"
)

// Swappable in tests.
var (
	createPaymentIntent = lib.CreatePaymentIntent
	gatewaySleep        = time.Sleep
)

type PaymentIntentResult struct {
	Payment      *models.Payment `json:"payment"`
	ClientSecret string          `json:"client_secret"`
}

// CreateIntent binds one live payment intent to an order. The amount must
// match the order's persisted total exactly: the client-submitted figure
// is a cross-check, never the source of truth. If a live intent already
// exists it is returned unchanged instead of minting a duplicate charge.
func CreateIntent(ctx context.Context, orderID uint, amountCents int64, currency string) (*PaymentIntentResult, error) {
	if currency == "" {
		currency = "usd"
	}
	currency = strings.ToLower(currency)

	dbi := db.GetDb()
	var order models.Order
	if err := dbi.
		Model(&models.Order{}).
		Where("id = ?", orderID).
		First(&order).
		Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, types.NewNotFoundError("order %d not found", orderID)
		}
		return nil, err
	}
	if order.Status.Terminal() {
		return nil, types.NewConflictError("order %d is %s and can no longer be paid", orderID, order.Status)
	}
	if amountCents != order.TotalCents {
		return nil, types.NewValidationError("amount %d does not match order total %d", amountCents, order.TotalCents)
	}

	var existing models.Payment
	if err := dbi.
		Model(&models.Payment{}).
		Where("order_id = ? AND status IN ?", orderID, []types.PaymentStatus{types.PAYMENT_PENDING, types.PAYMENT_PROCESSING}).
		First(&existing).
		Error; err == nil {
		secret, _ := existing.Metadata["client_secret"].(string)
		return &PaymentIntentResult{Payment: &existing, ClientSecret: secret}, nil
	} else if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	// The attempt sequence is stable across transient retries, so the
	// gateway deduplicates: a retried create never yields two live
	// intents for one order.
	var attempts int64
	if err := dbi.
		Model(&models.Payment{}).
		Where("order_id = ?", orderID).
		Count(&attempts).
		Error; err != nil {
		return nil, err
	}
	idempotencyKey := fmt.Sprintf("order-%d-attempt-%d", orderID, attempts+1)

	intent, err := createIntentWithRetry(ctx, order, amountCents, currency, idempotencyKey)
	if err != nil {
		return nil, err
	}

	payment := models.Payment{
		StripePaymentIntentID: intent.ID,
		OrderID:               orderID,
		AmountCents:           amountCents,
		Currency:              currency,
		Status:                types.PAYMENT_PENDING,
		Metadata: types.JSONB{
			"client_secret":   intent.ClientSecret,
			"order_number":    order.OrderNumber,
			"idempotency_key": idempotencyKey,
		},
	}
	if err := dbi.Create(&payment).Error; err != nil {
		// A concurrent call holding the same idempotency key got the same
		// intent id and inserted first. Its row is ours too.
		var winner models.Payment
		if ferr := dbi.
			Model(&models.Payment{}).
			Where(&models.Payment{StripePaymentIntentID: intent.ID}).
			First(&winner).
			Error; ferr == nil {
			secret, _ := winner.Metadata["client_secret"].(string)
			return &PaymentIntentResult{Payment: &winner, ClientSecret: secret}, nil
		}
		return nil, err
	}
	return &PaymentIntentResult{Payment: &payment, ClientSecret: intent.ClientSecret}, nil
}

func createIntentWithRetry(ctx context.Context, order models.Order, amountCents int64, currency, idempotencyKey string) (*stripe.PaymentIntent, error) {
	metadata := map[string]string{
		"order_id":     fmt.Sprintf("%d", order.ID),
		"order_number": order.OrderNumber,
	}
	var lastErr error
	for attempt := 1; attempt <= config.GATEWAY_MAX_ATTEMPTS; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, config.GATEWAY_TIMEOUT)
		intent, err := createPaymentIntent(callCtx, amountCents, currency, idempotencyKey, metadata)
		cancel()
		if err == nil {
			return intent, nil
		}
		if !lib.IsTransientStripeError(err) {
			log.Printf("[stripe] Non-transient error creating intent for order %d: %s\n", order.ID, err.Error())
			return nil, types.NewUpstreamError("payment gateway rejected the request: %s", err.Error())
		}
		log.Printf("[stripe] Transient error creating intent for order %d (attempt %d/%d): %s\n", order.ID, attempt, config.GATEWAY_MAX_ATTEMPTS, err.Error())
		lastErr = err
		if attempt < config.GATEWAY_MAX_ATTEMPTS {
			gatewaySleep(time.Duration(attempt) * config.GATEWAY_RETRY_BACKOFF)
		}
	}
	return nil, types.NewUpstreamError("payment gateway unavailable after %d attempts: %s", config.GATEWAY_MAX_ATTEMPTS, lastErr.Error())
}

// Reconcile applies a gateway outcome to the payment and, on success,
// advances the order from pending to preparing. Webhooks deliver at least
// once, so the whole step is idempotent: replaying an outcome the payment
// already carries changes nothing, and a payment already in a terminal
// state absorbs stale redeliveries silently.
func Reconcile(intentID string, outcome types.PaymentStatus) (*models.Payment, error) {
	if !outcome.Valid() || outcome == types.PAYMENT_PENDING {
		return nil, types.NewValidationError("invalid payment outcome %q", outcome)
	}
	var payment models.Payment
	dbi := db.GetDb()
	err := dbi.Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Model(&models.Payment{}).
			Where(&models.Payment{StripePaymentIntentID: intentID}).
			First(&payment).
			Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return types.NewNotFoundError("payment intent %s not found", intentID)
			}
			return err
		}
		if payment.Status == outcome {
			return nil
		}
		if !payment.Status.Live() && payment.Status != types.PAYMENT_SUCCEEDED {
			log.Printf("[stripe] Ignoring outcome %s for settled payment %s (status %s)\n", outcome, intentID, payment.Status)
			return nil
		}
		if payment.Status == types.PAYMENT_SUCCEEDED && outcome != types.PAYMENT_REFUNDED {
			log.Printf("[stripe] Ignoring outcome %s for succeeded payment %s\n", outcome, intentID)
			return nil
		}

		res := tx.
			Model(&models.Payment{}).
			Where("stripe_payment_intent_id = ? AND status = ?", intentID, payment.Status).
			Update("status", outcome)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return types.NewConflictError("payment %s was modified concurrently, retry with fresh state", intentID)
		}
		payment.Status = outcome

		if outcome == types.PAYMENT_SUCCEEDED {
			// Zero rows here just means the order already advanced
			// through other means; the payment result stands either way.
			res := tx.
				Model(&models.Order{}).
				Where("id = ? AND status = ?", payment.OrderID, types.ORDER_PENDING).
				Update("status", types.ORDER_PREPARING)
			if res.Error != nil {
				return res.Error
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// GetPaymentByOrder returns the most recent payment for an order.
func GetPaymentByOrder(orderID uint) (*models.Payment, error) {
	var payment models.Payment
	dbi := db.GetDb()
	if err := dbi.
		Model(&models.Payment{}).
		Where(&models.Payment{OrderID: orderID}).
		Order("created_at DESC").
		First(&payment).
		Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, types.NewNotFoundError("no payment found for order %d", orderID)
		}
		return nil, err
	}
	return &payment, nil
}

// RefundPayment refunds the order's succeeded payment through the gateway
// and reconciles the refunded status locally.
func RefundPayment(ctx context.Context, orderID uint) (*models.Payment, error) {
	payment, err := GetPaymentByOrder(orderID)
	if err != nil {
		return nil, err
	}
	if payment.Status != types.PAYMENT_SUCCEEDED {
		return nil, types.NewConflictError("payment for order %d is %s, only succeeded payments can be refunded", orderID, payment.Status)
	}
	callCtx, cancel := context.WithTimeout(ctx, config.GATEWAY_TIMEOUT)
	defer cancel()
	if _, err := lib.RefundPaymentIntent(callCtx, payment.StripePaymentIntentID); err != nil {
		if lib.IsTransientStripeError(err) {
			return nil, types.NewUpstreamError("payment gateway unavailable: %s", err.Error())
		}
		return nil, types.NewUpstreamError("payment gateway rejected the refund: %s", err.Error())
	}
	return Reconcile(payment.StripePaymentIntentID, types.PAYMENT_REFUNDED)
}
