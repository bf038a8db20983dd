package lib

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/stripe/stripe-go/v82"
)

var stripeClient *stripe.Client

func GetStripeClient() *stripe.Client {
	if stripeClient != nil {
		return stripeClient
	}
	apiKey := os.Getenv("STRIPE_SECRET_KEY")
	sc := stripe.NewClient(apiKey)
	stripeClient = sc

	return sc
}

// NewStripeClient Replace stripe instance with custom client implementation
func NewStripeClient(c *stripe.Client) {
	stripeClient = c
}

// CreatePaymentIntent requests a new intent from the gateway. The
// idempotency key makes retried creation safe: Stripe deduplicates and
// returns the already-created intent instead of minting a second one.
func CreatePaymentIntent(ctx context.Context, amountCents int64, currency string, idempotencyKey string, metadata map[string]string) (*stripe.PaymentIntent, error) {
	sc := GetStripeClient()
	params := stripe.PaymentIntentCreateParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(currency),
		Metadata: metadata,
	}
	params.SetIdempotencyKey(idempotencyKey)
	return sc.V1PaymentIntents.Create(ctx, &params)
}

func RefundPaymentIntent(ctx context.Context, intentID string) (*stripe.Refund, error) {
	sc := GetStripeClient()
	params := stripe.RefundCreateParams{
		PaymentIntent: stripe.String(intentID),
	}
	return sc.V1Refunds.Create(ctx, &params)
}

// IsTransientStripeError reports whether a gateway failure is worth
// retrying. Timeouts and 5xx/429 responses are transient; everything else
// (bad amount, invalid request) is surfaced to the caller as-is.
func IsTransientStripeError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return stripeErr.HTTPStatusCode >= http.StatusInternalServerError ||
			stripeErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	// Connection-level failures carry no stripe.Error.
	return true
}
