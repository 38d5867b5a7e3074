package payments

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

// StatusSucceeded is the only intent status that grants premium access.
const StatusSucceeded = "succeeded"

// Verifier answers what state a payment intent is in. The subscription
// lifecycle depends on this interface so tests can stub the processor.
type Verifier interface {
	IntentStatus(ctx context.Context, intentID string) (string, error)
}

type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"clientSecret"`
}

type StripeClient struct {
	api *client.API
}

func NewStripeClient() (*StripeClient, error) {
	key := os.Getenv("STRIPE_SECRET_KEY")
	if key == "" {
		return nil, fmt.Errorf("STRIPE_SECRET_KEY is not set")
	}
	api := &client.API{}
	api.Init(key, nil)
	return &StripeClient{api: api}, nil
}

func (s *StripeClient) IntentStatus(ctx context.Context, intentID string) (string, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := s.api.PaymentIntents.Get(intentID, params)
	if err != nil {
		return "", fmt.Errorf("retrieve payment intent: %w", err)
	}
	return string(pi.Status), nil
}

// CreateIntent opens a card charge for the given amount in cents.
func (s *StripeClient) CreateIntent(ctx context.Context, amountCents int64) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(amountCents),
		Currency:           stripe.String(string(stripe.CurrencyUSD)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	params.Context = ctx
	params.SetIdempotencyKey(uuid.New().String())

	pi, err := s.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}
	return &Intent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}
