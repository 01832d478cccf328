// Package payment abstracts the checkout provider.
package payment

import (
	"context"
	"fmt"
	"net/url"

	"github.com/tourbase/tourbase/internal/model"
)

// CheckoutSession is a hosted payment page for one booking attempt.
type CheckoutSession struct {
	ID          string  `json:"id"`
	URL         string  `json:"url"`
	TourID      string  `json:"tour_id"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	ReferenceID string  `json:"reference_id"`
}

// Provider creates hosted checkout sessions.
type Provider interface {
	CreateCheckoutSession(ctx context.Context, tour *model.Tour, user *model.Principal, referenceID string) (*CheckoutSession, error)
}

// HostedProvider builds checkout URLs against a configured payment
// page base. It performs no network calls; the hosted page confirms
// payment out of band.
type HostedProvider struct {
	baseURL  string
	currency string
}

// NewHostedProvider creates a HostedProvider.
func NewHostedProvider(baseURL string) *HostedProvider {
	return &HostedProvider{baseURL: baseURL, currency: "usd"}
}

// CreateCheckoutSession builds a session for the tour's effective price.
func (p *HostedProvider) CreateCheckoutSession(ctx context.Context, tour *model.Tour, user *model.Principal, referenceID string) (*CheckoutSession, error) {
	if p.baseURL == "" {
		return nil, fmt.Errorf("checkout base URL not configured")
	}

	amount := tour.EffectivePrice()

	q := url.Values{}
	q.Set("tour", tour.ID)
	q.Set("user", user.UserID)
	q.Set("ref", referenceID)

	return &CheckoutSession{
		ID:          referenceID,
		URL:         fmt.Sprintf("%s/checkout?%s", p.baseURL, q.Encode()),
		TourID:      tour.ID,
		Amount:      amount,
		Currency:    p.currency,
		ReferenceID: referenceID,
	}, nil
}
