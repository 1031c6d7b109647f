package utils

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/checkout/session"
	"github.com/stripe/stripe-go/v81/refund"
	"github.com/stripe/stripe-go/v81/webhook"
)

// CheckoutItem is one line of the manifest sent to the payment provider.
// UnitAmount is in the minor currency unit (cents).
type CheckoutItem struct {
	Name       string
	ImageURL   string
	UnitAmount int64
	Quantity   int64
}

// PaymentGateway wraps the Stripe API: hosted checkout sessions out, webhook
// events in, refunds on cancellation.
type PaymentGateway struct {
	webhookSecret string
	successURL    string
	cancelURL     string
	enabled       bool
}

func NewPaymentGateway(secretKey, webhookSecret, successURL, cancelURL string) *PaymentGateway {
	if secretKey == "" {
		log.Println("STRIPE_SECRET_KEY not set, payments disabled")
	}
	stripe.Key = secretKey
	return &PaymentGateway{
		webhookSecret: webhookSecret,
		successURL:    successURL,
		cancelURL:     cancelURL,
		enabled:       secretKey != "",
	}
}

// CreateCheckoutSession requests an externally hosted checkout session for
// the order. The order id travels in the session metadata and comes back on
// the webhook.
func (pg *PaymentGateway) CreateCheckoutSession(items []CheckoutItem, customerEmail, orderID string) (*stripe.CheckoutSession, error) {
	if !pg.enabled {
		return nil, fmt.Errorf("payment gateway is not configured")
	}

	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(items))
	for _, item := range items {
		productData := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(item.Name),
		}
		if item.ImageURL != "" {
			productData.Images = stripe.StringSlice([]string{item.ImageURL})
		}
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(string(stripe.CurrencyUSD)),
				ProductData: productData,
				UnitAmount:  stripe.Int64(item.UnitAmount),
			},
			Quantity: stripe.Int64(item.Quantity),
		})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		SuccessURL:         stripe.String(pg.successURL),
		CancelURL:          stripe.String(pg.cancelURL),
		CustomerEmail:      stripe.String(customerEmail),
		LineItems:          lineItems,
	}
	params.AddMetadata("orderId", orderID)

	return session.New(params)
}

// Refund asks the provider to return captured funds for the payment intent.
func (pg *PaymentGateway) Refund(paymentIntentID string) error {
	if !pg.enabled {
		return fmt.Errorf("payment gateway is not configured")
	}
	_, err := refund.New(&stripe.RefundParams{
		PaymentIntent: stripe.String(paymentIntentID),
		Reason:        stripe.String(string(stripe.RefundReasonRequestedByCustomer)),
	})
	return err
}

// ParseEvent decodes an inbound webhook payload. When a webhook secret is
// configured the provider signature is verified; without one the payload is
// trusted as-is, which is only acceptable for local development.
func (pg *PaymentGateway) ParseEvent(payload []byte, signatureHeader string) (stripe.Event, error) {
	if pg.webhookSecret != "" {
		return webhook.ConstructEvent(payload, signatureHeader, pg.webhookSecret)
	}
	var event stripe.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return stripe.Event{}, fmt.Errorf("failed to parse webhook payload: %w", err)
	}
	return event, nil
}
