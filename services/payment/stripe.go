package payment

import (
	"context"
	"fmt"
	"strings"

	"medislot/models"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// StripeGateway backs orders with Stripe PaymentIntents. The PaymentIntent id is the
// order id; the client secret lets the checkout confirm the card.
type StripeGateway struct {
	api *client.API
}

func NewStripeGateway(key string) *StripeGateway {
	return &StripeGateway{api: client.New(key, nil)}
}

func (g *StripeGateway) CreateOrder(ctx context.Context, req models.OrderRequest) (*models.PaymentOrder, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(MinorUnits(req.Amount)),
		Currency: stripe.String(strings.ToLower(req.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.AddMetadata("appointmentId", req.AppointmentID)
	params.AddMetadata("receipt", req.Receipt)

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create payment intent: %w", err)
	}
	return &models.PaymentOrder{
		OrderID:      pi.ID,
		Amount:       pi.Amount,
		Currency:     strings.ToUpper(string(pi.Currency)),
		Receipt:      req.Receipt,
		ClientSecret: pi.ClientSecret,
	}, nil
}

func (g *StripeGateway) Refund(ctx context.Context, orderID string) error {
	params := &stripe.RefundParams{PaymentIntent: stripe.String(orderID)}
	params.Context = ctx
	if _, err := g.api.Refunds.New(params); err != nil {
		return fmt.Errorf("stripe: refund %s: %w", orderID, err)
	}
	return nil
}
