package payment

import (
	"context"
	"math"
	"strings"

	"medislot/models"

	"github.com/google/uuid"
)

// Gateway opens and refunds payment orders with a provider.
type Gateway interface {
	CreateOrder(ctx context.Context, req models.OrderRequest) (*models.PaymentOrder, error)
	Refund(ctx context.Context, orderID string) error
}

// MinorUnits converts an amount to the currency's smallest unit.
func MinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// LocalGateway issues order ids without contacting a provider. The checkout signs
// with the shared secret and the service verifies that signature as usual.
type LocalGateway struct{}

func (LocalGateway) CreateOrder(_ context.Context, req models.OrderRequest) (*models.PaymentOrder, error) {
	return &models.PaymentOrder{
		OrderID:  "order_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:14],
		Amount:   MinorUnits(req.Amount),
		Currency: req.Currency,
		Receipt:  req.Receipt,
	}, nil
}

func (LocalGateway) Refund(context.Context, string) error { return nil }
