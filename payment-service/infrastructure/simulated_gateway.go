package infrastructure

import (
	"context"
	"strings"

	"github.com/cartena/fulfillment-system/payment-service/domain"
	"github.com/cartena/fulfillment-system/shared/models"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

var _ domain.Gateway = (*SimulatedGateway)(nil)

// SimulatedGateway stands in for a real payment provider. Charges succeed
// unless the configured decline threshold is exceeded, which makes local and
// test environments deterministic.
type SimulatedGateway struct {
	declineAbove int64
	logger       zerolog.Logger
}

// NewSimulatedGateway creates a new SimulatedGateway. declineAbove is the
// amount in cents above which charges are declined; zero disables declining.
func NewSimulatedGateway(declineAbove int64, logger zerolog.Logger) *SimulatedGateway {
	return &SimulatedGateway{
		declineAbove: declineAbove,
		logger:       logger,
	}
}

// CreateCharge simulates a provider charge
func (g *SimulatedGateway) CreateCharge(ctx context.Context, orderID, userID models.ID, amount models.Money) (string, error) {
	if g.declineAbove > 0 && amount.Amount > g.declineAbove {
		g.logger.Info().
			Str("order_id", orderID.String()).
			Int64("amount", amount.Amount).
			Msg("simulated gateway declined charge")
		return "", domain.Decline("charge of %d %s declined", amount.Amount, amount.Currency)
	}

	externalPaymentID := "sim_" + strings.ReplaceAll(models.GenerateUUID().String(), "-", "")
	g.logger.Info().
		Str("order_id", orderID.String()).
		Str("external_payment_id", externalPaymentID).
		Msg("simulated gateway created charge")
	return externalPaymentID, nil
}

// Refund simulates a provider refund. Refunds always succeed for charges the
// simulator issued.
func (g *SimulatedGateway) Refund(ctx context.Context, externalPaymentID string, amount models.Money) error {
	if !strings.HasPrefix(externalPaymentID, "sim_") {
		return errors.Errorf("unknown external payment %s", externalPaymentID)
	}

	g.logger.Info().
		Str("external_payment_id", externalPaymentID).
		Int64("amount", amount.Amount).
		Msg("simulated gateway refunded charge")
	return nil
}
