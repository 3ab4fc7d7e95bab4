package usecase

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"ticket-booking/internal/data/entity"
	"ticket-booking/pkg/utils"
)

// PaymentOutcome is how the payment widget finished.
type PaymentOutcome string

const (
	PaymentSuccess   PaymentOutcome = "success"
	PaymentFailed    PaymentOutcome = "failed"
	PaymentCancelled PaymentOutcome = "cancelled"
)

// PaymentResult is the event delivered by the widget callback. PaymentID is
// only meaningful on success and is treated as opaque.
type PaymentResult struct {
	Outcome   PaymentOutcome
	PaymentID string
}

// PaymentGateway verifies a completed payment and returns the id to record.
type PaymentGateway interface {
	Mode() string
	Verify(ctx context.Context, booking *entity.Booking, paymentID string) (string, error)
}

const PaymentModeTest = "test"

// NewPaymentGateway builds the gateway for the configured mode.
func NewPaymentGateway(config utils.PaymentConfig) (PaymentGateway, error) {
	switch config.Mode {
	case PaymentModeTest, "":
		return &testGateway{now: time.Now}, nil
	default:
		return nil, fmt.Errorf("unsupported payment mode %q", config.Mode)
	}
}

// testGateway accepts any gateway-shaped id and mints one when the widget
// ran in test mode without returning it.
type testGateway struct {
	now func() time.Time
}

func (g *testGateway) Mode() string {
	return PaymentModeTest
}

func (g *testGateway) Verify(_ context.Context, _ *entity.Booking, paymentID string) (string, error) {
	if paymentID == "" {
		return utils.GenerateTestPaymentID(g.now()), nil
	}
	if !strings.HasPrefix(paymentID, "pay_") {
		return "", fmt.Errorf("%w: unrecognized payment id %q", ErrPaymentRejected, paymentID)
	}
	return paymentID, nil
}

// toMinorUnits converts a major-unit amount to the gateway's integer unit.
func toMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
