package usecase

import (
	"errors"
	"fmt"
	"testing"

	"ticket-booking/internal/data/entity"

	"github.com/stretchr/testify/assert"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{fmt.Errorf("%w: dial tcp", ErrStoreUnavailable), true},
		{fmt.Errorf("%w: seat A1", ErrClaimAborted), true},
		{ErrSubmissionInProgress, true},
		{ErrPaymentFailed, true},
		{fmt.Errorf("%w: unrecognized payment id", ErrPaymentRejected), true},
		{&ConflictError{Seats: []entity.SeatRef{{Row: "A", SeatNumber: 1}}}, false},
		{ErrBookingNotPending, false},
		{ErrBookingForbidden, false},
		{newValidationError(map[string]string{"ShowDate": "Must not be in the past"}), false},
		{errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}
