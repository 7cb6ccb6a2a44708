package order

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanTransitionForwardOnly(t *testing.T) {
	require.NoError(t, CanTransition(StatusPending, StatusProcessing))
	require.NoError(t, CanTransition(StatusPending, StatusConfirmed))
	require.NoError(t, CanTransition(StatusShipped, StatusDelivered))

	// Backwards movement is rejected.
	require.ErrorIs(t, CanTransition(StatusShipped, StatusProcessing), ErrInvalidTransition)
	require.ErrorIs(t, CanTransition(StatusDelivered, StatusPending), ErrOrderClosed)
	require.ErrorIs(t, CanTransition(StatusConfirmed, StatusConfirmed), ErrInvalidTransition)
}

func TestCanTransitionExceptionalTargets(t *testing.T) {
	for _, from := range []Status{StatusPending, StatusProcessing, StatusConfirmed, StatusShipped, StatusOutForDelivery} {
		require.NoError(t, CanTransition(from, StatusCancelled), "cancel from %s", from)
		require.NoError(t, CanTransition(from, StatusRefunded), "refund from %s", from)
		require.NoError(t, CanTransition(from, StatusFailed), "fail from %s", from)
	}
}

func TestTerminalStatesRejectEverything(t *testing.T) {
	for _, from := range []Status{StatusDelivered, StatusCancelled, StatusRefunded, StatusFailed} {
		require.True(t, from.Terminal())
		// Repeating the current status is rejected like any other target.
		for _, to := range []Status{StatusPending, StatusProcessing, StatusShipped, StatusCancelled, StatusRefunded, from} {
			require.ErrorIs(t, CanTransition(from, to), ErrOrderClosed, "%s -> %s", from, to)
		}
	}
}

func TestCanTransitionPayment(t *testing.T) {
	require.NoError(t, CanTransitionPayment(PaymentPending, PaymentAuthorized))
	require.NoError(t, CanTransitionPayment(PaymentPending, PaymentCaptured))
	require.NoError(t, CanTransitionPayment(PaymentAuthorized, PaymentCaptured))
	require.NoError(t, CanTransitionPayment(PaymentCaptured, PaymentPartiallyRefunded))
	require.NoError(t, CanTransitionPayment(PaymentPartiallyRefunded, PaymentRefunded))

	require.ErrorIs(t, CanTransitionPayment(PaymentCaptured, PaymentPending), ErrInvalidTransition)
	require.ErrorIs(t, CanTransitionPayment(PaymentRefunded, PaymentCaptured), ErrInvalidTransition)
	require.ErrorIs(t, CanTransitionPayment(PaymentFailed, PaymentCaptured), ErrInvalidTransition)
}

func TestDeriveCascade(t *testing.T) {
	cascade, ok := DeriveCascade(StatusPending, PaymentCaptured)
	require.True(t, ok)
	require.Equal(t, StatusConfirmed, cascade.Status)
	require.Equal(t, "Payment confirmed, order auto-confirmed", cascade.Note)

	// Captured payment on an already progressed order changes nothing.
	_, ok = DeriveCascade(StatusProcessing, PaymentCaptured)
	require.False(t, ok)

	cascade, ok = DeriveCascade(StatusShipped, PaymentRefunded)
	require.True(t, ok)
	require.Equal(t, StatusRefunded, cascade.Status)
	require.Equal(t, "Order refunded", cascade.Note)

	_, ok = DeriveCascade(StatusRefunded, PaymentRefunded)
	require.False(t, ok)
}
