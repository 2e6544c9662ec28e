package consumer

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/pkg/events"
)

type recordingClearer struct {
	cleared []uuid.UUID
}

func (r *recordingClearer) DeleteAllFromCart(_ context.Context, userID uuid.UUID) error {
	r.cleared = append(r.cleared, userID)
	return nil
}

func TestHandler_ClearsBuyerCart(t *testing.T) {
	rec := &recordingClearer{}
	h := Handler(rec)
	ctx := context.Background()
	fromEnvelope, fromPayload := uuid.New(), uuid.New()

	e := events.New(events.OrderPlaced)
	e.UserID = fromEnvelope.String()
	require.NoError(t, h(ctx, e))

	e, err := events.New(events.OrderPlaced).WithData(events.OrderPayload{UserID: fromPayload.String()})
	require.NoError(t, err)
	require.NoError(t, h(ctx, e))

	cancelled := events.New(events.OrderCancelled)
	cancelled.UserID = uuid.NewString()
	require.NoError(t, h(ctx, cancelled))

	assert.Equal(t, []uuid.UUID{fromEnvelope, fromPayload}, rec.cleared)

	bad := events.New(events.OrderPlaced)
	bad.UserID = "nope"
	assert.Error(t, h(ctx, bad))
}
