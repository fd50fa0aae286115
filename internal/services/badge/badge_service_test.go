// Tests for navigation badge counters: pending incoming proposals and
// the last-sender unread proxy.
package badge

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swaphub/swaphub-api/internal/config"
	"github.com/swaphub/swaphub-api/internal/models"
	"github.com/swaphub/swaphub-api/internal/repo"
	"github.com/swaphub/swaphub-api/internal/store"
)

func newTestService(t *testing.T) (*BadgeService, *repo.Repository) {
	t.Helper()
	r := repo.New(store.NewMemory())
	cfg := &config.Config{JWTSecret: "test-secret"}
	return NewBadgeService(cfg, r), r
}

func seedSwap(t *testing.T, r *repo.Repository, from, to uuid.UUID, status models.SwapStatus) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	swaps, err := r.Swaps(ctx)
	require.NoError(t, err)

	now := time.Now().UTC()
	sw := models.Swap{
		ID:              uuid.New(),
		FromUserID:      from,
		ToUserID:        to,
		OfferedItemID:   uuid.New(),
		RequestedItemID: uuid.New(),
		Status:          status,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	swaps = append(swaps, sw)
	require.NoError(t, r.SaveSwaps(ctx, swaps))
	return sw.ID
}

func appendMessage(t *testing.T, r *repo.Repository, swapID, from uuid.UUID, text string) {
	t.Helper()
	ctx := context.Background()
	msgs, err := r.Messages(ctx)
	require.NoError(t, err)
	msgs[swapID.String()] = append(msgs[swapID.String()], models.Message{
		FromUserID: from,
		Text:       text,
		Ts:         time.Now().UTC(),
	})
	require.NoError(t, r.SaveMessages(ctx, msgs))
}

func TestPendingIncomingCount(t *testing.T) {
	svc, r := newTestService(t)
	ctx := context.Background()
	alice, bob, carol := uuid.New(), uuid.New(), uuid.New()

	seedSwap(t, r, bob, alice, models.SwapStatusPending)
	seedSwap(t, r, carol, alice, models.SwapStatusPending)
	seedSwap(t, r, alice, bob, models.SwapStatusPending)  // outgoing, does not count
	seedSwap(t, r, bob, alice, models.SwapStatusAccepted) // not pending
	seedSwap(t, r, bob, alice, models.SwapStatusRejected)

	count, err := svc.PendingIncomingCount(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = svc.PendingIncomingCount(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestUnreadCount_LastSenderProxy(t *testing.T) {
	svc, r := newTestService(t)
	ctx := context.Background()
	alice, bob, carol := uuid.New(), uuid.New(), uuid.New()

	// Other party spoke last: counts as unread
	unread := seedSwap(t, r, bob, alice, models.SwapStatusAccepted)
	appendMessage(t, r, unread, bob, "still there?")

	// Alice spoke last: read
	read := seedSwap(t, r, carol, alice, models.SwapStatusAccepted)
	appendMessage(t, r, read, carol, "hello")
	appendMessage(t, r, read, alice, "hi!")

	// Empty log never counts
	seedSwap(t, r, bob, alice, models.SwapStatusAccepted)

	// A withdrawn swap is out of the conversation set even with messages
	withdrawn := seedSwap(t, r, bob, alice, models.SwapStatusWithdrawn)
	appendMessage(t, r, withdrawn, bob, "never mind")

	count, err := svc.UnreadCount(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Each conversation counts at most once regardless of backlog size
	appendMessage(t, r, unread, bob, "ping")
	appendMessage(t, r, unread, bob, "ping again")
	count, err = svc.UnreadCount(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Replying clears it
	appendMessage(t, r, unread, alice, "sorry, yes")
	count, err = svc.UnreadCount(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
