// Tests for the swap state machine and the coupled item-locking protocol:
// proposal validation, authorization per party, the transition table,
// defensive unlock, and the lock invariant over operation sequences.
package swap

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swaphub/swaphub-api/internal/apperr"
	"github.com/swaphub/swaphub-api/internal/models"
	"github.com/swaphub/swaphub-api/internal/repo"
	"github.com/swaphub/swaphub-api/internal/services/chat"
	"github.com/swaphub/swaphub-api/internal/store"
)

func newTestEngine(t *testing.T) (*Engine, *repo.Repository) {
	t.Helper()
	r := repo.New(store.NewMemory())
	return NewEngine(r), r
}

func seedItem(t *testing.T, r *repo.Repository, ownerID uuid.UUID, title string) uuid.UUID {
	t.Helper()
	items, err := r.Items(context.Background())
	require.NoError(t, err)

	item := models.Item{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Title:       title,
		Category:    "books",
		Condition:   "good",
		City:        "Winnipeg",
		Description: "seed item",
		Images:      []models.ItemImage{{URL: "https://img.example/1.jpg", Bytes: 1024}},
		Status:      models.ItemStatusActive,
		CreatedAt:   time.Now().UTC(),
	}
	items = append(items, item)
	require.NoError(t, r.SaveItems(context.Background(), items))
	return item.ID
}

func getItem(t *testing.T, r *repo.Repository, id uuid.UUID) models.Item {
	t.Helper()
	item, _, err := r.ItemByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, item)
	return *item
}

// assertLockInvariant scans all items and swaps: every locked item must
// reference a swap that is pending (offered side) or accepted (either side),
// never a terminal one.
func assertLockInvariant(t *testing.T, r *repo.Repository) {
	t.Helper()
	ctx := context.Background()

	items, err := r.Items(ctx)
	require.NoError(t, err)
	swaps, err := r.Swaps(ctx)
	require.NoError(t, err)

	byID := make(map[uuid.UUID]models.Swap, len(swaps))
	for _, sw := range swaps {
		byID[sw.ID] = sw
	}

	for _, it := range items {
		if it.Status == models.ItemStatusLocked {
			require.NotNil(t, it.LockedBySwapID, "locked item %s has no swap reference", it.ID)
			sw, ok := byID[*it.LockedBySwapID]
			require.True(t, ok, "locked item %s references unknown swap", it.ID)
			assert.False(t, sw.Status.IsTerminal(),
				"item %s is locked by terminal swap %s (%s)", it.ID, sw.ID, sw.Status)
			if sw.Status == models.SwapStatusPending {
				assert.Equal(t, sw.OfferedItemID, it.ID,
					"pending swap may hold only the offered item")
			}
		} else {
			assert.Nil(t, it.LockedBySwapID, "active item %s still references a swap", it.ID)
		}
	}
}

func TestPropose_CreatesPendingAndLocksOfferedItem(t *testing.T) {
	engine, r := newTestEngine(t)
	ctx := context.Background()

	alice, bob := uuid.New(), uuid.New()
	offered := seedItem(t, r, bob, "Bob's bike")
	requested := seedItem(t, r, alice, "Alice's lamp")

	sw, err := engine.Propose(ctx, bob, offered, requested)
	require.NoError(t, err)
	assert.Equal(t, models.SwapStatusPending, sw.Status)
	assert.Equal(t, bob, sw.FromUserID)
	assert.Equal(t, alice, sw.ToUserID)

	offeredItem := getItem(t, r, offered)
	assert.Equal(t, models.ItemStatusLocked, offeredItem.Status)
	require.NotNil(t, offeredItem.LockedBySwapID)
	assert.Equal(t, sw.ID, *offeredItem.LockedBySwapID)

	// The requested item is deliberately left unlocked while pending
	assert.Equal(t, models.ItemStatusActive, getItem(t, r, requested).Status)

	assertLockInvariant(t, r)
}

func TestPropose_SelfSwapRejected(t *testing.T) {
	engine, r := newTestEngine(t)
	ctx := context.Background()

	owner := uuid.New()
	first := seedItem(t, r, owner, "first")
	second := seedItem(t, r, owner, "second")

	_, err := engine.Propose(ctx, owner, first, second)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeInvalidSwap))

	// No swap was stored and nothing got locked
	swaps, err := r.Swaps(ctx)
	require.NoError(t, err)
	assert.Empty(t, swaps)
	assert.Equal(t, models.ItemStatusActive, getItem(t, r, first).Status)
}

func TestPropose_ForbiddenWhenOfferingSomeoneElsesItem(t *testing.T) {
	engine, r := newTestEngine(t)
	ctx := context.Background()

	alice, bob := uuid.New(), uuid.New()
	alicesItem := seedItem(t, r, alice, "Alice's lamp")
	bobsItem := seedItem(t, r, bob, "Bob's bike")

	_, err := engine.Propose(ctx, bob, alicesItem, bobsItem)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeForbidden))
}

func TestPropose_UnavailableWhenOfferedItemLocked(t *testing.T) {
	engine, r := newTestEngine(t)
	ctx := context.Background()

	alice, bob, carol := uuid.New(), uuid.New(), uuid.New()
	offered := seedItem(t, r, bob, "Bob's bike")
	requestedA := seedItem(t, r, alice, "Alice's lamp")
	requestedC := seedItem(t, r, carol, "Carol's chair")

	_, err := engine.Propose(ctx, bob, offered, requestedA)
	require.NoError(t, err)

	// Same offered item cannot back a second proposal
	_, err = engine.Propose(ctx, bob, offered, requestedC)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeItemUnavailable))
}

func TestAccept_LocksRequestedItemAndInitializesLog(t *testing.T) {
	engine, r := newTestEngine(t)
	ctx := context.Background()

	alice, bob := uuid.New(), uuid.New()
	offered := seedItem(t, r, bob, "Bob's bike")
	requested := seedItem(t, r, alice, "Alice's lamp")

	sw, err := engine.Propose(ctx, bob, offered, requested)
	require.NoError(t, err)

	accepted, err := engine.Accept(ctx, sw.ID, alice)
	require.NoError(t, err)
	assert.Equal(t, models.SwapStatusAccepted, accepted.Status)

	requestedItem := getItem(t, r, requested)
	assert.Equal(t, models.ItemStatusLocked, requestedItem.Status)
	require.NotNil(t, requestedItem.LockedBySwapID)
	assert.Equal(t, sw.ID, *requestedItem.LockedBySwapID)

	// An empty message log exists right after acceptance
	msgs, err := r.Messages(ctx)
	require.NoError(t, err)
	log, ok := msgs[sw.ID.String()]
	require.True(t, ok, "accepted swap must have a message log")
	assert.Empty(t, log)

	assertLockInvariant(t, r)
}

func TestAccept_OnlyRecipientMayAccept(t *testing.T) {
	engine, r := newTestEngine(t)
	ctx := context.Background()

	alice, bob := uuid.New(), uuid.New()
	offered := seedItem(t, r, bob, "Bob's bike")
	requested := seedItem(t, r, alice, "Alice's lamp")

	sw, err := engine.Propose(ctx, bob, offered, requested)
	require.NoError(t, err)

	// The proposer cannot accept their own proposal
	_, err = engine.Accept(ctx, sw.ID, bob)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeForbidden))
}

func TestAccept_TwiceIsInvalidStateAndNoOp(t *testing.T) {
	engine, r := newTestEngine(t)
	ctx := context.Background()

	alice, bob := uuid.New(), uuid.New()
	offered := seedItem(t, r, bob, "Bob's bike")
	requested := seedItem(t, r, alice, "Alice's lamp")

	sw, err := engine.Propose(ctx, bob, offered, requested)
	require.NoError(t, err)
	_, err = engine.Accept(ctx, sw.ID, alice)
	require.NoError(t, err)

	_, err = engine.Accept(ctx, sw.ID, alice)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeInvalidState))

	stored, _, err := r.SwapByID(ctx, sw.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SwapStatusAccepted, stored.Status)
	assertLockInvariant(t, r)
}

func TestReject_UnlocksOfferedItem(t *testing.T) {
	engine, r := newTestEngine(t)
	ctx := context.Background()

	alice, bob := uuid.New(), uuid.New()
	offered := seedItem(t, r, bob, "Bob's bike")
	requested := seedItem(t, r, alice, "Alice's lamp")

	sw, err := engine.Propose(ctx, bob, offered, requested)
	require.NoError(t, err)

	rejected, err := engine.Reject(ctx, sw.ID, alice)
	require.NoError(t, err)
	assert.Equal(t, models.SwapStatusRejected, rejected.Status)
	assert.Equal(t, models.ItemStatusActive, getItem(t, r, offered).Status)
	assertLockInvariant(t, r)
}

func TestCancel_OnlyProposerFromPending(t *testing.T) {
	engine, r := newTestEngine(t)
	ctx := context.Background()

	alice, bob := uuid.New(), uuid.New()
	offered := seedItem(t, r, bob, "Bob's bike")
	requested := seedItem(t, r, alice, "Alice's lamp")

	sw, err := engine.Propose(ctx, bob, offered, requested)
	require.NoError(t, err)

	_, err = engine.Cancel(ctx, sw.ID, alice)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeForbidden))

	canceled, err := engine.Cancel(ctx, sw.ID, bob)
	require.NoError(t, err)
	assert.Equal(t, models.SwapStatusCanceled, canceled.Status)
	assert.Equal(t, models.ItemStatusActive, getItem(t, r, offered).Status)

	// Canceling again is an illegal transition
	_, err = engine.Cancel(ctx, sw.ID, bob)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeInvalidState))
	assertLockInvariant(t, r)
}

func TestIdempotentUnlock_ResolutionNeverReleasesForeignLock(t *testing.T) {
	engine, r := newTestEngine(t)
	ctx := context.Background()

	alice, bob, carol := uuid.New(), uuid.New(), uuid.New()
	offered := seedItem(t, r, bob, "Bob's bike")
	requestedA := seedItem(t, r, alice, "Alice's lamp")
	requestedC := seedItem(t, r, carol, "Carol's chair")

	first, err := engine.Propose(ctx, bob, offered, requestedA)
	require.NoError(t, err)
	_, err = engine.Reject(ctx, first.ID, alice)
	require.NoError(t, err)

	// The offered item is re-locked by a later swap
	second, err := engine.Propose(ctx, bob, offered, requestedC)
	require.NoError(t, err)

	// Resolving the first swap again is a rejected no-op and must not
	// release the lock now held by the second swap
	_, err = engine.Reject(ctx, first.ID, alice)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeInvalidState))

	item := getItem(t, r, offered)
	assert.Equal(t, models.ItemStatusLocked, item.Status)
	require.NotNil(t, item.LockedBySwapID)
	assert.Equal(t, second.ID, *item.LockedBySwapID)
	assertLockInvariant(t, r)
}

func TestConcurrentProposals_SecondStaysPendingAfterFirstAccepted(t *testing.T) {
	engine, r := newTestEngine(t)
	ctx := context.Background()

	alice, bob, carol := uuid.New(), uuid.New(), uuid.New()
	wanted := seedItem(t, r, alice, "Alice's lamp")
	bobsItem := seedItem(t, r, bob, "Bob's bike")
	carolsItem := seedItem(t, r, carol, "Carol's chair")

	first, err := engine.Propose(ctx, bob, bobsItem, wanted)
	require.NoError(t, err)
	second, err := engine.Propose(ctx, carol, carolsItem, wanted)
	require.NoError(t, err)

	// Both proposals reach pending: the requested item stays unlocked
	assert.Equal(t, models.ItemStatusActive, getItem(t, r, wanted).Status)

	_, err = engine.Accept(ctx, first.ID, alice)
	require.NoError(t, err)

	// Current policy: the second proposal is NOT auto-rejected once the
	// requested item is committed elsewhere; it dangles in pending.
	stored, _, err := r.SwapByID(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SwapStatusPending, stored.Status)

	wantedItem := getItem(t, r, wanted)
	require.NotNil(t, wantedItem.LockedBySwapID)
	assert.Equal(t, first.ID, *wantedItem.LockedBySwapID)
	assertLockInvariant(t, r)
}

// TestSwapScenario_FullLifecycle walks the end-to-end flow: proposal,
// acceptance, messaging, a forbidden withdrawal by the wrong party, and
// the proposer's withdrawal releasing both items.
func TestSwapScenario_FullLifecycle(t *testing.T) {
	engine, r := newTestEngine(t)
	manager := chat.NewManager(r)
	ctx := context.Background()

	a, b := uuid.New(), uuid.New()
	itemX := seedItem(t, r, a, "Item X")
	itemY := seedItem(t, r, b, "Item Y")

	// B wants A's item: B proposes Y for X
	sw, err := engine.Propose(ctx, b, itemY, itemX)
	require.NoError(t, err)
	assert.Equal(t, models.SwapStatusPending, sw.Status)
	assert.Equal(t, models.ItemStatusLocked, getItem(t, r, itemY).Status)

	// A accepts: X locks too, an empty log appears
	_, err = engine.Accept(ctx, sw.ID, a)
	require.NoError(t, err)
	assert.Equal(t, models.ItemStatusLocked, getItem(t, r, itemX).Status)

	msgs, err := manager.List(ctx, sw.ID, a)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	// B posts "hi"
	_, err = manager.Post(ctx, sw.ID, b, "hi")
	require.NoError(t, err)

	msgs, err = manager.List(ctx, sw.ID, a)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, b, msgs[0].FromUserID)
	assert.Equal(t, "hi", msgs[0].Text)

	// Only the original proposer may withdraw
	_, err = engine.Withdraw(ctx, sw.ID, a)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeForbidden))

	withdrawn, err := engine.Withdraw(ctx, sw.ID, b)
	require.NoError(t, err)
	assert.Equal(t, models.SwapStatusWithdrawn, withdrawn.Status)
	assert.Equal(t, models.ItemStatusActive, getItem(t, r, itemX).Status)
	assert.Equal(t, models.ItemStatusActive, getItem(t, r, itemY).Status)
	assertLockInvariant(t, r)
}

func TestWithdraw_OnlyFromAccepted(t *testing.T) {
	engine, r := newTestEngine(t)
	ctx := context.Background()

	alice, bob := uuid.New(), uuid.New()
	offered := seedItem(t, r, bob, "Bob's bike")
	requested := seedItem(t, r, alice, "Alice's lamp")

	sw, err := engine.Propose(ctx, bob, offered, requested)
	require.NoError(t, err)

	// Pending swaps are canceled, not withdrawn
	_, err = engine.Withdraw(ctx, sw.ID, bob)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeInvalidState))
}
