// Tests for the in-memory collection store: whole-collection replace
// semantics, missing-collection reads and snapshot isolation.
package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestMemory_MissingCollectionLeavesZeroValue(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	var entries []fixture
	require.NoError(t, m.Get(ctx, CollectionItems, &entries))
	assert.Nil(t, entries)

	byKey := make(map[string]fixture)
	require.NoError(t, m.Get(ctx, CollectionProfiles, &byKey))
	assert.Empty(t, byKey)
}

func TestMemory_SetReplacesWholeCollection(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, CollectionItems, []fixture{{Name: "a", Count: 1}, {Name: "b", Count: 2}}))
	require.NoError(t, m.Set(ctx, CollectionItems, []fixture{{Name: "c", Count: 3}}))

	var entries []fixture
	require.NoError(t, m.Get(ctx, CollectionItems, &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "c", entries[0].Name)
}

func TestMemory_SnapshotIsolation(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	original := []fixture{{Name: "a", Count: 1}}
	require.NoError(t, m.Set(ctx, CollectionSwaps, original))

	// Mutating the written slice after Set does not leak into the store
	original[0].Count = 99

	var first []fixture
	require.NoError(t, m.Get(ctx, CollectionSwaps, &first))
	require.Len(t, first, 1)
	assert.Equal(t, 1, first[0].Count)

	// Mutating a read snapshot does not affect later reads
	first[0].Name = "mutated"

	var second []fixture
	require.NoError(t, m.Get(ctx, CollectionSwaps, &second))
	assert.Equal(t, "a", second[0].Name)
}

func TestMemory_CollectionsAreIndependent(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, CollectionItems, []fixture{{Name: "item"}}))
	require.NoError(t, m.Set(ctx, CollectionSwaps, []fixture{{Name: "swap"}}))

	var items, swaps []fixture
	require.NoError(t, m.Get(ctx, CollectionItems, &items))
	require.NoError(t, m.Get(ctx, CollectionSwaps, &swaps))
	require.Len(t, items, 1)
	require.Len(t, swaps, 1)
	assert.Equal(t, "item", items[0].Name)
	assert.Equal(t, "swap", swaps[0].Name)
}
