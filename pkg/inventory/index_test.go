package inventory

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/segmentio/ksuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/bitwire/pkg/codec"
	"github.com/ssargent/bitwire/pkg/wire"
)

func hashOf(seed byte) chainhash.Hash {
	var h chainhash.Hash
	for i := range h {
		h[i] = seed + byte(i)
	}
	return h
}

func openIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := Open(filepath.Join(t.TempDir(), "inventory"))
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx
}

func TestLocationCodec(t *testing.T) {
	loc := Location{Session: ksuid.New(), Offset: 0x0102030405}

	data, err := codec.Marshal(LocationCodec, loc)
	require.NoError(t, err)
	require.Len(t, data, 28)
	assert.Equal(t, loc.Session.Bytes(), data[:20])
	assert.Equal(t, []byte{0x05, 0x04, 0x03, 0x02, 0x01, 0, 0, 0}, data[20:])

	decoded, err := codec.Unmarshal(LocationCodec, data)
	require.NoError(t, err)
	assert.Equal(t, loc, decoded)
}

func TestIndex_PutGet(t *testing.T) {
	idx := openIndex(t)

	v := wire.NewInventoryVector(wire.InvTypeTx, hashOf(1))
	loc := Location{Session: ksuid.New(), Offset: 128}

	_, err := idx.Get(v)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, idx.Put(v, loc))

	got, err := idx.Get(v)
	require.NoError(t, err)
	assert.Equal(t, loc, got)

	// Same hash under another type is a different key
	_, err = idx.Get(wire.NewInventoryVector(wire.InvTypeBlock, hashOf(1)))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIndex_PutOverwrites(t *testing.T) {
	idx := openIndex(t)

	v := wire.NewInventoryVector(wire.InvTypeBlock, hashOf(2))
	session := ksuid.New()
	require.NoError(t, idx.Put(v, Location{Session: session, Offset: 1}))
	require.NoError(t, idx.Put(v, Location{Session: session, Offset: 99}))

	got, err := idx.Get(v)
	require.NoError(t, err)
	assert.Equal(t, int64(99), got.Offset)
}

func TestIndex_AddKeepsExisting(t *testing.T) {
	idx := openIndex(t)

	session := ksuid.New()
	first := wire.NewInventoryVector(wire.InvTypeTx, hashOf(3))
	second := wire.NewInventoryVector(wire.InvTypeTx, hashOf(4))

	require.NoError(t, idx.Put(first, Location{Session: session, Offset: 10}))

	added, err := idx.Add([]wire.InventoryVector{first, second}, Location{Session: session, Offset: 50})
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	got, err := idx.Get(first)
	require.NoError(t, err)
	assert.Equal(t, int64(10), got.Offset)

	got, err = idx.Get(second)
	require.NoError(t, err)
	assert.Equal(t, int64(50), got.Offset)

	added, err = idx.Add([]wire.InventoryVector{first, second}, Location{Session: session, Offset: 70})
	require.NoError(t, err)
	assert.Zero(t, added)
}

func TestIndex_AddDuplicatesInOneCall(t *testing.T) {
	idx := openIndex(t)

	v := wire.NewInventoryVector(wire.InvTypeTx, hashOf(6))
	other := wire.NewInventoryVector(wire.InvTypeBlock, hashOf(6))

	added, err := idx.Add([]wire.InventoryVector{v, other, v, v}, Location{Session: ksuid.New(), Offset: 3})
	require.NoError(t, err)
	assert.Equal(t, 2, added)
}

func TestIndex_AddConcurrentKeepsOneLocation(t *testing.T) {
	idx := openIndex(t)

	v := wire.NewInventoryVector(wire.InvTypeTx, hashOf(8))
	session := ksuid.New()

	const writers = 16
	results := make([]int, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			added, err := idx.Add([]wire.InventoryVector{v}, Location{Session: session, Offset: int64(i)})
			assert.NoError(t, err)
			results[i] = added
		}(i)
	}
	wg.Wait()

	winner := -1
	total := 0
	for i, added := range results {
		total += added
		if added == 1 {
			winner = i
		}
	}
	require.Equal(t, 1, total, "exactly one writer records the vector")

	got, err := idx.Get(v)
	require.NoError(t, err)
	assert.Equal(t, int64(winner), got.Offset)
}

func TestIndex_Purge(t *testing.T) {
	idx := openIndex(t)

	gone, kept := ksuid.New(), ksuid.New()
	require.NoError(t, idx.Put(wire.NewInventoryVector(wire.InvTypeTx, hashOf(1)), Location{Session: gone, Offset: 1}))
	require.NoError(t, idx.Put(wire.NewInventoryVector(wire.InvTypeBlock, hashOf(2)), Location{Session: gone, Offset: 2}))
	require.NoError(t, idx.Put(wire.NewInventoryVector(wire.InvTypeTx, hashOf(3)), Location{Session: kept, Offset: 3}))

	removed, err := idx.Purge(gone)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	_, err = idx.Get(wire.NewInventoryVector(wire.InvTypeTx, hashOf(1)))
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = idx.Get(wire.NewInventoryVector(wire.InvTypeBlock, hashOf(2)))
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := idx.Get(wire.NewInventoryVector(wire.InvTypeTx, hashOf(3)))
	require.NoError(t, err)
	assert.Equal(t, kept, got.Session)

	removed, err = idx.Purge(gone)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestIndex_Scan(t *testing.T) {
	idx := openIndex(t)

	session := ksuid.New()
	require.NoError(t, idx.Put(wire.NewInventoryVector(wire.InvTypeTx, hashOf(9)), Location{Session: session, Offset: 9}))
	require.NoError(t, idx.Put(wire.NewInventoryVector(wire.InvTypeTx, hashOf(1)), Location{Session: session, Offset: 1}))
	require.NoError(t, idx.Put(wire.NewInventoryVector(wire.InvTypeBlock, hashOf(5)), Location{Session: session, Offset: 5}))

	var offsets []int64
	err := idx.Scan(wire.InvTypeTx, func(e Entry) error {
		assert.Equal(t, wire.InvTypeTx, e.Vector.Type)
		offsets = append(offsets, e.Location.Offset)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 9}, offsets)

	stop := errors.New("stop")
	calls := 0
	err = idx.Scan(wire.InvTypeTx, func(Entry) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestIndex_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inventory")

	idx, err := Open(path)
	require.NoError(t, err)

	v := wire.NewInventoryVector(wire.InvTypeWitnessTx, hashOf(7))
	loc := Location{Session: ksuid.New(), Offset: 4096}
	require.NoError(t, idx.Put(v, loc))
	require.NoError(t, idx.Close())

	idx, err = Open(path)
	require.NoError(t, err)
	defer idx.Close()

	got, err := idx.Get(v)
	require.NoError(t, err)
	assert.Equal(t, loc, got)
}

func TestUpperBound(t *testing.T) {
	assert.Equal(t, []byte{0x01, 0x00, 0x00, 0x01}, upperBound([]byte{0x01, 0x00, 0x00, 0x00}))
	assert.Equal(t, []byte{0x02}, upperBound([]byte{0x01, 0xff, 0xff, 0xff}))
	assert.Nil(t, upperBound([]byte{0xff, 0xff}))
}
