// Package inventory indexes inventory vectors seen in captured traffic so a
// hash can be traced back to the capture record that carried it.
package inventory

import (
	"bytes"
	"errors"
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/segmentio/ksuid"

	"github.com/ssargent/bitwire/pkg/codec"
	"github.com/ssargent/bitwire/pkg/wire"
)

// ErrNotFound is returned when a vector has never been indexed.
var ErrNotFound = errors.New("inventory: vector not found")

const sessionIDSize = 20

// Location addresses a record inside a capture session.
type Location struct {
	Session ksuid.KSUID `json:"session"`
	Offset  int64       `json:"offset"`
}

var sessionCodec = codec.Fixed(sessionIDSize,
	func(b []byte, id ksuid.KSUID) { copy(b, id[:]) },
	func(b []byte) (id ksuid.KSUID) { copy(id[:], b); return },
)

// LocationCodec: session ksuid(20) | offset int64 LE(8).
var LocationCodec = codec.Struct(
	codec.Bind("session", sessionCodec, func(l *Location) *ksuid.KSUID { return &l.Session }),
	codec.Bind("offset", codec.Int64LE, func(l *Location) *int64 { return &l.Offset }),
).Fixed()

// Entry pairs an indexed vector with its location.
type Entry struct {
	Vector   wire.InventoryVector `json:"vector"`
	Location Location             `json:"location"`
}

// Index maps inventory vectors to capture locations in a pebble database.
// Writes are serialized so Add's check for existing keys and its commit
// happen as one step.
type Index struct {
	db *pebble.DB
	mu sync.Mutex
}

// Open opens or creates the index at path.
func Open(path string) (*Index, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open inventory index: %w", err)
	}
	return &Index{db: db}, nil
}

// Put records loc for v, replacing any earlier location.
func (x *Index) Put(v wire.InventoryVector, loc Location) error {
	key, value, err := encodeEntry(v, loc)
	if err != nil {
		return err
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.db.Set(key, value, pebble.NoSync)
}

// Add records loc for every vector in vs that is not indexed yet and returns
// how many were new. Existing locations are left alone and a vector listed
// more than once counts once.
func (x *Index) Add(vs []wire.InventoryVector, loc Location) (int, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	batch := x.db.NewBatch()
	defer batch.Close()

	seen := make(map[wire.InventoryVector]struct{}, len(vs))
	added := 0
	for _, v := range vs {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}

		key, value, err := encodeEntry(v, loc)
		if err != nil {
			return 0, err
		}
		ok, err := x.has(key)
		if err != nil {
			return 0, err
		}
		if ok {
			continue
		}
		if err := batch.Set(key, value, nil); err != nil {
			return 0, err
		}
		added++
	}
	if added == 0 {
		return 0, nil
	}
	if err := batch.Commit(pebble.NoSync); err != nil {
		return 0, fmt.Errorf("failed to commit inventory batch: %w", err)
	}
	return added, nil
}

// Get returns the location recorded for v.
func (x *Index) Get(v wire.InventoryVector) (Location, error) {
	key, err := v.MarshalBinary()
	if err != nil {
		return Location{}, err
	}
	value, closer, err := x.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return Location{}, ErrNotFound
	}
	if err != nil {
		return Location{}, err
	}
	defer closer.Close()

	// value is only valid until closer is closed; Unmarshal copies.
	loc, err := codec.Unmarshal(LocationCodec, value)
	if err != nil {
		return Location{}, fmt.Errorf("corrupt inventory entry for %s: %w", v.Hash, err)
	}
	return loc, nil
}

func (x *Index) has(key []byte) (bool, error) {
	_, closer, err := x.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	closer.Close()
	return true, nil
}

// Purge removes every entry that points into session and returns how many
// were removed.
func (x *Index) Purge(session ksuid.KSUID) (int, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	iter, err := x.db.NewIter(nil)
	if err != nil {
		return 0, err
	}
	defer iter.Close()

	batch := x.db.NewBatch()
	defer batch.Close()

	removed := 0
	for iter.First(); iter.Valid(); iter.Next() {
		value, err := iter.ValueAndErr()
		if err != nil {
			return 0, err
		}
		if len(value) < sessionIDSize || !bytes.Equal(value[:sessionIDSize], session[:]) {
			continue
		}
		if err := batch.Delete(iter.Key(), nil); err != nil {
			return 0, err
		}
		removed++
	}
	if err := iter.Error(); err != nil {
		return 0, err
	}
	if removed == 0 {
		return 0, nil
	}
	if err := batch.Commit(pebble.NoSync); err != nil {
		return 0, fmt.Errorf("failed to commit inventory purge: %w", err)
	}
	return removed, nil
}

// Scan calls fn for every vector of type typ in hash byte order. Returning
// an error from fn stops the scan and is passed through.
func (x *Index) Scan(typ wire.InvType, fn func(Entry) error) error {
	prefix, err := codec.Marshal(codec.UInt32LE, uint32(typ))
	if err != nil {
		return err
	}
	iter, err := x.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: upperBound(prefix),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		var e Entry
		if err := e.Vector.UnmarshalBinary(iter.Key()); err != nil {
			return fmt.Errorf("corrupt inventory key: %w", err)
		}
		value, err := iter.ValueAndErr()
		if err != nil {
			return err
		}
		if e.Location, err = codec.Unmarshal(LocationCodec, value); err != nil {
			return fmt.Errorf("corrupt inventory entry for %s: %w", e.Vector.Hash, err)
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	return iter.Error()
}

// Close flushes and closes the underlying database.
func (x *Index) Close() error {
	if err := x.db.Flush(); err != nil {
		x.db.Close()
		return err
	}
	return x.db.Close()
}

func encodeEntry(v wire.InventoryVector, loc Location) ([]byte, []byte, error) {
	key, err := v.MarshalBinary()
	if err != nil {
		return nil, nil, err
	}
	value, err := codec.Marshal(LocationCodec, loc)
	if err != nil {
		return nil, nil, err
	}
	return key, value, nil
}

// upperBound returns the smallest key greater than every key starting with
// prefix, or nil when prefix is all 0xff.
func upperBound(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}
