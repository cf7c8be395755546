package capture

import (
	"github.com/rs/zerolog"

	"github.com/ssargent/bitwire/pkg/codec"
	"github.com/ssargent/bitwire/pkg/inventory"
	"github.com/ssargent/bitwire/pkg/wire"
)

// Receipt reports where a message was stored and how many inventory
// vectors it contributed to the index.
type Receipt struct {
	Location inventory.Location `json:"location"`
	Indexed  int                `json:"indexed"`
}

// Recorder appends messages to a session and indexes the inventory they
// carry: inv, getdata and notfound lists, tx hashes and block hashes.
type Recorder struct {
	session *Session
	index   *inventory.Index
	logger  zerolog.Logger
}

// NewRecorder creates a recorder. A nil index disables indexing.
func NewRecorder(session *Session, index *inventory.Index, logger zerolog.Logger) *Recorder {
	return &Recorder{
		session: session,
		index:   index,
		logger:  logger.With().Str("session", session.ID.String()).Logger(),
	}
}

// Session returns the session being written.
func (r *Recorder) Session() *Session {
	return r.session
}

// Record stores one message. Payloads that do not decode as their command's
// schema are still stored but not indexed.
func (r *Recorder) Record(command string, payload []byte) (Receipt, error) {
	offset, err := r.session.Append(command, payload)
	if err != nil {
		return Receipt{}, err
	}
	receipt := Receipt{Location: inventory.Location{Session: r.session.ID, Offset: offset}}

	if r.index == nil {
		return receipt, nil
	}

	vectors, replace, err := inventoryOf(command, payload)
	if err != nil {
		r.logger.Warn().Err(err).Str("command", command).Int64("offset", offset).Msg("payload not indexed")
		return receipt, nil
	}

	if replace {
		for _, v := range vectors {
			if err := r.index.Put(v, receipt.Location); err != nil {
				return receipt, err
			}
		}
		receipt.Indexed = len(vectors)
	} else if len(vectors) > 0 {
		if receipt.Indexed, err = r.index.Add(vectors, receipt.Location); err != nil {
			return receipt, err
		}
	}

	r.logger.Debug().
		Str("command", command).
		Int64("offset", offset).
		Int("payload_bytes", len(payload)).
		Int("indexed", receipt.Indexed).
		Msg("message recorded")
	return receipt, nil
}

// Close closes the session.
func (r *Recorder) Close() error {
	return r.session.Close()
}

// inventoryOf extracts the vectors a payload refers to. replace is true when
// the payload carries the objects themselves, which makes it a better
// location than an earlier announcement.
func inventoryOf(command string, payload []byte) ([]wire.InventoryVector, bool, error) {
	switch {
	case wire.InventoryCommand(command):
		vectors, err := codec.Unmarshal(wire.InvListCodec, payload)
		return vectors, false, err

	case command == wire.CmdTx:
		var tx wire.Transaction
		if err := tx.UnmarshalBinary(payload); err != nil {
			return nil, false, err
		}
		hash, err := tx.TxHash()
		if err != nil {
			return nil, false, err
		}
		return []wire.InventoryVector{wire.NewInventoryVector(wire.InvTypeTx, hash)}, true, nil

	case command == wire.CmdBlock:
		var block wire.Block
		if err := block.UnmarshalBinary(payload); err != nil {
			return nil, false, err
		}
		vectors := []wire.InventoryVector{wire.NewInventoryVector(wire.InvTypeBlock, block.Header.BlockHash())}
		for _, tx := range block.Transactions {
			hash, err := tx.TxHash()
			if err != nil {
				return nil, false, err
			}
			vectors = append(vectors, wire.NewInventoryVector(wire.InvTypeTx, hash))
		}
		return vectors, true, nil
	}
	return nil, false, nil
}
