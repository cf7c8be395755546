package wire

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	btcwire "github.com/btcsuite/btcd/wire"
	"github.com/ssargent/bitwire/pkg/codec"
)

// InventoryVectorSize is the encoded width of an InventoryVector.
const InventoryVectorSize = 36

// InvType identifies the kind of object an inventory vector refers to.
type InvType = btcwire.InvType

const (
	InvTypeError                = btcwire.InvTypeError
	InvTypeTx                   = btcwire.InvTypeTx
	InvTypeBlock                = btcwire.InvTypeBlock
	InvTypeFilteredBlock        = btcwire.InvTypeFilteredBlock
	InvTypeWitnessTx            = btcwire.InvTypeWitnessTx
	InvTypeWitnessBlock         = btcwire.InvTypeWitnessBlock
	InvTypeFilteredWitnessBlock = btcwire.InvTypeFilteredWitnessBlock
)

var invTypeNames = map[string]InvType{
	"error":                  InvTypeError,
	"tx":                     InvTypeTx,
	"block":                  InvTypeBlock,
	"filtered_block":         InvTypeFilteredBlock,
	"witness_tx":             InvTypeWitnessTx,
	"witness_block":          InvTypeWitnessBlock,
	"filtered_witness_block": InvTypeFilteredWitnessBlock,
}

// ParseInvType accepts a type name ("tx", "witness_block"), its MSG_ form
// ("MSG_TX") or a decimal number.
func ParseInvType(s string) (InvType, error) {
	name := strings.TrimPrefix(strings.ToLower(s), "msg_")
	if typ, ok := invTypeNames[name]; ok {
		return typ, nil
	}
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("unknown inventory type %q", s)
	}
	return InvType(n), nil
}

// InventoryVector names a network object by type and hash without carrying it.
type InventoryVector struct {
	Type InvType        `json:"type"`
	Hash chainhash.Hash `json:"hash"`
}

// NewInventoryVector returns a vector for the given type and hash.
func NewInventoryVector(typ InvType, hash chainhash.Hash) InventoryVector {
	return InventoryVector{Type: typ, Hash: hash}
}

// InventoryVectorCodec: type(4) | hash(32).
var InventoryVectorCodec = codec.Struct(
	codec.Bind("type", codec.UInt32LE, func(v *InventoryVector) *uint32 { return (*uint32)(&v.Type) }),
	codec.Bind("hash", codec.Buffer32, func(v *InventoryVector) *chainhash.Hash { return &v.Hash }),
).Fixed()

// InvListCodec is the payload of inv, getdata and notfound: a varint count
// followed by that many vectors.
var InvListCodec codec.Codec[[]InventoryVector] = codec.VarArray(InventoryVectorCodec)

func (v InventoryVector) MarshalBinary() ([]byte, error) {
	return codec.Marshal(InventoryVectorCodec, v)
}

func (v *InventoryVector) UnmarshalBinary(data []byte) error {
	out, err := codec.Unmarshal(InventoryVectorCodec, data)
	if err != nil {
		return err
	}
	*v = out
	return nil
}
