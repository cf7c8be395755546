package wire

import (
	"encoding/binary"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/ssargent/bitwire/pkg/codec"
)

// TxIn spends output Index of the transaction identified by Hash.
type TxIn struct {
	Hash     chainhash.Hash `json:"hash"`
	Index    uint32         `json:"index"`
	Script   HexBytes       `json:"script"`
	Sequence uint32         `json:"sequence"`
}

// TxOut pays an amount to a locking script. The amount is kept as the raw
// 8 bytes from the wire so re-encoding is always byte-exact; Value and
// SetValue give the integer view.
type TxOut struct {
	ValueBuffer Opaque8  `json:"valueBuffer"`
	Script      HexBytes `json:"script"`
}

// NewTxOut builds an output paying value (in the smallest unit) to script.
func NewTxOut(value int64, script []byte) TxOut {
	var out TxOut
	out.SetValue(value)
	out.Script = script
	return out
}

// Value returns the amount as a signed little-endian integer.
func (o TxOut) Value() int64 {
	return int64(binary.LittleEndian.Uint64(o.ValueBuffer[:]))
}

func (o *TxOut) SetValue(v int64) {
	binary.LittleEndian.PutUint64(o.ValueBuffer[:], uint64(v))
}

// Transaction in the legacy (non-witness) serialization.
type Transaction struct {
	Version  int32   `json:"version"`
	Ins      []TxIn  `json:"ins"`
	Outs     []TxOut `json:"outs"`
	Locktime uint32  `json:"locktime"`
}

var TxInCodec = codec.Struct(
	codec.Bind("hash", codec.Buffer32, func(in *TxIn) *chainhash.Hash { return &in.Hash }),
	codec.Bind("index", codec.UInt32LE, func(in *TxIn) *uint32 { return &in.Index }),
	codec.Bind("script", codec.VarBuffer, func(in *TxIn) *[]byte { return (*[]byte)(&in.Script) }),
	codec.Bind("sequence", codec.UInt32LE, func(in *TxIn) *uint32 { return &in.Sequence }),
)

var TxOutCodec = codec.Struct(
	codec.Bind("valueBuffer", codec.Buffer8, func(out *TxOut) *[8]byte { return (*[8]byte)(&out.ValueBuffer) }),
	codec.Bind("script", codec.VarBuffer, func(out *TxOut) *[]byte { return (*[]byte)(&out.Script) }),
)

var TransactionCodec = codec.Struct(
	codec.Bind("version", codec.Int32LE, func(tx *Transaction) *int32 { return &tx.Version }),
	codec.Bind[Transaction, []TxIn]("ins", codec.VarArray[TxIn](TxInCodec), func(tx *Transaction) *[]TxIn { return &tx.Ins }),
	codec.Bind[Transaction, []TxOut]("outs", codec.VarArray[TxOut](TxOutCodec), func(tx *Transaction) *[]TxOut { return &tx.Outs }),
	codec.Bind("locktime", codec.UInt32LE, func(tx *Transaction) *uint32 { return &tx.Locktime }),
)

func (tx Transaction) MarshalBinary() ([]byte, error) {
	return codec.Marshal[Transaction](TransactionCodec, tx)
}

func (tx *Transaction) UnmarshalBinary(data []byte) error {
	v, err := codec.Unmarshal[Transaction](TransactionCodec, data)
	if err != nil {
		return err
	}
	*tx = v
	return nil
}

// TxHash returns the double SHA-256 of the serialized transaction.
func (tx Transaction) TxHash() (chainhash.Hash, error) {
	data, err := tx.MarshalBinary()
	if err != nil {
		return chainhash.Hash{}, err
	}
	return chainhash.DoubleHashH(data), nil
}
