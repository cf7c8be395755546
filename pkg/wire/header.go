package wire

import (
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/ssargent/bitwire/pkg/codec"
)

// HeaderSize is the encoded width of a block header.
const HeaderSize = 80

type Header struct {
	Version    int32          `json:"version"`
	PrevHash   chainhash.Hash `json:"prevHash"`
	MerkleRoot chainhash.Hash `json:"merkleRoot"`
	Time       uint32         `json:"time"`
	Bits       uint32         `json:"bits"`
	Nonce      uint32         `json:"nonce"`
}

var HeaderCodec = codec.Struct(
	codec.Bind("version", codec.Int32LE, func(h *Header) *int32 { return &h.Version }),
	codec.Bind("prevHash", codec.Buffer32, func(h *Header) *chainhash.Hash { return &h.PrevHash }),
	codec.Bind("merkleRoot", codec.Buffer32, func(h *Header) *chainhash.Hash { return &h.MerkleRoot }),
	codec.Bind("time", codec.UInt32LE, func(h *Header) *uint32 { return &h.Time }),
	codec.Bind("bits", codec.UInt32LE, func(h *Header) *uint32 { return &h.Bits }),
	codec.Bind("nonce", codec.UInt32LE, func(h *Header) *uint32 { return &h.Nonce }),
).Fixed()

// Timestamp returns Time as a UTC time.
func (h Header) Timestamp() time.Time {
	return time.Unix(int64(h.Time), 0).UTC()
}

// BlockHash returns the double SHA-256 of the 80 header bytes.
func (h Header) BlockHash() chainhash.Hash {
	var buf [HeaderSize]byte
	// A fixed-width header with no text fields cannot fail to encode.
	_, _ = HeaderCodec.Encode(h, buf[:], 0)
	return chainhash.DoubleHashH(buf[:])
}

func (h Header) MarshalBinary() ([]byte, error) {
	return codec.Marshal(HeaderCodec, h)
}

func (h *Header) UnmarshalBinary(data []byte) error {
	v, err := codec.Unmarshal(HeaderCodec, data)
	if err != nil {
		return err
	}
	*h = v
	return nil
}

// Block is a header followed by its transactions.
type Block struct {
	Header       Header        `json:"header"`
	Transactions []Transaction `json:"transactions"`
}

var BlockCodec = codec.Struct(
	codec.Bind("header", HeaderCodec, func(b *Block) *Header { return &b.Header }),
	codec.Bind[Block, []Transaction]("transactions", codec.VarArray[Transaction](TransactionCodec), func(b *Block) *[]Transaction { return &b.Transactions }),
)

func (b Block) MarshalBinary() ([]byte, error) {
	return codec.Marshal[Block](BlockCodec, b)
}

func (b *Block) UnmarshalBinary(data []byte) error {
	v, err := codec.Unmarshal[Block](BlockCodec, data)
	if err != nil {
		return err
	}
	*b = v
	return nil
}
