package wire

import (
	"encoding/binary"

	btcwire "github.com/btcsuite/btcd/wire"
	"github.com/ssargent/bitwire/pkg/codec"
)

// PeerAddressSize is the encoded width of a PeerAddress.
const PeerAddressSize = 26

// PeerAddress describes a reachable peer.
type PeerAddress struct {
	Services Opaque8 `json:"services"`
	Address  string  `json:"address"`
	Port     uint16  `json:"port"`
}

// PeerAddressCodec: services(8) | address(16) | port(2, big-endian).
var PeerAddressCodec = codec.Struct(
	codec.Bind("services", codec.Buffer8, func(p *PeerAddress) *[8]byte { return (*[8]byte)(&p.Services) }),
	codec.Bind("address", codec.IPAddress, func(p *PeerAddress) *string { return &p.Address }),
	codec.Bind("port", codec.UInt16BE, func(p *PeerAddress) *uint16 { return &p.Port }),
).Fixed()

// ServiceFlags interprets Services as the little-endian service bit field.
func (p PeerAddress) ServiceFlags() btcwire.ServiceFlag {
	return btcwire.ServiceFlag(binary.LittleEndian.Uint64(p.Services[:]))
}

// SetServiceFlags stores flags into Services.
func (p *PeerAddress) SetServiceFlags(flags btcwire.ServiceFlag) {
	binary.LittleEndian.PutUint64(p.Services[:], uint64(flags))
}

func (p PeerAddress) MarshalBinary() ([]byte, error) {
	return codec.Marshal(PeerAddressCodec, p)
}

func (p *PeerAddress) UnmarshalBinary(data []byte) error {
	v, err := codec.Unmarshal(PeerAddressCodec, data)
	if err != nil {
		return err
	}
	*p = v
	return nil
}
