package codec

import (
	"bytes"
	"fmt"
	"net/netip"
)

// ipv4MappedPrefix is the ::ffff:0:0/96 prefix that embeds an IPv4 address
// in a 16-byte field.
var ipv4MappedPrefix = [12]byte{10: 0xff, 11: 0xff}

const ipAddressSize = 16

type ipAddress struct{}

// IPAddress encodes an IP address string as a 16-byte field. IPv4 addresses
// are written in IPv4-mapped form and decode back to dotted-decimal text.
var IPAddress Codec[string] = ipAddress{}

func (ipAddress) Encode(v string, buf []byte, offset int) (int, error) {
	if err := checkSpace(buf, offset, ipAddressSize); err != nil {
		return 0, err
	}
	addr, err := netip.ParseAddr(v)
	if err != nil || addr.Zone() != "" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAddress, v)
	}
	if addr.Is4() {
		copy(buf[offset:], ipv4MappedPrefix[:])
		a4 := addr.As4()
		copy(buf[offset+12:], a4[:])
		return ipAddressSize, nil
	}
	a16 := addr.As16()
	copy(buf[offset:], a16[:])
	return ipAddressSize, nil
}

func (ipAddress) Decode(buf []byte, offset, end int) (string, int, error) {
	if err := checkData(buf, offset, end, ipAddressSize); err != nil {
		return "", 0, err
	}
	field := buf[offset : offset+ipAddressSize]
	if bytes.Equal(field[:12], ipv4MappedPrefix[:]) {
		return netip.AddrFrom4([4]byte(field[12:])).String(), ipAddressSize, nil
	}
	return netip.AddrFrom16([16]byte(field)).String(), ipAddressSize, nil
}

func (ipAddress) EncodingLength(string) int { return ipAddressSize }

func (ipAddress) Size() int { return ipAddressSize }
