package wire

import (
	"bytes"
	"testing"

	btcwire "github.com/btcsuite/btcd/wire"
	"github.com/ssargent/bitwire/pkg/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleAlertPayload() AlertPayload {
	return AlertPayload{
		Version:    1,
		RelayUntil: 1329620535,
		Expiration: 1329792435,
		ID:         1010,
		Cancel:     1009,
		CancelSet:  []int32{1000, -5, 1008},
		MinVer:     10000,
		MaxVer:     61000,
		SubVerSet:  []string{"/Satoshi:0.3.24/", "/Satoshi:0.4.0/"},
		Priority:   100,
		Comment:    "",
		StatusBar:  "See bitcoin.org/feb20 if you have trouble connecting after 20 February",
		Reserved:   "",
	}
}

func TestAlertPayload_RoundTrip(t *testing.T) {
	p := sampleAlertPayload()

	out, err := p.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, AlertPayloadCodec.EncodingLength(p), len(out))

	var got AlertPayload
	require.NoError(t, got.UnmarshalBinary(out))
	assert.Equal(t, p, got)
}

func TestAlertPayload_MatchesReferenceEncoding(t *testing.T) {
	p := sampleAlertPayload()

	ref := btcwire.Alert{
		Version:    p.Version,
		RelayUntil: int64(p.RelayUntil),
		Expiration: int64(p.Expiration),
		ID:         p.ID,
		Cancel:     p.Cancel,
		SetCancel:  p.CancelSet,
		MinVer:     p.MinVer,
		MaxVer:     p.MaxVer,
		SetSubVer:  p.SubVerSet,
		Priority:   p.Priority,
		Comment:    p.Comment,
		StatusBar:  p.StatusBar,
		Reserved:   p.Reserved,
	}
	var buf bytes.Buffer
	require.NoError(t, ref.Serialize(&buf, btcwire.ProtocolVersion))

	out, err := p.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, buf.Bytes(), out)
}

func TestAlertPayload_Layout(t *testing.T) {
	p := AlertPayload{
		Version:   1,
		CancelSet: []int32{},
		SubVerSet: []string{"a"},
		Comment:   "c",
	}
	out, err := p.MarshalBinary()
	require.NoError(t, err)

	want := []byte{
		0x01, 0x00, 0x00, 0x00, // version
		0, 0, 0, 0, 0, 0, 0, 0, // relayUntil
		0, 0, 0, 0, 0, 0, 0, 0, // expiration
		0, 0, 0, 0, // id
		0, 0, 0, 0, // cancel
		0x00,       // cancelSet
		0, 0, 0, 0, // minVer
		0, 0, 0, 0, // maxVer
		0x01, 0x01, 'a', // subVerSet
		0, 0, 0, 0, // priority
		0x01, 'c', // comment
		0x00, // statusBar
		0x00, // reserved
	}
	assert.Equal(t, want, out)
}

func TestAlertPayload_NonASCII(t *testing.T) {
	p := sampleAlertPayload()
	p.Comment = "naïve"
	_, err := p.MarshalBinary()
	assert.ErrorIs(t, err, codec.ErrNotASCII)
	assert.Contains(t, err.Error(), "comment")
}

func TestAlert_Envelope(t *testing.T) {
	p := sampleAlertPayload()
	sig := []byte{0x30, 0x45, 0x02, 0x21}

	a, err := NewAlert(p, sig)
	require.NoError(t, err)

	out, err := codec.Marshal[Alert](AlertCodec, a)
	require.NoError(t, err)

	payloadLen := len(a.Payload)
	require.Less(t, payloadLen, 0xfd)
	assert.Equal(t, byte(payloadLen), out[0])
	assert.Equal(t, byte(len(sig)), out[1+payloadLen])
	assert.Equal(t, sig, out[2+payloadLen:])

	got, err := codec.Unmarshal[Alert](AlertCodec, out)
	require.NoError(t, err)

	decoded, err := got.DecodePayload()
	require.NoError(t, err)
	assert.Equal(t, p, decoded)
}
