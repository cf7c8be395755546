package wire

import (
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/ssargent/bitwire/pkg/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Names(t *testing.T) {
	r := NewRegistry(RegistryOptions{})
	assert.Equal(t, []string{
		"alert", "alertpayload", "block", "command", "header", "inv", "invvect", "peeraddress", "tx",
	}, r.Names())

	_, ok := r.Lookup("nope")
	assert.False(t, ok)
}

func TestRegistry_JSONRoundTrip(t *testing.T) {
	r := NewRegistry(RegistryOptions{})

	alert, err := NewAlert(sampleAlertPayload(), []byte{0x01})
	require.NoError(t, err)

	values := map[string]encoder{
		"command":      codecEncoder[string](codec.CommandName, "getheaders"),
		"peeraddress":  codecEncoder(PeerAddressCodec, PeerAddress{Services: Opaque8{1}, Address: "10.0.0.1", Port: 8333}),
		"invvect":      codecEncoder(InventoryVectorCodec, NewInventoryVector(InvTypeTx, testHash(3))),
		"inv":          codecEncoder(InvListCodec, []InventoryVector{NewInventoryVector(InvTypeBlock, testHash(9))}),
		"alertpayload": codecEncoder[AlertPayload](AlertPayloadCodec, sampleAlertPayload()),
		"alert":        codecEncoder[Alert](AlertCodec, alert),
		"tx":           codecEncoder[Transaction](TransactionCodec, sampleTransaction()),
		"header":       codecEncoder(HeaderCodec, genesisHeader(t)),
		"block":        codecEncoder[Block](BlockCodec, Block{Header: genesisHeader(t), Transactions: []Transaction{sampleTransaction()}}),
	}

	for _, name := range r.Names() {
		t.Run(name, func(t *testing.T) {
			encode, ok := values[name]
			require.True(t, ok, "no sample value for schema %s", name)
			raw, err := encode()
			require.NoError(t, err)

			s, ok := r.Lookup(name)
			require.True(t, ok)
			assert.NotEmpty(t, s.Description())

			decoded, err := s.Decode(raw)
			require.NoError(t, err)

			doc, err := json.Marshal(decoded)
			require.NoError(t, err)

			again, err := s.Encode(doc)
			require.NoError(t, err)
			assert.Equal(t, hex.EncodeToString(raw), hex.EncodeToString(again))
		})
	}
}

func TestRegistry_JSONShape(t *testing.T) {
	r := NewRegistry(RegistryOptions{})
	s, _ := r.Lookup("tx")

	raw, err := sampleTransaction().MarshalBinary()
	require.NoError(t, err)

	decoded, err := s.Decode(raw)
	require.NoError(t, err)

	doc, err := json.Marshal(decoded)
	require.NoError(t, err)

	var shape map[string]any
	require.NoError(t, json.Unmarshal(doc, &shape))
	assert.Contains(t, shape, "ins")
	assert.Contains(t, shape, "outs")
	assert.Contains(t, shape, "locktime")

	outs := shape["outs"].([]any)
	first := outs[0].(map[string]any)
	assert.Equal(t, "00f2052a01000000", first["valueBuffer"])
	assert.Equal(t, "76a914", first["script"])
}

func TestRegistry_EncodeRejectsBadDocuments(t *testing.T) {
	r := NewRegistry(RegistryOptions{})
	s, _ := r.Lookup("peeraddress")

	_, err := s.Encode([]byte(`{"address":"10.0.0.1","port":1,"extra":true}`))
	assert.Error(t, err)

	_, err = s.Encode([]byte(`{"address":"nowhere","port":1}`))
	assert.ErrorIs(t, err, codec.ErrInvalidAddress)

	_, err = s.Encode([]byte(`{"services":"0102","address":"10.0.0.1"}`))
	assert.Error(t, err)
}

func TestRegistry_CommandPolicy(t *testing.T) {
	full := []byte("abcdefghijkl")

	lenient, _ := NewRegistry(RegistryOptions{}).Lookup("command")
	name, err := lenient.Decode(full)
	require.NoError(t, err)
	assert.Equal(t, "abcdefghijkl", name)

	strict, _ := NewRegistry(RegistryOptions{RequireCommandTerminator: true}).Lookup("command")
	_, err = strict.Decode(full)
	assert.ErrorIs(t, err, codec.ErrMalformedPaddedString)
}

type encoder func() ([]byte, error)

func codecEncoder[T any](c codec.Codec[T], v T) encoder {
	return func() ([]byte, error) { return codec.Marshal(c, v) }
}

func TestSchemaForCommand(t *testing.T) {
	r := NewRegistry(RegistryOptions{})
	for _, cmd := range []string{CmdInv, CmdGetData, CmdNotFound, CmdTx, CmdBlock, CmdAlert} {
		name, ok := SchemaForCommand(cmd)
		require.True(t, ok, cmd)
		_, ok = r.Lookup(name)
		assert.True(t, ok, "schema %s for %s is registered", name, cmd)
	}

	_, ok := SchemaForCommand(CmdPing)
	assert.False(t, ok)
}
