package wire

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/ssargent/bitwire/pkg/codec"
)

// Schema decodes and encodes one payload shape, converting to and from JSON.
type Schema interface {
	Name() string
	Description() string
	// Decode parses a complete payload.
	Decode(data []byte) (any, error)
	// Encode parses a JSON document and serializes it.
	Encode(doc []byte) ([]byte, error)
}

type schema[T any] struct {
	name        string
	description string
	codec       codec.Codec[T]
}

func (s schema[T]) Name() string        { return s.name }
func (s schema[T]) Description() string { return s.description }

func (s schema[T]) Decode(data []byte) (any, error) {
	return codec.Unmarshal(s.codec, data)
}

func (s schema[T]) Encode(doc []byte) ([]byte, error) {
	var v T
	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("invalid %s document: %w", s.name, err)
	}
	return codec.Marshal(s.codec, v)
}

// RegistryOptions select codec policies for the registry's schemas.
type RegistryOptions struct {
	RequireCommandTerminator bool
	// Text selects how command names and alert strings decode bytes above 0x7f.
	Text codec.TextMode
}

// Registry looks up schemas by name.
type Registry struct {
	schemas map[string]Schema
}

// NewRegistry returns a registry holding every schema in this package.
func NewRegistry(opts RegistryOptions) *Registry {
	r := &Registry{schemas: make(map[string]Schema)}
	r.add(schema[string]{"command", "12-byte null-padded command name", CommandCodec(opts.RequireCommandTerminator, opts.Text)})
	r.add(schema[PeerAddress]{"peeraddress", "services, IP address and port of a peer", PeerAddressCodec})
	r.add(schema[InventoryVector]{"invvect", "single inventory vector", InventoryVectorCodec})
	r.add(schema[[]InventoryVector]{"inv", "inv/getdata/notfound payload", InvListCodec})
	r.add(schema[AlertPayload]{"alertpayload", "alert payload body", NewAlertPayloadCodec(opts.Text)})
	r.add(schema[Alert]{"alert", "alert envelope: payload and signature", AlertCodec})
	r.add(schema[Transaction]{"tx", "transaction (legacy serialization)", TransactionCodec})
	r.add(schema[Header]{"header", "80-byte block header", HeaderCodec})
	r.add(schema[Block]{"block", "block header and transactions", BlockCodec})
	return r
}

func (r *Registry) add(s Schema) {
	r.schemas[s.Name()] = s
}

// Lookup returns the schema registered under name.
func (r *Registry) Lookup(name string) (Schema, bool) {
	s, ok := r.schemas[name]
	return s, ok
}

// Names returns the registered schema names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SchemaForCommand returns the name of the schema that decodes payloads of
// command, if one is registered.
func SchemaForCommand(command string) (string, bool) {
	switch command {
	case CmdInv, CmdGetData, CmdNotFound:
		return "inv", true
	case CmdTx:
		return "tx", true
	case CmdBlock:
		return "block", true
	case CmdAlert:
		return "alert", true
	}
	return "", false
}
