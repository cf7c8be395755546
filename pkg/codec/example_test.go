package codec_test

import (
	"errors"
	"fmt"
	"log"

	"github.com/ssargent/bitwire/pkg/codec"
)

// ExampleCommandName demonstrates the fixed-width command name field
func ExampleCommandName() {
	buf := make([]byte, codec.CommandNameSize)
	if _, err := codec.CommandName.Encode("verack", buf, 0); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%x\n", buf)

	name, n, err := codec.CommandName.Decode(buf, 0, len(buf))
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(name, n)

	// Output:
	// 76657261636b000000000000
	// verack 12
}

// ExampleStruct demonstrates declaring a record codec from a field list
func ExampleStruct() {
	type ping struct {
		Nonce uint64
		Note  string
	}

	pingCodec := codec.Struct(
		codec.Bind("nonce", codec.UInt64LE, func(p *ping) *uint64 { return &p.Nonce }),
		codec.Bind("note", codec.VarString, func(p *ping) *string { return &p.Note }),
	)

	encoded, err := codec.Marshal[ping](pingCodec, ping{Nonce: 1, Note: "hi"})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%x\n", encoded)

	decoded, err := codec.Unmarshal[ping](pingCodec, encoded)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%d %s\n", decoded.Nonce, decoded.Note)

	// Output:
	// 0100000000000000026869
	// 1 hi
}

// ExampleIPAddress demonstrates IPv4-mapped encoding
func ExampleIPAddress() {
	encoded, err := codec.Marshal(codec.IPAddress, "10.0.0.1")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%x\n", encoded)

	// Output:
	// 00000000000000000000ffff0a000001
}

// ExampleFieldError demonstrates locating a failure inside a record
func ExampleFieldError() {
	type peer struct {
		Address string
	}
	peerCodec := codec.Struct(
		codec.Bind("address", codec.IPAddress, func(p *peer) *string { return &p.Address }),
	)

	_, err := codec.Marshal[peer](peerCodec, peer{Address: "localhost"})

	var fe *codec.FieldError
	if errors.As(err, &fe) {
		fmt.Println(fe.Field, errors.Is(err, codec.ErrInvalidAddress))
	}

	// Output:
	// address true
}
