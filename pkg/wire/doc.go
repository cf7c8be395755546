// Package wire declares the payload schemas exchanged between peers:
// PeerAddress, InventoryVector, AlertPayload, Transaction and Header, plus
// the inv-list, alert envelope and block shapes built from them.
//
// Each schema is a field list over the codecs in package codec, so the byte
// layout can be read directly from the declaration. All integers are
// little-endian except PeerAddress.Port, which is big-endian.
//
// Schemas only check that bytes are well formed. Whether a transaction
// spends valid outputs or an alert carries a valid signature is left to the
// caller.
package wire
