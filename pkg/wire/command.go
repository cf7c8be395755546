package wire

import "github.com/ssargent/bitwire/pkg/codec"

// Command names carried in the message envelope.
const (
	CmdVersion     = "version"
	CmdVerAck      = "verack"
	CmdAddr        = "addr"
	CmdInv         = "inv"
	CmdGetData     = "getdata"
	CmdNotFound    = "notfound"
	CmdGetBlocks   = "getblocks"
	CmdGetHeaders  = "getheaders"
	CmdTx          = "tx"
	CmdBlock       = "block"
	CmdHeaders     = "headers"
	CmdGetAddr     = "getaddr"
	CmdMemPool     = "mempool"
	CmdPing        = "ping"
	CmdPong        = "pong"
	CmdAlert       = "alert"
	CmdReject      = "reject"
	CmdSendHeaders = "sendheaders"
	CmdFeeFilter   = "feefilter"
)

// CommandCodec returns the command-name codec. With requireTerminator set,
// names that fill all 12 bytes are rejected.
func CommandCodec(requireTerminator bool, text codec.TextMode) codec.CommandNameCodec {
	return codec.CommandNameCodec{RequireTerminator: requireTerminator, Text: text}
}

// InventoryCommand reports whether payloads of cmd are inventory lists.
func InventoryCommand(cmd string) bool {
	switch cmd {
	case CmdInv, CmdGetData, CmdNotFound:
		return true
	}
	return false
}
