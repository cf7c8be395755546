package api

import (
	"github.com/ssargent/bitwire/pkg/capture"
	"github.com/ssargent/bitwire/pkg/inventory"
	"github.com/ssargent/bitwire/pkg/wire"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// SchemaInfo describes one registered schema
type SchemaInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// EncodeResponse carries an encoded payload
type EncodeResponse struct {
	Hex    string `json:"hex"`
	Length int    `json:"length"`
}

// DecodeResponse carries a decoded payload
type DecodeResponse struct {
	Schema string      `json:"schema"`
	Length int         `json:"length"`
	Value  interface{} `json:"value"`
}

// CaptureResponse reports where a captured message was stored
type CaptureResponse struct {
	Command string `json:"command"`
	capture.Receipt
}

// InventoryResponse is the stored location of an inventory vector
type InventoryResponse struct {
	Vector   wire.InventoryVector `json:"vector"`
	Location inventory.Location   `json:"location"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Bind           string
	Port           int
	APIKey         string // Required on capture routes; empty disables the check
	MaxPayloadSize int
}

// MessageRecorder stores captured messages
type MessageRecorder interface {
	Record(command string, payload []byte) (capture.Receipt, error)
}

// InventoryLookup resolves inventory vectors to capture locations
type InventoryLookup interface {
	Get(v wire.InventoryVector) (inventory.Location, error)
}
