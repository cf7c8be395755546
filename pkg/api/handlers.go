package api

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/ssargent/bitwire/pkg/capture"
	"github.com/ssargent/bitwire/pkg/codec"
	"github.com/ssargent/bitwire/pkg/inventory"
	"github.com/ssargent/bitwire/pkg/wire"
)

// Server holds the API server state
type Server struct {
	registry *wire.Registry
	recorder MessageRecorder
	index    InventoryLookup
	config   ServerConfig
	metrics  *Metrics
	logger   zerolog.Logger
}

// NewServer creates a new API server. recorder and index may be nil, in
// which case their routes answer 503.
func NewServer(registry *wire.Registry, recorder MessageRecorder, index InventoryLookup, config ServerConfig, metrics *Metrics, logger zerolog.Logger) *Server {
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &Server{
		registry: registry,
		recorder: recorder,
		index:    index,
		config:   config,
		metrics:  metrics,
		logger:   logger,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.metrics.RecordHealthCheck(true)
	sendSuccess(w, map[string]string{"status": "healthy"})
}

func (s *Server) handleSchemas(w http.ResponseWriter, r *http.Request) {
	names := s.registry.Names()
	schemas := make([]SchemaInfo, 0, len(names))
	for _, name := range names {
		schema, _ := s.registry.Lookup(name)
		schemas = append(schemas, SchemaInfo{
			Name:        name,
			Description: schema.Description(),
		})
	}
	sendSuccess(w, schemas)
}

// handleDecode decodes a hex request body with the named schema.
func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "schema")
	schema, ok := s.registry.Lookup(name)
	if !ok {
		sendError(w, fmt.Sprintf("Unknown schema %q", name), http.StatusNotFound)
		return
	}

	payload, err := s.readHexBody(r)
	if err != nil {
		s.metrics.RecordCodecOperation("decode", name, 0, false)
		sendError(w, err.Error(), statusForBody(err))
		return
	}

	value, err := schema.Decode(payload)
	if err != nil {
		s.metrics.RecordCodecOperation("decode", name, 0, false)
		sendError(w, err.Error(), statusForCodec(err))
		return
	}

	s.metrics.RecordCodecOperation("decode", name, len(payload), true)
	sendSuccess(w, DecodeResponse{Schema: name, Length: len(payload), Value: value})
}

// handleEncode encodes a JSON request body with the named schema.
func (s *Server) handleEncode(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "schema")
	schema, ok := s.registry.Lookup(name)
	if !ok {
		sendError(w, fmt.Sprintf("Unknown schema %q", name), http.StatusNotFound)
		return
	}

	doc, err := s.readBody(r, s.maxPayload()*4)
	if err != nil {
		s.metrics.RecordCodecOperation("encode", name, 0, false)
		sendError(w, err.Error(), statusForBody(err))
		return
	}

	data, err := schema.Encode(doc)
	if err != nil {
		s.metrics.RecordCodecOperation("encode", name, 0, false)
		sendError(w, err.Error(), statusForCodec(err))
		return
	}

	s.metrics.RecordCodecOperation("encode", name, len(data), true)
	sendSuccess(w, EncodeResponse{Hex: hex.EncodeToString(data), Length: len(data)})
}

// handleCapture appends a hex payload under the command in the path.
func (s *Server) handleCapture(w http.ResponseWriter, r *http.Request) {
	if s.recorder == nil {
		sendError(w, "Capture is not enabled", http.StatusServiceUnavailable)
		return
	}
	command := chi.URLParam(r, "command")

	payload, err := s.readHexBody(r)
	if err != nil {
		s.metrics.RecordCapture(command, 0, 0, false)
		sendError(w, err.Error(), statusForBody(err))
		return
	}

	receipt, err := s.recorder.Record(command, payload)
	if err != nil {
		s.metrics.RecordCapture(command, len(payload), 0, false)
		status := statusForCodec(err)
		if errors.Is(err, capture.ErrPayloadTooLarge) {
			status = http.StatusRequestEntityTooLarge
		} else if status == http.StatusBadRequest {
			status = http.StatusInternalServerError
			s.logger.Error().Err(err).Str("command", command).Msg("capture failed")
		}
		sendError(w, err.Error(), status)
		return
	}

	s.metrics.RecordCapture(command, len(payload), receipt.Indexed, true)
	sendSuccess(w, CaptureResponse{Command: command, Receipt: receipt})
}

// handleInventory looks up where a vector was captured. The hash is in
// the usual byte-reversed display form.
func (s *Server) handleInventory(w http.ResponseWriter, r *http.Request) {
	if s.index == nil {
		sendError(w, "Inventory index is not enabled", http.StatusServiceUnavailable)
		return
	}

	typ, err := wire.ParseInvType(chi.URLParam(r, "type"))
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	hash, err := chainhash.NewHashFromStr(chi.URLParam(r, "hash"))
	if err != nil {
		sendError(w, fmt.Sprintf("Invalid hash: %v", err), http.StatusBadRequest)
		return
	}

	vector := wire.NewInventoryVector(typ, *hash)
	loc, err := s.index.Get(vector)
	if errors.Is(err, inventory.ErrNotFound) {
		sendError(w, "Inventory vector not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Str("hash", hash.String()).Msg("inventory lookup failed")
		sendError(w, "Inventory lookup failed", http.StatusInternalServerError)
		return
	}

	sendSuccess(w, InventoryResponse{Vector: vector, Location: loc})
}

var errBodyTooLarge = errors.New("request body too large")

func (s *Server) maxPayload() int {
	if s.config.MaxPayloadSize > 0 {
		return s.config.MaxPayloadSize
	}
	return 32 * 1024 * 1024
}

func (s *Server) readBody(r *http.Request, limit int) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, int64(limit)+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	if len(body) > limit {
		return nil, errBodyTooLarge
	}
	return body, nil
}

// readHexBody reads a hex-encoded payload. Whitespace around the hex and an
// optional 0x prefix are ignored.
func (s *Server) readHexBody(r *http.Request) ([]byte, error) {
	body, err := s.readBody(r, s.maxPayload()*2+64)
	if err != nil {
		return nil, err
	}
	text := strings.TrimPrefix(strings.TrimSpace(string(body)), "0x")
	payload, err := hex.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("invalid hex payload: %w", err)
	}
	if len(payload) > s.maxPayload() {
		return nil, errBodyTooLarge
	}
	return payload, nil
}

func statusForBody(err error) int {
	if errors.Is(err, errBodyTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

var codecErrors = []error{
	codec.ErrBufferTooSmall,
	codec.ErrInsufficientData,
	codec.ErrInvalidAddress,
	codec.ErrMalformedPaddedString,
	codec.ErrNameTooLong,
	codec.ErrNotASCII,
	codec.ErrNonCanonicalVarInt,
	codec.ErrInvalidRange,
	codec.ErrTrailingData,
}

// statusForCodec maps codec failures to 422 and everything else, such as
// malformed JSON, to 400.
func statusForCodec(err error) int {
	for _, target := range codecErrors {
		if errors.Is(err, target) {
			return http.StatusUnprocessableEntity
		}
	}
	return http.StatusBadRequest
}
