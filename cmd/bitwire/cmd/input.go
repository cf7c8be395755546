package cmd

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// readInput resolves a payload argument: "-" reads stdin, "@path" reads a
// file and anything else is the literal text.
func readInput(cmd *cobra.Command, arg string) ([]byte, error) {
	limit := int64(container.Config().Codec.MaxPayloadSize)*2 + 64

	var r io.Reader
	switch {
	case arg == "-":
		r = cmd.InOrStdin()
	case strings.HasPrefix(arg, "@"):
		f, err := os.Open(arg[1:])
		if err != nil {
			return nil, fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		r = f
	default:
		return []byte(arg), nil
	}

	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("input exceeds %d bytes", limit)
	}
	return data, nil
}

// readPayload reads a payload argument as hex text, or as raw bytes when
// the --binary flag is set.
func readPayload(cmd *cobra.Command, arg string) ([]byte, error) {
	data, err := readInput(cmd, arg)
	if err != nil {
		return nil, err
	}

	payload := data
	if binary, _ := cmd.Flags().GetBool("binary"); !binary {
		text := strings.Join(strings.Fields(string(data)), "")
		text = strings.TrimPrefix(text, "0x")
		payload, err = hex.DecodeString(text)
		if err != nil {
			return nil, fmt.Errorf("invalid hex payload: %w", err)
		}
	}

	if limit := container.Config().Codec.MaxPayloadSize; len(payload) > limit {
		return nil, fmt.Errorf("payload of %d bytes exceeds max_payload_size %d", len(payload), limit)
	}
	return payload, nil
}

func writeJSON(w io.Writer, v interface{}, compact bool) error {
	enc := json.NewEncoder(w)
	if !compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
