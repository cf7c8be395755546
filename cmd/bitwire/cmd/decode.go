package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDecodeCmd() *cobra.Command {
	decodeCmd := &cobra.Command{
		Use:   "decode <schema> <hex|@file|->",
		Short: "Decode a payload and print it as JSON",
		Long: `Decode a wire payload with one of the registered schemas and print the
result as JSON. The payload is hex text unless --binary is given.

Examples:
  bitwire decode peeraddress 010000000000000000000000000000000000ffff0a000001208d
  bitwire decode tx @tx.hex
  bitwire decode block --binary @block.bin`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, ok := container.Registry().Lookup(args[0])
			if !ok {
				return fmt.Errorf("unknown schema %q (see 'bitwire schemas')", args[0])
			}

			payload, err := readPayload(cmd, args[1])
			if err != nil {
				return err
			}

			value, err := schema.Decode(payload)
			if err != nil {
				return fmt.Errorf("decode %s: %w", schema.Name(), err)
			}

			logger := container.Logger()
			logger.Debug().Str("schema", schema.Name()).Int("bytes", len(payload)).Msg("decoded payload")

			compact, _ := cmd.Flags().GetBool("compact")
			return writeJSON(cmd.OutOrStdout(), value, compact)
		},
	}

	decodeCmd.Flags().Bool("binary", false, "Input is raw bytes instead of hex")
	decodeCmd.Flags().Bool("compact", false, "Print JSON on a single line")
	return decodeCmd
}
