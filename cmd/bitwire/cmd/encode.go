package cmd

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"
)

func newEncodeCmd() *cobra.Command {
	encodeCmd := &cobra.Command{
		Use:   "encode <schema> <json|@file|->",
		Short: "Encode a JSON document and print the payload as hex",
		Long: `Encode a JSON document with one of the registered schemas. The document
uses the same shape that 'bitwire decode' prints.

Examples:
  bitwire encode command '"version"'
  bitwire encode peeraddress '{"services":"0100000000000000","address":"10.0.0.1","port":8333}'
  bitwire encode tx @tx.json --binary > tx.bin`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, ok := container.Registry().Lookup(args[0])
			if !ok {
				return fmt.Errorf("unknown schema %q (see 'bitwire schemas')", args[0])
			}

			doc, err := readInput(cmd, args[1])
			if err != nil {
				return err
			}

			data, err := schema.Encode(doc)
			if err != nil {
				return fmt.Errorf("encode %s: %w", schema.Name(), err)
			}

			logger := container.Logger()
			logger.Debug().Str("schema", schema.Name()).Int("bytes", len(data)).Msg("encoded payload")

			if binary, _ := cmd.Flags().GetBool("binary"); binary {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(data))
			return nil
		},
	}

	encodeCmd.Flags().Bool("binary", false, "Write raw bytes instead of hex")
	return encodeCmd
}
