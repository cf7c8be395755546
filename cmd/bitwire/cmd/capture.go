package cmd

import (
	"encoding/hex"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/spf13/cobra"

	"github.com/ssargent/bitwire/pkg/capture"
	"github.com/ssargent/bitwire/pkg/inventory"
	"github.com/ssargent/bitwire/pkg/wire"
)

func newCaptureCmd() *cobra.Command {
	captureCmd := &cobra.Command{
		Use:   "capture",
		Short: "Record and inspect captured messages",
		Long: `Capture sessions are append-only files of raw (command, payload) records
under <data-dir>/capture. Inventory carried by captured inv, getdata, notfound,
tx and block messages is indexed so it can be traced back to its record.`,
	}

	captureCmd.AddCommand(
		newCaptureAppendCmd(),
		newCaptureListCmd(),
		newCaptureDumpCmd(),
		newCaptureLookupCmd(),
		newCaptureInventoryCmd(),
		newCaptureRemoveCmd(),
	)
	return captureCmd
}

func newCaptureAppendCmd() *cobra.Command {
	appendCmd := &cobra.Command{
		Use:   "append <command> <hex|@file|->",
		Short: "Append a message to a capture session",
		Long: `Append one message to a capture session. Without --session a new session
is started and its id is printed.

Examples:
  bitwire capture append ping 0102030405060708
  bitwire capture append tx @tx.hex --session 2ZZ...`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := readPayload(cmd, args[1])
			if err != nil {
				return err
			}

			sessionID, _ := cmd.Flags().GetString("session")
			recording, err := container.OpenRecording(sessionID)
			if err != nil {
				return err
			}

			receipt, err := recording.Record(args[0], payload)
			if closeErr := recording.Close(); err == nil {
				err = closeErr
			}
			if err != nil {
				return err
			}

			if format, _ := cmd.Flags().GetString("format"); format == "json" {
				return writeJSON(cmd.OutOrStdout(), receipt, false)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s (%d bytes) at %s:%d, %d inventory vectors indexed\n",
				args[0], len(payload), receipt.Location.Session, receipt.Location.Offset, receipt.Indexed)
			return nil
		},
	}

	appendCmd.Flags().String("session", "", "Append to an existing session instead of starting a new one")
	appendCmd.Flags().Bool("binary", false, "Input is raw bytes instead of hex")
	appendCmd.Flags().StringP("format", "f", "text", "Output format: text or json")
	return appendCmd
}

func newCaptureListCmd() *cobra.Command {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List capture sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := container.CaptureStore()
			if err != nil {
				return err
			}
			sessions, err := store.Sessions()
			if err != nil {
				return err
			}

			if format, _ := cmd.Flags().GetString("format"); format == "json" {
				if sessions == nil {
					sessions = []capture.SessionInfo{}
				}
				return writeJSON(cmd.OutOrStdout(), sessions, false)
			}

			if len(sessions) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No capture sessions found")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			defer w.Flush()

			fmt.Fprintln(w, "ID\tCREATED\tSIZE")
			for _, s := range sessions {
				fmt.Fprintf(w, "%s\t%s\t%d\n", s.ID, s.Created().UTC().Format(time.RFC3339), s.Size)
			}
			return nil
		},
	}

	listCmd.Flags().StringP("format", "f", "table", "Output format: table or json")
	return listCmd
}

// dumpEntry is one record in 'capture dump' output
type dumpEntry struct {
	Offset  int64       `json:"offset"`
	Time    time.Time   `json:"time"`
	Command string      `json:"command"`
	Length  int         `json:"length"`
	Payload string      `json:"payload,omitempty"`
	Decoded interface{} `json:"decoded,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func newCaptureDumpCmd() *cobra.Command {
	dumpCmd := &cobra.Command{
		Use:   "dump <session>",
		Short: "Print the records of a capture session",
		Long: `Print every record of a capture session in file order. With --decode,
payloads of commands that have a schema are decoded. Reading stops at the first
damaged record and the command fails.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := container.CaptureStore()
			if err != nil {
				return err
			}
			reader, err := store.Open(args[0])
			if err != nil {
				return err
			}
			defer reader.Close()

			format, _ := cmd.Flags().GetString("format")
			showPayload, _ := cmd.Flags().GetBool("payload")
			decode, _ := cmd.Flags().GetBool("decode")

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			if format != "json" {
				fmt.Fprintln(w, "OFFSET\tTIME\tCOMMAND\tLENGTH")
			}

			it := reader.Iterator()
			defer it.Close()
			for it.Next() {
				entry := newDumpEntry(it.Offset(), it.Record(), showPayload, decode)

				if format == "json" {
					if err := writeJSON(cmd.OutOrStdout(), entry, true); err != nil {
						return err
					}
					continue
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%d\n", entry.Offset, entry.Time.Format(time.RFC3339Nano), entry.Command, entry.Length)
				if entry.Payload != "" {
					fmt.Fprintf(w, "\tpayload\t%s\t\n", entry.Payload)
				}
				if entry.Error != "" {
					fmt.Fprintf(w, "\terror\t%s\t\n", entry.Error)
				}
			}
			w.Flush()

			if err := it.Err(); err != nil {
				return fmt.Errorf("session %s: %w", args[0], err)
			}
			return nil
		},
	}

	dumpCmd.Flags().StringP("format", "f", "table", "Output format: table or json (one object per line)")
	dumpCmd.Flags().Bool("payload", false, "Include payload hex")
	dumpCmd.Flags().Bool("decode", false, "Decode payloads of commands with a known schema")
	return dumpCmd
}

func newDumpEntry(offset int64, record *capture.Record, showPayload, decode bool) dumpEntry {
	entry := dumpEntry{
		Offset:  offset,
		Time:    record.Time(),
		Command: record.Command,
		Length:  len(record.Payload),
	}
	if showPayload {
		entry.Payload = hex.EncodeToString(record.Payload)
	}
	if decode {
		entry.Decoded, entry.Error = decodeRecord(record)
	}
	return entry
}

func decodeRecord(record *capture.Record) (interface{}, string) {
	name, ok := wire.SchemaForCommand(record.Command)
	if !ok {
		return nil, ""
	}
	schema, ok := container.Registry().Lookup(name)
	if !ok {
		return nil, ""
	}
	value, err := schema.Decode(record.Payload)
	if err != nil {
		return nil, err.Error()
	}
	return value, ""
}

func newCaptureLookupCmd() *cobra.Command {
	lookupCmd := &cobra.Command{
		Use:   "lookup <type> <hash>",
		Short: "Find the capture record that carried an inventory vector",
		Long: `Look up an inventory vector in the index and print the capture record it
points to. The type is a name such as tx, block or witness_tx, or a number; the
hash is in the usual reversed hex form.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			typ, err := wire.ParseInvType(args[0])
			if err != nil {
				return err
			}
			hash, err := chainhash.NewHashFromStr(args[1])
			if err != nil {
				return fmt.Errorf("invalid hash: %w", err)
			}

			index, err := container.OpenIndex()
			if err != nil {
				return err
			}
			loc, err := index.Get(wire.NewInventoryVector(typ, *hash))
			if closeErr := index.Close(); err == nil {
				err = closeErr
			}
			if errors.Is(err, inventory.ErrNotFound) {
				return fmt.Errorf("%s %s has not been captured", typ, hash)
			}
			if err != nil {
				return err
			}

			store, err := container.CaptureStore()
			if err != nil {
				return err
			}
			reader, err := store.Open(loc.Session.String())
			if err != nil {
				return err
			}
			defer reader.Close()

			record, err := reader.ReadAt(loc.Offset)
			if err != nil {
				return fmt.Errorf("session %s offset %d: %w", loc.Session, loc.Offset, err)
			}

			showPayload, _ := cmd.Flags().GetBool("payload")
			decode, _ := cmd.Flags().GetBool("decode")
			entry := newDumpEntry(loc.Offset, record, showPayload, decode)

			if format, _ := cmd.Flags().GetString("format"); format == "json" {
				return writeJSON(cmd.OutOrStdout(), lookupResult{Location: loc, Record: entry}, false)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s: session %s offset %d\n", typ, hash, loc.Session, loc.Offset)
			fmt.Fprintf(out, "  %s at %s, %d bytes\n", entry.Command, entry.Time.Format(time.RFC3339Nano), entry.Length)
			if entry.Payload != "" {
				fmt.Fprintf(out, "  payload %s\n", entry.Payload)
			}
			if entry.Error != "" {
				fmt.Fprintf(out, "  error %s\n", entry.Error)
			}
			return nil
		},
	}

	lookupCmd.Flags().StringP("format", "f", "text", "Output format: text or json")
	lookupCmd.Flags().Bool("payload", false, "Include payload hex")
	lookupCmd.Flags().Bool("decode", false, "Decode the payload when its command has a schema")
	return lookupCmd
}

type lookupResult struct {
	Location inventory.Location `json:"location"`
	Record   dumpEntry          `json:"record"`
}

func newCaptureInventoryCmd() *cobra.Command {
	inventoryCmd := &cobra.Command{
		Use:   "inventory <type>",
		Short: "List indexed inventory vectors of one type",
		Long: `List every indexed vector of the given type in hash byte order, with the
capture location it points to.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			typ, err := wire.ParseInvType(args[0])
			if err != nil {
				return err
			}

			index, err := container.OpenIndex()
			if err != nil {
				return err
			}
			defer index.Close()

			format, _ := cmd.Flags().GetString("format")
			limit, _ := cmd.Flags().GetInt("limit")

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			if format != "json" {
				fmt.Fprintln(w, "HASH\tSESSION\tOFFSET")
			}

			count := 0
			errLimit := errors.New("limit reached")
			err = index.Scan(typ, func(e inventory.Entry) error {
				if limit > 0 && count == limit {
					return errLimit
				}
				count++
				if format == "json" {
					return writeJSON(cmd.OutOrStdout(), e, true)
				}
				fmt.Fprintf(w, "%s\t%s\t%d\n", e.Vector.Hash, e.Location.Session, e.Location.Offset)
				return nil
			})
			w.Flush()
			if err != nil && !errors.Is(err, errLimit) {
				return err
			}
			return nil
		},
	}

	inventoryCmd.Flags().StringP("format", "f", "table", "Output format: table or json (one object per line)")
	inventoryCmd.Flags().Int("limit", 0, "Stop after this many entries (0 for all)")
	return inventoryCmd
}

func newCaptureRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <session>",
		Short: "Delete a capture session and its inventory entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := container.CaptureStore()
			if err != nil {
				return err
			}
			sid, err := capture.ParseSessionID(args[0])
			if err != nil {
				return err
			}
			if err := store.Remove(args[0]); err != nil {
				return err
			}

			index, err := container.OpenIndex()
			if err != nil {
				return err
			}
			defer index.Close()

			removed, err := index.Purge(sid)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed session %s and %d inventory entries\n", sid, removed)
			return nil
		},
	}
}
