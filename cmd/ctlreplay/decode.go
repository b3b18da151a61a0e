package main

import (
	"bufio"
	"bytes"
	"cmp"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/wagiedev/agentctl-go/internal/message"
)

const maxLineSize = 1024 * 1024

func newDecodeCmd() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "decode <file>",
		Short: "Decode a JSON-lines transcript and summarise its events",
		Long: `Decode every line of a recorded transcript the way a session would.

Prints one row per event with its type, request id and subtype, followed by
a count per event type. Lines that fail to decode are reported and skipped
unless --strict is set. Use "-" to read from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()

			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open transcript: %w", err)
				}
				defer f.Close()

				r = f
			}

			sum, err := decodeTranscript(r, cmd.OutOrStdout(), strict)
			if err != nil {
				return err
			}

			return sum.print(cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Fail on the first line that does not decode")

	return cmd
}

type summary struct {
	lines        int
	events       int
	decodeErrors int
	byType       map[string]int
}

// describe returns the type, request id and subtype columns for ev.
func describe(ev message.Event) (typ, requestID, subtype string) {
	typ, requestID, subtype = string(ev.EventType()), "-", "-"

	switch e := ev.(type) {
	case *message.ControlRequest:
		requestID, subtype = e.RequestID, e.Subtype()
	case *message.ControlResponse:
		requestID, subtype = e.RequestID(), e.Subtype()
	case *message.ControlCancelRequest:
		requestID = e.RequestID
	case *message.ResultMessage:
		subtype = e.Subtype
	case *message.SystemMessage:
		subtype = e.Subtype
	case *message.Unknown:
		typ = e.Type
	}

	return typ, requestID, cmp.Or(subtype, "-")
}

func decodeTranscript(r io.Reader, w io.Writer, strict bool) (*summary, error) {
	sum := &summary{byType: make(map[string]int)}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LINE\tTYPE\tREQUEST_ID\tSUBTYPE")

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lineNo := 0

	for scanner.Scan() {
		lineNo++

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		sum.lines++

		ev, err := message.Decode(line)
		if err != nil {
			if strict {
				_ = tw.Flush()

				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}

			sum.decodeErrors++
			fmt.Fprintf(tw, "%d\t!decode\t-\t%v\n", lineNo, err)

			continue
		}

		typ, requestID, subtype := describe(ev)

		sum.events++
		sum.byType[typ]++

		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", lineNo, typ, requestID, subtype)
	}

	if err := scanner.Err(); err != nil {
		_ = tw.Flush()

		return nil, fmt.Errorf("read line %d: %w", lineNo+1, err)
	}

	if err := tw.Flush(); err != nil {
		return nil, err
	}

	return sum, nil
}

func (s *summary) print(w io.Writer) error {
	fmt.Fprintf(w, "\n%d lines, %d events, %d decode errors\n", s.lines, s.events, s.decodeErrors)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, typ := range slices.Sorted(maps.Keys(s.byType)) {
		fmt.Fprintf(tw, "  %s\t%d\n", typ, s.byType[typ])
	}

	return tw.Flush()
}
