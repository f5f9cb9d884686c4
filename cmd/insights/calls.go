package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"post-call-insights-go/internal/rounded"
	"post-call-insights-go/internal/types"
)

func newCallsCmd(flags *rootFlags) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "calls",
		Short: "List recent calls from Call Rounded",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			raw, err := a.calls.ListCalls(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return writeIndented(cmd, raw)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of calls")
	return cmd
}

// newRawCmd prints a call as returned by the provider, or as the analysis
// request built from it with --request.
func newRawCmd(flags *rootFlags) *cobra.Command {
	var asRequest bool
	cmd := &cobra.Command{
		Use:   "raw <call_id>",
		Short: "Print the raw record of a call",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if asRequest {
				req, err := a.calls.FetchRequest(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				b, err := json.Marshal(req)
				if err != nil {
					return err
				}
				return writeIndented(cmd, b)
			}
			raw, err := a.calls.GetCall(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeIndented(cmd, raw)
		},
	}
	cmd.Flags().BoolVar(&asRequest, "request", false, "print the analysis request built from the call")
	return cmd
}

func writeIndented(cmd *cobra.Command, raw []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return err
	}
	buf.WriteByte('\n')
	_, err := buf.WriteTo(cmd.OutOrStdout())
	return err
}

// readRequest loads an analysis request from a JSON file. Both the request
// shape and a raw provider record are accepted.
func readRequest(path string) (types.CallAnalysisRequest, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return types.CallAnalysisRequest{}, err
	}
	var probe struct {
		Conversation json.RawMessage `json:"conversation"`
	}
	if err := json.Unmarshal(b, &probe); err != nil {
		return types.CallAnalysisRequest{}, fmt.Errorf("%s: %w", path, err)
	}
	if probe.Conversation != nil {
		var req types.CallAnalysisRequest
		if err := json.Unmarshal(b, &req); err != nil {
			return types.CallAnalysisRequest{}, fmt.Errorf("%s: %w", path, err)
		}
		return req, nil
	}
	call, err := rounded.Decode(b)
	if err != nil {
		return types.CallAnalysisRequest{}, fmt.Errorf("%s: %w", path, err)
	}
	return rounded.BuildRequest(call), nil
}
