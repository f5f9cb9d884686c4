package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"post-call-insights-go/internal/types"
)

func newAnalyzeCmd(flags *rootFlags) *cobra.Command {
	var (
		model   string
		asJSON  bool
		reqFile string
	)
	cmd := &cobra.Command{
		Use:   "analyze [call_id...]",
		Short: "Analyze one or more calls and print the report",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && reqFile == "" {
				return fmt.Errorf("give at least one call id or --request")
			}
			a, err := newApp(flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			ctx := cmd.Context()

			var reports []types.DetailedAnalysis
			if reqFile != "" {
				req, err := readRequest(reqFile)
				if err != nil {
					return err
				}
				res, err := a.svc.AnalyzeCall(ctx, req, model)
				if err != nil {
					return err
				}
				reports = append(reports, res)
			}
			for _, id := range args {
				res, err := a.svc.AnalyzeCallID(ctx, id, model)
				if err != nil {
					return fmt.Errorf("analyze %s: %w", id, err)
				}
				reports = append(reports, res)
			}

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if len(reports) == 1 {
					return enc.Encode(reports[0])
				}
				return enc.Encode(reports)
			}
			for _, r := range reports {
				printAnalysis(out, r)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&model, "model", "m", "", "model name (default from DEFAULT_MODEL)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	cmd.Flags().StringVar(&reqFile, "request", "", "analyze a call record stored as JSON instead of fetching it")
	return cmd
}

// printAnalysis writes the human-readable report of one call.
func printAnalysis(w io.Writer, a types.DetailedAnalysis) {
	rule := strings.Repeat("=", 70)
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "ANALYSE - Call ID: %s", a.CallID)
	if a.Model != "" {
		fmt.Fprintf(w, " (%s)", a.Model)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, a.Summary)

	s := a.Statistics
	if s.CallReason != nil {
		fmt.Fprintf(w, "Motif de l'appel : %s\n", *s.CallReason)
	}
	if s.UserSentiment != nil {
		fmt.Fprintf(w, "Score de satisfaction : %s\n", *s.UserSentiment)
	}
	if len(s.FailureReasons) > 0 {
		fmt.Fprintf(w, "Erreurs : %s\n", strings.Join(s.FailureReasons, ", "))
		if s.FailureDescription != nil {
			lines := nonEmptyLines(*s.FailureDescription)
			if len(lines) == 1 {
				fmt.Fprintf(w, "   └─ %s\n", lines[0])
			} else if len(lines) > 1 {
				fmt.Fprintln(w, "   └─ Description :")
				for _, l := range lines {
					fmt.Fprintf(w, "      %s\n", l)
				}
			}
		}
	}
	if s.UserQuestions != nil {
		if lines := nonEmptyLines(*s.UserQuestions); len(lines) > 0 {
			fmt.Fprintln(w, "\nQuestions de l'appelant :")
			for _, q := range lines {
				fmt.Fprintf(w, "   • %s\n", q)
			}
		}
	}
	if len(s.CallTags) > 0 {
		fmt.Fprintf(w, "\nTags : %s\n", strings.Join(s.CallTags, ", "))
	}
	fmt.Fprintln(w, rule)
}

func nonEmptyLines(s string) []string {
	var out []string
	for _, l := range strings.Split(s, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}
