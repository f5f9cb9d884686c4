package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"post-call-insights-go/internal/aggregator"
	"post-call-insights-go/internal/batch"
	"post-call-insights-go/internal/dataset"
)

func newBatchCmd(flags *rootFlags) *cobra.Command {
	var (
		idsFile string
		models  []string
		workers int
		outPath string
		report  string
	)
	cmd := &cobra.Command{
		Use:   "batch [call_id...]",
		Short: "Analyze every (call, model) pair and export the results",
		Long: `batch analyzes each call id with each model in parallel, then writes the
results to a spreadsheet (.xlsx) or CSV file. Failed calls are kept in the
export as ERROR rows.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := append([]string(nil), args...)
			if idsFile != "" {
				loaded, err := dataset.LoadCallIDs(idsFile)
				if err != nil {
					return err
				}
				ids = append(ids, loaded...)
			}
			a, err := newApp(flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if len(models) == 0 {
				models = []string{a.svc.DefaultModel()}
			}
			tasks := batch.Plan(ids, models)
			if len(tasks) == 0 {
				return fmt.Errorf("no call ids to analyze")
			}
			if workers <= 0 {
				workers = a.cfg.BatchWorkers
			}
			if outPath == "" {
				outPath = fmt.Sprintf("analysis_results_%s.xlsx", time.Now().Format("20060102_150405"))
			}

			out := cmd.OutOrStdout()
			nCalls, nModels := planShape(tasks)
			fmt.Fprintf(out, "%d analyses (%d calls × %d models), %d workers\n",
				len(tasks), nCalls, nModels, min(workers, len(tasks)))

			results, runErr := batch.Run(cmd.Context(), a.svc, tasks, batch.Options{
				Workers: workers,
				OnResult: func(done, total int, r batch.Result) {
					status := "ok"
					if !r.OK() {
						status = "ERROR: " + r.Error
					}
					fmt.Fprintf(out, "[%d/%d] %s × %s: %s\n", done, total, r.CallID, r.Model, status)
				},
			}, a.log)
			if len(results) == 0 && runErr != nil {
				return runErr
			}

			if err := dataset.Export(outPath, results); err != nil {
				return err
			}
			fmt.Fprintf(out, "results written to %s\n", outPath)
			if report != "" {
				if _, err := dataset.WriteReport(report, results, a.log); err != nil {
					return err
				}
				fmt.Fprintf(out, "report written to %s\n", report)
			}
			printStats(cmd, aggregator.Aggregate(results))
			return runErr
		},
	}
	cmd.Flags().StringVarP(&idsFile, "ids", "i", "", "file of call ids (.xlsx, .csv or one id per line)")
	cmd.Flags().StringSliceVarP(&models, "models", "m", nil, "models to compare (default: DEFAULT_MODEL)")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "parallel analyses (default: BATCH_WORKERS)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file, .xlsx or .csv")
	cmd.Flags().StringVar(&report, "report", "", "also write a JSON report with every analysis")
	return cmd
}

func planShape(tasks []batch.Task) (calls, models int) {
	seenCalls, seenModels := map[string]bool{}, map[string]bool{}
	for _, t := range tasks {
		seenCalls[t.CallID] = true
		seenModels[t.Model] = true
	}
	return len(seenCalls), len(seenModels)
}

func printStats(cmd *cobra.Command, ins aggregator.Insight) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, strings.Repeat("-", 70))
	fmt.Fprintf(out, "Appels sans problème : %d\n", ins.WithoutProblem)
	fmt.Fprintf(out, "Appels avec problème : %d\n", ins.WithProblem)
	fmt.Fprintf(out, "Erreurs d'analyse    : %d\n", ins.Errors)
	fmt.Fprintf(out, "Taux de problèmes    : %.1f%%\n", ins.ProblemRate*100)
	for _, c := range aggregator.Top(ins.FailureCounts, 5) {
		fmt.Fprintf(out, "  %-28s %d\n", c.Key, c.Count)
	}
}
