package main

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"github.com/NASA-AMMOS/synopsis/internal/catalogue"
	"github.com/NASA-AMMOS/synopsis/internal/clock"
	"github.com/NASA-AMMOS/synopsis/internal/config"
	"github.com/NASA-AMMOS/synopsis/internal/obslog"
	"github.com/NASA-AMMOS/synopsis/internal/planner"
	"github.com/NASA-AMMOS/synopsis/internal/provenance"
)

var prioritizeRunConfigPath string

var prioritizeCmd = &cobra.Command{
	Use:   "prioritize",
	Short: "Run the MMR downlink planner over a catalogue",
	RunE:  runPrioritize,
}

func init() {
	rootCmd.AddCommand(prioritizeCmd)
	prioritizeCmd.Flags().StringVar(&prioritizeRunConfigPath, "config", "", "path to the run configuration YAML file")
	prioritizeCmd.MarkFlagRequired("config")
}

// prioritizeResult is the JSON/table projection of a planner run, combining
// the selected ordering with the per-bin provenance report.
type prioritizeResult struct {
	RunID        string
	Status       string
	PrioritizeID []int64
	Bins         []provenance.BinOutcome
	Reason       string
}

func runPrioritize(cmd *cobra.Command, args []string) error {
	runCfg, err := loadRunConfig(prioritizeRunConfigPath)
	if err != nil {
		return err
	}

	logger := obslog.NewStd()

	cat, err := catalogue.NewStore(runCfg.CataloguePath)
	if err != nil {
		return fmt.Errorf("open catalogue: %w", err)
	}
	defer cat.Close()

	ruleData, err := readOptional(runCfg.RuleConfigPath)
	if err != nil {
		return err
	}
	simData, err := readOptional(runCfg.SimilarityConfigPath)
	if err != nil {
		return err
	}

	rs := config.LoadRuleSet(ruleData, logger)
	sim := config.LoadSimilarityConfig(simData, logger)

	runID := uuid.NewString()
	startedAt := time.Now()

	ids, status, reports := planner.PrioritizeDetailed(cmd.Context(), cat, rs, sim, clock.System{}, runCfg.Timeout(), logger)
	finishedAt := time.Now()

	bins := make([]provenance.BinOutcome, len(reports))
	for i, r := range reports {
		reason := provenance.StopExhausted
		if !r.ExhaustedQueue {
			reason = provenance.StopNoAdmissibleCandidate
		}
		bins[i] = provenance.BinOutcome{
			Bin:            r.Bin,
			CandidateCount: r.CandidateCount,
			SelectedCount:  r.SelectedCount,
			StopReason:     reason,
		}
	}

	reason := ""
	if status == planner.Timeout {
		reason = "planner exceeded configured timeout"
	}

	if runCfg.ProvenancePath != "" {
		store, err := provenance.NewStore(runCfg.ProvenancePath)
		if err != nil {
			return fmt.Errorf("open provenance store: %w", err)
		}
		defer store.Close()

		entry := provenance.Entry{
			RunID:      runID,
			StartedAt:  startedAt,
			FinishedAt: finishedAt,
			Status:     status.String(),
			Bins:       bins,
			Reason:     reason,
		}
		if err := store.LogRun(entry); err != nil {
			return fmt.Errorf("log provenance: %w", err)
		}
	}

	result := prioritizeResult{
		RunID:        runID,
		Status:       status.String(),
		PrioritizeID: ids,
		Bins:         bins,
		Reason:       reason,
	}

	out, err := renderPrioritizeResult(result)
	if err != nil {
		return err
	}

	if runCfg.OutputPath != "" {
		if err := os.WriteFile(runCfg.OutputPath, out, 0o644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		return nil
	}
	fmt.Println(string(out))
	return nil
}

// renderPrioritizeResultJSON builds the JSON document field by field with
// sjson rather than marshaling a fixed struct, since reason is only present
// on a non-success run and bins is set as a whole array in one step.
func renderPrioritizeResultJSON(result prioritizeResult) ([]byte, error) {
	doc := "{}"
	var err error
	doc, err = sjson.Set(doc, "run_id", result.RunID)
	if err != nil {
		return nil, fmt.Errorf("build result json: %w", err)
	}
	doc, err = sjson.Set(doc, "status", result.Status)
	if err != nil {
		return nil, fmt.Errorf("build result json: %w", err)
	}
	doc, err = sjson.Set(doc, "prioritized_ids", result.PrioritizeID)
	if err != nil {
		return nil, fmt.Errorf("build result json: %w", err)
	}
	doc, err = sjson.Set(doc, "bins", result.Bins)
	if err != nil {
		return nil, fmt.Errorf("build result json: %w", err)
	}
	if result.Reason != "" {
		doc, err = sjson.Set(doc, "reason", result.Reason)
		if err != nil {
			return nil, fmt.Errorf("build result json: %w", err)
		}
	}
	return pretty.Pretty([]byte(doc)), nil
}

func renderPrioritizeResult(result prioritizeResult) ([]byte, error) {
	if GetJSON() {
		return renderPrioritizeResultJSON(result)
	}

	var buf []byte
	buf = append(buf, fmt.Sprintf("run:    %s\n", result.RunID)...)
	buf = append(buf, fmt.Sprintf("status: %s\n", result.Status)...)
	buf = append(buf, fmt.Sprintf("selected %d data products across %d bins\n\n", len(result.PrioritizeID), len(result.Bins))...)
	buf = append(buf, fmt.Sprintf("%-6s  %10s  %10s  %s\n", "Bin", "Candidates", "Selected", "Stop Reason")...)
	for _, b := range result.Bins {
		buf = append(buf, fmt.Sprintf("%-6d  %10d  %10d  %s\n", b.Bin, b.CandidateCount, b.SelectedCount, b.StopReason)...)
	}
	buf = append(buf, "\nprioritized ids:\n"...)
	for _, id := range result.PrioritizeID {
		buf = append(buf, fmt.Sprintf("  %d\n", id)...)
	}
	return buf, nil
}
