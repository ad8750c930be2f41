package main

import (
	"strings"
	"testing"

	"github.com/NASA-AMMOS/synopsis/internal/provenance"
)

func TestRenderPrioritizeResultTableIncludesBinsAndIDs(t *testing.T) {
	flagJSON = false
	result := prioritizeResult{
		RunID:        "run-1",
		Status:       "success",
		PrioritizeID: []int64{3, 1},
		Bins: []provenance.BinOutcome{
			{Bin: 0, CandidateCount: 2, SelectedCount: 2, StopReason: provenance.StopExhausted},
		},
	}

	out, err := renderPrioritizeResult(result)
	if err != nil {
		t.Fatalf("renderPrioritizeResult: %v", err)
	}
	text := string(out)
	if !strings.Contains(text, "run-1") || !strings.Contains(text, "success") {
		t.Fatalf("expected table to mention run id and status, got:\n%s", text)
	}
	if !strings.Contains(text, "exhausted") {
		t.Fatalf("expected table to mention stop reason, got:\n%s", text)
	}
}

func TestRenderPrioritizeResultJSONIsPrettyPrinted(t *testing.T) {
	flagJSON = true
	defer func() { flagJSON = false }()

	result := prioritizeResult{
		RunID:        "run-2",
		Status:       "timeout",
		PrioritizeID: []int64{5},
	}

	out, err := renderPrioritizeResult(result)
	if err != nil {
		t.Fatalf("renderPrioritizeResult: %v", err)
	}
	if !strings.Contains(string(out), `"run_id": "run-2"`) {
		t.Fatalf("expected pretty JSON output, got:\n%s", out)
	}
}
