// Package planner implements the maximum marginal relevance downlink
// planner: it snapshots a catalogue, buckets undownlinked data products by
// priority bin, and greedily builds a per-bin prioritized order that
// maximizes marginal relative utility under diversity discounting and rule
// constraints.
package planner

import (
	"context"
	"sort"
	"time"

	"github.com/NASA-AMMOS/synopsis/internal/catalogue"
	"github.com/NASA-AMMOS/synopsis/internal/clock"
	"github.com/NASA-AMMOS/synopsis/internal/metadata"
	"github.com/NASA-AMMOS/synopsis/internal/obslog"
	"github.com/NASA-AMMOS/synopsis/internal/rules"
	"github.com/NASA-AMMOS/synopsis/internal/similarity"
)

// Status is the terminal outcome of a Prioritize call.
type Status int

const (
	Success Status = iota
	Failure
	Timeout
)

func (s Status) String() string {
	switch s {
	case Success:
		return "success"
	case Failure:
		return "failure"
	case Timeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Catalogue is the collaborator the planner needs from a data product
// store: enumerate ids and fetch records. Both are assumed atomic from the
// planner's viewpoint and free of concurrent mutation during a call.
type Catalogue interface {
	ListDataProductIDs() ([]int64, error)
	GetDataProduct(id int64) (catalogue.Record, error)
}

// BinReport summarizes one bin's MMR run: how many candidates it started
// with, how many it selected, and why it stopped. Intended for provenance
// logging by callers that care (see internal/provenance); the planner
// itself has no opinion on where reports go.
type BinReport struct {
	Bin            int
	CandidateCount int
	SelectedCount  int
	ExhaustedQueue bool // true if it ran out of candidates; false if no admissible candidate remained
}

// Prioritize snapshots cat, buckets undownlinked data products by priority
// bin, and runs the per-bin greedy MMR selection, concatenating bins in
// ascending order. It never blocks except on the cooperative timer formed
// from clk and timeout, and returns Timeout early if ctx is done.
func Prioritize(
	ctx context.Context,
	cat Catalogue,
	rs *rules.RuleSet,
	sim *similarity.Config,
	clk clock.Clock,
	timeout time.Duration,
	logger obslog.Logger,
) ([]int64, Status) {
	output, status, _ := PrioritizeDetailed(ctx, cat, rs, sim, clk, timeout, logger)
	return output, status
}

// PrioritizeDetailed behaves exactly like Prioritize but additionally
// returns a per-bin report, for callers (e.g. the CLI) that record run
// provenance.
func PrioritizeDetailed(
	ctx context.Context,
	cat Catalogue,
	rs *rules.RuleSet,
	sim *similarity.Config,
	clk clock.Clock,
	timeout time.Duration,
	logger obslog.Logger,
) ([]int64, Status, []BinReport) {
	timer := clock.NewTimer(clk, timeout)
	timer.Start()

	ids, err := cat.ListDataProductIDs()
	if err != nil {
		obslog.Log(logger, obslog.Error, "planner snapshot failed: list ids: %v", err)
		return nil, Failure, nil
	}

	bins := map[int][]metadata.Entry{}
	var binOrder []int
	seenBins := map[int]bool{}

	for _, id := range ids {
		rec, err := cat.GetDataProduct(id)
		if err != nil {
			obslog.Log(logger, obslog.Error, "planner snapshot failed: fetch asdp %d: %v", id, err)
			return nil, Failure, nil
		}
		switch rec.DownlinkState {
		case catalogue.Downlinked:
			continue
		case catalogue.Transmitted:
			// Loaded but intentionally excluded from both MMR selection
			// and the similarity/rule context it builds.
			continue
		}

		bin := rec.PriorityBin
		if !seenBins[bin] {
			seenBins[bin] = true
			binOrder = append(binOrder, bin)
		}
		bins[bin] = append(bins[bin], rec.Entry())
	}

	if timer.IsExpired() || ctxDone(ctx) {
		obslog.Log(logger, obslog.Warn, "planner timed out during snapshot load")
		return nil, Timeout, nil
	}

	sort.Ints(binOrder)

	var output []int64
	var reports []BinReport
	for i, bin := range binOrder {
		if i > 0 && (timer.IsExpired() || ctxDone(ctx)) {
			obslog.Log(logger, obslog.Warn, "planner timed out between bins at bin %d", bin)
			return nil, Timeout, reports
		}
		selected, exhausted := runBin(bin, bins[bin], rs, sim, logger)
		output = append(output, selected...)
		reports = append(reports, BinReport{
			Bin:            bin,
			CandidateCount: len(bins[bin]),
			SelectedCount:  len(selected),
			ExhaustedQueue: exhausted,
		})
	}

	return output, Success, reports
}

// ctxDone reports whether ctx has been canceled or its deadline exceeded.
// A nil context (callers that do not care about cancellation) is never done.
func ctxDone(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// runBin executes the per-bin greedy MMR loop described in the package
// doc: repeatedly probe every remaining candidate's hypothetical marginal
// relative utility, commit the best admissible one (ties broken by lowest
// index in the current remaining order), and stop early once no candidate
// is admissible.
func runBin(bin int, candidates []metadata.Entry, rs *rules.RuleSet, sim *similarity.Config, logger obslog.Logger) ([]int64, bool) {
	remaining := append([]metadata.Entry(nil), candidates...)
	var prioritized []metadata.Entry
	var cumulativeUtility, cumulativeSize float64
	exhausted := true

	for len(remaining) > 0 {
		bestIdx := -1
		var bestRatio, bestSize float64
		found := false

		for i, c := range remaining {
			discount := sim.DiscountFactor(bin, prioritized, c)
			sue := c.Get(metadata.FieldSUE).Numeric()
			finalSUE := discount * sue
			c[metadata.FieldFinalSUE] = metadata.Float(finalSUE)

			size := c.Get(metadata.FieldSize).Numeric()
			candidateUtility := cumulativeUtility + finalSUE
			candidateSize := cumulativeSize + size

			hypothetical := append(append([]metadata.Entry(nil), prioritized...), c)
			admissible, adjustment := rs.Apply(bin, hypothetical)
			if !admissible {
				continue
			}
			candidateUtility += adjustment

			ratio := candidateUtility / candidateSize

			if !found || ratio > bestRatio {
				found = true
				bestIdx = i
				bestRatio = ratio
				bestSize = candidateSize
			}
		}

		if !found {
			obslog.Log(logger, obslog.Info, "bin %d: no admissible candidate remains among %d, stopping early", bin, len(remaining))
			exhausted = false
			break
		}

		winner := remaining[bestIdx]
		prioritized = append(prioritized, winner)
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
		cumulativeUtility += winner.Get(metadata.FieldFinalSUE).Numeric()
		cumulativeSize = bestSize
	}

	result := make([]int64, len(prioritized))
	for i, e := range prioritized {
		result[i] = e.Get(metadata.FieldID).Int64()
	}
	return result, exhausted
}
