package main

import (
	"encoding/json"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/NASA-AMMOS/synopsis/internal/catalogue"
	"github.com/NASA-AMMOS/synopsis/internal/provenance"
)

var (
	inspectLast           int
	inspectProvenancePath string
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "List catalogued data products and recent planner runs",
	RunE:  runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().IntVar(&inspectLast, "last", 20, "show N most recent provenance runs")
	inspectCmd.Flags().StringVar(&inspectProvenancePath, "provenance", "", "path to the provenance database (optional)")
}

type catalogueRow struct {
	ID            int64   `json:"id"`
	Instrument    string  `json:"instrument"`
	Type          string  `json:"type"`
	Size          string  `json:"size"`
	SUE           float64 `json:"science_utility_estimate"`
	PriorityBin   int     `json:"priority_bin"`
	DownlinkState string  `json:"downlink_state"`
}

type inspectOutput struct {
	DataProducts []catalogueRow     `json:"data_products"`
	Runs         []provenance.Entry `json:"runs,omitempty"`
}

func runInspect(cmd *cobra.Command, args []string) error {
	if GetDBPath() == "" {
		return fmt.Errorf("--db is required")
	}

	cat, err := catalogue.NewStore(GetDBPath())
	if err != nil {
		return fmt.Errorf("open catalogue: %w", err)
	}
	defer cat.Close()

	ids, err := cat.ListDataProductIDs()
	if err != nil {
		return fmt.Errorf("list data products: %w", err)
	}

	rows := make([]catalogueRow, 0, len(ids))
	for _, id := range ids {
		rec, err := cat.GetDataProduct(id)
		if err != nil {
			return fmt.Errorf("fetch data product %d: %w", id, err)
		}
		rows = append(rows, catalogueRow{
			ID:            rec.ID,
			Instrument:    rec.InstrumentName,
			Type:          rec.Type,
			Size:          humanize.Bytes(uint64(rec.Size)),
			SUE:           rec.ScienceUtilityEstimate,
			PriorityBin:   rec.PriorityBin,
			DownlinkState: rec.DownlinkState.String(),
		})
	}

	var runs []provenance.Entry
	if inspectProvenancePath != "" {
		store, err := provenance.NewStore(inspectProvenancePath)
		if err != nil {
			return fmt.Errorf("open provenance store: %w", err)
		}
		defer store.Close()

		runs, err = store.ListRecent(inspectLast)
		if err != nil {
			return fmt.Errorf("list recent runs: %w", err)
		}
	}

	out := inspectOutput{DataProducts: rows, Runs: runs}

	if GetJSON() {
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal json: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	printCatalogueTable(rows)
	if len(runs) > 0 {
		printRunsTable(runs)
	}
	return nil
}

func printCatalogueTable(rows []catalogueRow) {
	if len(rows) == 0 {
		fmt.Println("no data products in catalogue")
		return
	}
	fmt.Printf("%-6s  %-12s  %-10s  %8s  %6s  %4s  %s\n",
		"ID", "Instrument", "Type", "Size", "SUE", "Bin", "State")
	for _, r := range rows {
		fmt.Printf("%-6d  %-12s  %-10s  %8s  %6.2f  %4d  %s\n",
			r.ID, r.Instrument, r.Type, r.Size, r.SUE, r.PriorityBin, r.DownlinkState)
	}
}

func printRunsTable(runs []provenance.Entry) {
	fmt.Printf("\n%-12s  %-8s  %-26s  %s\n", "Run", "Status", "Started", "Bins")
	for _, r := range runs {
		fmt.Printf("%-12s  %-8s  %-26s  %d\n",
			shortRunID(r.RunID), r.Status, r.StartedAt.Format("2006-01-02T15:04:05Z"), len(r.Bins))
	}
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
