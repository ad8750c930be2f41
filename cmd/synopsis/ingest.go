package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/NASA-AMMOS/synopsis/internal/catalogue"
	"github.com/NASA-AMMOS/synopsis/internal/ingest"
	"github.com/NASA-AMMOS/synopsis/internal/obslog"
)

var (
	ingestInstrument  string
	ingestType        string
	ingestURI         string
	ingestMetadataURI string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Submit a data product to the catalogue through a passthrough ASDS",
	RunE:  runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().StringVar(&ingestInstrument, "instrument", "", "instrument name that produced the data product")
	ingestCmd.Flags().StringVar(&ingestType, "type", "", "data product type")
	ingestCmd.Flags().StringVar(&ingestURI, "uri", "", "path to the data product file")
	ingestCmd.Flags().StringVar(&ingestMetadataURI, "metadata", "", "path to the sidecar metadata JSON file (optional)")
	ingestCmd.MarkFlagRequired("instrument")
	ingestCmd.MarkFlagRequired("type")
	ingestCmd.MarkFlagRequired("uri")
}

func runIngest(cmd *cobra.Command, args []string) error {
	if GetDBPath() == "" {
		return fmt.Errorf("--db is required")
	}

	logger := obslog.NewStd()
	cat, err := catalogue.NewStore(GetDBPath())
	if err != nil {
		return fmt.Errorf("open catalogue: %w", err)
	}
	defer cat.Close()

	asds := ingest.NewPassthroughASDS(cat, logger)
	msg := ingest.DataProductMessage{
		InstrumentName: ingestInstrument,
		Type:           ingestType,
		URI:            ingestURI,
		UseMetadata:    ingestMetadataURI != "",
		MetadataURI:    ingestMetadataURI,
	}

	id, err := asds.ProcessDataProduct(msg)
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}

	if GetJSON() {
		fmt.Printf("{\"id\": %d}\n", id)
		return nil
	}
	fmt.Printf("ingested data product %d\n", id)
	return nil
}
