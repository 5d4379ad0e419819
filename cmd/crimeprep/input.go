package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/crimeprep/internal/db"
	"github.com/crimeprep/internal/fetch"
	import_pkg "github.com/crimeprep/internal/import"
	"github.com/crimeprep/internal/records"
)

var errNoInput = errors.New("no input: pass --input or --query with --districts")

// inputFlags selects where incidents come from. Unset flags fall back to the
// configuration.
type inputFlags struct {
	input     string
	encoding  string
	query     string
	districts string

	warehouseOnly bool
}

func (in *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&in.input, "input", "", "CSV export to read")
	cmd.Flags().StringVar(&in.encoding, "encoding", "", "Encoding of the CSV export (utf-8, windows-1252, iso-8859-1)")
	in.registerWarehouse(cmd)
}

func (in *inputFlags) registerWarehouse(cmd *cobra.Command) {
	cmd.Flags().StringVar(&in.query, "query", "", "Warehouse query")
	cmd.Flags().StringVar(&in.districts, "districts", "", "District lookup workbook (.xlsx) joined on community_area")
}

func (in *inputFlags) resolve() {
	if in.warehouseOnly {
		in.input = ""
	} else if in.input == "" && in.query == "" {
		in.input = cfg.Input.Path
	}
	if in.encoding == "" {
		in.encoding = cfg.Input.Encoding
	}
	if in.query == "" {
		in.query = cfg.Warehouse.Query
	}
	if in.districts == "" {
		in.districts = cfg.Districts
	}
}

func (in *inputFlags) load(ctx context.Context) (*records.Frame, error) {
	in.resolve()

	if in.input != "" {
		importer, err := import_pkg.NewCSVImporter(in.encoding, cfg.Pipeline.Verbose)
		if err != nil {
			return nil, err
		}
		frame, _, err := importer.ImportFile(in.input)
		if err != nil {
			return nil, err
		}
		// Portal exports carry community_area only; names come from the workbook.
		if in.districts != "" && frame.HasColumn(records.ColCommunityArea) && !frame.HasColumn(records.ColCommunityName) {
			if _, err := fetch.AttachDistricts(frame, in.districts, cfg.Pipeline.Verbose); err != nil {
				return nil, err
			}
		}
		return frame, nil
	}

	if in.query == "" || in.districts == "" {
		return nil, errNoInput
	}

	conn, err := db.NewConnection(ctx, cfg.Warehouse)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	fetcher := fetch.NewFetcher(fetch.SQLQuerier{DB: conn.DB}, cfg.Pipeline.Verbose)
	return fetcher.Fetch(ctx, in.query, in.districts)
}
