package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/areascope/areascope/internal/application/aggregation"
	"github.com/areascope/areascope/internal/domain/record"
	"github.com/areascope/areascope/internal/domain/studyarea"
	"github.com/areascope/areascope/internal/infrastructure/monitoring/logging"
)

type aggregateOptions struct {
	recordsPath  string
	geometryPath string
	fields       []string
	topFeatures  int
	pretty       bool
}

// newAggregateCommand runs one aggregation offline: records from a JSON file,
// study area from a GeoJSON file, result to stdout.  Useful for pipeline
// debugging without a running server.
func newAggregateCommand() *cobra.Command {
	opts := &aggregateOptions{}

	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Aggregate records inside a study area from local files",
		Example: `  areascope aggregate --records tracts.json --geometry area.geojson
  areascope aggregate --records tracts.json --geometry area.geojson --field strategic_score --field median_income --top 10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAggregate(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.recordsPath, "records", "r", "", "path to a JSON array of located records (required)")
	cmd.Flags().StringVarP(&opts.geometryPath, "geometry", "g", "", "path to a GeoJSON polygon, feature, or feature collection (required)")
	cmd.Flags().StringArrayVarP(&opts.fields, "field", "f", nil, "field to aggregate; repeatable, default all numeric fields")
	cmd.Flags().IntVarP(&opts.topFeatures, "top", "t", 0, "truncate the recombined importance list to the top N entries")
	cmd.Flags().BoolVar(&opts.pretty, "pretty", true, "indent the JSON output")
	_ = cmd.MarkFlagRequired("records")
	_ = cmd.MarkFlagRequired("geometry")

	return cmd
}

func runAggregate(cmd *cobra.Command, opts *aggregateOptions) error {
	records, err := loadRecords(opts.recordsPath)
	if err != nil {
		return err
	}
	area, err := loadStudyArea(opts.geometryPath)
	if err != nil {
		return err
	}
	if err := area.Validate(); err != nil {
		return err
	}

	orch := aggregation.NewOrchestrator(logging.NewNopLogger())
	outcome, err := orch.Aggregate(cmd.Context(), area, records, opts.fields)
	if err != nil {
		return err
	}
	if opts.topFeatures > 0 && outcome.Result != nil && len(outcome.Result.FeatureImportances) > opts.topFeatures {
		outcome.Result.FeatureImportances = outcome.Result.FeatureImportances[:opts.topFeatures]
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	if opts.pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(outcome)
}

func loadRecords(path string) ([]*record.LocatedRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read records file: %w", err)
	}
	var records []*record.LocatedRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode records file %s: %w", path, err)
	}
	return records, nil
}

func loadStudyArea(path string) (*studyarea.StudyArea, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read geometry file: %w", err)
	}
	return studyarea.ParseGeoJSON(data)
}
