// Package report turns raw catalog extracts into per-brand spreadsheet
// artifacts and runs the publish+notify half of the pipeline as a background
// job.
package report

import (
	"fmt"
	"strings"
	"time"
)

// Canonical extract schema. An extract missing every required column is
// unusable; optional columns refine grouping and ordering when present.
var (
	requiredColumns = []string{"Available", "Product", "Brand"}
	optionalColumns = []string{"Category", "Cost"}
)

// Rows with Available above the threshold count as sellable stock.
const availabilityThreshold = 2

const strainColumn = "Strain_Type"

// Row is one catalog line reduced to the canonical columns. Columns absent
// from the source read as zero values.
type Row struct {
	Available  int
	Product    string
	Brand      string
	Category   string
	Cost       string
	StrainType string
}

// Extract is one parsed catalog export.
type Extract struct {
	Path    string
	Columns []string
	Rows    []Row
}

func (e *Extract) HasColumn(name string) bool {
	for _, c := range e.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// BrandReport groups a single brand's rows from one extract. Available rows
// arrive sorted; unavailable rows keep their source order. Cost never
// survives into a report.
type BrandReport struct {
	BrandKey    string
	Columns     []string
	StrainTyped bool
	Available   []Row
	Unavailable []Row
	SourceFile  string
	GeneratedAt time.Time
}

// BuildConfig controls one transformation pass.
type BuildConfig struct {
	// Allowlist restricts the available bucket to these brands. Entries are
	// normalized before matching; empty means every brand.
	Allowlist []string
	// StrainType derives the Strain_Type column from product text.
	StrainType bool
}

// JobConfig is the snapshot a report job runs from, captured at enqueue time.
type JobConfig struct {
	InputDir   string   `json:"input_dir"`
	OutputDir  string   `json:"output_dir"`
	Brands     []string `json:"brands"`
	Recipients []string `json:"recipients"`
	StrainType bool     `json:"strain_type"`
}

// SchemaError marks an extract that has none of the required columns. The
// extract is skipped; the batch continues.
type SchemaError struct {
	Path    string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("extract %s missing required columns %s", e.Path, strings.Join(e.Missing, ", "))
}
