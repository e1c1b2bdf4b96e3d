package report

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	allColumns = []string{"Available", "Product", "Brand", "Category", "Cost"}
	buildAt    = time.Date(2025, 3, 7, 9, 0, 0, 0, time.UTC)
)

func extractOf(columns []string, rows ...Row) *Extract {
	return &Extract{Path: "data/03-07-2025_DT.csv", Columns: columns, Rows: rows}
}

func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseExtractCanonicalColumns(t *testing.T) {
	path := writeCSV(t, "03-07-2025_DT.csv",
		"SKU,Available,Product,Brand,Category,Cost,Location\n"+
			"123,5,Widget,Acme,Tools,10,Aisle 4\n"+
			"124,1,Gadget,Other,Tools,5,Aisle 2\n")

	extract, err := ParseExtract(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"Available", "Product", "Brand", "Category", "Cost"}, extract.Columns)
	require.Len(t, extract.Rows, 2)
	assert.Equal(t, Row{Available: 5, Product: "Widget", Brand: "Acme", Category: "Tools", Cost: "10"}, extract.Rows[0])
	assert.Equal(t, 1, extract.Rows[1].Available)
}

func TestParseExtractSchemaError(t *testing.T) {
	path := writeCSV(t, "bad.csv", "SKU,Price\n1,2\n")

	_, err := ParseExtract(path)
	require.Error(t, err)

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, path, schemaErr.Path)
	assert.Equal(t, []string{"Available", "Product", "Brand"}, schemaErr.Missing)
}

func TestParseExtractPartialSchema(t *testing.T) {
	// One required column is enough to keep the extract.
	path := writeCSV(t, "partial.csv", "Product,Brand\nWidget,Acme\n")

	extract, err := ParseExtract(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Product", "Brand"}, extract.Columns)
	assert.Equal(t, 0, extract.Rows[0].Available)
}

func TestParseExtractNonNumericAvailable(t *testing.T) {
	path := writeCSV(t, "odd.csv", "Available,Product,Brand\nn/a,Widget,Acme\n3.0,Gadget,Acme\n")

	extract, err := ParseExtract(path)
	require.NoError(t, err)
	assert.Equal(t, 0, extract.Rows[0].Available)
	assert.Equal(t, 3, extract.Rows[1].Available)
}

func TestBuildReportsPartitionBoundary(t *testing.T) {
	extract := extractOf(allColumns,
		Row{Available: 3, Product: "Over", Brand: "Acme", Category: "Tools", Cost: "1"},
		Row{Available: 2, Product: "At", Brand: "Acme", Category: "Tools", Cost: "1"},
		Row{Available: 0, Product: "Under", Brand: "Acme", Category: "Tools", Cost: "1"},
	)

	reports := BuildReports(extract, BuildConfig{}, buildAt)
	require.Contains(t, reports, "acme")

	rep := reports["acme"]
	require.Len(t, rep.Available, 1)
	assert.Equal(t, "Over", rep.Available[0].Product)
	require.Len(t, rep.Unavailable, 2)
	assert.Equal(t, "At", rep.Unavailable[0].Product)
	assert.Equal(t, "Under", rep.Unavailable[1].Product)
}

func TestBuildReportsDropsSampleAndPromo(t *testing.T) {
	extract := extractOf(allColumns,
		Row{Available: 5, Product: "Widget", Brand: "Acme"},
		Row{Available: 5, Product: "Sample Widget", Brand: "Acme"},
		Row{Available: 5, Product: "PROMO pack", Brand: "Acme"},
		Row{Available: 1, Product: "promo leftover", Brand: "Acme"},
		Row{Available: 5, Product: "Sampler Set", Brand: "Acme"},
		Row{Available: 5, Product: "Promotion Deluxe", Brand: "Acme"},
	)

	reports := BuildReports(extract, BuildConfig{}, buildAt)
	rep := reports["acme"]
	require.NotNil(t, rep)

	var products []string
	for _, r := range rep.Available {
		products = append(products, r.Product)
	}
	// Word-boundary match: "Sampler" and "Promotion" survive.
	assert.ElementsMatch(t, []string{"Widget", "Sampler Set", "Promotion Deluxe"}, products)
	assert.Empty(t, rep.Unavailable)
}

func TestBuildReportsWidgetScenario(t *testing.T) {
	extract := extractOf(allColumns,
		Row{Available: 5, Product: "Widget", Brand: " Acme ", Category: "Tools", Cost: "10"},
		Row{Available: 1, Product: "Sample Widget", Brand: "Acme", Category: "Tools", Cost: "5"},
	)

	reports := BuildReports(extract, BuildConfig{}, buildAt)
	require.Len(t, reports, 1)

	rep := reports["acme"]
	require.NotNil(t, rep)
	require.Len(t, rep.Available, 1)
	assert.Equal(t, "Widget", rep.Available[0].Product)
	assert.Equal(t, "acme", rep.Available[0].Brand)
	assert.Empty(t, rep.Unavailable)
	assert.NotContains(t, rep.Columns, "Cost")
	assert.Equal(t, []string{"Available", "Product", "Brand", "Category"}, rep.Columns)
}

func TestBuildReportsAllowlist(t *testing.T) {
	extract := extractOf(allColumns,
		Row{Available: 5, Product: "Widget", Brand: "acme"},
		Row{Available: 1, Product: "Old Widget", Brand: "ACME"},
		Row{Available: 5, Product: "Thing", Brand: "other"},
		Row{Available: 1, Product: "Old Thing", Brand: "other"},
	)

	reports := BuildReports(extract, BuildConfig{Allowlist: []string{" Acme "}}, buildAt)
	require.Len(t, reports, 1)

	rep := reports["acme"]
	require.NotNil(t, rep)
	require.Len(t, rep.Available, 1)
	// The brand's unavailable rows ride along even though only the
	// available bucket is allowlist-filtered.
	require.Len(t, rep.Unavailable, 1)
	assert.Equal(t, "Old Widget", rep.Unavailable[0].Product)
	assert.NotContains(t, reports, "other")
}

func TestBuildReportsNoBrandColumn(t *testing.T) {
	extract := extractOf([]string{"Available", "Product"},
		Row{Available: 5, Product: "Widget"},
	)
	assert.Empty(t, BuildReports(extract, BuildConfig{}, buildAt))
}

func TestBuildReportsNothingAvailable(t *testing.T) {
	extract := extractOf(allColumns,
		Row{Available: 1, Product: "Widget", Brand: "Acme"},
		Row{Available: 2, Product: "Gadget", Brand: "Acme"},
	)
	assert.Empty(t, BuildReports(extract, BuildConfig{}, buildAt))
}

func TestStrainTypePrecedence(t *testing.T) {
	assert.Equal(t, "S", StrainType("Blue Dream S 3.5g"))
	assert.Equal(t, "H", StrainType("Wedding Cake H"))
	assert.Equal(t, "I", StrainType("Purple Punch I 1g"))
	// S wins over H when both tokens appear.
	assert.Equal(t, "S", StrainType("H then S"))
	// Letters inside words do not count.
	assert.Equal(t, "", StrainType("SOUR HAZE"))
	assert.Equal(t, "", StrainType(""))
}

func TestBuildReportsStrainColumn(t *testing.T) {
	extract := extractOf(allColumns,
		Row{Available: 5, Product: "Blue Dream S", Brand: "Acme"},
	)

	typed := BuildReports(extract, BuildConfig{StrainType: true}, buildAt)
	assert.Equal(t, "S", typed["acme"].Available[0].StrainType)
	assert.True(t, typed["acme"].StrainTyped)

	plain := BuildReports(extract, BuildConfig{}, buildAt)
	assert.Equal(t, "", plain["acme"].Available[0].StrainType)
	assert.False(t, plain["acme"].StrainTyped)
}

func TestSortAvailable(t *testing.T) {
	extract := extractOf(allColumns,
		Row{Available: 5, Product: "B", Brand: "acme", Category: "Tools", Cost: "10"},
		Row{Available: 5, Product: "A", Brand: "acme", Category: "Tools", Cost: "9.5"},
		Row{Available: 5, Product: "C", Brand: "acme", Category: "Tools", Cost: "n/a"},
		Row{Available: 5, Product: "D", Brand: "acme", Category: "Apparel", Cost: "99"},
		Row{Available: 5, Product: "E", Brand: "acme", Category: "", Cost: "1"},
	)

	rep := BuildReports(extract, BuildConfig{}, buildAt)["acme"]
	require.NotNil(t, rep)

	var products []string
	for _, r := range rep.Available {
		products = append(products, r.Product)
	}
	// Category first (empty last), then numeric cost with non-numeric last,
	// then product.
	assert.Equal(t, []string{"D", "A", "B", "C", "E"}, products)
}

func TestSortKeysDegrade(t *testing.T) {
	extract := extractOf([]string{"Available", "Product", "Brand"},
		Row{Available: 5, Product: "Zeta", Brand: "acme"},
		Row{Available: 5, Product: "Alpha", Brand: "acme"},
	)

	rep := BuildReports(extract, BuildConfig{}, buildAt)["acme"]
	require.NotNil(t, rep)
	assert.Equal(t, "Alpha", rep.Available[0].Product)
	assert.Equal(t, "Zeta", rep.Available[1].Product)
}

func TestBuildReportsLeavesExtractUntouched(t *testing.T) {
	extract := extractOf(allColumns,
		Row{Available: 5, Product: "Widget", Brand: " Acme "},
	)
	_ = BuildReports(extract, BuildConfig{}, buildAt)
	assert.Equal(t, " Acme ", extract.Rows[0].Brand)
}

func TestArtifactName(t *testing.T) {
	at := time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "DT_acme_03-07-2025.xlsx", ArtifactName("data/03-07-2025_DT.csv", "acme", at))
	assert.Equal(t, "UNK_acme_03-07-2025.xlsx", ArtifactName("data/export.csv", "acme", at))
}

func TestNormalizeBrand(t *testing.T) {
	assert.Equal(t, "acme", NormalizeBrand("  ACME  "))
	assert.Equal(t, "", NormalizeBrand("   "))
}

func TestScanBrands(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.csv"),
		[]byte("Available,Product,Brand\n5,Widget, ACME \n1,Thing,other\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.csv"),
		[]byte("Available,Product,Brand\n2,Gadget,acme\n3,Box,Zeta\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nobrand.csv"),
		[]byte("Available,Product\n2,Gadget\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore"), 0o644))

	brands, err := ScanBrands(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"acme", "other", "zeta"}, brands)
}

func TestScanBrandsMissingDir(t *testing.T) {
	_, err := ScanBrands(filepath.Join(t.TempDir(), "absent"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
