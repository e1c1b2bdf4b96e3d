package report

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func testReport() *BrandReport {
	return &BrandReport{
		BrandKey:    "acme",
		Columns:     []string{"Available", "Product", "Brand", "Category"},
		StrainTyped: true,
		Available: []Row{
			{Available: 3, Product: "Punch Gummies I", Brand: "acme", Category: "Edibles", StrainType: "I"},
			{Available: 5, Product: "Blue Dream S", Brand: "acme", Category: "Flower", StrainType: "S"},
			{Available: 7, Product: "Wedding Cake H", Brand: "acme", Category: "Flower", StrainType: "H"},
		},
		Unavailable: []Row{
			{Available: 1, Product: "Old Widget", Brand: "acme", Category: "Flower"},
		},
		SourceFile:  "data/03-07-2025_DT.csv",
		GeneratedAt: time.Date(2025, 3, 7, 9, 0, 0, 0, time.UTC),
	}
}

func TestWriteArtifactRoundTrip(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "reports")

	path, err := WriteArtifact(testReport(), outDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(outDir, "DT_acme_03-07-2025.xlsx"), path)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Available", "Unavailable"}, f.GetSheetList())

	available, err := f.GetRows("Available")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Available", "Product", "Brand", "Category", "Strain_Type"},
		{"Edibles"},
		{"3", "Punch Gummies I", "acme", "Edibles", "I"},
		{"Flower"},
		{"5", "Blue Dream S", "acme", "Flower", "S"},
		{"7", "Wedding Cake H", "acme", "Flower", "H"},
	}, available)

	unavailable, err := f.GetRows("Unavailable")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Available", "Product", "Brand", "Category"},
		{"Flower"},
		{"1", "Old Widget", "acme", "Flower"},
	}, unavailable)
}

func TestWriteArtifactRepeatedCategoryLabels(t *testing.T) {
	rep := testReport()
	rep.StrainTyped = false
	rep.Unavailable = nil
	// Unsorted input: every category change starts a new labelled block, even
	// when the value was seen before.
	rep.Available = []Row{
		{Available: 3, Product: "Drill", Brand: "acme", Category: "Tools"},
		{Available: 4, Product: "Cap", Brand: "acme", Category: "Apparel"},
		{Available: 5, Product: "Hammer", Brand: "acme", Category: "Tools"},
	}

	path, err := WriteArtifact(rep, t.TempDir())
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Available")
	require.NoError(t, err)
	require.Len(t, rows, 7)

	var labels []string
	for _, row := range rows[1:] {
		if len(row) == 1 {
			labels = append(labels, row[0])
		}
	}
	assert.Equal(t, []string{"Tools", "Apparel", "Tools"}, labels)
}

func TestWriteArtifactSkipsEmptyUnavailable(t *testing.T) {
	rep := testReport()
	rep.Unavailable = nil

	path, err := WriteArtifact(rep, t.TempDir())
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Available"}, f.GetSheetList())
}

func TestWriteArtifactWithoutCategoryColumn(t *testing.T) {
	rep := testReport()
	rep.StrainTyped = false
	rep.Columns = []string{"Available", "Product", "Brand"}
	rep.Available = []Row{
		{Available: 3, Product: "Drill", Brand: "acme"},
		{Available: 4, Product: "Hammer", Brand: "acme"},
	}
	rep.Unavailable = nil

	path, err := WriteArtifact(rep, t.TempDir())
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Available")
	require.NoError(t, err)
	// Header plus data only, no label rows.
	assert.Equal(t, [][]string{
		{"Available", "Product", "Brand"},
		{"3", "Drill", "acme"},
		{"4", "Hammer", "acme"},
	}, rows)
}

func TestWriteArtifactFreezesHeader(t *testing.T) {
	path, err := WriteArtifact(testReport(), t.TempDir())
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	for _, sheet := range f.GetSheetList() {
		panes, err := f.GetPanes(sheet)
		require.NoError(t, err)
		assert.True(t, panes.Freeze, sheet)
		assert.Equal(t, 1, panes.YSplit, sheet)
		assert.Equal(t, "A2", panes.TopLeftCell, sheet)
	}
}
