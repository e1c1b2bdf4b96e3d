package report

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ScanBrands collects the sorted set of normalized brand keys found across
// every CSV in dir. Unreadable extracts and extracts without a Brand column
// are skipped silently; the result is what an operator can filter on.
func ScanBrands(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	seen := map[string]struct{}{}
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		extract, err := ParseExtract(filepath.Join(dir, e.Name()))
		if err != nil || !extract.HasColumn("Brand") {
			continue
		}
		for _, row := range extract.Rows {
			if key := NormalizeBrand(row.Brand); key != "" {
				seen[key] = struct{}{}
			}
		}
	}

	brands := make([]string, 0, len(seen))
	for b := range seen {
		brands = append(brands, b)
	}
	sort.Strings(brands)
	return brands, nil
}
