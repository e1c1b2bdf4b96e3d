package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// nonSellable marks sample and promo lines that must never reach a report.
var nonSellable = regexp.MustCompile(`(?i)\bsample\b|\bpromo\b`)

// Strain tokens checked against the product text, first match wins.
var strainPatterns = []struct {
	code string
	re   *regexp.Regexp
}{
	{"S", regexp.MustCompile(`\bS\b`)},
	{"H", regexp.MustCompile(`\bH\b`)},
	{"I", regexp.MustCompile(`\bI\b`)},
}

// NormalizeBrand produces the brand key used for grouping, allowlist matching
// and folder naming everywhere in the pipeline.
func NormalizeBrand(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// StrainType classifies a product by the first standalone strain letter found
// in its name. No match is an empty classification, never an error.
func StrainType(product string) string {
	text := " " + strings.ToUpper(product) + " "
	for _, p := range strainPatterns {
		if p.re.MatchString(text) {
			return p.code
		}
	}
	return ""
}

// ParseExtract reads one CSV export, keeping only the canonical columns. An
// extract with none of the required columns yields a SchemaError.
func ParseExtract(path string) (*Extract, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open extract: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read extract header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "﻿")
	}

	index := map[string]int{}
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}

	required := 0
	for _, c := range requiredColumns {
		if _, ok := index[c]; ok {
			required++
		}
	}
	if required == 0 {
		return nil, &SchemaError{Path: path, Missing: requiredColumns}
	}

	var columns []string
	for _, c := range append(append([]string{}, requiredColumns...), optionalColumns...) {
		if _, ok := index[c]; ok {
			columns = append(columns, c)
		}
	}

	extract := &Extract{Path: path, Columns: columns}
	for {
		record, err := r.Read()
		if err != nil {
			break
		}
		field := func(name string) string {
			i, ok := index[name]
			if !ok || i >= len(record) {
				return ""
			}
			return record[i]
		}
		extract.Rows = append(extract.Rows, Row{
			Available: parseAvailable(field("Available")),
			Product:   field("Product"),
			Brand:     field("Brand"),
			Category:  field("Category"),
			Cost:      field("Cost"),
		})
	}
	return extract, nil
}

func parseAvailable(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return 0
}

// BuildReports partitions an extract into availability buckets, groups the
// available side by brand key and returns one report per brand. An extract
// with no brand column or no sellable rows yields an empty map.
func BuildReports(extract *Extract, cfg BuildConfig, at time.Time) map[string]*BrandReport {
	rows := extract.Rows
	if extract.HasColumn("Product") {
		kept := rows[:0:0]
		for _, row := range rows {
			if nonSellable.MatchString(row.Product) {
				continue
			}
			kept = append(kept, row)
		}
		rows = kept
	}

	var available, unavailable []Row
	for _, row := range rows {
		if row.Available > availabilityThreshold {
			available = append(available, row)
		} else {
			unavailable = append(unavailable, row)
		}
	}

	if !extract.HasColumn("Brand") || len(available) == 0 {
		return map[string]*BrandReport{}
	}

	for i := range available {
		available[i].Brand = NormalizeBrand(available[i].Brand)
	}
	for i := range unavailable {
		unavailable[i].Brand = NormalizeBrand(unavailable[i].Brand)
	}

	if len(cfg.Allowlist) > 0 {
		allowed := map[string]struct{}{}
		for _, b := range cfg.Allowlist {
			allowed[NormalizeBrand(b)] = struct{}{}
		}
		kept := available[:0]
		for _, row := range available {
			if _, ok := allowed[row.Brand]; ok {
				kept = append(kept, row)
			}
		}
		available = kept
	}
	if len(available) == 0 {
		return map[string]*BrandReport{}
	}

	strainTyped := cfg.StrainType && extract.HasColumn("Product")
	if strainTyped {
		for i := range available {
			available[i].StrainType = StrainType(available[i].Product)
		}
	}

	sortAvailable(available, extract)

	columns := make([]string, 0, len(extract.Columns))
	for _, c := range extract.Columns {
		if c != "Cost" {
			columns = append(columns, c)
		}
	}

	reports := map[string]*BrandReport{}
	for _, row := range available {
		rep, ok := reports[row.Brand]
		if !ok {
			rep = &BrandReport{
				BrandKey:    row.Brand,
				Columns:     columns,
				StrainTyped: strainTyped,
				SourceFile:  extract.Path,
				GeneratedAt: at,
			}
			reports[row.Brand] = rep
		}
		rep.Available = append(rep.Available, row)
	}
	for _, row := range unavailable {
		if rep, ok := reports[row.Brand]; ok {
			rep.Unavailable = append(rep.Unavailable, row)
		}
	}
	return reports
}

// sortAvailable orders the available bucket by category, numeric cost and
// product name, using whichever of those columns the extract actually has.
// Missing values sort last on every key.
func sortAvailable(rows []Row, extract *Extract) {
	byCategory := extract.HasColumn("Category")
	byCost := extract.HasColumn("Cost")
	byProduct := extract.HasColumn("Product")
	if !byCategory && !byCost && !byProduct {
		return
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if byCategory {
			if c := compareStringsMissingLast(a.Category, b.Category); c != 0 {
				return c < 0
			}
		}
		if byCost {
			if c := compareCosts(a.Cost, b.Cost); c != 0 {
				return c < 0
			}
		}
		if byProduct {
			if c := compareStringsMissingLast(a.Product, b.Product); c != 0 {
				return c < 0
			}
		}
		return false
	})
}

func compareStringsMissingLast(a, b string) int {
	switch {
	case a == "" && b == "":
		return 0
	case a == "":
		return 1
	case b == "":
		return -1
	}
	return strings.Compare(a, b)
}

func compareCosts(a, b string) int {
	av, aok := parseCost(a)
	bv, bok := parseCost(b)
	switch {
	case !aok && !bok:
		return 0
	case !aok:
		return 1
	case !bok:
		return -1
	case av < bv:
		return -1
	case av > bv:
		return 1
	}
	return 0
}

func parseCost(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return v, err == nil
}
