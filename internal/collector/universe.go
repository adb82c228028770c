package collector

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// ReadUniverse reads symbols from a comma-separated listing file with a
// header row. Rows are kept when seriesFilter is empty or the "Series" column
// matches it. Duplicates are dropped, first occurrence wins.
func ReadUniverse(path, symbolColumn, seriesFilter string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open universe: %w", err)
	}
	defer f.Close()
	return parseUniverse(f, symbolColumn, seriesFilter)
}

func parseUniverse(r io.Reader, symbolColumn, seriesFilter string) ([]string, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read universe header: %w", err)
	}
	symIdx, seriesIdx := -1, -1
	for i, h := range header {
		switch {
		case strings.EqualFold(strings.TrimSpace(h), symbolColumn):
			symIdx = i
		case strings.EqualFold(strings.TrimSpace(h), "Series"):
			seriesIdx = i
		}
	}
	if symIdx < 0 {
		return nil, fmt.Errorf("universe: column %q not found", symbolColumn)
	}

	seen := map[string]bool{}
	var symbols []string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read universe: %w", err)
		}
		if symIdx >= len(rec) {
			continue
		}
		if seriesFilter != "" && seriesIdx >= 0 &&
			(seriesIdx >= len(rec) || !strings.EqualFold(strings.TrimSpace(rec[seriesIdx]), seriesFilter)) {
			continue
		}
		sym := strings.TrimSpace(rec[symIdx])
		if sym == "" || seen[sym] {
			continue
		}
		seen[sym] = true
		symbols = append(symbols, sym)
	}
	return symbols, nil
}
