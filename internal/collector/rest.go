package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"PatternScreener/internal/model"
)

// RESTFetcher reads bars from a REST endpoint returning a JSON array of
// objects. Every key other than the timestamp becomes a frame field, so
// providers are free to name their columns however they like.
type RESTFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewRESTFetcher creates a new fetcher with optional proxy support.
func NewRESTFetcher(baseURL, apiKey, proxyURL string) *RESTFetcher {
	return &RESTFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Client:  newHTTPClient(proxyURL),
	}
}

func (f *RESTFetcher) Name() string { return "rest" }

var timeKeys = []string{"timestamp", "time", "date", "datetime"}

func (f *RESTFetcher) FetchFrame(ctx context.Context, symbol string, days int) (model.Frame, error) {
	endpoint := fmt.Sprintf("%s/api/v1/bars/daily?symbol=%s&limit=%d", f.BaseURL, url.QueryEscape(symbol), days)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return model.Frame{}, err
	}
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return model.Frame{}, fmt.Errorf("fetch bars: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return model.Frame{}, fmt.Errorf("fetch bars: status %d, body: %s", resp.StatusCode, string(body))
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	var records []map[string]any
	if err := dec.Decode(&records); err != nil {
		return model.Frame{}, fmt.Errorf("decode bars: %w", err)
	}
	return recordsToFrame(symbol, records)
}

func recordsToFrame(symbol string, records []map[string]any) (model.Frame, error) {
	type row struct {
		t   time.Time
		rec map[string]any
	}
	rows := make([]row, 0, len(records))
	fields := map[string]bool{}
	for i, rec := range records {
		key, raw, ok := findTime(rec)
		if !ok {
			return model.Frame{}, fmt.Errorf("record %d: no timestamp field", i)
		}
		t, err := parseTime(raw)
		if err != nil {
			return model.Frame{}, fmt.Errorf("record %d field %q: %w", i, key, err)
		}
		for name := range rec {
			if name != key {
				fields[name] = true
			}
		}
		rows = append(rows, row{t: t, rec: rec})
	}
	// Ensure chronological order
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].t.Before(rows[j].t) })

	frame := model.Frame{Symbol: symbol, Times: make([]time.Time, len(rows)), Fields: make(map[string][]any, len(fields))}
	for name := range fields {
		frame.Fields[name] = make([]any, len(rows))
	}
	for i, r := range rows {
		frame.Times[i] = r.t
		for name := range fields {
			frame.Fields[name][i] = r.rec[name]
		}
	}
	return frame, nil
}

func findTime(rec map[string]any) (string, any, bool) {
	for _, want := range timeKeys {
		for k, v := range rec {
			if strings.EqualFold(k, want) {
				return k, v, true
			}
		}
	}
	return "", nil, false
}

func parseTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case json.Number:
		sec, err := t.Int64()
		if err != nil {
			return time.Time{}, err
		}
		return time.Unix(sec, 0).UTC(), nil
	case string:
		for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed, nil
			}
		}
		return time.Time{}, fmt.Errorf("unrecognized time %q", t)
	default:
		return time.Time{}, fmt.Errorf("unsupported time value %v (%T)", v, v)
	}
}
