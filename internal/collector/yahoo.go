package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sort"
	"time"

	"PatternScreener/internal/model"
)

const yahooBaseURL = "https://query1.finance.yahoo.com"

// yahooOHLCV are the quote fields a bar needs to be kept.
var yahooOHLCV = map[string]bool{"Open": true, "High": true, "Low": true, "Close": true, "Volume": true}

// YahooFetcher implements Fetcher using Yahoo Finance public API.
type YahooFetcher struct {
	BaseURL   string
	Client    *http.Client
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(proxyURL string) *YahooFetcher {
	return &YahooFetcher{
		BaseURL: yahooBaseURL,
		Client:  newHTTPClient(proxyURL),
		SymbolMap: map[string]string{
			"SPX500": "^GSPC",
			"NIFTY":  "^NSEI",
		},
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []any `json:"open"`
					High   []any `json:"high"`
					Low    []any `json:"low"`
					Close  []any `json:"close"`
					Volume []any `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []any `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// yahooRange picks the smallest chart range that covers the requested days.
func yahooRange(days int) string {
	switch {
	case days <= 30:
		return "1mo"
	case days <= 90:
		return "3mo"
	case days <= 180:
		return "6mo"
	case days <= 365:
		return "1y"
	case days <= 730:
		return "2y"
	default:
		return "5y"
	}
}

// FetchFrame returns daily bars as a raw frame. Values are passed through
// uncoerced; bars where Yahoo reports no prices (holidays) are dropped.
func (f *YahooFetcher) FetchFrame(ctx context.Context, symbol string, days int) (model.Frame, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=%s",
		f.BaseURL, url.PathEscape(f.yahooSymbol(symbol)), yahooRange(days))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return model.Frame{}, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return model.Frame{}, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.Frame{}, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return model.Frame{}, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return model.Frame{}, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return model.Frame{}, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 ||
		len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return model.Frame{}, fmt.Errorf("yahoo: no data returned")
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	cols := map[string][]any{
		"Open":   quote.Open,
		"High":   quote.High,
		"Low":    quote.Low,
		"Close":  quote.Close,
		"Volume": quote.Volume,
	}
	if len(result.Indicators.AdjClose) > 0 {
		cols["Adj Close"] = result.Indicators.AdjClose[0].AdjClose
	}

	type row struct {
		t    time.Time
		vals map[string]any
	}
	rows := make([]row, 0, len(result.Timestamp))
	partial := 0
	for i, ts := range result.Timestamp {
		vals := make(map[string]any, len(cols))
		complete := true
		for name, col := range cols {
			var v any
			if i < len(col) {
				v = col[i]
			}
			if v == nil && yahooOHLCV[name] {
				complete = false
			}
			vals[name] = v
		}
		if !complete {
			// Holidays come back all null; the live bar often lacks volume.
			if vals["Close"] != nil {
				partial++
			}
			continue
		}
		rows = append(rows, row{t: time.Unix(ts, 0).UTC(), vals: vals})
	}
	if partial > 0 {
		log.Printf("[WARN] yahoo %s: dropped %d incomplete bars", symbol, partial)
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].t.Before(rows[j].t) })
	if len(rows) > days && days > 0 {
		rows = rows[len(rows)-days:]
	}

	frame := model.Frame{Symbol: symbol, Times: make([]time.Time, len(rows)), Fields: make(map[string][]any, len(cols))}
	for name := range cols {
		frame.Fields[name] = make([]any, len(rows))
	}
	for i, r := range rows {
		frame.Times[i] = r.t
		for name, v := range r.vals {
			frame.Fields[name][i] = v
		}
	}
	return frame, nil
}
