// Package sheets reads product rows from a Google Sheets spreadsheet and
// normalizes them into catalog records.
package sheets

import (
	"context"
	"encoding/base64"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	gsheets "google.golang.org/api/sheets/v4"
	"google.golang.org/api/option"

	"github.com/warungdata/katalog/internal/errs"
	"github.com/warungdata/katalog/internal/model"
)

// Client fetches rows from one spreadsheet using service-account credentials.
// It keeps no row state between calls; caching is the caller's concern.
type Client struct {
	sheetID   string
	readRange string
	keyB64    string

	mu  sync.Mutex
	svc *gsheets.Service
}

// New returns a client for the given spreadsheet, row range and base64-encoded
// service-account key. The remote service is built lazily on first use so a
// misconfigured key surfaces as a per-request error instead of a boot failure.
func New(sheetID, readRange, keyB64 string) *Client {
	return &Client{sheetID: sheetID, readRange: readRange, keyB64: keyB64}
}

// Fetch reads the configured range and maps each row to a ProductRecord.
// Rows that are empty after normalization are dropped. It makes exactly one
// remote call; retry and fallback policy live in the cache layer.
func (c *Client) Fetch(ctx context.Context) ([]model.ProductRecord, error) {
	if c.sheetID == "" {
		return nil, errs.New(errs.CodeUnavailable, "sheet id not configured")
	}
	svc, err := c.service()
	if err != nil {
		return nil, err
	}
	resp, err := svc.Spreadsheets.Values.Get(c.sheetID, c.readRange).
		ValueRenderOption("UNFORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, errs.Wrap(errs.CodeUnavailable, "read sheet values", err)
	}
	records := make([]model.ProductRecord, 0, len(resp.Values))
	for _, row := range resp.Values {
		rec := recordFromRow(row)
		if rec.Empty() {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// Snapshot describes what the reader can currently see in the spreadsheet.
// It backs the diagnostic endpoint and is never cached.
type Snapshot struct {
	SheetID   string          `json:"sheetId"`
	Range     string          `json:"range"`
	Tabs      []string        `json:"tabs"`
	RowCount  int             `json:"rowCount"`
	FirstRows [][]interface{} `json:"firstRows"`
}

// Snapshot fetches tab titles plus the configured range and reports the row
// count and up to the first three raw rows.
func (c *Client) Snapshot(ctx context.Context) (*Snapshot, error) {
	if c.sheetID == "" {
		return nil, errs.New(errs.CodeUnavailable, "sheet id not configured")
	}
	svc, err := c.service()
	if err != nil {
		return nil, err
	}
	meta, err := svc.Spreadsheets.Get(c.sheetID).
		Fields("sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		return nil, errs.Wrap(errs.CodeUnavailable, "read sheet metadata", err)
	}
	tabs := make([]string, 0, len(meta.Sheets))
	for _, s := range meta.Sheets {
		if s.Properties != nil {
			tabs = append(tabs, s.Properties.Title)
		}
	}
	resp, err := svc.Spreadsheets.Values.Get(c.sheetID, c.readRange).
		ValueRenderOption("UNFORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, errs.Wrap(errs.CodeUnavailable, "read sheet values", err)
	}
	first := resp.Values
	if len(first) > 3 {
		first = first[:3]
	}
	return &Snapshot{
		SheetID:   c.sheetID,
		Range:     c.readRange,
		Tabs:      tabs,
		RowCount:  len(resp.Values),
		FirstRows: first,
	}, nil
}

func (c *Client) service() (*gsheets.Service, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.svc != nil {
		return c.svc, nil
	}
	creds, err := normalizeCredentials(c.keyB64)
	if err != nil {
		return nil, err
	}
	// The service and its token source outlive any single request, so they
	// are not tied to a request context.
	svc, err := gsheets.NewService(context.Background(), option.WithCredentialsJSON(creds))
	if err != nil {
		return nil, errs.Wrap(errs.CodeAuth, "create sheets service", err)
	}
	c.svc = svc
	return svc, nil
}

// normalizeCredentials decodes the base64 service-account key and replaces
// literal \n sequences in the private key with real line breaks. Keys pasted
// through env files routinely arrive with the escapes intact.
func normalizeCredentials(b64 string) ([]byte, error) {
	if b64 == "" {
		return nil, errs.New(errs.CodeAuth, "service credentials not configured")
	}
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, errs.Wrap(errs.CodeAuth, "decode service credentials", err)
	}
	var key map[string]interface{}
	if err := json.Unmarshal(raw, &key); err != nil {
		return nil, errs.Wrap(errs.CodeAuth, "parse service credentials", err)
	}
	if pk, ok := key["private_key"].(string); ok {
		key["private_key"] = strings.ReplaceAll(pk, `\n`, "\n")
	}
	out, err := json.Marshal(key)
	if err != nil {
		return nil, errs.Wrap(errs.CodeAuth, "encode service credentials", err)
	}
	return out, nil
}

func recordFromRow(row []interface{}) model.ProductRecord {
	return model.ProductRecord{
		Image:       stringCell(cell(row, 0)),
		Name:        stringCell(cell(row, 1)),
		Price:       parsePrice(cell(row, 2)),
		Description: stringCell(cell(row, 3)),
	}
}

func cell(row []interface{}, i int) interface{} {
	if i >= len(row) {
		return nil
	}
	return row[i]
}

func stringCell(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", s))
	}
}

var priceJunk = regexp.MustCompile(`[^0-9,.\-]`)

// parsePrice keeps numeric cells as-is. String cells are stripped of currency
// symbols and whitespace, comma decimal separators become periods, and
// anything that still fails to parse, or parses negative, becomes 0.
func parsePrice(v interface{}) float64 {
	switch n := v.(type) {
	case nil:
		return 0
	case float64:
		return n
	case int:
		return float64(n)
	case string:
		cleaned := strings.ReplaceAll(priceJunk.ReplaceAllString(n, ""), ",", ".")
		d, err := decimal.NewFromString(cleaned)
		if err != nil || d.IsNegative() {
			return 0
		}
		f, _ := d.Float64()
		return f
	default:
		return 0
	}
}
