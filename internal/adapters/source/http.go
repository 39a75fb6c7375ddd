package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/snagasawa/kpisync/internal/domain/model"
)

const defaultHTTPTimeout = 30 * time.Second

// HTTPGrid fetches sheet values from a JSON endpoint with bearer auth.
// The endpoint serves GET <base>/sheets/<name>/values as
// {"values": [[cell, ...], ...]} with cells as JSON scalars.
type HTTPGrid struct {
	base   string
	token  string
	client *http.Client
}

// HTTPOption configures an HTTPGrid.
type HTTPOption func(*HTTPGrid)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(g *HTTPGrid) {
		if c != nil {
			g.client = c
		}
	}
}

// WithToken sets the bearer token sent with every request.
func WithToken(token string) HTTPOption {
	return func(g *HTTPGrid) {
		g.token = token
	}
}

// NewHTTPGrid creates a grid reading from the given base URL.
func NewHTTPGrid(base string, opts ...HTTPOption) *HTTPGrid {
	g := &HTTPGrid{
		base:   base,
		client: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type valuesResponse struct {
	Values [][]json.RawMessage `json:"values"`
}

// Snapshot fetches the full sheet in one request.
func (g *HTTPGrid) Snapshot(ctx context.Context, sheet string) (*Sheet, error) {
	u := fmt.Sprintf("%s/sheets/%s/values", g.base, url.PathEscape(sheet))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrSheetNotFound, sheet)
	default:
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var body valuesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}

	rows := make([][]model.Cell, len(body.Values))
	for i, raw := range body.Values {
		row := make([]model.Cell, len(raw))
		for j, v := range raw {
			row[j] = decodeCell(v)
		}
		rows[i] = row
	}
	return NewSheet(sheet, rows), nil
}

// decodeCell maps a JSON scalar onto the cell union. Objects and arrays are
// not valid cell values and decode as empty.
func decodeCell(raw json.RawMessage) model.Cell {
	if len(raw) == 0 || string(raw) == "null" {
		return model.EmptyCell()
	}
	switch raw[0] {
	case '"':
		var s string
		if json.Unmarshal(raw, &s) != nil {
			return model.EmptyCell()
		}
		return model.StringCell(s)
	case 't', 'f':
		var b bool
		if json.Unmarshal(raw, &b) != nil {
			return model.EmptyCell()
		}
		return model.StringCell(strconv.FormatBool(b))
	case '{', '[':
		return model.EmptyCell()
	default:
		var f float64
		if json.Unmarshal(raw, &f) != nil {
			return model.EmptyCell()
		}
		return model.NumberCell(f)
	}
}
