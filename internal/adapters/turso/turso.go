// Package turso speaks the libSQL v3 pipeline HTTP protocol: batches of SQL
// statements POSTed as one JSON request, with per-statement results. The
// protocol is implemented directly so callers get statement-level success
// accounting a connection-oriented driver would hide.
package turso

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	pipelinePath       = "/v3/pipeline"
	defaultHTTPTimeout = 60 * time.Second
)

// Arg is one positional statement argument with explicit wire typing.
// Integers travel as strings per the protocol; floats as JSON numbers.
type Arg struct {
	kind string
	i    int64
	f    float64
	s    string
}

// Integer wraps an integer argument.
func Integer(v int64) Arg { return Arg{kind: "integer", i: v} }

// Float wraps a float argument.
func Float(v float64) Arg { return Arg{kind: "float", f: v} }

// Text wraps a text argument.
func Text(v string) Arg { return Arg{kind: "text", s: v} }

// Null is the SQL null argument.
func Null() Arg { return Arg{kind: "null"} }

// MarshalJSON encodes the argument in pipeline wire form.
func (a Arg) MarshalJSON() ([]byte, error) {
	switch a.kind {
	case "integer":
		return json.Marshal(struct {
			Type  string `json:"type"`
			Value string `json:"value"`
		}{"integer", strconv.FormatInt(a.i, 10)})
	case "float":
		return json.Marshal(struct {
			Type  string  `json:"type"`
			Value float64 `json:"value"`
		}{"float", a.f})
	case "text":
		return json.Marshal(struct {
			Type  string `json:"type"`
			Value string `json:"value"`
		}{"text", a.s})
	default:
		return json.Marshal(struct {
			Type string `json:"type"`
		}{"null"})
	}
}

// Stmt is one parameterized SQL statement.
type Stmt struct {
	SQL  string
	Args []Arg
}

// StmtResult is the outcome of one statement in a pipeline request.
type StmtResult struct {
	OK  bool
	Err string
}

// Client issues pipeline requests against one database.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.client = c
		}
	}
}

// NewClient creates a pipeline client for the given database URL. The
// libsql:// scheme is rewritten to https://, matching how the hosted
// service exposes its HTTP endpoint.
func NewClient(dbURL, token string, opts ...Option) *Client {
	base := strings.TrimSuffix(dbURL, "/")
	if rest, ok := strings.CutPrefix(base, "libsql://"); ok {
		base = "https://" + rest
	}
	c := &Client{
		baseURL: base,
		token:   token,
		client:  &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type wireStmt struct {
	SQL  string `json:"sql"`
	Args []Arg  `json:"args,omitempty"`
}

type wireRequest struct {
	Type string    `json:"type"`
	Stmt *wireStmt `json:"stmt,omitempty"`
}

type wireError struct {
	Message string `json:"message"`
}

type wireResult struct {
	Type  string     `json:"type"`
	Error *wireError `json:"error,omitempty"`
}

type wireResponse struct {
	Results []wireResult `json:"results"`
}

// Exec sends all statements as one pipeline request followed by a close,
// and returns one result per statement. A transport failure or non-200
// response fails every statement; the error describes the request-level
// cause and the per-statement results are still populated.
func (c *Client) Exec(ctx context.Context, stmts []Stmt) ([]StmtResult, error) {
	results := make([]StmtResult, len(stmts))
	if len(stmts) == 0 {
		return results, nil
	}

	reqs := make([]wireRequest, 0, len(stmts)+1)
	for _, s := range stmts {
		st := wireStmt{SQL: s.SQL, Args: s.Args}
		reqs = append(reqs, wireRequest{Type: "execute", Stmt: &st})
	}
	reqs = append(reqs, wireRequest{Type: "close"})

	body, err := json.Marshal(struct {
		Requests []wireRequest `json:"requests"`
	}{reqs})
	if err != nil {
		return failAll(results, err.Error()), fmt.Errorf("encode pipeline request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+pipelinePath, bytes.NewReader(body))
	if err != nil {
		return failAll(results, err.Error()), fmt.Errorf("build pipeline request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return failAll(results, err.Error()), fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg := fmt.Sprintf("status %d", resp.StatusCode)
		return failAll(results, msg), fmt.Errorf("%w: %s", ErrTransport, msg)
	}

	var decoded wireResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return failAll(results, err.Error()), fmt.Errorf("%w: decode: %v", ErrTransport, err)
	}

	for i := range results {
		if i >= len(decoded.Results) {
			results[i] = StmtResult{Err: "missing result"}
			continue
		}
		r := decoded.Results[i]
		if r.Type == "ok" {
			results[i] = StmtResult{OK: true}
			continue
		}
		msg := "statement failed"
		if r.Error != nil && r.Error.Message != "" {
			msg = r.Error.Message
		}
		results[i] = StmtResult{Err: msg}
	}
	return results, nil
}

func failAll(results []StmtResult, msg string) []StmtResult {
	for i := range results {
		results[i] = StmtResult{Err: msg}
	}
	return results
}
