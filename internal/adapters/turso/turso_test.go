package turso

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestArgMarshal(t *testing.T) {
	Convey("Given the wire argument types", t, func() {
		Convey("Integers encode with the value as a string", func() {
			b, err := json.Marshal(Integer(42))
			So(err, ShouldBeNil)
			So(string(b), ShouldEqual, `{"type":"integer","value":"42"}`)
		})

		Convey("Floats encode with a numeric value", func() {
			b, _ := json.Marshal(Float(1.5))
			So(string(b), ShouldEqual, `{"type":"float","value":1.5}`)
		})

		Convey("Text encodes verbatim", func() {
			b, _ := json.Marshal(Text("田中"))
			So(string(b), ShouldEqual, `{"type":"text","value":"田中"}`)
		})

		Convey("Null carries no value", func() {
			b, _ := json.Marshal(Null())
			So(string(b), ShouldEqual, `{"type":"null"}`)
		})
	})
}

func TestNewClient(t *testing.T) {
	Convey("Given database URLs", t, func() {
		Convey("The libsql scheme is rewritten to https", func() {
			c := NewClient("libsql://db.example.turso.io", "tok")
			So(c.baseURL, ShouldEqual, "https://db.example.turso.io")
		})

		Convey("Trailing slashes are trimmed and other schemes pass through", func() {
			c := NewClient("https://db.example.turso.io/", "tok")
			So(c.baseURL, ShouldEqual, "https://db.example.turso.io")
		})
	})
}

func TestExec(t *testing.T) {
	ctx := context.Background()

	Convey("Given a pipeline endpoint", t, func() {
		var gotBody map[string]any
		var gotAuth, gotPath string
		status := http.StatusOK
		respBody := `{"results":[{"type":"ok"},{"type":"error","error":{"message":"UNIQUE constraint failed"}},{"type":"ok"}]}`

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			gotPath = r.URL.Path
			raw, _ := io.ReadAll(r.Body)
			json.Unmarshal(raw, &gotBody)
			w.WriteHeader(status)
			w.Write([]byte(respBody))
		}))
		defer srv.Close()

		client := NewClient(srv.URL, "tok")
		stmts := []Stmt{
			{SQL: "INSERT INTO t VALUES (?)", Args: []Arg{Text("a")}},
			{SQL: "INSERT INTO t VALUES (?)", Args: []Arg{Text("b")}},
		}

		Convey("When the request succeeds", func() {
			results, err := client.Exec(ctx, stmts)

			Convey("Then the request is well formed", func() {
				So(err, ShouldBeNil)
				So(gotAuth, ShouldEqual, "Bearer tok")
				So(gotPath, ShouldEqual, "/v3/pipeline")

				reqs := gotBody["requests"].([]any)
				So(reqs, ShouldHaveLength, 3)
				first := reqs[0].(map[string]any)
				So(first["type"], ShouldEqual, "execute")
				last := reqs[len(reqs)-1].(map[string]any)
				So(last["type"], ShouldEqual, "close")
			})

			Convey("Then per-statement outcomes are reported in order", func() {
				So(results, ShouldHaveLength, 2)
				So(results[0].OK, ShouldBeTrue)
				So(results[1].OK, ShouldBeFalse)
				So(results[1].Err, ShouldEqual, "UNIQUE constraint failed")
			})
		})

		Convey("When the response is a non-200", func() {
			status = http.StatusBadGateway
			results, err := client.Exec(ctx, stmts)

			Convey("Then every statement fails and the error is transport-level", func() {
				So(errors.Is(err, ErrTransport), ShouldBeTrue)
				So(results, ShouldHaveLength, 2)
				So(results[0].OK, ShouldBeFalse)
				So(results[1].OK, ShouldBeFalse)
			})
		})

		Convey("When the response has too few results", func() {
			respBody = `{"results":[{"type":"ok"}]}`
			results, err := client.Exec(ctx, stmts)

			So(err, ShouldBeNil)
			So(results[0].OK, ShouldBeTrue)
			So(results[1].OK, ShouldBeFalse)
		})

		Convey("When the server is unreachable", func() {
			srv.Close()
			results, err := client.Exec(ctx, stmts)

			So(errors.Is(err, ErrTransport), ShouldBeTrue)
			So(results[0].OK, ShouldBeFalse)
		})

		Convey("When no statements are given no request is sent", func() {
			gotPath = ""
			results, err := client.Exec(ctx, nil)

			So(err, ShouldBeNil)
			So(results, ShouldBeEmpty)
			So(gotPath, ShouldBeEmpty)
		})
	})
}
