//go:build ruleguard

// Package gorules holds the ruleguard checks golangci-lint runs against
// this repository.
package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

// WaitGroupGo flags the Add/Done goroutine pattern; wg.Go covers it.
func WaitGroupGo(m dsl.Matcher) {
	m.Match(
		`$wg.Add(1); go func() { defer $wg.Done(); $*body }()`,
	).
		Where(m["wg"].Type.Is("*sync.WaitGroup") || m["wg"].Type.Is("sync.WaitGroup")).
		Report("use $wg.Go(func() { $body }) instead of Add/Done").
		Suggest("$wg.Go(func() { $body })")
}

// TestingContext flags root contexts in tests. t.Context is cancelled when
// the test ends, which stops goroutines left behind by a failed assertion.
func TestingContext(m dsl.Matcher) {
	m.Match(
		`$ctx := context.Background()`,
		`$ctx := context.TODO()`,
		`$fn(context.Background(), $*args)`,
		`$fn(context.TODO(), $*args)`,
	).
		Where(m.File().Name.Matches(`_test\.go$`)).
		Report("in tests, use t.Context() instead of a root context")
}

// StdLogger flags the standard library logger. Output must go through
// internal/logger so every line carries module and trace_id.
func StdLogger(m dsl.Matcher) {
	m.Import("log")
	m.Match(
		`log.Print($*_)`, `log.Printf($*_)`, `log.Println($*_)`,
		`log.Fatal($*_)`, `log.Fatalf($*_)`, `log.Fatalln($*_)`,
	).
		Where(m.File().Imports("log") && !m.File().Name.Matches(`_test\.go$`)).
		Report("use logger.Global().Module(...) instead of the standard log package")
}

// BareHTTPClient flags http.Client literals outside internal/httpclient so
// outbound calls keep the User-Agent and round-trip logging.
func BareHTTPClient(m dsl.Matcher) {
	m.Match(`&http.Client{$*_}`, `http.Client{$*_}`).
		Where(!m.File().PkgPath.Matches(`internal/httpclient$`) && !m.File().Name.Matches(`_test\.go$`)).
		Report("build clients with httpclient.New")

	m.Match(`http.DefaultClient`).
		Where(!m.File().Name.Matches(`_test\.go$`)).
		Report("build clients with httpclient.New instead of http.DefaultClient")
}

// EchoErrorResponse flags handlers that hand-roll error bodies. Errors go
// through Controller.HandleError so the body shape and correlation_id stay
// consistent.
func EchoErrorResponse(m dsl.Matcher) {
	m.Import("github.com/labstack/echo/v4")
	m.Match(
		`$c.JSON($code, map[string]string{$*_})`,
		`$c.JSON($code, map[string]any{$*_})`,
		`$c.String($code, $_)`,
	).
		Where(m["c"].Type.Is("echo.Context") && m.File().PkgPath.Matches(`internal/api/v1$`)).
		Report("return errors through Controller.HandleError")
}

// TimeSince flags time.Now().Sub(t)
func TimeSince(m dsl.Matcher) {
	m.Match(`time.Now().Sub($t)`).
		Report("use time.Since($t)").
		Suggest("time.Since($t)")
}
