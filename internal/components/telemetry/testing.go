package telemetry

import (
	"strings"
	"sync"
)

// Report is a single call recorded by TestingAPI.
type Report struct {
	Kind   string
	Id     string
	Params []any
	Count  int64
}

// TestingAPI records every report in memory so tests can assert on what a component logged.
// It is safe for concurrent use.
type TestingAPI struct {
	mutex   sync.Mutex
	reports []Report
}

func NewTestingAPI() *TestingAPI {
	return &TestingAPI{}
}

func (t *TestingAPI) record(r Report) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.reports = append(t.reports, r)
}

func (t *TestingAPI) ReportBroken(id string, params ...any) {
	t.record(Report{Kind: "broken", Id: id, Params: params})
}

func (t *TestingAPI) ReportWarning(id string, params ...any) {
	t.record(Report{Kind: "warning", Id: id, Params: params})
}

func (t *TestingAPI) ReportDebug(msg string, params ...any) {
	t.record(Report{Kind: "debug", Id: msg, Params: params})
}

func (t *TestingAPI) ReportCount(id string, count int64) {
	t.record(Report{Kind: "count", Id: id, Count: count})
}

// Reports returns a copy of all reports of the given kind ("broken", "warning", "debug", "count"),
// or every report if kind is empty.
func (t *TestingAPI) Reports(kind string) []Report {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	var out []Report
	for _, r := range t.reports {
		if kind == "" || r.Kind == kind {
			out = append(out, r)
		}
	}
	return out
}

// Has reports whether a report of the given kind exists whose id ends with idSuffix.
func (t *TestingAPI) Has(kind, idSuffix string) bool {
	for _, r := range t.Reports(kind) {
		if strings.HasSuffix(r.Id, idSuffix) {
			return true
		}
	}
	return false
}
