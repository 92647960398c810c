package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/aidanlsb/ifcq/internal/index"
	"github.com/aidanlsb/ifcq/internal/model"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRegistry() *index.Registry {
	r := index.NewRegistry()
	r.Publish(index.NewSnapshot("house", []model.PropertyTriple{
		model.NewTriple(1, "IfcType", "IFCBEAM", "Element"),
		model.NewTriple(1, "Span", "4.5", "Pset_BeamCommon"),
		model.NewTriple(2, "IfcType", "IFCSLAB", "Element"),
		model.NewTriple(3, "IfcType", "IFCBEAM", "Element"),
		model.NewTriple(3, "Span", "2.4", "Pset_BeamCommon"),
	}))
	r.Publish(index.NewSnapshot("shed", []model.PropertyTriple{
		model.NewTriple(7, "IfcType", "IFCBEAM", "Element"),
	}))
	return r
}

func get(t *testing.T, h http.Handler, target string) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	var body map[string]json.RawMessage
	if strings.HasPrefix(rec.Header().Get("Content-Type"), contentTypeJSON) {
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("GET %s: invalid JSON %q: %v", target, rec.Body.String(), err)
		}
	}
	return rec, body
}

func queryURL(path, q string, extra ...string) string {
	v := url.Values{"q": {q}}
	for i := 0; i+1 < len(extra); i += 2 {
		v.Set(extra[i], extra[i+1])
	}
	return path + "?" + v.Encode()
}

func TestServeModelQuery(t *testing.T) {
	h := New(testRegistry(), Config{Logger: quietLogger()}).Handler()

	tests := []struct {
		name   string
		target string
		status int
		ids    []model.ElementID
	}{
		{
			name:   "single evaluation",
			target: queryURL("/api/models/house/query", "['IfcType' = 'IFCBEAM']"),
			status: http.StatusOK,
			ids:    []model.ElementID{1, 3},
		},
		{
			name:   "and",
			target: queryURL("/api/models/house/query", "['IfcType' = 'IFCBEAM'] AND ['Span' > '3']"),
			status: http.StatusOK,
			ids:    []model.ElementID{1},
		},
		{
			name:   "malformed is lenient by default",
			target: queryURL("/api/models/house/query", "IfcType = IFCBEAM"),
			status: http.StatusOK,
			ids:    []model.ElementID{},
		},
		{
			name:   "malformed with strict",
			target: queryURL("/api/models/house/query", "IfcType = IFCBEAM", "strict", "true"),
			status: http.StatusBadRequest,
		},
		{
			name:   "invalid comparator",
			target: queryURL("/api/models/house/query", "['IfcType' ~ 'IFCBEAM']"),
			status: http.StatusBadRequest,
		},
		{
			name:   "unknown model",
			target: queryURL("/api/models/office/query", "['IfcType' = 'IFCBEAM']"),
			status: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := get(t, h, tt.target)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.status, rec.Body.String())
			}
			if tt.status != http.StatusOK {
				if _, ok := body["error"]; !ok {
					t.Errorf("error body missing: %s", rec.Body.String())
				}
				return
			}
			var res QueryResult
			if err := json.Unmarshal(body["result"], &res); err != nil {
				t.Fatalf("decode result: %v", err)
			}
			if res.Model != "house" || res.Count != len(tt.ids) {
				t.Errorf("result = %+v", res)
			}
			if !reflect.DeepEqual(res.IDs, tt.ids) {
				t.Errorf("ids = %v, want %v", res.IDs, tt.ids)
			}
		})
	}
}

func TestServeModelQueryStrictConfig(t *testing.T) {
	h := New(testRegistry(), Config{Strict: true, Logger: quietLogger()}).Handler()

	rec, _ := get(t, h, queryURL("/api/models/house/query", "'IfcType' = 'IFCBEAM'"))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("strict config: status = %d, want 400", rec.Code)
	}
	rec, _ = get(t, h, queryURL("/api/models/house/query", "'IfcType' = 'IFCBEAM'", "strict", "0"))
	if rec.Code != http.StatusOK {
		t.Errorf("strict=0 override: status = %d, want 200", rec.Code)
	}
}

func TestServeQueryAll(t *testing.T) {
	h := New(testRegistry(), Config{Logger: quietLogger()}).Handler()

	rec, body := get(t, h, queryURL("/api/query", "['IfcType' = 'IFCBEAM']"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var res []QueryResult
	if err := json.Unmarshal(body["result"], &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []QueryResult{
		{Model: "house", Count: 2, IDs: []model.ElementID{1, 3}},
		{Model: "shed", Count: 1, IDs: []model.ElementID{7}},
	}
	if !reflect.DeepEqual(res, want) {
		t.Errorf("results = %+v, want %+v", res, want)
	}
}

func TestServeModels(t *testing.T) {
	h := New(testRegistry(), Config{Logger: quietLogger()}).Handler()

	_, body := get(t, h, "/api/models")
	var res []ModelSummary
	if err := json.Unmarshal(body["result"], &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(res) != 2 {
		t.Fatalf("got %d models, want 2", len(res))
	}
	if res[0].Model != "house" || res[0].Elements != 3 || res[0].Properties != 2 || res[0].Triples != 5 {
		t.Errorf("house summary = %+v", res[0])
	}
	if res[1].Model != "shed" || res[1].Generation != 2 {
		t.Errorf("shed summary = %+v", res[1])
	}
}

func TestServeProperties(t *testing.T) {
	h := New(testRegistry(), Config{Logger: quietLogger()}).Handler()

	_, body := get(t, h, "/api/models/house/properties")
	var summaries []index.PropertySummary
	if err := json.Unmarshal(body["result"], &summaries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []index.PropertySummary{
		{Name: "IfcType", Elements: 3, Values: 2},
		{Name: "Span", Elements: 2, Values: 2},
	}
	if !reflect.DeepEqual(summaries, want) {
		t.Errorf("summaries = %+v", summaries)
	}

	_, body = get(t, h, "/api/models/house/properties?name=Span")
	var values PropertyValues
	if err := json.Unmarshal(body["result"], &values); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if values.Name != "Span" || !reflect.DeepEqual(values.Values, []string{"2.4", "4.5"}) {
		t.Errorf("values = %+v", values)
	}

	if rec, _ := get(t, h, "/api/models/house/properties?name=Colour"); rec.Code != http.StatusNotFound {
		t.Errorf("unknown property: status = %d, want 404", rec.Code)
	}
}

func TestServeElement(t *testing.T) {
	h := New(testRegistry(), Config{Logger: quietLogger()}).Handler()

	rec, body := get(t, h, "/api/models/house/elements/1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var res ElementResult
	if err := json.Unmarshal(body["result"], &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []model.GroupedProperty{
		{Group: "Element", Name: "IfcType", Value: "IFCBEAM"},
		{Group: "Pset_BeamCommon", Name: "Span", Value: "4.5"},
	}
	if res.ID != 1 || !reflect.DeepEqual(res.Properties, want) {
		t.Errorf("element = %+v", res)
	}

	for target, status := range map[string]int{
		"/api/models/house/elements/abc": http.StatusBadRequest,
		"/api/models/house/elements/99":  http.StatusNotFound,
		"/api/models/none/elements/1":    http.StatusNotFound,
	} {
		if rec, _ := get(t, h, target); rec.Code != status {
			t.Errorf("GET %s: status = %d, want %d", target, rec.Code, status)
		}
	}
}

func TestMetrics(t *testing.T) {
	r := testRegistry()
	h := New(r, Config{Logger: quietLogger()}).Handler()
	r.Publish(index.NewSnapshot("garage", []model.PropertyTriple{
		model.NewTriple(11, "IfcType", "IFCDOOR", "Element"),
	}))
	get(t, h, queryURL("/api/models/house/query", "['IfcType' = 'IFCBEAM']"))

	rec, _ := get(t, h, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	out := rec.Body.String()
	for _, want := range []string{
		`ifcq_index_triples{model="garage"} 1`,
		`ifcq_queries_total{outcome="ok"}`,
		"ifcq_query_seconds_count",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestCORS(t *testing.T) {
	h := New(testRegistry(), Config{Logger: quietLogger()}).Handler()

	req := httptest.NewRequest(http.MethodGet, "/api/models", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Allow-Origin = %q", got)
	}
}

func TestServe(t *testing.T) {
	api := New(testRegistry(), Config{Timeout: 5 * time.Second, Logger: quietLogger()})
	ctx, cancel := context.WithCancel(context.Background())

	addrc := make(chan net.Addr, 1)
	errc := make(chan error, 1)
	go func() { errc <- api.Serve(ctx, "127.0.0.1:0", func(a net.Addr) { addrc <- a }) }()

	var addr net.Addr
	select {
	case addr = <-addrc:
	case err := <-errc:
		t.Fatalf("Serve: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start")
	}

	resp, err := http.Get("http://" + addr.String() + "/api/models")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-errc:
		if err != nil {
			t.Errorf("Serve returned %v after cancel", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}
