// Package server exposes model indexes over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aidanlsb/ifcq/internal/index"
	"github.com/aidanlsb/ifcq/internal/model"
	"github.com/aidanlsb/ifcq/internal/query"
)

const contentTypeJSON = "application/json"

// Config controls the HTTP API.
type Config struct {
	// Strict rejects malformed query text with 400 instead of an empty result.
	// A request can opt in with ?strict=1.
	Strict  bool
	Timeout time.Duration
	Logger  *slog.Logger
}

// API serves queries against a registry.
type API struct {
	registry *index.Registry
	config   Config
	logger   *slog.Logger
}

// New returns an API over r. Every snapshot published to r afterwards is
// reflected in the exported metrics.
func New(r *index.Registry, cfg Config) *API {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	for _, s := range r.Snapshots() {
		observeSnapshot(s)
	}
	r.OnPublish(observeSnapshot)
	return &API{registry: r, config: cfg, logger: logger.With("component", "http")}
}

// SuccessWrapper is the body of a successful response.
type SuccessWrapper struct {
	Result interface{} `json:"result"`
}

// ErrorWrapper is the body of a failed response.
type ErrorWrapper struct {
	Error string `json:"error"`
}

func writeResult(w http.ResponseWriter, result interface{}) {
	w.Header().Set("Content-Type", contentTypeJSON)
	_ = json.NewEncoder(w).Encode(SuccessWrapper{result})
}

func jsonResponse(w http.ResponseWriter, code int, err interface{}) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(ErrorWrapper{fmt.Sprint(err)})
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

// LogRequest logs method, path, status and duration of every request.
func (api *API) LogRequest(handler httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, req *http.Request, params httprouter.Params) {
		start := time.Now()
		rw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		handler(rw, req, params)
		api.logger.Info("request",
			"method", req.Method,
			"path", req.URL.Path,
			"status", rw.code,
			"duration", time.Since(start),
		)
	}
}

// CORS allows browser clients on other origins.
func CORS(h httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, req *http.Request, params httprouter.Params) {
		if origin := req.Header.Get("Origin"); origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		}
		h(w, req, params)
	}
}

// Handler returns the router with every route registered.
func (api *API) Handler() http.Handler {
	r := httprouter.New()
	wrap := func(h httprouter.Handle) httprouter.Handle { return CORS(api.LogRequest(h)) }

	r.GET("/api/models", wrap(api.ServeModels))
	r.GET("/api/models/:model/query", wrap(api.ServeModelQuery))
	r.GET("/api/models/:model/properties", wrap(api.ServeProperties))
	r.GET("/api/models/:model/elements/:id", wrap(api.ServeElement))
	r.GET("/api/query", wrap(api.ServeQueryAll))
	r.Handler(http.MethodGet, "/metrics", promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{}))
	return r
}

// ModelSummary describes a published model.
type ModelSummary struct {
	Model      string    `json:"model"`
	Generation uint64    `json:"generation"`
	Elements   int       `json:"elements"`
	Properties int       `json:"properties"`
	Triples    int       `json:"triples"`
	Skipped    int       `json:"skipped"`
	BuiltAt    time.Time `json:"built_at"`
}

// ServeModels lists the published models.
func (api *API) ServeModels(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	snaps := api.registry.Snapshots()
	out := make([]ModelSummary, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, ModelSummary{
			Model:      s.ModelID,
			Generation: s.Generation,
			Elements:   s.ElementCount(),
			Properties: s.Index.Len(),
			Triples:    len(s.Triples),
			Skipped:    s.Stats.Skipped,
			BuiltAt:    s.BuiltAt,
		})
	}
	writeResult(w, out)
}

// QueryResult is the match set of one model.
type QueryResult struct {
	Model      string            `json:"model"`
	Generation uint64            `json:"generation,omitempty"`
	Count      int               `json:"count"`
	IDs        []model.ElementID `json:"ids"`
}

func (api *API) strict(r *http.Request) bool {
	if v := r.URL.Query().Get("strict"); v != "" {
		b, err := strconv.ParseBool(v)
		return err == nil && b
	}
	return api.config.Strict
}

// parse reads the q parameter. Malformed text yields a nil query unless the
// request is strict; the error return is already written to w.
func (api *API) parse(w http.ResponseWriter, r *http.Request) (*query.Query, bool) {
	text := r.URL.Query().Get("q")
	q, err := query.Parse(text)
	switch {
	case err == nil:
		return q, true
	case errors.Is(err, query.ErrMalformed) && !api.strict(r):
		mQueries.WithLabelValues(outcomeMalformed).Inc()
		api.logger.Debug("malformed query", "query", text, "error", err)
		return nil, true
	default:
		mQueries.WithLabelValues(outcomeError).Inc()
		jsonResponse(w, http.StatusBadRequest, err)
		return nil, false
	}
}

// ServeModelQuery evaluates ?q= against one model.
func (api *API) ServeModelQuery(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	snap, err := api.registry.Get(params.ByName("model"))
	if err != nil {
		jsonResponse(w, http.StatusNotFound, err)
		return
	}
	start := time.Now()
	q, ok := api.parse(w, r)
	if !ok {
		return
	}
	ids := query.Evaluate(q, snap.Index).Sorted()
	if q != nil {
		mQueries.WithLabelValues(outcomeOK).Inc()
	}
	mQuerySeconds.Observe(time.Since(start).Seconds())
	mQueryMatches.Observe(float64(len(ids)))

	writeResult(w, QueryResult{Model: snap.ModelID, Generation: snap.Generation, Count: len(ids), IDs: ids})
}

// ServeQueryAll evaluates ?q= against every model.
func (api *API) ServeQueryAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	start := time.Now()
	q, ok := api.parse(w, r)
	if !ok {
		return
	}
	results := query.EvaluateAll(q, api.registry.Indexes())
	if q != nil {
		mQueries.WithLabelValues(outcomeOK).Inc()
	}
	mQuerySeconds.Observe(time.Since(start).Seconds())

	out := make([]QueryResult, 0, len(results))
	for _, res := range results {
		ids := res.IDs.Sorted()
		mQueryMatches.Observe(float64(len(ids)))
		out = append(out, QueryResult{Model: res.ModelID, Count: len(ids), IDs: ids})
	}
	writeResult(w, out)
}

// PropertyValues lists the distinct values of one property.
type PropertyValues struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// ServeProperties lists a model's properties, or the values of ?name=.
func (api *API) ServeProperties(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	snap, err := api.registry.Get(params.ByName("model"))
	if err != nil {
		jsonResponse(w, http.StatusNotFound, err)
		return
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		writeResult(w, snap.Index.Summaries())
		return
	}
	if _, ok := snap.Index.Lookup(name); !ok {
		jsonResponse(w, http.StatusNotFound, fmt.Sprintf("property %q not indexed in %s", name, snap.ModelID))
		return
	}
	writeResult(w, PropertyValues{Name: name, Values: snap.Index.Values(name)})
}

// ElementResult is one element's property listing.
type ElementResult struct {
	Model      string                  `json:"model"`
	ID         model.ElementID         `json:"id"`
	Properties []model.GroupedProperty `json:"properties"`
}

// ServeElement returns the properties of one element.
func (api *API) ServeElement(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	snap, err := api.registry.Get(params.ByName("model"))
	if err != nil {
		jsonResponse(w, http.StatusNotFound, err)
		return
	}
	id, err := model.ParseElementID(params.ByName("id"))
	if err != nil {
		jsonResponse(w, http.StatusBadRequest, fmt.Sprintf("invalid element id %q", params.ByName("id")))
		return
	}
	if _, ok := snap.Elements[id]; !ok {
		jsonResponse(w, http.StatusNotFound, fmt.Sprintf("element %d not found in %s", id, snap.ModelID))
		return
	}
	writeResult(w, ElementResult{Model: snap.ModelID, ID: id, Properties: snap.Elements.Grouped(id)})
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
// ready, if not nil, receives the bound address once listening.
func (api *API) Serve(ctx context.Context, addr string, ready func(net.Addr)) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	srv := &http.Server{
		Handler:      api.Handler(),
		ReadTimeout:  api.config.Timeout,
		WriteTimeout: api.config.Timeout,
		ErrorLog:     slog.NewLogLogger(api.logger.Handler(), slog.LevelError),
	}
	if ready != nil {
		ready(ln.Addr())
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
