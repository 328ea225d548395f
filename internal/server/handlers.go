package server

import (
	stderrors "errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/abid8042/chessnetviz/pkg/buildinfo"
	"github.com/abid8042/chessnetviz/pkg/dataset"
	"github.com/abid8042/chessnetviz/pkg/domain"
	"github.com/abid8042/chessnetviz/pkg/errors"
	"github.com/abid8042/chessnetviz/pkg/graph"
	"github.com/abid8042/chessnetviz/pkg/layout"
	"github.com/abid8042/chessnetviz/pkg/pipeline"
)

// =============================================================================
// Responses
// =============================================================================

type datasetResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Hash        string    `json:"hash"`
	Description string    `json:"description,omitempty"`
	Moves       int       `json:"moves"`
	File        bool      `json:"file"`
	Loaded      time.Time `json:"loaded"`
}

func toDatasetResponse(e *entry) datasetResponse {
	d := e.Source.Dataset
	return datasetResponse{
		ID:          e.ID,
		Name:        e.Source.Name,
		Hash:        e.Source.Hash,
		Description: d.Metadata.Description,
		Moves:       d.Len(),
		File:        e.Path != "",
		Loaded:      e.Loaded,
	}
}

type graphSize struct {
	Nodes int `json:"nodes"`
	Links int `json:"links"`
}

type moveResponse struct {
	Index  int                       `json:"index"`
	Number int                       `json:"number"`
	SAN    string                    `json:"san"`
	FEN    string                    `json:"fen"`
	Label  string                    `json:"label"`
	Scopes map[graph.Scope]graphSize `json:"scopes"`
}

// scopeResponse is one move scope after filtering and sorting. Domains are
// resolved over the visible nodes with the full scope's ranges as
// fallback; Ranges are those full-scope ranges.
type scopeResponse struct {
	Move      int                      `json:"move"`
	Scope     graph.Scope              `json:"scope"`
	Nodes     []graph.Node             `json:"nodes"`
	Links     []graph.Link             `json:"links"`
	Groups    []dataset.Group          `json:"groups"`
	Aggregate dataset.AggregateStats   `json:"aggregate"`
	Domains   map[string]domain.Domain `json:"domains"`
	Ranges    map[string]domain.Range  `json:"ranges"`
	Total     graphSize                `json:"total"`
	Filtered  bool                     `json:"filtered"`
}

type layoutResponse struct {
	Type     graph.LayoutType    `json:"type"`
	Params   []layout.Definition `json:"params"`
	Defaults map[string]float64  `json:"defaults"`
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "datasets": len(s.store.list())})
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, buildinfo.Current())
}

func (s *Server) handleLayouts(w http.ResponseWriter, _ *http.Request) {
	defaults := layout.DefaultParams()
	out := make([]layoutResponse, 0, len(graph.LayoutTypes))
	for _, t := range graph.LayoutTypes {
		out = append(out, layoutResponse{Type: t, Params: layout.Definitions(t), Defaults: defaults.Values(t)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListDatasets(w http.ResponseWriter, _ *http.Request) {
	entries := s.store.list()
	out := make([]datasetResponse, len(entries))
	for i, e := range entries {
		out[i] = toDatasetResponse(e)
	}
	writeJSON(w, http.StatusOK, out)
}

// handleUpload stores the dataset in the request body. The optional name
// query parameter labels it.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	data, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorEnvelope(errors.ErrCodeInvalidInput,
				"dataset exceeds "+strconv.FormatInt(s.cfg.MaxUploadBytes, 10)+" bytes"))
			return
		}
		writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "read body"))
		return
	}

	name := datasetName(r.URL.Query().Get("name"))
	if name == "" || name == "." {
		name = "upload"
	}
	src, err := pipeline.LoadBytes(r.Context(), name, data)
	if err != nil {
		writeError(w, r, err)
		return
	}
	e := s.store.add(src)
	log.FromContext(r.Context()).Info("dataset uploaded", "id", e.ID, "name", name, "moves", src.Dataset.Len())
	w.Header().Set("Location", "/api/v1/datasets/"+e.ID)
	writeJSON(w, http.StatusCreated, toDatasetResponse(e))
}

func (s *Server) handleGetDataset(w http.ResponseWriter, r *http.Request) {
	e, err := s.store.get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDatasetResponse(e))
}

func (s *Server) handleDeleteDataset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.store.remove(id) {
		writeError(w, r, errors.New(errors.ErrCodeNotFound, "dataset %s not found", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMoves(w http.ResponseWriter, r *http.Request) {
	e, err := s.store.get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	d := e.Source.Dataset
	out := make([]moveResponse, d.Len())
	for i := range d.Moves {
		m := &d.Moves[i]
		scopes := make(map[graph.Scope]graphSize, len(graph.Scopes))
		for _, sc := range graph.Scopes {
			if sd := m.Graphs.Scope(sc); sd != nil {
				scopes[sc] = graphSize{Nodes: len(sd.Nodes), Links: len(sd.Links)}
			}
		}
		out[i] = moveResponse{Index: i, Number: m.Number, SAN: m.SAN, FEN: m.FEN, Label: m.Label(), Scopes: scopes}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCaptured(w http.ResponseWriter, r *http.Request) {
	e, idx, err := s.move(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	pieces := dataset.CapturedPieces(e.Source.Dataset.Moves, idx)
	if pieces == nil {
		pieces = []dataset.Piece{}
	}
	writeJSON(w, http.StatusOK, pieces)
}

// handleScope serves one move scope with the query's filters and sort
// applied.
func (s *Server) handleScope(w http.ResponseWriter, r *http.Request) {
	e, idx, err := s.move(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	scope, err := graph.ParseScope(chi.URLParam(r, "scope"))
	if err != nil {
		writeError(w, r, errors.Wrap(errors.ErrCodeInvalidScope, err, "scope"))
		return
	}

	opts, err := s.scopeOptions(r, idx, scope)
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := e.Source.Dataset.Process(idx, scope)
	if err != nil {
		writeError(w, r, err)
		return
	}
	nodes, links := pipeline.Visible(p, &opts)

	resp := scopeResponse{
		Move:      idx,
		Scope:     scope,
		Nodes:     nonNil(nodes),
		Links:     nonNil(links),
		Groups:    nonNil(p.Groups),
		Aggregate: p.Aggregate,
		Domains:   make(map[string]domain.Domain, graph.NumMetrics),
		Ranges:    make(map[string]domain.Range, len(p.Ranges)),
		Total:     graphSize{Nodes: len(p.Nodes), Links: len(p.Links)},
		Filtered:  len(nodes) != len(p.Nodes) || len(links) != len(p.Links),
	}
	for _, k := range graph.MetricKeys() {
		resp.Domains[k.String()] = domain.ForMetric(nodes, k, p.Ranges[k])
		if rg, ok := p.Ranges[k]; ok {
			resp.Ranges[k.String()] = rg
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// Request Parsing
// =============================================================================

// move resolves the dataset and validated move index of the request.
func (s *Server) move(r *http.Request) (*entry, int, error) {
	e, err := s.store.get(chi.URLParam(r, "id"))
	if err != nil {
		return nil, 0, err
	}
	idx, err := strconv.Atoi(chi.URLParam(r, "move"))
	if err != nil {
		return nil, 0, errors.Wrap(errors.ErrCodeInvalidInput, err, "move index")
	}
	if err := errors.ValidateMoveIndex(idx, e.Source.Dataset.Len()); err != nil {
		return nil, 0, err
	}
	return e, idx, nil
}

// scopeOptions builds validated pipeline options from the server defaults
// and the query string:
//
//	search, piece_color, missing, sort   single values
//	piece_type, component, community     integers, repeated or comma-separated
//	metric                               name:lo:hi, repeatable
func (s *Server) scopeOptions(r *http.Request, idx int, scope graph.Scope) (pipeline.Options, error) {
	q := r.URL.Query()
	opts := s.cfg.Defaults
	opts.Move = idx
	opts.Scope = string(scope)
	opts.Logger = log.FromContext(r.Context())

	f := &opts.Filters
	f.Search = q.Get("search")
	f.PieceColor = q.Get("piece_color")
	if v := q.Get("missing"); v != "" {
		f.Missing = v
	}
	if v := q.Get("sort"); v != "" {
		opts.Sort = v
	}

	var err error
	if f.PieceTypes, err = intList(q["piece_type"]); err != nil {
		return opts, err
	}
	if f.Components, err = intList(q["component"]); err != nil {
		return opts, err
	}
	if f.Communities, err = intList(q["community"]); err != nil {
		return opts, err
	}
	if len(q["metric"]) > 0 {
		f.Metrics = make(map[string][2]float64, len(q["metric"]))
		for _, m := range q["metric"] {
			name, lo, hi, err := metricWindow(m)
			if err != nil {
				return opts, err
			}
			f.Metrics[name] = [2]float64{lo, hi}
		}
	}

	if err := opts.ValidateAndSetDefaults(); err != nil {
		return opts, err
	}
	return opts, nil
}

// intList parses repeated and comma-separated integer query values.
func intList(values []string) ([]int, error) {
	var out []int
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			n, err := strconv.Atoi(part)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "integer list")
			}
			out = append(out, n)
		}
	}
	return out, nil
}

// metricWindow parses "name:lo:hi". Reversed bounds are swapped.
func metricWindow(s string) (string, float64, float64, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 || parts[0] == "" {
		return "", 0, 0, errors.New(errors.ErrCodeInvalidInput, "invalid metric window %q (want name:lo:hi)", s)
	}
	lo, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return "", 0, 0, errors.Wrap(errors.ErrCodeInvalidInput, err, "metric window %s", parts[0])
	}
	hi, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return "", 0, 0, errors.Wrap(errors.ErrCodeInvalidInput, err, "metric window %s", parts[0])
	}
	if lo > hi {
		lo, hi = hi, lo
	}
	return parts[0], lo, hi, nil
}

func errorEnvelope(code errors.Code, msg string) errorBody {
	var b errorBody
	b.Error.Code = string(code)
	b.Error.Message = msg
	return b
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
