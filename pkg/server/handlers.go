package server

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/treescope/pkg/buildinfo"
	"github.com/matzehuels/treescope/pkg/errors"
	"github.com/matzehuels/treescope/pkg/graph"
	"github.com/matzehuels/treescope/pkg/pipeline"
	"github.com/matzehuels/treescope/pkg/search"
	"github.com/matzehuels/treescope/pkg/tree"
	"github.com/matzehuels/treescope/pkg/value"
)

// =============================================================================
// Request / Response Types
// =============================================================================

type layoutResponse struct {
	GraphID   string           `json:"graph_id"`
	Graph     graph.Document   `json:"graph"`
	Stats     statsResponse    `json:"stats"`
	Cached    bool             `json:"cached"`
	Highlight *resolveResponse `json:"highlight,omitempty"`
}

type statsResponse struct {
	Nodes    int     `json:"nodes"`
	Edges    int     `json:"edges"`
	MaxDepth int     `json:"max_depth"`
	ParseMS  float64 `json:"parse_ms"`
	LayoutMS float64 `json:"layout_ms"`
}

// resolveRequest carries a query and, for /api/resolve, the document.
// Document is either a JSON string holding the raw text (any format) or an
// inline JSON value.
type resolveRequest struct {
	Query    string          `json:"query"`
	Document json.RawMessage `json:"document,omitempty"`
	Format   string          `json:"format,omitempty"`
}

type resolveResponse struct {
	Matched   bool      `json:"matched"`
	Canonical string    `json:"canonical"`
	Node      string    `json:"node,omitempty"`
	Label     string    `json:"label,omitempty"`
	Position  *position `json:"position,omitempty"`
}

type position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": buildinfo.Version,
		"graphs":  s.graphs.len(),
	})
}

// handleLayout builds a graph from the raw request body. The input format
// comes from ?format= or the Content-Type; layout settings from h_gap,
// v_gap, margin and max_depth query parameters.
func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	input, err := s.readBody(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	opts, err := s.layoutOptions(r, input)
	if err != nil {
		s.writeError(w, err)
		return
	}

	res, err := s.runner.Layout(r.Context(), opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	id := s.graphs.put(res.Graph, res.GraphHash)

	out := layoutResponse{
		GraphID: id,
		Graph:   graph.FromTree(res.Graph),
		Stats: statsResponse{
			Nodes:    res.Stats.NodeCount,
			Edges:    res.Stats.EdgeCount,
			MaxDepth: res.Stats.MaxDepth,
			ParseMS:  float64(res.Stats.ParseTime.Microseconds()) / 1000,
			LayoutMS: float64(res.Stats.LayoutTime.Microseconds()) / 1000,
		},
		Cached: res.CacheInfo.LayoutHit,
	}
	if q := r.URL.Query().Get("highlight"); q != "" {
		hl := toResolveResponse(res.Graph, search.Resolve(q, res.Graph))
		out.Highlight = &hl
	}
	writeJSON(w, http.StatusOK, out)
}

// handleResolve builds the posted document and resolves the query against
// it in one call. The graph is not kept.
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeResolve(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	input, format, err := req.document()
	if err != nil {
		s.writeError(w, err)
		return
	}

	opts := s.base
	opts.Input = input
	opts.Format = format
	res, err := s.runner.Layout(r.Context(), opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResolveResponse(res.Graph, search.Resolve(req.Query, res.Graph)))
}

func (s *Server) handleGetGraph(w http.ResponseWriter, r *http.Request) {
	e, err := s.lookup(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, graph.FromTree(e.graph))
}

func (s *Server) handleGraphResolve(w http.ResponseWriter, r *http.Request) {
	e, err := s.lookup(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	req, err := s.decodeResolve(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResolveResponse(e.graph, search.Resolve(req.Query, e.graph)))
}

// handleExport renders a stored graph. ?format= defaults to svg; highlight,
// pixel_ratio and background are passed to the renderer.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	e, err := s.lookup(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	q := r.URL.Query()
	format := q.Get("format")
	if format == "" {
		format = pipeline.FormatSVG
	}
	opts := s.base
	opts.Formats = []string{format}
	opts.Highlight = q.Get("highlight")
	opts.Background = q.Get("background")
	if opts.PixelRatio, err = floatParam(q.Get("pixel_ratio"), "pixel_ratio"); err != nil {
		s.writeError(w, err)
		return
	}

	artifacts, hit, err := s.runner.RenderCached(r.Context(), e.graph, e.hash, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentTypes[format])
	if hit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifacts[format])
}

// =============================================================================
// Helpers
// =============================================================================

var contentTypes = map[string]string{
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatPNG:  "image/png",
	pipeline.FormatDOT:  "text/vnd.graphviz; charset=utf-8",
	pipeline.FormatJSON: "application/json",
}

// lookup finds a stored graph. "current" names the watched document.
func (s *Server) lookup(id string) (entry, error) {
	if id == CurrentGraphID && s.session != nil {
		if g := s.session.Snapshot().Graph; g != nil {
			return entry{graph: g}, nil
		}
		return entry{}, errors.New(errors.ErrCodeGraphNotFound, "watched document has not loaded yet")
	}
	if e, ok := s.graphs.get(id); ok {
		return e, nil
	}
	return entry{}, errors.New(errors.ErrCodeGraphNotFound, "graph %q not found", id)
}

func (s *Server) inputLimit() int64 {
	if s.base.MaxInputBytes > 0 {
		return s.base.MaxInputBytes
	}
	return errors.MaxInputBytes
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	limit := s.inputLimit()
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var tooBig *http.MaxBytesError
		if stderrors.As(err, &tooBig) {
			return nil, errors.New(errors.ErrCodeTooLarge, "document too large (max %d bytes)", limit)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read request body")
	}
	return data, nil
}

func (s *Server) decodeResolve(w http.ResponseWriter, r *http.Request) (resolveRequest, error) {
	var req resolveRequest
	body, err := s.readBody(w, r)
	if err != nil {
		return req, err
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return req, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body")
	}
	return req, nil
}

// document returns the request document as raw text plus its format.
func (req resolveRequest) document() ([]byte, string, error) {
	raw := bytes.TrimSpace(req.Document)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, "", errors.New(errors.ErrCodeInvalidInput, "document is required")
	}
	if raw[0] == '"' {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil, "", errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid document string")
		}
		return []byte(text), req.Format, nil
	}
	// Inline JSON values are always JSON.
	return raw, string(value.FormatJSON), nil
}

func (s *Server) layoutOptions(r *http.Request, input []byte) (pipeline.Options, error) {
	q := r.URL.Query()
	opts := s.base
	opts.Input = input
	opts.Source = q.Get("source")
	opts.Refresh = q.Get("refresh") == "true"
	opts.Format = q.Get("format")
	if opts.Format == "" {
		opts.Format = formatFromContentType(r.Header.Get("Content-Type"))
	}

	var err error
	for name, dst := range map[string]*float64{"h_gap": &opts.HGap, "v_gap": &opts.VGap, "margin": &opts.Margin} {
		if v := q.Get(name); v != "" {
			if *dst, err = floatParam(v, name); err != nil {
				return opts, err
			}
		}
	}
	if v := q.Get("max_depth"); v != "" {
		if opts.MaxDepth, err = strconv.Atoi(v); err != nil {
			return opts, errors.New(errors.ErrCodeInvalidInput, "max_depth: %q is not an integer", v)
		}
	}
	return opts, nil
}

func floatParam(v, name string) (float64, error) {
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errors.New(errors.ErrCodeInvalidInput, "%s: %q is not a number", name, v)
	}
	return f, nil
}

func formatFromContentType(ct string) string {
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return ""
	}
	switch mt {
	case "application/yaml", "application/x-yaml", "text/yaml":
		return string(value.FormatYAML)
	case "application/toml", "text/toml":
		return string(value.FormatTOML)
	}
	return ""
}

func toResolveResponse(g *tree.Graph, res search.Result) resolveResponse {
	out := resolveResponse{Matched: res.Matched, Canonical: res.Canonical, Node: res.Node()}
	if n, ok := g.Node(res.NodeID); ok && res.Matched {
		out.Label = n.Label
		out.Position = &position{X: n.Position.X, Y: n.Position.Y}
	}
	return out
}

// writeError maps err to a status via its error code. Parser failures are
// reported with the parser's own message.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	var pe *value.ParseError
	if stderrors.As(err, &pe) {
		code = errors.ErrCodeParseFailed
	}
	if code == "" {
		code = errors.ErrCodeInternal
	}
	status := errors.HTTPStatus(code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "code", code, "error", err)
	}
	writeJSON(w, status, errorResponse{Error: errorBody{Code: code, Message: errors.UserMessage(err)}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
