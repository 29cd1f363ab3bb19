package server

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/agentlens/agentlens/pkg/errors"
	"github.com/agentlens/agentlens/pkg/graph"
	"github.com/agentlens/agentlens/pkg/pipeline"
	"github.com/agentlens/agentlens/pkg/store"
	"github.com/agentlens/agentlens/pkg/topology"
)

// uploadRequest is the body of POST /api/graphs.
type uploadRequest struct {
	Name  string      `json:"name,omitempty"`
	Graph graph.Graph `json:"graph"`
}

// handleUploadGraph handles POST /api/graphs.
func (s *Server) handleUploadGraph(w http.ResponseWriter, r *http.Request) {
	var req uploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidGraph, err, "decoding request body"))
		return
	}
	if len(req.Graph.Nodes) == 0 {
		writeError(w, errors.New(errors.ErrCodeInvalidGraph, "graph has no nodes"))
		return
	}
	for _, n := range req.Graph.Nodes {
		if err := errors.ValidateNodeID(n.ID); err != nil {
			writeError(w, err)
			return
		}
		if err := errors.ValidateLabel(n.Label); err != nil {
			writeError(w, err)
			return
		}
	}

	g := req.Graph.Dedup()
	g.EnsureEdgeIDs()

	sg, err := s.store.Put(r.Context(), req.Name, g)
	if err != nil {
		writeError(w, err)
		return
	}
	s.logger.Info("stored graph", "id", sg.ID, "nodes", len(g.Nodes), "edges", len(g.Edges))
	writeJSON(w, http.StatusCreated, sg)
}

// handleListGraphs handles GET /api/graphs.
func (s *Server) handleListGraphs(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, errors.New(errors.ErrCodeInvalidInput, "invalid limit %q", v))
			return
		}
		limit = n
	}

	graphs, err := s.store.List(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"graphs": graphs})
}

// handleGetGraph handles GET /api/graphs/{id}.
func (s *Server) handleGetGraph(w http.ResponseWriter, r *http.Request) {
	sg, err := s.loadGraph(w, r)
	if err != nil {
		return
	}
	writeJSON(w, http.StatusOK, sg)
}

// handleDeleteGraph handles DELETE /api/graphs/{id}.
func (s *Server) handleDeleteGraph(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := errors.ValidateGraphID(id); err != nil {
		writeError(w, err)
		return
	}
	if err := s.store.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// topologyResponse is the body of GET /api/graphs/{id}/topology.
type topologyResponse struct {
	Roots     []string       `json:"roots"`
	Depths    map[string]int `json:"depths"`
	BackEdges []backEdge     `json:"back_edges"`
}

type backEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// handleTopology handles GET /api/graphs/{id}/topology.
func (s *Server) handleTopology(w http.ResponseWriter, r *http.Request) {
	sg, err := s.loadGraph(w, r)
	if err != nil {
		return
	}

	res := topology.Analyze(sg.Graph)
	resp := topologyResponse{
		Roots:     res.RootIDs,
		Depths:    res.Depths,
		BackEdges: []backEdge{},
	}
	for key := range res.BackEdges {
		resp.BackEdges = append(resp.BackEdges, backEdge{From: key.From, To: key.To})
	}
	sort.Slice(resp.BackEdges, func(i, j int) bool {
		if resp.BackEdges[i].From != resp.BackEdges[j].From {
			return resp.BackEdges[i].From < resp.BackEdges[j].From
		}
		return resp.BackEdges[i].To < resp.BackEdges[j].To
	})
	if resp.Roots == nil {
		resp.Roots = []string{}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleRender handles GET /api/graphs/{id}/render.
//
// Query parameters:
//   - expand: comma-separated node ids to expand
//   - expand_all: expand the whole graph
//   - format: svg (default), json, or dot
//   - strategy: graphviz (default) or grid
//   - metrics: include call counts and latencies
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	sg, err := s.loadGraph(w, r)
	if err != nil {
		return
	}

	q := r.URL.Query()
	format := q.Get("format")
	if format == "" {
		format = graph.FormatSVG
	}

	opts := pipeline.Options{
		ExpandAll:   q.Get("expand_all") == "true",
		Strategy:    q.Get("strategy"),
		Direction:   q.Get("direction"),
		ShowMetrics: q.Get("metrics") == "true",
		Formats:     []string{format},
		Logger:      s.logger,
	}
	if expand := q.Get("expand"); expand != "" {
		opts.ExpandIDs = strings.Split(expand, ",")
	}

	result, err := s.graphRunner(sg.ID).Execute(r.Context(), sg.Graph, opts)
	if err != nil {
		writeError(w, err)
		return
	}

	data := result.Artifacts[format]
	switch format {
	case graph.FormatSVG:
		w.Header().Set("Content-Type", "image/svg+xml")
	case graph.FormatJSON:
		w.Header().Set("Content-Type", "application/json")
	default:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleLayout handles GET /api/graphs/{id}/layout.
//
// Returns the visible subgraph with node positions and back-edge arcs as
// JSON. The expanded query parameter lists the disclosed node ids.
func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	sg, err := s.loadGraph(w, r)
	if err != nil {
		return
	}

	q := r.URL.Query()
	opts := pipeline.Options{
		ExpandAll: q.Get("expand_all") == "true",
		Strategy:  q.Get("strategy"),
		Direction: q.Get("direction"),
		Formats:   []string{graph.FormatJSON},
		Logger:    s.logger,
	}
	if expanded := q.Get("expanded"); expanded != "" {
		opts.ExpandIDs = strings.Split(expanded, ",")
	}

	result, err := s.graphRunner(sg.ID).Execute(r.Context(), sg.Graph, opts)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Artifacts[graph.FormatJSON])
}

// loadGraph fetches the stored graph addressed by the {id} URL parameter.
// On failure it writes the error response and returns a non-nil error.
func (s *Server) loadGraph(w http.ResponseWriter, r *http.Request) (*store.StoredGraph, error) {
	id := chi.URLParam(r, "id")
	if err := errors.ValidateGraphID(id); err != nil {
		writeError(w, err)
		return nil, err
	}
	sg, err := s.store.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return nil, err
	}
	return sg, nil
}
