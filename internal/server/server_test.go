package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/agentlens/agentlens/pkg/cache"
	"github.com/agentlens/agentlens/pkg/graph"
	"github.com/agentlens/agentlens/pkg/pipeline"
	"github.com/agentlens/agentlens/pkg/store"
)

func newTestServer() *Server {
	return New(store.NewMemoryStore(), pipeline.NewRunner(nil, nil, nil), nil)
}

func uploadBody(t *testing.T) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(uploadRequest{
		Name: "trace",
		Graph: graph.Graph{
			Nodes: []graph.Node{
				{ID: "planner", Type: graph.TypeAgent, IsRoot: true},
				{ID: "search", Type: graph.TypeTool},
				{ID: "llm", Type: graph.TypeLLM},
			},
			Edges: []graph.Edge{
				{From: "planner", To: "search"},
				{From: "planner", To: "llm"},
				{From: "llm", To: "planner"},
			},
		},
	})
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	return bytes.NewBuffer(body)
}

func uploadGraph(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	resp, err := http.Post(ts.URL+"/api/graphs", "application/json", uploadBody(t))
	if err != nil {
		t.Fatalf("POST error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST status = %d, want 201", resp.StatusCode)
	}
	var sg store.StoredGraph
	if err := json.NewDecoder(resp.Body).Decode(&sg); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if sg.ID == "" {
		t.Fatal("upload should assign an id")
	}
	return sg.ID
}

func TestGraphRunnerScopesCacheKeys(t *testing.T) {
	s := newTestServer()

	keyA := s.graphRunner("graph-a").Keyer.TopologyKey("hash", cache.TopologyKeyOpts{})
	keyB := s.graphRunner("graph-b").Keyer.TopologyKey("hash", cache.TopologyKeyOpts{})

	if keyA == keyB {
		t.Errorf("cache keys for distinct graphs should differ, both %q", keyA)
	}
	if !strings.HasPrefix(keyA, "graph:graph-a:") {
		t.Errorf("key = %q, want graph:graph-a: prefix", keyA)
	}
}

func TestHealthz(t *testing.T) {
	ts := httptest.NewServer(newTestServer().Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestUploadAndGetGraph(t *testing.T) {
	ts := httptest.NewServer(newTestServer().Router())
	defer ts.Close()

	id := uploadGraph(t, ts)

	resp, err := http.Get(ts.URL + "/api/graphs/" + id)
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET status = %d, want 200", resp.StatusCode)
	}
	var sg store.StoredGraph
	if err := json.NewDecoder(resp.Body).Decode(&sg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(sg.Graph.Nodes) != 3 {
		t.Errorf("nodes = %d, want 3", len(sg.Graph.Nodes))
	}
	// Edge ids are assigned on upload
	for _, e := range sg.Graph.Edges {
		if e.ID == "" {
			t.Error("uploaded edges should carry synthetic ids")
		}
	}
}

func TestUploadRejectsEmptyGraph(t *testing.T) {
	ts := httptest.NewServer(newTestServer().Router())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/graphs", "application/json",
		strings.NewReader(`{"graph":{"nodes":[],"edges":[]}}`))
	if err != nil {
		t.Fatalf("POST error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestGetMissingGraph(t *testing.T) {
	ts := httptest.NewServer(newTestServer().Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/graphs/no-such-id")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestTopologyEndpoint(t *testing.T) {
	ts := httptest.NewServer(newTestServer().Router())
	defer ts.Close()

	id := uploadGraph(t, ts)

	resp, err := http.Get(ts.URL + "/api/graphs/" + id + "/topology")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var topo topologyResponse
	if err := json.NewDecoder(resp.Body).Decode(&topo); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(topo.Roots) != 1 || topo.Roots[0] != "planner" {
		t.Errorf("roots = %v, want [planner]", topo.Roots)
	}
	if len(topo.BackEdges) != 1 || topo.BackEdges[0].From != "llm" {
		t.Errorf("back edges = %v, want [{llm planner}]", topo.BackEdges)
	}
}

func TestRenderEndpoint(t *testing.T) {
	ts := httptest.NewServer(newTestServer().Router())
	defer ts.Close()

	id := uploadGraph(t, ts)

	resp, err := http.Get(ts.URL + "/api/graphs/" + id + "/render?expand_all=true&strategy=grid")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("Content-Type = %q, want image/svg+xml", ct)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "<svg") {
		t.Error("render response should contain SVG markup")
	}
}

func TestLayoutEndpoint(t *testing.T) {
	ts := httptest.NewServer(newTestServer().Router())
	defer ts.Close()

	id := uploadGraph(t, ts)

	resp, err := http.Get(ts.URL + "/api/graphs/" + id + "/layout?expanded=planner&strategy=grid")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	body, _ := io.ReadAll(resp.Body)
	for _, want := range []string{"planner", "search", "llm"} {
		if !strings.Contains(string(body), want) {
			t.Errorf("layout response should mention %q", want)
		}
	}
}

func TestRenderRejectsBadFormat(t *testing.T) {
	ts := httptest.NewServer(newTestServer().Router())
	defer ts.Close()

	id := uploadGraph(t, ts)

	resp, err := http.Get(ts.URL + "/api/graphs/" + id + "/render?format=png")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestDeleteGraph(t *testing.T) {
	ts := httptest.NewServer(newTestServer().Router())
	defer ts.Close()

	id := uploadGraph(t, ts)

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/graphs/"+id, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("DELETE status = %d, want 204", resp.StatusCode)
	}

	getResp, err := http.Get(ts.URL + "/api/graphs/" + id)
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	defer getResp.Body.Close()
	if getResp.StatusCode != http.StatusNotFound {
		t.Errorf("GET after DELETE status = %d, want 404", getResp.StatusCode)
	}
}
