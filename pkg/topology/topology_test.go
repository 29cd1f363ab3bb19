package topology

import (
	"testing"

	"github.com/agentlens/agentlens/pkg/graph"
)

func nodes(ids ...string) []graph.Node {
	ns := make([]graph.Node, len(ids))
	for i, id := range ids {
		ns[i] = graph.Node{ID: id}
	}
	return ns
}

func edges(pairs ...[2]string) []graph.Edge {
	es := make([]graph.Edge, len(pairs))
	for i, p := range pairs {
		es[i] = graph.Edge{From: p[0], To: p[1]}
	}
	return es
}

func TestAnalyze_EmptyGraph(t *testing.T) {
	r := Analyze(graph.Graph{})

	if len(r.Nodes) != 0 || len(r.DAGEdges) != 0 || len(r.BackEdges) != 0 {
		t.Errorf("Analyze(empty) produced non-empty topology: %+v", r)
	}
	if len(r.RootIDs) != 0 {
		t.Errorf("RootIDs = %v, want empty", r.RootIDs)
	}
}

func TestAnalyze_SingleNode(t *testing.T) {
	r := Analyze(graph.Graph{Nodes: nodes("a")})

	if len(r.RootIDs) != 1 || r.RootIDs[0] != "a" {
		t.Errorf("RootIDs = %v, want [a]", r.RootIDs)
	}
	if r.Depths["a"] != 0 {
		t.Errorf("Depths[a] = %d, want 0", r.Depths["a"])
	}
}

func TestAnalyze_TriangleCycle(t *testing.T) {
	g := graph.Graph{
		Nodes: nodes("r", "a", "b", "c"),
		Edges: edges([2]string{"r", "a"}, [2]string{"a", "b"}, [2]string{"b", "c"}, [2]string{"c", "a"}),
	}

	r := Analyze(g)

	if len(r.BackEdges) != 1 {
		t.Fatalf("BackEdges = %v, want exactly 1", r.BackEdges)
	}
	if !r.BackEdges[EdgeKey{From: "c", To: "a"}] {
		t.Errorf("back edge = %v, want (c,a)", r.BackEdges)
	}
	if len(r.DAGEdges) != 3 {
		t.Errorf("DAGEdges has %d edges, want 3", len(r.DAGEdges))
	}
	assertAcyclic(t, r)
}

func TestAnalyze_SelfLoop(t *testing.T) {
	g := graph.Graph{
		Nodes: nodes("a"),
		Edges: edges([2]string{"a", "a"}),
	}

	r := Analyze(g)

	if !r.BackEdges[EdgeKey{From: "a", To: "a"}] {
		t.Errorf("self loop not classified as back edge: %v", r.BackEdges)
	}
	if len(r.DAGEdges) != 0 {
		t.Errorf("DAGEdges = %v, want empty", r.DAGEdges)
	}
}

func TestAnalyze_DiamondNoCycle(t *testing.T) {
	//   a
	//  / \
	// b   c
	//  \ /
	//   d
	g := graph.Graph{
		Nodes: nodes("a", "b", "c", "d"),
		Edges: edges([2]string{"a", "b"}, [2]string{"a", "c"}, [2]string{"b", "d"}, [2]string{"c", "d"}),
	}

	r := Analyze(g)

	if len(r.BackEdges) != 0 {
		t.Errorf("BackEdges = %v, want none", r.BackEdges)
	}
	if len(r.DAGEdges) != 4 {
		t.Errorf("DAGEdges has %d edges, want 4", len(r.DAGEdges))
	}
}

func TestAnalyze_RootPriority_UserEntryPointWins(t *testing.T) {
	g := graph.Graph{
		Nodes: []graph.Node{
			{ID: "x", IsUserEntryPoint: true},
			{ID: "y", IsRoot: true},
		},
	}

	r := Analyze(g)

	if len(r.RootIDs) != 1 || r.RootIDs[0] != "x" {
		t.Errorf("RootIDs = %v, want [x]", r.RootIDs)
	}
}

func TestAnalyze_RootPriority_DeclaredRoot(t *testing.T) {
	g := graph.Graph{
		Nodes: []graph.Node{
			{ID: "a"},
			{ID: "b", IsRoot: true},
		},
		Edges: edges([2]string{"b", "a"}),
	}

	r := Analyze(g)

	if len(r.RootIDs) != 1 || r.RootIDs[0] != "b" {
		t.Errorf("RootIDs = %v, want [b]", r.RootIDs)
	}
}

func TestAnalyze_RootPriority_InDegreeZero(t *testing.T) {
	g := graph.Graph{
		Nodes: nodes("a", "b", "c"),
		Edges: edges([2]string{"a", "b"}, [2]string{"c", "b"}),
	}

	r := Analyze(g)

	if len(r.RootIDs) != 2 || r.RootIDs[0] != "a" || r.RootIDs[1] != "c" {
		t.Errorf("RootIDs = %v, want [a c]", r.RootIDs)
	}
}

func TestAnalyze_RootPriority_PureCycleHighestOutDegree(t *testing.T) {
	// Every node sits on a cycle, so nobody has in-degree zero. b fans out
	// to both cycles and must win on out-degree.
	g := graph.Graph{
		Nodes: nodes("a", "b", "c"),
		Edges: edges(
			[2]string{"a", "b"},
			[2]string{"b", "a"},
			[2]string{"b", "c"},
			[2]string{"c", "b"},
		),
	}

	r := Analyze(g)

	if len(r.RootIDs) != 1 || r.RootIDs[0] != "b" {
		t.Errorf("RootIDs = %v, want [b] (highest out-degree)", r.RootIDs)
	}
}

func TestAnalyze_PureCycleTieBreaksOnInputOrder(t *testing.T) {
	g := graph.Graph{
		Nodes: nodes("a", "b"),
		Edges: edges([2]string{"a", "b"}, [2]string{"b", "a"}),
	}

	r := Analyze(g)

	if len(r.RootIDs) != 1 || r.RootIDs[0] != "a" {
		t.Errorf("RootIDs = %v, want [a] (first in input order)", r.RootIDs)
	}
}

func TestAnalyze_DanglingEdgesIgnored(t *testing.T) {
	g := graph.Graph{
		Nodes: nodes("a", "b"),
		Edges: edges([2]string{"a", "ghost"}, [2]string{"ghost", "b"}, [2]string{"a", "b"}),
	}

	r := Analyze(g)

	if len(r.Edges) != 1 {
		t.Fatalf("kept %d edges, want 1 after dropping dangling", len(r.Edges))
	}
	if r.Edges[0].From != "a" || r.Edges[0].To != "b" {
		t.Errorf("surviving edge = %v, want a→b", r.Edges[0])
	}
}

func TestAnalyze_DuplicateNodesFirstWins(t *testing.T) {
	g := graph.Graph{
		Nodes: []graph.Node{
			{ID: "a", Label: "first"},
			{ID: "a", Label: "second"},
		},
	}

	r := Analyze(g)

	if len(r.Nodes) != 1 {
		t.Fatalf("kept %d nodes, want 1", len(r.Nodes))
	}
	n, ok := r.Node("a")
	if !ok || n.Label != "first" {
		t.Errorf("Node(a) = %v, want label %q", n, "first")
	}
}

func TestAnalyze_UnreachableComponentGetsOwnPass(t *testing.T) {
	// Root component r→a, plus an island cycle x→y→x unreachable from r.
	g := graph.Graph{
		Nodes: []graph.Node{
			{ID: "r", IsRoot: true},
			{ID: "a"},
			{ID: "x"},
			{ID: "y"},
		},
		Edges: edges([2]string{"r", "a"}, [2]string{"x", "y"}, [2]string{"y", "x"}),
	}

	r := Analyze(g)

	if len(r.BackEdges) != 1 {
		t.Errorf("island cycle not broken: BackEdges = %v", r.BackEdges)
	}
	if r.Depths["x"] != 0 {
		t.Errorf("Depths[x] = %d, want 0 (fresh pass)", r.Depths["x"])
	}
	assertAcyclic(t, r)
}

func TestAnalyze_ForwardAndCrossEdgesNotBackEdges(t *testing.T) {
	// a→b→c plus a→c (forward edge): no cycle anywhere.
	g := graph.Graph{
		Nodes: nodes("a", "b", "c"),
		Edges: edges([2]string{"a", "b"}, [2]string{"b", "c"}, [2]string{"a", "c"}),
	}

	r := Analyze(g)

	if len(r.BackEdges) != 0 {
		t.Errorf("forward edge misclassified: BackEdges = %v", r.BackEdges)
	}
}

func TestAnalyze_ParallelEdgesClassifiedUniformly(t *testing.T) {
	// b carries two call records to a, so b wins root selection on call
	// volume and the DFS starts there, making a→b the back edge.
	g := graph.Graph{
		Nodes: nodes("a", "b"),
		Edges: []graph.Edge{
			{ID: "e1", From: "a", To: "b"},
			{ID: "e2", From: "b", To: "a"},
			{ID: "e3", From: "b", To: "a"},
		},
	}

	r := Analyze(g)

	if len(r.RootIDs) != 1 || r.RootIDs[0] != "b" {
		t.Fatalf("RootIDs = %v, want [b]", r.RootIDs)
	}
	if !r.BackEdges[EdgeKey{From: "a", To: "b"}] || len(r.BackEdges) != 1 {
		t.Fatalf("BackEdges = %v, want (a,b)", r.BackEdges)
	}
	// Both parallel b→a records share the pair key and stay in the DAG.
	if len(r.DAGEdges) != 2 {
		t.Fatalf("DAGEdges = %v, want both b→a records", r.DAGEdges)
	}
	for _, e := range r.DAGEdges {
		if e.From != "b" || e.To != "a" {
			t.Errorf("DAGEdges contains %v, want only b→a records", e)
		}
	}
}

func TestAnalyze_RootOutDegreeCountsCallRecords(t *testing.T) {
	// No entry points, declared roots, or zero-in-degree nodes: the
	// out-degree fallback counts call records, not distinct callees,
	// so b (three records to one callee) beats a (two callees).
	g := graph.Graph{
		Nodes: nodes("a", "x", "y", "b", "z"),
		Edges: edges(
			[2]string{"a", "x"}, [2]string{"a", "y"}, [2]string{"x", "a"},
			[2]string{"b", "z"}, [2]string{"b", "z"}, [2]string{"b", "z"},
			[2]string{"z", "b"},
		),
	}

	r := Analyze(g)

	if len(r.RootIDs) != 1 || r.RootIDs[0] != "b" {
		t.Errorf("RootIDs = %v, want [b]", r.RootIDs)
	}
}

func TestAnalyze_EndToEndScenario(t *testing.T) {
	// Spec-level scenario: A (root) → B → C → A.
	g := graph.Graph{
		Nodes: []graph.Node{
			{ID: "A", IsRoot: true},
			{ID: "B"},
			{ID: "C"},
		},
		Edges: edges([2]string{"A", "B"}, [2]string{"B", "C"}, [2]string{"C", "A"}),
	}

	r := Analyze(g)

	if len(r.RootIDs) != 1 || r.RootIDs[0] != "A" {
		t.Errorf("RootIDs = %v, want [A]", r.RootIDs)
	}
	if !r.BackEdges[EdgeKey{From: "C", To: "A"}] || len(r.BackEdges) != 1 {
		t.Errorf("BackEdges = %v, want {(C,A)}", r.BackEdges)
	}
	wantDepths := map[string]int{"A": 0, "B": 1, "C": 2}
	for id, want := range wantDepths {
		if r.Depths[id] != want {
			t.Errorf("Depths[%s] = %d, want %d", id, r.Depths[id], want)
		}
	}
	if len(r.DAGEdges) != 2 {
		t.Fatalf("DAGEdges = %v, want [(A,B) (B,C)]", r.DAGEdges)
	}

	vis := r.ResolveVisible(map[string]bool{"A": true, "B": true})
	if len(vis.Nodes) != 3 {
		t.Errorf("visible nodes = %d, want 3", len(vis.Nodes))
	}
	if len(vis.DAGEdges) != 2 {
		t.Errorf("visible DAG edges = %d, want 2", len(vis.DAGEdges))
	}
	if len(vis.BackEdges) != 1 || vis.BackEdges[0].From != "C" {
		t.Errorf("visible back edges = %v, want [(C,A)]", vis.BackEdges)
	}
}

func TestAnalyze_DeepChainDoesNotRecurse(t *testing.T) {
	// 50k-node chain: would overflow a recursive DFS stack on some targets.
	const n = 50000
	g := graph.Graph{Nodes: make([]graph.Node, n), Edges: make([]graph.Edge, n-1)}
	ids := make([]string, n)
	for i := 0; i < n; i++ {
		ids[i] = "n" + itoa(i)
		g.Nodes[i] = graph.Node{ID: ids[i]}
	}
	for i := 0; i < n-1; i++ {
		g.Edges[i] = graph.Edge{From: ids[i], To: ids[i+1]}
	}

	r := Analyze(g)

	if r.Depths[ids[n-1]] != n-1 {
		t.Errorf("Depths[last] = %d, want %d", r.Depths[ids[n-1]], n-1)
	}
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var b [12]byte
	pos := len(b)
	for i > 0 {
		pos--
		b[pos] = byte('0' + i%10)
		i /= 10
	}
	return string(b[pos:])
}

// assertAcyclic verifies the DAG-edge invariant: no cycle survives in
// Edges minus BackEdges.
func assertAcyclic(t *testing.T, r *Result) {
	t.Helper()

	const (
		cWhite = iota
		cGray
		cBlack
	)
	colors := make(map[string]int)
	var visit func(id string) bool
	visit = func(id string) bool {
		colors[id] = cGray
		for _, next := range r.Children(id) {
			switch colors[next] {
			case cGray:
				return false
			case cWhite:
				if !visit(next) {
					return false
				}
			}
		}
		colors[id] = cBlack
		return true
	}
	for _, n := range r.Nodes {
		if colors[n.ID] == cWhite && !visit(n.ID) {
			t.Errorf("DAG edges contain a cycle through %s", n.ID)
			return
		}
	}
}
