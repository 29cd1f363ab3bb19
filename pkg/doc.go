// Package pkg provides the core libraries for AgentLens call-graph visualization.
//
// # Overview
//
// AgentLens turns recorded agent execution traces into interactive call-graph
// visualizations. Cycles are common in agent systems (an LLM calling back into
// its planner, tools re-invoking sub-agents), so the analysis separates the
// acyclic call structure from the back edges that close cycles. The pkg
// directory is organized into these areas:
//
//  1. [graph] - Serialization types for execution graphs
//  2. [topology] - Cycle detection, root selection, progressive disclosure
//  3. [layout] - Node positioning (Graphviz and grid strategies)
//  4. [render] - SVG frame construction and back-edge arcs
//  5. [transition] - Animated interpolation between layouts
//  6. [pipeline] - Orchestration (analyze → layout → render) with caching
//  7. [store] - Graph persistence (memory, MongoDB)
//
// # Architecture
//
// The typical data flow through AgentLens:
//
//	Execution Trace (graph.json)
//	         ↓
//	    [topology] package (back edges, roots, visible subgraph)
//	         ↓
//	    [layout] package (hierarchical positions)
//	         ↓
//	    [render] package (SVG / JSON / DOT output)
//
// # Quick Start
//
//	g, err := graph.ReadGraphFile("trace.json")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	runner := pipeline.NewRunner(nil, nil, nil)
//	result, err := runner.Execute(ctx, g, pipeline.Options{ExpandAll: true})
//	if err != nil {
//		log.Fatal(err)
//	}
//	os.WriteFile("trace.svg", result.Artifacts["svg"], 0644)
package pkg
