package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/agentlens/agentlens/pkg/graph"
	"github.com/agentlens/agentlens/pkg/topology"
)

// analyzeCommand creates the analyze command for inspecting graph topology.
func (c *CLI) analyzeCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "analyze [graph.json]",
		Short: "Inspect the topology of an execution graph",
		Long: `Inspect the topology of an execution graph.

The analyze command loads a graph.json file and reports its structure:
entry-point roots, call depths, and cyclic call paths (back edges).
No layout or rendering is performed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runAnalyze(cmd.Context(), args[0], asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "emit the summary as JSON")

	return cmd
}

// analysisSummary is the JSON shape emitted by analyze --json.
type analysisSummary struct {
	Nodes     int            `json:"nodes"`
	Edges     int            `json:"edges"`
	Roots     []string       `json:"roots"`
	BackEdges []string       `json:"back_edges"`
	MaxDepth  int            `json:"max_depth"`
	Depths    map[string]int `json:"depths"`
}

// runAnalyze loads the graph, analyzes it, and prints the summary.
func (c *CLI) runAnalyze(ctx context.Context, input string, asJSON bool) error {
	g, err := graph.ReadGraphFile(input)
	if err != nil {
		return fmt.Errorf("load graph %s: %w", input, err)
	}

	prog := newProgress(loggerFromContext(ctx))
	res := topology.Analyze(g)
	prog.done(fmt.Sprintf("Analyzed %d nodes", len(res.Nodes)))

	summary := buildSummary(res)

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}

	printSuccess("Analysis complete")
	printKeyValue("Nodes", fmt.Sprintf("%d", summary.Nodes))
	printKeyValue("Edges", fmt.Sprintf("%d", summary.Edges))
	printKeyValue("Roots", fmt.Sprintf("%v", summary.Roots))
	printKeyValue("Max depth", fmt.Sprintf("%d", summary.MaxDepth))
	if len(summary.BackEdges) == 0 {
		printKeyValue("Cycles", "none")
	} else {
		printKeyValue("Cycles", StyleBackEdge.Render(fmt.Sprintf("%d back edges", len(summary.BackEdges))))
		for _, be := range summary.BackEdges {
			printDetail("%s", be)
		}
	}
	printNewline()
	printNextStep("Render", "agentlens render "+input)

	return nil
}

// buildSummary flattens an analysis result into the printable summary.
func buildSummary(res *topology.Result) analysisSummary {
	s := analysisSummary{
		Nodes:  len(res.Nodes),
		Edges:  len(res.Edges),
		Roots:  res.RootIDs,
		Depths: res.Depths,
	}
	for _, d := range res.Depths {
		if d > s.MaxDepth {
			s.MaxDepth = d
		}
	}
	for key := range res.BackEdges {
		s.BackEdges = append(s.BackEdges, fmt.Sprintf("%s %s %s", key.From, iconArrow, key.To))
	}
	sort.Strings(s.BackEdges)
	if s.Roots == nil {
		s.Roots = []string{}
	}
	if s.BackEdges == nil {
		s.BackEdges = []string{}
	}
	return s
}
