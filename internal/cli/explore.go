package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/agentlens/agentlens/pkg/graph"
	"github.com/agentlens/agentlens/pkg/pipeline"
	"github.com/agentlens/agentlens/pkg/topology"
)

// exploreCommand creates the explore command for interactive graph traversal.
func (c *CLI) exploreCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explore [graph.json]",
		Short: "Interactively expand and collapse the call graph",
		Long: `Interactively expand and collapse the call graph.

The explore command opens a terminal UI showing the entry-point roots of
the graph. Expanding a node reveals its callees; collapsing hides them
again. Nodes that start cyclic call paths are marked. Press 'w' to write
the current view as an SVG next to the input file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExplore(cmd.Context(), args[0])
		},
	}
	return cmd
}

// runExplore loads the graph and starts the TUI.
func (c *CLI) runExplore(ctx context.Context, input string) error {
	g, err := graph.ReadGraphFile(input)
	if err != nil {
		return fmt.Errorf("load graph %s: %w", input, err)
	}

	res := topology.Analyze(g)
	if len(res.Nodes) == 0 {
		printInfo("Graph is empty, nothing to explore")
		return nil
	}

	model := newExploreModel(res, input, c.pipelineOptions())
	p := tea.NewProgram(model, tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("explore: %w", err)
	}

	if m, ok := final.(exploreModel); ok && m.savedPath != "" {
		printSuccess("Saved view")
		printFile(m.savedPath)
	}
	return nil
}

// =============================================================================
// exploreModel - bubbletea model for progressive disclosure
// =============================================================================

// exploreRow is one visible line in the tree view.
type exploreRow struct {
	id        string
	depth     int
	composite bool
	expanded  bool
	backEdges int // outgoing back edges visible from this node
}

// exploreModel drives the interactive call-graph view. Disclosure state
// lives in the expanded set; every toggle re-resolves the visible subgraph.
type exploreModel struct {
	res      *topology.Result
	opts     pipeline.Options
	input    string
	expanded map[string]bool
	rows     []exploreRow
	cursor   int
	offset   int
	height   int

	savedPath string
	status    string
}

// savedMsg reports the outcome of an SVG write.
type savedMsg struct {
	path string
	err  error
}

func newExploreModel(res *topology.Result, input string, opts pipeline.Options) exploreModel {
	m := exploreModel{
		res:      res,
		opts:     opts,
		input:    input,
		expanded: make(map[string]bool),
		height:   20,
	}
	m.rebuild()
	return m
}

// rebuild recomputes the display rows from the current disclosure state.
func (m *exploreModel) rebuild() {
	vis := m.res.ResolveVisible(m.expanded)
	visible := vis.IDs()

	backEdgeCount := make(map[string]int)
	for _, e := range vis.BackEdges {
		backEdgeCount[e.From]++
	}

	m.rows = m.rows[:0]
	seen := make(map[string]bool)
	for _, root := range m.res.RootIDs {
		m.appendRows(root, 0, visible, backEdgeCount, seen)
	}

	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// appendRows walks the visible tree depth-first, indenting by call depth.
// A node reachable through several parents is listed once, under the first.
func (m *exploreModel) appendRows(id string, depth int, visible map[string]bool, backEdges map[string]int, seen map[string]bool) {
	if !visible[id] || seen[id] {
		return
	}
	seen[id] = true

	node, _ := m.res.Node(id)
	m.rows = append(m.rows, exploreRow{
		id:        id,
		depth:     depth,
		composite: node.IsComposite() && len(m.res.Children(id)) > 0,
		expanded:  m.expanded[id],
		backEdges: backEdges[id],
	})

	if m.expanded[id] {
		for _, child := range m.res.Children(id) {
			m.appendRows(child, depth+1, visible, backEdges, seen)
		}
	}
}

func (m exploreModel) Init() tea.Cmd {
	return nil
}

func (m exploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
			}
		case "down", "j":
			if m.cursor < len(m.rows)-1 {
				m.cursor++
				if m.cursor >= m.offset+m.height {
					m.offset = m.cursor - m.height + 1
				}
			}
		case "enter", " ":
			if m.cursor < len(m.rows) {
				row := m.rows[m.cursor]
				if row.composite {
					m.expanded[row.id] = !m.expanded[row.id]
					m.rebuild()
				}
			}
		case "E":
			for _, n := range m.res.Nodes {
				m.expanded[n.ID] = true
			}
			m.rebuild()
		case "C":
			m.expanded = make(map[string]bool)
			m.cursor, m.offset = 0, 0
			m.rebuild()
		case "w":
			return m, m.saveSVG()
		}
	case tea.WindowSizeMsg:
		m.height = msg.Height - 7
		if m.height < 5 {
			m.height = 5
		}
	case savedMsg:
		if msg.err != nil {
			m.status = StyleWarning.Render("save failed: " + msg.err.Error())
		} else {
			m.savedPath = msg.path
			m.status = StyleSuccess.Render("saved " + msg.path)
		}
	}
	return m, nil
}

// saveSVG renders the currently visible subgraph to a file next to the input.
func (m exploreModel) saveSVG() tea.Cmd {
	opts := m.opts
	opts.ExpandIDs = expandedIDs(m.expanded)
	opts.Formats = []string{graph.FormatSVG}
	vis := m.res.ResolveVisible(m.expanded)
	path := strings.TrimSuffix(m.input, filepath.Ext(m.input)) + ".explore.svg"

	return func() tea.Msg {
		pos, err := pipeline.ComputeLayout(context.Background(), vis, opts)
		if err != nil {
			return savedMsg{err: err}
		}
		artifacts, err := pipeline.RenderArtifacts(vis, pos, opts)
		if err != nil {
			return savedMsg{err: err}
		}
		if err := os.WriteFile(path, artifacts[graph.FormatSVG], 0644); err != nil {
			return savedMsg{err: err}
		}
		return savedMsg{path: path}
	}
}

func expandedIDs(expanded map[string]bool) []string {
	out := make([]string, 0, len(expanded))
	for id, on := range expanded {
		if on {
			out = append(out, id)
		}
	}
	return out
}

// Node type colors for the tree view.
var exploreTypeStyles = map[graph.NodeType]lipgloss.Style{
	graph.TypeAgent:    lipgloss.NewStyle().Foreground(colorCyan),
	graph.TypeSubAgent: lipgloss.NewStyle().Foreground(colorBlue),
	graph.TypeTool:     lipgloss.NewStyle().Foreground(colorGreen),
	graph.TypeLLM:      lipgloss.NewStyle().Foreground(colorYellow),
	graph.TypeUser:     lipgloss.NewStyle().Foreground(colorWhite),
}

func (m exploreModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("AgentLens Explorer"))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("↑/↓ navigate  ⏎ toggle  E expand all  C collapse  w write svg  q quit"))
	b.WriteString("\n\n")

	end := m.offset + m.height
	if end > len(m.rows) {
		end = len(m.rows)
	}

	for i := m.offset; i < end; i++ {
		row := m.rows[i]
		node, _ := m.res.Node(row.id)

		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}

		marker := "  "
		if row.composite {
			if row.expanded {
				marker = "▾ "
			} else {
				marker = "▸ "
			}
		}

		label := node.DisplayLabel()
		style, ok := exploreTypeStyles[node.Type]
		if !ok {
			style = StyleValue
		}
		if i == m.cursor {
			style = style.Bold(true)
		}

		line := cursor + strings.Repeat("  ", row.depth) + marker + style.Render(label)
		line += StyleDim.Render("  " + string(node.Type))
		if row.backEdges > 0 {
			line += "  " + StyleBackEdge.Render(fmt.Sprintf("↺%d", row.backEdges))
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	vis := m.res.ResolveVisible(m.expanded)
	footer := fmt.Sprintf("  [%d/%d]  %d visible · %d edges · %d back edges",
		m.cursor+1, len(m.rows), len(vis.Nodes), len(vis.DAGEdges), len(vis.BackEdges))
	b.WriteString(StyleDim.Render(footer))
	if m.status != "" {
		b.WriteString("  " + m.status)
	}
	b.WriteString("\n")

	return b.String()
}
