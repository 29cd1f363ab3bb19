package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentlens/agentlens/pkg/graph"
	"github.com/agentlens/agentlens/pkg/pipeline"
)

// renderCommand creates the render command for generating visualizations.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		formatsStr string
		expandStr  string
		output     string
		noCache    bool
	)
	opts := c.pipelineOptions()

	cmd := &cobra.Command{
		Use:   "render [graph.json]",
		Short: "Render an execution graph to SVG, JSON, or DOT",
		Long: `Render an execution graph to SVG, JSON, or DOT.

By default only the entry-point roots are shown. Use --expand to reveal
the children of specific nodes, or --expand-all to show the whole graph.
Cyclic call paths are drawn as dashed arcs beside the main flow.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Formats = parseFormats(formatsStr)
			opts.ExpandIDs = parseExpandIDs(expandStr)
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			if err := pipeline.ValidateStrategy(opts.Strategy); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], opts, output, noCache)
		},
	}

	// Common flags
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	// Disclosure flags
	cmd.Flags().StringVarP(&expandStr, "expand", "e", "", "node id(s) to expand (comma-separated)")
	cmd.Flags().BoolVar(&opts.ExpandAll, "expand-all", false, "expand the entire graph")

	// Layout flags
	cmd.Flags().StringVarP(&opts.Strategy, "strategy", "s", opts.Strategy, "layout strategy: graphviz (default), grid")
	cmd.Flags().StringVar(&opts.Direction, "direction", opts.Direction, "rank direction: LR (default), TB")

	// Render flags
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), json, dot (comma-separated)")
	cmd.Flags().BoolVar(&opts.ShowMetrics, "metrics", false, "show call counts and latencies on nodes")

	return cmd
}

// runRender loads the graph, runs the pipeline, and writes the artifacts.
func (c *CLI) runRender(ctx context.Context, input string, opts pipeline.Options, output string, noCache bool) error {
	g, err := graph.ReadGraphFile(input)
	if err != nil {
		return fmt.Errorf("load graph %s: %w", input, err)
	}

	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()
	opts.Logger = loggerFromContext(ctx)

	spinner := newSpinnerWithContext(ctx, "Rendering call graph...")
	spinner.Start()

	result, err := runner.Execute(ctx, g, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return fmt.Errorf("render: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	if err := writeArtifacts(result.Artifacts, opts.Formats, input, output); err != nil {
		return err
	}

	printSuccess("Render complete")
	printStats(result.Stats.VisibleNodes, len(result.Visible.DAGEdges), result.Stats.BackEdgeCount, result.CacheInfo.RenderHit)

	return nil
}

// writeArtifacts writes each rendered format to its output file.
// With a single format the output path is used as-is (or derived from the
// input name); with multiple formats each file gets its format extension.
func writeArtifacts(artifacts map[string][]byte, formats []string, input, output string) error {
	base := basePath(output, input)

	for _, format := range formats {
		data, ok := artifacts[format]
		if !ok {
			continue
		}

		path := output
		if path == "" || len(formats) > 1 {
			path = base + "." + format
		}

		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("write output %s: %w", path, err)
		}
		printFile(path)
	}
	return nil
}

// basePath derives the base output path from the output and input file paths.
// If output is empty, it strips the extension from input. If output already
// carries a known format extension, that extension is stripped too.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}
