package cli

import (
	"context"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/thinkofyou/pkg/access"
	"github.com/matzehuels/thinkofyou/pkg/pipeline"
)

// renderOptions holds flags for the render command.
type renderOptions struct {
	key        string
	output     string
	formats    string
	width      float64
	height     float64
	limit      int
	title      string
	background string
	animate    bool
	noCache    bool
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOptions{}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render your partner's bubbles to a file",
		Long: `Render the partner's recent taps as bubbles and write them to disk.

With several formats the output path is used as a base name and each file
gets the format as its extension.`,
		Example: `  thinkofyou render --as 3f9c20 -o bubbles.svg
  thinkofyou render --as 3f9c20 -f svg,json -o out/bubbles --width 1200 --height 800`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.key, "as", "", "access key (default $"+keyEnv+")")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default <partner>.<format>)")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", pipeline.FormatSVG, "comma-separated output formats: svg, json")
	cmd.Flags().Float64Var(&opts.width, "width", 0, "canvas width (default display.width)")
	cmd.Flags().Float64Var(&opts.height, "height", 0, "canvas height (default display.height)")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "number of recent taps to show (default display.limit)")
	cmd.Flags().StringVar(&opts.title, "title", "", "SVG title")
	cmd.Flags().StringVar(&opts.background, "background", "", "SVG background color")
	cmd.Flags().BoolVar(&opts.animate, "animate", false, "include the pop-in animation")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the render cache")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, opts renderOptions) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	a, err := c.openApp(ctx, cfg, opts.noCache)
	if err != nil {
		return err
	}
	defer a.Close()

	id, err := a.identity(opts.key)
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	popts := pipeline.Options{
		Owner:      id.Partner,
		Width:      pick(opts.width, cfg.Display.Width),
		Height:     pick(opts.height, cfg.Display.Height),
		Limit:      pick(opts.limit, cfg.Display.Limit),
		Formats:    parseFormats(opts.formats),
		Title:      opts.title,
		Background: opts.background,
		Animate:    opts.animate,
		Location:   loc,
		Logger:     c.Logger,
	}
	if popts.Title == "" {
		popts.Title = titleFor(id)
	}

	prog := newProgress(c.Logger)
	spinner := newSpinnerWithContext(ctx, "Rendering bubbles...")
	spinner.Start()
	result, err := a.runner.Execute(ctx, a.store, popts)
	spinner.Stop()
	if err != nil {
		printError("Render failed")
		return err
	}

	paths, err := writeArtifacts(result.Artifacts, opts.output, id.Partner)
	if err != nil {
		return err
	}

	printSuccess("Rendered %s's bubbles", StyleHighlight.Render(id.Partner))
	for _, p := range paths {
		printFile(p)
	}
	printStats(result.Stats.Bubbles, result.Stats.Fallbacks, result.CacheInfo.RenderHit)
	prog.done(fmt.Sprintf("Rendered %d bubbles", result.Stats.Bubbles))
	return nil
}

// writeArtifacts writes each artifact. A single artifact goes to output
// verbatim; otherwise every file is named after the output base (or owner)
// with its format as extension.
func writeArtifacts(artifacts map[string][]byte, output, owner string) ([]string, error) {
	base := outputBase(output, owner)
	if dir := filepath.Dir(base); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	var paths []string
	for _, format := range slices.Sorted(maps.Keys(artifacts)) {
		path := base + "." + format
		if output != "" && len(artifacts) == 1 {
			path = output
		}
		if err := os.WriteFile(path, artifacts[format], 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// outputBase strips a known format extension from output so it can be
// re-applied per format.
func outputBase(output, owner string) string {
	if output == "" {
		return owner
	}
	ext := strings.TrimPrefix(filepath.Ext(output), ".")
	if pipeline.ValidFormats[ext] {
		return strings.TrimSuffix(output, "."+ext)
	}
	return output
}

func titleFor(id access.Identity) string {
	if id.Name != "" {
		return id.Partner + " is thinking of " + id.Name
	}
	return id.Partner
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	return strings.Split(s, ",")
}

func pick[T comparable](v, fallback T) T {
	var zero T
	if v == zero {
		return fallback
	}
	return v
}
