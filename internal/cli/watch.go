package cli

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/thinkofyou/pkg/render"
	"github.com/matzehuels/thinkofyou/pkg/view"
)

// watchCommand creates the watch command.
func (c *CLI) watchCommand() *cobra.Command {
	var key string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow your partner's bubbles live in the terminal",
		Long: `Follow the partner's bubbles live. New taps pop in without moving the
bubbles already shown; resizing the terminal re-lays out the whole cluster.`,
		Example: `  thinkofyou watch --as 3f9c20`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runWatch(cmd.Context(), key)
		},
	}

	cmd.Flags().StringVar(&key, "as", "", "access key (default $"+keyEnv+")")

	return cmd
}

func (c *CLI) runWatch(ctx context.Context, key string) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	a, err := c.openApp(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer a.Close()

	id, err := a.identity(key)
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	snapshots, err := a.store.Subscribe(ctx, id.Partner)
	if err != nil {
		return err
	}

	var prog *tea.Program
	width, height := canvasSize(80, 24-chromeRows)
	v := view.New(id.Partner, width, height, snapshots, func(d render.Diff) {
		prog.Send(diffMsg(d))
	},
		view.WithLocation(loc),
		view.WithLimit(cfg.Display.Limit),
		view.WithLogger(c.Logger))

	prog = tea.NewProgram(NewBubbleModel(id.Name, id.Partner, v), tea.WithAltScreen(), tea.WithContext(ctx))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		_, err := prog.Run()
		if errors.Is(err, tea.ErrProgramKilled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		err := v.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	return g.Wait()
}
