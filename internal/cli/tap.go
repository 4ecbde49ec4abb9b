package cli

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/thinkofyou/pkg/bubble"
)

// tapCommand creates the tap command.
func (c *CLI) tapCommand() *cobra.Command {
	var (
		key string
		at  string
	)

	cmd := &cobra.Command{
		Use:   "tap",
		Short: "Record that you are thinking of your partner",
		Long: `Record a tap for the owner of the access key.

The tap is written to the configured store, so a running server picks it up
when both use a shared backend (sqlite, redis or mongo).`,
		Example: `  thinkofyou tap --as 3f9c20
  THINKOFYOU_KEY=3f9c20 thinkofyou tap --at 2026-02-14T08:30:00Z`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var ts time.Time
			if at != "" {
				t, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return err
				}
				ts = t
			}

			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if cfg.Store.Backend == "memory" {
				printWarning("The memory store forgets this tap when the command exits")
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

			spinner := newSpinnerWithContext(ctx, "Tapping...")
			spinner.Start()
			rec, err := a.tapper.TapAt(ctx, id, ts)
			if err != nil {
				spinner.StopWithError("Tap failed")
				return err
			}
			spinner.StopWithSuccess("Tapped for " + StyleHighlight.Render(id.Owner))

			loc, _ := cfg.Location()
			printKeyValue("id", rec.ID)
			printKeyValue("time", rec.Timestamp.In(loc).Format(time.DateTime))
			printKeyValue("period", periodSwatch(bubble.PeriodOf(rec.Timestamp, loc)))
			printKeyValue("count", StyleNumber.Render(strconv.Itoa(rec.Seq+1)))
			printNextStep("Follow "+id.Partner+"'s bubbles", "thinkofyou watch")
			return nil
		},
	}

	cmd.Flags().StringVar(&key, "as", "", "access key (default $"+keyEnv+")")
	cmd.Flags().StringVar(&at, "at", "", "tap time as RFC 3339 (default now)")

	return cmd
}
