package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"streampay/internal/ipc"
	"streampay/internal/ledger"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch <stream-id>",
		Short: "Watch a stream's balance drain in real time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseStreamID(args[0])
			if err != nil {
				return err
			}
			if interval < 100*time.Millisecond {
				return fmt.Errorf("interval %s is too short", interval)
			}
			amounts := newAmountFormatter(ctx.configValue())

			return ctx.withClient(func(client *ipc.Client) error {
				stdout := cmd.OutOrStdout()
				ticker := time.NewTicker(interval)
				defer ticker.Stop()

				for {
					resp, err := client.StreamDescribe(id)
					if err != nil {
						return err
					}
					stream := resp.Stream
					fmt.Fprintf(stdout, "%s  stream %d  %s  %s\n",
						time.Now().Format("15:04:05"),
						stream.ID,
						amounts.formatWithSymbol(stream.ProjectedBalance),
						stream.Status)
					if stream.Status == string(ledger.DisplayClosed) {
						return nil
					}

					select {
					case <-cmd.Context().Done():
						return nil
					case <-ticker.C:
					}
				}
			})
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", time.Second, "Refresh interval")
	return cmd
}
