package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"streampay/internal/daemonctl"
	"streampay/internal/ipc"
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the streampay daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}

			result, err := daemonctl.EnsureStarted(
				ctx.socketPath(),
				exe,
				daemonLaunchOptions(ctx),
				10*time.Second,
			)
			if err != nil {
				return err
			}

			if result.AlreadyRunning {
				fmt.Fprintln(stdout, "Daemon already running")
				return nil
			}
			if result.PID > 0 {
				fmt.Fprintf(stdout, "Daemon started (pid %d)\n", result.PID)
			} else {
				fmt.Fprintln(stdout, "Daemon started")
			}
			return nil
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the streampay daemon (completely terminates the process)",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			result, err := daemonctl.StopAndTerminate(ctx.socketPath(), ctx.configValue(), 5*time.Second)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if result.ForcedKill && result.PID > 0 {
				fmt.Fprintf(stdout, "Killed unresponsive daemon process (pid %d)\n", result.PID)
			}
			fmt.Fprintln(stdout, "Daemon stopped")
			return nil
		},
	}

	var statusJSON bool
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and ledger status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatusCommand(cmd, ctx, statusJSON)
		},
	}
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Emit status as JSON")

	return []*cobra.Command{startCmd, stopCmd, statusCmd}
}

func runStatusCommand(cmd *cobra.Command, ctx *commandContext, asJSON bool) error {
	stdout := cmd.OutOrStdout()
	cfg := ctx.configValue()

	reachable, _, err := daemonctl.ProcessInfo(ctx.socketPath())
	if err != nil {
		return err
	}
	if !reachable {
		if asJSON {
			return writeJSON(cmd, map[string]any{"running": false})
		}
		fmt.Fprintln(stdout, "Daemon is not running")
		if cfg != nil {
			fmt.Fprintf(stdout, "Environment: %s\n", cfg.Network.Environment)
			fmt.Fprintf(stdout, "Ledger: %s\n", cfg.DatabasePath())
		}
		return nil
	}

	return ctx.withClient(func(client *ipc.Client) error {
		status, err := client.Status()
		if err != nil {
			return err
		}
		if asJSON {
			return writeJSON(cmd, status)
		}

		fmt.Fprintf(stdout, "Daemon running (pid %d)\n", status.PID)
		fmt.Fprintf(stdout, "Environment: %s\n", status.Environment)
		fmt.Fprintf(stdout, "Ledger: %s\n", status.LedgerDBPath)
		fmt.Fprintf(stdout, "Next stream id: %d\n", status.NextStreamID)

		rows := make([][]string, 0, len(status.Stats))
		for _, key := range []string{"active", "closed"} {
			if count, ok := status.Stats[key]; ok {
				rows = append(rows, []string{key, fmt.Sprintf("%d", count)})
			}
		}
		if len(rows) > 0 {
			fmt.Fprintln(stdout)
			fmt.Fprintln(stdout, renderTable([]string{"Streams", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
		}
		return nil
	})
}

func daemonExecutable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	return exe, nil
}

func daemonLaunchOptions(ctx *commandContext) daemonctl.LaunchOptions {
	opts := daemonctl.LaunchOptions{}
	if ctx.configFlag != nil {
		if cfgPath := strings.TrimSpace(*ctx.configFlag); cfgPath != "" {
			opts.ConfigPath = cfgPath
		}
	}
	return opts
}
