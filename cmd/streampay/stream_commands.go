package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"streampay/internal/ipc"
)

func newCreateCommand(ctx *commandContext) *cobra.Command {
	var sender string
	var recipient string
	var rate string
	var deposit string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Open a new payment stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			amounts := newAmountFormatter(ctx.configValue())
			rateUnits, err := amounts.parse(rate)
			if err != nil {
				return fmt.Errorf("flow rate: %w", err)
			}
			depositUnits, err := amounts.parse(deposit)
			if err != nil {
				return fmt.Errorf("deposit: %w", err)
			}

			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.StreamCreate(ipc.StreamCreateRequest{
					Sender:    strings.TrimSpace(sender),
					Recipient: strings.TrimSpace(recipient),
					FlowRate:  rateUnits,
					Deposit:   depositUnits,
				})
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp.Stream)
				}
				stdout := cmd.OutOrStdout()
				fmt.Fprintf(stdout, "Stream %d created\n", resp.Stream.ID)
				fmt.Fprintf(stdout, "  %s -> %s\n", resp.Stream.Sender, resp.Stream.Recipient)
				fmt.Fprintf(stdout, "  Rate:    %s\n", amounts.formatRate(resp.Stream.FlowRate))
				fmt.Fprintf(stdout, "  Deposit: %s\n", amounts.formatWithSymbol(resp.Stream.Balance))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&sender, "from", "", "Sender address (0x-prefixed hex)")
	cmd.Flags().StringVar(&recipient, "to", "", "Recipient address (0x-prefixed hex)")
	cmd.Flags().StringVar(&rate, "rate", "", "Flow rate per second")
	cmd.Flags().StringVar(&deposit, "deposit", "", "Initial deposit")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit created stream as JSON")
	for _, flag := range []string{"from", "to", "rate", "deposit"} {
		_ = cmd.MarkFlagRequired(flag)
	}
	return cmd
}

func newCloseCommand(ctx *commandContext) *cobra.Command {
	var caller string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "close <stream-id>",
		Short: "Settle and close a payment stream",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseStreamID(args[0])
			if err != nil {
				return err
			}
			amounts := newAmountFormatter(ctx.configValue())

			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.StreamClose(id, strings.TrimSpace(caller))
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp.Settlement)
				}
				stdout := cmd.OutOrStdout()
				fmt.Fprintf(stdout, "Stream %d closed\n", resp.Settlement.StreamID)
				fmt.Fprintf(stdout, "  Paid to recipient: %s\n", amounts.formatWithSymbol(resp.Settlement.Paid))
				fmt.Fprintf(stdout, "  Refunded to sender: %s\n", amounts.formatWithSymbol(resp.Settlement.Refunded))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&caller, "as", "", "Address performing the close (sender or recipient)")
	_ = cmd.MarkFlagRequired("as")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit settlement as JSON")
	return cmd
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <stream-id>",
		Short: "Display a single stream",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseStreamID(args[0])
			if err != nil {
				return err
			}
			amounts := newAmountFormatter(ctx.configValue())

			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.StreamDescribe(id)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp.Stream)
				}
				printStreamDetail(cmd, resp.Stream, amounts)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit stream as JSON")
	return cmd
}

func newListCommand(ctx *commandContext) *cobra.Command {
	var activeOnly bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List payment streams",
		RunE: func(cmd *cobra.Command, args []string) error {
			amounts := newAmountFormatter(ctx.configValue())

			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.StreamList(activeOnly)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp.Streams)
				}
				stdout := cmd.OutOrStdout()
				if len(resp.Streams) == 0 {
					fmt.Fprintln(stdout, "No streams")
					return nil
				}

				colorize := isTerminal(stdout)
				rows := make([][]string, 0, len(resp.Streams))
				for _, stream := range resp.Streams {
					rows = append(rows, []string{
						strconv.FormatUint(stream.ID, 10),
						shortenAddress(stream.Sender),
						shortenAddress(stream.Recipient),
						amounts.formatRate(stream.FlowRate),
						amounts.format(stream.ProjectedBalance),
						colorStatus(stream.Status, colorize),
					})
				}
				table := renderTable(
					[]string{"ID", "Sender", "Recipient", "Rate", "Balance", "Status"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
				)
				fmt.Fprintln(stdout, table)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&activeOnly, "active", false, "Only list active streams")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit streams as JSON")
	return cmd
}

func newNextIDCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "next-id",
		Short: "Show the id the next stream will receive",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.NextStreamID()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), resp.NextStreamID)
				return nil
			})
		},
	}
}

func newTransfersCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "transfers <stream-id>",
		Short: "Show the transfer journal for a stream",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseStreamID(args[0])
			if err != nil {
				return err
			}
			amounts := newAmountFormatter(ctx.configValue())

			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.TransferList(id)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp.Transfers)
				}
				stdout := cmd.OutOrStdout()
				if len(resp.Transfers) == 0 {
					fmt.Fprintln(stdout, "No transfers")
					return nil
				}

				rows := make([][]string, 0, len(resp.Transfers))
				for _, tr := range resp.Transfers {
					rows = append(rows, []string{
						tr.Kind,
						shortenAddress(tr.Counterparty),
						amounts.formatWithSymbol(tr.Amount),
						tr.CreatedAt,
					})
				}
				table := renderTable(
					[]string{"Kind", "Counterparty", "Amount", "At"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
				)
				fmt.Fprintln(stdout, table)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit transfers as JSON")
	return cmd
}

func printStreamDetail(cmd *cobra.Command, stream ipc.StreamView, amounts amountFormatter) {
	stdout := cmd.OutOrStdout()
	fmt.Fprintf(stdout, "Stream %d (%s)\n", stream.ID, colorStatus(stream.Status, isTerminal(stdout)))
	fmt.Fprintf(stdout, "  Sender:    %s\n", stream.Sender)
	fmt.Fprintf(stdout, "  Recipient: %s\n", stream.Recipient)
	fmt.Fprintf(stdout, "  Rate:      %s\n", amounts.formatRate(stream.FlowRate))
	fmt.Fprintf(stdout, "  Balance:   %s (settled %s)\n",
		amounts.formatWithSymbol(stream.ProjectedBalance),
		amounts.formatWithSymbol(stream.Balance))
	fmt.Fprintf(stdout, "  Settled:   %s\n", stream.LastSettledAt)
	if stream.DepletesAt != "" {
		fmt.Fprintf(stdout, "  Depletes:  %s\n", stream.DepletesAt)
	}
	if stream.ClosedAt != "" {
		fmt.Fprintf(stdout, "  Closed:    %s\n", stream.ClosedAt)
	}
}

func parseStreamID(arg string) (uint64, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(arg), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid stream id %q", arg)
	}
	return id, nil
}

// shortenAddress abbreviates a 0x address for table display.
func shortenAddress(addr string) string {
	if len(addr) <= 12 {
		return addr
	}
	return addr[:8] + ".." + addr[len(addr)-4:]
}
