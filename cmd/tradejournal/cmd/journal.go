package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rustyeddy/tradejournal/journal"
	"github.com/rustyeddy/tradejournal/risk"
	"github.com/spf13/cobra"
)

func newJournalCmd(a *app) *cobra.Command {
	journalCmd := &cobra.Command{
		Use:   "journal",
		Short: "Record and review trades",
		Long: `Record, close out and review journaled trades.

Subcommands:
  add     - Size a trade and record it
  get     - Show one trade
  close   - Record the result of a trade
  delete  - Remove a trade
  list    - List trades, newest first
  export  - Write trades as CSV or Org-mode
  stats   - Summarize results

Examples:
  tradejournal journal add --entry 1.1050 --stop 1.1000 --tp 1.1150 --risk 100
  tradejournal journal close <trade-id> --result win --observation "held to target"
  tradejournal journal list --filter incomplete`,
	}

	journalCmd.AddCommand(
		newJournalAddCmd(a),
		newJournalGetCmd(a),
		newJournalCloseCmd(a),
		newJournalDeleteCmd(a),
		newJournalListCmd(a),
		newJournalExportCmd(a),
		newJournalStatsCmd(a),
	)
	return journalCmd
}

func newJournalAddCmd(a *app) *cobra.Command {
	var (
		f             sizingFlags
		pair          string
		observation   string
		preAttachment string
		result        string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Size a trade and record it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := f.inputs()
			if err != nil {
				return err
			}
			outcome, err := journal.ParseOutcome(result)
			if err != nil {
				return err
			}

			return a.withStore(cmd.Context(), func(ctx context.Context, s journal.Store) error {
				res, err := a.cfg.Sizer().Compute(in)
				if err != nil {
					return err
				}
				d := journal.NewDraft(in, res)
				d.Pair = pair
				d.Observation = observation
				d.PreTradeAttachment = preAttachment
				d.Result = outcome

				rec, err := s.Append(ctx, a.journalScope(), d)
				if err != nil {
					return fmt.Errorf("append trade: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), journal.FormatTradeOrg(rec))
				printWarnings(cmd.OutOrStdout(), risk.Evaluate(a.cfg.Policy(), in, res))
				return nil
			})
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&pair, "pair", "", "pair label as you write it, e.g. EUR/USD")
	cmd.Flags().StringVar(&observation, "observation", "", "free-text notes")
	cmd.Flags().StringVar(&preAttachment, "pre-attachment", "", "reference to a pre-trade chart")
	cmd.Flags().StringVar(&result, "result", "", "win|loss|breakeven when journaling after the fact")
	return cmd
}

func newJournalGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <trade-id>",
		Short: "Show one trade",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd.Context(), func(ctx context.Context, s journal.Store) error {
				rec, err := s.Get(ctx, a.journalScope(), args[0])
				if err != nil {
					return fmt.Errorf("get trade: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), journal.FormatTradeOrg(rec))
				return nil
			})
		},
	}
}

func newJournalCloseCmd(a *app) *cobra.Command {
	var (
		result         string
		observation    string
		postAttachment string
	)
	cmd := &cobra.Command{
		Use:   "close <trade-id>",
		Short: "Record the result of a trade",
		Long: `Set the result, observation or post-trade attachment of a trade.
Only the flags given are changed. Lot size and expected profit never change.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var u journal.OutcomeUpdate
			if cmd.Flags().Changed("result") {
				o, err := journal.ParseOutcome(result)
				if err != nil {
					return err
				}
				u.Result = &o
			}
			if cmd.Flags().Changed("observation") {
				u.Observation = &observation
			}
			if cmd.Flags().Changed("post-attachment") {
				u.PostTradeAttachment = &postAttachment
			}

			return a.withStore(cmd.Context(), func(ctx context.Context, s journal.Store) error {
				rec, err := s.UpdateOutcome(ctx, a.journalScope(), args[0], u)
				if err != nil {
					return fmt.Errorf("update trade: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), journal.FormatTradeOrg(rec))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&result, "result", "", "win|loss|breakeven (empty reopens the trade)")
	cmd.Flags().StringVar(&observation, "observation", "", "free-text notes")
	cmd.Flags().StringVar(&postAttachment, "post-attachment", "", "reference to a post-trade chart")
	return cmd
}

func newJournalDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <trade-id>",
		Short: "Remove a trade",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd.Context(), func(ctx context.Context, s journal.Store) error {
				if err := s.Delete(ctx, a.journalScope(), args[0]); err != nil {
					return fmt.Errorf("delete trade: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted %s\n", args[0])
				return nil
			})
		},
	}
}

func newJournalListCmd(a *app) *cobra.Command {
	var filter string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List trades, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.listTrades(cmd.Context(), filter, func(trades []journal.TradeRecord) error {
				if len(trades) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "no trades")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), journal.FormatTradesOrg(trades))
				return nil
			})
		},
	}
	addFilterFlag(cmd, &filter)
	return cmd
}

func newJournalExportCmd(a *app) *cobra.Command {
	var (
		filter string
		format string
		output string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write trades as CSV or Org-mode",
		Long: `Export trades, newest first.

Examples:
  tradejournal journal export --format csv --output trades.csv
  tradejournal journal export --format org --filter complete`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "csv" && format != "org" {
				return fmt.Errorf("unknown format %q (want csv or org)", format)
			}
			return a.listTrades(cmd.Context(), filter, func(trades []journal.TradeRecord) error {
				if output == "" {
					if err := writeExport(cmd.OutOrStdout(), format, trades); err != nil {
						return fmt.Errorf("export: %w", err)
					}
					return nil
				}
				if err := writeExportFile(output, format, trades); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported %d trades to %s\n", len(trades), output)
				return nil
			})
		},
	}
	addFilterFlag(cmd, &filter)
	cmd.Flags().StringVar(&format, "format", "csv", "csv|org")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

// writeExportFile writes the export to path. The file is closed before
// returning so a failed flush is reported.
func writeExportFile(path, format string, trades []journal.TradeRecord) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close output: %w", cerr)
		}
	}()

	if err := writeExport(f, format, trades); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return nil
}

func writeExport(w io.Writer, format string, trades []journal.TradeRecord) error {
	if format == "org" {
		_, err := fmt.Fprintln(w, journal.FormatTradesOrg(trades))
		return err
	}
	return journal.WriteCSV(w, trades)
}

func newJournalStatsCmd(a *app) *cobra.Command {
	var filter string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.listTrades(cmd.Context(), filter, func(trades []journal.TradeRecord) error {
				s := journal.Summarize(trades)
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Trades:        %d\n", s.Trades)
				fmt.Fprintf(out, "Wins:          %d\n", s.Wins)
				fmt.Fprintf(out, "Losses:        %d\n", s.Losses)
				fmt.Fprintf(out, "Breakevens:    %d\n", s.Breakevens)
				fmt.Fprintf(out, "Open:          %d\n", s.Open)
				fmt.Fprintf(out, "Win rate:      %s%%\n", s.WinRate.Shift(2).StringFixed(1))
				fmt.Fprintf(out, "Total risk:    %s\n", s.TotalRisk.StringFixed(2))
				fmt.Fprintf(out, "Open expected: %s\n", s.OpenExpectedProfit.StringFixed(2))
				return nil
			})
		},
	}
	addFilterFlag(cmd, &filter)
	return cmd
}

func addFilterFlag(cmd *cobra.Command, filter *string) {
	cmd.Flags().StringVar(filter, "filter", "", "none|complete|incomplete")
}

func (a *app) listTrades(ctx context.Context, filter string, fn func([]journal.TradeRecord) error) error {
	f, err := journal.ParseFilter(filter)
	if err != nil {
		return err
	}
	return a.withStore(ctx, func(ctx context.Context, s journal.Store) error {
		trades, err := s.List(ctx, a.journalScope(), f)
		if err != nil {
			return fmt.Errorf("list trades: %w", err)
		}
		return fn(trades)
	})
}
