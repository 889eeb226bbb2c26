package cli

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"golang.org/x/text/message"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/reports"
)

// ErrUnbalanced is returned by integrity --now when the scan finds unbalanced operations.
var ErrUnbalanced = errors.New("ledger has unbalanced operations")

func newTrialBalanceCommand(env Env) *cobra.Command {
	var org string
	cmd := &cobra.Command{
		Use:   "tb",
		Short: "Print the trial balance of an organization",
		RunE: func(cmd *cobra.Command, args []string) error {
			if env.OpenLedger == nil {
				return errors.New("ledger not configured")
			}
			ledger, release, err := env.OpenLedger(cmd.Context())
			if err != nil {
				return err
			}
			defer release()
			tb, err := ledger.TrialBalance(cmd.Context(), org)
			if err != nil {
				return err
			}
			writeTrialBalance(cmd.OutOrStdout(), tb)
			return nil
		},
	}
	cmd.Flags().StringVar(&org, "org", "", "organization id")
	_ = cmd.MarkFlagRequired("org")
	return cmd
}

func newIntegrityCommand(env Env) *cobra.Command {
	var org string
	var now bool
	cmd := &cobra.Command{
		Use:   "integrity",
		Short: "Check that every posted operation nets to zero",
		Long:  "Queues a ledger integrity scan for the worker, or runs it in place with --now. An empty --org covers every organization.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if now {
				return runIntegrity(cmd, env, org)
			}
			if env.OpenQueue == nil {
				return errors.New("queue not configured")
			}
			queue, release, err := env.OpenQueue(cmd.Context())
			if err != nil {
				return err
			}
			defer release()
			info, err := queue.EnqueueLedgerIntegrity(cmd.Context(), org)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "queued %s on %s\n", info.ID, info.Queue)
			return nil
		},
	}
	cmd.Flags().StringVar(&org, "org", "", "organization id")
	cmd.Flags().BoolVar(&now, "now", false, "scan in place instead of queueing")
	return cmd
}

func runIntegrity(cmd *cobra.Command, env Env, org string) error {
	if env.OpenLedger == nil {
		return errors.New("ledger not configured")
	}
	ledger, release, err := env.OpenLedger(cmd.Context())
	if err != nil {
		return err
	}
	defer release()
	ops, err := ledger.UnbalancedOperations(cmd.Context(), org)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	if len(ops) == 0 {
		fmt.Fprintln(w, "ledger balanced")
		return nil
	}
	p := printer()
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ORGANIZATION\tOPERATION\tREFERENCE\tDEBIT\tCREDIT")
	for _, op := range ops {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", op.OrganizationID, op.OperationID, op.TransactionID,
			amount(p, op.Debit), amount(p, op.Credit))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	return fmt.Errorf("%w: %d", ErrUnbalanced, len(ops))
}

func writeTrialBalance(w io.Writer, tb reports.TrialBalance) {
	p := printer()
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "CODE\tACCOUNT\tDEBIT\tCREDIT\tCLOSING\t")
	for _, grp := range tb.Groups {
		fmt.Fprintf(tw, "%s\t\t\t\t\t\n", grp.Key)
		for _, acc := range grp.Accounts {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t\n", acc.Code, acc.Name,
				amount(p, acc.Debit), amount(p, acc.Credit), amount(p, acc.Closing))
		}
		fmt.Fprintf(tw, "\t%s total\t%s\t%s\t%s\t\n", grp.Key,
			amount(p, grp.Debit), amount(p, grp.Credit), amount(p, grp.Closing))
	}
	fmt.Fprintf(tw, "\tTOTAL\t%s\t%s\t\t\n", amount(p, tb.TotalDebit), amount(p, tb.TotalCredit))
	_ = tw.Flush()
	if !tb.Balanced() {
		fmt.Fprintln(w, "WARNING: trial balance does not balance")
	}
}

// amount groups thousands for display only; stored values stay decimal.
func amount(p *message.Printer, d decimal.Decimal) string {
	return p.Sprintf("%.2f", d.Round(2).InexactFloat64())
}
