// Package cli implements the booksctl operator commands.
package cli

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/reports"
)

// Ledger is the read side of the trial balance used by tb and integrity --now.
type Ledger interface {
	TrialBalance(ctx context.Context, organizationID string) (reports.TrialBalance, error)
	UnbalancedOperations(ctx context.Context, organizationID string) ([]reports.OperationTotal, error)
}

// Queue submits background scans.
type Queue interface {
	EnqueueLedgerIntegrity(ctx context.Context, organizationID string) (*asynq.TaskInfo, error)
}

// Env opens the backends a command needs. Each opener returns a release func.
type Env struct {
	OpenLedger func(ctx context.Context) (Ledger, func(), error)
	OpenQueue  func(ctx context.Context) (Queue, func(), error)
}

// NewRootCommand creates the root command with every subcommand registered.
func NewRootCommand(env Env) *cobra.Command {
	root := &cobra.Command{
		Use:   "booksctl",
		Short: "Operator tools for the books ledger",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	root.AddCommand(newCalcCommand(), newTrialBalanceCommand(env), newIntegrityCommand(env))
	return root
}

func printer() *message.Printer {
	return message.NewPrinter(language.English)
}
