package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/odyssey-books/internal/documents"
)

// ErrRejected is returned when a document does not reconcile.
var ErrRejected = errors.New("document rejected")

func newCalcCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "calc <file|->",
		Short: "Recompute a document and reconcile it against its submitted figures",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := openInput(cmd, args[0])
			if err != nil {
				return err
			}
			defer in.Close()
			var doc documents.DryRun
			if err := json.NewDecoder(in).Decode(&doc); err != nil {
				return fmt.Errorf("decode %s: %w", args[0], err)
			}
			out, err := doc.Calculate()
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(out); err != nil {
					return err
				}
			} else {
				writeOutcome(cmd.OutOrStdout(), out)
			}
			if !out.Accepted {
				return ErrRejected
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the outcome as JSON")
	return cmd
}

func openInput(cmd *cobra.Command, name string) (io.ReadCloser, error) {
	if name == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	return os.Open(name)
}

func writeOutcome(w io.Writer, out documents.Outcome) {
	p := printer()
	s := out.Summary
	p.Fprintf(w, "tax mode:     %s\n", s.TaxMode)
	p.Fprintf(w, "sub total:    %s\n", s.SubTotal.StringFixed(2))
	p.Fprintf(w, "discounts:    %s\n", s.ItemTotalDiscount.Add(s.TransactionDiscountAmount).StringFixed(2))
	p.Fprintf(w, "tax:          %s\n", s.TotalTaxAmount.StringFixed(2))
	p.Fprintf(w, "grand total:  %s\n", s.GrandTotal.StringFixed(2))
	if out.Accepted {
		p.Fprintf(w, "accepted, %d line(s)\n", len(out.Lines))
		return
	}
	p.Fprintf(w, "rejected with %d finding(s):\n", len(out.Findings))
	for _, f := range out.Findings {
		p.Fprintf(w, "  - %s\n", f.Message)
	}
}
