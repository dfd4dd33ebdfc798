package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/susu3304/billdividr/internal/money"
	"github.com/susu3304/billdividr/internal/settle"
)

type settleInput struct {
	Members     []settle.Member     `json:"members"`
	Expenses    []settle.Expense    `json:"expenses"`
	Settlements []settle.Settlement `json:"settlements"`
}

type settleOutput struct {
	Balances     settle.Balances      `json:"balances"`
	Transactions []settle.Transaction `json:"transactions"`
}

func settleCmd() *cobra.Command {
	var (
		file   string
		cents  bool
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "settle",
		Short: "Compute balances and settle-up payments from a JSON ledger",
		Long: `Reads {"members": [...], "expenses": [...], "settlements": [...]} from
--file (or stdin with "-") and prints each member's balance followed by the
payments that settle the group. No database is needed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}
			in, err := readLedger(r)
			if err != nil {
				return err
			}
			out := runSettle(in)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}
			printSettle(cmd.OutOrStdout(), in, out, cents)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "ledger JSON file, - for stdin")
	cmd.Flags().BoolVar(&cents, "cents", false, "print amounts as integer cents")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

func readLedger(r io.Reader) (*settleInput, error) {
	var in settleInput
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return nil, fmt.Errorf("invalid ledger: %w", err)
	}
	return &in, nil
}

func runSettle(in *settleInput) settleOutput {
	balances := settle.Accumulate(in.Expenses, in.Members, in.Settlements)
	return settleOutput{
		Balances:     balances,
		Transactions: settle.Minimize(balances, in.Members),
	}
}

func printSettle(w io.Writer, in *settleInput, out settleOutput, cents bool) {
	amount := money.Format
	if cents {
		amount = func(v float64) string { return fmt.Sprintf("%d", money.Cents(v)) }
	}

	fmt.Fprintln(w, "Balances:")
	seen := make(map[string]bool, len(in.Members))
	for _, m := range in.Members {
		if seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		name := m.Name
		if name == "" {
			name = settle.UnknownName
		}
		fmt.Fprintf(w, "  %s: %s\n", name, amount(out.Balances.Get(m.ID)))
	}

	if len(out.Transactions) == 0 {
		fmt.Fprintln(w, "Everyone is settled up.")
		return
	}
	fmt.Fprintln(w, "Transactions:")
	for _, t := range out.Transactions {
		fmt.Fprintf(w, "  %s -> %s: %s\n", t.From, t.To, amount(t.Amount))
	}
}
