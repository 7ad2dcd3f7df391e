package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	up_mcp "github.com/kumolabai/upctl/pkg/mcp"
	"github.com/kumolabai/upctl/pkg/up"
	"github.com/spf13/cobra"
)

var recentTransactions int

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the Up API token and show a summary of your data",
	Long: `Call the Up API directly, without MCP, to confirm the token works before
wiring upctl into an LLM client. Prints your accounts, a few recent
transactions and a sample of categories.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		client, err := newClient(cfg, newLogger())
		if err != nil {
			return err
		}

		return runCheck(cmd.Context(), client, cmd.OutOrStdout(), recentTransactions)
	},
}

func runCheck(ctx context.Context, api up_mcp.API, out io.Writer, limit int) error {
	fmt.Fprintln(out, "Checking the Up API connection...")

	ping, err := api.Ping(ctx)
	if err != nil {
		return checkFailed("authentication", err)
	}
	fmt.Fprintf(out, "\nAuthentication successful %s (id %s)\n", ping.Meta.StatusEmoji, ping.Meta.ID)

	accounts, err := api.ListAccounts(ctx, up.AccountFilter{})
	if err != nil {
		return checkFailed("accounts", err)
	}
	fmt.Fprintf(out, "\nFound %d account(s)\n", len(accounts.Data))
	renderAccounts(out, accounts.Data)

	if len(accounts.Data) > 0 && limit > 0 {
		transactions, err := api.ListTransactions(ctx, up.TransactionFilter{PageSize: limit})
		if err != nil {
			return checkFailed("transactions", err)
		}
		fmt.Fprintf(out, "\nRetrieved %d recent transaction(s)\n", len(transactions.Data))
		renderTransactions(out, transactions.Data)
	}

	categories, err := api.ListCategories(ctx, up.CategoryFilter{})
	if err != nil {
		return checkFailed("categories", err)
	}
	fmt.Fprintf(out, "\nFound %d categories\n", len(categories.Data))
	if len(categories.Data) > 0 {
		var names []string
		for _, c := range categories.Data[:min(5, len(categories.Data))] {
			names = append(names, c.Attributes.Name)
		}
		fmt.Fprintf(out, "  Sample: %s...\n", strings.Join(names, ", "))
	}

	fmt.Fprintln(out, "\nAll checks passed. Your Up API token is working.")
	return nil
}

func checkFailed(step string, err error) error {
	if up.IsUnauthorized(err) {
		return fmt.Errorf("%s check failed: %w\nthe API token is invalid or expired, generate a new one in the Up app", step, err)
	}
	return fmt.Errorf("%s check failed: %w", step, err)
}

func renderAccounts(out io.Writer, accounts []up.AccountResource) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(table.Row{"Name", "Type", "Ownership", "Balance"})
	for _, a := range accounts {
		t.AppendRow(table.Row{
			a.Attributes.DisplayName,
			a.Attributes.AccountType,
			a.Attributes.OwnershipType,
			formatMoney(a.Attributes.Balance),
		})
	}
	t.Render()
}

func renderTransactions(out io.Writer, transactions []up.TransactionResource) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(table.Row{"#", "Date", "Description", "Amount", "Status"})
	for i, txn := range transactions {
		t.AppendRow(table.Row{
			i + 1,
			txn.Attributes.CreatedAt.Format("2006-01-02"),
			txn.Attributes.Description,
			formatMoney(txn.Attributes.Amount),
			txn.Attributes.Status,
		})
	}
	t.Render()
}

func formatMoney(m up.Money) string {
	sign, value := "", m.Value
	if strings.HasPrefix(value, "-") {
		sign, value = "-", value[1:]
	}
	if m.CurrencyCode == "" || m.CurrencyCode == "AUD" {
		return sign + "$" + value
	}
	return sign + value + " " + m.CurrencyCode
}

func init() {
	checkCmd.Flags().IntVar(&recentTransactions, "transactions", 5, "number of recent transactions to show")
	rootCmd.AddCommand(checkCmd)
}
