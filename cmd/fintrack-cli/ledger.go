package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"fintrack/internal/cli"
)

func classifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <description>",
		Short: "Show the category Gemini picks for a description",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := cli.NewApp(cmd.Context(), cfg, logger, false)
			defer app.Close()

			res := app.Ledger.Classify(cmd.Context(), strings.Join(args, " "))
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n",
				cli.CategoryStyle(res.Category).Render(string(res.Category)),
				cli.SubtleStyle.Render("("+res.Icon+")"))
			return nil
		},
	}
}

func askCmd() *cobra.Command {
	var owner string
	cmd := &cobra.Command{
		Use:   "ask <query>",
		Short: "Ask the assistant about an owner's ledger",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := cli.NewApp(cmd.Context(), cfg, logger, false)
			defer app.Close()

			answer, err := app.Ledger.Ask(cmd.Context(), owner, strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.BoxStyle.Render(answer))
			return nil
		},
	}
	ownerFlag(cmd, &owner)
	return cmd
}

func summaryCmd() *cobra.Command {
	var (
		owner string
		year  int
	)
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the balance, category totals and monthly totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := cli.NewApp(cmd.Context(), cfg, logger, false)
			defer app.Close()

			if year == 0 {
				year = app.Ledger.Year()
			}
			s, err := app.Ledger.Summary(cmd.Context(), owner, year)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.TitleStyle.Render(fmt.Sprintf("Summary for %s, %d", owner, s.Year)))
			fmt.Fprintf(out, "Balance   %s\n", cli.MoneyStyle(s.Balance).Render(s.Balance.String()))
			fmt.Fprintf(out, "Incomes   %s\n", s.TotalIncomes)
			fmt.Fprintf(out, "Expenses  %s\n\n", s.TotalExpenses)

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, cli.BoldStyle.Render("Category")+"\t"+cli.BoldStyle.Render("Total"))
			for _, c := range s.ByCategory {
				fmt.Fprintf(w, "%s\t%s\n", cli.CategoryStyle(c.Category).Render(string(c.Category)), c.Total)
			}
			if len(s.ByCategory) == 0 {
				fmt.Fprintln(w, cli.SubtleStyle.Render("no expenses")+"\t")
			}
			fmt.Fprintln(w, "\t")
			fmt.Fprintln(w, cli.BoldStyle.Render("Month")+"\t"+cli.BoldStyle.Render("Income")+"\t"+cli.BoldStyle.Render("Expense"))
			for _, m := range s.Monthly {
				fmt.Fprintf(w, "%s\t%s\t%s\n", m.Month.String()[:3], m.Income, m.Expense)
			}
			return w.Flush()
		},
	}
	ownerFlag(cmd, &owner)
	cmd.Flags().IntVar(&year, "year", 0, "calendar year for the monthly totals (default: current year)")
	return cmd
}
