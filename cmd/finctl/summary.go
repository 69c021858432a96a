package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"finassist/internal/core"
	"finassist/internal/services"
)

var flagMonths int

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print a user's monthly summary as JSON",
	Args:  cobra.NoArgs,
	RunE:  runSummary,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print income, expenses and budget for recent months",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Recompute a month's alerts and store new notifications",
	Args:  cobra.NoArgs,
	RunE:  runAlerts,
}

func init() {
	addUserMonthFlags(summaryCmd)
	addUserMonthFlags(historyCmd)
	addUserMonthFlags(alertsCmd)
	historyCmd.Flags().IntVarP(&flagMonths, "months", "n", services.DefaultHistoryMonths, "Number of months, ending at --month")
	rootCmd.AddCommand(summaryCmd, historyCmd, alertsCmd)
}

func selectedMonth(s *session) (core.Month, error) {
	if flagMonth == "" {
		return s.finance.CurrentMonth(), nil
	}
	return core.ParseMonth(flagMonth)
}

func runSummary(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	month, err := selectedMonth(s)
	if err != nil {
		return err
	}
	summary, err := s.finance.Summary(cmd.Context(), flagUser, month)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	end, err := selectedMonth(s)
	if err != nil {
		return err
	}
	rows, err := s.finance.History(cmd.Context(), flagUser, end, flagMonths)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "MONTH\tINCOME\tEXPENSES\tBUDGET\t")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n", r.Month, r.Income.StringFixed(2), r.Expenses.StringFixed(2), r.Budget.StringFixed(2))
	}
	return tw.Flush()
}

func runAlerts(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	month, err := selectedMonth(s)
	if err != nil {
		return err
	}
	added, err := s.finance.RecordAlerts(cmd.Context(), flagUser, month)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d new notification(s) for %s %s\n", added, flagUser, month)
	return nil
}
