package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"finassist/internal/core"
)

var flagCategory string

var classifyCmd = &cobra.Command{
	Use:   "classify <description>...",
	Short: "Show the category an expense description is filed under",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runClassify,
}

func init() {
	classifyCmd.Flags().StringVar(&flagCategory, "category", "", "Category supplied with the expense")
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	desc := strings.Join(args, " ")
	fmt.Fprintln(cmd.OutOrStdout(), core.ResolveCategory(core.DefaultCategoryRules, flagCategory, desc))
	return nil
}
