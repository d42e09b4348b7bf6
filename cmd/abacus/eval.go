package main

import (
	"strconv"
	"strings"

	"github.com/aretw0/abacus"
	"github.com/aretw0/abacus/internal/cli"
	"github.com/aretw0/abacus/pkg/domain"
	"github.com/spf13/cobra"
)

var evalCmd = &cobra.Command{
	Use:   "eval <expression>...",
	Short: "Evaluate expressions and print the results",
	Long: `Evaluates each argument as a complete expression with standard precedence
(^ binds tightest and is right-associative) and prints it as the display would.
Exits with status 1 if any expression fails.`,
	Example: `  abacus eval "2+3*4" "(1+2)^3"
  abacus eval --json "1/3"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonMode, _ := cmd.Flags().GetBool("json")
		return cli.Evaluate(cmd.OutOrStdout(), abacus.New(), args, jsonMode)
	},
}

var fnCmd = &cobra.Command{
	Use:   "fn <function> <value>",
	Short: "Apply a scientific function to a value",
	Long: `Applies one of sin, cos, tan, asin, acos, atan, ln, log, exp, 10^x, sqrt or fact.
Trigonometric functions read and inverse functions return degrees unless --angle rad is set.`,
	Example: `  abacus fn sin 30
  abacus fn atan 1 --angle rad`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonMode, _ := cmd.Flags().GetBool("json")
		angle, _ := cmd.Flags().GetString("angle")

		x, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return err
		}
		return cli.ApplyFunction(cmd.OutOrStdout(), abacus.New(), args[0], x, domain.AngleMode(strings.ToLower(angle)), jsonMode)
	},
}

func init() {
	rootCmd.AddCommand(evalCmd)
	rootCmd.AddCommand(fnCmd)

	evalCmd.Flags().Bool("json", false, "Print one JSON object per expression")
	fnCmd.Flags().Bool("json", false, "Print the result as JSON")
	fnCmd.Flags().String("angle", string(domain.Degrees), "Angle mode: deg or rad")
}
