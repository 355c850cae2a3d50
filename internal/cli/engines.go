package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/sqllogictest/internal/engine"
)

// EnginesResult lists the registered engines.
type EnginesResult struct {
	Default string   `json:"default"`
	Engines []string `json:"engines"`
}

// NewEnginesCommand creates the engines command.
func NewEnginesCommand(rootOpts *RootOptions, reg *engine.Registry) *cobra.Command {
	return &cobra.Command{
		Use:   "engines",
		Short: "List the database engines scripts can run against",
		Long: `List the database engines scripts can run against.

The first engine is used when --engine is not given.

Examples:
  slt engines
  slt engines --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := &OutputFormatter{
				Format: rootOpts.Format,
				Writer: cmd.OutOrStdout(),
			}
			if rootOpts.Format == "json" {
				return formatter.Success(EnginesResult{
					Default: reg.Default().Name,
					Engines: reg.Names(),
				})
			}

			w := cmd.OutOrStdout()
			for _, name := range reg.Names() {
				if name == reg.Default().Name {
					fmt.Fprintf(w, "%s (default)\n", name)
					continue
				}
				fmt.Fprintln(w, name)
			}
			return nil
		},
	}
}

func joinNames(reg *engine.Registry) string {
	return strings.Join(reg.Names(), ", ")
}
