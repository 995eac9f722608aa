package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// NewOpsCommand creates the ops command listing the operations of render.
func NewOpsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ops",
		Short: "List the operations accepted by render --op",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return listOps(rootOpts.Format, cmd.OutOrStdout())
		},
	}
}

func listOps(format string, out io.Writer) error {
	names := OperationNames()
	if format == "json" {
		return writeJSON(out, names)
	}
	for _, name := range names {
		if _, err := fmt.Fprintln(out, name); err != nil {
			return err
		}
	}
	return nil
}
