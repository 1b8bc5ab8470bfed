package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the release of the backoffice binary.
const Version = "0.1.0"

const modulePath = "github.com/mesh-intelligence/backoffice"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print the backoffice version",
		Annotations: map[string]string{skipConfig: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "backoffice v%s\nmodule: %s\n", Version, modulePath)
			return nil
		},
	}
}
