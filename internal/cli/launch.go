package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teamcutter/sml/internal/domain"
)

func newLaunchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "launch <id>",
		Short: "Launch an instance by id prefix or name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			err = e.mgr.Launch(cmd.Context(), args[0], os.Stdout, os.Stderr)
			if errors.Is(err, domain.ErrNotAuthenticated) {
				fmt.Printf("%s No session stored for this instance, run %s\n", red("✗"), cyan("sml auth"))
			}
			return err
		},
	}
}
