package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> [name]",
		Short: "Rename an instance",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			var name string
			if len(args) == 2 {
				name = args[1]
			} else if name, err = prompt("Enter the new name: "); err != nil {
				return err
			}

			inst, err := e.mgr.Rename(args[0], strings.TrimSpace(name))
			if err != nil {
				return err
			}
			fmt.Printf("%s %s renamed to %s\n", green("✓"), dim(inst.ShortID()), bold(inst.Name))
			return nil
		},
	}
}
