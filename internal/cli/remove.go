package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <id>...",
		Aliases: []string{"rm"},
		Short:   "Remove instances and their files",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			fmt.Printf("Removing %d instance(s)...\n", len(args))

			var failed int
			for _, arg := range args {
				inst, err := e.mgr.Remove(arg)
				if err != nil {
					fmt.Printf("\n%s %s: %v\n", red("✗"), arg, err)
					failed++
					continue
				}
				fmt.Printf("\n%s %s %s\n", green("✓"), bold(inst.Name), dim("("+inst.ShortID()+")"))
			}

			if failed > 0 {
				return fmt.Errorf("failed to remove %d instance(s)", failed)
			}
			return nil
		},
	}
}
