package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teamcutter/sml/internal/auth"
)

func newVanillaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vanilla <version>",
		Short: "Install an unmodded Minecraft version (or latest, snapshot)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			user, err := auth.Load(e.cfg.UserFile)
			if err != nil {
				return err
			}

			inst, err := e.mgr.InstallVanilla(cmd.Context(), args[0], user)
			if err != nil {
				fmt.Printf("%s %v\n", red("✗"), err)
				return fmt.Errorf("failed to install %s", args[0])
			}

			fmt.Printf("\n%s %s %s\n  %s %s\n",
				green("✓"), bold(inst.Name), dim("("+inst.ShortID()+")"),
				cyan("path:"), inst.Path)
			return nil
		},
	}
}
