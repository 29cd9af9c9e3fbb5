package cli

import (
	"fmt"
	"strconv"

	"github.com/skratchdot/open-golang/open"
	"github.com/spf13/cobra"
)

const projectPageURL = "https://www.curseforge.com/projects/"

func newOpenCmd() *cobra.Command {
	var project bool

	cmd := &cobra.Command{
		Use:   "open <id>",
		Short: "Open an instance directory, or a CurseForge project page with --project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if project {
				id, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid project id %q", args[0])
				}
				return open.Run(projectPageURL + strconv.Itoa(id))
			}

			e, err := newEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			inst, err := e.mgr.Find(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s %s\n", green("●"), inst.Path)
			return open.Run(inst.Path)
		},
	}

	cmd.Flags().BoolVarP(&project, "project", "p", false, "Treat the argument as a CurseForge project id")
	return cmd
}
