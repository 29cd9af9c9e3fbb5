package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List installed instances",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			if removed := e.mgr.Prune(); len(removed) > 0 {
				for _, inst := range removed {
					fmt.Printf("%s %s removed externally\n", dim("○"), inst.Name)
				}
				fmt.Println()
			}

			instances, err := e.mgr.List()
			if err != nil {
				return err
			}

			if len(instances) == 0 {
				fmt.Printf("%s No instances installed\n", dim("○"))
				return nil
			}

			fmt.Printf("Installed instances:\n\n")
			for _, inst := range instances {
				version := inst.MCVersion
				if inst.Loader != "" {
					version += " " + inst.Loader
				}
				fmt.Printf(" %s  %s  %s  %s\n",
					yellow(inst.ShortID()), bold(inst.Name), cyan(version), dim(humanize.Time(inst.InstalledAt)))
			}
			return nil
		},
	}
}
