package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"

	"github.com/teamcutter/sml/internal/catalog"
)

func newVersionsCmd() *cobra.Command {
	var show int
	var snapshots bool

	cmd := &cobra.Command{
		Use:   "versions [query]",
		Short: "Search Minecraft versions",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			stop := withSpinner(cmd.Context(), "Fetching version manifest...")
			list, err := e.versions.Versions(cmd.Context())
			stop()
			if err != nil {
				return err
			}

			var entries []catalog.VersionEntry
			for _, v := range list.Versions {
				if v.Type == "release" || snapshots {
					entries = append(entries, v)
				}
			}

			if len(args) == 1 {
				ids := make([]string, len(entries))
				for i, v := range entries {
					ids[i] = v.ID
				}
				var matched []catalog.VersionEntry
				for _, m := range fuzzy.Find(args[0], ids) {
					matched = append(matched, entries[m.Index])
				}
				entries = matched
			}

			if len(entries) == 0 {
				fmt.Printf("%s No versions found\n", dim("○"))
				return nil
			}

			size := min(len(entries), show)
			fmt.Printf("Latest release %s, snapshot %s\n\n", green(list.Latest.Release), yellow(list.Latest.Snapshot))

			for _, v := range entries[:size] {
				line := fmt.Sprintf("%s %s", green("●"), bold(v.ID))
				if v.Type != "release" {
					line += " " + yellow(v.Type)
				}
				if !v.ReleaseTime.IsZero() {
					line += " " + dim(humanize.Time(v.ReleaseTime))
				}
				fmt.Println(line)
			}

			if len(entries) > size {
				fmt.Printf("\n%s %d more available, use %s to see all\n", dim("..."), len(entries)-size,
					cyan(fmt.Sprintf("--show %d", len(entries))))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&show, "show", "s", 20, "Show the first n versions")
	cmd.Flags().BoolVar(&snapshots, "snapshots", false, "Include snapshots and old betas")
	return cmd
}

