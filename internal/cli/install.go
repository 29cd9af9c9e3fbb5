package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teamcutter/sml/internal/auth"
	"github.com/teamcutter/sml/internal/domain"
)

func newInstallCmd() *cobra.Command {
	var file int

	cmd := &cobra.Command{
		Use:   "install <project-id>",
		Short: "Install a Forge modpack from CurseForge",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid project id %q", args[0])
			}

			e, err := newEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			user, err := auth.Load(e.cfg.UserFile)
			if err != nil {
				if errors.Is(err, domain.ErrNotAuthenticated) {
					fmt.Printf("%s Please authenticate first with %s\n", red("✗"), cyan("sml auth"))
				}
				return err
			}

			ctx := cmd.Context()
			if file < 0 {
				stop := withSpinner(ctx, fmt.Sprintf("Looking up project %d...", projectID))
				project, err := e.mgr.Project(ctx, projectID)
				stop()
				if err != nil {
					return err
				}

				if file, err = chooseFile(project); err != nil {
					return err
				}
			}

			inst, err := e.mgr.InstallPack(ctx, projectID, file, user)
			if err != nil {
				fmt.Printf("%s %v\n", red("✗"), err)
				return fmt.Errorf("failed to install project %d", projectID)
			}

			fmt.Printf("\n%s %s %s\n  %s %s\n  %s %s\n",
				green("✓"), bold(inst.Name), dim("("+inst.ShortID()+")"),
				cyan("forge:"), inst.Loader,
				cyan("path:"), inst.Path)
			return nil
		},
	}

	cmd.Flags().IntVarP(&file, "file", "f", -1, "Index of the project file to install, prompts when unset")
	return cmd
}

func chooseFile(project *domain.Project) (int, error) {
	if len(project.Files) == 0 {
		return 0, fmt.Errorf("%s has no files", project.Title)
	}

	fmt.Printf("%s\n\n", bold(project.Title))
	for i, f := range project.Files {
		fmt.Printf("  [%s]: %s - %s@%s\n", yellow(i), f.Display, f.Type, f.Version)
	}

	answer, err := prompt("\nChoose version (Enter a number): ")
	if err != nil {
		return 0, err
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return 0, nil
	}

	n, err := strconv.Atoi(answer)
	if err != nil || n < 0 || n >= len(project.Files) {
		fmt.Fprintf(os.Stderr, "%s invalid choice %q\n", red("✗"), answer)
		return 0, fmt.Errorf("invalid choice %q", answer)
	}
	return n, nil
}
