package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/teamcutter/sml/internal/auth"
)

func newAuthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Log in to Mojang and update every instance's session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			email, err := prompt("Log in to mojang\nEmail: ")
			if err != nil {
				return err
			}

			fmt.Print("Password: ")
			password, err := term.ReadPassword(int(os.Stdin.Fd()))
			fmt.Println()
			if err != nil {
				return fmt.Errorf("reading password: %w", err)
			}

			client := auth.New(e.cfg.AuthURL, nil)
			user, err := client.Authenticate(cmd.Context(), strings.TrimSpace(email), string(password))
			if err != nil {
				fmt.Printf("%s %v\n", red("✗"), err)
				return fmt.Errorf("authentication failed")
			}

			if err := auth.Save(e.cfg.UserFile, user); err != nil {
				return err
			}

			n, err := e.mgr.UpdateCredentials(user)
			if err != nil {
				return err
			}

			fmt.Printf("%s Logged in as %s\n", green("✓"), bold(user.Name))
			if n > 0 {
				fmt.Printf("  %s %d instance(s) updated\n", dim("↳"), n)
			}
			return nil
		},
	}
}
