package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teamcutter/sml/internal/invoker"
)

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config <id> [-- jvm-args...]",
		Short: "Set custom JVM arguments for an instance",
		Long:  "Set custom JVM arguments for an instance. Without arguments after --, they are read from stdin.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			custom := args[1:]
			if len(custom) == 0 {
				line, err := prompt("Enter custom java flags: ")
				if err != nil {
					return err
				}
				custom = strings.Fields(line)
			}

			inst, err := e.mgr.Configure(args[0], custom)
			if err != nil {
				return err
			}
			fmt.Printf("%s %s %s\n", green("✓"), bold(inst.Name), dim(strings.Join(custom, " ")))
			return nil
		},
	}
}

func newPrintConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "print-config <id>",
		Short: "Show the launch configuration of an instance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			inst, inv, err := e.mgr.Invocation(args[0])
			if err != nil {
				return err
			}

			fmt.Printf("%s %s\n", bold(inst.Name), dim("("+inst.ShortID()+")"))
			fmt.Printf("  %s %s\n", cyan("path:"), inst.Path)
			fmt.Printf("  %s %s\n", cyan("java:"), inv.Java)
			fmt.Printf("  %s %s\n", cyan("user:"), inv.UserName)
			fmt.Printf("  %s %s\n", cyan("flags:"), strings.Join(inv.CustomArgs, " "))
			fmt.Printf("\n%s\n", dim(invoker.String(inv)))
			return nil
		},
	}
}
