package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/teamcutter/sml/internal/cache"
	"github.com/teamcutter/sml/internal/config"
)

func newClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear the download cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			c, err := cache.New(cfg.CacheDir)
			if err != nil {
				return err
			}

			size, _ := c.Size()

			if err := c.Clear(); err != nil {
				return fmt.Errorf("failed to clear cache: %w", err)
			}

			fmt.Printf("%s Cache cleared (%s freed)\n", green("✓"), humanize.Bytes(uint64(size)))
			return nil
		},
	}
}
