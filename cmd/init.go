package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/leadops-cli/internal/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config.yaml in the current directory",
	RunE: func(cmd *cobra.Command, _ []string) error {
		const path = "config.yaml"

		if !initForce {
			if _, err := os.Stat(path); err == nil {
				return eris.Errorf("%s already exists (use --force to overwrite)", path)
			}
		}

		starter := config.Config{
			Store: config.StoreConfig{
				Driver: "sqlite",
				Path:   "leadops.db",
			},
			Anthropic: config.AnthropicConfig{
				HaikuModel:  "claude-haiku-4-5-20251001",
				SonnetModel: "claude-sonnet-4-5-20250929",
			},
			Forge: config.ForgeConfig{
				Version:     1,
				TimeoutSecs: 120,
			},
			Discovery: config.DiscoveryConfig{
				FetchRatePerSec: 2.0,
			},
			Server: config.ServerConfig{Port: 8080},
			Log:    config.LogConfig{Level: "info", Format: "json"},
		}

		data, err := yaml.Marshal(&starter)
		if err != nil {
			return eris.Wrap(err, "marshal starter config")
		}

		if err := os.WriteFile(path, data, 0o644); err != nil {
			return eris.Wrap(err, "write config file")
		}

		fmt.Printf("Wrote %s. Set LEADOPS_ANTHROPIC_KEY to enable strategy generation.\n", path)
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config.yaml")
	rootCmd.AddCommand(initCmd)
}
