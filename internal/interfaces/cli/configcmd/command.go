// Package configcmd prints the effective configuration.
package configcmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/fitdesk/accessgate/internal/infrastructure/config"
	"github.com/fitdesk/accessgate/internal/shared/utils"
)

var (
	env        string
	configPath string
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long:  `Print the configuration after defaults, config file and ACCESSGATE_* environment overrides are applied. Passwords are masked.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "", "Environment (development, test, production)")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file (default: ./configs/config.yaml)")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(env, configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	out, err := Render(cfg)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}

// Render marshals cfg to YAML with secrets masked. cfg itself is not modified.
func Render(cfg *config.Config) ([]byte, error) {
	masked := *cfg
	masked.Database.Password = utils.MaskSecret(cfg.Database.Password)
	masked.Redis.Password = utils.MaskSecret(cfg.Redis.Password)

	out, err := yaml.Marshal(&masked)
	if err != nil {
		return nil, fmt.Errorf("failed to render config: %w", err)
	}
	return out, nil
}
