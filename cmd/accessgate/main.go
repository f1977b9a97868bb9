package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/fitdesk/accessgate/internal/interfaces/cli/configcmd"
	"github.com/fitdesk/accessgate/internal/interfaces/cli/migrate"
	"github.com/fitdesk/accessgate/internal/interfaces/cli/server"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "accessgate",
		Short: "AccessGate - gym access-control integration service",
		Long:  `AccessGate connects branch door controllers on the Hikvision cloud to member management: credentials, device sync, access privileges and entry events.`,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
		configcmd.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
