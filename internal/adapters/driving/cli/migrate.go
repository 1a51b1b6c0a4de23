package cli

import (
	"github.com/spf13/cobra"

	"github.com/Januuus/chatbot/internal/config"
)

var migrateCmd = &cobra.Command{
	Use:     "migrate",
	Aliases: []string{"init-db"},
	Short:   "Apply database migrations",
	Args:    cobra.NoArgs,
	RunE:    runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)

	rt, err := openRuntime(ctx, config.StorageRequirements)
	if err != nil {
		return err
	}
	defer rt.Close()

	v, err := rt.schemaVersion(ctx)
	if err != nil {
		return err
	}
	cmd.Printf("Database is at schema version %d\n", v)
	return nil
}
