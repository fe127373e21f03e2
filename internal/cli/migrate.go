package cli

import (
	"github.com/deppfellow/wikitype-api/internal/database"
	"github.com/spf13/cobra"
)

func NewMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := loadEnvironment()
			if err != nil {
				return err
			}
			defer env.close()

			return database.Migrate(cmd.Context(), &env.logger, env.cfg)
		},
	}
}
