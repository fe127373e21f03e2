package cli

import (
	"github.com/deppfellow/wikitype-api/internal/dao"
	"github.com/deppfellow/wikitype-api/internal/database"
	"github.com/deppfellow/wikitype-api/internal/lib/utils"
	"github.com/deppfellow/wikitype-api/internal/model"
	"github.com/deppfellow/wikitype-api/internal/repository"
	"github.com/spf13/cobra"
)

const albatrossBody = "Ah, the albatross! A majestic seabird gliding over the ocean waves, " +
	"wings outstretched, riding the wind for hours without a single beat."

type SeedOptions struct {
	Title string
	Body  string
	Topic string
}

func NewSeedCommand() *cobra.Command {
	opts := &SeedOptions{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create a sample exercise and print it as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := loadEnvironment()
			if err != nil {
				return err
			}
			defer env.close()

			req, err := model.NewExerciseFrom(opts.exercise())
			if err != nil {
				return err
			}

			db, err := database.New(env.cfg, &env.logger, env.loggerService)
			if err != nil {
				return err
			}
			defer db.Close()

			ctx := env.logger.WithContext(cmd.Context())
			pool := repository.NewExercisePool(db.DB, db.RowLocking(), db.AcquireTimeout)

			var created model.Exercise
			err = pool.WithExercises(ctx, func(exercises dao.ExerciseDAO) error {
				created, err = exercises.Create(ctx, req)
				return err
			})
			if err != nil {
				return err
			}

			return utils.PrintJSON(cmd.OutOrStdout(), created)
		},
	}

	cmd.Flags().StringVar(&opts.Title, "title", "Albatross", "exercise title")
	cmd.Flags().StringVar(&opts.Body, "body", albatrossBody, "exercise body")
	cmd.Flags().StringVar(&opts.Topic, "topic", "", "exercise topic, empty for none")

	return cmd
}

func (o *SeedOptions) exercise() model.NewExerciseOptions {
	opts := model.NewExerciseOptions{Title: o.Title, Body: o.Body}
	if o.Topic != "" {
		topic := o.Topic
		opts.Topic = &topic
	}
	return opts
}
