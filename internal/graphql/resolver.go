package graphql

import (
	"context"

	"github.com/deppfellow/wikitype-api/internal/dao"
	"github.com/deppfellow/wikitype-api/internal/model"
)

// Resolver is the root of both Query and Mutation. It holds no state besides
// the pool; every field acquires its own DAO for one operation.
type Resolver struct {
	pool dao.Pool
}

func NewResolver(pool dao.Pool) *Resolver {
	return &Resolver{pool: pool}
}

func (r *Resolver) APIVersion() string {
	return APIVersion
}

func (r *Resolver) Exercise(ctx context.Context, args struct{ ID string }) (*ExerciseResolver, error) {
	return r.run(ctx, func(exercises dao.ExerciseDAO) (model.Exercise, error) {
		return exercises.FindByID(ctx, args.ID)
	})
}

func (r *Resolver) CreateExercise(ctx context.Context, args struct{ Input NewExerciseInput }) (*ExerciseResolver, error) {
	req, err := args.Input.toModel()
	if err != nil {
		return nil, badRequest(err)
	}

	return r.run(ctx, func(exercises dao.ExerciseDAO) (model.Exercise, error) {
		return exercises.Create(ctx, req)
	})
}

func (r *Resolver) UpdateExercise(ctx context.Context, args struct{ Input UpdatedExerciseInput }) (*ExerciseResolver, error) {
	req, err := args.Input.toModel()
	if err != nil {
		return nil, badRequest(err)
	}

	return r.run(ctx, func(exercises dao.ExerciseDAO) (model.Exercise, error) {
		return exercises.Update(ctx, req)
	})
}

func (r *Resolver) DeleteExerciseByID(ctx context.Context, args struct{ ID string }) (*ExerciseResolver, error) {
	return r.run(ctx, func(exercises dao.ExerciseDAO) (model.Exercise, error) {
		return exercises.DeleteByID(ctx, args.ID)
	})
}

func (r *Resolver) run(ctx context.Context, op func(dao.ExerciseDAO) (model.Exercise, error)) (*ExerciseResolver, error) {
	var exercise model.Exercise
	err := r.pool.WithExercises(ctx, func(exercises dao.ExerciseDAO) error {
		var err error
		exercise, err = op(exercises)
		return err
	})
	if err != nil {
		return nil, resolverError(ctx, err)
	}
	return &ExerciseResolver{exercise: exercise}, nil
}
