// Package dao declares the data access contract for exercises and the error
// taxonomy every backend reports in.
package dao

import (
	"context"

	"github.com/deppfellow/wikitype-api/internal/model"
)

type Creator[N, T any] interface {
	Create(ctx context.Context, req N) (T, error)
}

type Finder[ID, T any] interface {
	FindByID(ctx context.Context, id ID) (T, error)
}

type Updater[U, T any] interface {
	Update(ctx context.Context, req U) (T, error)
}

type Deleter[ID, T any] interface {
	DeleteByID(ctx context.Context, id ID) (T, error)
}

// ExerciseDAO is satisfied by any type implementing the four capabilities
// for exercises.
type ExerciseDAO interface {
	Creator[model.NewExercise, model.Exercise]
	Finder[string, model.Exercise]
	Updater[model.UpdatedExercise, model.Exercise]
	Deleter[string, model.Exercise]
}

// Pool hands out an ExerciseDAO bound to one exclusive connection for the
// duration of fn. The connection is released when fn returns.
type Pool interface {
	WithExercises(ctx context.Context, fn func(ExerciseDAO) error) error
}
