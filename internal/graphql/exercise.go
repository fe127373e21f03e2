package graphql

import (
	"github.com/deppfellow/wikitype-api/internal/model"
	gql "github.com/graph-gophers/graphql-go"
)

type ExerciseResolver struct {
	exercise model.Exercise
}

func (r *ExerciseResolver) ID() string     { return r.exercise.ID }
func (r *ExerciseResolver) Title() string  { return r.exercise.Title }
func (r *ExerciseResolver) Body() string   { return r.exercise.Body }
func (r *ExerciseResolver) Topic() *string { return r.exercise.Topic }

func (r *ExerciseResolver) CreatedOn() gql.Time {
	return gql.Time{Time: r.exercise.CreatedOn.UTC()}
}

func (r *ExerciseResolver) ModifiedOn() gql.Time {
	return gql.Time{Time: r.exercise.ModifiedOn.UTC()}
}
