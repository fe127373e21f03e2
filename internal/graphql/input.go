package graphql

import (
	"unicode/utf8"

	"github.com/deppfellow/wikitype-api/internal/model"
	"github.com/go-playground/validator/v10"
	gql "github.com/graph-gophers/graphql-go"
)

const maxTopicLength = 255

var validate = validator.New(validator.WithRequiredStructEnabled())

type NewExerciseInput struct {
	Title string  `validate:"max=255"`
	Body  string
	Topic *string `validate:"omitempty,max=255"`
}

func (in NewExerciseInput) toModel() (model.NewExercise, error) {
	if err := validate.Struct(in); err != nil {
		return model.NewExercise{}, err
	}

	return model.NewExerciseFrom(model.NewExerciseOptions{
		Title: in.Title,
		Body:  in.Body,
		Topic: in.Topic,
	})
}

// UpdatedExerciseInput distinguishes an omitted topic (Set false) from an
// explicit null (Set true, Value nil).
type UpdatedExerciseInput struct {
	ID    string
	Title *string `validate:"omitempty,max=255"`
	Body  *string
	Topic gql.NullString
}

func (in UpdatedExerciseInput) toModel() (model.UpdatedExercise, error) {
	if err := validate.Struct(in); err != nil {
		return model.UpdatedExercise{}, err
	}

	topic := model.KeepTopic()
	switch {
	case !in.Topic.Set:
	case in.Topic.Value == nil:
		topic = model.ClearTopic()
	default:
		if utf8.RuneCountInString(*in.Topic.Value) > maxTopicLength {
			return model.UpdatedExercise{}, errTopicTooLong
		}
		topic = model.SetTopic(*in.Topic.Value)
	}

	return model.UpdatedExerciseFrom(model.UpdatedExerciseOptions{
		ID:    in.ID,
		Title: in.Title,
		Body:  in.Body,
		Topic: topic,
	})
}
