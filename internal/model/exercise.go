// Package model defines the Exercise entity and the requests that create and
// modify it.
package model

import (
	"errors"
	"time"

	"github.com/deppfellow/wikitype-api/internal/lib/utils"
)

var (
	ErrTitleRequired = errors.New("exercise title is required")
	ErrBodyRequired  = errors.New("exercise body is required")
	ErrIDRequired    = errors.New("exercise id is required")
	ErrTitleEmpty    = errors.New("exercise title cannot be empty")
	ErrBodyEmpty     = errors.New("exercise body cannot be empty")
)

// Exercise is a typing exercise as persisted in the exercises table.
type Exercise struct {
	ID         string    `gorm:"column:id;primaryKey;size:36" json:"id"`
	Title      string    `gorm:"column:title;size:255;not null" json:"title"`
	Body       string    `gorm:"column:body;type:text;not null" json:"body"`
	Topic      *string   `gorm:"column:topic;size:255" json:"topic"`
	CreatedOn  time.Time `gorm:"column:created_on;not null" json:"createdOn"`
	ModifiedOn time.Time `gorm:"column:modified_on;not null" json:"modifiedOn"`
}

func (Exercise) TableName() string {
	return "exercises"
}

// NewExerciseOptions are the caller supplied fields of a new exercise.
type NewExerciseOptions struct {
	Title string
	Body  string
	Topic *string
}

// NewExercise is a validated creation request. The identifier and both
// timestamps are generated when it is built and cannot be set by callers.
type NewExercise struct {
	id         string
	title      string
	body       string
	topic      *string
	createdOn  time.Time
	modifiedOn time.Time
}

// NewExerciseFrom builds a creation request, rejecting it when the title or
// body is empty.
func NewExerciseFrom(opts NewExerciseOptions) (NewExercise, error) {
	if opts.Title == "" {
		return NewExercise{}, ErrTitleRequired
	}
	if opts.Body == "" {
		return NewExercise{}, ErrBodyRequired
	}

	now := utils.Now()
	return NewExercise{
		id:         utils.NewIdentifier(),
		title:      opts.Title,
		body:       opts.Body,
		topic:      cloneString(opts.Topic),
		createdOn:  now,
		modifiedOn: now,
	}, nil
}

func (n NewExercise) ID() string            { return n.id }
func (n NewExercise) Title() string         { return n.title }
func (n NewExercise) Body() string          { return n.body }
func (n NewExercise) Topic() *string        { return cloneString(n.topic) }
func (n NewExercise) CreatedOn() time.Time  { return n.createdOn }
func (n NewExercise) ModifiedOn() time.Time { return n.modifiedOn }

// Record returns the row to insert.
func (n NewExercise) Record() Exercise {
	return Exercise{
		ID:         n.id,
		Title:      n.title,
		Body:       n.body,
		Topic:      cloneString(n.topic),
		CreatedOn:  n.createdOn,
		ModifiedOn: n.modifiedOn,
	}
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
