package model

import (
	"time"

	"github.com/deppfellow/wikitype-api/internal/lib/utils"
)

type topicOp uint8

const (
	topicKeep topicOp = iota
	topicClear
	topicSet
)

// TopicUpdate describes what an update does to the topic column: leave it
// alone, clear it, or set it to a value. The zero value leaves it alone.
type TopicUpdate struct {
	op    topicOp
	value string
}

func KeepTopic() TopicUpdate  { return TopicUpdate{op: topicKeep} }
func ClearTopic() TopicUpdate { return TopicUpdate{op: topicClear} }

func SetTopic(value string) TopicUpdate {
	return TopicUpdate{op: topicSet, value: value}
}

func (t TopicUpdate) IsKeep() bool  { return t.op == topicKeep }
func (t TopicUpdate) IsClear() bool { return t.op == topicClear }

// Value reports the topic to store when the update sets one.
func (t TopicUpdate) Value() (string, bool) {
	return t.value, t.op == topicSet
}

// UpdatedExerciseOptions are the caller supplied fields of a partial update.
// Nil pointers leave the column untouched.
type UpdatedExerciseOptions struct {
	ID    string
	Title *string
	Body  *string
	Topic TopicUpdate
}

// UpdatedExercise is a validated partial update. modifiedOn is stamped when
// it is built.
type UpdatedExercise struct {
	id         string
	title      *string
	body       *string
	topic      TopicUpdate
	modifiedOn time.Time
}

// UpdatedExerciseFrom builds an update request, rejecting it when the id is
// empty or when it would set the title or body to the empty string.
func UpdatedExerciseFrom(opts UpdatedExerciseOptions) (UpdatedExercise, error) {
	if opts.ID == "" {
		return UpdatedExercise{}, ErrIDRequired
	}
	if opts.Title != nil && *opts.Title == "" {
		return UpdatedExercise{}, ErrTitleEmpty
	}
	if opts.Body != nil && *opts.Body == "" {
		return UpdatedExercise{}, ErrBodyEmpty
	}

	return UpdatedExercise{
		id:         opts.ID,
		title:      cloneString(opts.Title),
		body:       cloneString(opts.Body),
		topic:      opts.Topic,
		modifiedOn: utils.Now(),
	}, nil
}

func (u UpdatedExercise) ID() string            { return u.id }
func (u UpdatedExercise) Title() *string        { return cloneString(u.title) }
func (u UpdatedExercise) Body() *string         { return cloneString(u.body) }
func (u UpdatedExercise) Topic() TopicUpdate    { return u.topic }
func (u UpdatedExercise) ModifiedOn() time.Time { return u.modifiedOn }

// Changes returns the column assignments of the update. modified_on is
// always present; created_on never is.
func (u UpdatedExercise) Changes() map[string]interface{} {
	changes := map[string]interface{}{
		"modified_on": u.modifiedOn,
	}
	if u.title != nil {
		changes["title"] = *u.title
	}
	if u.body != nil {
		changes["body"] = *u.body
	}

	switch {
	case u.topic.IsClear():
		changes["topic"] = nil
	case !u.topic.IsKeep():
		value, _ := u.topic.Value()
		changes["topic"] = value
	}

	return changes
}
