package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/deppfellow/wikitype-api/internal/dao"
	"github.com/deppfellow/wikitype-api/internal/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryPool is an in-process dao.Pool for resolver tests.
type memoryPool struct {
	mu        sync.Mutex
	rows      map[string]model.Exercise
	failWith  error
	lastInput interface{}
}

func newMemoryPool() *memoryPool {
	return &memoryPool{rows: map[string]model.Exercise{}}
}

func (p *memoryPool) WithExercises(_ context.Context, fn func(dao.ExerciseDAO) error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failWith != nil {
		return p.failWith
	}
	return fn(p)
}

func (p *memoryPool) Create(_ context.Context, req model.NewExercise) (model.Exercise, error) {
	p.lastInput = req
	rec := req.Record()
	p.rows[rec.ID] = rec
	return rec, nil
}

func (p *memoryPool) FindByID(_ context.Context, id string) (model.Exercise, error) {
	rec, ok := p.rows[id]
	if !ok {
		return model.Exercise{}, dao.E(dao.KindNotFound, "find_by_id", nil)
	}
	return rec, nil
}

func (p *memoryPool) Update(_ context.Context, req model.UpdatedExercise) (model.Exercise, error) {
	p.lastInput = req
	rec, ok := p.rows[req.ID()]
	if !ok {
		return model.Exercise{}, dao.E(dao.KindNotFound, "update", nil)
	}
	if v := req.Title(); v != nil {
		rec.Title = *v
	}
	if v := req.Body(); v != nil {
		rec.Body = *v
	}
	switch t := req.Topic(); {
	case t.IsClear():
		rec.Topic = nil
	case !t.IsKeep():
		v, _ := t.Value()
		rec.Topic = &v
	}
	rec.ModifiedOn = req.ModifiedOn()
	p.rows[rec.ID] = rec
	return rec, nil
}

func (p *memoryPool) DeleteByID(_ context.Context, id string) (model.Exercise, error) {
	rec, ok := p.rows[id]
	if !ok {
		return model.Exercise{}, dao.E(dao.KindNotFound, "delete_by_id", nil)
	}
	delete(p.rows, id)
	return rec, nil
}

type gqlError struct {
	Message    string                 `json:"message"`
	Extensions map[string]interface{} `json:"extensions"`
}

type exercisePayload struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	Topic      *string   `json:"topic"`
	CreatedOn  time.Time `json:"createdOn"`
	ModifiedOn time.Time `json:"modifiedOn"`
}

const exerciseFields = `id title body topic createdOn modifiedOn`

func exec(t *testing.T, ctx context.Context, pool dao.Pool, query string, vars map[string]interface{}) (map[string]*exercisePayload, []gqlError) {
	t.Helper()

	schema, err := NewSchema(pool)
	require.NoError(t, err)

	resp := schema.Exec(ctx, query, "", vars)

	raw, err := json.Marshal(resp)
	require.NoError(t, err)

	var out struct {
		Data   map[string]*exercisePayload `json:"data"`
		Errors []gqlError                  `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(raw, &out))
	return out.Data, out.Errors
}

func TestAPIVersion(t *testing.T) {
	schema, err := NewSchema(newMemoryPool())
	require.NoError(t, err)

	resp := schema.Exec(context.Background(), `{ apiVersion }`, "", nil)
	require.Empty(t, resp.Errors)
	assert.JSONEq(t, `{"apiVersion":"1.0"}`, string(resp.Data))
}

func TestExerciseLifecycle(t *testing.T) {
	ctx := context.Background()
	pool := newMemoryPool()

	data, errs := exec(t, ctx, pool, `mutation($input: NewExercise!) {
		createExercise(input: $input) { `+exerciseFields+` }
	}`, map[string]interface{}{
		"input": map[string]interface{}{"title": "Albatross", "body": "seabird"},
	})
	require.Empty(t, errs)
	created := data["createExercise"]
	require.NotNil(t, created)
	assert.Len(t, created.ID, 36)
	assert.Nil(t, created.Topic)
	assert.True(t, created.CreatedOn.Equal(created.ModifiedOn))

	data, errs = exec(t, ctx, pool, `mutation($input: UpdatedExercise!) {
		updateExercise(input: $input) { `+exerciseFields+` }
	}`, map[string]interface{}{
		"input": map[string]interface{}{"id": created.ID, "title": "Albatross new", "topic": "It's a topic!"},
	})
	require.Empty(t, errs)
	updated := data["updateExercise"]
	require.NotNil(t, updated)
	assert.Equal(t, "Albatross new", updated.Title)
	assert.Equal(t, "seabird", updated.Body)
	require.NotNil(t, updated.Topic)
	assert.Equal(t, "It's a topic!", *updated.Topic)

	data, errs = exec(t, ctx, pool, `query($id: String!) { exercise(id: $id) { `+exerciseFields+` } }`,
		map[string]interface{}{"id": created.ID})
	require.Empty(t, errs)
	assert.Equal(t, updated, data["exercise"])

	data, errs = exec(t, ctx, pool, `mutation($id: String!) { deleteExerciseById(id: $id) { `+exerciseFields+` } }`,
		map[string]interface{}{"id": created.ID})
	require.Empty(t, errs)
	assert.Equal(t, updated, data["deleteExerciseById"])

	data, errs = exec(t, ctx, pool, `query($id: String!) { exercise(id: $id) { id } }`,
		map[string]interface{}{"id": created.ID})
	require.Len(t, errs, 1)
	assert.Nil(t, data["exercise"])
	assert.Equal(t, "Resource not found", errs[0].Message)
	assert.Equal(t, map[string]interface{}{"client_error": "not_found"}, errs[0].Extensions)
}

func TestUpdateTopicThreeStates(t *testing.T) {
	ctx := context.Background()
	pool := newMemoryPool()

	topic := "birds"
	req, err := model.NewExerciseFrom(model.NewExerciseOptions{Title: "Heron", Body: "wading", Topic: &topic})
	require.NoError(t, err)
	_, err = pool.Create(ctx, req)
	require.NoError(t, err)
	id := req.ID()

	update := func(input map[string]interface{}) *exercisePayload {
		input["id"] = id
		data, errs := exec(t, ctx, pool, `mutation($input: UpdatedExercise!) {
			updateExercise(input: $input) { `+exerciseFields+` }
		}`, map[string]interface{}{"input": input})
		require.Empty(t, errs)
		return data["updateExercise"]
	}

	kept := update(map[string]interface{}{"body": "still wading"})
	require.NotNil(t, kept.Topic)
	assert.Equal(t, "birds", *kept.Topic)
	assert.True(t, pool.lastInput.(model.UpdatedExercise).Topic().IsKeep())

	cleared := update(map[string]interface{}{"topic": nil})
	assert.Nil(t, cleared.Topic)
	assert.True(t, pool.lastInput.(model.UpdatedExercise).Topic().IsClear())

	set := update(map[string]interface{}{"topic": "waders"})
	require.NotNil(t, set.Topic)
	assert.Equal(t, "waders", *set.Topic)
}

func TestCreateRejectsEmptyTitle(t *testing.T) {
	pool := newMemoryPool()

	_, errs := exec(t, context.Background(), pool, `mutation {
		createExercise(input: {title: "", body: "text"}) { id }
	}`, nil)
	require.Len(t, errs, 1)
	assert.Equal(t, model.ErrTitleRequired.Error(), errs[0].Message)
	assert.Equal(t, map[string]interface{}{"client_error": "bad_request"}, errs[0].Extensions)
	assert.Empty(t, pool.rows)
}

func TestUpdateRejectsEmptyTitleAndBody(t *testing.T) {
	pool := newMemoryPool()

	created, errs := exec(t, context.Background(), pool, `mutation {
		createExercise(input: {title: "Albatross", body: "text"}) { id }
	}`, nil)
	require.Empty(t, errs)
	id := created["createExercise"].ID

	tests := []struct {
		name  string
		input map[string]interface{}
		want  error
	}{
		{"empty title", map[string]interface{}{"id": id, "title": ""}, model.ErrTitleEmpty},
		{"empty body", map[string]interface{}{"id": id, "body": ""}, model.ErrBodyEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool.lastInput = nil

			_, errs := exec(t, context.Background(), pool, `mutation($input: UpdatedExercise!) {
				updateExercise(input: $input) { id }
			}`, map[string]interface{}{"input": tt.input})
			require.Len(t, errs, 1)
			assert.Equal(t, tt.want.Error(), errs[0].Message)
			assert.Equal(t, map[string]interface{}{"client_error": "bad_request"}, errs[0].Extensions)
			assert.Nil(t, pool.lastInput)
		})
	}

	assert.Equal(t, "Albatross", pool.rows[id].Title)
	assert.Equal(t, "text", pool.rows[id].Body)
}

func TestCreateRejectsLongTitle(t *testing.T) {
	long := string(bytes.Repeat([]byte("x"), 256))

	_, errs := exec(t, context.Background(), newMemoryPool(), `mutation($input: NewExercise!) {
		createExercise(input: $input) { id }
	}`, map[string]interface{}{"input": map[string]interface{}{"title": long, "body": "b"}})
	require.Len(t, errs, 1)
	assert.Equal(t, "title must be at most 255 characters", errs[0].Message)
}

func TestErrorExtensions(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		message    string
		extensions map[string]interface{}
		logged     bool
	}{
		{
			name:       "not found",
			err:        dao.E(dao.KindNotFound, "find_by_id", nil),
			message:    "Resource not found",
			extensions: map[string]interface{}{"client_error": "not_found"},
		},
		{
			name:       "invalid query",
			err:        dao.E(dao.KindInvalidQuery, "find_by_id", errors.New("bad where")),
			message:    "find_by_id: invalid query: bad where",
			extensions: map[string]interface{}{"client_error": "bad_request"},
		},
		{
			name:       "deserialization",
			err:        dao.E(dao.KindDeserialization, "find_by_id", errors.New("bad time")),
			message:    "find_by_id: deserialization error: bad time",
			extensions: map[string]interface{}{"client_error": "bad_request"},
		},
		{
			name:       "serialization",
			err:        dao.E(dao.KindSerialization, "find_by_id", errors.New("bad arg")),
			message:    "find_by_id: serialization error: bad arg",
			extensions: map[string]interface{}{"client_error": "bad_request"},
		},
		{
			name:       "server",
			err:        dao.E(dao.KindServer, "acquire", errors.New("password authentication failed")),
			message:    "An internal server error occurred",
			extensions: map[string]interface{}{"server_error": "internal_server_error"},
			logged:     true,
		},
		{
			name:       "foreign error",
			err:        errors.New("something odd"),
			message:    "An internal server error occurred",
			extensions: map[string]interface{}{"server_error": "internal_server_error"},
			logged:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			logger := zerolog.New(&logs)
			ctx := logger.WithContext(context.Background())

			pool := newMemoryPool()
			pool.failWith = tt.err

			data, errs := exec(t, ctx, pool, `{ exercise(id: "x") { id } }`, nil)
			assert.Nil(t, data["exercise"])
			require.Len(t, errs, 1)
			assert.Equal(t, tt.message, errs[0].Message)
			assert.Equal(t, tt.extensions, errs[0].Extensions)

			if tt.logged {
				assert.Contains(t, logs.String(), tt.err.Error())
			} else {
				assert.Empty(t, logs.String())
			}
		})
	}
}

func TestSDLIsServed(t *testing.T) {
	assert.Contains(t, SDL(), "deleteExerciseById(id: String!): Exercise")
}
