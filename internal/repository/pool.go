package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/deppfellow/wikitype-api/internal/dao"
	"gorm.io/gorm"
)

// ExercisePool hands out an ExerciseStore pinned to one pooled connection
// for the duration of a callback. Many callbacks may run concurrently, each
// on its own connection.
type ExercisePool struct {
	db             *gorm.DB
	rowLocking     bool
	acquireTimeout time.Duration
}

var _ dao.Pool = (*ExercisePool)(nil)

func NewExercisePool(db *gorm.DB, rowLocking bool, acquireTimeout time.Duration) *ExercisePool {
	return &ExercisePool{
		db:             db,
		rowLocking:     rowLocking,
		acquireTimeout: acquireTimeout,
	}
}

// WithExercises acquires a connection, runs fn against it and releases the
// connection on every return path. Failing to acquire within the configured
// timeout is a server error; fn is not called in that case.
func (p *ExercisePool) WithExercises(ctx context.Context, fn func(dao.ExerciseDAO) error) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return dao.E(dao.KindServer, "acquire", err)
	}

	acquireCtx := ctx
	if p.acquireTimeout > 0 {
		var cancel context.CancelFunc
		acquireCtx, cancel = context.WithTimeout(ctx, p.acquireTimeout)
		defer cancel()
	}

	conn, err := sqlDB.Conn(acquireCtx)
	if err != nil {
		return dao.E(dao.KindServer, "acquire", fmt.Errorf("acquiring connection: %w", err))
	}
	defer conn.Close()

	tx := p.db.Session(&gorm.Session{NewDB: true, Context: ctx})
	tx.Statement.ConnPool = conn

	return fn(NewExerciseStore(tx, p.rowLocking))
}
