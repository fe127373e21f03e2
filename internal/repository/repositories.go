package repository

import (
	"github.com/deppfellow/wikitype-api/internal/server"
)

type Repositories struct {
	Exercises *ExercisePool
}

func NewRepositories(s *server.Server) *Repositories {
	return &Repositories{
		Exercises: NewExercisePool(s.DB.DB, s.DB.RowLocking(), s.DB.AcquireTimeout),
	}
}
