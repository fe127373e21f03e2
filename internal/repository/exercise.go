package repository

import (
	"context"

	"github.com/deppfellow/wikitype-api/internal/dao"
	"github.com/deppfellow/wikitype-api/internal/model"
	"github.com/deppfellow/wikitype-api/internal/sqlerr"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ExerciseStore is the GORM implementation of dao.ExerciseDAO. It is bound
// to whatever connection its session carries; ExercisePool binds it to a
// single pooled connection per unit of work.
type ExerciseStore struct {
	db         *gorm.DB
	rowLocking bool
}

var _ dao.ExerciseDAO = (*ExerciseStore)(nil)

// NewExerciseStore returns a store over db. rowLocking enables
// SELECT ... FOR UPDATE on the read that precedes an update or delete.
func NewExerciseStore(db *gorm.DB, rowLocking bool) *ExerciseStore {
	return &ExerciseStore{db: db, rowLocking: rowLocking}
}

func (s *ExerciseStore) Create(ctx context.Context, req model.NewExercise) (model.Exercise, error) {
	record := req.Record()
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return model.Exercise{}, sqlerr.Normalize("create", err)
	}

	// re-read so the caller sees what storage holds, not what we sent
	return s.FindByID(ctx, record.ID)
}

func (s *ExerciseStore) FindByID(ctx context.Context, id string) (model.Exercise, error) {
	return s.find(s.db.WithContext(ctx), "find_by_id", id, false)
}

// Update applies only the columns set in req, plus modified_on, and returns
// the row as re-read after the update.
func (s *ExerciseStore) Update(ctx context.Context, req model.UpdatedExercise) (model.Exercise, error) {
	var updated model.Exercise

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.find(tx, "update", req.ID(), true); err != nil {
			return err
		}

		result := tx.Model(&model.Exercise{}).
			Where("id = ?", req.ID()).
			Updates(req.Changes())
		if result.Error != nil {
			return sqlerr.Normalize("update", result.Error)
		}

		var err error
		updated, err = s.find(tx, "update", req.ID(), false)
		return err
	})
	if err != nil {
		return model.Exercise{}, sqlerr.Normalize("update", err)
	}

	return updated, nil
}

// DeleteByID removes the row and returns its state from just before the
// delete. The read and the delete share one transaction so a concurrent
// delete of the same id reports NotFound instead of stale data.
func (s *ExerciseStore) DeleteByID(ctx context.Context, id string) (model.Exercise, error) {
	var deleted model.Exercise

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		deleted, err = s.find(tx, "delete_by_id", id, true)
		if err != nil {
			return err
		}

		result := tx.Where("id = ?", id).Delete(&model.Exercise{})
		if result.Error != nil {
			return sqlerr.Normalize("delete_by_id", result.Error)
		}
		if result.RowsAffected == 0 {
			return dao.E(dao.KindNotFound, "delete_by_id", gorm.ErrRecordNotFound)
		}
		return nil
	})
	if err != nil {
		return model.Exercise{}, sqlerr.Normalize("delete_by_id", err)
	}

	return deleted, nil
}

func (s *ExerciseStore) find(tx *gorm.DB, op, id string, lock bool) (model.Exercise, error) {
	if lock && s.rowLocking {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var exercise model.Exercise
	if err := tx.Where("id = ?", id).Take(&exercise).Error; err != nil {
		return model.Exercise{}, sqlerr.Normalize(op, err)
	}

	exercise.CreatedOn = exercise.CreatedOn.UTC()
	exercise.ModifiedOn = exercise.ModifiedOn.UTC()
	return exercise, nil
}
