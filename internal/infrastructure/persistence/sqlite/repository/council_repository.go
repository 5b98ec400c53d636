package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"axcouncil/internal/errs"
	"axcouncil/internal/infrastructure/persistence/sqlite/model"
	"axcouncil/internal/ports"
)

type CouncilRepository struct {
	db *gorm.DB
}

func NewCouncilRepository(db *gorm.DB) *CouncilRepository {
	return &CouncilRepository{db: db}
}

// SaveCouncilResult overwrites any prior consensus for the evaluation.
// Overwrite-on-recompute is the aggregator's concurrency contract.
func (r *CouncilRepository) SaveCouncilResult(ctx context.Context, result ports.CouncilResult) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	row := model.CouncilResult{
		EvaluationID:        result.EvaluationID,
		Score:               result.Score,
		ANPS:                result.ANPS,
		RecommendationsJSON: result.RecommendationsJSON,
		ModelScoresJSON:     result.ModelScoresJSON,
		Agreement:           result.Agreement,
		ComputedAt:          result.ComputedAt,
	}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "evaluation_id"}},
		UpdateAll: true,
	}).Create(&row).Error; err != nil {
		return errs.Wrap(err, "upsert council result")
	}
	return nil
}

func (r *CouncilRepository) GetCouncilResult(ctx context.Context, evaluationID string) (ports.CouncilResult, bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.CouncilResult{}, false, err
	}

	var row model.CouncilResult
	if err := db.Where("evaluation_id = ?", evaluationID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.CouncilResult{}, false, nil
		}
		return ports.CouncilResult{}, false, errs.Wrap(err, "query council result")
	}

	return ports.CouncilResult{
		EvaluationID:        row.EvaluationID,
		Score:               row.Score,
		ANPS:                row.ANPS,
		RecommendationsJSON: row.RecommendationsJSON,
		ModelScoresJSON:     row.ModelScoresJSON,
		Agreement:           row.Agreement,
		ComputedAt:          row.ComputedAt,
	}, true, nil
}
