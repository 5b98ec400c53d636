package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"axcouncil/internal/domain/evaluation"
	"axcouncil/internal/errs"
	"axcouncil/internal/infrastructure/persistence/sqlite/model"
	"axcouncil/internal/ports"
)

type PanelRepository struct {
	db *gorm.DB
}

func NewPanelRepository(db *gorm.DB) *PanelRepository {
	return &PanelRepository{db: db}
}

// BeginProcessing upserts the (evaluation, model) pair into processing in
// one statement. The conflict-update is guarded on the stored row not
// already being processing, which is the reentrancy check: zero rows
// affected means another caller holds the pair.
func (r *PanelRepository) BeginProcessing(ctx context.Context, evaluationID, modelID string, now string) (bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return false, err
	}

	row := model.PanelEvaluation{
		EvaluationID: evaluationID,
		ModelID:      modelID,
		Status:       string(evaluation.StatusProcessing),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	result := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "evaluation_id"}, {Name: "model_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"status":       string(evaluation.StatusProcessing),
			"score":        nil,
			"anps":         nil,
			"opinion_json": nil,
			"raw_response": nil,
			"error_text":   nil,
			"updated_at":   now,
			"completed_at": nil,
		}),
		Where: clause.Where{Exprs: []clause.Expression{
			gorm.Expr("panel_evaluations.status <> ?", string(evaluation.StatusProcessing)),
		}},
	}).Create(&row)
	if result.Error != nil {
		return false, errs.Wrap(result.Error, "upsert panel evaluation to processing")
	}
	return result.RowsAffected > 0, nil
}

func (r *PanelRepository) CompletePanel(ctx context.Context, row ports.PanelEvaluation) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	record := model.PanelEvaluation{
		EvaluationID: row.EvaluationID,
		ModelID:      row.ModelID,
		Status:       string(evaluation.StatusCompleted),
		Score:        row.Score,
		ANPS:         row.ANPS,
		OpinionJSON:  row.OpinionJSON,
		RawResponse:  row.RawResponse,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
		CompletedAt:  row.CompletedAt,
	}
	result := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "evaluation_id"}, {Name: "model_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"status", "score", "anps", "opinion_json", "raw_response",
			"error_text", "updated_at", "completed_at",
		}),
	}).Create(&record)
	if result.Error != nil {
		return errs.Wrap(result.Error, "upsert completed panel evaluation")
	}
	return nil
}

func (r *PanelRepository) FailPanel(ctx context.Context, evaluationID, modelID string, errorText string, now string) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	record := model.PanelEvaluation{
		EvaluationID: evaluationID,
		ModelID:      modelID,
		Status:       string(evaluation.StatusFailed),
		ErrorText:    &errorText,
		CreatedAt:    now,
		UpdatedAt:    now,
		CompletedAt:  &now,
	}
	result := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "evaluation_id"}, {Name: "model_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"status", "error_text", "updated_at", "completed_at",
		}),
	}).Create(&record)
	if result.Error != nil {
		return errs.Wrap(result.Error, "upsert failed panel evaluation")
	}
	return nil
}

func (r *PanelRepository) GetPanel(ctx context.Context, evaluationID, modelID string) (ports.PanelEvaluation, bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.PanelEvaluation{}, false, err
	}

	var row model.PanelEvaluation
	if err := db.Where("evaluation_id = ? AND model_id = ?", evaluationID, modelID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.PanelEvaluation{}, false, nil
		}
		return ports.PanelEvaluation{}, false, errs.Wrap(err, "query panel evaluation")
	}
	return mapPanel(row), true, nil
}

func (r *PanelRepository) ListPanels(ctx context.Context, evaluationID string) ([]ports.PanelEvaluation, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var rows []model.PanelEvaluation
	if err := db.
		Where("evaluation_id = ?", evaluationID).
		Order("model_id asc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query panel evaluations")
	}

	items := make([]ports.PanelEvaluation, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapPanel(row))
	}
	return items, nil
}

func mapPanel(row model.PanelEvaluation) ports.PanelEvaluation {
	return ports.PanelEvaluation{
		EvaluationID: row.EvaluationID,
		ModelID:      row.ModelID,
		Status:       evaluation.Status(row.Status),
		Score:        row.Score,
		ANPS:         row.ANPS,
		OpinionJSON:  row.OpinionJSON,
		RawResponse:  row.RawResponse,
		ErrorText:    row.ErrorText,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
		CompletedAt:  row.CompletedAt,
	}
}
