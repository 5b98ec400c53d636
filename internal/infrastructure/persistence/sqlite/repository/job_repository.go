package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"axcouncil/internal/domain/evaluation"
	"axcouncil/internal/errs"
	"axcouncil/internal/infrastructure/persistence/sqlite/model"
	"axcouncil/internal/ports"
)

type JobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

func (r *JobRepository) CreateJob(ctx context.Context, job ports.EvaluationJob) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	row := model.EvaluationJob{
		JobID:        job.JobID,
		SubjectURL:   job.SubjectURL,
		AudienceJSON: job.AudienceJSON,
		UserID:       job.UserID,
		Status:       string(job.Status),
		ResultJSON:   job.ResultJSON,
		ErrorText:    job.ErrorText,
		CreatedAt:    job.CreatedAt,
		UpdatedAt:    job.UpdatedAt,
		CompletedAt:  job.CompletedAt,
	}
	if err := db.Create(&row).Error; err != nil {
		return errs.Wrap(err, "insert evaluation job")
	}
	return nil
}

func (r *JobRepository) GetJob(ctx context.Context, jobID string) (ports.EvaluationJob, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.EvaluationJob{}, err
	}

	var row model.EvaluationJob
	if err := db.Where("job_id = ?", jobID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.EvaluationJob{}, evaluation.ErrJobNotFound
		}
		return ports.EvaluationJob{}, errs.Wrap(err, "query evaluation job")
	}
	return mapJob(row), nil
}

func (r *JobRepository) TransitionJob(ctx context.Context, jobID string, t ports.JobTransition) (bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return false, err
	}

	updates := map[string]any{
		"status":     string(t.To),
		"updated_at": t.UpdatedAt,
	}
	if t.ResultJSON != nil {
		updates["result_json"] = *t.ResultJSON
	}
	if t.ErrorText != nil {
		updates["error_text"] = *t.ErrorText
	}
	if t.CompletedAt != nil {
		updates["completed_at"] = *t.CompletedAt
	}

	// Guarded on the expected current status so racing reporters cannot
	// overwrite a terminal state.
	result := db.Model(&model.EvaluationJob{}).
		Where("job_id = ? AND status = ?", jobID, string(t.From)).
		Updates(updates)
	if result.Error != nil {
		return false, errs.Wrap(result.Error, "transition evaluation job")
	}
	return result.RowsAffected > 0, nil
}

func (r *JobRepository) ClaimJob(ctx context.Context, jobID string, userID string, updatedAt string) (bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return false, err
	}

	result := db.Model(&model.EvaluationJob{}).
		Where("job_id = ? AND user_id IS NULL", jobID).
		Updates(map[string]any{
			"user_id":    userID,
			"updated_at": updatedAt,
		})
	if result.Error != nil {
		return false, errs.Wrap(result.Error, "claim evaluation job")
	}
	return result.RowsAffected > 0, nil
}

func mapJob(row model.EvaluationJob) ports.EvaluationJob {
	return ports.EvaluationJob{
		JobID:        row.JobID,
		SubjectURL:   row.SubjectURL,
		AudienceJSON: row.AudienceJSON,
		UserID:       row.UserID,
		Status:       evaluation.Status(row.Status),
		ResultJSON:   row.ResultJSON,
		ErrorText:    row.ErrorText,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
		CompletedAt:  row.CompletedAt,
	}
}
