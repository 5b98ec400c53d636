package model

type EvaluationJob struct {
	JobID        string  `gorm:"column:job_id;primaryKey"`
	SubjectURL   string  `gorm:"column:subject_url;type:text;not null"`
	AudienceJSON string  `gorm:"column:audience_json;type:text;not null"`
	UserID       *string `gorm:"column:user_id;type:text;index"`
	Status       string  `gorm:"column:status;type:text;not null;index"`
	ResultJSON   *string `gorm:"column:result_json;type:text"`
	ErrorText    *string `gorm:"column:error_text;type:text"`
	CreatedAt    string  `gorm:"column:created_at;type:text;not null"`
	UpdatedAt    string  `gorm:"column:updated_at;type:text;not null"`
	CompletedAt  *string `gorm:"column:completed_at;type:text"`
}

func (EvaluationJob) TableName() string {
	return "evaluation_jobs"
}
