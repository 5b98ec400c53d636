package model

type PanelEvaluation struct {
	EvaluationID string  `gorm:"column:evaluation_id;primaryKey"`
	ModelID      string  `gorm:"column:model_id;primaryKey"`
	Status       string  `gorm:"column:status;type:text;not null"`
	Score        *int    `gorm:"column:score"`
	ANPS         *int    `gorm:"column:anps"`
	OpinionJSON  *string `gorm:"column:opinion_json;type:text"`
	RawResponse  *string `gorm:"column:raw_response;type:text"`
	ErrorText    *string `gorm:"column:error_text;type:text"`
	CreatedAt    string  `gorm:"column:created_at;type:text;not null"`
	UpdatedAt    string  `gorm:"column:updated_at;type:text;not null"`
	CompletedAt  *string `gorm:"column:completed_at;type:text"`
}

func (PanelEvaluation) TableName() string {
	return "panel_evaluations"
}
