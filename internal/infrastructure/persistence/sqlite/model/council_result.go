package model

type CouncilResult struct {
	EvaluationID        string `gorm:"column:evaluation_id;primaryKey"`
	Score               int    `gorm:"column:score;not null"`
	ANPS                int    `gorm:"column:anps;not null"`
	RecommendationsJSON string `gorm:"column:recommendations_json;type:text;not null"`
	ModelScoresJSON     string `gorm:"column:model_scores_json;type:text;not null"`
	Agreement           string `gorm:"column:agreement;type:text;not null"`
	ComputedAt          string `gorm:"column:computed_at;type:text;not null"`
}

func (CouncilResult) TableName() string {
	return "council_results"
}
