package model

import "time"

// Priority bands derived from the ranking score. Informational only: the
// planner never reads them.
const (
	BandLow    = "low"
	BandMedium = "medium"
	BandHigh   = "high"
)

// Task represents a single schedulable item in the planner.
type Task struct {
	ID             string `gorm:"primaryKey"`
	Title          string
	Module         string
	DueAt          *time.Time `gorm:"index"`
	WeightPercent  int
	EstimatedHours int
	PriorityScore  int `gorm:"index"`
	PriorityBand   string
	Completed      bool `gorm:"default:false"`
	Notes          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// BandForScore maps a priority score to its coarse band.
func BandForScore(score int) string {
	switch {
	case score >= 70:
		return BandHigh
	case score >= 40:
		return BandMedium
	default:
		return BandLow
	}
}
