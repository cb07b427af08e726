package domain

import (
	"math"
	"time"
)

// Progress is the per-run mutable state of a session.
type Progress struct {
	CurrentRoomIndex int       `json:"currentRoom"`
	Score            float64   `json:"score"`
	TotalAttempts    int       `json:"attempts"`
	StartTimestamp   time.Time `json:"startTime"`
}

// Report is the final snapshot handed to the presentation layer.
type Report struct {
	Score          int `json:"score"`
	TotalAttempts  int `json:"totalAttempts"`
	ElapsedMinutes int `json:"elapsedMinutes"`
}

// Finalize produces the end-of-session report at the given instant.
func (p Progress) Finalize(now time.Time) Report {
	elapsed := now.Sub(p.StartTimestamp)
	if elapsed < 0 {
		elapsed = 0
	}
	return Report{
		Score:          int(math.Round(p.Score)),
		TotalAttempts:  p.TotalAttempts,
		ElapsedMinutes: int(elapsed / time.Minute),
	}
}

// TopicReport summarises how many puzzles each topic holds.
type TopicReport struct {
	Topic        string `json:"topic"`
	StaticCount  int    `json:"staticCount"`
	DynamicCount int    `json:"dynamicCount"`
	Total        int    `json:"total"`
}
