package model

import "time"

// Difficulty levels a blog post can declare.
const (
	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"
)

// Levels lists every valid blog level value.
var Levels = []string{LevelBeginner, LevelIntermediate, LevelAdvanced}

// Rate bounds and default for blogs.
const (
	RateMin     = 1.0
	RateMax     = 5.0
	RateDefault = 4.0
)

// Blog mirrors the `blogs` table. Reads implicitly filter to Active rows.
type Blog struct {
	ID        uint64
	Title     string
	Author    string
	Summary   string
	Content   string
	Duration  int
	Level     string
	Rate      float64
	Topic     string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
