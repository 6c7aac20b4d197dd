package mockbackend

import "time"

// Server timing constants.
const (
	ReadHeaderTimeout = 5 * time.Second
	ShutdownTimeout   = 5 * time.Second
)

// Recommendation serving constants.
const (
	DefaultRecommendationCount = 10
	MaxRecommendationCount     = 50
)
