package testfeed

import "time"

// HTTP status code constants.
const (
	StatusOK       = 200
	StatusAccepted = 202
)

// Polling configuration constants.
const (
	StatusPollInterval   = 250 * time.Millisecond
	PercentageMultiplier = 100
)
