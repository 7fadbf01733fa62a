package repository

import "github.com/courtsight/courtsight/pkg/logger"

// Option configures a TimelineStore.
type Option func(*TimelineStore)

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) Option {
	return func(s *TimelineStore) {
		if log != nil {
			s.log = log
		}
	}
}
