// Package config defines service configuration structures and loading hooks.
package config

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory analysis job queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of analysis workers. Analyses are
	// CPU-bound, so one worker per process is the default.
	WorkerCount int `koanf:"worker_count"`

	// RegistrySize bounds the submission idempotency registry.
	RegistrySize int `koanf:"registry_size"`

	// ShotWindowSeconds sets the minimum spacing between detected shot
	// attempts by the same signal.
	ShotWindowSeconds float64 `koanf:"shot_window_seconds"`

	// TrackMaxAgeSeconds sets how long an unseen player track survives.
	TrackMaxAgeSeconds float64 `koanf:"track_max_age_seconds"`

	// ReidWindowSeconds sets the lookback window for visual
	// re-identification of lost tracks.
	ReidWindowSeconds float64 `koanf:"reid_window_seconds"`

	// PreBufferSeconds and PostBufferSeconds pad highlight clips around
	// their anchor event.
	PreBufferSeconds  float64 `koanf:"pre_buffer_seconds"`
	PostBufferSeconds float64 `koanf:"post_buffer_seconds"`

	// MinClipSeconds sets the minimum viewable clip duration.
	MinClipSeconds float64 `koanf:"min_clip_seconds"`

	// MergeGapSeconds sets the maximum gap between clips merged into one.
	MergeGapSeconds float64 `koanf:"merge_gap_seconds"`

	// MaxTopClips caps GET /highlights?top.
	MaxTopClips int `koanf:"max_top_clips"`

	// EnrichTimeoutSeconds bounds the team clustering and identity stage.
	EnrichTimeoutSeconds int `koanf:"enrich_timeout_seconds"`

	// FusionTimeoutSeconds bounds the event fusion stage.
	FusionTimeoutSeconds int `koanf:"fusion_timeout_seconds"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		Addr:                 ":8080",
		QueueSize:            64,
		WorkerCount:          1,
		RegistrySize:         100_000,
		ShotWindowSeconds:    1.0,
		TrackMaxAgeSeconds:   10.0,
		ReidWindowSeconds:    5.0,
		PreBufferSeconds:     3.0,
		PostBufferSeconds:    2.0,
		MinClipSeconds:       10.0,
		MergeGapSeconds:      1.0,
		MaxTopClips:          50,
		EnrichTimeoutSeconds: 30,
		FusionTimeoutSeconds: 20,
	}
}
