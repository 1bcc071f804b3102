package model

// ================ Config ================

// PipelineConfig tunes the NLU pipeline and session behaviour.
type PipelineConfig struct {
	// Minimum classifier confidence to accept an intent instead of fallback.
	ConfidenceThreshold float64 `envconfig:"NLU_CONFIDENCE_THRESHOLD" default:"0.55"`
	// Sentiment score above which an utterance is labelled positive, below
	// the negated value negative.
	SentimentThreshold float64 `envconfig:"SENTIMENT_THRESHOLD" default:"0.5"`
	// Maximum number of turns kept in session history, oldest evicted first.
	MaxHistoryTurns int `envconfig:"SESSION_MAX_HISTORY_TURNS" default:"10"`
	// Sliding session expiry, refreshed on every access.
	SessionTTL string `envconfig:"SESSION_TTL" default:"30m"`
	// Seed for response selection; 0 seeds from the clock at startup.
	ResponseSeed int64 `envconfig:"RESPONSE_SEED" default:"0"`
}

// CorpusConfig locates the training corpus. An empty path, or a path that
// fails to load, falls back to the built-in default intent set.
type CorpusConfig struct {
	Path string `envconfig:"CORPUS_PATH"`
}

// StorageConfig configures the message/analytics repository.
type StorageConfig struct {
	SQLitePath string `envconfig:"SQLITE_PATH" default:"data/dialogcore.db"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr            string `envconfig:"HTTP_ADDR" default:":8080"`
	ReadTimeout     int    `envconfig:"HTTP_READ_TIMEOUT" default:"10"`
	WriteTimeout    int    `envconfig:"HTTP_WRITE_TIMEOUT" default:"10"`
	ShutdownTimeout int    `envconfig:"HTTP_SHUTDOWN_TIMEOUT" default:"10"`
}
