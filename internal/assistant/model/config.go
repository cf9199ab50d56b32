package model

// ================ Config ================
type ClassifierModelConfig struct {
	Model       string  `envconfig:"CLASSIFIER_MODEL" default:"gemini-2.5-flash-lite"`
	MaxTokens   int     `envconfig:"CLASSIFIER_MAX_TOKENS" default:"150"`
	Temperature float32 `envconfig:"CLASSIFIER_TEMPERATURE" default:"0.3"`
	Timeout     string  `envconfig:"CLASSIFIER_TIMEOUT" default:"5s"`
}

type ConsentConfig struct {
	// ProposalTTL bounds how long a pending "are you sure?" prompt stays approvable.
	ProposalTTL string `envconfig:"CONSENT_PROPOSAL_TTL" default:"10m"`
	// RecordTTL bounds how long resolved proposals stay readable in Redis.
	RecordTTL string `envconfig:"CONSENT_RECORD_TTL" default:"24h"`
}

type ActionAPIConfig struct {
	BaseURL string `envconfig:"ACTION_API_BASE_URL" default:"http://localhost:3000"`
	Timeout string `envconfig:"ACTION_API_TIMEOUT" default:"8s"`
}

type StoreConfig struct {
	QueryTimeout string `envconfig:"STORE_QUERY_TIMEOUT" default:"5s"`
}

type HistoryConfig struct {
	TTL string `envconfig:"CHAT_HISTORY_TTL" default:"15m"`
}
