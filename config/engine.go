package config

import (
	"os"
	"sync"
	"time"
)

var (
	engineOnce   sync.Once
	engineConfig *EngineConfig
)

// EngineConfig carries the validation-engine tunables that are not
// per-document-type: per-type thresholds live in SampleDocumentConfig.
type EngineConfig struct {
	// RulesPath points at the classifier keyword rules YAML.
	RulesPath string
	// ExtractTimeout bounds blob fetch plus text extraction for one
	// document; expiry is reported as an internal engine error.
	ExtractTimeout time.Duration
	// NotifyDedupWindow is the TTL of the per-entry notification guard.
	NotifyDedupWindow time.Duration
	// NotifyWebhookURL is the external messaging collaborator endpoint.
	NotifyWebhookURL string
	// Retention is how long fetched working copies stay in the bucket.
	Retention time.Duration
	// OCRBackend selects the raster-image extractor: "tesseract" or
	// "textract".
	OCRBackend string
}

func GetEngineConfig() *EngineConfig {
	engineOnce.Do(func() {
		loadDotEnv()

		engineConfig = &EngineConfig{
			RulesPath:         envOr("ENGINE_RULES_PATH", "configs/doctype_rules.yaml"),
			ExtractTimeout:    envDuration("ENGINE_EXTRACT_TIMEOUT", 2*time.Minute),
			NotifyDedupWindow: envDuration("ENGINE_NOTIFY_DEDUP_WINDOW", 10*time.Minute),
			NotifyWebhookURL:  os.Getenv("ENGINE_NOTIFY_WEBHOOK_URL"),
			Retention:         envDuration("ENGINE_RETENTION", 24*time.Hour),
			OCRBackend:        envOr("ENGINE_OCR_BACKEND", "tesseract"),
		}
	})
	return engineConfig
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
