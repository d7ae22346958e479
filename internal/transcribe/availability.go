package transcribe

import (
	"go.uber.org/zap"

	"github.com/linkpi14/transcript-v11/internal/config"
	"github.com/linkpi14/transcript-v11/internal/job"
)

// Availability is decided once at startup from the configured credential.
type Availability int

const (
	AvailabilitySimulated Availability = iota
	AvailabilityReal
)

func (a Availability) String() string {
	if a == AvailabilityReal {
		return "real"
	}
	return "simulated"
}

// Detect returns AvailabilityReal only for a non-empty key that is not the placeholder.
func Detect(apiKey string) Availability {
	if apiKey == "" || apiKey == config.PlaceholderAPIKey {
		return AvailabilitySimulated
	}
	return AvailabilityReal
}

// New returns the engine matching the configured credential.
func New(cfg *config.Config, log *zap.Logger) (job.Transcriber, Availability) {
	avail := Detect(cfg.OpenAIAPIKey)
	if avail == AvailabilityReal {
		log.Info("registered speech-to-text engine", zap.String("engine", "openai"), zap.String("model", cfg.OpenAIModel))
		return NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, log), avail
	}
	log.Warn("OPENAI_API_KEY not set, transcriptions will be simulated")
	return NewSimulated(), avail
}
