package transcribe

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/linkpi14/transcript-v11/internal/job"
	"github.com/linkpi14/transcript-v11/internal/logging"
)

// OpenAIClient uses the OpenAI Whisper API
type OpenAIClient struct {
	client   *openai.Client
	model    string
	fallback *Simulated
	log      *zap.Logger
}

// NewOpenAIClient creates a client. An empty baseURL targets api.openai.com.
func NewOpenAIClient(apiKey, baseURL, model string, log *zap.Logger) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = openai.Whisper1
	}
	return &OpenAIClient{
		client:   openai.NewClientWithConfig(cfg),
		model:    model,
		fallback: NewSimulated(),
		log:      log.Named("openai"),
	}
}

func (c *OpenAIClient) Name() string {
	return "openai"
}

func (c *OpenAIClient) Transcribe(ctx context.Context, req *job.Request, art *job.Artifact) (*job.Result, error) {
	// stub acquisitions have no audio to send
	if art.Placeholder {
		return c.fallback.Transcribe(ctx, req, art)
	}

	log := logging.FromContext(ctx, c.log)
	log.Info("sending audio to provider", zap.String("path", art.Path), zap.Int64("size", art.Size))

	resp, err := c.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    c.model,
		FilePath: art.Path,
	})
	if err != nil {
		return nil, &job.ProviderError{Provider: c.Name(), Msg: providerMessage(err), Err: err}
	}

	return &job.Result{Text: resp.Text, Source: job.SourceProvider}, nil
}

// providerMessage prefers the message returned by the API over the
// transport level error text.
func providerMessage(err error) string {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode != 0 {
			return fmt.Sprintf("%s (status %d)", apiErr.Message, apiErr.HTTPStatusCode)
		}
		return apiErr.Message
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.Err != nil {
		return fmt.Sprintf("%v (status %d)", reqErr.Err, reqErr.HTTPStatusCode)
	}
	return err.Error()
}
