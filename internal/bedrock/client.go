// internal/bedrock/client.go
package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ticket-triage/internal/common/config"
	"ticket-triage/internal/common/logger"
	"ticket-triage/internal/common/metrics"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

var (
	// ErrTransport covers every failure between "prompt sent" and "usable
	// completion text in hand": network, auth, marshalling, endpoint errors.
	ErrTransport = errors.New("TRANSPORT_FAILURE")

	// ErrInvalidEnvelope is a transport failure where the endpoint answered
	// but the result envelope was missing or empty. Kept distinguishable
	// from generic transport errors so reporting can separate the two.
	ErrInvalidEnvelope = fmt.Errorf("%w: invalid response format from Bedrock", ErrTransport)
)

const (
	contentTypeJSON = "application/json"
)

// API is the slice of the Bedrock runtime client the inference client
// needs. Tests substitute a deterministic fake.
type API interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// Client invokes the Titan text model with fixed generation parameters.
// Constructed once per batch run; no retries are performed — failures
// surface per ticket so the batch always completes in time proportional to
// ticket count.
type Client struct {
	api     API
	modelID string
	gen     config.GenerationConfig
	timeout time.Duration
	logger  logger.Logger
}

func NewClient(api API, cfg config.BedrockConfig, log logger.Logger) *Client {
	return &Client{
		api:     api,
		modelID: cfg.ModelID,
		gen:     cfg.Generation,
		timeout: config.GetDuration(cfg.Timeout),
		logger:  log.With(map[string]interface{}{"component": "bedrock", "modelId": cfg.ModelID}),
	}
}

// Invoke sends a rendered prompt and returns the raw completion text. Every
// failure path returns an error wrapping ErrTransport; nothing panics and
// nothing is retried.
func (c *Client) Invoke(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(titanRequest{
		InputText: prompt,
		TextGenerationConfig: titanGenerationConfig{
			Temperature:   c.gen.Temperature,
			TopP:          c.gen.TopP,
			MaxTokenCount: c.gen.MaxTokenCount,
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: marshal request: %v", ErrTransport, err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	out, err := c.api.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		Body:        body,
		ModelId:     aws.String(c.modelID),
		ContentType: aws.String(contentTypeJSON),
		Accept:      aws.String(contentTypeJSON),
	})
	metrics.InferenceDuration.WithLabelValues(c.modelID).Observe(time.Since(start).Seconds())

	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTransport, err)
	}

	var envelope titanResponse
	if err := json.Unmarshal(out.Body, &envelope); err != nil {
		return "", fmt.Errorf("%w: decode response body: %v", ErrTransport, err)
	}

	if len(envelope.Results) == 0 || envelope.Results[0].OutputText == nil {
		return "", ErrInvalidEnvelope
	}

	c.logger.Debug("model invoked", map[string]interface{}{
		"durationMs": time.Since(start).Milliseconds(),
	})

	return *envelope.Results[0].OutputText, nil
}
