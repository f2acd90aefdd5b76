package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fleetworks/fleet-tracker/internal/entity"
	"github.com/fleetworks/fleet-tracker/internal/parse"
)

// Config for the OpenAI-backed field parser.
type Config struct {
	APIKey      string        // required; callers select the rule parser when absent
	BaseURL     string        // default https://api.openai.com/v1
	Model       string        // e.g. "gpt-4o-mini"
	Temperature float32       // low-randomness decoding; default 0.1
	Timeout     time.Duration // bounds the external call; default 45s
}

// Client implements parse.FieldParser against the OpenAI chat/completions
// API with a strict JSON contract. Callers wrap it in parse.FallbackParser;
// any error returned here means "use the rule-based parser instead".
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = 0.1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

func (c *Client) Parse(ctx context.Context, text string, roster []entity.VehicleRef) (parse.CandidateRecord, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.logger.Info("llm.parse.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"text_len", len(text),
		"roster_size", len(roster),
	)

	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": buildUserPrompt(text, roster)},
		},
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, err := c.post(ctx, endpoint, body)
	if err != nil {
		c.logger.Error("llm.parse.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return parse.CandidateRecord{}, err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.logger.Error("llm.parse.decode_error", "req_id", rid, "error", err, "raw_bytes", len(raw))
		return parse.CandidateRecord{}, fmt.Errorf("decode openai response: %w", err)
	}
	if len(cc.Choices) == 0 {
		c.logger.Error("llm.parse.no_choices", "req_id", rid)
		return parse.CandidateRecord{}, fmt.Errorf("no choices in openai response")
	}
	content := []byte(strings.TrimSpace(cc.Choices[0].Message.Content))

	cleaned, dropped, err := NormalizeCandidateJSON(content)
	if err != nil {
		c.logger.Error("llm.parse.sanitize_failed", "req_id", rid, "error", err)
		return parse.CandidateRecord{}, fmt.Errorf("sanitize: %w", err)
	}
	if len(dropped) > 0 {
		c.logger.Warn("llm.parse.sanitized", "req_id", rid, "dropped", dropped)
	}

	schema := BuildCandidateJSONSchema()
	if err := ValidateJSONAgainstSchema(schema, cleaned); err != nil {
		c.logger.Error("llm.parse.schema_validation_failed", "req_id", rid, "error", err)
		return parse.CandidateRecord{}, fmt.Errorf("schema validation failed: %w", err)
	}

	var rec parse.CandidateRecord
	if err := json.Unmarshal(cleaned, &rec); err != nil {
		c.logger.Error("llm.parse.unmarshal_failed", "req_id", rid, "error", err)
		return parse.CandidateRecord{}, fmt.Errorf("unmarshal fields: %w", err)
	}

	// The model must only echo identifiers present in the document; an
	// identifier with no overlap with the text would let the pipeline
	// hallucinate a vehicle, so treat it as a failed parse.
	if rec.VehicleIdentifier != nil && !identifierTraceable(*rec.VehicleIdentifier, text) {
		c.logger.Warn("llm.parse.untraceable_identifier", "req_id", rid, "identifier", *rec.VehicleIdentifier)
		return parse.CandidateRecord{}, fmt.Errorf("identifier not traceable to document text")
	}

	c.logger.Info("llm.parse.ok",
		"req_id", rid,
		"has_identifier", rec.VehicleIdentifier != nil,
		"has_type", rec.MaintenanceType != nil,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return rec, nil
}

func (c *Client) post(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai http error: %w", err)
	}
	defer func(body io.ReadCloser) {
		if cerr := body.Close(); cerr != nil {
			c.logger.Warn("openai response body close error", "error", cerr)
		}
	}(resp.Body)

	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("read openai response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("openai status %d: %s", resp.StatusCode, buf.String())
	}
	return buf.Bytes(), nil
}

// identifierTraceable checks that at least one word of the claimed identifier
// actually occurs in the document text (case-insensitive).
func identifierTraceable(identifier, text string) bool {
	lower := strings.ToLower(text)
	for _, word := range strings.Fields(strings.ToLower(identifier)) {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}
