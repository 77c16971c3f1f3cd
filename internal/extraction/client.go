// Package extraction turns job notes and photos into quotation drafts using an
// OpenAI-compatible chat completions API.
package extraction

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tilequote/quote-api/internal/config"
	"github.com/tilequote/quote-api/internal/domain"
	"go.uber.org/zap"
)

// ErrExtractionFailed wraps every transport, status and decoding failure.
// No partial draft is ever returned alongside it.
var ErrExtractionFailed = errors.New("extraction failed")

// Extractor produces a quotation draft from notes or a photo
type Extractor interface {
	ExtractFromText(ctx context.Context, notes string, settings *domain.Settings) (*domain.QuotationDraft, error)
	ExtractFromImage(ctx context.Context, image []byte, settings *domain.Settings) (*domain.QuotationDraft, error)
}

// Client calls the chat completions endpoint
type Client struct {
	httpClient        *http.Client
	baseURL           string
	apiKey            string
	model             string
	maxImageDimension int
	logger            *zap.Logger
}

// NewClient creates a new extraction client from configuration
func NewClient(cfg *config.ExtractionConfig, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout(),
		},
		baseURL:           strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:            cfg.APIKey,
		model:             cfg.Model,
		maxImageDimension: cfg.MaxImageDimension,
		logger:            logger,
	}
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
	Temperature    float64         `json:"temperature"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// ExtractFromText sends typed or dictated notes for extraction
func (c *Client) ExtractFromText(ctx context.Context, notes string, settings *domain.Settings) (*domain.QuotationDraft, error) {
	messages := []chatMessage{
		{Role: "system", Content: SystemPrompt(settings)},
		{Role: "user", Content: notes},
	}
	return c.complete(ctx, messages)
}

// ExtractFromImage preprocesses a photo of handwritten notes and sends it for extraction
func (c *Client) ExtractFromImage(ctx context.Context, image []byte, settings *domain.Settings) (*domain.QuotationDraft, error) {
	prepared, err := PrepareImage(image, c.maxImageDimension)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(prepared)
	messages := []chatMessage{
		{Role: "system", Content: SystemPrompt(settings)},
		{Role: "user", Content: []contentPart{
			{Type: "text", Text: "These are photographed job notes. Extract the quotation."},
			{Type: "image_url", ImageURL: &imageURL{URL: dataURL}},
		}},
	}
	return c.complete(ctx, messages)
}

func (c *Client) complete(ctx context.Context, messages []chatMessage) (*domain.QuotationDraft, error) {
	body, err := json.Marshal(chatRequest{
		Model:          c.model,
		Messages:       messages,
		ResponseFormat: &responseFormat{Type: "json_object"},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode request: %v", ErrExtractionFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrExtractionFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to call extraction API: %v", ErrExtractionFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errorResp struct {
			Error struct {
				Type    string `json:"type"`
				Message string `json:"message"`
			} `json:"error"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if err := json.Unmarshal(raw, &errorResp); err == nil && errorResp.Error.Message != "" {
			return nil, fmt.Errorf("%w: API error (%d): %s - %s", ErrExtractionFailed, resp.StatusCode, errorResp.Error.Type, errorResp.Error.Message)
		}
		return nil, fmt.Errorf("%w: API returned status %d", ErrExtractionFailed, resp.StatusCode)
	}

	var completion chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return nil, fmt.Errorf("%w: failed to decode API response: %v", ErrExtractionFailed, err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("%w: API returned no choices", ErrExtractionFailed)
	}

	draft, err := ParseDraft(completion.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("extraction completed",
		zap.Duration("duration", time.Since(start)),
		zap.Int("tiles", len(draft.Tiles)),
		zap.Int("materials", len(draft.Materials)))

	return draft, nil
}

// ParseDraft decodes the model output. Markdown code fences around the JSON are tolerated.
func ParseDraft(content string) (*domain.QuotationDraft, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	if content == "" {
		return nil, fmt.Errorf("%w: empty response", ErrExtractionFailed)
	}

	var draft domain.QuotationDraft
	if err := json.Unmarshal([]byte(content), &draft); err != nil {
		return nil, fmt.Errorf("%w: response is not a valid draft: %v", ErrExtractionFailed, err)
	}
	if draft.Tiles == nil {
		draft.Tiles = []domain.TileItem{}
	}
	if draft.Materials == nil {
		draft.Materials = []domain.MaterialItem{}
	}
	return &draft, nil
}
