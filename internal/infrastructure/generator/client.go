// Package generator calls the external cover-letter generation API.
package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"go.uber.org/zap"

	"github.com/cvtoletter/backend/internal/config"
	"github.com/cvtoletter/backend/internal/usecase"
	apperrors "github.com/cvtoletter/backend/pkg/errors"
)

const maxErrorBody = 4 << 10

// Client posts multipart form requests to the generator.
type Client struct {
	url        string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(cfg config.GeneratorConfig, logger *zap.Logger) *Client {
	return &Client{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger.Named("generator"),
	}
}

func (c *Client) Generate(ctx context.Context, accountID string, req usecase.GenerateRequest) (*usecase.GeneratedLetter, error) {
	body := &bytes.Buffer{}
	form := multipart.NewWriter(body)
	fields := [][2]string{
		{"user_id", accountID},
		{"job_description", req.JobDescription},
		{"file_id", req.FileID},
	}
	for _, f := range fields {
		if err := form.WriteField(f[0], f[1]); err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", f[0], err)
		}
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode generator request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build generator request: %w", err)
	}
	httpReq.Header.Set("Content-Type", form.FormDataContentType())
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("generator request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Error("Generator returned an error",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(text)))
		return nil, apperrors.NewAppError(apperrors.FromHTTPStatus(resp.StatusCode),
			fmt.Sprintf("generator returned status %d", resp.StatusCode), nil)
	}

	var letter usecase.GeneratedLetter
	if err := json.NewDecoder(resp.Body).Decode(&letter); err != nil {
		return nil, fmt.Errorf("failed to decode generator response: %w", err)
	}
	if letter.CoverLetter == "" {
		return nil, fmt.Errorf("generator returned an empty cover letter")
	}
	return &letter, nil
}
