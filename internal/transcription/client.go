package transcription

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"voicenotes/internal/config"
	"voicenotes/internal/logger"
	apperrors "voicenotes/pkg/errors"

	"github.com/rs/zerolog"
)

// instruction asks for a transcript plus a short title as bare JSON. The
// model still wraps the object in markdown fences often enough that the
// response is de-fenced before parsing.
const instruction = "Transcribe the following audio. Then, provide a short, clean, and descriptive title (max 6 words) summarizing the content. Return ONLY a raw JSON object (no markdown formatting) with the following structure:\n{\n  \"title\": \"Your Title\",\n  \"transcript\": \"Full Transcription\"\n}"

// Client is a stateless adapter for the generateContent API. It sends an
// instruction part and an inline-data part and returns the first text part
// of the first candidate.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	log        zerolog.Logger
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		apiKey:  cfg.Transcription.APIKey,
		baseURL: cfg.Transcription.BaseURL,
		model:   cfg.Transcription.Model,
		httpClient: &http.Client{
			Timeout: cfg.Transcription.Timeout,
		},
		log: logger.Get(),
	}
}

type generateContentRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generateContentResponse struct {
	Candidates []candidate `json:"candidates"`
}

type candidate struct {
	Content candidateContent `json:"content"`
}

type candidateContent struct {
	Parts []candidatePart `json:"parts"`
}

type candidatePart struct {
	Text string `json:"text"`
}

// Transcribe sends the audio to the external API and returns the raw
// response text. The audio is base64-encoded inline; the HTTP client
// carries a bounded timeout on top of ctx.
func (c *Client) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	if c.apiKey == "" {
		return "", apperrors.ErrMissingCredential
	}

	requestBody := generateContentRequest{
		Contents: []content{{
			Parts: []part{
				{Text: instruction},
				{InlineData: &inlineData{
					MimeType: mimeType,
					Data:     base64.StdEncoding.EncodeToString(audio),
				}},
			},
		}},
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.log.Debug().Int("audio_bytes", len(audio)).Str("model", c.model).Msg("Sending transcription request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcription request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return "", apperrors.NewAPIError(resp.StatusCode, string(body))
	}

	var response generateContentResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(response.Candidates) == 0 || len(response.Candidates[0].Content.Parts) == 0 {
		return "", apperrors.ErrEmptyResponse
	}
	text := response.Candidates[0].Content.Parts[0].Text
	if text == "" {
		return "", apperrors.ErrEmptyResponse
	}

	return text, nil
}
