package elevateai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the public ElevateAI API endpoint
	DefaultBaseURL = "https://api.elevateai.com/v1"

	defaultTimeout        = 60 * time.Second
	defaultUploadFilename = "bytes"
	maxErrorBodyBytes     = 1024
)

// Config holds remote client configuration
type Config struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// DeclareRequest describes the interaction to create. Exactly one of Media or
// URL should be set: Media is uploaded right after declaration, URL is handed
// to the service which downloads the file itself.
type DeclareRequest struct {
	LanguageTag string
	Media       []byte
	URL         string
	Filename    string
}

// JobHandle identifies a declared interaction.
type JobHandle struct {
	Identifier string
	Status     Status
}

// Client talks to the ElevateAI interactions API. It keeps no per-job state;
// every call is an independent, individually authenticated request and the
// client is safe for concurrent use.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a new remote client
func NewClient(cfg *Config) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		baseURL: baseURL,
		token:   cfg.Token,
		http:    hc,
		logger:  logger,
	}
}

type declareBody struct {
	Type                   string  `json:"type"`
	DownloadURL            *string `json:"downloadUrl"`
	LanguageTag            string  `json:"languageTag"`
	Vertical               string  `json:"vertical"`
	AudioTranscriptionMode string  `json:"audioTranscriptionMode"`
	IncludeAIResults       bool    `json:"includeAiResults"`
}

type declareResponse struct {
	InteractionIdentifier string `json:"interactionIdentifier"`
}

type statusResponse struct {
	Status string `json:"status"`
}

// Declare creates a remote interaction. When req carries inline media the
// bytes are uploaded as part of the declaration. The returned handle carries
// the status observed right after declaration.
func (c *Client) Declare(ctx context.Context, req DeclareRequest) (*JobHandle, error) {
	body := declareBody{
		Type:                   "audio",
		LanguageTag:            req.LanguageTag,
		Vertical:               "default",
		AudioTranscriptionMode: "highAccuracy",
		IncludeAIResults:       true,
	}
	if req.URL != "" {
		body.DownloadURL = &req.URL
	}
	if body.LanguageTag == "" {
		body.LanguageTag = "auto"
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode declare request: %w", err)
	}

	resp, err := c.do(ctx, "declare", http.MethodPost, c.baseURL+"/interactions", bytes.NewReader(payload), "application/json; charset=utf-8")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, newServiceError("declare", resp)
	}

	var declared declareResponse
	if err := json.NewDecoder(resp.Body).Decode(&declared); err != nil {
		return nil, &ProtocolError{Op: "declare", Err: err}
	}
	if declared.InteractionIdentifier == "" {
		return nil, &ProtocolError{Op: "declare", Err: errors.New("missing interactionIdentifier")}
	}

	c.logger.Info("Interaction declared",
		slog.String("job_id", declared.InteractionIdentifier),
		slog.String("language", body.LanguageTag),
		slog.Bool("url_mode", req.URL != ""),
	)

	if len(req.Media) > 0 {
		filename := req.Filename
		if filename == "" {
			filename = defaultUploadFilename
		}
		if err := c.Upload(ctx, declared.InteractionIdentifier, filename, req.Media); err != nil {
			return nil, err
		}
	}

	status, err := c.Status(ctx, declared.InteractionIdentifier)
	if err != nil {
		return nil, err
	}

	return &JobHandle{
		Identifier: declared.InteractionIdentifier,
		Status:     status,
	}, nil
}

// Upload sends media bytes for a declared interaction as multipart/form-data.
func (c *Client) Upload(ctx context.Context, identifier, filename string, media []byte) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(filename)))
	header.Set("Content-Type", "application/octet-stream")
	part, err := w.CreatePart(header)
	if err != nil {
		return fmt.Errorf("failed to create upload part: %w", err)
	}
	if _, err := part.Write(media); err != nil {
		return fmt.Errorf("failed to write upload part: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finish upload body: %w", err)
	}

	resp, err := c.do(ctx, "upload", http.MethodPost, c.interactionURL(identifier, "upload"), &buf, w.FormDataContentType())
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newServiceError("upload", resp)
	}

	c.logger.Debug("Media uploaded",
		slog.String("job_id", identifier),
		slog.String("filename", filename),
		slog.Int("bytes", len(media)),
	)
	return nil
}

// Status performs a single status round-trip. It never retries or caches.
func (c *Client) Status(ctx context.Context, identifier string) (Status, error) {
	resp, err := c.do(ctx, "status", http.MethodGet, c.interactionURL(identifier, "status"), nil, "")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", newServiceError("status", resp)
	}

	var sr statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return "", &ProtocolError{Op: "status", Err: err}
	}
	if sr.Status == "" {
		return "", &ProtocolError{Op: "status", Err: errors.New("missing status")}
	}

	return Status(sr.Status), nil
}

// Transcript fetches the punctuated transcript. A "no content" answer yields
// an empty result rather than an error.
func (c *Client) Transcript(ctx context.Context, identifier string) (*TranscriptResult, error) {
	resp, err := c.do(ctx, "transcript", http.MethodGet, c.interactionURL(identifier, "transcripts/punctuated"), nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return &TranscriptResult{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, newServiceError("transcript", resp)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ServiceError{Op: "transcript", StatusCode: resp.StatusCode, Err: err}
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, &ProtocolError{Op: "transcript", Err: err}
	}
	doc.Raw = raw

	return &TranscriptResult{Document: &doc}, nil
}

func (c *Client) interactionURL(identifier, suffix string) string {
	return fmt.Sprintf("%s/interactions/%s/%s", c.baseURL, url.PathEscape(identifier), suffix)
}

func (c *Client) do(ctx context.Context, op, method, target string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", op, err)
	}
	req.Header.Set("X-API-TOKEN", c.token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	} else {
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("Remote request failed",
			slog.String("op", op),
			slog.String("error", err.Error()),
		)
		return nil, &ServiceError{Op: op, Err: err}
	}
	return resp, nil
}

func newServiceError(op string, resp *http.Response) *ServiceError {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	return &ServiceError{
		Op:         op,
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(snippet)),
	}
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
