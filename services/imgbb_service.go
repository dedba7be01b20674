package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"time"
)

const defaultImgBBURL = "https://api.imgbb.com/1/upload"

// ImgBBService uploads proof images to ImgBB.
type ImgBBService struct {
	apiKey     string
	uploadURL  string
	httpClient *http.Client
}

type imgbbResponse struct {
	Success bool `json:"success"`
	Status  int  `json:"status"`
	Data    struct {
		URL        string `json:"url"`
		DisplayURL string `json:"display_url"`
	} `json:"data"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func NewImgBBService(apiKey string) *ImgBBService {
	if apiKey == "" {
		log.Printf("WARNING: IMGBB_API_KEY is not set, image proofs will be rejected")
	}
	return &ImgBBService{
		apiKey:    apiKey,
		uploadURL: defaultImgBBURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// WithUploadURL points the service at another endpoint.
func (s *ImgBBService) WithUploadURL(url string) *ImgBBService {
	s.uploadURL = url
	return s
}

func (s *ImgBBService) Upload(ctx context.Context, image []byte, filename string) (string, error) {
	if s.apiKey == "" {
		return "", fmt.Errorf("missing ImgBB credentials")
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writer.WriteField("key", s.apiKey); err != nil {
		return "", fmt.Errorf("failed to write form field: %w", err)
	}
	part, err := writer.CreateFormFile("image", filename)
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.uploadURL, body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var out imgbbResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("failed to parse response (HTTP %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || !out.Success || out.Data.URL == "" {
		return "", fmt.Errorf("imgbb upload failed (HTTP %d): %s", resp.StatusCode, out.Error.Message)
	}
	return out.Data.URL, nil
}
