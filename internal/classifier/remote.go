package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const remoteStartupTimeout = 10 * time.Second

// HTTPEngine forwards encoded sequences to a model server hosting the same
// sequence-classification model. The server answers
//
//	GET  /v1/model/info -> {"num_labels": 2, "max_length": 128, "device": "cuda"}
//	POST /v1/logits     -> {"logits": [[neg, pos]]}
type HTTPEngine struct {
	baseURL    string
	httpClient *http.Client
}

type logitsRequest struct {
	InputIDs      [][]int64 `json:"input_ids"`
	AttentionMask [][]int64 `json:"attention_mask"`
	TokenTypeIDs  [][]int64 `json:"token_type_ids"`
}

type logitsResponse struct {
	Logits [][]float32 `json:"logits"`
}

type remoteModelInfo struct {
	NumLabels int    `json:"num_labels"`
	MaxLength int    `json:"max_length"`
	Device    string `json:"device"`
}

// NewHTTPEngine checks that the server hosts a two-label model before
// returning.
func NewHTTPEngine(ctx context.Context, baseURL string, timeout time.Duration, logger *zap.Logger) (*HTTPEngine, error) {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	e := &HTTPEngine{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}

	var info remoteModelInfo
	if err := e.do(ctx, http.MethodGet, "/v1/model/info", nil, &info); err != nil {
		return nil, fmt.Errorf("%w: model server unavailable: %v", ErrArtifactInvalid, err)
	}
	if info.NumLabels != numLabels {
		return nil, fmt.Errorf("%w: model server reports %d labels, want %d", ErrArtifactInvalid, info.NumLabels, numLabels)
	}

	logger.Info("Remote classifier connected",
		zap.String("endpoint", e.baseURL),
		zap.String("device", info.Device),
		zap.Int("max_length", info.MaxLength))
	return e, nil
}

func (e *HTTPEngine) Logits(ctx context.Context, enc Encoding) ([]float32, error) {
	req := logitsRequest{
		InputIDs:      [][]int64{enc.InputIDs},
		AttentionMask: [][]int64{enc.AttentionMask},
		TokenTypeIDs:  [][]int64{enc.TokenTypeIDs},
	}

	var resp logitsResponse
	if err := e.do(ctx, http.MethodPost, "/v1/logits", req, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInference, err)
	}
	if len(resp.Logits) != 1 {
		return nil, fmt.Errorf("%w: expected one row of logits, got %d", ErrInference, len(resp.Logits))
	}
	return resp.Logits[0], nil
}

func (e *HTTPEngine) Close() error {
	e.httpClient.CloseIdleConnections()
	return nil
}

func (e *HTTPEngine) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, e.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("model server returned status %d: %s", resp.StatusCode, string(msg))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
