package classifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mihribandursun/sentiment-analysis/internal/models"
)

// newModelServer serves the keywordEngine scoring over HTTP.
func newModelServer(t *testing.T, numLabels int, status int) *httptest.Server {
	t.Helper()
	engine := &keywordEngine{}
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/model/info", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(remoteModelInfo{NumLabels: numLabels, MaxLength: 16, Device: "cpu"})
	})
	mux.HandleFunc("/v1/logits", func(w http.ResponseWriter, r *http.Request) {
		if status != http.StatusOK {
			http.Error(w, "model crashed", status)
			return
		}
		var req logitsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.InputIDs) != 1 {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		logits, _ := engine.Logits(r.Context(), Encoding{
			InputIDs:      req.InputIDs[0],
			AttentionMask: req.AttentionMask[0],
			TokenTypeIDs:  req.TokenTypeIDs[0],
		})
		_ = json.NewEncoder(w).Encode(logitsResponse{Logits: [][]float32{logits}})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeVocab(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, VocabFile), []byte(strings.Join(testVocab, "\n")+"\n"), 0o644))
	return dir
}

func TestLoadWithRemoteEngine(t *testing.T) {
	srv := newModelServer(t, 2, http.StatusOK)

	rt, err := Load(Options{ModelDir: writeVocab(t), Endpoint: srv.URL + "/", MaxLength: 16, Timeout: time.Second}, zap.NewNop())
	require.NoError(t, err)
	defer rt.Close()

	got, err := rt.Classify(context.Background(), "The food was amazing and arrived hot!")
	require.NoError(t, err)
	assert.Equal(t, models.SentimentPositive, got.ID)
	assert.Equal(t, models.LabelPositive, got.Label)
	assert.Greater(t, got.Confidence, 50.0)
}

func TestRemoteEngineRejectsWrongLabelCount(t *testing.T) {
	srv := newModelServer(t, 3, http.StatusOK)

	_, err := NewHTTPEngine(context.Background(), srv.URL, time.Second, zap.NewNop())
	require.ErrorIs(t, err, ErrArtifactInvalid)
}

func TestRemoteEngineUnreachable(t *testing.T) {
	srv := newModelServer(t, 2, http.StatusOK)
	url := srv.URL
	srv.Close()

	_, err := NewHTTPEngine(context.Background(), url, time.Second, zap.NewNop())
	require.ErrorIs(t, err, ErrArtifactInvalid)
}

func TestRemoteEngineServerError(t *testing.T) {
	srv := newModelServer(t, 2, http.StatusInternalServerError)

	engine, err := NewHTTPEngine(context.Background(), srv.URL, time.Second, zap.NewNop())
	require.NoError(t, err)

	_, err = engine.Logits(context.Background(), newTestTokenizer(t, 8).Encode("cold"))
	require.ErrorIs(t, err, ErrInference)
	assert.Contains(t, err.Error(), "status 500")
}
