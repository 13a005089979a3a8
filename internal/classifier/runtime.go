// Package classifier turns review text into a binary sentiment with a
// confidence percentage using a pretrained sequence-classification model.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mihribandursun/sentiment-analysis/internal/models"
)

var (
	ErrEmptyText       = errors.New("text is empty")
	ErrArtifactMissing = errors.New("model artifact missing")
	ErrArtifactInvalid = errors.New("model artifact invalid")
	ErrInference       = errors.New("inference failed")
)

const (
	ModelFile           = "model.onnx"
	VocabFile           = "vocab.txt"
	TokenizerConfigFile = "tokenizer_config.json"

	DefaultMaxLength = 128
)

// Engine runs the forward pass for one encoded sequence and returns the raw
// per-class logits.
type Engine interface {
	Logits(ctx context.Context, enc Encoding) ([]float32, error)
	Close() error
}

// Options locate and tune the model artifact.
type Options struct {
	ModelDir       string
	LibraryPath    string
	Device         string
	MaxLength      int
	Timeout        time.Duration
	IntraOpThreads int

	// Endpoint, when set, sends forward passes to a model server instead of
	// running model.onnx in process.
	Endpoint string
}

// Runtime is created once at startup and shared by all requests.
type Runtime struct {
	tokenizer *Tokenizer
	engine    Engine
	timeout   time.Duration
	logger    *zap.Logger
}

// New wires a runtime from already-loaded parts.
func New(tokenizer *Tokenizer, engine Engine, timeout time.Duration, logger *zap.Logger) *Runtime {
	return &Runtime{
		tokenizer: tokenizer,
		engine:    engine,
		timeout:   timeout,
		logger:    logger,
	}
}

// Load reads the tokenizer and model from opts.ModelDir. Any missing or
// unreadable file is an error; callers treat it as fatal.
func Load(opts Options, logger *zap.Logger) (*Runtime, error) {
	if opts.MaxLength == 0 {
		opts.MaxLength = DefaultMaxLength
	}

	modelPath := filepath.Join(opts.ModelDir, ModelFile)
	vocabPath := filepath.Join(opts.ModelDir, VocabFile)
	required := []string{vocabPath}
	if opts.Endpoint == "" {
		required = append(required, modelPath)
	}
	for _, p := range required {
		if err := requireFile(p); err != nil {
			return nil, err
		}
	}

	tokenizer, err := LoadTokenizer(vocabPath, filepath.Join(opts.ModelDir, TokenizerConfigFile), opts.MaxLength)
	if err != nil {
		return nil, fmt.Errorf("failed to load tokenizer: %w", err)
	}

	var engine Engine
	if opts.Endpoint != "" {
		ctx, cancel := context.WithTimeout(context.Background(), remoteStartupTimeout)
		defer cancel()
		engine, err = NewHTTPEngine(ctx, opts.Endpoint, opts.Timeout, logger)
	} else {
		engine, err = NewONNXEngine(ONNXOptions{
			ModelPath:      modelPath,
			LibraryPath:    opts.LibraryPath,
			Device:         opts.Device,
			IntraOpThreads: opts.IntraOpThreads,
		}, logger)
	}
	if err != nil {
		return nil, err
	}

	logger.Info("Sentiment classifier loaded",
		zap.String("model_dir", opts.ModelDir),
		zap.Int("max_length", opts.MaxLength))

	return New(tokenizer, engine, opts.Timeout, logger), nil
}

func requireFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrArtifactMissing, path, err)
	}
	if info.IsDir() || info.Size() == 0 {
		return fmt.Errorf("%w: %s is empty or not a file", ErrArtifactInvalid, path)
	}
	return nil
}

type inference struct {
	logits []float32
	err    error
}

// Classify returns the sentiment of text. The forward pass is bounded by ctx
// and by the runtime timeout; an abandoned pass finishes in the background and
// its result is dropped.
func (r *Runtime) Classify(ctx context.Context, text string) (models.Sentiment, error) {
	if strings.TrimSpace(text) == "" {
		return models.Sentiment{}, ErrEmptyText
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	enc := r.tokenizer.Encode(text)

	done := make(chan inference, 1)
	start := time.Now()
	go func() {
		logits, err := r.engine.Logits(ctx, enc)
		done <- inference{logits: logits, err: err}
	}()

	select {
	case <-ctx.Done():
		return models.Sentiment{}, fmt.Errorf("classification aborted: %w", ctx.Err())
	case res := <-done:
		if res.err != nil {
			return models.Sentiment{}, res.err
		}
		sentiment, err := decide(res.logits)
		if err != nil {
			return models.Sentiment{}, err
		}
		r.logger.Debug("Review classified",
			zap.Int("tokens", enc.Length),
			zap.String("label", sentiment.Label),
			zap.Float64("confidence", sentiment.Confidence),
			zap.Duration("took", time.Since(start)))
		return sentiment, nil
	}
}

// Close releases the inference engine.
func (r *Runtime) Close() error {
	return r.engine.Close()
}
