package classifier

import (
	"context"
	"errors"
	"fmt"

	ort "github.com/yalue/onnxruntime_go"
	"go.uber.org/zap"
)

const (
	DeviceAuto = "auto"
	DeviceCPU  = "cpu"
	DeviceCUDA = "cuda"

	inputIDs      = "input_ids"
	attentionMask = "attention_mask"
	tokenTypeIDs  = "token_type_ids"
)

var ErrUnknownDevice = errors.New("unknown classifier device")

// ONNXOptions configures the onnxruntime-backed engine.
type ONNXOptions struct {
	ModelPath      string
	LibraryPath    string
	Device         string
	IntraOpThreads int
}

// ONNXEngine runs a sequence-classification graph exported to ONNX.
// The session is created once; every Logits call allocates its own tensors,
// so concurrent calls share nothing mutable.
type ONNXEngine struct {
	session    *ort.DynamicAdvancedSession
	inputNames []string
	outputName string
	device     string
}

// NewONNXEngine initialises the onnxruntime environment and opens the model.
func NewONNXEngine(opts ONNXOptions, logger *zap.Logger) (*ONNXEngine, error) {
	if err := validateDevice(opts.Device); err != nil {
		return nil, err
	}
	if opts.LibraryPath != "" {
		ort.SetSharedLibraryPath(opts.LibraryPath)
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("failed to initialize onnxruntime: %w", err)
		}
	}

	inputNames, outputName, err := inspectModel(opts.ModelPath)
	if err != nil {
		return nil, err
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer options.Destroy()

	if opts.IntraOpThreads > 0 {
		if err := options.SetIntraOpNumThreads(opts.IntraOpThreads); err != nil {
			return nil, fmt.Errorf("failed to set intra-op threads: %w", err)
		}
	}

	device, err := selectDevice(options, opts.Device, logger)
	if err != nil {
		return nil, err
	}

	session, err := ort.NewDynamicAdvancedSession(opts.ModelPath, inputNames, []string{outputName}, options)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create onnx session: %v", ErrArtifactInvalid, err)
	}

	logger.Info("ONNX classifier session created",
		zap.String("model", opts.ModelPath),
		zap.String("device", device),
		zap.Strings("inputs", inputNames),
		zap.String("output", outputName))

	return &ONNXEngine{
		session:    session,
		inputNames: inputNames,
		outputName: outputName,
		device:     device,
	}, nil
}

// inspectModel checks the graph signature and returns the inputs to feed in
// graph order together with the logits output name.
func inspectModel(modelPath string) ([]string, string, error) {
	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, "", fmt.Errorf("%w: failed to read model signature: %v", ErrArtifactInvalid, err)
	}

	var names []string
	hasInputIDs := false
	for _, in := range inputs {
		switch in.Name {
		case inputIDs, attentionMask, tokenTypeIDs:
		default:
			return nil, "", fmt.Errorf("%w: unsupported model input %q", ErrArtifactInvalid, in.Name)
		}
		if in.DataType != ort.TensorElementDataTypeInt64 {
			return nil, "", fmt.Errorf("%w: model input %q must be int64", ErrArtifactInvalid, in.Name)
		}
		if in.Name == inputIDs {
			hasInputIDs = true
		}
		names = append(names, in.Name)
	}
	if !hasInputIDs {
		return nil, "", fmt.Errorf("%w: model has no %s input", ErrArtifactInvalid, inputIDs)
	}

	if len(outputs) == 0 {
		return nil, "", fmt.Errorf("%w: model has no outputs", ErrArtifactInvalid)
	}
	out := outputs[0]
	if dims := out.Dimensions; len(dims) > 0 {
		if last := dims[len(dims)-1]; last > 0 && last != numLabels {
			return nil, "", fmt.Errorf("%w: model produces %d labels, want %d", ErrArtifactInvalid, last, numLabels)
		}
	}

	return names, out.Name, nil
}

func validateDevice(device string) error {
	switch device {
	case "", DeviceCPU, DeviceCUDA, DeviceAuto:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDevice, device)
	}
}

// selectDevice appends the CUDA provider when requested. "auto" falls back to
// the CPU provider when CUDA is unavailable.
func selectDevice(options *ort.SessionOptions, device string, logger *zap.Logger) (string, error) {
	if err := validateDevice(device); err != nil {
		return "", err
	}
	if device == "" || device == DeviceCPU {
		return DeviceCPU, nil
	}

	cudaErr := appendCUDA(options)
	if cudaErr == nil {
		return DeviceCUDA, nil
	}
	if device == DeviceCUDA {
		return "", fmt.Errorf("failed to enable CUDA execution provider: %w", cudaErr)
	}
	logger.Info("CUDA execution provider unavailable, using CPU", zap.Error(cudaErr))
	return DeviceCPU, nil
}

func appendCUDA(options *ort.SessionOptions) error {
	cudaOptions, err := ort.NewCUDAProviderOptions()
	if err != nil {
		return err
	}
	defer cudaOptions.Destroy()
	return options.AppendExecutionProviderCUDA(cudaOptions)
}

// Device is the execution provider chosen at startup.
func (e *ONNXEngine) Device() string {
	return e.device
}

// Logits runs one forward pass for a single encoded sequence.
func (e *ONNXEngine) Logits(_ context.Context, enc Encoding) ([]float32, error) {
	shape := ort.NewShape(1, int64(len(enc.InputIDs)))

	inputs := make([]ort.Value, 0, len(e.inputNames))
	defer func() {
		for _, v := range inputs {
			_ = v.Destroy()
		}
	}()

	for _, name := range e.inputNames {
		var data []int64
		switch name {
		case inputIDs:
			data = enc.InputIDs
		case attentionMask:
			data = enc.AttentionMask
		case tokenTypeIDs:
			data = enc.TokenTypeIDs
		}
		tensor, err := ort.NewTensor(shape, data)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to create %s tensor: %v", ErrInference, name, err)
		}
		inputs = append(inputs, tensor)
	}

	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, numLabels))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create output tensor: %v", ErrInference, err)
	}
	defer output.Destroy()

	if err := e.session.Run(inputs, []ort.Value{output}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInference, err)
	}

	return append([]float32(nil), output.GetData()...), nil
}

// Close releases the session and the onnxruntime environment.
func (e *ONNXEngine) Close() error {
	if err := e.session.Destroy(); err != nil {
		return err
	}
	return ort.DestroyEnvironment()
}
