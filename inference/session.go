// Package inference provides ONNX Runtime integration for segmentation
// heatmap models.
package inference

import (
	"context"
	"fmt"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

var (
	ortEnvOnce sync.Once
	ortEnvErr  error
)

// initORT initializes ONNX Runtime environment once.
func initORT() error {
	ortEnvOnce.Do(func() {
		ortEnvErr = ort.InitializeEnvironment()
	})
	return ortEnvErr
}

// Session wraps an ONNX Runtime session for heatmap inference.
type Session struct {
	session *ort.DynamicAdvancedSession
	mu      sync.Mutex
	closed  bool
}

// NewSession creates a new ONNX session from a model file.
func NewSession(modelPath string) (*Session, error) {
	// Check file exists
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("model file: %w", err)
	}

	if err := initORT(); err != nil {
		return nil, fmt.Errorf("initializing ONNX runtime: %w", err)
	}

	// Create session options
	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("creating session options: %w", err)
	}
	defer func() { _ = options.Destroy() }() // Cleanup error doesn't affect success

	// Define input/output names (from model inspection)
	inputNames := []string{"image"}
	outputNames := []string{"heatmap"}

	session, err := ort.NewDynamicAdvancedSession(
		modelPath,
		inputNames,
		outputNames,
		options,
	)
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	return &Session{session: session}, nil
}

// Infer runs the model on one CHW image tensor and returns the flattened
// per-class heatmap together with its spatial size. The output grid is
// usually smaller than the input because of network striding.
func (s *Session) Infer(ctx context.Context, image []float32, channels, height, width int) (heatmap []float32, outHeight, outWidth int, err error) {
	// Check context before expensive operation
	select {
	case <-ctx.Done():
		return nil, 0, 0, ctx.Err()
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, 0, 0, fmt.Errorf("session is closed")
	}

	if len(image) != channels*height*width {
		return nil, 0, 0, fmt.Errorf("image has %d values, want %d x %d x %d", len(image), channels, height, width)
	}

	imageTensor, err := ort.NewTensor(
		ort.NewShape(1, int64(channels), int64(height), int64(width)),
		image,
	)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("creating image tensor: %w", err)
	}
	defer func() { _ = imageTensor.Destroy() }()

	inputs := []ort.Value{imageTensor}

	// Prepare output slice - nil entries will be allocated by Run
	outputs := []ort.Value{nil}

	if err := s.session.Run(inputs, outputs); err != nil {
		return nil, 0, 0, fmt.Errorf("running inference: %w", err)
	}

	if outputs[0] == nil {
		return nil, 0, 0, fmt.Errorf("no output produced")
	}
	defer func() { _ = outputs[0].Destroy() }()

	heatmapTensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, 0, 0, fmt.Errorf("unexpected output tensor type")
	}

	// Expect [1, classes, h, w]
	shape := heatmapTensor.GetShape()
	if len(shape) != 4 || shape[0] != 1 {
		return nil, 0, 0, fmt.Errorf("unexpected output shape %v", shape)
	}
	outHeight = int(shape[2])
	outWidth = int(shape[3])

	// Copy output data
	outputData := heatmapTensor.GetData()
	heatmap = make([]float32, len(outputData))
	copy(heatmap, outputData)

	return heatmap, outHeight, outWidth, nil
}

// Close releases ONNX resources.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	if s.session != nil {
		return s.session.Destroy()
	}
	return nil
}
