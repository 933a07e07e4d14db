package vision

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"cultivai/cropvision/croplabel"
)

// ONNXOptions configures the on-device image classifier.
type ONNXOptions struct {
	SharedLibrary string `json:"shared_library" yaml:"shared_library"`
	ModelPath     string `json:"model_path" yaml:"model_path"`
	LabelsPath    string `json:"labels_path" yaml:"labels_path"`
	InputName     string `json:"input_name" yaml:"input_name"`
	OutputName    string `json:"output_name" yaml:"output_name"`
	InputSize     int    `json:"input_size" yaml:"input_size"`
	NumClasses    int    `json:"num_classes" yaml:"num_classes"`
	TopK          int    `json:"top_k" yaml:"top_k"`
	ModelID       string `json:"model_id,omitempty" yaml:"model_id,omitempty"`
}

// ApplyDefaults populates zero values with sensible defaults.
func (o *ONNXOptions) ApplyDefaults() {
	if o.InputName == "" {
		o.InputName = "input"
	}
	if o.OutputName == "" {
		o.OutputName = "output"
	}
	if o.InputSize <= 0 {
		o.InputSize = 224
	}
	if o.NumClasses <= 0 {
		o.NumClasses = 1000
	}
	if o.TopK <= 0 {
		o.TopK = 5
	}
}

var (
	ortInitMu sync.Mutex
	ortUsers  int
)

// ONNXClassifier runs an image classification model through onnxruntime.
// A session owns its input and output tensors, so Classify calls are
// serialized.
type ONNXClassifier struct {
	opts    ONNXOptions
	labels  []string
	mu      sync.Mutex
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
}

// NewONNXClassifier loads the labels and model and prepares a session.
func NewONNXClassifier(opts ONNXOptions) (*ONNXClassifier, error) {
	opts.ApplyDefaults()
	if opts.ModelPath == "" {
		return nil, errors.New("onnx: model path is required")
	}
	if opts.ModelID == "" {
		opts.ModelID = filepath.Base(opts.ModelPath)
	}
	labels, err := loadLabels(opts.LabelsPath)
	if err != nil {
		return nil, err
	}
	if err := acquireEnvironment(opts.SharedLibrary); err != nil {
		return nil, err
	}
	c := &ONNXClassifier{opts: opts, labels: labels}
	if err := c.init(); err != nil {
		c.release()
		releaseEnvironment()
		return nil, err
	}
	return c, nil
}

func (c *ONNXClassifier) init() error {
	size := int64(c.opts.InputSize)
	in, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 3, size, size))
	if err != nil {
		return fmt.Errorf("onnx: input tensor: %w", err)
	}
	c.input = in
	out, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(c.opts.NumClasses)))
	if err != nil {
		return fmt.Errorf("onnx: output tensor: %w", err)
	}
	c.output = out
	session, err := ort.NewAdvancedSession(c.opts.ModelPath,
		[]string{c.opts.InputName}, []string{c.opts.OutputName},
		[]ort.Value{c.input}, []ort.Value{c.output}, nil)
	if err != nil {
		return fmt.Errorf("onnx: create session: %w", err)
	}
	c.session = session
	return nil
}

// ModelID identifies the classifier in cache keys.
func (c *ONNXClassifier) ModelID() string {
	return "onnx:" + c.opts.ModelID
}

// Classify decodes the image, runs the model and returns the top-K labels.
func (c *ONNXClassifier) Classify(ctx context.Context, image []byte) ([]croplabel.Candidate, error) {
	if len(image) == 0 {
		return nil, ErrEmptyImage
	}
	img, err := decodeImage(image)
	if err != nil {
		return nil, err
	}
	tensor := toTensor(img, c.opts.InputSize)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil, errors.New("onnx: classifier is closed")
	}
	copy(c.input.GetData(), tensor)
	if err := c.session.Run(); err != nil {
		return nil, fmt.Errorf("onnx: run: %w", err)
	}
	logits := make([]float32, len(c.output.GetData()))
	copy(logits, c.output.GetData())
	return topK(softmax(logits), c.labels, c.opts.TopK), nil
}

// Close releases the session and, with the last classifier, the runtime.
func (c *ONNXClassifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	c.release()
	releaseEnvironment()
	return nil
}

func (c *ONNXClassifier) release() {
	if c.session != nil {
		_ = c.session.Destroy()
		c.session = nil
	}
	if c.input != nil {
		_ = c.input.Destroy()
		c.input = nil
	}
	if c.output != nil {
		_ = c.output.Destroy()
		c.output = nil
	}
}

func acquireEnvironment(lib string) error {
	ortInitMu.Lock()
	defer ortInitMu.Unlock()
	if ortUsers == 0 {
		if lib != "" {
			ort.SetSharedLibraryPath(lib)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return fmt.Errorf("onnx: initialize runtime: %w", err)
		}
	}
	ortUsers++
	return nil
}

func releaseEnvironment() {
	ortInitMu.Lock()
	defer ortInitMu.Unlock()
	ortUsers--
	if ortUsers == 0 {
		_ = ort.DestroyEnvironment()
	}
}
