package vision

import (
	"context"
	"fmt"
	"image"
	"os"
	"sync"
	"time"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/hejijunhao/kimo/internal/gateway/ortenv"
	"github.com/hejijunhao/kimo/internal/model"
)

const (
	defaultInputSize = 224
	defaultTopK      = 3
)

// Option configures a Classifier.
type Option func(*Classifier)

// WithTopK sets how many predictions are returned. Default: 3.
func WithTopK(k int) Option {
	return func(c *Classifier) { c.topK = k }
}

// WithLibraryPath sets an explicit ONNX Runtime shared library path.
func WithLibraryPath(p string) Option {
	return func(c *Classifier) { c.libPath = p }
}

// Classifier runs a MobileNet-style ONNX image classification model.
type Classifier struct {
	modelPath  string
	labelsPath string
	libPath    string
	topK       int

	mu      sync.RWMutex
	sess    *session
	labels  []string
	modTime time.Time
}

// New creates a Classifier. Nothing is read from disk until Load.
func New(modelPath, labelsPath string, opts ...Option) *Classifier {
	c := &Classifier{
		modelPath:  modelPath,
		labelsPath: labelsPath,
		topK:       defaultTopK,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load reads the labels and creates the inference session.
func (c *Classifier) Load(_ context.Context) error {
	sess, labels, err := c.open()
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.sess, c.labels = sess, labels
	c.modTime = ortenv.ModTime(c.modelPath)
	c.mu.Unlock()
	return nil
}

func (c *Classifier) open() (*session, []string, error) {
	labels, err := loadLabels(c.labelsPath)
	if err != nil {
		return nil, nil, fmt.Errorf("vision: %w", err)
	}
	if _, err := os.Stat(c.modelPath); err != nil {
		return nil, nil, fmt.Errorf("vision: %w", err)
	}
	if err := ortenv.Init(ortenv.LibraryPath(c.libPath, c.modelPath)); err != nil {
		return nil, nil, fmt.Errorf("vision: %w", err)
	}
	sess, err := newSession(c.modelPath, len(labels))
	if err != nil {
		return nil, nil, fmt.Errorf("vision: %w", err)
	}
	return sess, labels, nil
}

// ClassifyImage returns the top-K predictions for img.
func (c *Classifier) ClassifyImage(_ context.Context, img image.Image) ([]model.Prediction, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.sess == nil {
		return nil, fmt.Errorf("vision: classifier not loaded")
	}

	input := preprocess(img, c.sess.size, c.sess.layout)
	logits, err := c.sess.infer(input)
	if err != nil {
		return nil, fmt.Errorf("vision: %w", err)
	}
	offset := 0
	if len(logits) == len(c.labels)+1 {
		offset = 1
	}
	return topK(softmax(logits), c.labels, offset, c.topK), nil
}

// Revalidate reloads the model when the file on disk is newer than the
// loaded copy.
func (c *Classifier) Revalidate(_ context.Context) error {
	c.mu.RLock()
	current := c.modTime
	c.mu.RUnlock()
	if !ortenv.ModTime(c.modelPath).After(current) {
		return nil
	}

	sess, labels, err := c.open()
	if err != nil {
		return err
	}
	c.mu.Lock()
	old := c.sess
	c.sess, c.labels = sess, labels
	c.modTime = ortenv.ModTime(c.modelPath)
	c.mu.Unlock()
	if old != nil {
		old.close()
	}
	return nil
}

// Close releases the inference session.
func (c *Classifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil {
		return nil
	}
	err := c.sess.close()
	c.sess = nil
	return err
}

// session wraps a DynamicAdvancedSession for a single-image classifier.
type session struct {
	sess       *ort.DynamicAdvancedSession
	layout     layout
	size       int
	numOutputs int64
}

func newSession(modelPath string, numLabels int) (*session, error) {
	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to read model info: %w", err)
	}
	if len(inputs) != 1 || len(outputs) == 0 {
		return nil, fmt.Errorf("onnx: expected 1 input and at least 1 output, got %d/%d", len(inputs), len(outputs))
	}

	l, size, err := inputLayout(inputs[0].Dimensions)
	if err != nil {
		return nil, err
	}

	numOutputs := int64(numLabels)
	if od := outputs[0].Dimensions; len(od) == 2 && od[1] > 0 {
		numOutputs = od[1]
	}

	opts, err := ortenv.NewSessionOptions()
	if err != nil {
		return nil, err
	}
	defer opts.Destroy()

	s, err := ort.NewDynamicAdvancedSession(modelPath,
		[]string{inputs[0].Name}, []string{outputs[0].Name}, opts)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create session: %w", err)
	}
	return &session{sess: s, layout: l, size: size, numOutputs: numOutputs}, nil
}

// inputLayout inspects [batch, C, H, W] or [batch, H, W, C] dims.
func inputLayout(dims ort.Shape) (layout, int, error) {
	if len(dims) != 4 {
		return 0, 0, fmt.Errorf("onnx: expected 4D image input, got %v", dims)
	}
	pick := func(d int64) int {
		if d > 0 {
			return int(d)
		}
		return defaultInputSize
	}
	switch {
	case dims[1] == 3:
		return nchw, pick(dims[2]), nil
	case dims[3] == 3:
		return nhwc, pick(dims[1]), nil
	default:
		return 0, 0, fmt.Errorf("onnx: cannot find RGB channel axis in %v", dims)
	}
}

func (s *session) infer(input []float32) ([]float32, error) {
	shape := ort.NewShape(1, 3, int64(s.size), int64(s.size))
	if s.layout == nhwc {
		shape = ort.NewShape(1, int64(s.size), int64(s.size), 3)
	}
	in, err := ort.NewTensor(shape, input)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create input tensor: %w", err)
	}
	defer in.Destroy()

	out, err := ort.NewEmptyTensor[float32](ort.NewShape(1, s.numOutputs))
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create output tensor: %w", err)
	}
	defer out.Destroy()

	if err := s.sess.Run([]ort.Value{in}, []ort.Value{out}); err != nil {
		return nil, fmt.Errorf("onnx: inference failed: %w", err)
	}

	src := out.GetData()
	result := make([]float32, len(src))
	copy(result, src)
	return result, nil
}

func (s *session) close() error {
	return s.sess.Destroy()
}
