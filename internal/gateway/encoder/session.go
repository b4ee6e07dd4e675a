package encoder

import (
	"fmt"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/hejijunhao/kimo/internal/gateway/ortenv"
)

var bertInputs = []string{"input_ids", "attention_mask", "token_type_ids"}

// session wraps a BERT-style sentence-transformer ONNX model whose single
// output is the per-token hidden state [batch, seq, dim].
type session struct {
	sess     *ort.DynamicAdvancedSession
	embedDim int64
}

func newSession(modelPath string) (*session, error) {
	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to read model info: %w", err)
	}
	have := make(map[string]bool, len(inputs))
	for _, in := range inputs {
		have[in.Name] = true
	}
	for _, name := range bertInputs {
		if !have[name] {
			return nil, fmt.Errorf("onnx: model missing required input %q", name)
		}
	}
	if len(outputs) == 0 {
		return nil, fmt.Errorf("onnx: model has no outputs")
	}
	dims := outputs[0].Dimensions
	if len(dims) != 3 || dims[2] <= 0 {
		return nil, fmt.Errorf("onnx: expected [batch, seq, dim] output, got %v", dims)
	}

	opts, err := ortenv.NewSessionOptions()
	if err != nil {
		return nil, err
	}
	defer opts.Destroy()

	s, err := ort.NewDynamicAdvancedSession(modelPath, bertInputs, []string{outputs[0].Name}, opts)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create session: %w", err)
	}
	return &session{sess: s, embedDim: dims[2]}, nil
}

// hidden runs the model and returns flat [size*seqLen*embedDim] states.
func (s *session) hidden(b batch) ([]float32, error) {
	shape := ort.NewShape(b.size, b.seqLen)
	var inputs []ort.Value
	defer func() {
		for _, v := range inputs {
			v.Destroy()
		}
	}()
	for _, data := range [][]int64{b.ids, b.mask, b.types} {
		t, err := ort.NewTensor(shape, data)
		if err != nil {
			return nil, fmt.Errorf("onnx: failed to create input tensor: %w", err)
		}
		inputs = append(inputs, t)
	}

	out, err := ort.NewEmptyTensor[float32](ort.NewShape(b.size, b.seqLen, s.embedDim))
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create output tensor: %w", err)
	}
	defer out.Destroy()

	if err := s.sess.Run(inputs, []ort.Value{out}); err != nil {
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
