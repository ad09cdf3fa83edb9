package model

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// onnxPredictor runs a classifier graph through onnxruntime. The session is
// bound to a single pair of tensors, so Run calls are serialised.
type onnxPredictor struct {
	mu           sync.Mutex
	session      *ort.AdvancedSession
	metadata     Metadata
	width        int
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
}

func readMetadata(path string) (Metadata, error) {
	var metadata Metadata
	metaFile, err := os.ReadFile(path)
	if err != nil {
		return metadata, fmt.Errorf("failed to read metadata: %w", err)
	}
	if err := json.Unmarshal(metaFile, &metadata); err != nil {
		return metadata, fmt.Errorf("failed to parse metadata: %w", err)
	}
	if len(metadata.InputShape) == 0 || len(metadata.OutputShape) == 0 {
		return metadata, fmt.Errorf("%w: metadata lacks tensor shapes", ErrInvalidModel)
	}
	if metadata.InputName == "" {
		metadata.InputName = "input"
	}
	if metadata.OutputName == "" {
		metadata.OutputName = "output"
	}
	return metadata, nil
}

func newONNXPredictor(opts Options) (*onnxPredictor, error) {
	metadata, err := readMetadata(opts.MetadataPath)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(opts.Path); err != nil {
		return nil, fmt.Errorf("failed to read model: %w", err)
	}

	if opts.ONNXLibrary != "" {
		ort.SetSharedLibraryPath(opts.ONNXLibrary)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}

	inputShape := ort.NewShape(metadata.InputShape...)
	outputShape := ort.NewShape(metadata.OutputShape...)

	inputTensor, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		inputTensor.Destroy()
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(opts.Path,
		[]string{metadata.InputName}, []string{metadata.OutputName},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &onnxPredictor{
		session:      session,
		metadata:     metadata,
		width:        int(inputShape.FlattenedSize()),
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
	}, nil
}

func (p *onnxPredictor) Predict(features []float64) (int, error) {
	if err := checkWidth(features, p.width); err != nil {
		return 0, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	fillInput(p.inputTensor.GetData(), features)

	if err := p.session.Run(); err != nil {
		return 0, fmt.Errorf("inference failed: %w", err)
	}

	return labelFor(p.outputTensor.GetData(), p.metadata.Classes)
}

func (p *onnxPredictor) NumFeatures() int { return p.width }

func (p *onnxPredictor) Classes() []int { return p.metadata.Classes }

func (p *onnxPredictor) Close() {
	if p.inputTensor != nil {
		p.inputTensor.Destroy()
	}
	if p.outputTensor != nil {
		p.outputTensor.Destroy()
	}
	if p.session != nil {
		p.session.Destroy()
	}
	ort.DestroyEnvironment()
}

func fillInput(dst []float32, features []float64) {
	for i, v := range features {
		dst[i] = float32(v)
	}
}

// labelFor maps the highest output score to its class label. Without class
// labels the score index is the label.
func labelFor(scores []float32, classes []int) (int, error) {
	if len(scores) == 0 {
		return 0, fmt.Errorf("inference failed: empty output")
	}
	maxIdx := 0
	for i, val := range scores {
		if val > scores[maxIdx] {
			maxIdx = i
		}
	}

	if len(classes) == 0 {
		return maxIdx, nil
	}
	if maxIdx >= len(classes) {
		return 0, fmt.Errorf("inference failed: output index %d has no class label", maxIdx)
	}
	return classes[maxIdx], nil
}
