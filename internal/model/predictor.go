package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	FormatAuto = "auto"
	FormatONNX = "onnx"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

const (
	TypeDecisionTree       = "decision_tree"
	TypeRandomForest       = "random_forest"
	TypeLogisticRegression = "logistic_regression"
)

var (
	ErrFeatureCount      = errors.New("feature count mismatch")
	ErrUnsupportedFormat = errors.New("unsupported model format")
	ErrInvalidModel      = errors.New("invalid model")
)

// Predictor maps a single feature vector to a class label.
// Implementations are immutable after loading and safe for concurrent use.
type Predictor interface {
	Predict(features []float64) (int, error)
	NumFeatures() int
	Classes() []int
}

// closer is implemented by predictors that hold native resources.
type closer interface {
	Close()
}

// Options locate a model artifact on disk.
type Options struct {
	Path         string
	Format       string
	MetadataPath string
	ONNXLibrary  string
}

// ResolveFormat returns the artifact format, inferring it from the file
// extension when format is empty or "auto".
func ResolveFormat(path, format string) (string, error) {
	format = strings.ToLower(format)
	if format != "" && format != FormatAuto {
		switch format {
		case FormatONNX, FormatJSON, FormatYAML:
			return format, nil
		}
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".onnx":
		return FormatONNX, nil
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%w: cannot infer format of %s", ErrUnsupportedFormat, path)
}

// Load reads the artifact described by opts and builds its predictor.
func Load(opts Options) (Predictor, error) {
	format, err := ResolveFormat(opts.Path, opts.Format)
	if err != nil {
		return nil, err
	}
	if format == FormatONNX {
		return newONNXPredictor(opts)
	}

	payload, err := os.ReadFile(opts.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model: %w", err)
	}

	var artifact Artifact
	if format == FormatYAML {
		err = yaml.Unmarshal(payload, &artifact)
	} else {
		err = json.Unmarshal(payload, &artifact)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse model: %w", err)
	}
	return FromArtifact(&artifact)
}

// FromArtifact builds the predictor for a decoded artifact.
func FromArtifact(a *Artifact) (Predictor, error) {
	if a.NFeatures <= 0 {
		return nil, fmt.Errorf("%w: n_features must be positive", ErrInvalidModel)
	}
	if len(a.Classes) == 0 {
		return nil, fmt.Errorf("%w: no classes", ErrInvalidModel)
	}

	switch a.Type {
	case TypeDecisionTree:
		if a.Tree == nil {
			return nil, fmt.Errorf("%w: decision_tree without tree", ErrInvalidModel)
		}
		return newForest(a.NFeatures, a.Classes, []TreeNodes{*a.Tree})
	case TypeRandomForest:
		return newForest(a.NFeatures, a.Classes, a.Trees)
	case TypeLogisticRegression:
		return newLinear(a.NFeatures, a.Classes, a.Coef, a.Intercept)
	}
	return nil, fmt.Errorf("%w: unknown model type %q", ErrUnsupportedFormat, a.Type)
}

func checkWidth(features []float64, want int) error {
	if len(features) != want {
		return fmt.Errorf("%w: model expects %d features, got %d", ErrFeatureCount, want, len(features))
	}
	return nil
}

func argmax(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}
