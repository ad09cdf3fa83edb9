package model

// Metadata describes the tensors of an ONNX artifact.
type Metadata struct {
	InputName   string  `json:"input_name"`
	OutputName  string  `json:"output_name"`
	InputShape  []int64 `json:"input_shape"`
	OutputShape []int64 `json:"output_shape"`
	Classes     []int   `json:"classes"`
}

type PredictionRequest struct {
	Features []float64 `json:"features" binding:"required"`
}

type PredictionResponse struct {
	Prediction int `json:"prediction"`
}

// Artifact is the portable export of a fitted estimator. Type selects which
// of the remaining fields are meaningful.
type Artifact struct {
	Type      string      `json:"type" yaml:"type"`
	NFeatures int         `json:"n_features" yaml:"n_features"`
	Classes   []int       `json:"classes" yaml:"classes"`
	Tree      *TreeNodes  `json:"tree,omitempty" yaml:"tree,omitempty"`
	Trees     []TreeNodes `json:"trees,omitempty" yaml:"trees,omitempty"`
	Coef      [][]float64 `json:"coef,omitempty" yaml:"coef,omitempty"`
	Intercept []float64   `json:"intercept,omitempty" yaml:"intercept,omitempty"`
}

// TreeNodes mirrors the parallel arrays of a fitted scikit-learn tree.
// Leaves have children_left == children_right == -1.
type TreeNodes struct {
	ChildrenLeft  []int       `json:"children_left" yaml:"children_left"`
	ChildrenRight []int       `json:"children_right" yaml:"children_right"`
	Feature       []int       `json:"feature" yaml:"feature"`
	Threshold     []float64   `json:"threshold" yaml:"threshold"`
	Value         [][]float64 `json:"value" yaml:"value"`
}
