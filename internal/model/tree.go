package model

import "fmt"

const leaf = -1

// forest votes over one or more fitted trees. A decision tree is a forest of one.
type forest struct {
	nFeatures int
	classes   []int
	trees     []TreeNodes
}

func newForest(nFeatures int, classes []int, trees []TreeNodes) (*forest, error) {
	if len(trees) == 0 {
		return nil, fmt.Errorf("%w: no trees", ErrInvalidModel)
	}
	for i := range trees {
		if err := validateTree(&trees[i], nFeatures, len(classes)); err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return &forest{nFeatures: nFeatures, classes: classes, trees: trees}, nil
}

func validateTree(t *TreeNodes, nFeatures, nClasses int) error {
	n := len(t.ChildrenLeft)
	if n == 0 {
		return fmt.Errorf("%w: empty tree", ErrInvalidModel)
	}
	if len(t.ChildrenRight) != n || len(t.Feature) != n || len(t.Threshold) != n || len(t.Value) != n {
		return fmt.Errorf("%w: node arrays differ in length", ErrInvalidModel)
	}
	for i := 0; i < n; i++ {
		left, right := t.ChildrenLeft[i], t.ChildrenRight[i]
		if len(t.Value[i]) != nClasses {
			return fmt.Errorf("%w: node %d has %d class values, want %d", ErrInvalidModel, i, len(t.Value[i]), nClasses)
		}
		if left == leaf && right == leaf {
			continue
		}
		// children always follow their parent, so traversal cannot loop
		if left <= i || left >= n || right <= i || right >= n {
			return fmt.Errorf("%w: node %d has children out of range", ErrInvalidModel, i)
		}
		if t.Feature[i] < 0 || t.Feature[i] >= nFeatures {
			return fmt.Errorf("%w: node %d splits on feature %d", ErrInvalidModel, i, t.Feature[i])
		}
	}
	return nil
}

func (f *forest) Predict(features []float64) (int, error) {
	if err := checkWidth(features, f.nFeatures); err != nil {
		return 0, err
	}

	proba := make([]float64, len(f.classes))
	for i := range f.trees {
		value := f.trees[i].leafValue(features)
		var total float64
		for _, v := range value {
			total += v
		}
		if total == 0 {
			continue
		}
		for c, v := range value {
			proba[c] += v / total
		}
	}
	return f.classes[argmax(proba)], nil
}

func (t *TreeNodes) leafValue(features []float64) []float64 {
	idx := 0
	for t.ChildrenLeft[idx] != leaf {
		if features[t.Feature[idx]] <= t.Threshold[idx] {
			idx = t.ChildrenLeft[idx]
		} else {
			idx = t.ChildrenRight[idx]
		}
	}
	return t.Value[idx]
}

func (f *forest) NumFeatures() int { return f.nFeatures }

func (f *forest) Classes() []int { return f.classes }
