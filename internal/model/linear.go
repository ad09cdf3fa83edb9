package model

import "fmt"

// linear is a fitted logistic regression. Binary models carry a single
// coefficient row whose sign picks between the two classes.
type linear struct {
	nFeatures int
	classes   []int
	coef      [][]float64
	intercept []float64
}

func newLinear(nFeatures int, classes []int, coef [][]float64, intercept []float64) (*linear, error) {
	if len(classes) < 2 {
		return nil, fmt.Errorf("%w: logistic regression needs at least two classes", ErrInvalidModel)
	}
	rows := len(classes)
	if rows == 2 {
		rows = 1
	}
	if len(coef) != rows {
		return nil, fmt.Errorf("%w: %d coefficient rows for %d classes", ErrInvalidModel, len(coef), len(classes))
	}
	if len(intercept) != rows {
		return nil, fmt.Errorf("%w: %d intercepts for %d rows", ErrInvalidModel, len(intercept), rows)
	}
	for i, row := range coef {
		if len(row) != nFeatures {
			return nil, fmt.Errorf("%w: coefficient row %d has %d values, want %d", ErrInvalidModel, i, len(row), nFeatures)
		}
	}
	return &linear{nFeatures: nFeatures, classes: classes, coef: coef, intercept: intercept}, nil
}

func (l *linear) Predict(features []float64) (int, error) {
	if err := checkWidth(features, l.nFeatures); err != nil {
		return 0, err
	}

	scores := make([]float64, len(l.coef))
	for i, row := range l.coef {
		score := l.intercept[i]
		for j, w := range row {
			score += w * features[j]
		}
		scores[i] = score
	}

	if len(scores) == 1 {
		if scores[0] > 0 {
			return l.classes[1], nil
		}
		return l.classes[0], nil
	}
	return l.classes[argmax(scores)], nil
}

func (l *linear) NumFeatures() int { return l.nFeatures }

func (l *linear) Classes() []int { return l.classes }
