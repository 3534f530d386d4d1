package results

import (
	"fmt"
	"sort"

	"github.com/gonum/floats"
	"github.com/gonum/matrix/mat64"
)

func accuracy(yTrue, yPred []float64) float64 {
	var hit float64
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			hit++
		}
	}

	return hit / float64(len(yTrue))
}

// observed returns the sorted labels present in either vector
func observed(yTrue, yPred []float64) []float64 {
	seen := make(map[float64]bool)
	var labels []float64

	for _, ys := range [][]float64{yTrue, yPred} {
		for _, y := range ys {
			if !seen[y] {
				seen[y] = true
				labels = append(labels, y)
			}
		}
	}

	sort.Float64s(labels)
	return labels
}

// precisionRecall returns macro-averaged precision and recall over the labels
// seen in either vector. A label that was never predicted (or never true) adds zero.
func precisionRecall(yTrue, yPred []float64) (precision, recall float64) {
	labels := observed(yTrue, yPred)

	for _, label := range labels {
		var tp, fp, fn float64
		for i := range yTrue {
			switch {
			case yPred[i] == label && yTrue[i] == label:
				tp++
			case yPred[i] == label:
				fp++
			case yTrue[i] == label:
				fn++
			}
		}

		if tp+fp > 0 {
			precision += tp / (tp + fp)
		}
		if tp+fn > 0 {
			recall += tp / (tp + fn)
		}
	}

	n := float64(len(labels))
	precision /= n
	recall /= n
	return
}

// confusion counts true label (rows) against predicted label (columns) over classes
func confusion(yTrue, yPred, classes []float64) (*mat64.Dense, error) {
	pos := make(map[float64]int, len(classes))
	for i, c := range classes {
		pos[c] = i
	}

	cm := mat64.NewDense(len(classes), len(classes), nil)
	for i := range yTrue {
		t, ok := pos[yTrue[i]]
		if !ok {
			return nil, fmt.Errorf("true label %v is not a known class: %w", yTrue[i], ErrShape)
		}
		p, ok := pos[yPred[i]]
		if !ok {
			return nil, fmt.Errorf("predicted label %v is not a known class: %w", yPred[i], ErrShape)
		}
		cm.Set(t, p, cm.At(t, p)+1)
	}

	return cm, nil
}

func meanSquaredError(yTrue, yPred []float64) float64 {
	var sse float64
	for i := range yTrue {
		d := yTrue[i] - yPred[i]
		sse += d * d
	}

	return sse / float64(len(yTrue))
}

// r2 is the coefficient of determination. A constant target scores 1 when
// predicted perfectly and 0 otherwise.
func r2(yTrue, yPred []float64) float64 {
	mean := floats.Sum(yTrue) / float64(len(yTrue))

	var ssRes, ssTot float64
	for i := range yTrue {
		ssRes += (yTrue[i] - yPred[i]) * (yTrue[i] - yPred[i])
		ssTot += (yTrue[i] - mean) * (yTrue[i] - mean)
	}

	if ssTot == 0 {
		if ssRes == 0 {
			return 1
		}
		return 0
	}

	return 1 - ssRes/ssTot
}
