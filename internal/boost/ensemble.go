package boost

import (
	"encoding/json"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/MohaMazouz/latewatch/internal/common"
)

// Params holds the boosting hyperparameters.
type Params struct {
	LearningRate float64 `json:"learning_rate"`
	Lambda       float64 `json:"lambda"`
	Rounds       int     `json:"rounds"`
	MaxDepth     int     `json:"max_depth"`
	MinLeafSize  int     `json:"min_leaf_size"`
	Classes      int     `json:"classes"`
}

// DefaultParams returns sensible defaults for the invoice-delay problem.
func DefaultParams(classes int) Params {
	return Params{
		Rounds:       60,
		LearningRate: 0.1,
		MaxDepth:     3,
		MinLeafSize:  5,
		Lambda:       1.0,
		Classes:      classes,
	}
}

// Ensemble is a trained multiclass boosted-tree model.
type Ensemble struct {
	Params Params    `json:"params"`
	Base   []float64 `json:"base"`
	Trees  [][]Tree  `json:"trees"` // [round][class]
}

// Train fits the ensemble to a dense feature matrix and integer class
// labels. The optional progress callback fires once per boosting round.
func Train(x [][]float64, y []int, p Params, progress func(round int)) (*Ensemble, error) {
	n := len(x)
	if n == 0 || len(y) != n {
		return nil, fmt.Errorf("%w: %d samples, %d labels", common.ErrTrainingFailed, n, len(y))
	}
	if p.Classes < 2 {
		return nil, fmt.Errorf("%w: need at least 2 classes", common.ErrTrainingFailed)
	}
	for i, label := range y {
		if label < 0 || label >= p.Classes {
			return nil, fmt.Errorf("%w: label %d out of range at sample %d", common.ErrTrainingFailed, label, i)
		}
	}

	e := &Ensemble{
		Params: p,
		Base:   classPriors(y, p.Classes),
	}

	// Raw scores, updated additively each round.
	scores := make([][]float64, n)
	for i := range scores {
		scores[i] = append([]float64(nil), e.Base...)
	}

	samples := make([]int, n)
	for i := range samples {
		samples[i] = i
	}

	grad := make([]float64, n)
	hess := make([]float64, n)
	probs := make([]float64, p.Classes)

	for round := 0; round < p.Rounds; round++ {
		roundTrees := make([]Tree, p.Classes)
		for k := 0; k < p.Classes; k++ {
			for i := 0; i < n; i++ {
				softmax(scores[i], probs)
				pk := probs[k]
				target := 0.0
				if y[i] == k {
					target = 1.0
				}
				grad[i] = pk - target
				hess[i] = pk * (1 - pk)
			}

			builder := &treeBuilder{
				x:           x,
				grad:        grad,
				hess:        hess,
				maxDepth:    p.MaxDepth,
				minLeafSize: p.MinLeafSize,
				lambda:      p.Lambda,
			}
			tree := builder.build(samples)
			roundTrees[k] = tree

			for i := 0; i < n; i++ {
				scores[i][k] += p.LearningRate * tree.Predict(x[i])
			}
		}
		e.Trees = append(e.Trees, roundTrees)
		if progress != nil {
			progress(round)
		}
	}

	return e, nil
}

// Scores returns the raw per-class scores for one feature vector.
func (e *Ensemble) Scores(x []float64) []float64 {
	scores := append([]float64(nil), e.Base...)
	for _, round := range e.Trees {
		for k := range round {
			scores[k] += e.Params.LearningRate * round[k].Predict(x)
		}
	}
	return scores
}

// PredictClass returns the argmax class for one feature vector.
func (e *Ensemble) PredictClass(x []float64) int {
	return floats.MaxIdx(e.Scores(x))
}

// PredictAll classifies every row of the matrix.
func (e *Ensemble) PredictAll(x [][]float64) []int {
	out := make([]int, len(x))
	for i := range x {
		out[i] = e.PredictClass(x[i])
	}
	return out
}

// Marshal serializes the ensemble to its artifact form.
func (e *Ensemble) Marshal() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize model: %w", err)
	}
	return data, nil
}

// Unmarshal restores an ensemble from its artifact form.
func Unmarshal(data []byte) (*Ensemble, error) {
	var e Ensemble
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("failed to deserialize model: %w", err)
	}
	if e.Params.Classes < 2 || len(e.Base) != e.Params.Classes {
		return nil, fmt.Errorf("%w: artifact is inconsistent", common.ErrModelUnavailable)
	}
	return &e, nil
}

// classPriors returns per-class log priors as the base score.
func classPriors(y []int, classes int) []float64 {
	counts := make([]float64, classes)
	for _, label := range y {
		counts[label]++
	}
	base := make([]float64, classes)
	total := float64(len(y))
	for k := range base {
		// Laplace smoothing keeps empty classes finite.
		base[k] = math.Log((counts[k] + 1) / (total + float64(classes)))
	}
	return base
}

// softmax writes the softmax of scores into out.
func softmax(scores, out []float64) {
	maxScore := floats.Max(scores)
	sum := 0.0
	for i, s := range scores {
		out[i] = math.Exp(s - maxScore)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
}
