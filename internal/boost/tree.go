// Package boost implements a small multiclass gradient-boosted tree
// classifier with a softmax objective. The trained ensemble serializes to
// JSON so the storage layer can treat it as an opaque versioned artifact.
package boost

import "sort"

// node is one tree node. Leaves have Left == -1.
type node struct {
	Threshold float64 `json:"t"`
	Value     float64 `json:"v"`
	Feature   int     `json:"f"`
	Left      int     `json:"l"`
	Right     int     `json:"r"`
}

// Tree is a regression tree over a dense feature matrix.
type Tree struct {
	Nodes []node `json:"nodes"`
}

// Predict evaluates the tree for one feature vector.
func (t *Tree) Predict(x []float64) float64 {
	i := 0
	for t.Nodes[i].Left >= 0 {
		n := &t.Nodes[i]
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
	return t.Nodes[i].Value
}

// treeBuilder grows one regression tree against gradient/hessian targets.
type treeBuilder struct {
	x           [][]float64
	grad        []float64
	hess        []float64
	maxDepth    int
	minLeafSize int
	lambda      float64
}

func (b *treeBuilder) build(samples []int) Tree {
	t := Tree{}
	b.grow(&t, samples, 0)
	return t
}

// grow appends the subtree for the given samples and returns its root index.
func (b *treeBuilder) grow(t *Tree, samples []int, depth int) int {
	gSum, hSum := b.sums(samples)

	idx := len(t.Nodes)
	t.Nodes = append(t.Nodes, node{Left: -1, Right: -1})

	if depth >= b.maxDepth || len(samples) < 2*b.minLeafSize {
		t.Nodes[idx].Value = b.leafValue(gSum, hSum)
		return idx
	}

	feature, threshold, gain := b.bestSplit(samples, gSum, hSum)
	if gain <= 0 {
		t.Nodes[idx].Value = b.leafValue(gSum, hSum)
		return idx
	}

	left := make([]int, 0, len(samples))
	right := make([]int, 0, len(samples))
	for _, s := range samples {
		if b.x[s][feature] <= threshold {
			left = append(left, s)
		} else {
			right = append(right, s)
		}
	}

	t.Nodes[idx].Feature = feature
	t.Nodes[idx].Threshold = threshold
	t.Nodes[idx].Left = b.grow(t, left, depth+1)
	t.Nodes[idx].Right = b.grow(t, right, depth+1)
	return idx
}

func (b *treeBuilder) sums(samples []int) (gSum, hSum float64) {
	for _, s := range samples {
		gSum += b.grad[s]
		hSum += b.hess[s]
	}
	return gSum, hSum
}

func (b *treeBuilder) leafValue(gSum, hSum float64) float64 {
	return -gSum / (hSum + b.lambda)
}

// bestSplit scans every feature for the split maximizing the gain
//
//	GL^2/(HL+l) + GR^2/(HR+l) - G^2/(H+l)
//
// subject to the minimum leaf size on both sides.
func (b *treeBuilder) bestSplit(samples []int, gSum, hSum float64) (feature int, threshold, gain float64) {
	if len(samples) == 0 {
		return -1, 0, 0
	}

	parent := gSum * gSum / (hSum + b.lambda)
	feature = -1

	numFeatures := len(b.x[samples[0]])
	ordered := make([]int, len(samples))

	for f := 0; f < numFeatures; f++ {
		copy(ordered, samples)
		sort.Slice(ordered, func(i, j int) bool {
			return b.x[ordered[i]][f] < b.x[ordered[j]][f]
		})

		gLeft, hLeft := 0.0, 0.0
		for i := 0; i < len(ordered)-1; i++ {
			s := ordered[i]
			gLeft += b.grad[s]
			hLeft += b.hess[s]

			// Splits only between distinct values.
			cur, next := b.x[s][f], b.x[ordered[i+1]][f]
			if cur == next {
				continue
			}
			if i+1 < b.minLeafSize || len(ordered)-i-1 < b.minLeafSize {
				continue
			}

			gRight := gSum - gLeft
			hRight := hSum - hLeft
			g := gLeft*gLeft/(hLeft+b.lambda) + gRight*gRight/(hRight+b.lambda) - parent
			if g > gain {
				gain = g
				feature = f
				threshold = (cur + next) / 2
			}
		}
	}
	return feature, threshold, gain
}
