package predictor

import (
	"math"
	"math/rand"
	"sort"
)

// borderlineOversample rebalances the training set by synthesizing minority
// samples near the class boundary: only minority samples whose neighborhood
// is dominated (but not fully occupied) by other classes seed new points,
// interpolated toward same-class neighbors. Excessively late invoices are
// rare, so this is what keeps class 2 learnable.
func borderlineOversample(x [][]float64, y []int, classes, k int, rng *rand.Rand) ([][]float64, []int, int) {
	counts := make([]int, classes)
	for _, label := range y {
		counts[label]++
	}
	majority := 0
	for _, c := range counts {
		if c > majority {
			majority = c
		}
	}

	outX := append([][]float64(nil), x...)
	outY := append([]int(nil), y...)
	added := 0

	for class := 0; class < classes; class++ {
		need := majority - counts[class]
		if need <= 0 || counts[class] == 0 {
			continue
		}

		members := make([]int, 0, counts[class])
		for i, label := range y {
			if label == class {
				members = append(members, i)
			}
		}

		seeds := dangerSamples(x, y, members, class, k)
		if len(seeds) == 0 {
			// Nothing borderline; seed from the whole class instead.
			seeds = members
		}

		for n := 0; n < need; n++ {
			seed := seeds[rng.Intn(len(seeds))]
			neighbor := sameClassNeighbor(x, members, seed, k, rng)

			synthetic := make([]float64, len(x[seed]))
			t := rng.Float64()
			for j := range synthetic {
				synthetic[j] = x[seed][j] + t*(x[neighbor][j]-x[seed][j])
			}
			outX = append(outX, synthetic)
			outY = append(outY, class)
			added++
		}
	}
	return outX, outY, added
}

// dangerSamples returns the class members whose k-neighborhood holds more
// other-class samples than own-class ones without being entirely
// other-class.
func dangerSamples(x [][]float64, y []int, members []int, class, k int) []int {
	danger := make([]int, 0)
	for _, i := range members {
		neighbors := nearest(x, i, k)
		other := 0
		for _, n := range neighbors {
			if y[n] != class {
				other++
			}
		}
		if other*2 >= len(neighbors) && other < len(neighbors) {
			danger = append(danger, i)
		}
	}
	return danger
}

// sameClassNeighbor picks one of the k nearest same-class neighbors of the
// seed, or the seed itself when it is alone in its class.
func sameClassNeighbor(x [][]float64, members []int, seed, k int, rng *rand.Rand) int {
	type cand struct {
		idx  int
		dist float64
	}
	cands := make([]cand, 0, len(members))
	for _, m := range members {
		if m == seed {
			continue
		}
		cands = append(cands, cand{idx: m, dist: squaredDistance(x[seed], x[m])})
	}
	if len(cands) == 0 {
		return seed
	}
	sort.Slice(cands, func(a, b int) bool { return cands[a].dist < cands[b].dist })
	if len(cands) > k {
		cands = cands[:k]
	}
	return cands[rng.Intn(len(cands))].idx
}

// nearest returns the indexes of the k nearest samples to i (excluding i).
func nearest(x [][]float64, i, k int) []int {
	type cand struct {
		idx  int
		dist float64
	}
	cands := make([]cand, 0, len(x)-1)
	for j := range x {
		if j == i {
			continue
		}
		cands = append(cands, cand{idx: j, dist: squaredDistance(x[i], x[j])})
	}
	sort.Slice(cands, func(a, b int) bool { return cands[a].dist < cands[b].dist })
	if len(cands) > k {
		cands = cands[:k]
	}
	out := make([]int, len(cands))
	for n, c := range cands {
		out[n] = c.idx
	}
	return out
}

func squaredDistance(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		d := a[i] - b[i]
		if math.IsNaN(d) {
			continue
		}
		s += d * d
	}
	return s
}
