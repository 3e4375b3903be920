package predictor

import (
	"fmt"
	"strings"
)

// ClassReport holds per-class evaluation metrics.
type ClassReport struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// Diagnostics summarizes a training run. Advisory only; nothing gates on it.
type Diagnostics struct {
	Accuracy   float64       `json:"accuracy"`
	Confusion  [][]int       `json:"confusion"`
	PerClass   []ClassReport `json:"per_class"`
	TrainRows  int           `json:"train_rows"`
	TestRows   int           `json:"test_rows"`
	Oversample int           `json:"oversampled_rows"`
}

// evaluate computes accuracy, confusion matrix and per-class
// precision/recall/F1 from predicted vs. actual labels.
func evaluate(actual, predicted []int, classes int) Diagnostics {
	d := Diagnostics{
		Confusion: make([][]int, classes),
		PerClass:  make([]ClassReport, classes),
		TestRows:  len(actual),
	}
	for i := range d.Confusion {
		d.Confusion[i] = make([]int, classes)
	}

	correct := 0
	for i := range actual {
		d.Confusion[actual[i]][predicted[i]]++
		if actual[i] == predicted[i] {
			correct++
		}
	}
	if len(actual) > 0 {
		d.Accuracy = float64(correct) / float64(len(actual))
	}

	for k := 0; k < classes; k++ {
		var tp, fp, fn int
		for j := 0; j < classes; j++ {
			if j == k {
				tp = d.Confusion[k][k]
				continue
			}
			fn += d.Confusion[k][j]
			fp += d.Confusion[j][k]
		}

		r := ClassReport{Support: tp + fn}
		if tp+fp > 0 {
			r.Precision = float64(tp) / float64(tp+fp)
		}
		if tp+fn > 0 {
			r.Recall = float64(tp) / float64(tp+fn)
		}
		if r.Precision+r.Recall > 0 {
			r.F1 = 2 * r.Precision * r.Recall / (r.Precision + r.Recall)
		}
		d.PerClass[k] = r
	}
	return d
}

// String renders the diagnostics as a plain-text report.
func (d Diagnostics) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "accuracy: %.2f%% (%d test rows)\n", d.Accuracy*100, d.TestRows)
	b.WriteString("confusion matrix (rows = actual, cols = predicted):\n")
	for _, row := range d.Confusion {
		for _, v := range row {
			fmt.Fprintf(&b, "%6d", v)
		}
		b.WriteByte('\n')
	}
	b.WriteString("class  precision  recall      f1  support\n")
	for k, r := range d.PerClass {
		fmt.Fprintf(&b, "%5d  %9.3f  %6.3f  %6.3f  %7d\n", k, r.Precision, r.Recall, r.F1, r.Support)
	}
	return b.String()
}
