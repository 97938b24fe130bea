package metrics

import (
	"math"
	"sort"

	"github.com/YuminosukeSato/gamgo/pkg/errors"
)

// AUC はROC曲線下面積（Area Under the ROC Curve）を計算する。
// yTrueは0/1の二値ラベル、yPredは任意の実数スコア。同スコアのペアは
// Mann-Whitney U統計の流儀で0.5ペア分として数える。
// yTrueに片方のクラスしか含まれない場合はUndefinedMetricWarningを発行し、0.5を返す。
func AUC(yTrue, yPred []float64) (float64, error) {
	// 入力検証
	n := len(yTrue)
	if n == 0 {
		return 0, errors.NewValueError("AUC", "empty input")
	}

	if len(yPred) != n {
		return 0, errors.NewDimensionError("AUC", n, len(yPred), 0)
	}

	var pos, neg int
	for _, y := range yTrue {
		switch y {
		case 0:
			neg++
		case 1:
			pos++
		default:
			return 0, errors.NewValueError("AUC", "labels must be binary (0 or 1)")
		}
	}

	if pos == 0 || neg == 0 {
		w := errors.NewUndefinedMetricWarning("AUC", "only one class present in yTrue", 0.5)
		errors.Warn(w)
		return w.Result, nil
	}

	// スコア昇順に並べ、同スコアには平均順位を割り当てる
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return yPred[idx[a]] < yPred[idx[b]] })

	var rankSum float64 // 正例の順位和（1始まり）
	for i := 0; i < n; {
		j := i
		for j < n && yPred[idx[j]] == yPred[idx[i]] {
			j++
		}
		avgRank := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			if yTrue[idx[k]] == 1 {
				rankSum += avgRank
			}
		}
		i = j
	}

	// U = R⁺ - P(P+1)/2、AUC = U / (P·N)
	u := rankSum - float64(pos)*float64(pos+1)/2
	return u / (float64(pos) * float64(neg)), nil
}

// BinaryLogLoss は二値分類の交差エントロピー損失（log loss）を計算する。
// log(0)を避けるため、予測確率は[ε, 1-ε]にクリップされる。
func BinaryLogLoss(yTrue, yPred []float64) (float64, error) {
	const eps = 1e-15

	// 入力検証
	n := len(yTrue)
	if n == 0 {
		return 0, errors.NewValueError("BinaryLogLoss", "empty input")
	}

	if len(yPred) != n {
		return 0, errors.NewDimensionError("BinaryLogLoss", n, len(yPred), 0)
	}

	var sum float64
	for i := 0; i < n; i++ {
		if yTrue[i] != 0 && yTrue[i] != 1 {
			return 0, errors.NewValueError("BinaryLogLoss", "labels must be binary (0 or 1)")
		}

		p := errors.ClipValue(yPred[i], eps, 1-eps)
		if yTrue[i] == 1 {
			sum -= math.Log(p)
		} else {
			sum -= math.Log(1 - p)
		}
	}

	return sum / float64(n), nil
}
