package metrics

import (
	"math"
	"sort"

	"github.com/YuminosukeSato/gamgo/pkg/errors"
)

// rankOrder は予測スコアの降順に並べたインデックスを返す。
// 同スコアは元の順序を保つ。
func rankOrder(yPred []float64) []int {
	idx := make([]int, len(yPred))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return yPred[idx[a]] > yPred[idx[b]] })
	return idx
}

// gain は指数利得 2^rel - 1 を返す。高い関連度を強く重み付けする。
func gain(rel float64) float64 {
	return math.Exp2(rel) - 1
}

// NDCG は正規化割引累積利得（Normalized Discounted Cumulative Gain）を計算する。
// yTrueは非負の関連度、yPredはランキングスコア。kは評価する上位件数で、
// k == -1 のときは全件を使う。
// 関連度がすべてゼロの場合はUndefinedMetricWarningを発行し、0を返す。
func NDCG(yTrue, yPred []float64, k int) (float64, error) {
	// 入力検証
	n := len(yTrue)
	if n == 0 {
		return 0, errors.NewValueError("NDCG", "empty input")
	}

	if len(yPred) != n {
		return 0, errors.NewDimensionError("NDCG", n, len(yPred), 0)
	}

	if k == -1 || k > n {
		k = n
	}
	if k <= 0 {
		return 0, errors.NewValueError("NDCG", "k must be positive, or -1 for all items")
	}

	for _, rel := range yTrue {
		if rel < 0 {
			return 0, errors.NewValueError("NDCG", "relevance grades must be non-negative")
		}
	}

	// DCG@k = Σ (2^rel - 1) / log2(i+1)　（iは1始まりの順位）
	order := rankOrder(yPred)
	var dcg float64
	for i := 0; i < k; i++ {
		dcg += gain(yTrue[order[i]]) / math.Log2(float64(i)+2)
	}

	// 理想順（関連度降順）で正規化する
	ideal := append([]float64(nil), yTrue...)
	sort.Sort(sort.Reverse(sort.Float64Slice(ideal)))
	var idcg float64
	for i := 0; i < k; i++ {
		idcg += gain(ideal[i]) / math.Log2(float64(i)+2)
	}

	if idcg == 0 {
		w := errors.NewUndefinedMetricWarning("NDCG", "all relevance grades are zero", 0)
		errors.Warn(w)
		return w.Result, nil
	}

	return dcg / idcg, nil
}

// AveragePrecision は平均適合率（Average Precision）を計算する。
// yTrueは0/1の二値関連度。スコア降順に走査し、正例に当たるたびに
// その位置での適合率を加算して正例数で平均する。
// 正例が存在しない場合はUndefinedMetricWarningを発行し、0を返す。
func AveragePrecision(yTrue, yPred []float64) (float64, error) {
	// 入力検証
	n := len(yTrue)
	if n == 0 {
		return 0, errors.NewValueError("AveragePrecision", "empty input")
	}

	if len(yPred) != n {
		return 0, errors.NewDimensionError("AveragePrecision", n, len(yPred), 0)
	}

	var relevant int
	for _, y := range yTrue {
		if y != 0 && y != 1 {
			return 0, errors.NewValueError("AveragePrecision", "labels must be binary (0 or 1)")
		}
		if y == 1 {
			relevant++
		}
	}

	if relevant == 0 {
		w := errors.NewUndefinedMetricWarning("AveragePrecision", "no relevant items in yTrue", 0)
		errors.Warn(w)
		return w.Result, nil
	}

	order := rankOrder(yPred)
	var hits int
	var sum float64
	for i, j := range order {
		if yTrue[j] == 1 {
			hits++
			sum += float64(hits) / float64(i+1)
		}
	}

	return sum / float64(relevant), nil
}
