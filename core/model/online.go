package model

// OnlineMetrics は反復学習中の損失推移を公開するモデルのインターフェース
type OnlineMetrics interface {
	// LossHistory は完了したイテレーションごとの平均損失を返す
	LossHistory() []float64

	// Converged は学習が収束したかどうかを返す
	Converged() bool
}
