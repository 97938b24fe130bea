package model

// Persistable は保存・読み込み可能なモデルのインターフェース
type Persistable interface {
	// Save はモデルをファイルに保存する
	Save(path string) error
	// Load はファイルからモデルを読み込む
	Load(path string) error
}

// ParameterGetter はハイパーパラメータを公開するモデルのインターフェース
type ParameterGetter interface {
	// GetParams はモデルのハイパーパラメータを返す
	GetParams() map[string]interface{}
}

// Validator は設定の妥当性を検証できる型のインターフェース
type Validator interface {
	// Validate は設定内容を検証し、不正な場合はエラーを返す
	Validate() error
}
