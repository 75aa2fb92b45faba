package runner

import "time"

// ProbeRun はレート制限の検証だけを行う設定を返す
// 一括作成なし、登録・ログイン両方の検証のみ
func ProbeRun() Config {
	cfg := DefaultConfig()
	cfg.Name = "probe"
	cfg.Description = "Rate limit verification only, no bulk creation"
	cfg.SkipBulk = true
	return cfg
}

// QuickRun は短時間の動作確認用設定を返す
// 少数のユーザーで全フェーズを通す
func QuickRun() Config {
	cfg := DefaultConfig()
	cfg.Name = "quick"
	cfg.Description = "Quick end-to-end check with a small user count"
	cfg.NumUsers = 100
	cfg.Workers = 5
	cfg.ProbeAttempts = 5
	cfg.ProbePause = time.Second
	return cfg
}

// StandardRun は標準設定を返す
// 元の検証手順と同じ10,000ユーザー、20ワーカー
func StandardRun() Config {
	return DefaultConfig()
}

// StressRun は高負荷設定を返す
// 多数のワーカーで大量のユーザーを作成し、作成後に全員ログインする
func StressRun() Config {
	cfg := DefaultConfig()
	cfg.Name = "stress"
	cfg.Description = "High load run with login sweep over all created users"
	cfg.NumUsers = 50000
	cfg.Workers = 50
	cfg.LoginSweep = true
	return cfg
}

// GetPreset は名前からプリセット設定を取得する
func GetPreset(name string) (Config, bool) {
	presets := map[string]func() Config{
		"probe":    ProbeRun,
		"quick":    QuickRun,
		"standard": StandardRun,
		"stress":   StressRun,
	}

	if fn, ok := presets[name]; ok {
		return fn(), true
	}
	return Config{}, false
}

// ListPresets は利用可能なプリセット名を返す
func ListPresets() []string {
	return []string{"probe", "quick", "standard", "stress"}
}
