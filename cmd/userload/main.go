// Package main is the entry point for userload.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"userload/internal/config"
	"userload/internal/events"
	"userload/internal/logger"
	"userload/internal/runner"
)

var (
	version = "dev"
)

func main() {
	// フラグ定義
	var (
		configFile  = flag.String("config", "", "設定ファイルパス (YAML/JSON)")
		presetName  = flag.String("preset", "", "プリセット名 (probe, quick, standard, stress)")
		addr        = flag.String("addr", "", "gRPCサーバーアドレス (例: localhost:50051)")
		users       = flag.Int("users", 0, "一括作成するユーザー数")
		workers     = flag.Int("workers", 0, "ワーカー数")
		callTimeout = flag.Duration("timeout", 0, "RPC1回あたりのタイムアウト (例: 10s)")
		bulkRPS     = flag.Float64("rps", 0, "一括作成の目標RPS上限 (0で無制限)")
		skipProbes  = flag.Bool("skip-probes", false, "レート制限検証をスキップ")
		skipBulk    = flag.Bool("skip-bulk", false, "一括作成をスキップ")
		loginSweep  = flag.Bool("login-sweep", false, "作成済み全ユーザーでログインを1回ずつ実行")
		yes         = flag.Bool("yes", false, "一括作成前の確認プロンプトをスキップ")
		listPresets = flag.Bool("list-presets", false, "利用可能なプリセットを表示")
		showVersion = flag.Bool("version", false, "バージョンを表示")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `userload - User Service Load Tester & Rate Limit Verifier

Usage:
  userload [options]

Options:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # プリセットで実行
  userload --preset quick

  # 設定ファイルから実行
  userload --config run.yaml

  # フラグでカスタマイズ
  userload --preset standard --addr gateway:50051 --users 5000 --yes

  # レート制限の検証のみ
  userload --preset probe

  # プリセット一覧を表示
  userload --list-presets
`)
	}

	flag.Parse()

	// バージョン表示
	if *showVersion {
		fmt.Printf("userload version %s\n", version)
		return
	}

	// プリセット一覧表示
	if *listPresets {
		printPresets()
		return
	}

	// ラン設定の決定
	cfg, err := buildRunConfig(
		*configFile, *presetName,
		*addr, *users, *workers, *callTimeout, *bulkRPS,
		*skipProbes, *skipBulk, *loginSweep,
	)
	if err != nil {
		logger.Error("", "設定エラー: %v", err)
		os.Exit(1)
	}

	// 一括作成前の確認（元の検証手順と同じくyes/noを聞く）
	if !cfg.SkipBulk && !*yes {
		if !confirm(fmt.Sprintf("Proceed with creating %d users? (yes/no): ", cfg.NumUsers)) {
			fmt.Println("Skipping bulk user creation.")
			cfg.SkipBulk = true
		}
	}

	// ラン実行
	if err := runLoad(cfg); err != nil {
		logger.Error("", "実行エラー: %v", err)
		os.Exit(1)
	}
}

// buildRunConfig はラン設定を構築する
func buildRunConfig(
	configFile, presetName string,
	addr string, users, workers int, callTimeout time.Duration, bulkRPS float64,
	skipProbes, skipBulk, loginSweep bool,
) (runner.Config, error) {
	var cfg runner.Config

	// 1. 設定ファイルから読み込み
	if configFile != "" {
		fileConfig, err := config.LoadFile(configFile)
		if err != nil {
			return cfg, fmt.Errorf("設定ファイル読み込みエラー: %w", err)
		}
		if err := fileConfig.Validate(); err != nil {
			return cfg, fmt.Errorf("設定検証エラー: %w", err)
		}
		cfg, err = fileConfig.ToRunnerConfig()
		if err != nil {
			return cfg, fmt.Errorf("設定変換エラー: %w", err)
		}
	} else if presetName != "" {
		// 2. プリセットから読み込み
		preset, ok := runner.GetPreset(presetName)
		if !ok {
			return cfg, fmt.Errorf("不明なプリセット: %s (利用可能: %v)", presetName, runner.ListPresets())
		}
		cfg = preset
	} else {
		// 3. デフォルト（standard）
		cfg = runner.StandardRun()
	}

	// フラグでオーバーライド
	if addr != "" {
		cfg.Addr = addr
	}
	if users > 0 {
		cfg.NumUsers = users
	}
	if workers > 0 {
		cfg.Workers = workers
	}
	if callTimeout > 0 {
		cfg.CallTimeout = callTimeout
	}
	if bulkRPS > 0 {
		cfg.BulkRPS = bulkRPS
	}

	// boolフラグは明示的に指定された場合のみオーバーライド
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "skip-probes":
			cfg.SkipProbes = skipProbes
		case "skip-bulk":
			cfg.SkipBulk = skipBulk
		case "login-sweep":
			cfg.LoginSweep = loginSweep
		}
	})

	return cfg, nil
}

// confirm は標準入力からyes/noを読み取る
func confirm(prompt string) bool {
	fmt.Print(prompt)
	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return answer == "yes" || answer == "y"
}

// runLoad はランを実行する
func runLoad(cfg runner.Config) error {
	fmt.Println("userload - User Service Load Tester & Rate Limit Verifier")
	fmt.Println("==========================================================")
	fmt.Printf("Run: %s\n", cfg.Name)
	fmt.Printf("Target: %s\n", cfg.Addr)
	fmt.Printf("Users: %d, Workers: %d\n", cfg.NumUsers, cfg.Workers)
	fmt.Printf("Probes: %v, Bulk: %v, Login Sweep: %v\n", !cfg.SkipProbes, !cfg.SkipBulk, cfg.LoginSweep)
	fmt.Println("==========================================================")
	fmt.Println()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// シグナルハンドリング
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\n中断シグナルを受信、集計してから終了します...")
		cancel()
	}()

	// ラン実行
	engine := runner.New(cfg)

	bus := events.NewBus()
	engine.SetEventBus(bus)
	eventCh := bus.Subscribe()
	renderDone := make(chan struct{})
	go renderEvents(eventCh, renderDone)

	result, err := engine.Run(ctx)

	bus.Close()
	<-renderDone

	if err != nil {
		return err
	}

	// レポート出力（中断されていても送信済み分は集計されている）
	fmt.Println(result.Report())

	return nil
}

// renderEvents はランナーからのフェーズイベントを表示する
func renderEvents(ch <-chan events.Event, done chan<- struct{}) {
	defer close(done)

	for ev := range ch {
		switch ev.Type {
		case events.EventPhaseStart:
			fmt.Printf("\n>>> %s started (planned attempts: %d)\n", ev.Phase, ev.Data.Total)
		case events.EventPhaseComplete:
			fmt.Printf(">>> %s complete (%d attempts)\n", ev.Phase, ev.Data.Completed)
		case events.EventInterrupted:
			fmt.Printf(">>> %s interrupted: %s\n", ev.Phase, ev.Data.Message)
		}
	}
}

// printPresets は利用可能なプリセットを表示する
func printPresets() {
	fmt.Println("利用可能なプリセット:")
	fmt.Println()

	presets := []struct {
		name string
		desc string
	}{
		{"probe", "レート制限の検証のみ（一括作成なし）"},
		{"quick", "少数ユーザーでの短時間の動作確認"},
		{"standard", "レート制限検証 + 10,000ユーザー作成（デフォルト）"},
		{"stress", "高負荷: 50,000ユーザー作成 + 全員ログイン"},
	}

	for _, p := range presets {
		fmt.Printf("  %-12s %s\n", p.name, p.desc)
	}

	fmt.Println()
	fmt.Println("使用例: userload --preset quick")
}
