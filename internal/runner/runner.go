package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"userload/internal/client"
	"userload/internal/events"
	"userload/internal/logger"
	"userload/internal/stats"
	"userload/internal/worker"
)

// フェーズ名（ログとイベントのタグに使用）
const (
	PhaseRegisterProbe = "register-probe"
	PhaseLoginProbe    = "login-probe"
	PhaseBulk          = "bulk-register"
	PhaseLoginSweep    = "login-sweep"
)

// progressEvery は進捗を報告する完了件数の間隔
const progressEvery = 1000

// probeUserIndex はログイン検証専用ユーザーの連番
// 一括作成の連番（0〜NumUsers-1）と衝突しない値にする
const probeUserIndex = 999999

// Config はランの設定
type Config struct {
	Name        string // ラン名
	Description string // 説明

	Addr        string        // gRPCサーバーアドレス（host:port）
	CallTimeout time.Duration // RPC1回あたりのタイムアウト

	NumUsers int // 一括作成するユーザー数
	Workers  int // ワーカー数

	ProbeAttempts int           // レート制限検証の試行回数
	ProbeInterval time.Duration // 検証時の試行間隔
	ProbePause    time.Duration // 登録検証とログイン検証の間の待機時間

	// 期待するサーバー側レート制限の説明（表示専用、動作には影響しない）
	RegisterLimitHint string
	LoginLimitHint    string

	BulkRPS    float64 // 一括作成の目標RPS上限（0で無制限）
	SkipProbes bool    // レート制限検証をスキップ
	SkipBulk   bool    // 一括作成をスキップ
	LoginSweep bool    // 作成済み全ユーザーでログインを1回ずつ実行
}

// DefaultConfig はデフォルト設定を返す
func DefaultConfig() Config {
	return Config{
		Name:              "standard",
		Description:       "Rate limit verification followed by bulk user creation",
		Addr:              "localhost:50051",
		CallTimeout:       client.DefaultCallTimeout,
		NumUsers:          10000,
		Workers:           20,
		ProbeAttempts:     10,
		ProbeInterval:     100 * time.Millisecond,
		ProbePause:        2 * time.Second,
		RegisterLimitHint: "3 per hour",
		LoginLimitHint:    "5 per 15 minutes",
	}
}

// Result はラン実行結果
type Result struct {
	RunName   string
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	TargetUsers  int
	CreatedUsers int
	Interrupted  bool

	// 操作別カウンタ
	Register stats.OpSnapshot
	Login    stats.OpSnapshot

	// 全体のパフォーマンス
	TotalRequests uint64
	AvgLatency    time.Duration
	P99Latency    time.Duration

	// 一括作成フェーズのスループット
	BulkDuration time.Duration
	BulkRPS      float64
}

// Engine はランの実行エンジン
type Engine struct {
	config   Config
	eventBus *events.Bus
	dial     func() (*client.Client, error)

	client *client.Client
	stats  *stats.Stats
	roster *stats.Roster

	bulkDuration  time.Duration
	bulkSubmitted int

	mu      sync.RWMutex
	running bool
}

// New は新しいEngineを作成する
func New(config Config) *Engine {
	e := &Engine{
		config: config,
	}
	e.dial = func() (*client.Client, error) {
		return client.Dial(client.Config{
			Addr:        config.Addr,
			CallTimeout: config.CallTimeout,
		})
	}
	return e
}

// SetEventBus はイベントバスを設定する
func (e *Engine) SetEventBus(bus *events.Bus) {
	e.eventBus = bus
}

// SetDialFunc は接続の生成方法を差し替える
// テストではbufconn接続を返す関数を渡す
func (e *Engine) SetDialFunc(dial func() (*client.Client, error)) {
	e.dial = dial
}

func (e *Engine) publish(ev events.Event) {
	if e.eventBus != nil {
		e.eventBus.Publish(ev)
	}
}

// IsRunning は実行中かどうかを返す
func (e *Engine) IsRunning() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.running
}

// Roster は作成済みユーザーの一覧を返す
func (e *Engine) Roster() *stats.Roster {
	return e.roster
}

// Run はランを実行する
// コンテキストのキャンセルで中断しても、送信済みの試行は必ず集計してから返る
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return nil, fmt.Errorf("run is already in progress")
	}
	e.running = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
	}()

	logger.Info("", "=== Run '%s' started ===", e.config.Name)
	logger.Info("", "Description: %s", e.config.Description)

	result := &Result{
		RunName:     e.config.Name,
		StartTime:   time.Now(),
		TargetUsers: e.config.NumUsers,
	}

	c, err := e.dial()
	if err != nil {
		return nil, fmt.Errorf("connection failed: %w", err)
	}
	e.client = c
	defer func() { _ = c.Close() }()

	e.stats = stats.New()
	e.roster = stats.NewRoster()

	if !e.config.SkipProbes {
		e.probeRegister(ctx)
		e.pause(ctx)
		e.probeLogin(ctx)
	}

	if !e.config.SkipBulk && ctx.Err() == nil {
		e.bulkRegister(ctx)
	}

	if e.config.LoginSweep && ctx.Err() == nil {
		e.loginSweep(ctx)
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	result.Interrupted = ctx.Err() != nil
	e.collectResults(result)

	logger.Info("", "=== Run '%s' completed ===", e.config.Name)

	return result, nil
}

// pause は検証フェーズ間の待機
func (e *Engine) pause(ctx context.Context) {
	if e.config.ProbePause <= 0 {
		return
	}
	logger.Info("", "waiting %v before login rate limit test...", e.config.ProbePause)
	select {
	case <-ctx.Done():
	case <-time.After(e.config.ProbePause):
	}
}

// probeRegister は登録エンドポイントのレート制限を検証する
// 同一クライアントから連続登録し、サーバーがRESOURCE_EXHAUSTEDを返し始めるかを観測する
func (e *Engine) probeRegister(ctx context.Context) {
	attempts := e.config.ProbeAttempts
	logger.Info(PhaseRegisterProbe, "attempting %d rapid registrations (expected limit: %s)",
		attempts, e.config.RegisterLimitHint)
	e.publish(events.NewPhaseStartEvent(PhaseRegisterProbe, attempts))

	limiter := rate.NewLimiter(rate.Every(e.config.ProbeInterval), 1)
	rateLimited := 0

	for i := 0; i < attempts; i++ {
		if err := limiter.Wait(ctx); err != nil {
			e.publish(events.NewInterruptedEvent(PhaseRegisterProbe, "probe cancelled"))
			return
		}

		out := e.client.Register(ctx, client.NewCredentials(probeUserIndex+1+i))
		out.Record(e.stats)

		switch {
		case out.RateLimited:
			rateLimited++
			logger.Info(PhaseRegisterProbe, "[%d/%d] rate limited", i+1, attempts)
		case out.Success:
			e.roster.Add(out.User)
			logger.Info(PhaseRegisterProbe, "[%d/%d] success (user id: %s)", i+1, attempts, out.User.UserID)
		default:
			logger.Warn(PhaseRegisterProbe, "[%d/%d] failed: %v", i+1, attempts, out.Err)
		}
	}

	e.verdict(PhaseRegisterProbe, rateLimited)
	e.publish(events.NewPhaseCompleteEvent(PhaseRegisterProbe, attempts))
}

// probeLogin はログインエンドポイントのレート制限を検証する
// Rosterの先頭ユーザーで連続ログインする（いなければ検証用に1人登録する）
func (e *Engine) probeLogin(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	testUser, ok := e.roster.First()
	if !ok {
		logger.Info(PhaseLoginProbe, "creating dedicated user for login rate limit test...")
		out := e.client.Register(ctx, client.NewCredentials(probeUserIndex))
		out.Record(e.stats)
		if !out.Success {
			logger.Warn(PhaseLoginProbe, "failed to create test user, skipping login rate limit test: %v", out.Err)
			return
		}
		testUser = out.User
		e.roster.Add(out.User)
	}

	attempts := e.config.ProbeAttempts
	logger.Info(PhaseLoginProbe, "attempting %d rapid logins (expected limit: %s)",
		attempts, e.config.LoginLimitHint)
	e.publish(events.NewPhaseStartEvent(PhaseLoginProbe, attempts))

	limiter := rate.NewLimiter(rate.Every(e.config.ProbeInterval), 1)
	rateLimited := 0

	for i := 0; i < attempts; i++ {
		if err := limiter.Wait(ctx); err != nil {
			e.publish(events.NewInterruptedEvent(PhaseLoginProbe, "probe cancelled"))
			return
		}

		out := e.client.Login(ctx, testUser.Email, testUser.Password)
		out.Record(e.stats)

		switch {
		case out.RateLimited:
			rateLimited++
			logger.Info(PhaseLoginProbe, "[%d/%d] rate limited", i+1, attempts)
		case out.Success:
			logger.Info(PhaseLoginProbe, "[%d/%d] success", i+1, attempts)
		default:
			logger.Warn(PhaseLoginProbe, "[%d/%d] failed: %v", i+1, attempts, out.Err)
		}
	}

	e.verdict(PhaseLoginProbe, rateLimited)
	e.publish(events.NewPhaseCompleteEvent(PhaseLoginProbe, attempts))
}

// verdict は検証フェーズの判定を出力する
func (e *Engine) verdict(phase string, rateLimited int) {
	if rateLimited > 0 {
		logger.Info(phase, "rate limiting is WORKING (%d attempts rejected)", rateLimited)
	} else {
		logger.Warn(phase, "rate limiting may NOT be working (no attempt was rejected)")
	}
}

// bulkRegister はワーカープール経由でユーザーを一括作成する
func (e *Engine) bulkRegister(ctx context.Context) {
	n := e.config.NumUsers
	if n <= 0 {
		return
	}

	logger.Info(PhaseBulk, "creating %d users (workers: %d)", n, e.config.Workers)

	jobs := make([]func(context.Context) client.Outcome, n)
	for i := 0; i < n; i++ {
		i := i
		jobs[i] = func(ctx context.Context) client.Outcome {
			return e.client.Register(ctx, client.NewCredentials(i))
		}
	}

	start := time.Now()
	e.bulkSubmitted = e.runBatch(ctx, PhaseBulk, jobs)
	e.bulkDuration = time.Since(start)
}

// loginSweep は作成済みの全ユーザーで1回ずつログインする
func (e *Engine) loginSweep(ctx context.Context) {
	users := e.roster.All()
	if len(users) == 0 {
		logger.Warn(PhaseLoginSweep, "no created users, skipping login sweep")
		return
	}

	logger.Info(PhaseLoginSweep, "logging in %d created users (workers: %d)", len(users), e.config.Workers)

	jobs := make([]func(context.Context) client.Outcome, len(users))
	for i, u := range users {
		u := u
		jobs[i] = func(ctx context.Context) client.Outcome {
			return e.client.Login(ctx, u.Email, u.Password)
		}
	}

	e.runBatch(ctx, PhaseLoginSweep, jobs)
}

// runBatch はジョブ列をワーカープールで実行し、アウトカムを集計する
// プール自体は親コンテキストから切り離して起動する: 中断時もキュー済みの
// ジョブは（キャンセル済みctxで即failedになって）必ずアウトカムを返すため、
// 送信済み件数と記録済み件数が常に一致する
func (e *Engine) runBatch(ctx context.Context, phase string, jobs []func(context.Context) client.Outcome) int {
	n := len(jobs)
	e.publish(events.NewPhaseStartEvent(phase, n))

	pool := worker.NewPool(e.config.Workers)
	pool.Start(context.Background())
	defer pool.Stop()

	var limiter *rate.Limiter
	if e.config.BulkRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(e.config.BulkRPS), 1)
	}

	results := make(chan client.Outcome, n)
	start := time.Now()

	submitted := 0
	for _, job := range jobs {
		if ctx.Err() != nil {
			break
		}
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				break
			}
		}

		if !pool.Submit(func() {
			results <- job(ctx)
		}) {
			break
		}
		submitted++

		if submitted%progressEvery == 0 {
			logger.Info(phase, "submitted %d/%d requests...", submitted, n)
		}
	}

	// アウトカム収集: 送信済みジョブ1件につき必ず1件受信する
	created := 0
	for received := 0; received < submitted; received++ {
		out := <-results
		out.Record(e.stats)
		if out.Success && out.Op == stats.OpRegister {
			e.roster.Add(out.User)
			created++
		}

		completed := received + 1
		if completed%progressEvery == 0 {
			elapsed := time.Since(start)
			throughput := float64(completed) / elapsed.Seconds()
			logger.Info(phase, "completed %d/%d requests (%.1f req/s, %.1fs elapsed)",
				completed, n, throughput, elapsed.Seconds())
			e.publish(events.NewProgressEvent(phase, completed, n, throughput))
		}
	}

	if ctx.Err() != nil {
		logger.Warn(phase, "interrupted after %d/%d submissions, all outcomes drained", submitted, n)
		e.publish(events.NewInterruptedEvent(phase, fmt.Sprintf("interrupted after %d/%d submissions", submitted, n)))
	}

	e.publish(events.NewPhaseCompleteEvent(phase, submitted))
	return submitted
}

// collectResults は結果を収集する
func (e *Engine) collectResults(result *Result) {
	snapshot := e.stats.Snapshot()
	result.Register = snapshot.Register
	result.Login = snapshot.Login
	result.TotalRequests = snapshot.TotalRequests
	result.AvgLatency = snapshot.AverageLatency
	result.P99Latency = snapshot.P99Latency

	result.CreatedUsers = e.roster.Len()
	result.BulkDuration = e.bulkDuration
	if e.bulkDuration > 0 {
		result.BulkRPS = float64(e.bulkSubmitted) / e.bulkDuration.Seconds()
	}
}

// Report は結果をフォーマットして返す
func (r *Result) Report() string {
	report := fmt.Sprintf(`
================================================================================
                          LOAD TEST REPORT: %s
================================================================================

EXECUTION SUMMARY
-----------------
  Start Time:     %s
  End Time:       %s
  Duration:       %v
  Target Users:   %d
  Created Users:  %d
  Interrupted:    %v

REGISTRATION
------------
  Attempts:       %d
  Success:        %d
  Failed:         %d
  Rate Limited:   %d

LOGIN
-----
  Attempts:       %d
  Success:        %d
  Failed:         %d
  Rate Limited:   %d

PERFORMANCE
-----------
  Total Requests: %d
  Avg Latency:    %v
  P99 Latency:    %v
`,
		r.RunName,
		r.StartTime.Format("2006-01-02 15:04:05"),
		r.EndTime.Format("2006-01-02 15:04:05"),
		r.Duration.Round(time.Millisecond),
		r.TargetUsers,
		r.CreatedUsers,
		r.Interrupted,
		r.Register.Attempts,
		r.Register.Success,
		r.Register.Failed,
		r.Register.RateLimited,
		r.Login.Attempts,
		r.Login.Success,
		r.Login.Failed,
		r.Login.RateLimited,
		r.TotalRequests,
		r.AvgLatency.Round(time.Microsecond),
		r.P99Latency.Round(time.Microsecond),
	)

	if r.BulkDuration > 0 {
		report += fmt.Sprintf("  Bulk Duration:  %v\n  Bulk Rate:      %.1f req/s\n",
			r.BulkDuration.Round(time.Millisecond), r.BulkRPS)
	}

	report += "\n================================================================================"

	return report
}
