package stats

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Op は計測対象のリモート操作を表す
type Op string

const (
	OpRegister Op = "register"
	OpLogin    Op = "login"
)

// opCounters は単一操作のアウトカム別カウンタ
type opCounters struct {
	success     atomic.Uint64
	failed      atomic.Uint64
	rateLimited atomic.Uint64
}

func (c *opCounters) attempts() uint64 {
	return c.success.Load() + c.failed.Load() + c.rateLimited.Load()
}

// Stats はリクエストのアウトカムとレイテンシを収集する
type Stats struct {
	register opCounters
	login    opCounters

	totalLatencyNs atomic.Uint64

	mu                sync.RWMutex
	startTime         time.Time
	latencies         []time.Duration
	maxLatencySamples int
}

// New は新しいStatsを作成する
func New() *Stats {
	return &Stats{
		startTime:         time.Now(),
		latencies:         make([]time.Duration, 0, 1000),
		maxLatencySamples: 1000,
	}
}

func (s *Stats) counters(op Op) *opCounters {
	if op == OpLogin {
		return &s.login
	}
	return &s.register
}

// RecordSuccess は成功したリクエストを記録する
func (s *Stats) RecordSuccess(op Op, latency time.Duration) {
	s.counters(op).success.Add(1)
	s.recordLatency(latency)
}

// RecordFailure は失敗したリクエストを記録する
func (s *Stats) RecordFailure(op Op, latency time.Duration) {
	s.counters(op).failed.Add(1)
	s.recordLatency(latency)
}

// RecordRateLimited はレート制限されたリクエストを記録する
func (s *Stats) RecordRateLimited(op Op, latency time.Duration) {
	s.counters(op).rateLimited.Add(1)
	s.recordLatency(latency)
}

func (s *Stats) recordLatency(latency time.Duration) {
	s.totalLatencyNs.Add(uint64(latency.Nanoseconds()))

	s.mu.Lock()
	if len(s.latencies) < s.maxLatencySamples {
		s.latencies = append(s.latencies, latency)
	}
	s.mu.Unlock()
}

// Success は操作の成功数を返す
func (s *Stats) Success(op Op) uint64 {
	return s.counters(op).success.Load()
}

// Failed は操作の失敗数を返す
func (s *Stats) Failed(op Op) uint64 {
	return s.counters(op).failed.Load()
}

// RateLimited は操作のレート制限数を返す
func (s *Stats) RateLimited(op Op) uint64 {
	return s.counters(op).rateLimited.Load()
}

// Attempts は操作の試行総数を返す
// success + failed + rate_limited と常に一致する
func (s *Stats) Attempts(op Op) uint64 {
	return s.counters(op).attempts()
}

// TotalRequests は全操作の試行総数を返す
func (s *Stats) TotalRequests() uint64 {
	return s.register.attempts() + s.login.attempts()
}

// OverallRPS は開始からの平均RPSを返す
func (s *Stats) OverallRPS() float64 {
	elapsed := time.Since(s.startTime).Seconds()
	if elapsed == 0 {
		return 0
	}
	return float64(s.TotalRequests()) / elapsed
}

// AverageLatency は平均レイテンシを返す
func (s *Stats) AverageLatency() time.Duration {
	total := s.TotalRequests()
	if total == 0 {
		return 0
	}
	avgNs := s.totalLatencyNs.Load() / total
	return time.Duration(avgNs)
}

// P99Latency はP99レイテンシを返す（サンプルベース）
func (s *Stats) P99Latency() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.latencies) == 0 {
		return 0
	}

	sorted := make([]time.Duration, len(s.latencies))
	copy(sorted, s.latencies)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})

	idx := int(float64(len(sorted)) * 0.99)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// OpSnapshot は単一操作のカウンタのスナップショット
type OpSnapshot struct {
	Success     uint64
	Failed      uint64
	RateLimited uint64
	Attempts    uint64
}

// Snapshot はStatsのスナップショット
type Snapshot struct {
	Register OpSnapshot
	Login    OpSnapshot

	TotalRequests  uint64
	OverallRPS     float64
	AverageLatency time.Duration
	P99Latency     time.Duration
	Elapsed        time.Duration
}

func (s *Stats) opSnapshot(op Op) OpSnapshot {
	c := s.counters(op)
	return OpSnapshot{
		Success:     c.success.Load(),
		Failed:      c.failed.Load(),
		RateLimited: c.rateLimited.Load(),
		Attempts:    c.attempts(),
	}
}

// Snapshot は現在のスナップショットを返す
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		Register:       s.opSnapshot(OpRegister),
		Login:          s.opSnapshot(OpLogin),
		TotalRequests:  s.TotalRequests(),
		OverallRPS:     s.OverallRPS(),
		AverageLatency: s.AverageLatency(),
		P99Latency:     s.P99Latency(),
		Elapsed:        time.Since(s.startTime),
	}
}
