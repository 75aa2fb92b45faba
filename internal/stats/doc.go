// Package stats provides outcome counters and latency statistics for the
// load test, together with the roster of successfully created users.
//
// Stats keeps one counter set per remote operation (register, login),
// split three ways: success, failed, and rate limited. Counters are
// lock-free atomics so any worker goroutine may record outcomes directly.
// For each operation the invariant
//
//	success + failed + rate_limited == attempts
//
// holds at all times. Latency is tracked as a running total plus a capped
// sample buffer used for the P99 estimate.
//
// # Usage
//
//	st := stats.New()
//	st.RecordSuccess(stats.OpRegister, latency)
//	st.RecordRateLimited(stats.OpLogin, latency)
//
//	snap := st.Snapshot()
//	fmt.Println(snap.Register.RateLimited)
//
// The Roster accumulates the credentials of every successful registration
// so later phases can exercise the login path with real accounts.
package stats
