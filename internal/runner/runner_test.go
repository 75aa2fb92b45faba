package runner

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"userload/internal/client"
	"userload/internal/events"
	"userload/internal/userpb"
)

// fakeUserService is an in-process UserService for end-to-end runner tests.
type fakeUserService struct {
	mu            sync.Mutex
	registerCalls int
	loginCalls    int

	rejectRegisterEvery int // reject every Nth Register with RESOURCE_EXHAUSTED
	rejectLoginEvery    int // same for Login
	delay               time.Duration
}

func (f *fakeUserService) Register(ctx context.Context, req *userpb.RegisterRequest) (*userpb.RegisterResponse, error) {
	f.mu.Lock()
	f.registerCalls++
	n := f.registerCalls
	f.mu.Unlock()

	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	if f.rejectRegisterEvery > 0 && n%f.rejectRegisterEvery == 0 {
		return nil, status.Error(codes.ResourceExhausted, "too many registration attempts")
	}
	return &userpb.RegisterResponse{
		User: &userpb.User{
			Id:       fmt.Sprintf("id-%d", n),
			Email:    req.GetEmail(),
			Username: req.GetUsername(),
		},
	}, nil
}

func (f *fakeUserService) Login(ctx context.Context, _ *userpb.LoginRequest) (*userpb.LoginResponse, error) {
	f.mu.Lock()
	f.loginCalls++
	n := f.loginCalls
	f.mu.Unlock()

	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	if f.rejectLoginEvery > 0 && n%f.rejectLoginEvery == 0 {
		return nil, status.Error(codes.ResourceExhausted, "too many login attempts")
	}
	return &userpb.LoginResponse{AccessToken: fmt.Sprintf("token-%d", n)}, nil
}

func (f *fakeUserService) wait(ctx context.Context) error {
	if f.delay <= 0 {
		return nil
	}
	select {
	case <-time.After(f.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func newTestEngine(t *testing.T, cfg Config, svc userpb.UserServiceServer) *Engine {
	t.Helper()

	lis := bufconn.Listen(1024 * 1024)
	srv := grpc.NewServer()
	userpb.RegisterUserServiceServer(srv, svc)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	e := New(cfg)
	e.SetDialFunc(func() (*client.Client, error) {
		conn, err := grpc.Dial("passthrough:///bufnet",
			grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
				return lis.DialContext(ctx)
			}),
			grpc.WithTransportCredentials(insecure.NewCredentials()),
		)
		if err != nil {
			return nil, err
		}
		return client.NewFromConn(conn, cfg.CallTimeout), nil
	})
	return e
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.NumUsers = 30
	cfg.Workers = 4
	cfg.ProbeAttempts = 4
	cfg.ProbeInterval = time.Millisecond
	cfg.ProbePause = 0
	return cfg
}

func TestRunAllPhasesAgainstFriendlyServer(t *testing.T) {
	cfg := testConfig()
	e := newTestEngine(t, cfg, &fakeUserService{})

	result, err := e.Run(context.Background())
	require.NoError(t, err)

	// 4 probe registrations + 30 bulk; login probe reuses a probe user
	assert.Equal(t, uint64(34), result.Register.Attempts)
	assert.Equal(t, uint64(34), result.Register.Success)
	assert.Equal(t, uint64(0), result.Register.Failed)
	assert.Equal(t, uint64(0), result.Register.RateLimited)

	assert.Equal(t, uint64(4), result.Login.Attempts)
	assert.Equal(t, uint64(4), result.Login.Success)

	// Roster holds exactly the successful registrations
	assert.Equal(t, 34, result.CreatedUsers)
	assert.Equal(t, 34, e.Roster().Len())
	for _, u := range e.Roster().All() {
		assert.NotEmpty(t, u.Email)
		assert.NotEmpty(t, u.Password)
		assert.NotEmpty(t, u.UserID)
	}

	assert.False(t, result.Interrupted)
	assert.Greater(t, result.BulkRPS, 0.0)
}

func TestRunEveryFourthRegisterRateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.SkipProbes = true
	cfg.NumUsers = 20
	e := newTestEngine(t, cfg, &fakeUserService{rejectRegisterEvery: 4})

	result, err := e.Run(context.Background())
	require.NoError(t, err)

	// Every 4th of 20 calls rejected: floor(20/4) = 5
	assert.Equal(t, uint64(5), result.Register.RateLimited)
	assert.Equal(t, uint64(15), result.Register.Success)
	assert.Equal(t, uint64(0), result.Register.Failed)
	assert.Equal(t, uint64(20), result.Register.Attempts)
	assert.Equal(t, 15, result.CreatedUsers)
}

func TestRunCountersSumToAttempts(t *testing.T) {
	cfg := testConfig()
	e := newTestEngine(t, cfg, &fakeUserService{rejectRegisterEvery: 3, rejectLoginEvery: 2})

	result, err := e.Run(context.Background())
	require.NoError(t, err)

	reg := result.Register
	assert.Equal(t, reg.Attempts, reg.Success+reg.Failed+reg.RateLimited)

	login := result.Login
	assert.Equal(t, login.Attempts, login.Success+login.Failed+login.RateLimited)

	assert.Equal(t, int(reg.Success), result.CreatedUsers)
}

func TestRunLoginSweep(t *testing.T) {
	cfg := testConfig()
	cfg.SkipProbes = true
	cfg.NumUsers = 10
	cfg.LoginSweep = true
	e := newTestEngine(t, cfg, &fakeUserService{})

	result, err := e.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, uint64(10), result.Register.Success)
	assert.Equal(t, uint64(10), result.Login.Attempts)
	assert.Equal(t, uint64(10), result.Login.Success)
}

func TestRunInterruptStillDrainsOutcomes(t *testing.T) {
	cfg := testConfig()
	cfg.SkipProbes = true
	cfg.NumUsers = 2000
	cfg.Workers = 2
	cfg.CallTimeout = time.Second
	e := newTestEngine(t, cfg, &fakeUserService{delay: 20 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	done := make(chan struct{})
	var result *Result
	var err error
	go func() {
		result, err = e.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("run did not drain outcomes after interrupt")
	}

	require.NoError(t, err)
	assert.True(t, result.Interrupted)

	// Every submitted attempt has a recorded outcome
	reg := result.Register
	assert.Equal(t, reg.Attempts, reg.Success+reg.Failed+reg.RateLimited)
	assert.Less(t, reg.Attempts, uint64(cfg.NumUsers))
}

func TestRunPublishesEvents(t *testing.T) {
	cfg := testConfig()
	cfg.SkipProbes = true
	cfg.NumUsers = 5
	e := newTestEngine(t, cfg, &fakeUserService{})

	bus := events.NewBus()
	e.SetEventBus(bus)
	ch := bus.Subscribe()

	_, err := e.Run(context.Background())
	require.NoError(t, err)
	bus.Close()

	var types []events.EventType
	for ev := range ch {
		types = append(types, ev.Type)
	}
	assert.Contains(t, types, events.EventPhaseStart)
	assert.Contains(t, types, events.EventPhaseComplete)
}

func TestRunAlreadyRunning(t *testing.T) {
	cfg := testConfig()
	cfg.SkipProbes = true
	cfg.NumUsers = 100
	e := newTestEngine(t, cfg, &fakeUserService{delay: 10 * time.Millisecond})

	started := make(chan struct{})
	go func() {
		close(started)
		_, _ = e.Run(context.Background())
	}()
	<-started
	time.Sleep(20 * time.Millisecond)

	_, err := e.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already in progress")
}

func TestResultReport(t *testing.T) {
	result := &Result{
		RunName:      "quick",
		StartTime:    time.Now(),
		EndTime:      time.Now(),
		TargetUsers:  100,
		CreatedUsers: 95,
	}
	result.Register.Attempts = 100
	result.Register.Success = 95
	result.Register.RateLimited = 5

	report := result.Report()
	assert.Contains(t, report, "LOAD TEST REPORT: quick")
	assert.Contains(t, report, "Created Users:  95")
	assert.Contains(t, report, "Rate Limited:   5")
	assert.True(t, strings.Contains(report, "REGISTRATION") && strings.Contains(report, "LOGIN"))
}

func TestGetPreset(t *testing.T) {
	tests := []struct {
		name     string
		expected bool
	}{
		{"probe", true},
		{"quick", true},
		{"standard", true},
		{"stress", true},
		{"unknown", false},
	}

	for _, tt := range tests {
		cfg, ok := GetPreset(tt.name)
		if ok != tt.expected {
			t.Errorf("GetPreset(%s) = %v, expected %v", tt.name, ok, tt.expected)
		}
		if ok && cfg.Name != tt.name {
			t.Errorf("expected preset name %s, got %s", tt.name, cfg.Name)
		}
	}

	if len(ListPresets()) != 4 {
		t.Errorf("expected 4 presets, got %d", len(ListPresets()))
	}
}

func TestPresetShapes(t *testing.T) {
	probe, _ := GetPreset("probe")
	assert.True(t, probe.SkipBulk)

	quick, _ := GetPreset("quick")
	assert.Equal(t, 100, quick.NumUsers)

	stress, _ := GetPreset("stress")
	assert.True(t, stress.LoginSweep)
	assert.Greater(t, stress.NumUsers, quick.NumUsers)
}
