package client

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"userload/internal/logger"
	"userload/internal/stats"
	"userload/internal/userpb"
)

// DefaultCallTimeout はRPC1回あたりのデフォルトタイムアウト
const DefaultCallTimeout = 10 * time.Second

// Config はClientの設定
type Config struct {
	Addr        string        // gRPCサーバーアドレス（host:port）
	CallTimeout time.Duration // RPC1回あたりのタイムアウト（0でデフォルト）
}

// Client はuser.UserServiceへのgRPCチャネルをラップする
type Client struct {
	conn    *grpc.ClientConn
	api     userpb.UserServiceClient
	timeout time.Duration
}

// Dial はサーバーに接続してClientを作成する
func Dial(cfg Config) (*Client, error) {
	conn, err := grpc.Dial(cfg.Addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Addr, err)
	}

	logger.Info("", "connected to gRPC server at %s", cfg.Addr)
	return NewFromConn(conn, cfg.CallTimeout), nil
}

// NewFromConn は既存の接続からClientを作成する
// テストではbufconn経由の接続を渡す
func NewFromConn(conn *grpc.ClientConn, callTimeout time.Duration) *Client {
	if callTimeout <= 0 {
		callTimeout = DefaultCallTimeout
	}
	return &Client{
		conn:    conn,
		api:     userpb.NewUserServiceClient(conn),
		timeout: callTimeout,
	}
}

// Close は接続を閉じる
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	logger.Info("", "disconnected from gRPC server")
	return err
}

// Outcome は単一RPCの分類済み結果
// Success / RateLimited / それ以外の失敗の三値で、必ずいずれか1つに分類される
type Outcome struct {
	Op          stats.Op
	Success     bool
	RateLimited bool
	Err         error
	Latency     time.Duration

	User        stats.Credentials // 登録成功時のみ有効
	AccessToken string            // ログイン成功時のみ有効
}

// Record はアウトカムをカウンタに記録する
func (o Outcome) Record(st *stats.Stats) {
	switch {
	case o.Success:
		st.RecordSuccess(o.Op, o.Latency)
	case o.RateLimited:
		st.RecordRateLimited(o.Op, o.Latency)
	default:
		st.RecordFailure(o.Op, o.Latency)
	}
}

// Register はユーザーを1人登録する
// RESOURCE_EXHAUSTED はレート制限として分類し、他のエラーは失敗として記録する
func (c *Client) Register(ctx context.Context, creds stats.Credentials) Outcome {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.api.Register(callCtx, &userpb.RegisterRequest{
		Email:    creds.Email,
		Password: creds.Password,
		Username: creds.Username,
	})
	latency := time.Since(start)

	if err != nil {
		return classify(stats.OpRegister, err, latency)
	}

	creds.UserID = resp.GetUser().GetId()
	return Outcome{
		Op:      stats.OpRegister,
		Success: true,
		Latency: latency,
		User:    creds,
	}
}

// Login はユーザーを1人ログインさせる
func (c *Client) Login(ctx context.Context, email, password string) Outcome {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.api.Login(callCtx, &userpb.LoginRequest{
		Email:    email,
		Password: password,
	})
	latency := time.Since(start)

	if err != nil {
		return classify(stats.OpLogin, err, latency)
	}

	return Outcome{
		Op:          stats.OpLogin,
		Success:     true,
		Latency:     latency,
		AccessToken: resp.GetAccessToken(),
	}
}

// classify はRPCエラーを二値のエラー分類に変換する
func classify(op stats.Op, err error, latency time.Duration) Outcome {
	if status.Code(err) == codes.ResourceExhausted {
		return Outcome{
			Op:          op,
			RateLimited: true,
			Err:         err,
			Latency:     latency,
		}
	}
	return Outcome{
		Op:      op,
		Err:     err,
		Latency: latency,
	}
}
