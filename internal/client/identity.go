package client

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/google/uuid"

	"userload/internal/stats"
)

const (
	emailDomain      = "loadtest.com"
	passwordLength   = 12
	passwordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%"
)

// NewCredentials は連番とランダムサフィックスから一意な認証情報を生成する
// メールアドレスは衝突すると登録がDuplicateで失敗し、統計を歪めるため
// UUID由来のサフィックスで一意性を担保する
func NewCredentials(index int) stats.Credentials {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return stats.Credentials{
		Email:    fmt.Sprintf("user%d_%s@%s", index, suffix, emailDomain),
		Password: randomPassword(),
		Username: fmt.Sprintf("user%d", index),
	}
}

// randomPassword はランダムなパスワードを生成する
func randomPassword() string {
	b := make([]byte, passwordLength)
	for i := range b {
		b[i] = passwordAlphabet[rand.Intn(len(passwordAlphabet))]
	}
	return string(b)
}
