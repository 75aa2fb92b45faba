package stats

import "sync"

// Credentials は登録に成功したユーザーの認証情報
type Credentials struct {
	Email    string
	Password string
	Username string
	UserID   string
}

// Roster は作成済みユーザーの一覧を保持する
// 登録フェーズで追加され、ログインフェーズで参照される
type Roster struct {
	mu    sync.RWMutex
	users []Credentials
}

// NewRoster は新しいRosterを作成する
func NewRoster() *Roster {
	return &Roster{}
}

// Add はユーザーを追加する
func (r *Roster) Add(c Credentials) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = append(r.users, c)
}

// Len は登録済みユーザー数を返す
func (r *Roster) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}

// First は最初のユーザーを返す
// ログインのレート制限検証はこの単一ユーザーに対して行う
func (r *Roster) First() (Credentials, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.users) == 0 {
		return Credentials{}, false
	}
	return r.users[0], true
}

// All は全ユーザーのコピーを返す
func (r *Roster) All() []Credentials {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Credentials, len(r.users))
	copy(out, r.users)
	return out
}
