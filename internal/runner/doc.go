// Package runner は負荷テストの実行エンジンを提供する。
//
// Engineは1回のランを以下のフェーズに分けて実行する:
//
//  1. register-probe: 連続登録でレート制限の発動を検証
//  2. login-probe: 検証用ユーザーで連続ログインして同様に検証
//  3. bulk-register: ワーカープール経由でユーザーを一括作成
//  4. login-sweep: （任意）作成済み全ユーザーでログイン
//
// 各RPCのアウトカムは成功 / レート制限 / 失敗に分類されて
// statsパッケージのカウンタに記録され、登録に成功したユーザーは
// Rosterに蓄積される。コンテキストのキャンセルで中断した場合も、
// 送信済みの試行はすべて集計してからResultを返す。
//
// 進捗はeventsバス経由で購読できる。実行結果はResult.Report()で
// 整形済みレポートとして出力する。
package runner
