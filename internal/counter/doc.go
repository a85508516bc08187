// Package counter はプロセス全体で共有されるカウンター状態を管理します。
//
// # 責務
// - 32ビット符号なしカウンター値の保持
// - 複数リーダー/単一ライターによる排他制御
// - 確定した値の購読者への配信
//
// # 仕様
// - 初期値は0、再起動でリセットされる（永続化しない）
// - 加算は飽和演算（math.MaxUint32で止まる）
// - Store は他のロックを保持せず、入れ子のロック取得も行わない
package counter
