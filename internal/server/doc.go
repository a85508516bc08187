// Package server は、HTTPサーバーとルーティングを管理します。
//
// このパッケージは、HTTPサーバーの起動、ルーティング、
// カウンターAPIの処理、ページと静的ファイルの配信を担当します。
//
// 責務:
//   - HTTPサーバーの起動と管理
//   - リクエストのルーティング（先に一致したルートを採用）
//   - カウンター加算APIとページ描画
//   - 静的ファイル（CSS/JS）の配信
//   - WebSocketによるカウンター値の配信
//
// ルーティングの優先順位:
//  1. POST /increment/counter
//  2. GET /
//  3. GET /healthz, /metrics, /ws/counter
//  4. その他の GET は静的ファイルの完全一致参照（なければ 404）
//  5. それ以外は 404 または 405
//
// 仕様:
//   - ルーターは gin を使用
//   - アクセスログは gorilla/handlers を使用
//   - グレースフルシャットダウンに対応
package server
