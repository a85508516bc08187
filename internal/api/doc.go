// Package api はHTTP APIの入出力型とOpenAPI定義を提供します。
//
// 責務:
//   - リクエスト/レスポンスの型定義
//   - ハンドラのインターフェース定義とginへの登録
//   - 埋め込まれたOpenAPI定義の読み込みとリクエスト検証
//
// 仕様:
//   - OpenAPI定義は openapi.yaml をバイナリに埋め込む
//   - 定義の読み込みと検証は kin-openapi を使用
package api
