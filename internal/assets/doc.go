// Package assets はバイナリに埋め込まれた静的ファイルの参照表を提供します。
//
// 参照表は起動時に一度だけ構築され、以後は読み込み専用です。
// パスは完全一致でのみ解決され、末尾スラッシュの正規化や
// ディレクトリのインデックス解決は行いません。
package assets
