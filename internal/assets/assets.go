package assets

import (
	"embed"
	"fmt"
	"io/fs"
	"log"
	"mime"
	"path"

	"github.com/gabriel-vasile/mimetype"
)

//go:embed all:dist
var embedFS embed.FS

// Asset は配信する静的ファイル
type Asset struct {
	Path        string // リクエストパス (例: /app.js)
	Content     []byte // ファイル内容
	ContentType string // Content-Type ヘッダー値
}

// Resolver はリクエストパスから Asset を引く不変の参照表
type Resolver struct {
	table map[string]Asset
}

// New は与えられた表から Resolver を作成する
// 表はコピーされるため、呼び出し側で変更しても影響しない
func New(assets map[string]Asset) *Resolver {
	table := make(map[string]Asset, len(assets))
	for p, a := range assets {
		a.Path = p
		if a.ContentType == "" {
			a.ContentType = detectContentType(p, a.Content)
		}
		table[p] = a
	}
	return &Resolver{table: table}
}

// FromFS はファイルシステム内の全ファイルを "/"+相対パス をキーとして登録する
func FromFS(fsys fs.FS) (*Resolver, error) {
	table := make(map[string]Asset)

	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("%s の読み込みに失敗: %w", p, err)
		}

		key := "/" + p
		table[key] = Asset{
			Path:        key,
			Content:     data,
			ContentType: detectContentType(p, data),
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("静的ファイル表の構築に失敗: %w", err)
	}

	return &Resolver{table: table}, nil
}

// Embedded はバイナリに埋め込まれた dist 以下の静的ファイル表を返す
func Embedded() (*Resolver, error) {
	distFS, err := fs.Sub(embedFS, "dist")
	if err != nil {
		return nil, fmt.Errorf("埋め込み静的ファイルシステムの作成に失敗: %w", err)
	}
	return FromFS(distFS)
}

// Resolve はパスに完全一致する Asset を返す
func (r *Resolver) Resolve(p string) (Asset, bool) {
	a, ok := r.table[p]
	if !ok {
		log.Printf("静的ファイルの参照に失敗: %s", p)
		return Asset{}, false
	}

	log.Printf("静的ファイルを参照: %s", p)
	return a, true
}

// Len は登録されている Asset の数を返す
func (r *Resolver) Len() int {
	return len(r.table)
}

// detectContentType は拡張子から Content-Type を決め、不明なら内容から推定する
func detectContentType(p string, data []byte) string {
	if ct := mime.TypeByExtension(path.Ext(p)); ct != "" {
		return ct
	}
	return mimetype.Detect(data).String()
}
