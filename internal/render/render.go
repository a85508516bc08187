// Package render はカウンター値を埋め込んだHTMLページを生成します。
package render

import (
	"bytes"
	"html/template"
	"strconv"
)

const indexTemplate = `<!doctype html>
<html>
    <head>
        <meta charset="utf-8" />
        <title>Increment</title>
        <link rel="stylesheet" href="/css/app.css" >
    </head>
    <body>
        <div id="counter">{{.InitialCounterState}}</div>
        <button id="increment" type="button">+1</button>
        <script>
            window.initial_counter_state="{{.InitialCounterState}}";
        </script>
        <script src="/app.js"></script>
    </body>
</html>`

var defaultRenderer = NewRenderer(template.Must(template.New("index.html").Parse(indexTemplate)))

// Page はカウンター値を初期状態として埋め込んだページを返す
func Page(counter uint32) string {
	return defaultRenderer.Render(counter)
}

// Renderer はテンプレートからページを生成する
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer は新しいRendererを作成する
func NewRenderer(tmpl *template.Template) *Renderer {
	return &Renderer{tmpl: tmpl}
}

type pageData struct {
	InitialCounterState string
}

// Render はページを生成する
// テンプレートの実行に失敗した場合はエラー文字列を本文として返す
func (r *Renderer) Render(counter uint32) string {
	var buf bytes.Buffer
	data := pageData{InitialCounterState: strconv.FormatUint(uint64(counter), 10)}

	if err := r.tmpl.Execute(&buf, data); err != nil {
		return err.Error()
	}
	return buf.String()
}
