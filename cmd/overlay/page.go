package overlay

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gigurra/intermission/cmd/countdown"
	"github.com/gigurra/intermission/cmd/library"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/overlay.js
var overlayJS []byte

const (
	mimeHTML = "text/html"
	mimeJS   = "application/javascript"
)

var (
	tmpl    *template.Template
	once    sync.Once
	initErr error

	minifier = newMinifier()

	scriptOnce sync.Once
	script     []byte
)

func newMinifier() *minify.M {
	m := minify.New()
	m.AddFunc(mimeHTML, html.Minify)
	m.AddFunc(mimeJS, js.Minify)
	return m
}

func initTemplates() error {
	once.Do(func() {
		tmpl, initErr = template.New("root").ParseFS(templateFS, "templates/*.html")
	})
	return initErr
}

// pageData is what index.html renders from.
type pageData struct {
	Page  library.PageData
	View  countdown.View
	Query string
}

func renderPage(w http.ResponseWriter, data pageData) {
	if err := initTemplates(); err != nil {
		http.Error(w, fmt.Sprintf("template init error: %v", err), http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "index.html", data); err != nil {
		http.Error(w, fmt.Sprintf("template error: %v", err), http.StatusInternalServerError)
		return
	}

	out, err := minifier.Bytes(mimeHTML, buf.Bytes())
	if err != nil {
		slog.Warn("overlay: minify warning (using original)", "error", err)
		out = buf.Bytes()
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(out)
}

// overlayScript returns the page script, minified once.
func overlayScript() []byte {
	scriptOnce.Do(func() {
		out, err := minifier.Bytes(mimeJS, overlayJS)
		if err != nil {
			slog.Warn("overlay: minify warning (using original)", "file", "overlay.js", "error", err)
			script = overlayJS
			return
		}
		script = out
	})
	return script
}

func handleScript(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Write(overlayScript())
}
