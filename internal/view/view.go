// Package view renders the dog page from a hook snapshot.
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/andyle182810/dogview/internal/dogapi"
	"github.com/andyle182810/dogview/internal/fetch"
)

const LoadingText = "Cargando..."

//go:embed templates/page.html
var templates embed.FS

var pageTemplate = template.Must(template.ParseFS(templates, "templates/page.html"))

type Page struct {
	Snapshot fetch.Snapshot[dogapi.Image]
	// Refresh is how often the browser reloads while a request is loading.
	// Zero disables the reload.
	Refresh time.Duration
}

type pageData struct {
	Snapshot    fetch.Snapshot[dogapi.Image]
	Refresh     int
	LoadingText string
}

// Render writes the page. Without a response it shows the loading
// placeholder, and an error message below it when the request failed.
func Render(w io.Writer, page Page) error {
	data := pageData{
		Snapshot:    page.Snapshot,
		Refresh:     0,
		LoadingText: LoadingText,
	}

	if page.Snapshot.State == fetch.StateLoading && page.Refresh > 0 {
		data.Refresh = max(1, int(page.Refresh.Round(time.Second)/time.Second))
	}

	if err := pageTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("view: failed to render page: %w", err)
	}

	return nil
}

func RenderString(page Page) (string, error) {
	var buf bytes.Buffer
	if err := Render(&buf, page); err != nil {
		return "", err
	}

	return buf.String(), nil
}
