package handlers

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"path/filepath"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/haksa/internal/app"
)

// PageHandler serves the lookup page with the API's required headers baked
// in, so the page's own requests pass ValidateHeaders.
type PageHandler struct {
	page    *template.Template
	headers map[string]string
}

func NewPageHandler(service *app.Service) (*PageHandler, error) {
	path := filepath.Join(service.Config.Server.StaticDir, "index.html")
	page, err := template.ParseFiles(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page %s: %w", path, err)
	}

	headers := make(map[string]string, len(service.Config.API.RequiredHeaders))
	for _, h := range service.Config.API.RequiredHeaders {
		headers[h.Name] = h.Value
	}

	return &PageHandler{page: page, headers: headers}, nil
}

func (h *PageHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.page.Execute(&buf, struct{ Headers map[string]string }{h.headers}); err != nil {
		logger.Error.Printf("Failed to render page: %v", err)
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}
