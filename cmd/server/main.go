package main

import (
	"flag"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/haksa/internal/app"
	"github.com/shrimpsizemoose/haksa/internal/handlers"
)

func main() {
	var configPath = flag.String("config", "config.toml", "Path to config file")
	flag.Parse()

	service, err := app.NewService(*configPath)
	if err != nil {
		logger.Error.Fatalf("Failed to load config: %v", err)
	}
	defer service.Close()

	lookupHandler := handlers.NewLookupHandler(service)

	http.HandleFunc("POST /api/v1/lookup", handlers.Instrument(lookupHandler.HandleLookup))
	http.HandleFunc("GET /api/v1/view", handlers.Instrument(lookupHandler.HandleView))
	http.HandleFunc("POST /api/v1/reset", handlers.Instrument(lookupHandler.HandleReset))
	http.HandleFunc("POST /api/v1/reset-request", handlers.Instrument(lookupHandler.HandleResetRequest))
	http.HandleFunc("GET /api/v1/normalize", handlers.Instrument(lookupHandler.HandleNormalize))

	pageHandler, err := handlers.NewPageHandler(service)
	if err != nil {
		logger.Error.Fatalf("Failed to load page: %v", err)
	}
	http.HandleFunc("GET /{$}", handlers.Instrument(pageHandler.HandleIndex))

	http.Handle("/metrics", promhttp.Handler())

	logger.Info.Printf("Starting lookup server on %s (variant %s)", service.Config.Server.Port, service.Matcher.Variant())
	logger.Debug.Println("Requiring headers:")
	for _, h := range service.Config.API.RequiredHeaders {
		logger.Debug.Printf("  %s: %s", h.Name, h.Value)
	}
	if err := http.ListenAndServe(service.Config.Server.Port, nil); err != nil {
		logger.Error.Fatalf("Lookup server failed: %v", err)
	}
}
