// userd hosts the demo user service.
//
// Usage:
//
//	userd [--config=config.toml]
//
// POST requests carry the request envelope in the body; GET requests
// carry it URL-escaped in the query string, which is handy for quick
// checks from a browser:
//
//	http://localhost:8787/myapi?list
package main

import (
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/soialang/soia-go/internal/userapi"
	"github.com/soialang/soia-go/service"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Str("app", "userd").Logger()

	configPath := ""
	for _, arg := range os.Args[1:] {
		switch {
		case strings.HasPrefix(arg, "--config="):
			configPath = strings.TrimPrefix(arg, "--config=")
		default:
			logger.Fatal().Str("arg", arg).Msg("unknown argument")
		}
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	svc := service.NewService()
	store := userapi.NewStore()
	store.Register(svc)

	r := mux.NewRouter()
	r.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, "userd is up\n")
	}).Methods(http.MethodGet)
	r.Handle(cfg.Path, &apiHandler{svc: svc, logger: logger}).
		Methods(http.MethodGet, http.MethodPost)

	logger.Info().Str("addr", cfg.Addr).Str("path", cfg.Path).Msg("userd started")
	if err := http.ListenAndServe(cfg.Addr, r); err != nil {
		logger.Fatal().Err(err).Msg("userd stopped")
	}
}

type apiHandler struct {
	svc    *service.Service
	logger zerolog.Logger
}

func (h *apiHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	body, err := requestBody(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	resHeaders := service.Headers{}
	res := h.svc.HandleRequest(body, service.HeadersFromHTTP(r.Header), resHeaders)

	for k, v := range resHeaders {
		w.Header().Set(k, v)
	}
	w.Header().Set("Content-Type", res.ContentType)
	w.WriteHeader(res.StatusCode)
	io.WriteString(w, res.Data)

	event := h.logger.Info()
	if res.StatusCode >= 500 {
		event = h.logger.Error()
	} else if res.StatusCode >= 400 {
		event = h.logger.Warn()
	}
	event.
		Str("method", r.Method).
		Int("status", res.StatusCode).
		Dur("duration", time.Since(start)).
		Str("remote", r.RemoteAddr).
		Msg("request")
}

// requestBody extracts the envelope: the POST body, or for GET the
// URL-unescaped query string.
func requestBody(r *http.Request) (string, error) {
	if r.Method == http.MethodGet {
		return url.QueryUnescape(r.URL.RawQuery)
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
