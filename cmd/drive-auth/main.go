package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"bills/internal/cli"
	"bills/internal/config"
	"bills/internal/drive"
	applog "bills/internal/log"
)

type result struct {
	code string
	err  error
}

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger("drive-auth")
	cfg := config.Load()

	// Start local server for redirect_uri http://localhost:8085/callback
	// The OAuth client must list this URI as an authorized redirect URI.
	redirectPort := os.Getenv("OAUTH_REDIRECT_PORT")
	if redirectPort == "" {
		redirectPort = "8085"
	}
	redirectURL := "http://localhost:" + redirectPort + "/callback"

	adapter := drive.New(drive.Config{
		ClientJSON:  cfg.GoogleOAuthClientJSON,
		ClientFile:  cfg.GoogleOAuthClientFile,
		RedirectURL: redirectURL,
		Tokens:      drive.FileTokenStore{Path: cfg.GoogleOAuthTokenFile},
	})
	ctx := context.Background()
	if err := adapter.Initialize(ctx); err != nil {
		logger.Error("Failed to load OAuth client; set GOOGLE_OAUTH_CLIENT_JSON or GOOGLE_OAUTH_CLIENT_FILE", applog.FieldError, err)
		os.Exit(1)
	}

	state, err := newState()
	if err != nil {
		logger.Error("Failed to generate state", applog.FieldError, err)
		os.Exit(1)
	}

	results := make(chan result, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch {
		case q.Get("error") != "":
			http.Error(w, "OAuth error: "+q.Get("error"), http.StatusBadRequest)
			deliver(results, result{err: fmt.Errorf("authorization denied: %s", q.Get("error"))})
			return
		case q.Get("state") != state:
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		}
		fmt.Fprintln(w, "You may close this window and return to the terminal.")
		deliver(results, result{code: q.Get("code")})
	})
	srv := &http.Server{Addr: ":" + redirectPort, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			deliver(results, result{err: err})
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	url, err := adapter.AuthURL(state)
	if err != nil {
		logger.Error("Failed to build authorization URL", applog.FieldError, err)
		os.Exit(1)
	}
	fmt.Printf("Open this URL to authorize:\n%s\n", url)

	interrupted := make(chan os.Signal, 1)
	signal.Notify(interrupted, os.Interrupt)

	select {
	case res := <-results:
		if res.err != nil {
			logger.Error("Authorization failed", applog.FieldError, res.err)
			os.Exit(1)
		}
		if err := adapter.SignIn(ctx, res.code); err != nil {
			logger.Error("Token exchange failed", applog.FieldError, err)
			os.Exit(1)
		}
		fmt.Printf("Saved token to %s\n", cfg.GoogleOAuthTokenFile)
	case <-time.After(5 * time.Minute):
		logger.Error("Authorization timed out")
		os.Exit(1)
	case <-interrupted:
		logger.Warn("Interrupted")
		os.Exit(1)
	}
}

func newState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// deliver drops results after the first; only one callback is awaited.
func deliver(ch chan<- result, r result) {
	select {
	case ch <- r:
	default:
	}
}
