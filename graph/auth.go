// Package graph — credential acquisition.
// Implements the interactive browser-based authorization-code flow and
// a mutex-guarded token cache so a mid-batch refresh happens at most
// once no matter how many workers hit a 401 at the same time.
package graph

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"runtime"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/microsoft"
)

const (
	// redirectPort is where the local listener receives the OAuth
	// redirect during interactive authentication.
	redirectPort = 8400

	authTenant = "consumers"
	authScope  = "Notes.Read"
)

// AcquireFunc obtains a fresh bearer token. The interactive flow
// blocks until the user completes authentication in the browser.
type AcquireFunc func(ctx context.Context) (string, error)

// TokenSource caches a bearer token and refreshes it through acquire.
// All methods are safe for concurrent use; acquisition is a critical
// section, so concurrent callers block until one refresh completes and
// then share its result.
type TokenSource struct {
	mu      sync.Mutex
	token   string
	acquire AcquireFunc
}

// NewTokenSource creates a TokenSource around acquire.
func NewTokenSource(acquire AcquireFunc) *TokenSource {
	return &TokenSource{acquire: acquire}
}

// Token returns the cached token, acquiring one first if needed.
func (s *TokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token != "" {
		return s.token, nil
	}
	token, err := s.acquire(ctx)
	if err != nil {
		return "", fmt.Errorf("acquiring token: %w", err)
	}
	s.token = token
	return token, nil
}

// Invalidate drops the cached token if it still equals stale, so that
// workers racing on the same expired token trigger a single refresh.
func (s *TokenSource) Invalidate(stale string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == stale {
		s.token = ""
	}
}

// Current returns the cached token without acquiring one.
func (s *TokenSource) Current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// InteractiveAuth returns an AcquireFunc that runs the browser-based
// authorization-code flow for the given application (client) ID: it
// starts a local redirect listener, opens the authorization URL in the
// user's browser, waits for the code, and exchanges it for a token.
func InteractiveAuth(clientID string) AcquireFunc {
	return func(ctx context.Context) (string, error) {
		conf := &oauth2.Config{
			ClientID:    clientID,
			Endpoint:    microsoft.AzureADEndpoint(authTenant),
			RedirectURL: fmt.Sprintf("http://localhost:%d", redirectPort),
			Scopes:      []string{authScope},
		}

		state, err := randomState()
		if err != nil {
			return "", err
		}

		ln, err := net.Listen("tcp", fmt.Sprintf(":%d", redirectPort))
		if err != nil {
			return "", fmt.Errorf("starting redirect listener: %w", err)
		}

		codeCh := make(chan string, 1)
		srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if q.Get("state") != state || q.Get("code") == "" {
				w.WriteHeader(http.StatusBadRequest)
				fmt.Fprint(w, "Authentication failed! Please try again.")
				return
			}
			fmt.Fprint(w, "Authentication successful! You can close this window.")
			select {
			case codeCh <- q.Get("code"):
			default:
			}
		})}
		go srv.Serve(ln)
		defer srv.Shutdown(context.Background())

		authURL := conf.AuthCodeURL(state)
		fmt.Fprintln(os.Stderr, "Opening browser for authentication...")
		if err := openBrowser(authURL); err != nil {
			fmt.Fprintf(os.Stderr, "Could not open a browser; visit:\n%s\n", authURL)
		}

		var code string
		select {
		case code = <-codeCh:
		case <-ctx.Done():
			return "", ctx.Err()
		}

		token, err := conf.Exchange(ctx, code)
		if err != nil {
			return "", fmt.Errorf("exchanging authorization code: %w", err)
		}
		return token.AccessToken, nil
	}
}

func randomState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating state: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// openBrowser launches the platform's default browser.
func openBrowser(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}
