// ABOUTME: GitHub Gist provider with create-or-update upload semantics
// ABOUTME: Captures the assigned gist ID on first create and reuses it afterward
package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"

	"golang.org/x/oauth2"

	"github.com/harperreed/dealstash/kvstore"
)

const (
	gistIDKey      = "sync_gist_id"
	gistFileName   = "dealstash-sync.json"
	defaultGistAPI = "https://api.github.com"
)

// GistProvider stores the payload in a private GitHub Gist. The first
// successful upload creates the gist and persists its assigned ID; later
// uploads update the same gist.
type GistProvider struct {
	store   kvstore.Store
	token   string
	apiBase string
	client  *http.Client
	logger  *log.Logger
}

// NewGistProvider creates a gist provider authenticated with token.
// DEALSTASH_GIST_API overrides the API base URL (used by tests).
func NewGistProvider(store kvstore.Store, token string, logger *log.Logger) *GistProvider {
	if logger == nil {
		logger = defaultLogger()
	}

	base := os.Getenv("DEALSTASH_GIST_API")
	if base == "" {
		base = defaultGistAPI
	}

	client := http.DefaultClient
	if token != "" {
		client = oauth2.NewClient(context.Background(), oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	}

	return &GistProvider{
		store:   store,
		token:   token,
		apiBase: base,
		client:  client,
		logger:  logger,
	}
}

func (p *GistProvider) ID() string   { return "gist" }
func (p *GistProvider) Name() string { return "GitHub Gist" }

// Available reports whether a token is configured.
func (p *GistProvider) Available() bool { return p.token != "" }

type gistFile struct {
	Content string `json:"content"`
}

type gistRequest struct {
	Description string              `json:"description"`
	Public      bool                `json:"public"`
	Files       map[string]gistFile `json:"files"`
}

type gistResponse struct {
	ID    string              `json:"id"`
	Files map[string]gistFile `json:"files"`
}

func (p *GistProvider) gistID() (string, error) {
	raw, err := p.store.Get(gistIDKey)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func (p *GistProvider) do(ctx context.Context, method, url string, body any) (*http.Response, error) {
	var buf *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		buf = bytes.NewBuffer(data)
	} else {
		buf = &bytes.Buffer{}
	}

	req, err := http.NewRequestWithContext(ctx, method, url, buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return p.client.Do(req)
}

// Upload creates or updates the sync gist. On first create the assigned
// gist ID is persisted so subsequent uploads update in place.
func (p *GistProvider) Upload(ctx context.Context, payload *SyncPayload) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return &ProviderError{Provider: p.ID(), Op: "upload", Err: fmt.Errorf("failed to marshal payload: %w", err)}
	}

	body := gistRequest{
		Description: "dealstash sync data",
		Public:      false,
		Files:       map[string]gistFile{gistFileName: {Content: string(data)}},
	}

	id, err := p.gistID()
	if err != nil {
		return &ProviderError{Provider: p.ID(), Op: "upload", Err: err}
	}

	method, url := http.MethodPost, p.apiBase+"/gists"
	if id != "" {
		method, url = http.MethodPatch, p.apiBase+"/gists/"+id
	}

	resp, err := p.do(ctx, method, url, body)
	if err != nil {
		return &ProviderError{Provider: p.ID(), Op: "upload", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &ProviderError{Provider: p.ID(), Op: "upload", Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	if id == "" {
		var created gistResponse
		if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
			return &ProviderError{Provider: p.ID(), Op: "upload", Err: fmt.Errorf("failed to decode create response: %w", err)}
		}
		if created.ID == "" {
			return &ProviderError{Provider: p.ID(), Op: "upload", Err: fmt.Errorf("create response missing gist id")}
		}
		if err := p.store.Set(gistIDKey, []byte(created.ID)); err != nil {
			return &ProviderError{Provider: p.ID(), Op: "upload", Err: fmt.Errorf("failed to persist gist id: %w", err)}
		}
	}
	return nil
}

// Download fetches the sync gist. No captured gist ID, a missing gist, or
// a malformed payload all read as "no data".
func (p *GistProvider) Download(ctx context.Context) (*SyncPayload, error) {
	id, err := p.gistID()
	if err != nil {
		return nil, &ProviderError{Provider: p.ID(), Op: "download", Err: err}
	}
	if id == "" {
		return nil, nil
	}

	resp, err := p.do(ctx, http.MethodGet, p.apiBase+"/gists/"+id, nil)
	if err != nil {
		return nil, &ProviderError{Provider: p.ID(), Op: "download", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{Provider: p.ID(), Op: "download", Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	var gist gistResponse
	if err := json.NewDecoder(resp.Body).Decode(&gist); err != nil {
		p.logger.Printf("gist: discarding malformed response: %v", err)
		return nil, nil
	}
	file, ok := gist.Files[gistFileName]
	if !ok {
		p.logger.Printf("gist: sync file missing from gist %s", id)
		return nil, nil
	}
	return decodePayload([]byte(file.Content), p.logger, p.ID()), nil
}

// Delete removes the sync gist and forgets its ID. A missing gist is fine.
func (p *GistProvider) Delete(ctx context.Context) error {
	id, err := p.gistID()
	if err != nil {
		return &ProviderError{Provider: p.ID(), Op: "delete", Err: err}
	}
	if id == "" {
		return nil
	}

	resp, err := p.do(ctx, http.MethodDelete, p.apiBase+"/gists/"+id, nil)
	if err != nil {
		return &ProviderError{Provider: p.ID(), Op: "delete", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusNotFound {
		return &ProviderError{Provider: p.ID(), Op: "delete", Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}
	return p.store.Delete(gistIDKey)
}
