package artifacts

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/JaimeStill/churn/pkg/formatting"
)

type remote struct {
	base    *url.URL
	client  *http.Client
	maxSize int64
}

// NewHTTP reads the bundle from baseURL/<file> with the given per-request
// timeout, rejecting any file larger than maxSize bytes. It is read-only.
func NewHTTP(baseURL string, timeout time.Duration, maxSize int64) (Store, error) {
	base, err := url.Parse(baseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid remote artifact url %q", baseURL)
	}

	return &remote{
		base:    base,
		client:  &http.Client{Timeout: timeout},
		maxSize: maxSize,
	}, nil
}

func (r *remote) Save(context.Context, *Bundle) error {
	return ErrReadOnly
}

func (r *remote) Load(ctx context.Context) (*Bundle, error) {
	files := make(map[string][]byte, len(Files))
	for _, name := range Files {
		data, err := r.fetch(ctx, name)
		if err != nil {
			return nil, err
		}
		files[name] = data
	}
	return decode(files)
}

func (r *remote) fetch(ctx context.Context, name string) ([]byte, error) {
	target := r.base.JoinPath(name).String()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRemoteFetch, target, err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRemoteFetch, target, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %w: %s", ErrRemoteFetch, ErrNotFound, target)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: %s: status %d", ErrRemoteFetch, target, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, r.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrRemoteFetch, target, err)
	}
	if int64(len(data)) > r.maxSize {
		return nil, fmt.Errorf("%w: %s exceeds %s", ErrRemoteFetch, target, formatting.FormatBytes(r.maxSize, 1))
	}
	return data, nil
}
