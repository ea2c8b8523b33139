package artifacts

import (
	"context"
	"errors"
	"log/slog"
)

// LoadWithFallback loads from remote and falls back to local when the remote
// fetch fails. A nil remote loads local directly. Errors other than
// ErrRemoteFetch, such as a corrupt remote bundle, are returned as is.
func LoadWithFallback(ctx context.Context, remote, local Store, logger *slog.Logger) (*Bundle, error) {
	if remote == nil {
		return local.Load(ctx)
	}

	b, err := remote.Load(ctx)
	if err == nil {
		logger.InfoContext(ctx, "model bundle loaded", "source", "remote")
		return b, nil
	}
	if !errors.Is(err, ErrRemoteFetch) {
		return nil, err
	}

	logger.WarnContext(ctx, "remote model fetch failed, using local bundle", "error", err)
	b, err = local.Load(ctx)
	if err != nil {
		return nil, err
	}
	logger.InfoContext(ctx, "model bundle loaded", "source", "local")
	return b, nil
}
