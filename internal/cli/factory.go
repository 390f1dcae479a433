package cli

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"todo/internal/backend/httpapi"
	"todo/internal/backend/offline"
	"todo/internal/commands"
	"todo/internal/config"
	"todo/internal/service"
	"todo/internal/storage"
)

// DefaultAppFactory builds an App over the session file in the config
// directory and the HTTP client for the configured endpoints. Offline
// commands get a disconnected service and need no endpoints.
func DefaultAppFactory(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*commands.App, error) {
	store := storage.NewFileStore(cfg.StoragePath())

	var svc service.Service
	if cfg.Offline {
		svc = offline.New()
	} else {
		if err := cfg.RequireEndpoints(); err != nil {
			return nil, err
		}
		client, err := httpapi.New(cfg.IdentityURL, cfg.TaskURL, httpapi.WithLogger(log))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", config.ErrNoEndpoints, err)
		}
		svc = client
	}
	return commands.NewApp(svc, store, log), nil
}
