package handlers

import (
	"log/slog"

	"github.com/tariel-x/pushrelay/internal/config"
	"github.com/tariel-x/pushrelay/internal/push"
	"github.com/tariel-x/pushrelay/internal/store"
)

type Handlers struct {
	config *config.Config
	store  store.Store
	sender push.Sender
	logger *slog.Logger
}

func New(config *config.Config, store store.Store, sender push.Sender, logger *slog.Logger) *Handlers {
	return &Handlers{
		config: config,
		store:  store,
		sender: sender,
		logger: logger,
	}
}
