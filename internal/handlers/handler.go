package handlers

import (
	"log/slog"

	"claimgate/internal/catalog"
	"claimgate/internal/config"
	"claimgate/internal/services"
)

type Handler struct {
	cfg          config.Config
	logger       *slog.Logger
	catalog      *catalog.Catalog
	claimService *services.ClaimService
}

func NewHandler(
	cfg config.Config,
	logger *slog.Logger,
	cat *catalog.Catalog,
	claimService *services.ClaimService,
) *Handler {
	return &Handler{
		cfg:          cfg,
		logger:       logger,
		catalog:      cat,
		claimService: claimService,
	}
}
