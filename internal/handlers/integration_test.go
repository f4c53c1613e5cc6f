package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"claimgate/internal/catalog"
	"claimgate/internal/models"
	"claimgate/internal/repository"
	"claimgate/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

// Full stack: router, throttle, window cache, audit and attempt workers.
func TestClaimPipeline(t *testing.T) {
	h, db := setupTestHandler()
	logger := h.logger

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	audit := services.NewAuditService(db, logger)
	geo := services.NewGeoIPService("", logger)
	geo.Init()
	stats := services.NewStatsService(db, logger, geo)
	go audit.Start(ctx)
	go stats.Start(ctx)

	cat, err := catalog.Load("")
	require.NoError(t, err)
	svc := services.NewClaimService(
		repository.NewAddressClaimRepository(db),
		cat,
		services.NewWindowCache(nil),
		audit,
		stats,
		services.ClaimServiceConfig{Window: h.cfg.ClaimWindow},
		logger,
	)
	h = NewHandler(h.cfg, logger, cat, svc)
	r := setupTestRouterWithLimiter(h, services.NewIPRateLimiter(rate.Limit(100), 100, logger))

	ua := "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
	w := postJSON(r, "/api/v1/claims", map[string]string{"optionId": "yilin", "callerAgent": ua},
		map[string]string{"X-Forwarded-For": "8.8.4.4"})
	require.Equal(t, http.StatusOK, w.Code)

	w = postJSON(r, "/api/v1/claims", map[string]string{"optionId": "bnu", "callerAgent": ua},
		map[string]string{"X-Forwarded-For": "8.8.4.4"})
	require.Equal(t, http.StatusTooManyRequests, w.Code)

	assert.Eventually(t, func() bool {
		var n int64
		db.Model(&models.AuditLog{}).Count(&n)
		return n == 2
	}, 2*time.Second, 20*time.Millisecond)

	assert.Eventually(t, func() bool {
		var n int64
		db.Model(&models.ClaimAttempt{}).Count(&n)
		return n == 2
	}, 2*time.Second, 20*time.Millisecond)

	var accepted models.ClaimAttempt
	require.NoError(t, db.Where("outcome = ?", services.OutcomeAccepted).First(&accepted).Error)
	assert.Equal(t, "yilin", accepted.OptionID)
	assert.Contains(t, accepted.Browser, "Chrome")
	assert.NotEqual(t, "8.8.4.4", accepted.IPAddress)

	var rejected models.AuditLog
	require.NoError(t, db.Where("action = ?", "CLAIM_REJECTED").First(&rejected).Error)
	assert.Equal(t, "bnu", rejected.EntityID)
	assert.Equal(t, "8.8.4.4", rejected.IPAddress)
}
