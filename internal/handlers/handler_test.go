package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	"claimgate/internal/catalog"
	"claimgate/internal/config"
	"claimgate/internal/models"
	"claimgate/internal/repository"
	"claimgate/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func testConfig() config.Config {
	return config.Config{
		AppEnv:        "local",
		SessionSecret: "test-secret-12345678901234567890123456789012",
		ClaimWindow:   services.DefaultClaimWindow,
	}
}

func setupTestHandlerWith(cfg config.Config, store services.ClaimStore) *Handler {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	cat, _ := catalog.Load("")
	svc := services.NewClaimService(store, cat, nil, nil, nil, services.ClaimServiceConfig{Window: cfg.ClaimWindow}, logger)
	return NewHandler(cfg, logger, cat, svc)
}

func setupTestHandler() (*Handler, *gorm.DB) {
	db, _ := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	repository.AutoMigrate(db)

	h := setupTestHandlerWith(testConfig(), repository.NewAddressClaimRepository(db))
	return h, db
}

func setupTestRouter(h *Handler) *gin.Engine {
	return setupTestRouterWithLimiter(h, nil)
}

func setupTestRouterWithLimiter(h *Handler, limiter *services.IPRateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return h.SetupRouter(limiter)
}

type brokenStore struct{}

func (brokenStore) CommitIfWindowOpen(context.Context, models.AddressClaim, time.Time) (bool, error) {
	return false, errors.New("pq: relation \"address_claims\" does not exist")
}

func (brokenStore) FindActive(context.Context, string, time.Time) (*models.AddressClaim, error) {
	return nil, nil
}

func postJSON(r http.Handler, path string, body any, headers map[string]string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	jsonBody, _ := json.Marshal(body)
	req, _ := http.NewRequest(http.MethodPost, path, bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeClaim(w *httptest.ResponseRecorder) ClaimResponse {
	var resp ClaimResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}
