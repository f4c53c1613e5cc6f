package services

import (
	"context"
	"testing"
	"time"

	"claimgate/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditService(t *testing.T) {
	db := setupTestDB(t)
	logger := testLogger()
	service := NewAuditService(db, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go service.Start(ctx)

	t.Run("Log Action", func(t *testing.T) {
		service.LogAction("CLAIM_ACCEPTED", "bnu", map[string]string{"request_id": "abc"}, "127.0.0.1")

		var log models.AuditLog
		require.Eventually(t, func() bool {
			return db.First(&log).Error == nil
		}, time.Second, 10*time.Millisecond)
		assert.Equal(t, "CLAIM_ACCEPTED", log.Action)
		assert.Equal(t, "bnu", log.EntityID)
		assert.Contains(t, log.Details, "request_id")
	})

	t.Run("Channel Full", func(t *testing.T) {
		service := NewAuditService(db, logger)
		// Fill channel
		for i := 0; i < 100; i++ {
			service.LogAction("ACTION", "ID", nil, "IP")
		}
		// Should drop
		service.LogAction("DROP", "ID", nil, "IP")
		assert.Len(t, service.entries, 100)
	})

	t.Run("DB Error", func(t *testing.T) {
		dbErr := setupTestDB(t)
		dbErr.Migrator().DropTable(&models.AuditLog{})
		serviceErr := NewAuditService(dbErr, logger)

		ctxErr, cancelErr := context.WithCancel(context.Background())
		go serviceErr.Start(ctxErr)

		serviceErr.LogAction("ERROR", "ID", nil, "IP")
		time.Sleep(100 * time.Millisecond)
		cancelErr()
	})
}
