package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"claimgate/internal/models"
	"claimgate/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type erroringDeleter struct{}

func (erroringDeleter) DeleteOlderThan(context.Context, time.Time) (int64, error) {
	return 0, errors.New("db down")
}

func TestCompactionWorker_RunOnce(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := repository.NewAddressClaimRepository(db)

	now := t0.Add(45 * 24 * time.Hour)
	require.NoError(t, db.Create(&models.AddressClaim{Address: "1.1.1.1", ClaimedOption: "bnu", LastClaimedAt: t0}).Error)
	require.NoError(t, db.Create(&models.AddressClaim{Address: "2.2.2.2", ClaimedOption: "bnu", LastClaimedAt: now.Add(-24 * time.Hour)}).Error)

	w := NewCompactionWorker(repo, 0, 0, testLogger())
	w.now = func() time.Time { return now }

	deleted, err := w.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	var remaining []models.AddressClaim
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, "2.2.2.2", remaining[0].Address)

	deleted, err = w.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), deleted)
}

func TestCompactionWorker_Start(t *testing.T) {
	w := NewCompactionWorker(erroringDeleter{}, time.Hour, 5*time.Millisecond, testLogger())

	_, err := w.RunOnce(context.Background())
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("compaction worker did not stop")
	}
}
