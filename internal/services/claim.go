package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"claimgate/internal/catalog"
	"claimgate/internal/identity"
	"claimgate/internal/models"
)

const DefaultClaimWindow = 30 * 24 * time.Hour

var (
	ErrInvalidOption       = errors.New("invalid option")
	ErrIdentityUnavailable = errors.New("unable to determine client address")
	ErrRateLimited         = errors.New("address already claimed within the window")
	ErrStorage             = errors.New("claim storage failure")
)

// ClaimStore is the address-keyed persistence behind the claim gate.
type ClaimStore interface {
	CommitIfWindowOpen(ctx context.Context, claim models.AddressClaim, cutoff time.Time) (bool, error)
	FindActive(ctx context.Context, address string, cutoff time.Time) (*models.AddressClaim, error)
}

type ClaimRequest struct {
	OptionID    string
	Timestamp   string // client-supplied, advisory
	CallerAgent string // advisory
	Address     string // transport-derived
	RequestID   string
}

type ClaimOutcome struct {
	Address       string
	ClaimedOption string
	ClaimedAt     time.Time
	Entry         catalog.Entry
}

type ClaimServiceConfig struct {
	Window time.Duration
	Now    func() time.Time
}

type ClaimService struct {
	store   ClaimStore
	catalog *catalog.Catalog
	cache   WindowCache
	audit   *AuditService
	stats   *StatsService
	window  time.Duration
	now     func() time.Time
	logger  *slog.Logger
}

func NewClaimService(
	store ClaimStore,
	cat *catalog.Catalog,
	cache WindowCache,
	audit *AuditService,
	stats *StatsService,
	cfg ClaimServiceConfig,
	logger *slog.Logger,
) *ClaimService {
	if cfg.Window <= 0 {
		cfg.Window = DefaultClaimWindow
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cache == nil {
		cache = NopWindowCache{}
	}
	return &ClaimService{
		store:   store,
		catalog: cat,
		cache:   cache,
		audit:   audit,
		stats:   stats,
		window:  cfg.Window,
		now:     cfg.Now,
		logger:  logger,
	}
}

func (s *ClaimService) Window() time.Duration {
	return s.window
}

// SubmitClaim resolves the caller, validates the option and commits the claim
// unless the address already claimed inside the window.
func (s *ClaimService) SubmitClaim(ctx context.Context, req ClaimRequest) (*ClaimOutcome, error) {
	log := s.logger.With("request_id", req.RequestID, "option", req.OptionID)

	// 1. Identity
	address, ok := identity.ParseAddress(req.Address)
	if !ok {
		log.Info("Claim rejected: no usable client address")
		s.observe(req, "", OutcomeIdentityUnavailable)
		return nil, ErrIdentityUnavailable
	}
	log = log.With("address", address)

	// 2. Option
	entry, ok := s.catalog.Lookup(req.OptionID)
	if !ok {
		log.Info("Claim rejected: unknown option")
		s.observe(req, address, OutcomeInvalidOption)
		return nil, fmt.Errorf("%w: %q", ErrInvalidOption, req.OptionID)
	}

	now := s.now().UTC().Truncate(time.Microsecond)
	cutoff := now.Add(-s.window)

	// 3. Window (cached rejections only)
	if until, hit, err := s.cache.BlockedUntil(ctx, address); err != nil {
		log.Warn("Window cache lookup failed", "error", err)
	} else if hit && now.Before(until) {
		log.Info("Claim rejected: address inside window (cached)", "until", until)
		s.reject(req, address, until)
		return nil, ErrRateLimited
	}

	// 4. Commit
	committed, err := s.store.CommitIfWindowOpen(ctx, models.AddressClaim{
		Address:       address,
		ClaimedOption: entry.ID,
		LastClaimedAt: now,
		CallerAgent:   identity.SanitizeAgent(req.CallerAgent),
	}, cutoff)
	if err != nil {
		log.Error("Failed to record claim", "error", err)
		s.observe(req, address, OutcomeStorageError)
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	if !committed {
		until := now.Add(s.window)
		existing, err := s.store.FindActive(ctx, address, cutoff)
		if err != nil {
			log.Warn("Failed to read existing claim", "error", err)
		} else if existing != nil {
			until = existing.LastClaimedAt.Add(s.window)
		}
		log.Info("Claim rejected: address inside window", "until", until)
		s.reject(req, address, until)
		return nil, ErrRateLimited
	}

	s.block(ctx, address, now.Add(s.window), now)
	s.observe(req, address, OutcomeAccepted)
	if s.audit != nil {
		s.audit.LogAction("CLAIM_ACCEPTED", entry.ID, map[string]any{
			"request_id":       req.RequestID,
			"client_timestamp": req.Timestamp,
		}, address)
	}
	log.Info("Claim accepted")

	return &ClaimOutcome{
		Address:       address,
		ClaimedOption: entry.ID,
		ClaimedAt:     now,
		Entry:         entry,
	}, nil
}

func (s *ClaimService) reject(req ClaimRequest, address string, until time.Time) {
	s.block(context.Background(), address, until, s.now().UTC())
	s.observe(req, address, OutcomeRateLimited)
	if s.audit != nil {
		s.audit.LogAction("CLAIM_REJECTED", req.OptionID, map[string]any{
			"request_id": req.RequestID,
			"until":      until,
		}, address)
	}
}

func (s *ClaimService) block(ctx context.Context, address string, until, now time.Time) {
	if err := s.cache.Block(ctx, address, until, now); err != nil {
		s.logger.Warn("Window cache update failed", "address", address, "error", err)
	}
}

func (s *ClaimService) observe(req ClaimRequest, address, outcome string) {
	if s.stats == nil {
		return
	}
	s.stats.RecordAttemptAsync(models.ClaimAttempt{
		OptionID:  req.OptionID,
		Outcome:   outcome,
		Timestamp: s.now().UTC(),
		IPAddress: address,
		Agent:     req.CallerAgent,
		RequestID: req.RequestID,
	})
}
