package services

import (
	"context"
	"log/slog"
	"strings"

	"claimgate/internal/models"

	"github.com/mssola/user_agent"
	"gorm.io/gorm"
)

const (
	OutcomeAccepted            = "accepted"
	OutcomeRateLimited         = "rate_limited"
	OutcomeInvalidOption       = "invalid_option"
	OutcomeIdentityUnavailable = "identity_unavailable"
	OutcomeStorageError        = "storage_error"
)

// StatsService stores claim attempts in the background for diagnostics.
type StatsService struct {
	db           *gorm.DB
	logger       *slog.Logger
	attempts     chan models.ClaimAttempt
	geoIPService *GeoIPService
}

func NewStatsService(db *gorm.DB, logger *slog.Logger, geoIPService *GeoIPService) *StatsService {
	return &StatsService{
		db:           db,
		logger:       logger,
		attempts:     make(chan models.ClaimAttempt, 1000),
		geoIPService: geoIPService,
	}
}

func (s *StatsService) Start(ctx context.Context) {
	s.logger.Info("Stats worker starting")
	for {
		select {
		case attempt := <-s.attempts:
			s.enrichAttempt(&attempt)

			if err := s.db.Create(&attempt).Error; err != nil {
				s.logger.Error("Failed to record claim attempt", "error", err)
			}
		case <-ctx.Done():
			s.logger.Info("Stats worker stopping")
			return
		}
	}
}

func (s *StatsService) RecordAttemptAsync(attempt models.ClaimAttempt) {
	select {
	case s.attempts <- attempt:
	default:
		s.logger.Warn("Stats channel full, dropping claim attempt")
	}
}

func (s *StatsService) enrichAttempt(attempt *models.ClaimAttempt) {
	if attempt.Agent != "" {
		ua := user_agent.New(attempt.Agent)
		browserName, browserVer := ua.Browser()
		attempt.Browser = strings.TrimSpace(browserName + " " + browserVer)
		attempt.OS = ua.OS()

		switch {
		case ua.Bot():
			attempt.DeviceType = "Bot"
		case ua.Mobile():
			attempt.DeviceType = "Mobile"
		default:
			attempt.DeviceType = "Desktop"
		}
	} else {
		attempt.DeviceType = "Unknown"
	}
	attempt.Agent = ""

	attempt.Country = "Unknown"
	if s.geoIPService != nil && attempt.IPAddress != "" {
		attempt.Country = s.geoIPService.Country(attempt.IPAddress)
	}

	attempt.IPAddress = maskIP(attempt.IPAddress)
}

// maskIP zeroes the host part of an IPv4 address and hides IPv6 entirely.
func maskIP(ip string) string {
	for i := len(ip) - 1; i >= 0; i-- {
		if ip[i] == '.' {
			return ip[:i] + ".0"
		}
		if ip[i] == ':' {
			return "IPv6 (Masked)"
		}
	}
	return ip
}
