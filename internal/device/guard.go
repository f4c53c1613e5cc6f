// Package device implements the per-device claim guard: a single persisted record of
// the last successful claim, used to gate the claim flow for a rolling window.
//
// Every operation degrades to "unrestricted" when the underlying storage cannot be
// used. Storage failures are reported through the logger and Config.OnStorageError
// and never abort the caller.
package device

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

const (
	DefaultStorageKey = "claim_info"
	DefaultWindow     = 30 * 24 * time.Hour

	day = 24 * time.Hour
)

var (
	ErrStorageUnavailable = errors.New("device storage unavailable")
	ErrInvalidRecord      = errors.New("invalid device claim record")
)

// State distinguishes an absent record from storage that could not be read.
type State int

const (
	StateAbsent State = iota
	StatePresent
	StateUnavailable
)

func (s State) String() string {
	switch s {
	case StatePresent:
		return "present"
	case StateUnavailable:
		return "unavailable"
	default:
		return "absent"
	}
}

// Record describes the last successful claim made from this device.
// Fingerprint is diagnostic only.
type Record struct {
	SelectedOption string    `json:"selectedOption"`
	ClaimedAt      time.Time `json:"claimedAt"`
	ExpiresAt      time.Time `json:"expiresAt"`
	Fingerprint    string    `json:"fingerprint,omitempty"`
}

// storedRecord is the persisted shape. Timestamps are kept as text so that
// malformed values are caught by validation rather than by the decoder.
type storedRecord struct {
	SelectedOption string `json:"selectedOption"`
	ClaimedAt      string `json:"claimedAt"`
	ExpiresAt      string `json:"expiresAt"`
	Fingerprint    string `json:"fingerprint,omitempty"`
}

type Config struct {
	StorageKey string
	Window     time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
	// Fingerprint produces the advisory device signature stored with new records.
	Fingerprint func() string
	// OnStorageError receives every storage failure. Optional.
	OnStorageError func(op string, err error)
}

type Guard struct {
	storage Storage
	cfg     Config
	logger  *slog.Logger
}

func NewGuard(storage Storage, cfg Config, logger *slog.Logger) *Guard {
	if cfg.StorageKey == "" {
		cfg.StorageKey = DefaultStorageKey
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{storage: storage, cfg: cfg, logger: logger}
}

// Load reads and validates the persisted record. A corrupt record is removed and
// reported as absent.
func (g *Guard) Load() (*Record, State) {
	data, err := g.storage.Get(g.cfg.StorageKey)
	if errors.Is(err, ErrNotFound) {
		return nil, StateAbsent
	}
	if err != nil {
		g.storageFailed("load", err)
		return nil, StateUnavailable
	}

	rec, err := decode(data)
	if err != nil {
		g.logger.Warn("Discarding corrupt device claim record", "key", g.cfg.StorageKey, "error", err)
		if rmErr := g.storage.Remove(g.cfg.StorageKey); rmErr != nil && !errors.Is(rmErr, ErrNotFound) {
			g.storageFailed("heal", rmErr)
		}
		return nil, StateAbsent
	}
	return rec, StatePresent
}

// IsValid reports whether a record exists and now is strictly before its expiry.
func (g *Guard) IsValid() bool {
	rec, state := g.Load()
	if state != StatePresent {
		return false
	}
	return g.cfg.Now().Before(rec.ExpiresAt)
}

// RemainingDays is the ceiling of the time left in whole days, never negative.
func (g *Guard) RemainingDays() int {
	rec, state := g.Load()
	if state != StatePresent {
		return 0
	}
	return remainingDays(rec.ExpiresAt, g.cfg.Now())
}

// Record overwrites the persisted record with a claim made at now. The returned
// record is usable even when persisting it failed; the error then wraps
// ErrStorageUnavailable.
func (g *Guard) Record(selectedOption string, now time.Time) (Record, error) {
	selectedOption = strings.TrimSpace(selectedOption)
	if selectedOption == "" {
		return Record{}, fmt.Errorf("%w: empty option", ErrInvalidRecord)
	}

	claimedAt := now.UTC()
	rec := Record{
		SelectedOption: selectedOption,
		ClaimedAt:      claimedAt,
		ExpiresAt:      claimedAt.Add(g.cfg.Window),
	}
	if g.cfg.Fingerprint != nil {
		rec.Fingerprint = g.cfg.Fingerprint()
	}

	if err := g.write(rec); err != nil {
		return rec, err
	}
	g.logger.Debug("Device claim recorded", "option", rec.SelectedOption, "expires_at", rec.ExpiresAt, "fingerprint", rec.Fingerprint)
	return rec, nil
}

// Clear removes the record. Clearing an absent record succeeds.
func (g *Guard) Clear() error {
	err := g.storage.Remove(g.cfg.StorageKey)
	if err == nil || errors.Is(err, ErrNotFound) {
		return nil
	}
	g.storageFailed("clear", err)
	return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
}

// Available probes the storage with a throwaway key.
func (g *Guard) Available() bool {
	probe := g.cfg.StorageKey + "__probe"
	if err := g.storage.Set(probe, []byte("1")); err != nil {
		return false
	}
	return g.storage.Remove(probe) == nil
}

// Export returns the current record for debugging.
func (g *Guard) Export() (*Record, State) {
	return g.Load()
}

// Import replaces the persisted record with data after validating it.
func (g *Guard) Import(data []byte) error {
	rec, err := decode(data)
	if err != nil {
		return err
	}
	return g.write(*rec)
}

func (g *Guard) write(rec Record) error {
	data, err := json.Marshal(storedRecord{
		SelectedOption: rec.SelectedOption,
		ClaimedAt:      rec.ClaimedAt.Format(time.RFC3339Nano),
		ExpiresAt:      rec.ExpiresAt.Format(time.RFC3339Nano),
		Fingerprint:    rec.Fingerprint,
	})
	if err != nil {
		return fmt.Errorf("encode device record: %w", err)
	}
	if err := g.storage.Set(g.cfg.StorageKey, data); err != nil {
		g.storageFailed("record", err)
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

func (g *Guard) storageFailed(op string, err error) {
	g.logger.Warn("Device storage unavailable", "op", op, "error", err)
	if g.cfg.OnStorageError != nil {
		g.cfg.OnStorageError(op, err)
	}
}

func decode(data []byte) (*Record, error) {
	var s storedRecord
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if strings.TrimSpace(s.SelectedOption) == "" {
		return nil, fmt.Errorf("%w: missing selectedOption", ErrInvalidRecord)
	}
	claimedAt, err := time.Parse(time.RFC3339Nano, s.ClaimedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: claimedAt: %v", ErrInvalidRecord, err)
	}
	expiresAt, err := time.Parse(time.RFC3339Nano, s.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("%w: expiresAt: %v", ErrInvalidRecord, err)
	}
	return &Record{
		SelectedOption: s.SelectedOption,
		ClaimedAt:      claimedAt,
		ExpiresAt:      expiresAt,
		Fingerprint:    s.Fingerprint,
	}, nil
}

func remainingDays(expiresAt, now time.Time) int {
	left := expiresAt.Sub(now)
	if left <= 0 {
		return 0
	}
	return int((left + day - 1) / day)
}
