package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"claimgate/internal/device"
)

var ErrClaimInProgress = errors.New("claim already in progress")

// Submitter sends a claim to the service.
type Submitter interface {
	Submit(ctx context.Context, optionID string) (*Grant, error)
}

// Flow gates claims on the device record and allows one submission at a time.
type Flow struct {
	submitter  Submitter
	guard      *device.Guard
	now        func() time.Time
	logger     *slog.Logger
	processing atomic.Bool
}

func NewFlow(submitter Submitter, guard *device.Guard, logger *slog.Logger) *Flow {
	if logger == nil {
		logger = slog.Default()
	}
	return &Flow{
		submitter: submitter,
		guard:     guard,
		now:       time.Now,
		logger:    logger,
	}
}

// Processing reports whether a claim is in flight.
func (f *Flow) Processing() bool {
	return f.processing.Load()
}

// Claim runs one claim for optionID. Rejections are returned as *Failure.
// A second call while one is in flight fails with ErrClaimInProgress.
func (f *Flow) Claim(ctx context.Context, optionID string) (*Grant, error) {
	if !f.processing.CompareAndSwap(false, true) {
		return nil, ErrClaimInProgress
	}
	defer f.processing.Store(false)

	optionID = strings.TrimSpace(optionID)
	if optionID == "" {
		return nil, &Failure{Kind: KindValidation, Message: "Please select a textbook edition."}
	}

	if f.guard.IsValid() {
		return nil, &Failure{
			Kind:    KindDeviceRestricted,
			Message: restrictedMessage(f.guard.RemainingDays()),
		}
	}

	grant, err := f.submitter.Submit(ctx, optionID)
	if err != nil {
		return nil, err
	}

	// Storage failures leave the device unrestricted; the grant still stands.
	if _, err := f.guard.Record(grant.ClaimedOption, f.now()); err != nil {
		f.logger.Warn("Could not record device claim", "option", grant.ClaimedOption, "error", err)
	}
	return grant, nil
}

type Status struct {
	Restricted    bool
	RemainingDays int
	Storage       device.State
	Record        *device.Record
	Message       string
}

func (f *Flow) Status() Status {
	rec, state := f.guard.Load()
	st := Status{
		Restricted:    f.guard.IsValid(),
		RemainingDays: f.guard.RemainingDays(),
		Storage:       state,
		Record:        rec,
	}
	if st.Restricted {
		st.Message = restrictedMessage(st.RemainingDays)
	}
	return st
}

// Reset clears the device record.
func (f *Flow) Reset() error {
	return f.guard.Clear()
}

func restrictedMessage(days int) string {
	return fmt.Sprintf("%s Please try again in %d days.", Message(KindDeviceRestricted), days)
}
