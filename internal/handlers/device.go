package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"claimgate/internal/device"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// sessionStorage keeps device records in the signed session cookie, so the
// record stays on the client as the browser page expects.
type sessionStorage struct {
	session sessions.Session
}

func (s sessionStorage) Get(key string) ([]byte, error) {
	v := s.session.Get(key)
	if v == nil {
		return nil, device.ErrNotFound
	}
	str, ok := v.(string)
	if !ok {
		// Unexpected type is treated as a corrupt record by the guard.
		return []byte(fmt.Sprint(v)), nil
	}
	return []byte(str), nil
}

func (s sessionStorage) Set(key string, value []byte) error {
	s.session.Set(key, string(value))
	return s.session.Save()
}

func (s sessionStorage) Remove(key string) error {
	if s.session.Get(key) == nil {
		return device.ErrNotFound
	}
	s.session.Delete(key)
	return s.session.Save()
}

func (h *Handler) deviceGuard(c *gin.Context) *device.Guard {
	return device.NewGuard(sessionStorage{session: sessions.Default(c)}, device.Config{
		Window: h.claimService.Window(),
		Fingerprint: func() string {
			return device.Fingerprint(c.Request.UserAgent(), c.GetHeader("Accept-Language"))
		},
	}, h.logger.With("request_id", requestID(c)))
}

type DeviceStatusResponse struct {
	Valid          bool       `json:"valid"`
	RemainingDays  int        `json:"remainingDays"`
	Storage        string     `json:"storage"`
	SelectedOption string     `json:"selectedOption,omitempty"`
	ClaimedAt      *time.Time `json:"claimedAt,omitempty"`
	ExpiresAt      *time.Time `json:"expiresAt,omitempty"`
	Message        string     `json:"message,omitempty"`
}

// DeviceStatus reports the device guard state used to gate the claim button.
func (h *Handler) DeviceStatus(c *gin.Context) {
	guard := h.deviceGuard(c)
	rec, state := guard.Load()

	resp := DeviceStatusResponse{Storage: state.String()}
	if rec != nil {
		resp.SelectedOption = rec.SelectedOption
		resp.ClaimedAt = &rec.ClaimedAt
		resp.ExpiresAt = &rec.ExpiresAt
	}
	resp.Valid = guard.IsValid()
	resp.RemainingDays = guard.RemainingDays()
	if resp.Valid {
		resp.Message = deviceRestrictedMessage(resp.RemainingDays)
	}
	c.JSON(http.StatusOK, resp)
}

// ResetDevice clears the device record. Registered outside production only.
func (h *Handler) ResetDevice(c *gin.Context) {
	if err := h.deviceGuard(c).Clear(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "message": "Device storage unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ClaimFromBrowser runs the whole client protocol for a browser: device check,
// address-gated claim, then recording the device claim.
func (h *Handler) ClaimFromBrowser(c *gin.Context) {
	var req ClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ClaimResponse{Success: false, Message: "Invalid request body", Type: TypeValidation})
		return
	}

	guard := h.deviceGuard(c)
	if guard.IsValid() {
		c.JSON(http.StatusTooManyRequests, ClaimResponse{
			Success: false,
			Message: deviceRestrictedMessage(guard.RemainingDays()),
			Type:    TypeDeviceRestricted,
		})
		return
	}

	outcome, err := h.submit(c, req)
	if err != nil {
		h.writeClaimError(c, err)
		return
	}

	if _, err := guard.Record(outcome.ClaimedOption, outcome.ClaimedAt); err != nil {
		if !errors.Is(err, device.ErrStorageUnavailable) {
			h.logger.Error("Failed to record device claim", "error", err)
		}
	}
	c.JSON(http.StatusOK, h.successResponse(outcome))
}

func deviceRestrictedMessage(days int) string {
	return fmt.Sprintf("This device has already claimed materials. Please try again in %d days.", days)
}
