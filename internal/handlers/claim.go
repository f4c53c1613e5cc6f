package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"claimgate/internal/identity"
	"claimgate/internal/services"

	"github.com/gin-gonic/gin"
)

const (
	TypeValidation       = "validation_error"
	TypeIPRestricted     = "ip_restricted"
	TypeDeviceRestricted = "device_restricted"
	TypeServer           = "server_error"
)

type ClaimRequest struct {
	OptionID    string `json:"optionId" binding:"max=64"`
	Timestamp   string `json:"timestamp" binding:"max=64"`
	CallerAgent string `json:"callerAgent"`
}

type ClaimData struct {
	Address        string    `json:"address"`
	ClaimedOption  string    `json:"claimedOption"`
	ClaimedAt      time.Time `json:"claimedAt"`
	Linkage        string    `json:"linkage"`
	ExtractionCode string    `json:"extractionCode"`
	QRCode         string    `json:"qrCode,omitempty"`
}

type ClaimResponse struct {
	Success bool       `json:"success"`
	Message string     `json:"message,omitempty"`
	Type    string     `json:"type,omitempty"`
	Data    *ClaimData `json:"data,omitempty"`
}

// SubmitClaim is the address-gated claim endpoint.
func (h *Handler) SubmitClaim(c *gin.Context) {
	var req ClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ClaimResponse{Success: false, Message: "Invalid request body", Type: TypeValidation})
		return
	}

	outcome, err := h.submit(c, req)
	if err != nil {
		h.writeClaimError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.successResponse(outcome))
}

func (h *Handler) submit(c *gin.Context, req ClaimRequest) (*services.ClaimOutcome, error) {
	address, _ := identity.ClientAddress(c.Request.Header)
	return h.claimService.SubmitClaim(c.Request.Context(), services.ClaimRequest{
		OptionID:    req.OptionID,
		Timestamp:   req.Timestamp,
		CallerAgent: req.CallerAgent,
		Address:     address,
		RequestID:   requestID(c),
	})
}

func (h *Handler) successResponse(outcome *services.ClaimOutcome) ClaimResponse {
	data := &ClaimData{
		Address:        outcome.Address,
		ClaimedOption:  outcome.ClaimedOption,
		ClaimedAt:      outcome.ClaimedAt,
		Linkage:        outcome.Entry.Linkage,
		ExtractionCode: outcome.Entry.ExtractionCode,
	}
	qr, err := services.LinkQRCode(outcome.Entry.Linkage, 0)
	if err != nil {
		h.logger.Warn("Failed to render link QR code", "option", outcome.ClaimedOption, "error", err)
	} else {
		data.QRCode = qr
	}
	return ClaimResponse{Success: true, Message: "Claim validated successfully", Data: data}
}

// writeClaimError maps claim failures to fixed client messages. Causes are only logged.
func (h *Handler) writeClaimError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrIdentityUnavailable):
		c.JSON(http.StatusBadRequest, ClaimResponse{Success: false, Message: "Unable to determine client IP", Type: TypeValidation})
	case errors.Is(err, services.ErrInvalidOption):
		c.JSON(http.StatusBadRequest, ClaimResponse{Success: false, Message: "Selected option is not available", Type: TypeValidation})
	case errors.Is(err, services.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, ClaimResponse{
			Success: false,
			Message: fmt.Sprintf("IP address has already claimed materials within the last %d days", windowDays(h.claimService.Window())),
			Type:    TypeIPRestricted,
		})
	default:
		h.logger.Error("Claim failed", "request_id", requestID(c), "error", err)
		c.JSON(http.StatusInternalServerError, ClaimResponse{Success: false, Message: "Failed to record claim", Type: TypeServer})
	}
}

func (h *Handler) ListCatalog(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": h.catalog.List()})
}

func windowDays(window time.Duration) int {
	return int((window + 24*time.Hour - 1) / (24 * time.Hour))
}
