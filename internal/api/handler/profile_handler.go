package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mindmate/companion-api/internal/core/domain"
	"github.com/mindmate/companion-api/internal/core/ports"
)

// ProfileHandler serves the caller's own account and safety settings.
type ProfileHandler struct {
	service ports.ProfileService
}

func NewProfileHandler(service ports.ProfileService) *ProfileHandler {
	return &ProfileHandler{service: service}
}

type trustedContactRequest struct {
	Name  string `json:"name" validate:"required,max=80"`
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phone" validate:"omitempty,max=32"`
}

type safetyRequest struct {
	AlertConsent          bool                    `json:"alert_consent"`
	TrustedContacts       []trustedContactRequest `json:"trusted_contacts" validate:"max=5,dive"`
	EmergencyContactName  string                  `json:"emergency_contact_name" validate:"max=80"`
	EmergencyContactPhone string                  `json:"emergency_contact_phone" validate:"max=32"`
}

type voiceRequest struct {
	VoiceID string `json:"voice_id" validate:"max=128"`
}

// Me returns the authenticated account.
//
// @Summary      Get my profile
// @Tags         profile
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.Account
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /v1/me [get]
func (h *ProfileHandler) Me(c echo.Context) error {
	userID, _, err := ctxClaims(c)
	if err != nil {
		return err
	}
	account, err := h.service.Get(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, account)
}

// UpdateSafety replaces alert consent, trusted contacts and the emergency contact.
//
// @Summary      Update safety settings
// @Tags         profile
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      safetyRequest  true  "Safety settings"
// @Success      200   {object}  domain.Account
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /v1/me/safety [put]
func (h *ProfileHandler) UpdateSafety(c echo.Context) error {
	userID, _, err := ctxClaims(c)
	if err != nil {
		return err
	}
	var req safetyRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}

	contacts := make([]domain.TrustedContact, len(req.TrustedContacts))
	for i, tc := range req.TrustedContacts {
		contacts[i] = domain.TrustedContact{Name: tc.Name, Email: tc.Email, Phone: tc.Phone}
	}
	account, err := h.service.UpdateSafety(c.Request().Context(), userID, domain.SafetySettings{
		AlertConsent:    req.AlertConsent,
		TrustedContacts: contacts,
		EmergencyName:   req.EmergencyContactName,
		EmergencyPhone:  req.EmergencyContactPhone,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, account)
}

// UpdateVoice sets or clears the cloned voice used for spoken replies.
//
// @Summary      Set cloned voice
// @Tags         profile
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      voiceRequest  true  "Voice id; empty clears it"
// @Success      200   {object}  domain.Account
// @Failure      400   {object}  map[string]string
// @Router       /v1/me/voice [put]
func (h *ProfileHandler) UpdateVoice(c echo.Context) error {
	userID, _, err := ctxClaims(c)
	if err != nil {
		return err
	}
	var req voiceRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	account, err := h.service.UpdateVoice(c.Request().Context(), userID, req.VoiceID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, account)
}
