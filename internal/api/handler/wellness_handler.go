package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mindmate/companion-api/internal/core/domain"
	"github.com/mindmate/companion-api/internal/core/ports"
)

// WellnessHandler serves the mood journal and screening questionnaires.
type WellnessHandler struct {
	service ports.WellnessService
}

func NewWellnessHandler(service ports.WellnessService) *WellnessHandler {
	return &WellnessHandler{service: service}
}

type journalRequest struct {
	Mood int      `json:"mood"`
	Note string   `json:"note" validate:"max=4000"`
	Tags []string `json:"tags" validate:"max=10,dive,max=32"`
}

type screeningRequest struct {
	Instrument string `json:"instrument" validate:"required,oneof=phq9 gad7"`
	Answers    []int  `json:"answers" validate:"required"`
}

type journalResponse struct {
	Entries []domain.JournalEntry `json:"entries"`
}

type screeningsResponse struct {
	Screenings []domain.ScreeningResult `json:"screenings"`
}

// AddJournalEntry records a mood between 1 and 5 with an optional note.
//
// @Summary      Add a mood journal entry
// @Tags         wellness
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      journalRequest  true  "Entry"
// @Success      201   {object}  domain.JournalEntry
// @Failure      400   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /v1/journal [post]
func (h *WellnessHandler) AddJournalEntry(c echo.Context) error {
	userID, _, err := ctxClaims(c)
	if err != nil {
		return err
	}
	var req journalRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	entry, err := h.service.AddJournalEntry(c.Request().Context(), ports.JournalInput{
		UserID: userID,
		Mood:   req.Mood,
		Note:   req.Note,
		Tags:   req.Tags,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, entry)
}

// Journal lists entries newest first.
//
// @Summary      List mood journal entries
// @Tags         wellness
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query     int  false  "Maximum entries (default 20, max 100)"
// @Success      200    {object}  journalResponse
// @Router       /v1/journal [get]
func (h *WellnessHandler) Journal(c echo.Context) error {
	userID, _, err := ctxClaims(c)
	if err != nil {
		return err
	}
	limit, err := queryLimit(c)
	if err != nil {
		return err
	}
	entries, err := h.service.Journal(c.Request().Context(), userID, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, journalResponse{Entries: entries})
}

// SubmitScreening scores a PHQ-9 or GAD-7 questionnaire.
//
// @Summary      Submit a screening questionnaire
// @Tags         wellness
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      screeningRequest  true  "Answers, each 0-3"
// @Success      201   {object}  domain.ScreeningResult
// @Failure      400   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /v1/screenings [post]
func (h *WellnessHandler) SubmitScreening(c echo.Context) error {
	userID, _, err := ctxClaims(c)
	if err != nil {
		return err
	}
	var req screeningRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	res, err := h.service.SubmitScreening(c.Request().Context(), userID, domain.Instrument(req.Instrument), req.Answers)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, res)
}

// Screenings lists scored questionnaires newest first.
//
// @Summary      List screening results
// @Tags         wellness
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query     int  false  "Maximum results"
// @Success      200    {object}  screeningsResponse
// @Router       /v1/screenings [get]
func (h *WellnessHandler) Screenings(c echo.Context) error {
	userID, _, err := ctxClaims(c)
	if err != nil {
		return err
	}
	limit, err := queryLimit(c)
	if err != nil {
		return err
	}
	out, err := h.service.Screenings(c.Request().Context(), userID, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, screeningsResponse{Screenings: out})
}
