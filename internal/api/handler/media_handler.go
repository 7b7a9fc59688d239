package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mindmate/companion-api/internal/core/ports"
)

// MediaHandler streams stored turn images back to their owner.
type MediaHandler struct {
	media ports.MediaReader
}

func NewMediaHandler(media ports.MediaReader) *MediaHandler {
	return &MediaHandler{media: media}
}

// Get streams one media object referenced by a turn's image_ref.
//
// @Summary      Fetch turn media
// @Tags         interactions
// @Produce      octet-stream
// @Security     BearerAuth
// @Param        ref  path  string  true  "image_ref of a turn"
// @Success      200
// @Failure      404  {object}  map[string]string
// @Router       /v1/media/{ref} [get]
func (h *MediaHandler) Get(c echo.Context) error {
	userID, _, err := ctxClaims(c)
	if err != nil {
		return err
	}
	ref := c.Param("*")
	if ref == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "media reference is required")
	}

	body, contentType, err := h.media.Open(c.Request().Context(), userID, ref)
	if err != nil {
		return err
	}
	defer body.Close()

	c.Response().Header().Set("Cache-Control", "private, max-age=3600")
	return c.Stream(http.StatusOK, contentType, body)
}
