package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mindmate/companion-api/internal/core/ports"
)

// HeaderIdempotencyKey lets clients retry a submission without being charged twice.
const HeaderIdempotencyKey = "Idempotency-Key"

// InteractionHandler serves the companion conversation.
type InteractionHandler struct {
	service ports.InteractionService
}

func NewInteractionHandler(service ports.InteractionService) *InteractionHandler {
	return &InteractionHandler{service: service}
}

type interactionRequest struct {
	Message       string `json:"message" validate:"max=4000"`
	Language      string `json:"language" validate:"omitempty,max=16"`
	Image         string `json:"image,omitempty"`
	CompanionName string `json:"companion_name" validate:"omitempty,max=40"`
	Audio         bool   `json:"audio"`
}

type interactionResponse struct {
	Outcome      string `json:"outcome"`
	Reply        string `json:"reply,omitempty"`
	ReplyImage   string `json:"reply_image,omitempty"`
	Audio        string `json:"audio,omitempty"`
	Balance      *int64 `json:"balance,omitempty"`
	Charged      int64  `json:"charged"`
	RefundFailed bool   `json:"refund_failed,omitempty"`
	RepliedAt    string `json:"replied_at,omitempty"`
}

type turnResponse struct {
	ID        string `json:"id"`
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	ImageRef  string `json:"image_ref,omitempty"`
	CreatedAt string `json:"created_at"`
}

type conversationResponse struct {
	Turns []turnResponse `json:"turns"`
}

// Create submits one message to the companion.
//
// A blank message is ignored without charge. When the balance cannot cover
// the interaction cost the response is 402 with outcome recharge_required.
//
// @Summary      Send a message to the companion
// @Tags         interactions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string              false  "Client submission key"
// @Param        body             body      interactionRequest  true   "Message"
// @Success      200              {object}  interactionResponse
// @Failure      400              {object}  map[string]string
// @Failure      402              {object}  interactionResponse
// @Failure      409              {object}  map[string]string
// @Router       /v1/interactions [post]
func (h *InteractionHandler) Create(c echo.Context) error {
	userID, _, err := ctxClaims(c)
	if err != nil {
		return err
	}
	var req interactionRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}

	res, err := h.service.Interact(c.Request().Context(), ports.InteractionInput{
		UserID:         userID,
		Message:        req.Message,
		Language:       req.Language,
		Image:          req.Image,
		CompanionName:  req.CompanionName,
		WantAudio:      req.Audio,
		IdempotencyKey: c.Request().Header.Get(HeaderIdempotencyKey),
	})
	if err != nil {
		return err
	}

	status := http.StatusOK
	if res.Outcome == ports.OutcomeRechargeRequired {
		status = http.StatusPaymentRequired
	}
	return c.JSON(status, toInteractionResponse(res))
}

// Conversation lists the caller's recent turns, oldest first.
//
// @Summary      Conversation history
// @Tags         interactions
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query     int  false  "Maximum turns (default 50, max 200)"
// @Success      200    {object}  conversationResponse
// @Failure      400    {object}  map[string]string
// @Router       /v1/conversation [get]
func (h *InteractionHandler) Conversation(c echo.Context) error {
	userID, _, err := ctxClaims(c)
	if err != nil {
		return err
	}
	limit, err := queryLimit(c)
	if err != nil {
		return err
	}
	turns, err := h.service.History(c.Request().Context(), userID, limit)
	if err != nil {
		return err
	}

	resp := conversationResponse{Turns: make([]turnResponse, len(turns))}
	for i, t := range turns {
		resp.Turns[i] = turnResponse{
			ID:        t.ID,
			Sender:    t.Sender,
			Text:      t.Text,
			ImageRef:  t.ImageRef,
			CreatedAt: t.CreatedAt.UTC().Format(time.RFC3339Nano),
		}
	}
	return c.JSON(http.StatusOK, resp)
}

func toInteractionResponse(res *ports.InteractionResult) interactionResponse {
	out := interactionResponse{
		Outcome:      string(res.Outcome),
		Reply:        res.Reply,
		ReplyImage:   res.ReplyImage,
		Audio:        res.Audio,
		Charged:      res.Charged,
		RefundFailed: res.RefundFailed,
	}
	if !res.BalanceUnknown {
		balance := res.Balance
		out.Balance = &balance
	}
	if !res.RepliedAt.IsZero() {
		out.RepliedAt = res.RepliedAt.UTC().Format(time.RFC3339Nano)
	}
	return out
}
