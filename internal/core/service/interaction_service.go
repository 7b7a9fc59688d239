package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mindmate/companion-api/internal/core/domain"
	"github.com/mindmate/companion-api/internal/core/ports"
	"github.com/mindmate/companion-api/internal/pkg/metrics"
)

const (
	defaultSafetyMessage = "It sounds like you are going through something really painful. " +
		"You don't have to face this alone. Please reach out to a local emergency number or a crisis helpline right now, " +
		"or talk to someone you trust."
	defaultAITimeout      = 20 * time.Second
	defaultApologyMessage = "I'm sorry, I couldn't respond just now. You have not been charged for this message. Please try again in a moment."
)

// InteractionConfig tunes the orchestrator.
type InteractionConfig struct {
	Cost             int64
	HistoryLimit     int
	DefaultLanguage  string
	DefaultCompanion string
	SafetyMessage    string
	ApologyMessage   string

	// AITimeout bounds every call to an AI backend.
	AITimeout time.Duration
}

// InteractionDeps groups the collaborators of the orchestrator. Media, Guard
// and Cache are optional.
type InteractionDeps struct {
	Ledger    ports.Ledger
	Accounts  ports.AccountRepository
	Turns     ports.ConversationRepository
	Detector  ports.CrisisDetector
	Responder ports.Responder
	Speech    ports.Synthesizer
	Alerts    ports.AlertQueue
	Media     ports.MediaStore
	Guard     ports.SubmissionGuard
	Cache     ports.BalanceCache
}

type interactionService struct {
	deps InteractionDeps
	cfg  InteractionConfig
	now  func() time.Time
	log  zerolog.Logger
}

// NewInteractionService returns the crisis-gated conversation orchestrator.
func NewInteractionService(deps InteractionDeps, cfg InteractionConfig, log zerolog.Logger) ports.InteractionService {
	if cfg.Cost <= 0 {
		cfg.Cost = 10
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 20
	}
	if cfg.DefaultLanguage == "" {
		cfg.DefaultLanguage = "en"
	}
	if cfg.DefaultCompanion == "" {
		cfg.DefaultCompanion = "Mira"
	}
	if cfg.SafetyMessage == "" {
		cfg.SafetyMessage = defaultSafetyMessage
	}
	if cfg.ApologyMessage == "" {
		cfg.ApologyMessage = defaultApologyMessage
	}
	if cfg.AITimeout <= 0 {
		cfg.AITimeout = defaultAITimeout
	}
	return &interactionService{
		deps: deps,
		cfg:  cfg,
		now:  time.Now,
		log:  log,
	}
}

// Interact runs one turn: debit, crisis check, respond, synthesize, record.
func (s *interactionService) Interact(ctx context.Context, in ports.InteractionInput) (*ports.InteractionResult, error) {
	msg := strings.TrimSpace(in.Message)
	if msg == "" {
		return s.finish(&ports.InteractionResult{Outcome: ports.OutcomeIgnored}), nil
	}

	// 1. Replayed submissions are rejected before anything is charged.
	if in.IdempotencyKey != "" && s.deps.Guard != nil {
		fresh, err := s.deps.Guard.Claim(ctx, in.UserID, in.IdempotencyKey)
		if err != nil {
			s.log.Warn().Err(err).Str("user_id", in.UserID).Msg("submission guard failed, processing anyway")
		} else if !fresh {
			return nil, domain.ErrDuplicateSubmission
		}
	}

	// 2. Debit first. No AI call happens without funds.
	ref := "interaction:" + uuid.NewString()
	balance, err := s.deps.Ledger.Debit(ctx, in.UserID, s.cfg.Cost, ref)
	if err != nil {
		s.release(ctx, in)
		if errors.Is(err, domain.ErrInsufficientBalance) {
			res := &ports.InteractionResult{Outcome: ports.OutcomeRechargeRequired}
			current, berr := s.deps.Ledger.Balance(ctx, in.UserID)
			if berr != nil {
				s.log.Warn().Err(berr).Str("user_id", in.UserID).Msg("balance read after failed debit")
				res.BalanceUnknown = true
			}
			res.Balance = current
			return s.finish(res), nil
		}
		return nil, fmt.Errorf("interact: debit: %w", err)
	}
	s.invalidateBalance(ctx, in.UserID)

	// Once debited the sequence completes or refunds; caller cancellation no
	// longer applies.
	ctx = context.WithoutCancel(ctx)

	// 3. Crisis check on the raw message.
	if crisis, source := s.checkCrisis(ctx, msg); crisis {
		return s.finish(s.haltForCrisis(ctx, in.UserID, ref, source, balance)), nil
	}

	// 4. Respond with the server-ordered history.
	history, err := s.deps.Turns.Recent(ctx, in.UserID, s.cfg.HistoryLimit)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", in.UserID).Msg("history read failed")
		return s.finish(s.failWithRefund(ctx, in, ref, balance)), nil
	}

	reply, err := s.respond(ctx, in, msg, history)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", in.UserID).Msg("responder failed")
		return s.finish(s.failWithRefund(ctx, in, ref, balance)), nil
	}

	// 5. Optional speech. Failure only means no audio.
	var audio string
	if in.WantAudio {
		audio = s.synthesize(ctx, reply.Text, s.voiceFor(ctx, in.UserID))
	}

	// 6. Record both turns.
	userTurn := &domain.Turn{
		UserID:   in.UserID,
		Sender:   domain.SenderUser,
		Text:     msg,
		ImageRef: s.saveMedia(ctx, in.UserID, in.Image),
	}
	assistantTurn := &domain.Turn{
		UserID:   in.UserID,
		Sender:   domain.SenderAssistant,
		Text:     reply.Text,
		ImageRef: s.saveMedia(ctx, in.UserID, reply.Image),
	}
	if err := s.deps.Turns.Append(ctx, userTurn, assistantTurn); err != nil {
		s.log.Error().Err(err).Str("user_id", in.UserID).Msg("failed to record turns")
	}
	if assistantTurn.CreatedAt.IsZero() {
		assistantTurn.CreatedAt = s.now().UTC()
	}

	return s.finish(&ports.InteractionResult{
		Outcome:    ports.OutcomeReplied,
		Reply:      reply.Text,
		ReplyImage: reply.Image,
		Audio:      audio,
		Balance:    balance,
		Charged:    s.cfg.Cost,
		RepliedAt:  assistantTurn.CreatedAt,
	}), nil
}

// History returns the caller's most recent turns, oldest first.
func (s *interactionService) History(ctx context.Context, userID string, limit int) ([]ports.TurnView, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	turns, err := s.deps.Turns.Recent(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	out := make([]ports.TurnView, len(turns))
	for i, t := range turns {
		out[i] = ports.TurnView{
			ID:        t.ID,
			Sender:    string(t.Sender),
			Text:      t.Text,
			ImageRef:  t.ImageRef,
			CreatedAt: t.CreatedAt,
		}
	}
	return out, nil
}

// checkCrisis treats an unreachable classifier as a crisis.
func (s *interactionService) checkCrisis(ctx context.Context, msg string) (bool, domain.AlertSource) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.AITimeout)
	defer cancel()

	start := s.now()
	crisis, err := s.deps.Detector.Detect(ctx, msg)
	observeAI("crisis", start, err)
	if err != nil {
		s.log.Warn().Err(err).Msg("crisis detector unavailable, failing safe")
		return true, domain.AlertSourceFailSafe
	}
	return crisis, domain.AlertSourceClassifier
}

func (s *interactionService) haltForCrisis(ctx context.Context, userID, ref string, source domain.AlertSource, balance int64) *ports.InteractionResult {
	metrics.CrisisDetectionsTotal.WithLabelValues(string(source)).Inc()

	if !s.deps.Alerts.Enqueue(ports.AlertRequest{UserID: userID, TriggeredAt: s.now().UTC(), Source: source}) {
		s.log.Error().Str("user_id", userID).Msg("crisis alert dropped: queue full")
	}

	res := &ports.InteractionResult{Outcome: ports.OutcomeCrisis, Reply: s.cfg.SafetyMessage}
	s.refund(ctx, userID, ref, "crisis", balance, res)
	return res
}

// failWithRefund frees the idempotency key once the charge is returned, so
// the client can resubmit the same message.
func (s *interactionService) failWithRefund(ctx context.Context, in ports.InteractionInput, ref string, balance int64) *ports.InteractionResult {
	res := &ports.InteractionResult{Outcome: ports.OutcomeFailed, Reply: s.cfg.ApologyMessage}
	s.refund(ctx, in.UserID, ref, "responder_failure", balance, res)
	if !res.RefundFailed {
		s.release(ctx, in)
	}
	return res
}

func (s *interactionService) release(ctx context.Context, in ports.InteractionInput) {
	if in.IdempotencyKey == "" || s.deps.Guard == nil {
		return
	}
	if err := s.deps.Guard.Release(ctx, in.UserID, in.IdempotencyKey); err != nil {
		s.log.Warn().Err(err).Str("user_id", in.UserID).Msg("submission guard release failed")
	}
}

// refund credits the interaction cost back and records the result on res.
func (s *interactionService) refund(ctx context.Context, userID, ref, reason string, debited int64, res *ports.InteractionResult) {
	balance, err := s.deps.Ledger.Credit(ctx, userID, s.cfg.Cost, domain.EntryRefund, ref)
	if err != nil {
		metrics.RefundsTotal.WithLabelValues(reason, "error").Inc()
		s.log.Error().Err(err).
			Str("user_id", userID).
			Str("reference", ref).
			Int64("amount", s.cfg.Cost).
			Msg("refund failed")
		res.Balance = debited
		res.Charged = s.cfg.Cost
		res.RefundFailed = true
		return
	}
	metrics.RefundsTotal.WithLabelValues(reason, "ok").Inc()
	s.invalidateBalance(ctx, userID)
	res.Balance = balance
}

func (s *interactionService) respond(ctx context.Context, in ports.InteractionInput, msg string, history []domain.Turn) (*ports.ResponderReply, error) {
	req := ports.ResponderRequest{
		Message:       msg,
		Language:      in.Language,
		History:       toHistory(history),
		Image:         in.Image,
		CompanionName: in.CompanionName,
	}
	if req.Language == "" {
		req.Language = s.cfg.DefaultLanguage
	}
	if req.CompanionName == "" {
		req.CompanionName = s.cfg.DefaultCompanion
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.AITimeout)
	defer cancel()

	start := s.now()
	reply, err := s.deps.Responder.Respond(ctx, req)
	observeAI("respond", start, err)
	if err != nil {
		return nil, err
	}
	if reply == nil || (strings.TrimSpace(reply.Text) == "" && reply.Image == "") {
		return nil, fmt.Errorf("%w: empty reply", domain.ErrDownstreamAI)
	}
	return reply, nil
}

func (s *interactionService) synthesize(ctx context.Context, text, voiceID string) string {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.AITimeout)
	defer cancel()
	return s.deps.Speech.Synthesize(ctx, text, voiceID)
}

func (s *interactionService) voiceFor(ctx context.Context, userID string) string {
	acc, err := s.deps.Accounts.FindByID(ctx, userID)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("voice lookup failed, using default voice")
		return ""
	}
	return acc.VoiceID
}

func (s *interactionService) saveMedia(ctx context.Context, userID, dataURI string) string {
	if dataURI == "" || s.deps.Media == nil {
		return ""
	}
	ref, err := s.deps.Media.SaveDataURI(ctx, userID, dataURI)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("failed to store turn image")
		return ""
	}
	return ref
}

func (s *interactionService) invalidateBalance(ctx context.Context, userID string) {
	if s.deps.Cache == nil {
		return
	}
	if err := s.deps.Cache.Invalidate(ctx, userID); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("balance cache invalidation failed")
	}
}

func (s *interactionService) finish(res *ports.InteractionResult) *ports.InteractionResult {
	metrics.InteractionsTotal.WithLabelValues(string(res.Outcome)).Inc()
	return res
}

func toHistory(turns []domain.Turn) []ports.HistoryTurn {
	out := make([]ports.HistoryTurn, 0, len(turns))
	for _, t := range turns {
		role := "user"
		if t.Sender == domain.SenderAssistant {
			role = "assistant"
		}
		out = append(out, ports.HistoryTurn{Role: role, Text: t.Text})
	}
	return out
}

func observeAI(call string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.AICallDuration.WithLabelValues(call, result).Observe(time.Since(start).Seconds())
}
