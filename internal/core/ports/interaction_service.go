package ports

import (
	"context"
	"time"
)

// Outcome is the terminal state of one interaction.
type Outcome string

const (
	// OutcomeIgnored: blank message, nothing was charged or recorded.
	OutcomeIgnored Outcome = "ignored"
	// OutcomeRechargeRequired: the debit failed for lack of tokens.
	OutcomeRechargeRequired Outcome = "recharge_required"
	// OutcomeCrisis: the crisis path halted the turn and refunded the cost.
	OutcomeCrisis Outcome = "crisis"
	// OutcomeReplied: a companion reply was delivered and recorded.
	OutcomeReplied Outcome = "replied"
	// OutcomeFailed: the responder failed; cost refunded, apology returned.
	OutcomeFailed Outcome = "failed"
)

// InteractionInput is one message submitted by a user.
type InteractionInput struct {
	UserID         string
	Message        string
	Language       string
	Image          string // optional captured frame, data URI
	CompanionName  string
	WantAudio      bool
	IdempotencyKey string
}

// InteractionResult is returned to the caller for every non-error outcome.
type InteractionResult struct {
	Outcome      Outcome
	Reply        string
	ReplyImage   string
	Audio        string
	Balance      int64
	Charged      int64
	RefundFailed bool
	RepliedAt    time.Time

	// BalanceUnknown is set when Balance could not be read and is not meaningful.
	BalanceUnknown bool
}

// InteractionService runs the crisis-gated, token-metered conversation flow.
type InteractionService interface {
	Interact(ctx context.Context, in InteractionInput) (*InteractionResult, error)
	History(ctx context.Context, userID string, limit int) ([]TurnView, error)
}

// TurnView is a recorded turn as shown to its owner.
type TurnView struct {
	ID        string
	Sender    string
	Text      string
	ImageRef  string
	CreatedAt time.Time
}
