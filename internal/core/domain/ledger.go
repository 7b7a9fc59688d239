package domain

import "time"

// EntryKind describes why a balance changed.
type EntryKind string

const (
	EntryDebit    EntryKind = "debit"
	EntryRefund   EntryKind = "refund"
	EntryReward   EntryKind = "reward"
	EntryAdminSet EntryKind = "admin_set"
	EntryAdminAdd EntryKind = "admin_add"
)

// LedgerEntry records a single balance mutation. It is written in the same
// transaction as the mutation itself.
type LedgerEntry struct {
	UserID       string    `json:"user_id"`
	Kind         EntryKind `json:"kind"`
	Delta        int64     `json:"delta"`
	BalanceAfter int64     `json:"balance_after"`
	Reference    string    `json:"reference,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// DayLayout is the calendar-day key format for usage records.
const DayLayout = "2006-01-02"

// DailyUsage is the time a user spent in the app on one calendar day.
type DailyUsage struct {
	UserID      string    `json:"user_id"`
	Day         string    `json:"day"`
	SecondsUsed int64     `json:"time_spent_seconds"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Day returns the usage key for t in UTC.
func Day(t time.Time) string {
	return t.UTC().Format(DayLayout)
}
