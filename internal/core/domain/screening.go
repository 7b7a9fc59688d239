package domain

import (
	"fmt"
	"time"
)

// Instrument is a supported screening questionnaire.
type Instrument string

const (
	InstrumentPHQ9 Instrument = "phq9"
	InstrumentGAD7 Instrument = "gad7"
)

// Severity bands shared by PHQ-9 and GAD-7.
const (
	SeverityMinimal          = "minimal"
	SeverityMild             = "mild"
	SeverityModerate         = "moderate"
	SeverityModeratelySevere = "moderately_severe"
	SeveritySevere           = "severe"
)

// itemCount is the number of answers each instrument expects.
var itemCount = map[Instrument]int{
	InstrumentPHQ9: 9,
	InstrumentGAD7: 7,
}

// ScreeningResult is a scored questionnaire submission.
type ScreeningResult struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	Instrument Instrument `json:"instrument"`
	Answers    []int      `json:"answers"`
	Total      int        `json:"total"`
	Severity   string     `json:"severity"`
	CreatedAt  time.Time  `json:"created_at"`

	// SelfHarmRisk is set when PHQ-9 item 9 is answered above zero.
	SelfHarmRisk bool `json:"self_harm_risk"`
}

// Score validates answers and computes total, severity band and the self-harm flag.
func Score(inst Instrument, answers []int) (ScreeningResult, error) {
	n, ok := itemCount[inst]
	if !ok {
		return ScreeningResult{}, fmt.Errorf("%w: unknown instrument %q", ErrInvalidScreening, inst)
	}
	if len(answers) != n {
		return ScreeningResult{}, fmt.Errorf("%w: %s expects %d answers, got %d", ErrInvalidScreening, inst, n, len(answers))
	}

	total := 0
	for i, a := range answers {
		if a < 0 || a > 3 {
			return ScreeningResult{}, fmt.Errorf("%w: answer %d out of range", ErrInvalidScreening, i+1)
		}
		total += a
	}

	res := ScreeningResult{
		Instrument: inst,
		Answers:    append([]int(nil), answers...),
		Total:      total,
		Severity:   severity(inst, total),
	}
	if inst == InstrumentPHQ9 && answers[8] > 0 {
		res.SelfHarmRisk = true
	}
	return res, nil
}

func severity(inst Instrument, total int) string {
	switch {
	case total <= 4:
		return SeverityMinimal
	case total <= 9:
		return SeverityMild
	case total <= 14:
		return SeverityModerate
	case inst == InstrumentGAD7:
		return SeveritySevere
	case total <= 19:
		return SeverityModeratelySevere
	default:
		return SeveritySevere
	}
}
