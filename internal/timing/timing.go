package timing

import (
	"fmt"
	"time"
)

// Signal types
const (
	SignalHolidayMajor      = "holiday_release_major"
	SignalHolidayMinor      = "holiday_release_minor"
	SignalWeekend           = "weekend_release"
	SignalOffHours          = "off_hours_release"
	SignalFridayAfternoon   = "friday_afternoon_drop"
	SignalRapidUpdates      = "rapid_updates"
	SignalFrequentUpdates   = "frequent_updates"
	SignalSuspiciousPattern = "suspicious_pattern"
	SignalHabitualHoliday   = "habitual_holiday_timing"
	SignalHabitualWeekend   = "habitual_weekend_timing"
)

// Signal severities
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
)

// Signal is one behavioral finding for a version's publish time.
type Signal struct {
	Type        string `json:"type"`
	Severity    string `json:"severity"`
	Penalty     int    `json:"penalty"`
	Description string `json:"description"`
}

// Report aggregates the signals for one version.
type Report struct {
	Signals   []Signal `json:"signals"`
	Penalty   int      `json:"penalty"`
	RiskScore int      `json:"risk_score"`
}

// Penalties per signal type. Fixed configuration rather than per-call
// options: the point of the engine is stable, comparable scores.
var signalPenalties = map[string]int{
	SignalHolidayMajor:      20,
	SignalHolidayMinor:      10,
	SignalWeekend:           8,
	SignalOffHours:          8,
	SignalFridayAfternoon:   12,
	SignalRapidUpdates:      15,
	SignalFrequentUpdates:   8,
	SignalSuspiciousPattern: 15,
	SignalHabitualHoliday:   15,
	SignalHabitualWeekend:   10,
}

var signalSeverities = map[string]string{
	SignalHolidayMajor:      SeverityCritical,
	SignalHolidayMinor:      SeverityMedium,
	SignalWeekend:           SeverityMedium,
	SignalOffHours:          SeverityMedium,
	SignalFridayAfternoon:   SeverityHigh,
	SignalRapidUpdates:      SeverityHigh,
	SignalFrequentUpdates:   SeverityMedium,
	SignalSuspiciousPattern: SeverityHigh,
	SignalHabitualHoliday:   SeverityHigh,
	SignalHabitualWeekend:   SeverityMedium,
}

var severityPoints = map[string]int{
	SeverityCritical: 30,
	SeverityHigh:     20,
	SeverityMedium:   10,
	SeverityLow:      5,
}

func newSignal(typ, description string) Signal {
	return Signal{
		Type:        typ,
		Severity:    signalSeverities[typ],
		Penalty:     signalPenalties[typ],
		Description: description,
	}
}

// Evaluate scores the publish time of one version. ts is the version's
// resolved effective timestamp; recent holds the effective timestamps of
// sibling versions of the same document (the version under evaluation
// excluded). Each check is independent; three or more distinct signal
// types add a synthetic suspicious-pattern signal on top.
func Evaluate(ts time.Time, recent []time.Time) Report {
	var signals []Signal

	if match := MatchHoliday(ts); match != nil {
		typ := SignalHolidayMinor
		if match.Holiday.Major {
			typ = SignalHolidayMajor
		}
		signals = append(signals, newSignal(typ,
			fmt.Sprintf("published %s (%s)", describeOffset(match.Offset), match.Holiday.Name)))
	}

	if wd := ts.Weekday(); wd == time.Saturday || wd == time.Sunday {
		signals = append(signals, newSignal(SignalWeekend,
			fmt.Sprintf("published on a %s", wd)))
	}

	if h := ts.Hour(); h < 6 || h >= 22 {
		signals = append(signals, newSignal(SignalOffHours,
			fmt.Sprintf("published at %02d:00, outside normal hours", h)))
	}

	if ts.Weekday() == time.Friday && ts.Hour() >= 15 {
		signals = append(signals, newSignal(SignalFridayAfternoon,
			"published on a Friday afternoon, the classic low-attention slot"))
	}

	// Update-frequency flags use trailing windows over sibling versions.
	// Rapid suppresses frequent so one edit cluster is not double-counted.
	in90 := countWithin(ts, recent, 90*24*time.Hour)
	in30 := countWithin(ts, recent, 30*24*time.Hour)
	switch {
	case in90 >= 3:
		signals = append(signals, newSignal(SignalRapidUpdates,
			fmt.Sprintf("%d updates within 90 days", in90+1)))
	case in30 >= 2:
		signals = append(signals, newSignal(SignalFrequentUpdates,
			fmt.Sprintf("%d updates within 30 days", in30+1)))
	}

	if len(signals) >= 3 {
		signals = append(signals, newSignal(SignalSuspiciousPattern,
			fmt.Sprintf("%d independent timing signals fired for one version", len(signals))))
	}

	return buildReport(signals)
}

func buildReport(signals []Signal) Report {
	r := Report{Signals: signals}
	for _, s := range signals {
		r.Penalty += s.Penalty
		r.RiskScore += severityPoints[s.Severity]
	}
	if r.RiskScore > 100 {
		r.RiskScore = 100
	}
	return r
}

func countWithin(ts time.Time, recent []time.Time, window time.Duration) int {
	n := 0
	for _, t := range recent {
		if !t.After(ts) && ts.Sub(t) <= window {
			n++
		}
	}
	return n
}

func describeOffset(offset int) string {
	switch {
	case offset == 0:
		return "on"
	case offset < 0:
		return fmt.Sprintf("%d day(s) before", -offset)
	default:
		return fmt.Sprintf("%d day(s) after", offset)
	}
}

// Verdict is the simplified suspicious/not-suspicious call used inside
// the diff-analysis flow, distinct from the full per-version report.
type Verdict struct {
	Suspicious bool `json:"suspicious"`
	Score      int  `json:"score"`
}

// QuickVerdict flags a change time with a signed score: nighttime -5,
// weekend -5, holiday -10, and an extra -10 when a negative content
// impact co-occurs with any timing flag.
func QuickVerdict(ts time.Time, impactDelta int) Verdict {
	score := 0
	if h := ts.Hour(); h < 6 || h >= 22 {
		score -= 5
	}
	if wd := ts.Weekday(); wd == time.Saturday || wd == time.Sunday {
		score -= 5
	}
	if MatchHoliday(ts) != nil {
		score -= 10
	}
	if score < 0 && impactDelta < 0 {
		score -= 10
	}
	return Verdict{Suspicious: score < 0, Score: score}
}

// DetectPatterns looks across a document's full version history and
// reports habitual timing: repeated holiday-adjacent updates or a
// weekend-heavy release pattern. These are document-level signals, not
// attached to any single version.
func DetectPatterns(timestamps []time.Time) []Signal {
	if len(timestamps) == 0 {
		return nil
	}
	var signals []Signal

	holidayHits := 0
	weekendHits := 0
	for _, ts := range timestamps {
		if MatchHoliday(ts) != nil {
			holidayHits++
		}
		if wd := ts.Weekday(); wd == time.Saturday || wd == time.Sunday {
			weekendHits++
		}
	}

	if holidayHits >= 2 {
		signals = append(signals, newSignal(SignalHabitualHoliday,
			fmt.Sprintf("%d of %d updates landed near holidays", holidayHits, len(timestamps))))
	}
	if float64(weekendHits)/float64(len(timestamps)) > 0.3 {
		signals = append(signals, newSignal(SignalHabitualWeekend,
			fmt.Sprintf("%d of %d updates landed on weekends", weekendHits, len(timestamps))))
	}
	return signals
}
