package timing

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d, hour int) time.Time {
	return time.Date(y, m, d, hour, 0, 0, 0, time.UTC)
}

func TestMatchHoliday_Thanksgiving2024(t *testing.T) {
	match := MatchHoliday(date(2024, time.November, 28, 12))
	if match == nil {
		t.Fatal("Nov 28 2024 is US Thanksgiving, expected a match")
	}
	if match.Holiday.Name != "Thanksgiving" {
		t.Errorf("expected Thanksgiving, got %s", match.Holiday.Name)
	}
	if !match.Holiday.Major {
		t.Error("Thanksgiving must be classified major")
	}
	if match.Offset != 0 {
		t.Errorf("expected offset 0, got %d", match.Offset)
	}
}

func TestMatchHoliday_DayAfterChristmasOutsideWindow(t *testing.T) {
	// Christmas has a 0-day-after window; Dec 26 must not match it.
	match := MatchHoliday(date(2024, time.December, 26, 12))
	if match != nil && match.Holiday.Name == "Christmas" {
		t.Errorf("Dec 26 must not match Christmas (offset %d)", match.Offset)
	}
}

func TestMatchHoliday_ChristmasEveInWindow(t *testing.T) {
	match := MatchHoliday(date(2024, time.December, 23, 12))
	if match == nil || match.Holiday.Name != "Christmas" {
		t.Fatalf("Dec 23 is inside the 3-days-before Christmas window, got %+v", match)
	}
}

func TestMatchHoliday_MajorBeforeMinor(t *testing.T) {
	// Jan 1 is major New Year's Day; nothing minor should shadow it.
	match := MatchHoliday(date(2025, time.January, 1, 12))
	if match == nil || match.Holiday.Name != "New Year's Day" {
		t.Fatalf("expected New Year's Day, got %+v", match)
	}
}

func TestEasterSunday(t *testing.T) {
	tests := []struct {
		year  int
		month time.Month
		day   int
	}{
		{2024, time.March, 31},
		{2025, time.April, 20},
		{2026, time.April, 5},
	}
	for _, tt := range tests {
		got := easterSunday(tt.year)
		if got.Month() != tt.month || got.Day() != tt.day {
			t.Errorf("easterSunday(%d) = %s, want %s %d", tt.year, got.Format("Jan 2"), tt.month, tt.day)
		}
	}
}

func TestNthWeekday(t *testing.T) {
	// MLK Day 2025: third Monday of January = Jan 20.
	if got := nthWeekday(2025, time.January, time.Monday, 3); got.Day() != 20 {
		t.Errorf("MLK Day 2025 should be Jan 20, got %d", got.Day())
	}
	// Labor Day 2024: first Monday of September = Sep 2.
	if got := nthWeekday(2024, time.September, time.Monday, 1); got.Day() != 2 {
		t.Errorf("Labor Day 2024 should be Sep 2, got %d", got.Day())
	}
	// Super Bowl Sunday 2025: second Sunday of February = Feb 9.
	if got := nthWeekday(2025, time.February, time.Sunday, 2); got.Day() != 9 {
		t.Errorf("Super Bowl Sunday 2025 should be Feb 9, got %d", got.Day())
	}
}

func TestLastWeekday(t *testing.T) {
	// Memorial Day 2024: last Monday of May = May 27.
	if got := lastWeekday(2024, time.May, time.Monday); got.Day() != 27 {
		t.Errorf("Memorial Day 2024 should be May 27, got %d", got.Day())
	}
}

func TestEvaluate_FridayAfternoonDrop(t *testing.T) {
	// Friday Mar 14 2025, 16:00.
	report := Evaluate(date(2025, time.March, 14, 16), nil)

	found := false
	for _, s := range report.Signals {
		if s.Type == SignalFridayAfternoon {
			found = true
			if s.Penalty != signalPenalties[SignalFridayAfternoon] {
				t.Errorf("expected configured penalty %d, got %d",
					signalPenalties[SignalFridayAfternoon], s.Penalty)
			}
		}
	}
	if !found {
		t.Errorf("Friday 16:00 must raise a friday_afternoon_drop signal, got %+v", report.Signals)
	}
}

func TestEvaluate_QuietTuesdayRaisesNothing(t *testing.T) {
	// Tuesday Mar 11 2025, 14:00: no holiday, weekday, business hours.
	report := Evaluate(date(2025, time.March, 11, 14), nil)
	if len(report.Signals) != 0 {
		t.Errorf("expected no signals, got %+v", report.Signals)
	}
	if report.Penalty != 0 || report.RiskScore != 0 {
		t.Errorf("expected zero penalty and risk, got %d/%d", report.Penalty, report.RiskScore)
	}
}

func TestEvaluate_OffHours(t *testing.T) {
	report := Evaluate(date(2025, time.March, 11, 23), nil)
	if len(report.Signals) != 1 || report.Signals[0].Type != SignalOffHours {
		t.Errorf("23:00 on a quiet Tuesday should raise only off_hours, got %+v", report.Signals)
	}
}

func TestEvaluate_RapidSuppressesFrequent(t *testing.T) {
	ts := date(2025, time.March, 11, 14)
	recent := []time.Time{
		ts.AddDate(0, 0, -5),
		ts.AddDate(0, 0, -20),
		ts.AddDate(0, 0, -70),
	}
	report := Evaluate(ts, recent)

	var hasRapid, hasFrequent bool
	for _, s := range report.Signals {
		if s.Type == SignalRapidUpdates {
			hasRapid = true
		}
		if s.Type == SignalFrequentUpdates {
			hasFrequent = true
		}
	}
	if !hasRapid {
		t.Error("3 siblings in 90 days should raise rapid_updates")
	}
	if hasFrequent {
		t.Error("rapid_updates must suppress frequent_updates")
	}
}

func TestEvaluate_FrequentOnly(t *testing.T) {
	ts := date(2025, time.March, 11, 14)
	recent := []time.Time{
		ts.AddDate(0, 0, -5),
		ts.AddDate(0, 0, -20),
	}
	report := Evaluate(ts, recent)
	var hasFrequent bool
	for _, s := range report.Signals {
		if s.Type == SignalFrequentUpdates {
			hasFrequent = true
		}
	}
	if !hasFrequent {
		t.Errorf("2 siblings in 30 days should raise frequent_updates, got %+v", report.Signals)
	}
}

func TestEvaluate_SuspiciousPatternOnThreeSignals(t *testing.T) {
	// Saturday Nov 30 2024, 23:00 is inside Thanksgiving's 2-day-after
	// window, a weekend, and off hours: three distinct signal types.
	report := Evaluate(date(2024, time.November, 30, 23), nil)

	var hasPattern bool
	types := map[string]bool{}
	for _, s := range report.Signals {
		types[s.Type] = true
		if s.Type == SignalSuspiciousPattern {
			hasPattern = true
		}
	}
	if len(types) < 4 {
		t.Fatalf("expected holiday+weekend+off_hours+pattern, got %+v", report.Signals)
	}
	if !hasPattern {
		t.Error("three distinct signals should add a synthetic suspicious_pattern")
	}
	if report.Penalty == 0 || report.RiskScore == 0 {
		t.Error("signals must carry penalty and risk")
	}
}

func TestEvaluate_RiskScoreCapped(t *testing.T) {
	// Pathological stack of signals must not exceed 100.
	ts := date(2024, time.November, 29, 23) // Fri after Thanksgiving, off-hours
	recent := []time.Time{
		ts.AddDate(0, 0, -3), ts.AddDate(0, 0, -10), ts.AddDate(0, 0, -40),
	}
	report := Evaluate(ts, recent)
	if report.RiskScore > 100 {
		t.Errorf("risk score must cap at 100, got %d", report.RiskScore)
	}
}

func TestQuickVerdict(t *testing.T) {
	quiet := QuickVerdict(date(2025, time.March, 11, 14), 0)
	if quiet.Suspicious || quiet.Score != 0 {
		t.Errorf("quiet Tuesday should be clean, got %+v", quiet)
	}

	weekend := QuickVerdict(date(2025, time.March, 15, 14), 0) // Saturday
	if !weekend.Suspicious || weekend.Score != -5 {
		t.Errorf("weekend should score -5, got %+v", weekend)
	}

	night := QuickVerdict(date(2025, time.March, 11, 2), 0)
	if night.Score != -5 {
		t.Errorf("nighttime should score -5, got %+v", night)
	}

	// Negative impact co-occurring with a timing flag adds -10.
	harmful := QuickVerdict(date(2025, time.March, 15, 2), -10) // Sat night
	if harmful.Score != -5-5-10 {
		t.Errorf("weekend+night+negative impact should score -20, got %+v", harmful)
	}

	// Negative impact with no timing flag adds nothing.
	cleanHarm := QuickVerdict(date(2025, time.March, 11, 14), -10)
	if cleanHarm.Score != 0 || cleanHarm.Suspicious {
		t.Errorf("no timing flag means no penalty regardless of impact, got %+v", cleanHarm)
	}
}

func TestQuickVerdict_Holiday(t *testing.T) {
	v := QuickVerdict(date(2024, time.December, 25, 12), 0)
	if v.Score != -10 {
		t.Errorf("Christmas Day should score -10, got %+v", v)
	}
}

func TestDetectPatterns(t *testing.T) {
	// Two holiday-adjacent updates across the history.
	holidayHeavy := []time.Time{
		date(2023, time.December, 24, 10),
		date(2024, time.December, 23, 10),
		date(2024, time.June, 12, 10),
	}
	signals := DetectPatterns(holidayHeavy)
	var hasHabitualHoliday bool
	for _, s := range signals {
		if s.Type == SignalHabitualHoliday {
			hasHabitualHoliday = true
		}
	}
	if !hasHabitualHoliday {
		t.Errorf("two holiday-adjacent updates should flag habitual holiday timing, got %+v", signals)
	}

	// Majority-weekend history.
	weekendHeavy := []time.Time{
		date(2025, time.March, 15, 10), // Sat
		date(2025, time.March, 22, 10), // Sat
		date(2025, time.March, 11, 10), // Tue
	}
	signals = DetectPatterns(weekendHeavy)
	var hasHabitualWeekend bool
	for _, s := range signals {
		if s.Type == SignalHabitualWeekend {
			hasHabitualWeekend = true
		}
	}
	if !hasHabitualWeekend {
		t.Errorf("2/3 weekend updates should flag habitual weekend timing, got %+v", signals)
	}

	if got := DetectPatterns(nil); got != nil {
		t.Errorf("empty history should yield no signals, got %+v", got)
	}
}
