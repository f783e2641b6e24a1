package gamification

import "time"

const dateLayout = "2006-01-02"

// calendarDay returns t's date in loc as YYYY-MM-DD
func calendarDay(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(dateLayout)
}

// previousDay returns the calendar day before day (YYYY-MM-DD)
func previousDay(day string) string {
	d, err := time.Parse(dateLayout, day)
	if err != nil {
		return ""
	}
	return d.AddDate(0, 0, -1).Format(dateLayout)
}

// applyStreak updates s for activity on today. Same-day activity is a no-op;
// activity on the day after the last one extends the streak; anything else
// starts a new streak of 1.
func applyStreak(s *Stats, today string) {
	if s.LastActivityDate != nil && *s.LastActivityDate == today {
		return
	}
	if s.LastActivityDate != nil && *s.LastActivityDate == previousDay(today) {
		s.Streak++
	} else {
		s.Streak = 1
	}
	day := today
	s.LastActivityDate = &day
}
