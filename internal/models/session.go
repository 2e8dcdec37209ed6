package models

// Session is the time-of-day bucket a class start time falls into.
type Session string

const (
	SessionMorning   Session = "morning"
	SessionAfternoon Session = "afternoon"
	SessionEvening   Session = "evening"
	// SessionUnclassified covers the 00:00-04:59 range, which has no
	// agreed label. It stays a distinct bucket so both the schedule
	// filter and the feedback matcher treat it identically.
	SessionUnclassified Session = "unclassified"
)

// ClassifySession maps a start time to its session bucket:
// [05:00,12:00) morning, [12:00,17:00) afternoon, [17:00,24:00) evening,
// [00:00,05:00) unclassified. The schedule listing and the feedback
// matcher must both use this function; the boundaries are a contract.
func ClassifySession(startTime string) Session {
	normalized, err := NormalizeClock(startTime)
	if err != nil {
		return SessionUnclassified
	}
	hour := int(normalized[0]-'0')*10 + int(normalized[1]-'0')
	switch {
	case hour >= 5 && hour < 12:
		return SessionMorning
	case hour >= 12 && hour < 17:
		return SessionAfternoon
	case hour >= 17 && hour < 24:
		return SessionEvening
	default:
		return SessionUnclassified
	}
}

// ParseSession validates a raw session string from the API surface.
func ParseSession(raw string) (Session, bool) {
	switch Session(raw) {
	case SessionMorning, SessionAfternoon, SessionEvening, SessionUnclassified:
		return Session(raw), true
	default:
		return "", false
	}
}
