package cleaning

import "time"

// Regular trading sub-sessions and the pre-open call auction, expressed as
// bounds on the wall clock. Bounds are inclusive.
const (
	auctionStartMinute = 9*60 + 15 // 09:15
	auctionEndMinute   = 9*60 + 25 // 09:25

	morningStartSecond   = 9*3600 + 30*60  // 09:30:00
	morningEndSecond     = 11*3600 + 30*60 // 11:30:00
	afternoonStartSecond = 13 * 3600       // 13:00:00
	afternoonEndSecond   = 15 * 3600       // 15:00:00
)

func minuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

func secondOfDay(t time.Time) int {
	return t.Hour()*3600 + t.Minute()*60 + t.Second()
}

// inAuction reports whether the clock time falls in the call-auction window.
func inAuction(t time.Time) bool {
	m := minuteOfDay(t)
	return m >= auctionStartMinute && m <= auctionEndMinute
}

// inSession reports whether the clock time falls in a regular trading
// sub-session. Anything past 15:00:00 is outside.
func inSession(t time.Time) bool {
	s := secondOfDay(t)
	if s >= morningStartSecond && s <= morningEndSecond {
		return true
	}
	return s >= afternoonStartSecond && s <= afternoonEndSecond
}
