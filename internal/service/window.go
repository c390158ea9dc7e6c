package service

import "time"

const minutesPerDay = 24 * 60

// MinuteRange is a half-open [From, To) interval of minutes since local midnight.
type MinuteRange struct {
	From int
	To   int
}

func (r MinuteRange) contains(m int) bool {
	return m >= r.From && m < r.To
}

// AccessPolicy decides whether pumping is permitted at all at a given moment,
// independent of the water level. Ranges are evaluated on the civil clock of
// Location, never the host's zone.
type AccessPolicy struct {
	Location *time.Location
	Weekday  []MinuteRange // Monday to Friday
	Weekend  []MinuteRange // Saturday and Sunday
}

// DefaultAccessPolicy permits 00:00-02:49 and 23:00-23:59 every day, plus
// 11:00-14:50 on working days.
func DefaultAccessPolicy(loc *time.Location) AccessPolicy {
	night := []MinuteRange{{From: 0, To: 170}, {From: 1380, To: minutesPerDay}}
	return AccessPolicy{
		Location: loc,
		Weekday:  append([]MinuteRange{{From: 660, To: 891}}, night...),
		Weekend:  night,
	}
}

// IsAllowed is a pure function of the weekday and minute of day of t in the policy's zone.
func (p AccessPolicy) IsAllowed(t time.Time) bool {
	if p.Location != nil {
		t = t.In(p.Location)
	}
	m := t.Hour()*60 + t.Minute()

	ranges := p.Weekday
	if wd := t.Weekday(); wd == time.Saturday || wd == time.Sunday {
		ranges = p.Weekend
	}
	for _, r := range ranges {
		if r.contains(m) {
			return true
		}
	}
	return false
}
