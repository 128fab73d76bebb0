package paste

import "time"

// Expiration options accepted on create.
const (
	ExpireNever = "never"
	ExpireHour  = "1h"
	ExpireDay   = "1d"
	ExpireWeek  = "7d"
	ExpireMonth = "30d"
	ExpireBurn  = "burn"
)

var expirations = map[string]time.Duration{
	ExpireNever: 0,
	ExpireHour:  time.Hour,
	ExpireDay:   24 * time.Hour,
	ExpireWeek:  7 * 24 * time.Hour,
	ExpireMonth: 30 * 24 * time.Hour,
	ExpireBurn:  0,
}

// ValidExpiration reports whether option is a known expiration option.
func ValidExpiration(option string) bool {
	_, ok := expirations[option]
	return ok
}

// ExpiresAt resolves option relative to now. Never and burn pastes have no
// expiry time.
func ExpiresAt(option string, now time.Time) *time.Time {
	d := expirations[option]
	if d == 0 {
		return nil
	}
	t := now.Add(d)
	return &t
}
