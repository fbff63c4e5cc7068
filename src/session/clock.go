package session

import "time"

// Clock decides whether the stored session has expired. It reads the
// store and compares, nothing else; clearing the store and navigating
// back to login is the caller's job.
type Clock struct {
	// Now is overridable for tests. Defaults to time.Now.
	Now func() time.Time
}

func (c Clock) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// Expired reports whether the session is past its expiry. A missing
// or unreadable expirationTime counts as expired.
func (c Clock) Expired(store *Store) bool {
	ms, ok := store.ExpirationTime()
	if !ok {
		return true
	}
	return ms <= c.now().UnixMilli()
}
