package domain

// Session is one connected client's identity and membership state within
// the relay. The registry owns the only mutable copy; everything handed to
// callers is a value snapshot.
type Session struct {
	ID     string
	Name   string
	Joined bool
}

// ShortID is the identifier prefix used when generating a placeholder
// display name.
func (s Session) ShortID() string {
	if len(s.ID) < 6 {
		return s.ID
	}
	return s.ID[:6]
}
