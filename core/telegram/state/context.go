package state

import tele "gopkg.in/telebot.v4"

const sessionKey = "nav_session"

// Attach makes the session available to downstream handlers.
func Attach(c tele.Context, s *Session) {
	c.Set(sessionKey, s)
}

// From returns the session attached by the navigation middleware.
func From(c tele.Context) (*Session, bool) {
	if c == nil {
		return nil, false
	}
	s, ok := c.Get(sessionKey).(*Session)
	return s, ok && s != nil
}
