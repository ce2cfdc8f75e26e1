package room

import "github.com/wfunc/loupgarou/session"

// Broadcaster delivers messages to sessions. Defined here so the broadcast
// package stays a leaf the room package does not import.
type Broadcaster interface {
	// Broadcast sends v to every session, best effort: one failing socket
	// must not abort delivery to the rest.
	Broadcast(sessions []*session.Session, v any)
	// SendTo sends v to a single session.
	SendTo(sess *session.Session, v any)
}
