package broadcast

import (
	"github.com/wfunc/loupgarou/logger"
	"github.com/wfunc/loupgarou/session"
)

// Fanout delivers messages to sessions best effort. A recipient whose socket
// fails is skipped and will be reaped when its read loop notices; delivery
// to the remaining recipients continues.
type Fanout struct{}

func New() *Fanout {
	return &Fanout{}
}

func (f *Fanout) Broadcast(sessions []*session.Session, v any) {
	for _, s := range sessions {
		if err := s.Send(v); err != nil {
			logger.Log.Warnf("Broadcast to session %s failed: %v", s.ID, err)
		}
	}
}

func (f *Fanout) SendTo(sess *session.Session, v any) {
	if err := sess.Send(v); err != nil {
		logger.Log.Warnf("Send to session %s failed: %v", sess.ID, err)
	}
}
