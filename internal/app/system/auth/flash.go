package auth

import (
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

// Flash kinds, rendered as toast styles.
const (
	FlashSuccess = "success"
	FlashError   = "error"
	FlashInfo    = "info"
)

var flashKinds = []string{FlashSuccess, FlashError, FlashInfo}

// flashMaxAge bounds how long a flash or pending email survives.
const flashMaxAge = 15 * time.Minute

const pendingEmailKey = "pending_email"

// Flash is a one-shot notification carried across a redirect.
type Flash struct {
	Kind    string
	Message string
}

func (sm *SessionManager) flashName() string { return sm.name + "-flash" }

func (sm *SessionManager) flashSession(r *http.Request) *sessions.Session {
	sess, err := sm.store.Get(r, sm.flashName())
	if err != nil {
		sm.log.Debug("flash cookie invalid, starting fresh", zap.Error(err))
	}
	return sess
}

func (sm *SessionManager) saveFlash(w http.ResponseWriter, r *http.Request, sess *sessions.Session) {
	sess.Options = sm.cookieOptions()
	sess.Options.MaxAge = int(flashMaxAge.Seconds())
	if err := sess.Save(r, w); err != nil {
		sm.log.Warn("save flash cookie", zap.Error(err))
	}
}

// AddFlash queues a message for the next rendered page.
func (sm *SessionManager) AddFlash(w http.ResponseWriter, r *http.Request, kind, msg string) {
	sess := sm.flashSession(r)
	sess.AddFlash(msg, kind)
	sm.saveFlash(w, r, sess)
}

// TakeFlashes returns and clears queued messages. It only rewrites the
// cookie when there was something to take.
func (sm *SessionManager) TakeFlashes(w http.ResponseWriter, r *http.Request) []Flash {
	if _, err := r.Cookie(sm.flashName()); err != nil {
		return nil
	}
	sess := sm.flashSession(r)
	var out []Flash
	for _, kind := range flashKinds {
		for _, v := range sess.Flashes(kind) {
			if msg, ok := v.(string); ok {
				out = append(out, Flash{Kind: kind, Message: msg})
			}
		}
	}
	if len(out) > 0 {
		sm.saveFlash(w, r, sess)
	}
	return out
}

// SetPendingEmail remembers the address awaiting OTP verification.
func (sm *SessionManager) SetPendingEmail(w http.ResponseWriter, r *http.Request, email string) {
	sess := sm.flashSession(r)
	sess.Values[pendingEmailKey] = email
	sm.saveFlash(w, r, sess)
}

// PendingEmail returns the address awaiting verification, or "".
func (sm *SessionManager) PendingEmail(r *http.Request) string {
	if _, err := r.Cookie(sm.flashName()); err != nil {
		return ""
	}
	email, _ := sm.flashSession(r).Values[pendingEmailKey].(string)
	return email
}

// ClearPendingEmail forgets the pending address.
func (sm *SessionManager) ClearPendingEmail(w http.ResponseWriter, r *http.Request) {
	sess := sm.flashSession(r)
	if _, ok := sess.Values[pendingEmailKey]; !ok {
		return
	}
	delete(sess.Values, pendingEmailKey)
	sm.saveFlash(w, r, sess)
}
