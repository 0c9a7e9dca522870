// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"encoding/hex"
	"net/http"
	"strconv"

	"github.com/dalemusser/roomshare/internal/app/store/audit"
	"github.com/dalemusser/roomshare/internal/app/system/ratelimit"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls logging for authentication events (login, logout, signup, OTP, password reset).
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Auth string
	// Group controls logging for group activity (group created, members, expenses).
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Group string
}

// Logger provides convenience methods for logging audit events.
// It logs to MongoDB (via audit.Store) and structured logs (via zap).
// A nil store means the audit database is not configured; "db" output is skipped.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	if zapLog == nil {
		zapLog = zap.NewNop()
	}
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

// Fingerprint identifies a bearer token in audit records without storing it.
// It is the first 16 hex characters of the token's BLAKE2b-256 digest.
func Fingerprint(token string) string {
	if token == "" {
		return ""
	}
	sum := blake2b.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])[:16]
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}

	if event.Email != "" {
		fields = append(fields, zap.String("email", event.Email))
	}
	if event.SessionFP != "" {
		fields = append(fields, zap.String("session_fp", event.SessionFP))
	}
	if event.GroupID != 0 {
		fields = append(fields, zap.Int64("group_id", event.GroupID))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// If the logger is nil, this is a no-op (allows tests to use nil audit logger).
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryGroup:
		setting = l.config.Group
	default:
		setting = "all"
	}

	if setting == "off" {
		return
	}

	if setting == "all" || setting == "log" {
		l.logToZap(event)
	}

	if (setting == "all" || setting == "db") && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

func authEvent(r *http.Request, eventType string, success bool) audit.Event {
	return audit.Event{
		Category:  audit.CategoryAuth,
		EventType: eventType,
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   success,
	}
}

func groupEvent(r *http.Request, eventType, token string, groupID int64) audit.Event {
	return audit.Event{
		Category:  audit.CategoryGroup,
		EventType: eventType,
		SessionFP: Fingerprint(token),
		GroupID:   groupID,
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
	}
}

// --- Authentication Events ---

// LoginSuccess logs a successful login.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, email, token string) {
	e := authEvent(r, audit.EventLoginSuccess, true)
	e.Email = email
	e.SessionFP = Fingerprint(token)
	l.Log(ctx, e)
}

// LoginFailed logs a rejected login. reason is the backend message or a fallback.
func (l *Logger) LoginFailed(ctx context.Context, r *http.Request, email, reason string) {
	e := authEvent(r, audit.EventLoginFailed, false)
	e.Email = email
	e.FailureReason = reason
	l.Log(ctx, e)
}

// LoginRateLimited logs a login attempt blocked before reaching the backend.
func (l *Logger) LoginRateLimited(ctx context.Context, r *http.Request, email string) {
	e := authEvent(r, audit.EventLoginRateLimited, false)
	e.Email = email
	e.FailureReason = "rate limited"
	l.Log(ctx, e)
}

// Logout logs an explicit logout.
func (l *Logger) Logout(ctx context.Context, r *http.Request, token string) {
	e := authEvent(r, audit.EventLogout, true)
	e.SessionFP = Fingerprint(token)
	l.Log(ctx, e)
}

// SessionRevoked logs a session ended by the server: a failed bootstrap or a
// 401/403 from the backend mid-session. cause is "unauthorized" or "unavailable".
func (l *Logger) SessionRevoked(ctx context.Context, r *http.Request, token, cause string) {
	e := authEvent(r, audit.EventSessionRevoked, false)
	e.SessionFP = Fingerprint(token)
	e.FailureReason = cause
	e.Details = map[string]string{"path": r.URL.Path}
	l.Log(ctx, e)
}

// SignupSubmitted logs a signup attempt.
func (l *Logger) SignupSubmitted(ctx context.Context, r *http.Request, email string, success bool, reason string) {
	e := authEvent(r, audit.EventSignupSubmitted, success)
	e.Email = email
	e.FailureReason = reason
	l.Log(ctx, e)
}

// OTPVerified logs a successful email verification.
func (l *Logger) OTPVerified(ctx context.Context, r *http.Request, email string) {
	e := authEvent(r, audit.EventOTPVerified, true)
	e.Email = email
	l.Log(ctx, e)
}

// OTPFailed logs a rejected verification code.
func (l *Logger) OTPFailed(ctx context.Context, r *http.Request, email, reason string) {
	e := authEvent(r, audit.EventOTPFailed, false)
	e.Email = email
	e.FailureReason = reason
	l.Log(ctx, e)
}

// PasswordResetRequested logs a forgot-password submission.
func (l *Logger) PasswordResetRequested(ctx context.Context, r *http.Request, email string) {
	e := authEvent(r, audit.EventPasswordResetRequested, true)
	e.Email = email
	l.Log(ctx, e)
}

// PasswordReset logs the outcome of a reset-password submission.
func (l *Logger) PasswordReset(ctx context.Context, r *http.Request, success bool, reason string) {
	e := authEvent(r, audit.EventPasswordReset, success)
	e.FailureReason = reason
	l.Log(ctx, e)
}

// --- Group Events ---

// GroupCreated logs a new group.
func (l *Logger) GroupCreated(ctx context.Context, r *http.Request, token string, groupID int64, groupName string) {
	e := groupEvent(r, audit.EventGroupCreated, token, groupID)
	e.Details = map[string]string{"group_name": groupName}
	l.Log(ctx, e)
}

// MemberAdded logs a member added by email.
func (l *Logger) MemberAdded(ctx context.Context, r *http.Request, token string, groupID int64, email string) {
	e := groupEvent(r, audit.EventMemberAdded, token, groupID)
	e.Email = email
	l.Log(ctx, e)
}

// MemberRemoved logs a member removal.
func (l *Logger) MemberRemoved(ctx context.Context, r *http.Request, token string, groupID, userID int64) {
	e := groupEvent(r, audit.EventMemberRemoved, token, groupID)
	e.Details = map[string]string{"user_id": strconv.FormatInt(userID, 10)}
	l.Log(ctx, e)
}

// ExpenseAdded logs a new expense.
func (l *Logger) ExpenseAdded(ctx context.Context, r *http.Request, token string, groupID int64, title string, amount float64, hasProof bool) {
	e := groupEvent(r, audit.EventExpenseAdded, token, groupID)
	e.Details = map[string]string{
		"title":     title,
		"amount":    strconv.FormatFloat(amount, 'f', 2, 64),
		"has_proof": strconv.FormatBool(hasProof),
	}
	l.Log(ctx, e)
}
