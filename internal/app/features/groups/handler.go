// internal/app/features/groups/handler.go
package groups

import (
	"github.com/dalemusser/roomshare/internal/app/system/auditlog"
	"github.com/dalemusser/roomshare/internal/app/system/auth"
	"github.com/dalemusser/roomshare/internal/app/system/viewdata"
	"go.uber.org/zap"
)

// Handler is the shared dependency container for the groups feature:
// the member management page and group creation.
type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
	Render     viewdata.Render
}

func NewHandler(sessionMgr *auth.SessionManager, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		SessionMgr: sessionMgr,
		AuditLog:   audit,
		Render:     viewdata.Templates,
	}
}
