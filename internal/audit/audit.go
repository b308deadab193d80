package audit

import (
	"context"

	"github.com/amisra31/localpick-market-demo-sub001/pkg/log"
)

// Audit actions for the marketplace gateway.
const (
	ActionAuth          = "gateway.auth"
	ActionJoinChat      = "gateway.join_chat"
	ActionJoinDenied    = "gateway.join_denied"
	ActionLeaveChat     = "gateway.leave_chat"
	ActionSendMessage   = "gateway.send_message"
	ActionMessageRead   = "gateway.message_read"
	ActionDisconnect    = "gateway.disconnect"
	ActionOrderStatus   = "orders.status_change"
	ActionOrderCancel   = "orders.cancel"
	ActionOrderRejected = "orders.transition_rejected"
)

// Field constants for audit entries.
const (
	FieldAction = "action"
	FieldDetail = "detail"
)

// Log emits a structured audit log entry via the context logger.
func Log(ctx context.Context, action string, userID string, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUserID, userID).
		Msg(msg)
}

// LogWithDetail emits an audit log with extra detail field.
func LogWithDetail(ctx context.Context, action string, userID string, detail string, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUserID, userID).
		Str(FieldDetail, detail).
		Msg(msg)
}
