package identity

import (
	"context"
)

// TemplateID names a notification template. The lifecycle only ever supplies
// an identifier and a data mapping; rendering and transport live behind the
// gateway.
type TemplateID string

const (
	// TemplateVerifyAccount carries "name" and "link" values.
	TemplateVerifyAccount TemplateID = "verify-account"
	// TemplateResetPassword carries a "link" value.
	TemplateResetPassword TemplateID = "reset-password"
	// TemplateOtpCode carries a "code" value, delivered over SMS.
	TemplateOtpCode TemplateID = "otp-code"
)

// NotificationGatewayFunc adapts a function into a NotificationGateway.
type NotificationGatewayFunc func(ctx context.Context, recipient string, template TemplateID, data map[string]any) error

// Send satisfies the NotificationGateway interface.
func (f NotificationGatewayFunc) Send(ctx context.Context, recipient string, template TemplateID, data map[string]any) error {
	if f == nil {
		return nil
	}
	return f(ctx, recipient, template, data)
}

// LogNotificationGateway writes notifications to the logger instead of
// delivering them. Useful in development and as the default wiring.
type LogNotificationGateway struct {
	logger Logger
}

// NewLogNotificationGateway will create a new LogNotificationGateway
func NewLogNotificationGateway(logger Logger) *LogNotificationGateway {
	if logger == nil {
		logger = defLogger{}
	}
	return &LogNotificationGateway{logger: logger}
}

func (g *LogNotificationGateway) Send(ctx context.Context, recipient string, template TemplateID, data map[string]any) error {
	g.logger.Info("notification dispatched to=%s template=%s data=%v", recipient, template, data)
	return nil
}

type noopGateway struct{}

func (noopGateway) Send(context.Context, string, TemplateID, map[string]any) error {
	return nil
}

func normalizeGateway(g NotificationGateway) NotificationGateway {
	if g == nil {
		return noopGateway{}
	}
	return g
}
