package logging

import "log/slog"

// Common field names for consistent logging across components.
const (
	FieldService   = "service"
	FieldIP        = "ip"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldEventType = "event_type"
	FieldWebhookID = "webhook_id"
	FieldError     = "error"
)

// Service returns a slog attribute for the service name.
func Service(name string) slog.Attr {
	return slog.String(FieldService, name)
}

// IP returns a slog attribute for the source IP address.
func IP(ip string) slog.Attr {
	return slog.String(FieldIP, ip)
}

// Method returns a slog attribute for the HTTP method.
func Method(method string) slog.Attr {
	return slog.String(FieldMethod, method)
}

// Path returns a slog attribute for the HTTP path.
func Path(path string) slog.Attr {
	return slog.String(FieldPath, path)
}

// EventType returns a slog attribute for a webhook event type.
func EventType(t string) slog.Attr {
	return slog.String(FieldEventType, t)
}

// WebhookID returns a slog attribute for a webhook ID.
func WebhookID(id string) slog.Attr {
	return slog.String(FieldWebhookID, id)
}

// Error returns a slog attribute for an error.
func Error(err error) slog.Attr {
	return slog.String(FieldError, err.Error())
}
