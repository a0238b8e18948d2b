package core

// Logger is any service that can log messages.
// args may contain errors, maps of extra data and the user.User performing the action.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// Notification severities
const (
	SeveritySuccess = "success"
	SeverityInfo    = "info"
	SeverityError   = "error"
)

// Notification is a dismissible message shown to the user after an action.
type Notification struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
}

func (n Notification) IsZero() bool { return n == Notification{} }

// Notifier is a fire-and-forget sink for user notifications.
type Notifier interface {
	Notify(n Notification)
}
