package notifysvc

import (
	"sync"
	"time"

	"github.com/trezcool/aula/core"
)

const defaultHistorySize = 50

// Entry is a delivered notification.
type Entry struct {
	core.Notification
	At time.Time `json:"at"`
}

// History keeps the most recent notifications, newest last.
type History struct {
	mu      sync.Mutex
	size    int
	entries []Entry
}

func NewHistory(size int) *History {
	if size <= 0 {
		size = defaultHistorySize
	}
	return &History{size: size, entries: make([]Entry, 0, size)}
}

func (h *History) add(e Entry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.entries) == h.size {
		copy(h.entries, h.entries[1:])
		h.entries = h.entries[:h.size-1]
	}
	h.entries = append(h.entries, e)
}

// Recent returns up to n entries, newest first. n <= 0 returns all of them.
func (h *History) Recent(n int) []Entry {
	h.mu.Lock()
	defer h.mu.Unlock()
	if n <= 0 || n > len(h.entries) {
		n = len(h.entries)
	}
	out := make([]Entry, 0, n)
	for i := len(h.entries) - 1; i >= len(h.entries)-n; i-- {
		out = append(out, h.entries[i])
	}
	return out
}

// logNotifier delivers notifications to the logger and keeps them in a History.
type logNotifier struct {
	logger  core.Logger
	history *History
	nowFunc func() time.Time
}

var _ core.Notifier = (*logNotifier)(nil)

func NewLogNotifier(logger core.Logger, history *History) core.Notifier {
	return &logNotifier{logger: logger, history: history, nowFunc: time.Now}
}

func (n *logNotifier) Notify(ntf core.Notification) {
	if ntf.IsZero() {
		return
	}
	extra := map[string]interface{}{"description": ntf.Description, "severity": ntf.Severity}
	if ntf.Severity == core.SeverityError {
		n.logger.Warn(ntf.Title, extra)
	} else {
		n.logger.Info(ntf.Title, extra)
	}
	if n.history != nil {
		n.history.add(Entry{Notification: ntf, At: n.nowFunc().UTC()})
	}
}
