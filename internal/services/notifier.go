package services

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// NotificationKind classifies a user-facing notification
type NotificationKind string

const (
	NotifySuccess       NotificationKind = "success"
	NotifyFailure       NotificationKind = "failure"
	NotifyLoginRequired NotificationKind = "login_required"
	NotifyInfo          NotificationKind = "info"
)

// Notification is a transient message for the render layer
type Notification struct {
	Kind    NotificationKind `json:"kind"`
	Message string           `json:"message"`
	At      time.Time        `json:"at"`
}

// Notifier delivers notifications
type Notifier interface {
	Notify(n Notification)
}

func notify(n Notifier, kind NotificationKind, message string) {
	if n == nil {
		return
	}
	n.Notify(Notification{Kind: kind, Message: message, At: time.Now()})
}

// LogNotifier writes notifications to the log
type LogNotifier struct {
	log *logrus.Entry
}

func NewLogNotifier(logger *logrus.Logger) *LogNotifier {
	return &LogNotifier{log: logger.WithField("component", "notifier")}
}

func (l *LogNotifier) Notify(n Notification) {
	entry := l.log.WithField("kind", string(n.Kind))
	if n.Kind == NotifyFailure {
		entry.Warn(n.Message)
		return
	}
	entry.Info(n.Message)
}

// Inbox buffers notifications until the render layer drains them.
// When full, the oldest notification is dropped.
type Inbox struct {
	mu    sync.Mutex
	items []Notification
	limit int
}

func NewInbox(limit int) *Inbox {
	if limit <= 0 {
		limit = 50
	}
	return &Inbox{limit: limit}
}

func (i *Inbox) Notify(n Notification) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if len(i.items) == i.limit {
		i.items = i.items[1:]
	}
	i.items = append(i.items, n)
}

// Drain returns and removes every buffered notification
func (i *Inbox) Drain() []Notification {
	i.mu.Lock()
	defer i.mu.Unlock()
	items := i.items
	i.items = nil
	if items == nil {
		return []Notification{}
	}
	return items
}

// Len returns the number of buffered notifications
func (i *Inbox) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.items)
}

// MultiNotifier fans a notification out to several notifiers
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(n Notification) {
	for _, notifier := range m {
		notifier.Notify(n)
	}
}
