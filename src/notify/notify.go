// Package notify carries operator-facing notices (info, warning, error,
// success) and keeps a short history for late subscribers.
package notify

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	logger "github.com/sirupsen/logrus"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
	LevelSuccess Level = "success"
)

type Notice struct {
	ID      string    `json:"id"`
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Notifier fans notices out to listeners and remembers the last few.
type Notifier struct {
	mu        sync.Mutex
	size      int
	history   []Notice
	listeners map[int]func(Notice)
	nextID    int
	now       func() time.Time
}

// New returns a Notifier keeping up to size notices. A size below 1 keeps one.
func New(size int) *Notifier {
	if size < 1 {
		size = 1
	}
	return &Notifier{
		size:      size,
		listeners: make(map[int]func(Notice)),
		now:       time.Now,
	}
}

func NewFromConfig() *Notifier {
	return New(GetConfig().History)
}

func (n *Notifier) Info(format string, args ...any)    { n.Notify(LevelInfo, fmt.Sprintf(format, args...)) }
func (n *Notifier) Warning(format string, args ...any) { n.Notify(LevelWarning, fmt.Sprintf(format, args...)) }
func (n *Notifier) Error(format string, args ...any)   { n.Notify(LevelError, fmt.Sprintf(format, args...)) }
func (n *Notifier) Success(format string, args ...any) { n.Notify(LevelSuccess, fmt.Sprintf(format, args...)) }

// Notify records a notice and delivers it to every listener. Listeners run
// outside the lock in no particular order.
func (n *Notifier) Notify(level Level, message string) Notice {
	notice := Notice{ID: uuid.NewString(), Level: level, Message: message, At: n.now()}

	entry := logger.WithFields(logger.Fields{"level_notice": string(level), "notice_id": notice.ID})
	switch level {
	case LevelError:
		entry.Error(message)
	case LevelWarning:
		entry.Warn(message)
	default:
		entry.Info(message)
	}

	n.mu.Lock()
	n.history = append(n.history, notice)
	if len(n.history) > n.size {
		n.history = append([]Notice(nil), n.history[len(n.history)-n.size:]...)
	}
	listeners := make([]func(Notice), 0, len(n.listeners))
	for _, fn := range n.listeners {
		listeners = append(listeners, fn)
	}
	n.mu.Unlock()

	for _, fn := range listeners {
		fn(notice)
	}
	return notice
}

// Recent returns the remembered notices, oldest first.
func (n *Notifier) Recent() []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notice(nil), n.history...)
}

// Listen registers fn for future notices. The returned func removes it.
func (n *Notifier) Listen(fn func(Notice)) func() {
	n.mu.Lock()
	id := n.nextID
	n.nextID++
	n.listeners[id] = fn
	n.mu.Unlock()

	return func() {
		n.mu.Lock()
		delete(n.listeners, id)
		n.mu.Unlock()
	}
}
