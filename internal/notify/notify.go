package notify

import (
	"context"
	"sync"
	"time"

	"github.com/ClareAI/astra-voice-admin/pkg/logger"
	"go.uber.org/zap"
)

// Level is the kind of notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notification is one transient user-facing message.
type Notification struct {
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Notifier surfaces transient messages to the operator.
type Notifier interface {
	Success(ctx context.Context, msg string)
	Error(ctx context.Context, msg string)
}

// LogNotifier writes notifications to the log.
type LogNotifier struct{}

func (LogNotifier) Success(ctx context.Context, msg string) {
	logger.Info(ctx, msg, zap.String("notification", string(LevelSuccess)))
}

func (LogNotifier) Error(ctx context.Context, msg string) {
	logger.Warn(ctx, msg, zap.String("notification", string(LevelError)))
}

// Recorder keeps the most recent notifications until they are drained and
// forwards each one to an optional next notifier.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
	limit int
	next  Notifier
	now   func() time.Time
	subs  map[chan Notification]struct{}
}

// NewRecorder keeps at most limit pending notifications (oldest dropped first).
func NewRecorder(limit int, next Notifier) *Recorder {
	if limit <= 0 {
		limit = 50
	}
	return &Recorder{limit: limit, next: next, now: time.Now}
}

func (r *Recorder) Success(ctx context.Context, msg string) {
	r.add(Notification{Level: LevelSuccess, Message: msg})
	if r.next != nil {
		r.next.Success(ctx, msg)
	}
}

func (r *Recorder) Error(ctx context.Context, msg string) {
	r.add(Notification{Level: LevelError, Message: msg})
	if r.next != nil {
		r.next.Error(ctx, msg)
	}
}

func (r *Recorder) add(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n.At = r.now()
	r.items = append(r.items, n)
	if over := len(r.items) - r.limit; over > 0 {
		r.items = append([]Notification(nil), r.items[over:]...)
	}
	for ch := range r.subs {
		select {
		case ch <- n:
		default:
			// full buffer, drop
		}
	}
}

// Subscribe returns a channel receiving every notification recorded from now
// on, and a function that ends the subscription and closes the channel.
func (r *Recorder) Subscribe(buffer int) (<-chan Notification, func()) {
	ch := make(chan Notification, buffer)
	r.mu.Lock()
	if r.subs == nil {
		r.subs = make(map[chan Notification]struct{})
	}
	r.subs[ch] = struct{}{}
	r.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.subs, ch)
			r.mu.Unlock()
			close(ch)
		})
	}
}

// Drain returns pending notifications and forgets them.
func (r *Recorder) Drain() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.items
	r.items = nil
	return out
}

// Last returns the most recent notification, if any.
func (r *Recorder) Last() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.items) == 0 {
		return Notification{}, false
	}
	return r.items[len(r.items)-1], true
}
