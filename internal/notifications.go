package internal

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// NotificationKind is the severity of a banner
type NotificationKind string

const (
	NotificationSuccess NotificationKind = "success"
	NotificationInfo    NotificationKind = "info"
	NotificationWarning NotificationKind = "warning"
	NotificationError   NotificationKind = "error"
)

// Notification is a single banner
type Notification struct {
	ID        string           `json:"id"`
	Kind      NotificationKind `json:"kind"`
	Message   string           `json:"message"`
	CreatedAt time.Time        `json:"createdAt"`
}

// Notifier shows and retires banners
type Notifier interface {
	Add(kind NotificationKind, message string) string
	Remove(id string)
}

// NotificationManager keeps the active banners in memory
type NotificationManager struct {
	mu       sync.Mutex
	items    []Notification
	onChange func([]Notification)
	now      func() time.Time
}

// NewNotificationManager creates an empty manager
func NewNotificationManager() *NotificationManager {
	return &NotificationManager{now: time.Now}
}

// OnChange registers a callback invoked with the active banners after every change
func (m *NotificationManager) OnChange(fn func([]Notification)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = fn
}

// Add shows a banner and returns its id
func (m *NotificationManager) Add(kind NotificationKind, message string) string {
	n := Notification{
		ID:        uuid.NewString(),
		Kind:      kind,
		Message:   message,
		CreatedAt: m.now(),
	}

	m.mu.Lock()
	m.items = append(m.items, n)
	active, notify := m.activeLocked(), m.onChange
	m.mu.Unlock()

	if notify != nil {
		notify(active)
	}
	return n.ID
}

// Remove retires a banner; unknown ids are ignored
func (m *NotificationManager) Remove(id string) {
	m.mu.Lock()
	removed := false
	for i, n := range m.items {
		if n.ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			removed = true
			break
		}
	}
	active, notify := m.activeLocked(), m.onChange
	m.mu.Unlock()

	if removed && notify != nil {
		notify(active)
	}
}

// Active returns the banners currently shown, oldest first
func (m *NotificationManager) Active() []Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeLocked()
}

func (m *NotificationManager) activeLocked() []Notification {
	return append([]Notification(nil), m.items...)
}

// Flash shows a banner and retires it after ttl. A non-positive ttl leaves it up.
func Flash(n Notifier, kind NotificationKind, message string, ttl time.Duration) string {
	id := n.Add(kind, message)
	if ttl > 0 {
		time.AfterFunc(ttl, func() { n.Remove(id) })
	}
	return id
}
