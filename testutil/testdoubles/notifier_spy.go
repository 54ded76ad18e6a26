package testdoubles

import (
	"sync"

	"github.com/AntonStoeckl/booklending/catalog"
)

// Notification is one captured Notify call.
type Notification struct {
	Message string
	IsError bool
}

// NotifierSpy captures notifications.
type NotifierSpy struct {
	notifications []Notification
	mu            sync.Mutex
}

// NewNotifierSpy creates an empty NotifierSpy.
func NewNotifierSpy() *NotifierSpy {
	return &NotifierSpy{}
}

// Notify implements catalog.Notifier.
func (s *NotifierSpy) Notify(message string, isError bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notifications = append(s.notifications, Notification{Message: message, IsError: isError})
}

// Notifications returns a copy of all captured notifications in call order.
func (s *NotifierSpy) Notifications() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]Notification(nil), s.notifications...)
}

// Last returns the most recent notification and whether there was one.
func (s *NotifierSpy) Last() (Notification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.notifications) == 0 {
		return Notification{}, false
	}

	return s.notifications[len(s.notifications)-1], true
}

// Count returns the number of captured notifications.
func (s *NotifierSpy) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.notifications)
}

// Ensure NotifierSpy implements catalog.Notifier.
var _ catalog.Notifier = (*NotifierSpy)(nil)
