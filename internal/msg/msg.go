// Package msg defines messages shared across views.
package msg

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// ToastMsg displays a transient notification in the footer.
type ToastMsg struct {
	Message  string
	Duration time.Duration
	IsError  bool
}

// ToastExpiredMsg clears a toast after its duration elapses.
type ToastExpiredMsg struct{}

// ShowToast returns a command that displays a toast notification.
func ShowToast(message string, duration time.Duration) tea.Cmd {
	return func() tea.Msg {
		return ToastMsg{Message: message, Duration: duration}
	}
}

// ShowError returns a command that displays an error toast.
func ShowError(message string, duration time.Duration) tea.Cmd {
	return func() tea.Msg {
		return ToastMsg{Message: message, Duration: duration, IsError: true}
	}
}

// ExpireToast schedules the toast to clear after d.
func ExpireToast(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return ToastExpiredMsg{}
	})
}
