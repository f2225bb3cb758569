package watch

import "github.com/gen2brain/beeep"

// Notifier delivers a watch alert.
type Notifier interface {
	Notify(title, message string) error
}

// DesktopNotifier shows alerts as desktop notifications.
type DesktopNotifier struct{}

func (DesktopNotifier) Notify(title, message string) error {
	return beeep.Notify(title, message, "")
}

// NopNotifier drops every alert.
type NopNotifier struct{}

func (NopNotifier) Notify(string, string) error { return nil }
