// Package host abstracts the embedding environment (the Telegram Mini
// App bridge in production). The engine only uses it for fire-and-
// forget side effects and never depends on a return value, so every
// method is infallible by contract.
package host

import "log/slog"

// HapticStyle selects the strength of an impact feedback event.
type HapticStyle string

const (
	HapticLight  HapticStyle = "light"
	HapticMedium HapticStyle = "medium"
	HapticHeavy  HapticStyle = "heavy"
)

// Bridge is the host-environment capability handed to the engine.
type Bridge interface {
	// InitData returns the opaque session identity string.
	InitData() string

	// HapticFeedback triggers impact feedback on the device.
	HapticFeedback(style HapticStyle)

	// ShowAlert surfaces a non-blocking message to the player.
	ShowAlert(message string)

	// Close asks the host to terminate the app, used on auth failures.
	Close()

	// EnableClosingConfirmation asks the host to confirm before the
	// player closes the app; enabled while unsynced state exists.
	EnableClosingConfirmation()

	// DisableClosingConfirmation removes the confirmation prompt.
	DisableClosingConfirmation()
}

// Nop is a Bridge that does nothing, for tests and headless runs that
// do not care about host side effects.
type Nop struct {
	Identity string
}

func (n Nop) InitData() string          { return n.Identity }
func (Nop) HapticFeedback(HapticStyle)  {}
func (Nop) ShowAlert(string)            {}
func (Nop) Close()                      {}
func (Nop) EnableClosingConfirmation()  {}
func (Nop) DisableClosingConfirmation() {}

// Logging is a Bridge that records every side effect to a logger; the
// simulator uses it so host interactions show up in the run output.
type Logging struct {
	Identity string
	Log      *slog.Logger
}

func (l Logging) InitData() string { return l.Identity }

func (l Logging) HapticFeedback(style HapticStyle) {
	l.Log.Debug("host haptic feedback", "style", string(style))
}

func (l Logging) ShowAlert(message string) {
	l.Log.Info("host alert", "message", message)
}

func (l Logging) Close() {
	l.Log.Warn("host close requested")
}

func (l Logging) EnableClosingConfirmation() {
	l.Log.Debug("closing confirmation enabled")
}

func (l Logging) DisableClosingConfirmation() {
	l.Log.Debug("closing confirmation disabled")
}
