package notify

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/dori/zenith/internal/logger"
	"github.com/dori/zenith/internal/timer"
)

// Urgency levels for notifications
type Urgency int

const (
	UrgencyLow Urgency = iota
	UrgencyNormal
	UrgencyCritical
)

// Notification represents a desktop notification
type Notification struct {
	Title   string
	Body    string
	Urgency Urgency
	Timeout time.Duration
	Icon    string // Optional icon name
}

// Notifier handles sending desktop notifications
type Notifier struct {
	enabled bool
	goos    string
	run     func(name string, args ...string) error
	log     *logger.Logger
}

// NewNotifier creates a notifier for the current platform
func NewNotifier(enabled bool, log *logger.Logger) *Notifier {
	if log == nil {
		log = logger.Nop()
	}
	return &Notifier{
		enabled: enabled,
		goos:    runtime.GOOS,
		run: func(name string, args ...string) error {
			return exec.Command(name, args...).Run()
		},
		log: log.WithComponent("notify"),
	}
}

// SetEnabled enables or disables notifications
func (n *Notifier) SetEnabled(enabled bool) {
	n.enabled = enabled
}

// IsEnabled returns whether notifications are enabled
func (n *Notifier) IsEnabled() bool {
	return n.enabled
}

// command builds the platform notification command. ok is false on
// platforms without one.
func (n *Notifier) command(notification Notification) (name string, args []string, ok bool) {
	switch n.goos {
	case "darwin":
		script := fmt.Sprintf("display notification %s with title %s",
			appleQuote(notification.Body), appleQuote(notification.Title))
		return "osascript", []string{"-e", script}, true
	case "linux", "freebsd", "openbsd", "netbsd":
	default:
		return "", nil, false
	}

	switch notification.Urgency {
	case UrgencyLow:
		args = append(args, "-u", "low")
	case UrgencyCritical:
		args = append(args, "-u", "critical")
	default:
		args = append(args, "-u", "normal")
	}

	// milliseconds
	if notification.Timeout > 0 {
		args = append(args, "-t", strconv.Itoa(int(notification.Timeout.Milliseconds())))
	}

	if notification.Icon != "" {
		args = append(args, "-i", notification.Icon)
	}

	args = append(args, "-a", "zenith")

	args = append(args, notification.Title)
	if notification.Body != "" {
		args = append(args, notification.Body)
	}
	return "notify-send", args, true
}

func appleQuote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

// Send delivers a desktop notification. Platforms without a notifier are a
// silent no-op.
func (n *Notifier) Send(notification Notification) error {
	if !n.enabled {
		return nil
	}
	name, args, ok := n.command(notification)
	if !ok {
		return nil
	}
	return n.run(name, args...)
}

// SendSimple sends a simple notification with title and body
func (n *Notifier) SendSimple(title, body string) error {
	return n.Send(Notification{
		Title:   title,
		Body:    body,
		Urgency: UrgencyNormal,
		Timeout: 5 * time.Second,
	})
}

// SendTransition announces an expired or skipped session
func (n *Notifier) SendTransition(t timer.Transition) error {
	msg := t.Notification()
	icon := "alarm-symbolic"
	if t.Skipped {
		icon = "media-skip-forward-symbolic"
	}
	return n.Send(Notification{
		Title:   msg.Title,
		Body:    msg.Body,
		Urgency: UrgencyNormal,
		Timeout: 10 * time.Second,
		Icon:    icon,
	})
}

// Forward sends a notification for every expired or skipped event until
// events closes or ctx is done. Failures are logged, never returned.
func (n *Notifier) Forward(ctx context.Context, events <-chan timer.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Transition == nil || (ev.Type != timer.EventExpired && ev.Type != timer.EventSkipped) {
				continue
			}
			if err := n.SendTransition(*ev.Transition); err != nil {
				n.log.Debugw("Desktop notification failed", "error", err.Error())
			}
		}
	}
}
