// Package device links a physical timer controller over a serial line.
//
// The controller sends one command per line:
//
//	TOGGLE
//	SKIP
//	RESET
//	MODE <work|shortBreak|longBreak>
//
// and receives "STATE <mode> <remaining> <active 0|1> <cycles>" after every
// timer event.
package device

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"go.bug.st/serial"

	"github.com/dori/zenith/internal/config"
	"github.com/dori/zenith/internal/logger"
	"github.com/dori/zenith/internal/timer"
)

// Status is the link state shown in the UI
type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
)

// Label is the capitalized status
func (s Status) Label() string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}

// ErrBusy is returned by Connect while a link is open or opening
var ErrBusy = errors.New("device already connected")

// Dialer opens the serial link
type Dialer func(ctx context.Context) (io.ReadWriteCloser, error)

const defaultBaud = 9600

// openPort is replaced in tests
var openPort = func(name string, mode *serial.Mode) (io.ReadWriteCloser, error) {
	return serial.Open(name, mode)
}

// serialMode is 8N1 at the configured baud rate
func serialMode(baud int) *serial.Mode {
	if baud <= 0 {
		baud = defaultBaud
	}
	return &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
}

// SerialDialer opens the configured serial port in raw mode
func SerialDialer(cfg config.DeviceConfig) Dialer {
	return func(ctx context.Context) (io.ReadWriteCloser, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		port, err := openPort(cfg.Port, serialMode(cfg.Baud))
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", cfg.Port, err)
		}
		return port, nil
	}
}

// Timer is the part of timer.Runner the controller drives
type Timer interface {
	Toggle() bool
	Skip() timer.Transition
	Reset()
	SwitchMode(mode timer.Mode)
	Snapshot() timer.Snapshot
	Subscribe(buffer int) <-chan timer.Event
	Unsubscribe(ch <-chan timer.Event)
}

type link struct {
	conn    io.ReadWriteCloser
	writeMu sync.Mutex
	done    chan struct{}
}

func (l *link) writeLine(s string) error {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	_, err := io.WriteString(l.conn, s+"\n")
	return err
}

// Controller bridges a serial link and the timer
type Controller struct {
	mu     sync.Mutex
	status Status
	link   *link
	dial   Dialer
	timer  Timer
	log    *logger.Logger
}

// NewController returns a disconnected controller
func NewController(dial Dialer, t Timer, log *logger.Logger) *Controller {
	if log == nil {
		log = logger.Nop()
	}
	return &Controller{
		status: StatusDisconnected,
		dial:   dial,
		timer:  t,
		log:    log.WithComponent("device"),
	}
}

// Status returns the link state
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Connect opens the link and starts relaying commands and state
func (c *Controller) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.status != StatusDisconnected {
		c.mu.Unlock()
		return ErrBusy
	}
	c.status = StatusConnecting
	c.mu.Unlock()

	conn, err := c.dial(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.status = StatusDisconnected
		c.log.Warnw("Device connection failed", "error", err.Error())
		return fmt.Errorf("failed to connect device: %w", err)
	}

	l := &link{conn: conn, done: make(chan struct{})}
	c.link = l
	c.status = StatusConnected
	c.log.Infow("Device connected")

	events := c.timer.Subscribe(16)
	go c.readLoop(l)
	go c.writeLoop(l, events)
	return nil
}

// Disconnect closes the link if one is open
func (c *Controller) Disconnect() {
	c.mu.Lock()
	l := c.link
	c.mu.Unlock()
	if l != nil {
		c.drop(l)
	}
}

// ToggleConnection connects when disconnected and disconnects otherwise
func (c *Controller) ToggleConnection(ctx context.Context) error {
	if c.Status() == StatusDisconnected {
		return c.Connect(ctx)
	}
	c.Disconnect()
	return nil
}

func (c *Controller) drop(l *link) {
	c.mu.Lock()
	if c.link != l {
		c.mu.Unlock()
		return
	}
	c.link = nil
	c.status = StatusDisconnected
	close(l.done)
	c.mu.Unlock()

	if err := l.conn.Close(); err != nil {
		c.log.Debugw("Closing device link", "error", err.Error())
	}
	c.log.Infow("Device disconnected")
}

func (c *Controller) readLoop(l *link) {
	scanner := bufio.NewScanner(l.conn)
	for scanner.Scan() {
		if err := c.HandleLine(scanner.Text()); err != nil {
			c.log.Debugw("Rejected device command", "line", scanner.Text(), "error", err.Error())
			if werr := l.writeLine("ERR " + err.Error()); werr != nil {
				break
			}
		}
	}
	c.drop(l)
}

func (c *Controller) writeLoop(l *link, events <-chan timer.Event) {
	defer c.timer.Unsubscribe(events)

	if err := l.writeLine(FormatState(c.timer.Snapshot().State)); err != nil {
		c.drop(l)
		return
	}
	for {
		select {
		case <-l.done:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := l.writeLine(FormatState(ev.Snapshot.State)); err != nil {
				c.drop(l)
				return
			}
		}
	}
}

// HandleLine applies one controller command to the timer
func (c *Controller) HandleLine(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	switch strings.ToUpper(fields[0]) {
	case "TOGGLE":
		c.timer.Toggle()
	case "SKIP":
		c.timer.Skip()
	case "RESET":
		c.timer.Reset()
	case "MODE":
		if len(fields) != 2 {
			return fmt.Errorf("usage: MODE <work|shortBreak|longBreak>")
		}
		mode, err := timer.ParseMode(fields[1])
		if err != nil {
			return err
		}
		c.timer.SwitchMode(mode)
	default:
		return fmt.Errorf("unknown command %q", fields[0])
	}
	return nil
}

// FormatState renders the line sent to the controller
func FormatState(s timer.State) string {
	active := 0
	if s.Active {
		active = 1
	}
	return fmt.Sprintf("STATE %s %d %d %d", s.Mode, s.RemainingSeconds, active, s.CompletedWorkCycles)
}
