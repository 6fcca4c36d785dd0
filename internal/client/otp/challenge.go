// Package otp implements the one-time-code step of the sign-in flow: a
// six-slot code buffer with focus tracking, a resend countdown and the
// submission state machine.
package otp

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/jobportal/internal/client/client"
	"github.com/dmitrijs2005/jobportal/internal/client/countdown"
	"github.com/dmitrijs2005/jobportal/internal/client/models"
)

const (
	CodeLength = 6
	DefaultTTL = 900 * time.Second
)

var (
	ErrNotDigit         = errors.New("only digits are allowed")
	ErrSlotOutOfRange   = errors.New("slot index out of range")
	ErrIncompleteCode   = errors.New("please enter all 6 digits")
	ErrInvalidCode      = errors.New("invalid verification code")
	ErrResendNotAllowed = errors.New("code can be resent once the timer expires")
	ErrNotEditable      = errors.New("code cannot be changed now")
)

type Phase int

const (
	PhaseEntering Phase = iota
	PhaseSubmitting
	PhaseVerified
)

func (p Phase) String() string {
	switch p {
	case PhaseEntering:
		return "entering"
	case PhaseSubmitting:
		return "submitting"
	case PhaseVerified:
		return "verified"
	default:
		return "unknown"
	}
}

// Challenge is one OTP verification attempt for an email address.
type Challenge struct {
	mu       sync.Mutex
	email    string
	slots    [CodeLength]string
	focus    int
	phase    Phase
	lastErr  string
	timer    *countdown.Timer
	verifier Verifier
	baseCtx  context.Context
}

// NewChallenge creates a challenge. A nil timer means a real 900 second
// countdown.
func NewChallenge(email string, v Verifier, timer *countdown.Timer) *Challenge {
	if timer == nil {
		timer = countdown.New(DefaultTTL)
	}
	return &Challenge{email: email, verifier: v, timer: timer}
}

// Start begins the resend countdown. It stops when ctx is done or on Close.
func (c *Challenge) Start(ctx context.Context) {
	c.mu.Lock()
	c.baseCtx = ctx
	c.mu.Unlock()
	c.timer.Start(ctx)
}

// Close stops the countdown. The challenge must not be used afterwards.
func (c *Challenge) Close() {
	c.timer.Cancel()
}

// Input puts a digit into slot i and moves focus to the next slot. When s
// holds more than one character the last one is used.
func (c *Challenge) Input(i int, s string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.editableLocked(i); err != nil {
		return err
	}
	if s == "" {
		return ErrNotDigit
	}
	d := s[len(s)-1:]
	if d[0] < '0' || d[0] > '9' {
		return ErrNotDigit
	}

	c.slots[i] = d
	c.focus = min(i+1, CodeLength-1)
	c.lastErr = ""
	return nil
}

// Backspace clears slot i; on an already empty slot it moves focus back.
func (c *Challenge) Backspace(i int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.editableLocked(i); err != nil {
		return err
	}
	if c.slots[i] != "" {
		c.slots[i] = ""
		return nil
	}
	c.focus = max(i-1, 0)
	return nil
}

// Paste fills every slot from a six-digit string.
func (c *Challenge) Paste(s string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.editableLocked(0); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if len(s) != CodeLength {
		return ErrIncompleteCode
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return ErrNotDigit
		}
	}
	for i := range c.slots {
		c.slots[i] = s[i : i+1]
	}
	c.focus = CodeLength - 1
	c.lastErr = ""
	return nil
}

func (c *Challenge) editableLocked(i int) error {
	if i < 0 || i >= CodeLength {
		return ErrSlotOutOfRange
	}
	if c.phase != PhaseEntering {
		return ErrNotEditable
	}
	return nil
}

// Submit sends the code for verification. The buffer is kept when the code is
// rejected so the user can correct it.
func (c *Challenge) Submit(ctx context.Context) (*models.AuthResult, error) {
	c.mu.Lock()
	if c.phase != PhaseEntering {
		c.mu.Unlock()
		return nil, ErrNotEditable
	}
	if !c.completeLocked() {
		c.lastErr = ErrIncompleteCode.Error()
		c.mu.Unlock()
		return nil, ErrIncompleteCode
	}
	code := strings.Join(c.slots[:], "")
	c.phase = PhaseSubmitting
	c.lastErr = ""
	c.mu.Unlock()

	res, err := c.verifier.Verify(ctx, c.email, code)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.phase = PhaseEntering
		c.lastErr = client.Message(err)
		return nil, err
	}
	c.phase = PhaseVerified
	c.timer.Cancel()
	return res, nil
}

// CanResend reports whether the countdown has run out.
func (c *Challenge) CanResend() bool {
	return c.timer.Expired()
}

// Resend requests a new code, then restarts the countdown and clears the
// buffer.
func (c *Challenge) Resend(ctx context.Context) error {
	c.mu.Lock()
	if c.phase != PhaseEntering {
		c.mu.Unlock()
		return ErrNotEditable
	}
	if !c.timer.Expired() {
		c.mu.Unlock()
		return ErrResendNotAllowed
	}
	c.mu.Unlock()

	if err := c.verifier.Resend(ctx, c.email); err != nil {
		c.mu.Lock()
		c.lastErr = client.Message(err)
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	c.slots = [CodeLength]string{}
	c.focus = 0
	c.lastErr = ""
	base := c.baseCtx
	c.mu.Unlock()

	c.timer.Reset()
	if base != nil {
		c.timer.Start(base)
	}
	return nil
}

func (c *Challenge) completeLocked() bool {
	for _, s := range c.slots {
		if s == "" {
			return false
		}
	}
	return true
}

// Complete reports whether all six slots hold a digit.
func (c *Challenge) Complete() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.completeLocked()
}

func (c *Challenge) CanSubmit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase == PhaseEntering && c.completeLocked()
}

func (c *Challenge) Code() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return strings.Join(c.slots[:], "")
}

func (c *Challenge) Slots() [CodeLength]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.slots
}

func (c *Challenge) Focus() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.focus
}

func (c *Challenge) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Err returns the message of the last failed action, or "".
func (c *Challenge) Err() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

func (c *Challenge) Email() string { return c.email }

// TimeLeft renders the remaining countdown as m:ss.
func (c *Challenge) TimeLeft() string {
	return c.timer.Format()
}

func (c *Challenge) Remaining() int {
	return c.timer.Remaining()
}
