package alert

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Command is a siren command issued by the console.
type Command string

const (
	// CommandOn activates the siren unless it is muted.
	CommandOn Command = "on"
	// CommandOff deactivates the siren.
	CommandOff Command = "off"
	// CommandMute silences the siren and deactivates it.
	CommandMute Command = "mute"
	// CommandUnmute lifts the mute without reactivating the siren.
	CommandUnmute Command = "unmute"
)

// Mode is the externally visible siren state derived from the active and muted flags.
type Mode string

const (
	// ModeOff means the siren is neither active nor muted.
	ModeOff Mode = "off"
	// ModeOn means the siren is active and not muted.
	ModeOn Mode = "on"
	// ModeMuted means the siren is muted, whatever the active flag says.
	ModeMuted Mode = "muted"
)

// ErrUnknownCommand is returned when a siren command is not recognized.
var ErrUnknownCommand = errors.New("unknown siren command")

// ParseCommand converts user input into a Command, ignoring case and surrounding spaces.
func ParseCommand(s string) (Command, error) {
	switch cmd := Command(strings.ToLower(strings.TrimSpace(s))); cmd {
	case CommandOn, CommandOff, CommandMute, CommandUnmute:
		return cmd, nil
	default:
		return "", fmt.Errorf("%q: %w", s, ErrUnknownCommand)
	}
}

// SirenState is the siren of one tenant.
// The zero value is the initial state: off, not muted, never updated.
type SirenState struct {
	// Active indicates whether the alarm should currently sound.
	Active bool
	// Muted suppresses Active without discarding alert history.
	Muted bool
	// LastUpdate is when the state was last changed; zero means never.
	LastUpdate time.Time
}

// Mode derives the siren mode from the flags.
func (s SirenState) Mode() Mode {
	switch {
	case s.Muted:
		return ModeMuted
	case s.Active:
		return ModeOn
	default:
		return ModeOff
	}
}

// Sounding reports whether audible output should be produced right now.
func (s SirenState) Sounding() bool {
	return s.Active && !s.Muted
}

// Apply runs a console command. The state is left untouched on error.
func (s *SirenState) Apply(cmd Command, now time.Time) error {
	switch cmd {
	case CommandOn:
		s.activate()
	case CommandOff:
		s.Active = false
	case CommandMute:
		s.Muted = true
		s.Active = false
	case CommandUnmute:
		s.Muted = false
	default:
		return fmt.Errorf("%q: %w", string(cmd), ErrUnknownCommand)
	}

	s.LastUpdate = now

	return nil
}

// AlertSubmitted reacts to a new alert the same way as the on command.
func (s *SirenState) AlertSubmitted(now time.Time) {
	s.activate()
	s.LastUpdate = now
}

// Deactivate turns the siren off after alerts were resolved or cleared.
func (s *SirenState) Deactivate(now time.Time) {
	s.Active = false
	s.LastUpdate = now
}

// Reset returns the siren to its initial state.
func (s *SirenState) Reset() {
	*s = SirenState{}
}

// activate sets Active unless the siren is muted.
func (s *SirenState) activate() {
	if !s.Muted {
		s.Active = true
	}
}
