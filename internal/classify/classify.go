// Package classify decides whether a client window is a game client and,
// if so, which character it shows.
package classify

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/1broseidon/peektile/internal/config"
)

type Kind int

const (
	NotTarget Kind = iota
	LoggedIn
	LoggedOut
)

func (k Kind) String() string {
	switch k {
	case LoggedIn:
		return "logged-in"
	case LoggedOut:
		return "logged-out"
	default:
		return "not-target"
	}
}

// Result is the classification of one window title. Name is empty unless
// Kind is LoggedIn.
type Result struct {
	Kind Kind
	Name string
}

func (r Result) IsTarget() bool {
	return r.Kind != NotTarget
}

type Classifier struct {
	rule     config.TargetRule
	selfPID  uint32
	readlink func(string) (string, error)
	logger   zerolog.Logger
}

func New(rule config.TargetRule, logger zerolog.Logger) *Classifier {
	return &Classifier{
		rule:     rule,
		selfPID:  uint32(os.Getpid()),
		readlink: os.Readlink,
		logger:   logger,
	}
}

// Title classifies a window title. "<prefix><name>" is a logged-in client,
// the bare logged-out title is a client at the login screen, anything else
// is ignored.
func (c *Classifier) Title(title string) Result {
	if name, ok := strings.CutPrefix(title, c.rule.TitlePrefix); ok {
		if name == "" {
			return Result{Kind: LoggedOut}
		}
		return Result{Kind: LoggedIn, Name: name}
	}
	if c.rule.LoggedOutTitle != "" && title == c.rule.LoggedOutTitle {
		return Result{Kind: LoggedOut}
	}
	return Result{Kind: NotTarget}
}

// ProcessAllowed reports whether the process owning a window may be a game
// client. Our own windows are rejected. When the PID is unknown or its
// executable cannot be read the window is allowed through.
func (c *Classifier) ProcessAllowed(pid uint32, hasPID bool) bool {
	if !hasPID {
		c.logger.Debug().Msg("_NET_WM_PID not set, assuming game process")
		return true
	}
	if pid == c.selfPID {
		return false
	}
	if len(c.rule.ProcessMarkers) == 0 {
		return true
	}

	exe, err := c.readlink(fmt.Sprintf("/proc/%d/exe", pid))
	if err != nil {
		c.logger.Debug().Err(err).Uint32("pid", pid).Msg("cannot read process executable, assuming game process")
		return true
	}
	for _, marker := range c.rule.ProcessMarkers {
		if marker != "" && strings.Contains(exe, marker) {
			return true
		}
	}
	return false
}

// DisplayName is the label drawn for r.
func DisplayName(r Result, loggedOutLabel string) string {
	if r.Kind == LoggedIn {
		return r.Name
	}
	return loggedOutLabel
}
