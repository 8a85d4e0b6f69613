// Package browser opens URLs in the user's default web browser.
// It tries open-golang first and falls back to well-known per-OS commands.
package browser

import (
	"errors"
	"fmt"
	"net/url"
	"os/exec"
	"runtime"

	"github.com/sirupsen/logrus"
	"github.com/skratchdot/open-golang/open"
)

var (
	// ErrUnsupportedURL indicates a URL that is not absolute http(s)
	ErrUnsupportedURL = errors.New("only absolute http and https URLs can be opened")

	// ErrNoBrowser indicates no launcher command was found on this system
	ErrNoBrowser = errors.New("no suitable browser command found")
)

// linuxBrowsers lists launchers tried in order of preference
var linuxBrowsers = []string{"xdg-open", "x-www-browser", "www-browser", "firefox", "chromium", "google-chrome"}

// Launcher opens URLs. The zero value is not usable; call New.
type Launcher struct {
	logger   logrus.FieldLogger
	goos     string
	run      func(input string) error
	lookPath func(file string) (string, error)
	start    func(name string, args ...string) error
}

// New creates a Launcher for the running platform
func New(logger logrus.FieldLogger) *Launcher {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Launcher{
		logger:   logger,
		goos:     runtime.GOOS,
		run:      open.Run,
		lookPath: exec.LookPath,
		start: func(name string, args ...string) error {
			return exec.Command(name, args...).Start()
		},
	}
}

// Open launches the default browser at rawURL without waiting for it to exit
func (l *Launcher) Open(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrUnsupportedURL
	}

	err = l.run(rawURL)
	if err == nil {
		l.logger.Debug("opened URL using open-golang")
		return nil
	}
	l.logger.WithError(err).Debug("open-golang failed, trying platform-specific commands")

	return l.openPlatformSpecific(rawURL)
}

func (l *Launcher) openPlatformSpecific(rawURL string) error {
	name, args, err := l.command(rawURL)
	if err != nil {
		return err
	}

	l.logger.WithField("command", name).Debug("running browser command")
	if err := l.start(name, args...); err != nil {
		return fmt.Errorf("starting browser command %s: %w", name, err)
	}
	return nil
}

func (l *Launcher) command(rawURL string) (string, []string, error) {
	switch l.goos {
	case "darwin":
		return "open", []string{rawURL}, nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", rawURL}, nil
	case "linux", "freebsd", "openbsd", "netbsd":
		for _, b := range linuxBrowsers {
			if _, err := l.lookPath(b); err == nil {
				return b, []string{rawURL}, nil
			}
		}
		return "", nil, ErrNoBrowser
	default:
		return "", nil, fmt.Errorf("unsupported operating system %s: %w", l.goos, ErrNoBrowser)
	}
}
