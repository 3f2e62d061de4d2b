// Package notify sends desktop notifications through the platform's
// notification command.
package notify

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strconv"

	"github.com/cli/safeexec"
)

var ErrUnsupported = errors.New("desktop notifications are not supported on this platform")

type Notifier interface {
	Notify(ctx context.Context, title, body string) error
}

// Desktop shells out to notify-send on Linux and osascript on macOS.
type Desktop struct {
	GOOS     string
	LookPath func(string) (string, error)
	Run      func(ctx context.Context, name string, args ...string) error
}

func NewDesktop() *Desktop {
	return &Desktop{
		GOOS:     runtime.GOOS,
		LookPath: safeexec.LookPath,
		Run:      run,
	}
}

func run(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, out)
	}
	return nil
}

// Command returns the program and arguments that display a notification.
func (d *Desktop) Command(title, body string) (string, []string, error) {
	switch d.GOOS {
	case "linux", "freebsd", "openbsd", "netbsd":
		return "notify-send", []string{title, body}, nil
	case "darwin":
		script := fmt.Sprintf("display notification %s with title %s", strconv.Quote(body), strconv.Quote(title))
		return "osascript", []string{"-e", script}, nil
	default:
		return "", nil, fmt.Errorf("%w: %s", ErrUnsupported, d.GOOS)
	}
}

func (d *Desktop) Notify(ctx context.Context, title, body string) error {
	name, args, err := d.Command(title, body)
	if err != nil {
		return err
	}
	path, err := d.LookPath(name)
	if err != nil {
		return fmt.Errorf("%w: %s not found: %v", ErrUnsupported, name, err)
	}
	return d.Run(ctx, path, args...)
}
