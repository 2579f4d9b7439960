// Package delivery hands an exported payload to its destination:
// a file on disk or the system clipboard.
package delivery

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/benoitkugler/contribgraph/svgexport"
)

// ErrClipboardUnsupported is returned when the clipboard can't
// hold the payload, for instance a pdf document, or when no
// clipboard tool is available.
var ErrClipboardUnsupported = errors.New("delivery: clipboard does not support this content")

// Sink receives a payload under a file name.
type Sink interface {
	Deliver(name string, p *svgexport.Payload) error
}

// Dir writes payloads as files in a directory, created if needed.
type Dir string

// Deliver writes the payload atomically: a partially written file
// is never left under name.
func (d Dir) Deliver(name string, p *svgexport.Payload) error {
	if p == nil {
		return errors.New("delivery: nil payload")
	}
	if name == "" || name != filepath.Base(name) {
		return fmt.Errorf("delivery: invalid file name %q", name)
	}
	dir := string(d)
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("delivery: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+name+".*")
	if err != nil {
		return fmt.Errorf("delivery: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(p.Data); err != nil {
		tmp.Close()
		return fmt.Errorf("delivery: writing %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("delivery: writing %s: %w", name, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("delivery: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(dir, name)); err != nil {
		return fmt.Errorf("delivery: %w", err)
	}
	return nil
}

// imageCommands copy a PNG image read on their standard input.
// They are the tools clipboard.WriteAll relies on for text.
var imageCommands = [][]string{
	{"wl-copy", "--type", "image/png"},
	{"xclip", "-selection", "clipboard", "-t", "image/png", "-i"},
}

// Clipboard copies payloads to the system clipboard: svg and json
// as text, png as an image. Images need wl-copy or xclip.
type Clipboard struct {
	write      func(string) error // defaults to clipboard.WriteAll
	writeImage func([]byte) error // defaults to writePNG
}

// Deliver ignores name.
func (c Clipboard) Deliver(_ string, p *svgexport.Payload) error {
	if p == nil {
		return errors.New("delivery: nil payload")
	}
	switch {
	case isText(p.ContentType):
		write := c.write
		if write == nil {
			if clipboard.Unsupported {
				return ErrClipboardUnsupported
			}
			write = clipboard.WriteAll
		}
		if err := write(string(p.Data)); err != nil {
			return fmt.Errorf("delivery: copying to clipboard: %w", err)
		}
	case p.ContentType == "image/png":
		write := c.writeImage
		if write == nil {
			write = writePNG
		}
		if err := write(p.Data); err != nil {
			if errors.Is(err, ErrClipboardUnsupported) {
				return err
			}
			return fmt.Errorf("delivery: copying image to clipboard: %w", err)
		}
	default:
		return fmt.Errorf("%w (%s)", ErrClipboardUnsupported, p.ContentType)
	}
	return nil
}

// writePNG runs the first available image command.
func writePNG(data []byte) error {
	for _, args := range imageCommands {
		path, err := exec.LookPath(args[0])
		if err != nil {
			continue
		}
		cmd := exec.Command(path, args[1:]...)
		cmd.Stdin = bytes.NewReader(data)
		if err := cmd.Run(); err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
		return nil
	}
	return fmt.Errorf("%w (image/png: wl-copy or xclip is required)", ErrClipboardUnsupported)
}

func isText(contentType string) bool {
	return strings.HasPrefix(contentType, "text/") ||
		contentType == "application/json" ||
		contentType == "image/svg+xml"
}
