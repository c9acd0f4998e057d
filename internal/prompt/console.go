// Package prompt is the interactive terminal operator: it prints the per-file
// report, reads answers from stdin and opens previews in the system viewer.
package prompt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/skratchdot/open-golang/open"

	"exif-fixer/internal/models"
	"exif-fixer/internal/reconcile"
	"exif-fixer/internal/services"
	"exif-fixer/internal/utils"
)

// Previewer renders a viewable copy of an image and returns its path.
type Previewer interface {
	RenderPreview(ctx context.Context, filePath string) (string, error)
}

// Console implements services.Operator over a line-oriented terminal.
type Console struct {
	in      io.Reader
	out     io.Writer
	preview Previewer
	launch  func(path string) error // opens a file in the desktop viewer

	once    sync.Once
	lines   chan string
	scanErr error
}

func NewConsole(in io.Reader, out io.Writer, preview Previewer) *Console {
	return &Console{
		in:      in,
		out:     out,
		preview: preview,
		launch:  open.Start,
		lines:   make(chan string),
	}
}

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	promptColor = color.New(color.FgYellow)
	warnColor   = color.New(color.FgRed)
	okColor     = color.New(color.FgGreen)
)

// Begin prints the per-file header.
func (c *Console) Begin(h services.FileHeader) {
	headerColor.Fprintf(c.out, "%d/%d\n", h.Index, h.Total)
	fmt.Fprintf(c.out, "File: %s\n", filepath.Base(h.Path))
	fmt.Fprintf(c.out, "Path: %s\n", h.Path)
	fmt.Fprintf(c.out, "Modified: %s (%s)\n", utils.FormatExifTime(h.ModTime), utils.ReadableTime(h.ModTime))
}

// Done prints the completion message.
func (c *Console) Done(stats models.RunStats) {
	okColor.Fprintf(c.out, "\nFinished all files (written: %d, skipped: %d, unchanged: %d).\n\n",
		stats.Auto+stats.Manual, stats.Skipped, stats.Unchanged)
}

// Notify prints an informational message.
func (c *Console) Notify(e reconcile.Event) {
	switch e.Kind {
	case reconcile.EventNoCaptureTime:
		fmt.Fprintln(c.out, "This file has no capture time.")
		fmt.Fprintln(c.out, "The following Exif will be added based on the modified time.")
		fmt.Fprintln(c.out)
		c.printFields(e, "\t")
	case reconcile.EventHasCaptureTime:
		fmt.Fprintln(c.out, "This file already has a capture time.")
		fmt.Fprintln(c.out)
		c.printFields(e, "")
	case reconcile.EventInvalidInput:
		warnColor.Fprintln(c.out, "Invalid input.")
	case reconcile.EventCancelled:
		fmt.Fprintln(c.out, "\nCancelled.")
	case reconcile.EventSaved:
		okColor.Fprintln(c.out, "Saved.")
	case reconcile.EventSkipped:
		fmt.Fprintln(c.out, "\nSkipped.")
	case reconcile.EventModTimeSynced:
		fmt.Fprintln(c.out, "Modified time set from the Exif capture time.")
	case reconcile.EventViewerFailed:
		warnColor.Fprintf(c.out, "Could not open the image: %v\n", e.Err)
	case reconcile.EventNoFiles:
		warnColor.Fprintln(c.out, "\nNo image files found.")
	case reconcile.EventInterrupted:
		warnColor.Fprintln(c.out, "\n\nInterrupted by user.")
	}
}

func (c *Console) printFields(e reconcile.Event, indent string) {
	for _, f := range e.Fields {
		value := f.Value
		if t, err := utils.ParseExifTime(f.Value); err == nil {
			value += " (" + utils.ReadableTime(t) + ")"
		}
		fmt.Fprintf(c.out, "%s%s: %s\n", indent, f.Name, value)
	}
}

// Ask prints the question and blocks for one line of input.
func (c *Console) Ask(ctx context.Context, q reconcile.Question) (string, error) {
	switch q.Kind {
	case reconcile.QuestionAcceptDefault:
		promptColor.Fprint(c.out, "\nApply this? \"v\" shows the image (y/n/v) > ")
	case reconcile.QuestionManualEntry:
		promptColor.Fprint(c.out, "\nEnter a capture time manually? \"v\" shows the image (y/n/v) > ")
	case reconcile.QuestionTimestamp:
		promptColor.Fprintf(c.out, "\nEnter the capture time as in the example. \"c\" cancels. (e.g. %s) > ", q.Example)
	}

	line, err := c.readLine(ctx)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// ShowImage renders a preview and hands it to the desktop viewer.
func (c *Console) ShowImage(ctx context.Context, path string) error {
	preview, err := c.preview.RenderPreview(ctx, path)
	if err != nil {
		return err
	}
	return c.launch(preview)
}

// readLine waits for the next input line or for ctx to end. Input is read on
// a single background goroutine so a blocked read never outlives a cancel
// from the caller's point of view.
func (c *Console) readLine(ctx context.Context) (string, error) {
	c.once.Do(func() { go c.scan() })

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-c.lines:
		if !ok {
			if c.scanErr != nil {
				return "", c.scanErr
			}
			return "", io.EOF
		}
		return line, nil
	}
}

func (c *Console) scan() {
	s := bufio.NewScanner(c.in)
	for s.Scan() {
		c.lines <- s.Text()
	}
	c.scanErr = s.Err()
	close(c.lines)
}
