// Package serialport reads newline-delimited payloads from a LoRa module
// attached to a serial port.
package serialport

import (
	"bufio"
	"context"
	"io"
	"strings"

	serial "go.bug.st/serial"
)

// Open opens device at the given baud rate.
func Open(device string, baud int) (serial.Port, error) {
	return serial.Open(device, &serial.Mode{BaudRate: baud})
}

// LineReader yields trimmed, non-empty lines from r.
type LineReader struct {
	r       io.Reader
	scanner *bufio.Scanner
}

// NewLineReader wraps r.
func NewLineReader(r io.Reader) *LineReader {
	return &LineReader{r: r, scanner: bufio.NewScanner(r)}
}

// Next returns the next non-empty line, or io.EOF once r is exhausted.
func (l *LineReader) Next() (string, error) {
	for l.scanner.Scan() {
		line := strings.TrimSpace(l.scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		return line, nil
	}
	if err := l.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

// Each calls fn for every line until r ends, ctx is cancelled or fn
// returns an error. When r is an io.Closer it is closed on cancellation so
// a blocked read returns.
func (l *LineReader) Each(ctx context.Context, fn func(line string) error) error {
	if c, ok := l.r.(io.Closer); ok {
		stop := context.AfterFunc(ctx, func() { _ = c.Close() })
		defer stop()
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := l.Next()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(line); err != nil {
			return err
		}
	}
}
