/*
Serial console of the keyboard.

The firmware prints matrix dumps on its console UART. Port opens that UART
and turns the text stream back into snapshots.
*/
package console

import (
	"bufio"
	"context"
	"io"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"
)

const readTimeout = 200 * time.Millisecond

type Port struct {
	serial.Port

	name   string
	logger *zap.Logger
}

func Open(name string, baud int, logger *zap.Logger) (*Port, error) {
	port, err := serial.Open(name, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, err
	}
	if err := port.SetReadTimeout(readTimeout); err != nil {
		port.Close()
		return nil, err
	}
	logger.Info("Opened console", zap.String("port", name), zap.Int("baud", baud))

	return &Port{Port: port, name: name, logger: logger}, nil
}

// Snapshots streams decoded dumps into out until ctx ends or the port fails.
func (p *Port) Snapshots(ctx context.Context, out chan<- Snapshot) error {
	return Stream(ctx, &timeoutReader{ctx: ctx, r: p.Port}, NewDecoder(nil), out, p.logger)
}

func ListPorts() ([]string, error) {
	return serial.GetPortsList()
}

// timeoutReader turns the zero-length reads of an expired serial timeout into
// a chance to notice cancellation.
type timeoutReader struct {
	ctx context.Context
	r   io.Reader
}

func (t *timeoutReader) Read(p []byte) (int, error) {
	for {
		if err := t.ctx.Err(); err != nil {
			return 0, err
		}
		n, err := t.r.Read(p)
		if n > 0 || err != nil {
			return n, err
		}
	}
}

// Stream decodes lines from r and sends completed snapshots to out. It
// returns nil at end of input and ctx.Err() on cancellation.
func Stream(ctx context.Context, r io.Reader, dec *Decoder, out chan<- Snapshot, logger *zap.Logger) error {
	scanner := bufio.NewScanner(r)
	send := func(s Snapshot) error {
		select {
		case out <- s:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	for scanner.Scan() {
		s, ok := dec.Feed(scanner.Text())
		if err := dec.Err(); err != nil {
			logger.Warn("Dropped matrix frame", zap.Error(err))
		}
		if ok {
			if err := send(s); err != nil {
				return err
			}
		}
	}
	if s, ok := dec.Flush(); ok {
		if err := send(s); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}
