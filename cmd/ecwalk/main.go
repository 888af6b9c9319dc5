// Command ecwalk walks the row and column selector of a bench rig wired to a
// Raspberry Pi, holding every key position for a while so the wiring can be
// checked with a probe.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"ecdrivers/ecmatrix"
	"ecdrivers/internal/config"
	"ecdrivers/internal/logger"
)

var (
	flagConfig = flag.String("config", "", "Board profile (yaml) with a bench section")
	flagDwell  = flag.Duration("dwell", 0, "Time held on every key, overrides the profile")
	flagLoop   = flag.Bool("loop", false, "Walk until interrupted")
)

func main() {
	flag.Parse()

	log, err := logger.NewLogger("", zapcore.InfoLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if err := run(log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("ecwalk failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(log *zap.Logger) error {
	profile, err := config.Load(*flagConfig)
	if err != nil {
		return err
	}
	if *flagDwell != 0 {
		profile.Bench.Dwell = *flagDwell
	}

	if _, err := host.Init(); err != nil {
		return err
	}
	sel, err := newSelector(profile.Bench)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	w := walker{sel: sel, cols: profile.Cols, dwell: profile.Bench.Dwell, log: log}
	for {
		if err := w.walk(ctx); err != nil {
			return err
		}
		if !*flagLoop {
			return nil
		}
	}
}

// newSelector resolves the bench line names through the periph registry.
func newSelector(b config.Bench) (*ecmatrix.Selector, error) {
	if len(b.Rows) == 0 {
		return nil, errors.New("bench: no row lines")
	}
	rows := make([]ecmatrix.Line, len(b.Rows))
	for i, name := range b.Rows {
		l, err := line(name)
		if err != nil {
			return nil, err
		}
		rows[i] = l
	}

	var mux ecmatrix.Mux
	for _, m := range []struct {
		dst  *ecmatrix.Line
		name string
	}{
		{&mux.S0, b.Mux.S0},
		{&mux.S1, b.Mux.S1},
		{&mux.S2, b.Mux.S2},
		{&mux.EN1, b.Mux.EN1},
		{&mux.EN2, b.Mux.EN2},
	} {
		l, err := line(m.name)
		if err != nil {
			return nil, err
		}
		*m.dst = l
	}

	discharge, err := line(b.Discharge)
	if err != nil {
		return nil, err
	}
	return ecmatrix.NewSelector(rows, mux, discharge), nil
}

func line(name string) (ecmatrix.Line, error) {
	if name == "" {
		return nil, errors.New("bench: unnamed line")
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("bench: no gpio named %q", name)
	}
	return p, nil
}

type walker struct {
	sel   *ecmatrix.Selector
	cols  uint8
	dwell time.Duration
	log   *zap.Logger
	sleep func(context.Context, time.Duration) error
}

// walk selects every key position once, row by row. The lines are parked
// in their idle state when it returns. A line that fails to switch stops
// the walk before the key is reported as held.
func (w walker) walk(ctx context.Context) error {
	sleep := w.sleep
	if sleep == nil {
		sleep = sleepCtx
	}
	w.sel.Configure(ecmatrix.SelectorConfig{Settle: ecmatrix.DefaultUnselectSettle})
	defer w.sel.Configure(ecmatrix.SelectorConfig{})
	if err := w.sel.Err(); err != nil {
		return fmt.Errorf("park lines: %w", err)
	}

	for row := 0; row < w.sel.Rows(); row++ {
		w.sel.UnselectRows()
		w.sel.SelectRow(uint8(row))
		for col := uint8(0); col < w.cols; col++ {
			w.sel.SelectColumn(col)
			w.sel.ChargeReady()
			if err := w.sel.Err(); err != nil {
				return fmt.Errorf("key %d/%d: %w", row, col, err)
			}
			w.log.Info("Holding key", zap.Int("row", row), zap.Uint8("col", col))
			if err := sleep(ctx, w.dwell); err != nil {
				return err
			}
			w.sel.Discharge()
		}
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
