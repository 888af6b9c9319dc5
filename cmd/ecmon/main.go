// Command ecmon watches the matrix dumps a keyboard prints on its serial
// console, shows them live and suggests an actuation level from idle noise.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"ecdrivers/internal/config"
	"ecdrivers/internal/console"
	"ecdrivers/internal/logger"
	"ecdrivers/internal/monitor"
	"ecdrivers/internal/publish"
	"ecdrivers/internal/tuning"
)

const LOG_FILE_PATH = "ecmon.logs"

var (
	flagConfig   = flag.String("config", "", "Board profile (yaml), empty=built-in defaults")
	flagPort     = flag.String("port", "", "Serial port, overrides the profile")
	flagLog      = flag.String("log", LOG_FILE_PATH, "Log file, empty=stderr only")
	flagMQTT     = flag.String("mqtt", "", "MQTT broker, overrides the profile")
	flagList     = flag.Bool("list", false, "List serial ports and exit")
	flagHeadless = flag.Bool("headless", false, "Log snapshots instead of showing the monitor")
)

func main() {
	flag.Parse()

	// The monitor owns the terminal, so only warnings reach stderr.
	level := zapcore.WarnLevel
	if *flagHeadless {
		level = zapcore.InfoLevel
	}
	log, err := logger.NewLogger(*flagLog, level)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if *flagList {
		ports, err := console.ListPorts()
		if err != nil {
			log.Fatal("Unable to list serial ports", zap.Error(err))
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return
	}

	if err := run(log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("ecmon failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(log *zap.Logger) error {
	profile, err := config.Load(*flagConfig)
	if err != nil {
		return err
	}
	if *flagPort != "" {
		profile.Serial.Port = *flagPort
	}
	if *flagMQTT != "" {
		profile.MQTT.Broker = *flagMQTT
	}
	if profile.Serial.Port == "" {
		return errors.New("no serial port, use -port or set serial.port in the profile")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	port, err := console.Open(profile.Serial.Port, profile.Serial.Baud, log)
	if err != nil {
		return err
	}
	defer port.Close()

	var pub *publish.Publisher
	if profile.MQTT.Broker != "" {
		pub, err = publish.Dial(profile.MQTT, log)
		if err != nil {
			return err
		}
		defer pub.Close()
	}

	snapshots := make(chan console.Snapshot)
	go func() {
		defer close(snapshots)
		if err := port.Snapshots(ctx, snapshots); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("Console read failed", zap.Error(err))
		}
	}()

	view := make(chan console.Snapshot, 1)
	var published chan console.Snapshot
	if pub != nil {
		published = make(chan console.Snapshot, 16)
		go pub.Run(ctx, published)
	}
	go fanOut(ctx, snapshots, view, published, log)

	acc := tuning.NewAccumulator(profile.Tuning.Samples)
	if *flagHeadless {
		for s := range view {
			acc.Add(s.Raw)
			log.Info("Snapshot", zap.Uint16("scan_rate", s.ScanRate), zap.Int("rows", len(s.Raw)), zap.Int("cols", s.Cols()))
		}
	} else {
		opts := monitor.Options{Name: profile.Name, Actuation: profile.Actuation, Sigma: profile.Tuning.Sigma}
		if err := monitor.Run(ctx, opts, view, acc, log); err != nil {
			return err
		}
		cancel()
	}

	report(acc, profile.Tuning.Sigma, log)
	return ctx.Err()
}

// fanOut copies every snapshot to view and, without blocking, to published.
func fanOut(ctx context.Context, in <-chan console.Snapshot, view, published chan<- console.Snapshot, log *zap.Logger) {
	defer close(view)
	if published != nil {
		defer close(published)
	}
	for s := range in {
		if published != nil {
			select {
			case published <- s:
			default:
				log.Warn("Publisher behind, dropped snapshot")
			}
		}
		select {
		case view <- s:
		case <-ctx.Done():
			return
		}
	}
}

func report(acc *tuning.Accumulator, sigma float64, log *zap.Logger) {
	s, err := acc.Suggest(sigma)
	if err != nil {
		log.Warn("No actuation suggestion", zap.Int("frames", acc.Frames()), zap.Error(err))
		return
	}
	fmt.Printf("suggested actuation %d: store keycode %d at the calibration key\n", s.Level, s.Digit)
	log.Info("Suggested actuation",
		zap.Uint8("level", s.Level),
		zap.Uint8("keycode", s.Digit),
		zap.Int("frames", acc.Frames()),
		zap.Int("worst_row", s.Worst.Row),
		zap.Int("worst_col", s.Worst.Col),
		zap.Float64("worst_mean", s.Worst.Mean),
		zap.Float64("worst_stddev", s.Worst.StdDev),
	)
}
