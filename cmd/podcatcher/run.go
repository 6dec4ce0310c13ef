package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/TobiSchelling/podcatcher/internal/config"
	"github.com/TobiSchelling/podcatcher/internal/fetch"
	"github.com/TobiSchelling/podcatcher/internal/pipeline"
)

var runEvery time.Duration

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Check all active feeds and download new episodes",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		gate := newInterruptGate(cancel)
		stopSignals := handleSignals(gate, cancel)
		defer stopSignals()

		var progress io.Writer
		if isTerminal(os.Stderr) {
			progress = os.Stderr
		}
		client := fetch.NewClient(config.DownloadTimeout, cfg.InsecureTLS)
		pipe := pipeline.New(cfg, db, logger, pipeline.Deps{
			Downloader:  fetch.NewDownloader(client, cfg.UserAgent, progress),
			Interrupter: gate,
			OnInterrupt: promptHandler(os.Stdin, os.Stderr, gate),
		})

		lock := flock.New(cfg.LockPath())
		runOnce := func() error {
			ok, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquiring run lock: %w", err)
			}
			if !ok {
				return fmt.Errorf("another podcatcher run holds %s", cfg.LockPath())
			}
			defer func() { _ = lock.Unlock() }()

			result, err := pipe.Run(ctx)
			if result != nil && len(result.Feeds) > 0 {
				fmt.Print(renderTable(summaryColumns, summaryRows(result)))
				fmt.Println()
			}
			return err
		}

		every := cfg.Schedule
		if cmd.Flags().Changed("every") {
			every = runEvery
		}
		if every <= 0 {
			return runOnce()
		}

		logger.Info("running on a schedule", "every", every)
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			if err := runOnce(); err != nil {
				if errors.Is(err, pipeline.ErrAborted) || ctx.Err() != nil {
					return err
				}
				logger.Error("run failed", "err", err)
			}
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		}
	},
}

func init() {
	runCmd.Flags().DurationVar(&runEvery, "every", 0, "Repeat the run at this interval (overrides PODCASTER_SCHEDULE)")
}

// handleSignals forwards SIGINT to the gate and cancels on SIGTERM. The
// returned func stops delivery.
func handleSignals(gate *interruptGate, cancel context.CancelFunc) func() {
	sigs := make(chan os.Signal, 1)
	done := make(chan struct{})
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		for {
			select {
			case sig := <-sigs:
				if sig == os.Interrupt {
					gate.Interrupt()
				} else {
					cancel()
				}
			case <-done:
				return
			}
		}
	}()
	return func() {
		signal.Stop(sigs)
		close(done)
	}
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func summaryRows(result *pipeline.Result) [][]string {
	rows := make([][]string, 0, len(result.Feeds))
	for _, f := range result.Feeds {
		errText := ""
		if f.Err != nil {
			errText = f.Err.Error()
		}
		rows = append(rows, []string{
			f.FeedID,
			strconv.Itoa(f.Downloaded),
			strconv.Itoa(f.Faulty),
			strconv.Itoa(f.Seen),
			strconv.Itoa(f.TooOld),
			strconv.Itoa(f.NoEnclosure),
			errText,
		})
	}
	return rows
}
