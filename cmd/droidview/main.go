package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jask/droidview/internal/config"
	"github.com/jask/droidview/internal/journal"
	"github.com/jask/droidview/internal/transport"
	"github.com/jask/droidview/internal/tui"
)

var rootCmd = &cobra.Command{
	Use:   "droidview",
	Short: "View and drive a remote Android device from the terminal",
	Long: `droidview polls the device service for screen frames and renders them in
the terminal. Clicks on the frame are sent to the device as taps; holding the
button sends a long tap. The floating panel holds text entry, key events,
refresh settings and automation queues.`,
	SilenceUsage: true,
	RunE:         runView,
}

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Open the viewer (default)",
	Args:  cobra.NoArgs,
	RunE:  runView,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("server", "", "device service base URL")
	pf.Duration("timeout", 0, "timeout for non-frame requests")
	pf.Duration("interval", 0, "frame refresh interval (clamped to 100ms..2s)")
	pf.String("fit", "", "frame fit: width or contain")
	pf.Bool("debug", false, "log every submitted action and its response")
	pf.String("log", "", "log file for the viewer")
	pf.Bool("journal", false, "record submitted actions in the journal")

	rootCmd.AddCommand(viewCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runView(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	// Once tea.LogToFile runs the log package writes to the file, so
	// failures are returned for cobra to print on stderr.
	if err := os.MkdirAll(filepath.Dir(cfg.Log.Path), 0o755); err != nil {
		return fmt.Errorf("mkdir log dir: %w", err)
	}
	logFile, err := tea.LogToFile(cfg.Log.Path, "droidview")
	if err != nil {
		return fmt.Errorf("log file: %w", err)
	}
	defer logFile.Close()
	logger := newLogger(logFile, cfg.Log.Debug)

	client, err := newClient(cfg, logger)
	if err != nil {
		return fmt.Errorf("client: %w", err)
	}

	opts := tui.Options{
		Config:  cfg,
		Service: client,
		Logger:  logger,
	}
	if cfg.Journal.Enabled {
		j, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			return fmt.Errorf("journal: %w", err)
		}
		defer j.Close()
		opts.Journal = j
	}
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	logger.Info("viewer starting", "server", client.BaseURL(), "interval", cfg.Frame.Interval, "config", cfg.File)
	app := tui.New(ctx, opts)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("viewer: %w", err)
	}
	logger.Info("viewer stopped")
	return nil
}

func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func newClient(cfg config.Config, logger *slog.Logger) (*transport.Client, error) {
	return transport.New(transport.Config{
		BaseURL: cfg.Server.URL,
		Timeout: cfg.Server.Timeout,
		Debug:   cfg.Log.Debug,
		Logger:  logger.With("component", "transport"),
	})
}

// session is what a one-shot subcommand works with.
type session struct {
	cfg     config.Config
	log     *slog.Logger
	client  *transport.Client
	journal *journal.Journal
}

func openSession(cmd *cobra.Command) (*session, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, err
	}
	logger := newLogger(os.Stderr, cfg.Log.Debug)
	client, err := newClient(cfg, logger)
	if err != nil {
		return nil, err
	}
	s := &session{cfg: cfg, log: logger, client: client}
	if cfg.Journal.Enabled {
		if s.journal, err = journal.Open(cfg.Journal.Path); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *session) Close() {
	if s.journal != nil {
		_ = s.journal.Close()
	}
}

// submit sends a and records it in the journal when one is open.
func (s *session) submit(ctx context.Context, a transport.Action) ([]byte, error) {
	start := time.Now()
	reply, err := s.client.Submit(ctx, a)
	latency := time.Since(start)
	if err != nil {
		s.log.Error("submit failed", "action", a.String(), "kind", transport.KindOf(err).String(), "error", err)
	} else {
		s.log.Debug("submitted", "action", a.String(), "latency", latency)
	}
	if s.journal != nil {
		e := journalEntry(a, err, latency)
		if _, jerr := s.journal.Record(ctx, e); jerr != nil {
			s.log.Warn("journal write failed", "error", jerr)
		}
	}
	return reply, err
}
