package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/jask/droidview/internal/config"
	"github.com/jask/droidview/internal/journal"
	"github.com/jask/droidview/internal/keycode"
	"github.com/jask/droidview/internal/transport"
)

const sourceCLI = "cli"

var tapCmd = &cobra.Command{
	Use:   "tap X Y",
	Short: "Tap the device screen at X,Y (device pixels)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		xy, err := parseInts(args)
		if err != nil {
			return err
		}
		return submitAction(cmd, transport.Tap(xy[0], xy[1]))
	},
}

var longTapCmd = &cobra.Command{
	Use:   "longtap X Y",
	Short: "Press and hold at X,Y",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		xy, err := parseInts(args)
		if err != nil {
			return err
		}
		d, _ := cmd.Flags().GetDuration("duration")
		return submitAction(cmd, transport.LongTap(xy[0], xy[1], d))
	},
}

var swipeCmd = &cobra.Command{
	Use:   "swipe X1 Y1 X2 Y2",
	Short: "Swipe from X1,Y1 to X2,Y2",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := parseInts(args)
		if err != nil {
			return err
		}
		d, _ := cmd.Flags().GetDuration("duration")
		return submitAction(cmd, transport.Swipe(p[0], p[1], p[2], p[3], d))
	},
}

var textCmd = &cobra.Command{
	Use:   "text TEXT...",
	Short: "Type text on the device (ASCII only)",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := transport.ASCII(strings.Join(args, " "))
		if text == "" {
			return errors.New("nothing to send after dropping non-ASCII characters")
		}
		return submitAction(cmd, transport.Text(text))
	},
}

var keyCmd = &cobra.Command{
	Use:   "key NAME",
	Short: "Send a key event, e.g. HOME, BACK, VOLUME_UP or KEYCODE_ENTER",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		k, err := keycode.Lookup(args[0])
		if err != nil {
			return err
		}
		long, _ := cmd.Flags().GetBool("long")
		return submitAction(cmd, transport.KeyEvent(k.Code, long))
	},
}

var keysCmd = &cobra.Command{
	Use:   "keys [FILTER]",
	Short: "List key names accepted by the key command",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		keys := keycode.All()
		if len(args) == 1 {
			keys = keycode.Filter(args[0])
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		for _, k := range keys {
			fmt.Fprintf(w, "%s\t%s\n", k.Name, k.Code)
		}
		return w.Flush()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the device service status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()
		st, err := s.client.Status(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d fps\t%s\n", st.Status, st.Data.FPS, s.client.BaseURL())
		return nil
	},
}

var queuesCmd = &cobra.Command{
	Use:   "queues",
	Short: "List automation queues",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()
		qs, err := s.client.Queues(cmd.Context())
		if err != nil {
			return err
		}
		for _, q := range qs {
			fmt.Fprintln(cmd.OutOrStdout(), q)
		}
		return nil
	},
}

var runCmd = &cobra.Command{
	Use:   "run QUEUE",
	Short: "Run an automation queue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, _ := cmd.Flags().GetInt("iterations")
		if n < 1 || n > 1000 {
			return fmt.Errorf("iterations must be between 1 and 1000, got %d", n)
		}
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()
		reply, err := s.client.RunQueue(cmd.Context(), args[0], n)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(reply))
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently submitted actions from the journal",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(cmd.Flags())
		if err != nil {
			return err
		}
		j, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			return err
		}
		defer j.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		entries, err := j.List(cmd.Context(), limit)
		if err != nil {
			return err
		}
		printHistory(cmd, entries)
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as TOML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(cmd.Flags())
		if err != nil {
			return err
		}
		if cfg.File != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "# read from %s\n", cfg.File)
		}
		return toml.NewEncoder(cmd.OutOrStdout()).Encode(cfg.Settings())
	},
}

func init() {
	longTapCmd.Flags().Duration("duration", time.Second, "how long to hold")
	swipeCmd.Flags().Duration("duration", 300*time.Millisecond, "swipe duration")
	keyCmd.Flags().Bool("long", false, "long press the key")
	runCmd.Flags().IntP("iterations", "n", 1, "iterations (1-1000)")
	historyCmd.Flags().IntP("limit", "n", 20, "rows to show, 0 for all")

	rootCmd.AddCommand(tapCmd, longTapCmd, swipeCmd, textCmd, keyCmd, keysCmd,
		statusCmd, queuesCmd, runCmd, historyCmd, configCmd)
}

func submitAction(cmd *cobra.Command, a transport.Action) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()
	reply, err := s.submit(cmd.Context(), a)
	if err != nil {
		return err
	}
	if len(reply) > 0 {
		fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(string(reply)))
	}
	return nil
}

func parseInts(args []string) ([]int, error) {
	out := make([]int, len(args))
	for i, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("%q is not a whole number", a)
		}
		if n < 0 {
			return nil, fmt.Errorf("coordinate %d is negative", n)
		}
		out[i] = n
	}
	return out, nil
}

func journalEntry(a transport.Action, err error, latency time.Duration) journal.Entry {
	payload, _ := json.Marshal(a)
	e := journal.Entry{
		Source:  sourceCLI,
		Kind:    string(a.Kind),
		Payload: string(payload),
		Latency: latency,
	}
	if err != nil {
		e.Err = err.Error()
	}
	return e
}

func printHistory(cmd *cobra.Command, entries []journal.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no actions recorded")
		return
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tSOURCE\tKIND\tLATENCY\tRESULT\tPAYLOAD")
	for _, e := range entries {
		result := "ok"
		if !e.OK() {
			result = e.Err
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%dms\t%s\t%s\n",
			e.At.Local().Format("2006-01-02 15:04:05"), e.Source, e.Kind,
			e.Latency.Milliseconds(), result, e.Payload)
	}
	_ = w.Flush()
}
