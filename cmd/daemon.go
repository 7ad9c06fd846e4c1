package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ocha-dataviz/ghotrack/internal/cli"
	"github.com/ocha-dataviz/ghotrack/internal/daemon"
	"github.com/ocha-dataviz/ghotrack/internal/store"
)

var (
	flagDaemonAddr     string
	flagDaemonInterval time.Duration
	flagDaemonPIDFile  string
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run scheduled updates and serve the CSVs over HTTP",
	RunE:  runDaemon,
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon process and API status",
	RunE:  runDaemonStatus,
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running daemon",
	RunE:  runDaemonStop,
}

func init() {
	defaultPID := filepath.Join(store.Dir(), "ghotrackd.pid")

	daemonCmd.PersistentFlags().StringVar(&flagDaemonAddr, "addr", "", "HTTP listen address (default from config)")
	daemonCmd.PersistentFlags().DurationVar(&flagDaemonInterval, "interval", 0, "Update interval (default from config)")
	daemonCmd.PersistentFlags().StringVar(&flagDaemonPIDFile, "pid-file", defaultPID, "PID file path")

	daemonCmd.AddCommand(daemonStatusCmd)
	daemonCmd.AddCommand(daemonStopCmd)
	rootCmd.AddCommand(daemonCmd)
}

func runDaemon(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	addr := cfg.Daemon.Addr
	if flagDaemonAddr != "" {
		addr = flagDaemonAddr
	}
	interval := time.Duration(cfg.Daemon.IntervalHours) * time.Hour
	if flagDaemonInterval > 0 {
		interval = flagDaemonInterval
	}

	if err := ensureDaemonNotRunning(flagDaemonPIDFile); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(flagDaemonPIDFile), 0o750); err != nil {
		return fmt.Errorf("create daemon directory: %w", err)
	}
	if err := writePID(flagDaemonPIDFile, os.Getpid()); err != nil {
		return err
	}
	defer func() { _ = os.Remove(flagDaemonPIDFile) }()

	var runLog *store.Store
	if !flagNoStore {
		runLog, err = store.Open(store.Path())
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: run log unavailable: %v\n", err)
		} else {
			defer runLog.Close()
		}
	}

	svc := daemon.New(daemon.Config{
		Addr:     addr,
		Interval: interval,
		Job:      newJob(cfg, false),
		Store:    runLog,
	})

	fmt.Printf("  ghotrack daemon listening on http://%s\n", addr)
	fmt.Printf("  Updating GHO %d data every %s into %s\n", cfg.General.Year, interval, cfg.General.OutputDir)
	fmt.Printf("  Stop with: ghotrack daemon stop --pid-file %s\n", flagDaemonPIDFile)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runDaemonStatus(_ *cobra.Command, _ []string) error {
	pid, err := readPID(flagDaemonPIDFile)
	if err != nil {
		fmt.Println("  Daemon: not running (pid file not found)")
		return nil
	}
	if !processAlive(pid) {
		fmt.Printf("  Daemon: stale pid file (pid %d not alive)\n", pid)
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	addr := cfg.Daemon.Addr
	if flagDaemonAddr != "" {
		addr = flagDaemonAddr
	}

	fmt.Printf("  Daemon PID: %d\n", pid)
	fmt.Printf("  Address: http://%s\n", addr)

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://" + addr + "/v1/status")
	if err != nil {
		fmt.Printf("  API status: unreachable (%v)\n", err)
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		fmt.Printf("  API status: HTTP %d\n", resp.StatusCode)
		return nil
	}

	var st daemon.Status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		fmt.Printf("  API status: malformed response (%v)\n", err)
		return nil
	}

	if st.LastRunAt.IsZero() {
		fmt.Println("  Last run: pending")
	} else {
		fmt.Printf("  Last run: %s\n", st.LastRunAt.Local().Format(time.RFC3339))
	}
	fmt.Printf("  Next run: %s\n", st.NextRunAt.Local().Format(time.RFC3339))
	fmt.Printf("  Run count: %d\n", st.RunCount)
	if st.LastSummary != nil {
		fmt.Printf("  Plans: %d (%d unmatched)\n", st.LastSummary.PlanCount, st.LastSummary.Unmatched)
		fmt.Printf("  Coverage: %s\n", cli.FormatPercent(st.LastSummary.CoveragePct))
	}
	if st.LastError != "" {
		fmt.Printf("  Last error: %s\n", st.LastError)
	}
	return nil
}

func runDaemonStop(_ *cobra.Command, _ []string) error {
	pid, err := readPID(flagDaemonPIDFile)
	if err != nil {
		return errors.New("daemon is not running")
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("find daemon process: %w", err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("signal daemon process: %w", err)
	}

	deadline := time.Now().Add(8 * time.Second)
	for time.Now().Before(deadline) {
		if !processAlive(pid) {
			_ = os.Remove(flagDaemonPIDFile)
			fmt.Printf("  Stopped daemon (pid %d)\n", pid)
			return nil
		}
		time.Sleep(150 * time.Millisecond)
	}

	return fmt.Errorf("daemon (pid %d) did not exit in time", pid)
}

func ensureDaemonNotRunning(pidFile string) error {
	pid, err := readPID(pidFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if processAlive(pid) {
		return fmt.Errorf("daemon already running (pid %d)", pid)
	}
	_ = os.Remove(pidFile)
	return nil
}

func writePID(path string, pid int) error {
	return os.WriteFile(path, []byte(strconv.Itoa(pid)+"\n"), 0o600)
}

func readPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid pid in %s", path)
	}
	return pid, nil
}

func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}
