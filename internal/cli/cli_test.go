package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http/httptest"
	"net/netip"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sdejongh/devsync/pkg/config"
	"github.com/sdejongh/devsync/pkg/history"
	"github.com/sdejongh/devsync/pkg/link"
	"github.com/sdejongh/devsync/pkg/merge"
	"github.com/sdejongh/devsync/pkg/models"
	"github.com/sdejongh/devsync/pkg/netaddr"
	"github.com/sdejongh/devsync/pkg/session"
)

func resetFlags() {
	globalFlags = GlobalFlags{}
	syncFlags = SyncFlags{}
	serveFlags = ServeFlags{}
}

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	t.Cleanup(resetFlags)

	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeTestConfig(t *testing.T, dataDir string) string {
	t.Helper()
	cfg := config.Default()
	cfg.DataDir = dataDir
	cfg.History.Enabled = false
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := config.SaveToFile(cfg, path); err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}
	return path
}

// ============== Helper Tests ==============

func TestParseBandwidth(t *testing.T) {
	tests := []struct {
		input   string
		want    int64
		wantErr bool
	}{
		{"", 0, false},
		{"0", 0, false},
		{"1024", 1024, false},
		{"1K", 1000, false},
		{"10MB", 10000000, false},
		{"1 MiB", 1 << 20, false},
		{"fast", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseBandwidth(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseBandwidth(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseBandwidth(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestApplyFlagsToConfig(t *testing.T) {
	resetFlags()
	defer resetFlags()

	syncFlags.Timeout = 5 * time.Second
	syncFlags.Bandwidth = "2M"
	syncFlags.OnTimeout = "ignore"
	syncFlags.Skip = []string{"scratch/"}
	syncFlags.NoHistory = true
	syncFlags.LogLevel = "debug"
	globalFlags.Quiet = true

	cfg := config.Default()
	if err := applyFlagsToConfig(cfg); err != nil {
		t.Fatalf("applyFlagsToConfig() error = %v", err)
	}

	if cfg.Device.Timeout != 5*time.Second {
		t.Errorf("Device.Timeout = %v, want 5s", cfg.Device.Timeout)
	}
	if cfg.Device.BandwidthLimit != 2000000 {
		t.Errorf("BandwidthLimit = %d, want 2000000", cfg.Device.BandwidthLimit)
	}
	if cfg.Sync.OnTimeout != "ignore" {
		t.Errorf("OnTimeout = %q, want ignore", cfg.Sync.OnTimeout)
	}
	if got := cfg.Sync.Skip; len(got) != 3 || got[2] != "scratch/" {
		t.Errorf("Skip = %v, want defaults plus scratch/", got)
	}
	if cfg.History.Enabled {
		t.Error("History should be disabled")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if !cfg.Output.Quiet || cfg.Output.Progress {
		t.Error("quiet mode should disable progress")
	}

	syncFlags.Bandwidth = "lots"
	if err := applyFlagsToConfig(config.Default()); err == nil {
		t.Error("invalid bandwidth should be rejected")
	}
}

func TestApplyFlagsToConfig_ZeroMaxRetries(t *testing.T) {
	resetFlags()
	t.Cleanup(resetFlags)

	cmd := NewSyncCommand()
	if err := cmd.ParseFlags([]string{"--max-retries", "0"}); err != nil {
		t.Fatalf("ParseFlags() error = %v", err)
	}
	markExplicitFlags(cmd)

	cfg := config.Default()
	cfg.Sync.MaxRetries = 3
	if err := applyFlagsToConfig(cfg); err != nil {
		t.Fatalf("applyFlagsToConfig() error = %v", err)
	}
	if cfg.Sync.MaxRetries != 0 {
		t.Errorf("MaxRetries = %d, want 0 from the flag", cfg.Sync.MaxRetries)
	}

	// Without the flag the configured value stays
	resetFlags()
	cmd = NewSyncCommand()
	cmd.ParseFlags(nil)
	markExplicitFlags(cmd)

	cfg = config.Default()
	cfg.Sync.MaxRetries = 3
	applyFlagsToConfig(cfg)
	if cfg.Sync.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want configured 3", cfg.Sync.MaxRetries)
	}
}

// ============== Prompt Tests ==============

func TestPromptRetry(t *testing.T) {
	in := strings.NewReader("maybe\nr\nI\n")
	var out bytes.Buffer
	prompt := promptRetry(in, &out, false)

	te := &link.TransferError{Category: models.CategoryTimeout, Op: "put", Err: context.DeadlineExceeded}

	if d := prompt(context.Background(), te, "Book/ch03.wav"); d != merge.Retry {
		t.Errorf("first answer = %v, want retry", d)
	}
	if d := prompt(context.Background(), te, "Book/ch03.wav"); d != merge.Ignore {
		t.Errorf("second answer = %v, want ignore", d)
	}
	// End of input aborts
	if d := prompt(context.Background(), te, "Book/ch04.wav"); d != merge.Abort {
		t.Errorf("answer at EOF = %v, want abort", d)
	}

	text := out.String()
	if !strings.Contains(text, models.CategoryTimeout.Message()) {
		t.Error("prompt should show the timeout message")
	}
	if !strings.Contains(text, "Attempting to copy Book/ch03.wav") {
		t.Error("prompt should name the file")
	}
}

func TestRetryPolicy(t *testing.T) {
	ctx := context.Background()

	ask, _ := retryPolicy("ask", 0, false, nil, nil)
	if d := ask(ctx, nil, "a"); d != merge.Abort {
		t.Errorf("non-interactive ask = %v, want abort", d)
	}

	retry, _ := retryPolicy("retry", 1, false, nil, nil)
	if d := retry(ctx, nil, "a"); d != merge.Retry {
		t.Errorf("retry first = %v, want retry", d)
	}
	if d := retry(ctx, nil, "a"); d != merge.Abort {
		t.Errorf("retry after max = %v, want abort", d)
	}

	ignore, _ := retryPolicy("ignore", 0, false, nil, nil)
	if d := ignore(ctx, nil, "a"); d != merge.Ignore {
		t.Errorf("ignore = %v, want ignore", d)
	}

	if _, err := retryPolicy("later", 0, false, nil, nil); err == nil {
		t.Error("unknown policy should fail")
	}
}

// ============== Output Tests ==============

func TestWritePlan(t *testing.T) {
	plan := &merge.Plan{
		Items: []merge.Item{
			{Path: "1/ch01.wav", Direction: models.DirectionUpload, Size: 2048, Reason: "file exists only locally"},
			{Path: "2/ch02.wav", Direction: models.DirectionDownload, Size: 1000, Reason: "device is newer"},
			{Path: "x.tmp", Direction: models.DirectionUpload, Skipped: true},
		},
		Unchanged: 4,
	}

	var buf bytes.Buffer
	writePlan(&buf, "Book", "http://device:5914", plan)
	out := buf.String()

	for _, want := range []string{
		"upload   1/ch01.wav (2.0 kB",
		"download 2/ch02.wav (1.0 kB",
		"skip     x.tmp",
		"2 to transfer (3.0 kB), 1 skipped, 4 unchanged",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteHistory(t *testing.T) {
	var buf bytes.Buffer
	writeHistory(&buf, nil)
	if !strings.Contains(buf.String(), "No sessions recorded") {
		t.Errorf("empty history output = %q", buf.String())
	}

	buf.Reset()
	writeHistory(&buf, []history.Entry{
		{Project: "Book", StartTime: time.Now().Add(-time.Hour), State: "failed", Category: "connect"},
	})
	out := buf.String()
	if !strings.Contains(out, "Book") || !strings.Contains(out, "connect") || !strings.Contains(out, "hour ago") {
		t.Errorf("history output = %q", out)
	}
}

// ============== Command Tests ==============

func TestCompareCommand(t *testing.T) {
	dataDir := t.TempDir()
	deviceRoot := t.TempDir()
	ctx := context.Background()

	local := link.NewLocalLink(dataDir, nil)
	device := link.NewLocalLink(deviceRoot, nil)
	when := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	local.PutFile(ctx, "Book/1/ch01.wav", []byte("one"), when)
	device.PutFile(ctx, "Book/2/ch02.wav", []byte("two"), when)

	ts := httptest.NewServer(link.NewServer(device, nil))
	defer ts.Close()

	out, err := executeCommand(t, "--config", writeTestConfig(t, dataDir), "compare", "-p", "Book", "-d", ts.URL)
	if err != nil {
		t.Fatalf("compare error = %v\n%s", err, out)
	}

	if !strings.Contains(out, "upload   1/ch01.wav") || !strings.Contains(out, "download 2/ch02.wav") {
		t.Errorf("output = %q", out)
	}

	// Nothing was transferred
	if _, err := device.GetFile(ctx, "Book/1/ch01.wav"); !errors.Is(err, link.ErrNotFound) {
		t.Errorf("compare must not upload, GetFile() error = %v", err)
	}
}

func TestAnnounce(t *testing.T) {
	listening := make(chan net.Addr, 1)
	lp := &session.ListenPeer{OnListen: func(a net.Addr) { listening <- a }}
	host := &netaddr.ResolvedAddress{Address: netip.MustParseAddr("127.0.0.1")}

	peers := make(chan *session.Peer, 1)
	errs := make(chan error, 1)
	go func() {
		p, err := lp.WaitForPeer(context.Background(), host)
		if err != nil {
			errs <- err
			return
		}
		peers <- p
	}()

	hostAddr := <-listening
	if err := announce(context.Background(), hostAddr.String(), 6100); err != nil {
		t.Fatalf("announce() error = %v", err)
	}

	select {
	case p := <-peers:
		if p.Addr != "http://127.0.0.1:6100" {
			t.Errorf("peer Addr = %q, want http://127.0.0.1:6100", p.Addr)
		}
	case err := <-errs:
		t.Fatalf("WaitForPeer() error = %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("peer was not announced")
	}
}

func TestAnnounce_NobodyListening(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()

	if err := announce(context.Background(), addr, 6100); err == nil {
		t.Error("announce() to a closed port should fail")
	}
}

func TestConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devsync", "config.yaml")

	out, err := executeCommand(t, "--config", path, "config", "init")
	if err != nil {
		t.Fatalf("config init error = %v", err)
	}
	if !strings.Contains(out, path) {
		t.Errorf("init output = %q", out)
	}

	out, err = executeCommand(t, "--config", path, "config", "show")
	if err != nil {
		t.Fatalf("config show error = %v", err)
	}
	if !strings.Contains(out, "Device Port: 5914") || !strings.Contains(out, "On Timeout: ask") {
		t.Errorf("show output = %q", out)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := executeCommand(t, "version", "--short")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if strings.TrimSpace(out) != Version {
		t.Errorf("version output = %q, want %q", out, Version)
	}
}

func TestVersionCommand_JSON(t *testing.T) {
	out, err := executeCommand(t, "version", "--json")
	if err != nil {
		t.Fatalf("version --json error = %v", err)
	}

	var info versionInfo
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if info.Version != Version || info.DevicePort != 5914 || info.ListenPort != 5915 {
		t.Errorf("info = %+v", info)
	}
}

func TestLoadConfig_DataDirFlag(t *testing.T) {
	resetFlags()
	t.Cleanup(resetFlags)

	globalFlags.ConfigFile = writeTestConfig(t, "/from/config")
	globalFlags.DataDir = "/from/flag"

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.DataDir != "/from/flag" {
		t.Errorf("DataDir = %q, want the --data-dir override", cfg.DataDir)
	}
}

func TestSyncCommand_SampleProject(t *testing.T) {
	out, err := executeCommand(t, "--config", writeTestConfig(t, t.TempDir()),
		"sync", "-p", "Sample", "--sample", "-d", "127.0.0.1:1", "-o", "json")

	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 2 {
		t.Fatalf("sync error = %v, want exit code 2", err)
	}
	if !strings.Contains(out, "sample project") {
		t.Errorf("output = %q, want the sample project message", out)
	}
}
