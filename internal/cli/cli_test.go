package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// run executes one command against a database and config in dir.
func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand(&out)
	cmd.SetArgs(append([]string{
		"--no-color",
		"--config", filepath.Join(dir, "config.toml"),
		"--db", filepath.Join(dir, "economy.db"),
	}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestStatus_FirstRunGrantsStarterBoosters(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, dir, "status")
	if err != nil {
		t.Fatalf("status error = %v", err)
	}
	if !strings.Contains(out, "4 starter boosters") {
		t.Errorf("Expected starter grant message, got:\n%s", out)
	}
	if !strings.Contains(out, "Free boosters:") {
		t.Errorf("Expected status block, got:\n%s", out)
	}

	out, err = run(t, dir, "status")
	if err != nil {
		t.Fatalf("second status error = %v", err)
	}
	if strings.Contains(out, "starter") {
		t.Errorf("Starter boosters granted twice:\n%s", out)
	}
}

func TestOpen_StopsWhenOutOfBoosters(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, dir, "open", "2")
	if err != nil {
		t.Fatalf("open error = %v", err)
	}
	if !strings.Contains(out, "2 free boosters left") {
		t.Errorf("Unexpected output:\n%s", out)
	}

	out, err = run(t, dir, "open", "5")
	if err != nil {
		t.Fatalf("open error = %v", err)
	}
	if !strings.Contains(out, "Opened 2 of 5") {
		t.Errorf("Expected partial open message, got:\n%s", out)
	}

	if _, err := run(t, dir, "open", "zero"); err == nil {
		t.Error("Expected invalid count to fail")
	}
}

func TestSell_Errors(t *testing.T) {
	dir := t.TempDir()

	if _, err := run(t, dir, "sell", "99999"); err == nil {
		t.Error("Expected unknown card to fail")
	}
	if _, err := run(t, dir, "sell", "1"); err == nil {
		t.Error("Expected unowned card to fail")
	}

	out, err := run(t, dir, "sell-dupes")
	if err != nil {
		t.Fatalf("sell-dupes error = %v", err)
	}
	if !strings.Contains(out, "No duplicates") {
		t.Errorf("Unexpected output:\n%s", out)
	}
}

func TestBuy(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, dir, "buy", "coins_500")
	if err != nil {
		t.Fatalf("buy error = %v", err)
	}
	if !strings.Contains(out, "Purchased Pouch of Coins") {
		t.Errorf("Unexpected output:\n%s", out)
	}

	if _, err := run(t, dir, "buy", "boosters_10"); err == nil || !strings.Contains(err.Error(), "not enough coins") {
		t.Errorf("Expected insufficient coins error, got %v", err)
	}
	if _, err := run(t, dir, "buy", "nope"); err == nil || !strings.Contains(err.Error(), "unknown_product") {
		t.Errorf("Expected unknown product error, got %v", err)
	}
}

func TestCatalogSearch(t *testing.T) {
	out, err := run(t, t.TempDir(), "catalog", "Ember")
	if err != nil {
		t.Fatalf("catalog error = %v", err)
	}
	if !strings.Contains(out, "Ember Sprite") {
		t.Errorf("Expected Ember Sprite in results, got:\n%s", out)
	}
}

func TestSimulate_WritesChart(t *testing.T) {
	dir := t.TempDir()
	chart := filepath.Join(dir, "rarity.html")

	out, err := run(t, dir, "simulate", "--draws", "5000", "--seed", "7", "--output", chart)
	if err != nil {
		t.Fatalf("simulate error = %v", err)
	}
	if !strings.Contains(out, "5000 draws") {
		t.Errorf("Unexpected output:\n%s", out)
	}
	if info, err := os.Stat(chart); err != nil || info.Size() == 0 {
		t.Errorf("Expected chart file, stat error = %v", err)
	}
}

func TestBackupAndRestore(t *testing.T) {
	t.Setenv(passwordEnv, "")
	dir := t.TempDir()

	if _, err := run(t, dir, "buy", "coins_500"); err != nil {
		t.Fatalf("buy error = %v", err)
	}
	if _, err := run(t, dir, "backup", "--name", "snap"); err != nil {
		t.Fatalf("backup error = %v", err)
	}
	out, err := run(t, dir, "backup", "--list")
	if err != nil {
		t.Fatalf("backup --list error = %v", err)
	}
	if !strings.Contains(out, "snap") {
		t.Errorf("Expected snapshot in list, got:\n%s", out)
	}

	if _, err := run(t, dir, "buy", "coins_500"); err != nil {
		t.Fatalf("buy error = %v", err)
	}
	backups, _ := filepath.Glob(filepath.Join(dir, "backups", "snap*"))
	if len(backups) != 1 {
		t.Fatalf("Expected one snapshot file, got %v", backups)
	}
	if _, err := run(t, dir, "restore", backups[0]); err != nil {
		t.Fatalf("restore error = %v", err)
	}

	out, err = run(t, dir, "status")
	if err != nil {
		t.Fatalf("status error = %v", err)
	}
	if !strings.Contains(out, "500 coins") {
		t.Errorf("Expected restored balance of 500, got:\n%s", out)
	}
}

func TestFormatRemaining(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{5*time.Hour + 59*time.Minute + 3*time.Second, "5h 59m 3s"},
		{90 * time.Second, "1m 30s"},
		{400 * time.Millisecond, "0s"},
	}
	for _, tt := range tests {
		if got := formatRemaining(tt.in); got != tt.want {
			t.Errorf("formatRemaining(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestProgressBar(t *testing.T) {
	if got := progressBar(50, 4); got != "██░░" {
		t.Errorf("progressBar(50, 4) = %q", got)
	}
}
