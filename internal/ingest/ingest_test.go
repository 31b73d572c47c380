package ingest

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func touch(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestHashFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.txt")
	touch(t, path, "abc")
	got, err := HashFile(path)
	if err != nil {
		t.Fatalf("HashFile: %v", err)
	}
	const want = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got != want {
		t.Fatalf("HashFile = %s, want %s", got, want)
	}
	if _, err := HashFile(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestAllowed(t *testing.T) {
	cases := map[string]bool{
		"obra.pdf":    true,
		"OBRA.PDF":    true,
		"scan.tiff":   true,
		"notas.txt":   true,
		"oferta.docx": true,
		"hoja.xlsx":   false,
		"sin_ext":     false,
	}
	for name, want := range cases {
		if got := Allowed(name); got != want {
			t.Errorf("Allowed(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestScanDirectory(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "b.pdf"), "x")
	touch(t, filepath.Join(root, "a.txt"), "x")
	touch(t, filepath.Join(root, "sub", "c.png"), "x")
	touch(t, filepath.Join(root, "ignored.xlsx"), "x")
	touch(t, filepath.Join(root, ".hidden", "d.pdf"), "x")
	touch(t, filepath.Join(root, ".e.pdf"), "x")

	paths, stats, err := ScanDirectory(root, true)
	if err != nil {
		t.Fatalf("ScanDirectory: %v", err)
	}
	want := []string{
		filepath.Join(root, "a.txt"),
		filepath.Join(root, "b.pdf"),
		filepath.Join(root, "sub", "c.png"),
	}
	if !reflect.DeepEqual(paths, want) {
		t.Fatalf("paths = %v, want %v", paths, want)
	}
	if stats.Matched != 3 || stats.Scanned != 4 {
		t.Fatalf("stats = %+v", stats)
	}

	all, _, err := ScanDirectory(root, false)
	if err != nil {
		t.Fatalf("ScanDirectory: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("with hidden = %v, want 5 files", all)
	}

	if _, _, err := ScanDirectory("", false); err == nil {
		t.Fatal("expected error for empty root")
	}
	if _, _, err := ScanDirectory(filepath.Join(root, "nope"), false); err == nil {
		t.Fatal("expected error for missing root")
	}
}

func receive(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case p, ok := <-ch:
		if !ok {
			t.Fatal("watcher channel closed")
		}
		return p
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for watcher event")
	}
	return ""
}

func TestWatcherEmitsSettledFiles(t *testing.T) {
	root := t.TempDir()
	existing := filepath.Join(root, "old.pdf")
	touch(t, existing, "x")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{root}, InitialScan: true, Debounce: 50 * time.Millisecond})
	if err != nil {
		t.Fatalf("StartWatcher: %v", err)
	}
	if got := receive(t, events); got != existing {
		t.Fatalf("initial = %s, want %s", got, existing)
	}

	touch(t, filepath.Join(root, "skip.xlsx"), "x")
	fresh := filepath.Join(root, "new.txt")
	touch(t, fresh, "partial")
	touch(t, fresh, "complete")
	if got := receive(t, events); got != fresh {
		t.Fatalf("event = %s, want %s", got, fresh)
	}

	cancel()
	for range events {
	}
}

func TestWatcherRequiresRoots(t *testing.T) {
	if _, _, err := StartWatcher(context.Background(), WatchConfig{}); err == nil {
		t.Fatal("expected error without roots")
	}
}
