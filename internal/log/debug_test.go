package log

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func reset() {
	writer.mu.Lock()
	defer writer.mu.Unlock()
	if writer.file != nil {
		_ = writer.file.Close()
		writer.file = nil
	}
	writer.buffer = nil
	writer.discard = false
}

func TestBufferedMessagesFlushOnSetFile(t *testing.T) {
	reset()
	t.Cleanup(reset)

	Printf("early message %d", 42)

	path := filepath.Join(t.TempDir(), "debug.log")
	if err := SetFile(path); err != nil {
		t.Fatalf("SetFile: %v", err)
	}
	Printf("later message")
	if err := Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "early message 42") {
		t.Fatalf("buffered message not flushed: %q", content)
	}
	if !strings.Contains(content, "later message") {
		t.Fatalf("direct message missing: %q", content)
	}
}

func TestEmptyPathDiscards(t *testing.T) {
	reset()
	t.Cleanup(reset)

	if err := SetFile(""); err != nil {
		t.Fatalf("SetFile: %v", err)
	}
	Printf("dropped")

	writer.mu.Lock()
	defer writer.mu.Unlock()
	if len(writer.buffer) != 0 {
		t.Fatalf("discarded output was buffered: %q", writer.buffer)
	}
}

func TestCloseWithoutFile(t *testing.T) {
	reset()
	t.Cleanup(reset)

	if err := Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
