package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
)

func writeArchive(t *testing.T, files map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "export.zip")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create archive: %v", err)
	}
	defer f.Close()
	zw := zip.NewWriter(f)
	for name, data := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		io.WriteString(w, data)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close archive: %v", err)
	}
	return path
}

func runParse(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newParseCmd()
	var out, errs bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errs)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errs.String(), err
}

func TestParseCommandSummary(t *testing.T) {
	path := writeArchive(t, map[string]string{
		"_chat.txt": "[01/02/2023, 10:15:00] Alice: Hello\n[01/02/2023, 10:16:00] Bob: Hi\n[01/02/2023, 10:17:00] Bob: how are you\n",
	})

	out, _, err := runParse(t, path)
	if err != nil {
		t.Fatalf("parse command failed: %v", err)
	}

	var summary struct {
		Title        string `json:"title"`
		PrimaryUser  string `json:"primary_user"`
		MessageCount int    `json:"message_count"`
	}
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if summary.PrimaryUser != "Bob" || summary.Title != "Alice" || summary.MessageCount != 3 {
		t.Errorf("unexpected summary: %+v", summary)
	}
	if strings.Contains(out, `"messages"`) {
		t.Error("summary output should not include messages")
	}
}

func TestParseCommandMessagesAndProgress(t *testing.T) {
	path := writeArchive(t, map[string]string{
		"_chat.txt": "[01/02/2023, 10:15:00] Alice: Hello\nworld\n",
	})

	out, errs, err := runParse(t, path, "--messages", "--progress", "--me", "Alice")
	if err != nil {
		t.Fatalf("parse command failed: %v", err)
	}
	if !strings.Contains(out, `"text": "Hello\nworld"`) {
		t.Errorf("expected merged continuation in output:\n%s", out)
	}
	if !strings.Contains(errs, "100% complete") {
		t.Errorf("expected completion progress on stderr:\n%s", errs)
	}
}

func TestParseCommandErrors(t *testing.T) {
	if _, _, err := runParse(t, filepath.Join(t.TempDir(), "missing.zip")); err == nil {
		t.Error("expected error for missing file")
	}

	path := writeArchive(t, map[string]string{"IMG-001.jpg": "jpeg"})
	if _, _, err := runParse(t, path); err == nil || !strings.Contains(err.Error(), "transcript") {
		t.Errorf("expected missing transcript error, got %v", err)
	}
}
