package auth

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadAPIKey(t *testing.T) {
	t.Run("inline key wins", func(t *testing.T) {
		key, err := LoadAPIKey("  abc123  ", "/does/not/exist")
		if err != nil {
			t.Fatalf("LoadAPIKey failed: %v", err)
		}
		if key.Reveal() != "abc123" {
			t.Errorf("key = %q, want %q", key.Reveal(), "abc123")
		}
	})

	t.Run("from file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "key.txt")
		if err := os.WriteFile(path, []byte("filekey\n"), 0600); err != nil {
			t.Fatalf("write key: %v", err)
		}

		key, err := LoadAPIKey("", path)
		if err != nil {
			t.Fatalf("LoadAPIKey failed: %v", err)
		}
		if key.Reveal() != "filekey" {
			t.Errorf("key = %q, want %q", key.Reveal(), "filekey")
		}
	})

	t.Run("empty file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "key.txt")
		if err := os.WriteFile(path, []byte("  \n"), 0600); err != nil {
			t.Fatalf("write key: %v", err)
		}

		if _, err := LoadAPIKey("", path); err == nil {
			t.Error("expected error for empty key file")
		}
	})

	t.Run("missing", func(t *testing.T) {
		_, err := LoadAPIKey("", "")
		if !errors.Is(err, ErrMissingKey) {
			t.Errorf("err = %v, want ErrMissingKey", err)
		}
	})
}

func TestAPIKey_Redaction(t *testing.T) {
	key := APIKey("supersecretkey")

	if got := key.Redacted(); got != "**********tkey" {
		t.Errorf("Redacted() = %q, want %q", got, "**********tkey")
	}
	if got := fmt.Sprintf("%v", key); strings.Contains(got, "supersecret") {
		t.Errorf("fmt output leaked key: %q", got)
	}
	if got := APIKey("abc").Redacted(); got != "***" {
		t.Errorf("short Redacted() = %q, want %q", got, "***")
	}

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	logger.Info("configured", "api_key", key)
	if strings.Contains(buf.String(), "supersecret") {
		t.Errorf("log output leaked key: %s", buf.String())
	}
}

func TestAPIKey_Apply(t *testing.T) {
	q := url.Values{}
	APIKey("k1").Apply(q)
	if q.Get(TokenParam) != "k1" {
		t.Errorf("token = %q, want %q", q.Get(TokenParam), "k1")
	}

	q = url.Values{}
	APIKey("").Apply(q)
	if q.Has(TokenParam) {
		t.Error("empty key should not set token")
	}
}
