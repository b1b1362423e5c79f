package setup

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeEnv(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func statusOf(r *Report, key string) Status {
	for _, res := range r.Results {
		if res.Key == key {
			return res.Status
		}
	}
	return ""
}

func TestMissingEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path+".example", []byte("PORT=8080\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	report, err := Check(path, true)
	if err != nil {
		t.Fatal(err)
	}
	if report.EnvFound || !report.ExampleFound || report.ExitCode() != 0 {
		t.Fatalf("unexpected report %+v", report)
	}
	var out bytes.Buffer
	report.Write(&out)
	if !strings.Contains(out.String(), "ready to copy") {
		t.Fatalf("missing copy instructions:\n%s", out.String())
	}
}

func TestAllValid(t *testing.T) {
	path := writeEnv(t, "GOOGLE_CLIENT_ID=123.apps.googleusercontent.com\nGOOGLE_REDIRECT_URI=https://kaisey.app\n# comment\nOPENAI_API_KEY=sk-abc\n")

	report, err := Check(path, false)
	if err != nil {
		t.Fatal(err)
	}
	for _, res := range report.Results {
		if res.Status != StatusOK {
			t.Errorf("%s: %s %s", res.Key, res.Status, res.Message)
		}
	}
	if report.ExitCode() != 0 {
		t.Fatal("expected exit 0")
	}
}

func TestFormatWarnings(t *testing.T) {
	path := writeEnv(t, "GOOGLE_CLIENT_ID=abc\nGOOGLE_REDIRECT_URI=localhost:5173\nOPENAI_API_KEY=pk-abc\n")

	report, err := Check(path, true)
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"GOOGLE_CLIENT_ID", "GOOGLE_REDIRECT_URI", "OPENAI_API_KEY"} {
		if got := statusOf(report, key); got != StatusWarning {
			t.Errorf("%s: status %s", key, got)
		}
	}
	if report.ExitCode() != 0 {
		t.Fatal("format warnings should exit 0")
	}
}

func TestStrictUnsetFails(t *testing.T) {
	path := writeEnv(t, "GOOGLE_CLIENT_ID=123.apps.googleusercontent.com\n")

	lenient, err := Check(path, false)
	if err != nil {
		t.Fatal(err)
	}
	if statusOf(lenient, "OPENAI_API_KEY") != StatusWarning || lenient.ExitCode() != 0 {
		t.Fatalf("unset values should warn without --strict: %+v", lenient.Results)
	}

	strict, err := Check(path, true)
	if err != nil {
		t.Fatal(err)
	}
	if statusOf(strict, "OPENAI_API_KEY") != StatusFailure || strict.ExitCode() != 1 {
		t.Fatalf("unset values should fail with --strict: %+v", strict.Results)
	}
}

func TestUnreadableEnv(t *testing.T) {
	// a directory named .env exists but cannot be parsed as a file
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.Mkdir(path, 0o700); err != nil {
		t.Fatal(err)
	}
	if _, err := Check(path, false); err == nil {
		t.Fatal("expected an error for an unreadable .env")
	}
}
