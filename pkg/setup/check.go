// Package setup validates a .env file before the server is started.
package setup

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Status string

const (
	StatusOK      Status = "ok"
	StatusWarning Status = "warning"
	StatusFailure Status = "failure"
)

const previewLength = 40

type check struct {
	name     string
	key      string
	hint     string
	validate func(value string) string
}

var checks = []check{
	{
		name: "Google OAuth Client ID",
		key:  "GOOGLE_CLIENT_ID",
		hint: "Required for Google Calendar integration. Get from: https://console.cloud.google.com/",
		validate: func(v string) string {
			if !strings.HasSuffix(v, ".apps.googleusercontent.com") {
				return "Should end with .apps.googleusercontent.com"
			}
			return ""
		},
	},
	{
		name: "Google Redirect URI",
		key:  "GOOGLE_REDIRECT_URI",
		hint: "Should match your app URL (e.g., http://localhost:5173 for dev)",
		validate: func(v string) string {
			if !strings.HasPrefix(v, "http://") && !strings.HasPrefix(v, "https://") {
				return "Should start with http:// or https://"
			}
			return ""
		},
	},
	{
		name: "OpenAI API Key",
		key:  "OPENAI_API_KEY",
		hint: "Optional but recommended for AI features. Get from: https://platform.openai.com/api-keys",
		validate: func(v string) string {
			if !strings.HasPrefix(v, "sk-") {
				return "Should start with sk-"
			}
			return ""
		},
	},
}

// Result is the outcome of one configuration value
type Result struct {
	Name    string
	Key     string
	Value   string
	Status  Status
	Message string
}

type Report struct {
	EnvPath      string
	EnvFound     bool
	ExampleFound bool
	Results      []Result
}

// Check reads envPath and validates the credentials it holds. A missing
// file is not an error; an unreadable one is. With strict, unset values
// are failures instead of warnings.
func Check(envPath string, strict bool) (*Report, error) {
	report := &Report{EnvPath: envPath}

	if _, err := os.Stat(envPath); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat %s: %w", envPath, err)
		}
		_, statErr := os.Stat(envPath + ".example")
		report.ExampleFound = statErr == nil
		return report, nil
	}
	report.EnvFound = true

	values, err := godotenv.Read(envPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", envPath, err)
	}

	for _, c := range checks {
		value := strings.TrimSpace(values[c.key])
		r := Result{Name: c.name, Key: c.key, Value: value, Status: StatusOK}
		switch {
		case value == "" && strict:
			r.Status = StatusFailure
			r.Message = "Missing: " + c.key + "\n   → " + c.hint
		case value == "":
			r.Status = StatusWarning
			r.Message = "Not set: " + c.key + "\n   → " + c.hint
		default:
			if msg := c.validate(value); msg != "" {
				r.Status = StatusWarning
				r.Message = msg
			}
		}
		report.Results = append(report.Results, r)
	}
	return report, nil
}

func (r *Report) count(status Status) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == status {
			n++
		}
	}
	return n
}

// ExitCode is 1 when any check failed, 0 otherwise
func (r *Report) ExitCode() int {
	if r.count(StatusFailure) > 0 {
		return 1
	}
	return 0
}

// Write prints the report in a human readable form
func (r *Report) Write(w io.Writer) {
	fmt.Fprintln(w, "\nKaisey Environment Check")
	fmt.Fprintln(w, strings.Repeat("━", 50))

	if !r.EnvFound {
		fmt.Fprintf(w, "\nNo %s file found\n", r.EnvPath)
		fmt.Fprintln(w, "\nTo fix this:")
		fmt.Fprintf(w, "   1. Copy %s.example to %s\n", r.EnvPath, r.EnvPath)
		fmt.Fprintf(w, "   2. Edit %s with your credentials\n", r.EnvPath)
		if r.ExampleFound {
			fmt.Fprintf(w, "\n%s.example exists - ready to copy!\n", r.EnvPath)
		}
		return
	}

	fmt.Fprintf(w, "\n%s file found\n\nConfiguration Status:\n\n", r.EnvPath)
	for _, res := range r.Results {
		switch res.Status {
		case StatusOK:
			preview := res.Value
			if len(preview) > previewLength {
				preview = preview[:previewLength] + "..."
			}
			fmt.Fprintf(w, "[ok]   %s\n   %s\n\n", res.Name, preview)
		case StatusWarning:
			fmt.Fprintf(w, "[warn] %s\n   %s\n\n", res.Name, res.Message)
		case StatusFailure:
			fmt.Fprintf(w, "[fail] %s\n   %s\n\n", res.Name, res.Message)
		}
	}
	fmt.Fprintln(w, strings.Repeat("━", 50))

	switch {
	case r.count(StatusFailure) > 0:
		fmt.Fprintln(w, "\nSetup incomplete - please fix the issues above")
	case r.count(StatusWarning) > 0:
		fmt.Fprintln(w, "\nSetup has warnings but you can proceed.")
		fmt.Fprintln(w, "Fix the warnings above for full functionality, or use demo mode to explore without credentials.")
	default:
		fmt.Fprintln(w, "\nAll credentials configured!")
	}
}
