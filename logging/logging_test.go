/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestMakeFromWriter(t *testing.T) {
	var buf bytes.Buffer
	data, err := New().FromWriter(&buf).WithLevel(zerolog.WarnLevel).Make()
	if err != nil {
		t.Fatalf("Make failed: %v", err)
	}

	data.Logger.Info().Msg("hidden")
	data.Logger.Warn().Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info entry should be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, `"message":"shown"`) || !strings.Contains(out, `"time"`) {
		t.Errorf("expected a timestamped JSON entry, got %s", out)
	}
	if err := data.Close(); err != nil {
		t.Errorf("Close without a file should succeed, got %v", err)
	}
}

func TestMakeFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "objectstore.log")
	data, err := New().FromPath(path).Make()
	if err != nil {
		t.Fatalf("Make failed: %v", err)
	}

	componentLog := Component(data.Logger, "supervisor")
	componentLog.Error().Msg("lost")
	if err := data.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(content), `"component":"supervisor"`) {
		t.Errorf("expected the component field, got %s", content)
	}
}

func TestMakeBadPath(t *testing.T) {
	if _, err := New().FromPath(filepath.Join(t.TempDir(), "missing", "x.log")).Make(); err == nil {
		t.Error("expected an error for a missing directory")
	}
}

func TestConsole(t *testing.T) {
	var buf bytes.Buffer
	data, err := New().FromWriter(&buf).Console(true).Make()
	if err != nil {
		t.Fatalf("Make failed: %v", err)
	}
	data.Logger.Info().Msg("hello")
	if strings.Contains(buf.String(), `"message"`) || !strings.Contains(buf.String(), "hello") {
		t.Errorf("expected console output, got %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zerolog.Level
		wantErr bool
	}{
		{"", zerolog.InfoLevel, false},
		{"debug", zerolog.DebugLevel, false},
		{" ERROR ", zerolog.ErrorLevel, false},
		{"loud", zerolog.NoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
