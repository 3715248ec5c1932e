// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := map[string]struct {
		cfg     Config
		wantErr bool
	}{
		"text":           {cfg: Config{Level: "debug", Format: "text"}},
		"json":           {cfg: Config{Level: "warn", Format: "json"}},
		"logfmt":         {cfg: Config{Format: "logfmt"}},
		"unknown level":  {cfg: Config{Level: "loud"}, wantErr: true},
		"unknown format": {cfg: Config{Format: "xml"}, wantErr: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			tt.cfg.Output = &bytes.Buffer{}
			_, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %t", err, tt.wantErr)
			}
		})
	}
}

func TestComponentAttribute(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatal(err)
	}

	Component(l, "stream-hub").Info("subscribed", "task_id", "t1")
	Component(l, "stream-hub").Debug("hidden")

	out := buf.String()
	if !strings.Contains(out, `"component":"stream-hub"`) {
		t.Errorf("log output missing component attribute: %s", out)
	}
	if strings.Contains(out, "hidden") {
		t.Errorf("debug record written at info level: %s", out)
	}
}

func TestComponentNilLogger(t *testing.T) {
	// Must not panic.
	Component(nil, "x").Info("dropped")
}
