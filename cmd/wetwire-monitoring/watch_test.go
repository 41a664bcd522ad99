package main

import (
	"testing"

	"github.com/fsnotify/fsnotify"
)

func TestNewWatchCmd(t *testing.T) {
	cmd := newWatchCmd(&globalOptions{})

	if cmd.Use != "watch" {
		t.Errorf("Use = %q, want 'watch'", cmd.Use)
	}

	if cmd.Short == "" {
		t.Error("Short description should not be empty")
	}

	if cmd.Flags().Lookup("validate-only") == nil {
		t.Error("missing --validate-only flag")
	}

	if cmd.Flags().Lookup("debounce") == nil {
		t.Error("missing --debounce flag")
	}
}

func TestDebounceDefault(t *testing.T) {
	cmd := newWatchCmd(&globalOptions{})

	flag := cmd.Flags().Lookup("debounce")
	if flag == nil {
		t.Fatal("missing --debounce flag")
	}

	if flag.DefValue != "500ms" {
		t.Errorf("debounce default = %q, want '500ms'", flag.DefValue)
	}
}

func TestIsStackFileChange(t *testing.T) {
	const path = "/work/monitoring.yaml"

	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"write", fsnotify.Event{Name: path, Op: fsnotify.Write}, true},
		{"create", fsnotify.Event{Name: path, Op: fsnotify.Create}, true},
		{"rename", fsnotify.Event{Name: path, Op: fsnotify.Rename}, true},
		{"chmod", fsnotify.Event{Name: path, Op: fsnotify.Chmod}, false},
		{"other file", fsnotify.Event{Name: "/work/template.json", Op: fsnotify.Write}, false},
		{"unclean path", fsnotify.Event{Name: "/work/./monitoring.yaml", Op: fsnotify.Write}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isStackFileChange(tt.event, path); got != tt.want {
				t.Errorf("isStackFileChange() = %v, want %v", got, tt.want)
			}
		})
	}
}
