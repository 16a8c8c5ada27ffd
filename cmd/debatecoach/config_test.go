package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigSetGetList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	var out bytes.Buffer
	if err := setConfig(&out, path, "session.idle_ttl", "2h"); err != nil {
		t.Fatal(err)
	}
	if got := out.String(); got != "Set session.idle_ttl = 2h\n" {
		t.Errorf("unexpected set output %q", got)
	}

	out.Reset()
	if err := setConfig(&out, path, "bus.redis_url", "redis://:pw@cache:6379/0"); err != nil {
		t.Fatal(err)
	}
	if got := out.String(); got != "Set bus.redis_url = ***\n" {
		t.Errorf("expected secret hidden in set output, got %q", got)
	}

	out.Reset()
	if err := getConfig(&out, path, "bus.redis_url", false); err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(out.String()); got != "***79/0" {
		t.Errorf("expected masked redis url, got %q", got)
	}
	out.Reset()
	if err := getConfig(&out, path, "bus.redis_url", true); err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(out.String()); got != "redis://:pw@cache:6379/0" {
		t.Errorf("expected revealed redis url, got %q", got)
	}

	out.Reset()
	if err := listConfig(&out, path); err != nil {
		t.Fatal(err)
	}
	listing := out.String()
	if !strings.Contains(listing, "session.idle_ttl") || !strings.Contains(listing, "2h") {
		t.Errorf("expected idle ttl in listing:\n%s", listing)
	}
	if strings.Contains(listing, "pw@cache") {
		t.Errorf("expected secrets masked in listing:\n%s", listing)
	}
	if strings.Contains(listing, "warning:") {
		t.Errorf("expected no validation warning:\n%s", listing)
	}
}

func TestConfigSetRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	var out bytes.Buffer

	err := setConfig(&out, path, "session.sweep_schedule", "every so often")
	if err == nil || !strings.Contains(err.Error(), "session.sweep_schedule") {
		t.Fatalf("expected schedule rejected, got %v", err)
	}
	if err := setConfig(&out, path, "research.cache_ttl", "half an hour"); err == nil {
		t.Fatal("expected duration rejected")
	}
	if err := setConfig(&out, path, "made.up", "x"); err == nil {
		t.Fatal("expected unknown key rejected")
	}
	if out.Len() != 0 {
		t.Errorf("expected no output for rejected values, got %q", out.String())
	}
}
