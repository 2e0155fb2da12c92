package filter

import (
	"os"
	"path/filepath"
	"testing"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "filter.lua")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestScriptCheck(t *testing.T) {
	path := writeScript(t, `
local filter = {}
function filter.check(text)
    return string.find(text, "http://") ~= nil
end
return filter
`)

	s, err := LoadScript(path)
	if err != nil {
		t.Fatalf("load script: %v", err)
	}
	defer s.Close()

	if !s.Check("visit http://example.com now") {
		t.Fatalf("expected link to be rejected")
	}
	if s.Check("no links here") {
		t.Fatalf("expected clean text to pass")
	}
}

func TestScriptGlobalTable(t *testing.T) {
	path := writeScript(t, `
filter = {}
function filter.check(text)
    return text == "bad"
end
`)

	s, err := LoadScript(path)
	if err != nil {
		t.Fatalf("load script: %v", err)
	}
	defer s.Close()

	if !s.Check("bad") {
		t.Fatalf("expected rejection via global filter table")
	}
}

func TestScriptWithoutCheckFails(t *testing.T) {
	path := writeScript(t, `return {}`)
	if _, err := LoadScript(path); err == nil {
		t.Fatalf("expected error for script without check function")
	}
}

func TestScriptErrorAdmits(t *testing.T) {
	path := writeScript(t, `
local filter = {}
function filter.check(text)
    error("boom")
end
return filter
`)

	s, err := LoadScript(path)
	if err != nil {
		t.Fatalf("load script: %v", err)
	}
	defer s.Close()

	if s.Check("anything") {
		t.Fatalf("a failing script must admit the message")
	}
}
