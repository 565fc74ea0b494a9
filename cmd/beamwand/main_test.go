package main

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/wippyai/beamwand/config"
	"github.com/wippyai/beamwand/dump"
)

var codeChunk = []byte{
	0, 0, 0, 16, 0, 0, 0, 0, 0, 0, 0, 135, 0, 0, 0, 0, 0, 0, 0, 0,
	1, 16,
	2, 0x12, 7, 0x40, 0x2b, 0x2d, 0x91, 0x68, 0x72, 0xb0, 0x21, 0x18, 0x12, 0x34,
	1, 32,
	19,
}

func writeModule(t *testing.T, dir string) string {
	t.Helper()
	atoms := []byte{0, 0, 0, 1, 4, 'd', 'e', 'm', 'o'}

	var body bytes.Buffer
	body.WriteString("BEAM")
	for _, c := range []struct {
		tag     string
		payload []byte
	}{{"Atom", atoms}, {"Code", codeChunk}} {
		body.WriteString(c.tag)
		body.Write(binary.BigEndian.AppendUint32(nil, uint32(len(c.payload))))
		body.Write(c.payload)
		for body.Len()%4 != 0 {
			body.WriteByte(0)
		}
	}
	data := append([]byte("FOR1"), binary.BigEndian.AppendUint32(nil, uint32(body.Len()))...)
	data = append(data, body.Bytes()...)

	path := filepath.Join(dir, "demo.beam")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, config.FileName)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCLI(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRunUsage(t *testing.T) {
	for _, args := range [][]string{nil, {"-h"}, {"--help"}} {
		code, out, _ := runCLI(args...)
		if code != 0 {
			t.Errorf("%v: exit %d, want 0", args, code)
		}
		if !strings.Contains(out, "Usage: beamwand") {
			t.Errorf("%v: usage missing from %q", args, out)
		}
	}
}

func TestRunBadFlag(t *testing.T) {
	code, _, errOut := runCLI("-nope")
	if code != 2 {
		t.Errorf("exit %d, want 2", code)
	}
	if !strings.Contains(errOut, "Usage: beamwand") {
		t.Errorf("usage missing from %q", errOut)
	}
}

func TestRunMissingFile(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir, "")
	path := filepath.Join(dir, "absent.beam")

	code, _, errOut := runCLI("-config", cfg, "-parser-only", path)
	if code != 1 {
		t.Errorf("exit %d, want 1", code)
	}
	if want := "File " + path + " doesn't exist!"; !strings.Contains(errOut, want) {
		t.Errorf("stderr %q, want %q", errOut, want)
	}
}

func TestRunCompilerModeUnsupported(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir, "")

	code, _, errOut := runCLI("-config", cfg, writeModule(t, dir))
	if code != 1 {
		t.Errorf("exit %d, want 1", code)
	}
	if !strings.Contains(errOut, "Compiler mode is not supported yet.") {
		t.Errorf("stderr %q", errOut)
	}
}

func TestRunParserOnly(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir, "")
	path := writeModule(t, dir)

	for _, args := range [][]string{
		{"-config", cfg, "-parser-only", path},
		{"-config", cfg, path, "--parser-only"},
	} {
		code, out, errOut := runCLI(args...)
		if code != 0 {
			t.Fatalf("%v: exit %d: %s", args, code, errOut)
		}
		for _, want := range []string{
			"FOR1/BEAM 2 chunks",
			"Atom size=9 atoms=1",
			"  label 1:",
			"    func_info({atom,demo}, {float,13.589}, {u,4660})",
			"  label 2:",
			"    return()",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("%v: missing %q in:\n%s", args, want, out)
			}
		}
	}
}

func TestRunCBOR(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir, "[output]\nformat = \"cbor\"\n")

	code, out, errOut := runCLI("-config", cfg, "-parser-only", writeModule(t, dir))
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	v, err := dump.UnmarshalView([]byte(out))
	if err != nil {
		t.Fatalf("UnmarshalView: %v", err)
	}
	if len(v.Chunks) != 2 || v.Chunks[1].Code == nil || len(v.Chunks[1].Code.Blocks) != 2 {
		t.Errorf("unexpected view: %+v", v)
	}
}

func TestRunFormatFlagOverridesConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir, "[output]\nformat = \"cbor\"\n")

	code, out, _ := runCLI("-config", cfg, "-format", "text", "-parser-only", writeModule(t, dir))
	if code != 0 || !strings.HasPrefix(out, "FOR1/BEAM") {
		t.Errorf("exit %d, output %q", code, out)
	}

	code, _, errOut := runCLI("-config", cfg, "-format", "json", "-parser-only", writeModule(t, dir))
	if code != 1 || !strings.Contains(errOut, "output.format") {
		t.Errorf("exit %d, stderr %q", code, errOut)
	}
}

func TestRunBadConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir, "[output]\nwidth = 1\n")

	code, _, errOut := runCLI("-config", cfg, "-parser-only", writeModule(t, dir))
	if code != 1 || !strings.Contains(errOut, "unknown keys") {
		t.Errorf("exit %d, stderr %q", code, errOut)
	}
}

func TestRunCorruptModule(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir, "")
	path := filepath.Join(dir, "bad.beam")
	if err := os.WriteFile(path, []byte("FOR1\x00\x00\x00\x04BEAX"), 0644); err != nil {
		t.Fatal(err)
	}

	code, _, errOut := runCLI("-config", cfg, "-parser-only", path)
	if code != 1 {
		t.Errorf("exit %d, want 1", code)
	}
	if !strings.Contains(errOut, "malformed_magic") {
		t.Errorf("stderr %q", errOut)
	}
}

func TestFilterLines(t *testing.T) {
	lines := []string{
		"  label 1:",
		"    func_info({atom,demo}, {float,13.589}, {u,4660})",
		"  label 2:",
		"    return()",
		"  label 3:",
		"    move(x(0), x(1))",
	}

	tests := []struct {
		needle string
		want   []string
	}{
		{"", lines},
		{"RETURN", []string{"  label 2:", "    return()"}},
		{"label 3", []string{"  label 3:"}},
		{"x(", []string{"  label 3:", "    move(x(0), x(1))"}},
		{"nothing", nil},
	}
	for _, tt := range tests {
		got := filterLines(lines, tt.needle)
		if strings.Join(got, "|") != strings.Join(tt.want, "|") {
			t.Errorf("filterLines(%q) = %q, want %q", tt.needle, got, tt.want)
		}
	}
}

func TestInteractiveModel(t *testing.T) {
	dir := t.TempDir()
	m := newInteractiveModel(writeModule(t, dir), config.Default())

	if got := m.View(); got != "Decoding module..." {
		t.Errorf("initial view %q", got)
	}

	m.Update(m.loadModule())
	if m.err != nil {
		t.Fatalf("load: %v", m.err)
	}
	if len(m.sections) != 2 {
		t.Fatalf("got %d sections, want 2", len(m.sections))
	}
	if !strings.HasPrefix(m.sections[1].title, "Code size=") {
		t.Errorf("section title %q", m.sections[1].title)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if m.selected != 1 {
		t.Errorf("selected %d after tab, want 1", m.selected)
	}
	if !strings.Contains(m.View(), "func_info") {
		t.Error("code listing not shown")
	}

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if m.selected != 1 {
		t.Errorf("selected moved past the last chunk")
	}

	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}); cmd == nil {
		t.Error("q should quit")
	}
}

func TestInteractiveModelLoadError(t *testing.T) {
	m := newInteractiveModel(filepath.Join(t.TempDir(), "absent.beam"), config.Default())
	m.Update(m.loadModule())
	if m.err == nil {
		t.Fatal("expected load error")
	}
	if !strings.Contains(m.View(), "Error:") {
		t.Errorf("view %q", m.View())
	}
}
