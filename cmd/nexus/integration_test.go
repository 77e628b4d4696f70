package main

import (
	"context"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/csheth/nexus/internal/tuitest"
)

func TestNexusBootsWithoutProvider(t *testing.T) {
	t.Parallel()

	cmdDir := moduleDir(t)
	binary := buildBinary(t, cmdDir)
	cache := filepath.Join(t.TempDir(), "cache.json")

	rec, err := tuitest.Run(context.Background(), tuitest.Config{
		Command: []string{binary, "-no-alt-screen", "-cache", cache},
		Dir:     cmdDir,
		Env:     []string{"GEMINI_API_KEY=", "NEXUS_DRIVE_CLIENT_ID="},
		Width:   110,
		Height:  36,
		Steps: []tuitest.Step{
			{Delay: time.Second},
			tuitest.TypeText("/attach"),
			{Delay: 300 * time.Millisecond, Input: tuitest.KeyEnter},
			{Delay: 500 * time.Millisecond, Input: tuitest.KeyCtrlC},
		},
		Timeout:        10 * time.Second,
		AllowInterrupt: true,
	})
	if err != nil {
		t.Fatalf("run CLI: %v", err)
	}

	frame, ok := rec.FinalFrame()
	if !ok {
		t.Fatalf("no frames captured")
	}
	for _, want := range []string{"NEXUS::OMNI", "Composer", "Usage: /attach <path>"} {
		if !strings.Contains(frame.Plain, want) {
			t.Fatalf("final frame missing %q:\n%s", want, frame.Plain)
		}
	}
}

func moduleDir(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("runtime caller unavailable")
	}
	return filepath.Dir(file)
}

func buildBinary(t *testing.T, cmdDir string) string {
	t.Helper()
	tmp := t.TempDir()
	name := "nexus-integration"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	binPath := filepath.Join(tmp, name)
	cmd := exec.Command("go", "build", "-o", binPath, ".")
	cmd.Dir = cmdDir
	if output, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("build CLI: %v\n%s", err, output)
	}
	return binPath
}
