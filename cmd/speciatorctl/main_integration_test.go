//go:build sqlite

package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunCommandSQLitePersistsAcrossCommands(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "speciator.db")

	if _, err := execute(t,
		"run",
		"--store", "sqlite",
		"--db", dbPath,
		"--run-id", "sqlite-run",
		"--population", "20",
		"--generations", "3",
		"--seed", "7",
	); err != nil {
		t.Fatalf("run command: %v", err)
	}

	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("expected sqlite db at %s: %v", dbPath, err)
	}

	out, err := execute(t, "runs", "--store", "sqlite", "--db", dbPath)
	if err != nil {
		t.Fatalf("runs command: %v", err)
	}
	if !strings.Contains(out, "sqlite-run") {
		t.Fatalf("archived run missing from listing: %q", out)
	}

	out, err = execute(t, "history", "sqlite-run", "--store", "sqlite", "--db", dbPath)
	if err != nil {
		t.Fatalf("history command: %v", err)
	}
	if !strings.Contains(out, "roster") {
		t.Fatalf("missing roster section: %q", out)
	}

	out, err = execute(t, "diagnostics", "sqlite-run", "--store", "sqlite", "--db", dbPath)
	if err != nil {
		t.Fatalf("diagnostics command: %v", err)
	}
	if !strings.Contains(out, "THRESHOLD") {
		t.Fatalf("missing diagnostics table: %q", out)
	}
}
