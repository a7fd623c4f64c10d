package invoke

import (
	"context"
	"strings"
	"testing"
)

func TestActivate_ArgumentsFlattenedAndSorted(t *testing.T) {
	m := Mapping{
		Service:   "webapp",
		Container: "procs",
		Target:    "hostA",
		Type:      "process",
		Package:   "/nix/store/webapp",
		Arguments: map[string]string{"port": "8080", "host": "0.0.0.0"},
	}

	cmd := Activate(context.Background(), "disnix-ssh-client", m)
	args := cmd.Args[1:]

	want := []string{"activate", "--target", "hostA", "--container", "procs", "--type", "process",
		"--arguments", "host=0.0.0.0", "--arguments", "port=8080", "/nix/store/webapp"}

	if strings.Join(args, " ") != strings.Join(want, " ") {
		t.Fatalf("got args %v, want %v", args, want)
	}
}

func TestLockUnlock(t *testing.T) {
	lock := Lock(context.Background(), "disnix-ssh-client", "hostA", "default")
	if lock.Args[1] != "lock" || lock.Args[3] != "hostA" || lock.Args[5] != "default" {
		t.Fatalf("unexpected lock args: %v", lock.Args)
	}

	unlock := Unlock(context.Background(), "disnix-ssh-client", "hostA", "default")
	if unlock.Args[1] != "unlock" {
		t.Fatalf("unexpected unlock args: %v", unlock.Args)
	}
}

func TestQueryLatestSnapshot_ScopeOptional(t *testing.T) {
	noScope := QueryLatestSnapshot(context.Background(), "iface", "hostA", SnapshotScope{})
	if len(noScope.Args) != 4 {
		t.Fatalf("expected no scope args, got %v", noScope.Args)
	}

	scoped := QueryLatestSnapshot(context.Background(), "iface", "hostA", SnapshotScope{Container: "dbc", Component: "db"})
	if len(scoped.Args) != 8 {
		t.Fatalf("expected scope args appended, got %v", scoped.Args)
	}
}

func TestImportSnapshots_Mode(t *testing.T) {
	cmd := ImportSnapshots(context.Background(), "iface", "hostB", ImportRemote, "dbc", "db", []string{"/snap/1"})
	joined := strings.Join(cmd.Args, " ")
	if !strings.Contains(joined, "--remote") {
		t.Fatalf("expected --remote in args: %v", cmd.Args)
	}
}

func TestCleanSnapshots_KeepEncoded(t *testing.T) {
	cmd := CleanSnapshots(context.Background(), "iface", "hostA", 5, SnapshotScope{})
	joined := strings.Join(cmd.Args, " ")
	if !strings.Contains(joined, "--keep 5") {
		t.Fatalf("expected --keep 5 in args: %v", cmd.Args)
	}
}
