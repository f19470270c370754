package gitinfo

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
}

func gitCmd(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
		"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com",
		"GIT_CONFIG_NOSYSTEM=1",
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git %v: %v\n%s", args, err, out)
	}
}

func TestLookup_Repository(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	gitCmd(t, dir, "init", "-q", "-b", "trunk")
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0o600); err != nil {
		t.Fatal(err)
	}
	gitCmd(t, dir, "add", "a.txt")
	gitCmd(t, dir, "-c", "commit.gpgsign=false", "commit", "-q", "-m", "init")

	info, err := Lookup(context.Background(), dir)
	if err != nil || info == nil {
		t.Fatalf("Lookup = %v, %v", info, err)
	}
	if info.Branch != "trunk" || info.Dirty {
		t.Errorf("info = %+v, want clean trunk", info)
	}

	if err := os.WriteFile(filepath.Join(dir, "b.txt"), []byte("b"), 0o600); err != nil {
		t.Fatal(err)
	}
	info, err = Lookup(context.Background(), dir)
	if err != nil || info == nil || !info.Dirty {
		t.Errorf("Lookup after edit = %+v, %v, want dirty", info, err)
	}
}

func TestLookup_NotARepository(t *testing.T) {
	requireGit(t)
	t.Setenv("GIT_CEILING_DIRECTORIES", os.TempDir())

	info, err := Lookup(context.Background(), t.TempDir())
	if info != nil || err != nil {
		t.Errorf("Lookup = %+v, %v; want nil, nil", info, err)
	}
}

func TestLookup_EmptyDir(t *testing.T) {
	if info, err := Lookup(context.Background(), ""); info != nil || err != nil {
		t.Errorf("Lookup(\"\") = %+v, %v", info, err)
	}
}
