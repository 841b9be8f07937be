package keystore

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/hnrobert/teamlogin/internal/hostfs"
)

func TestWriteCreatesDirAndOverwrites(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "authorized_keys")
	s := New(dir)

	if err := s.Write("gh-alice", []byte("key-1\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := s.Write("gh-alice", []byte("key-2\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	b, err := s.Read("gh-alice")
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "key-2\n" {
		t.Errorf("content = %q, want key-2", b)
	}

	// No suffix: sshd looks up the file by the bare username.
	if _, err := os.Stat(filepath.Join(dir, "gh-alice")); err != nil {
		t.Errorf("expected bare-name key file: %v", err)
	}
}

func TestWriteRejectsBadNames(t *testing.T) {
	s := New(t.TempDir())
	for _, name := range []string{"", "..", "gh-a/b"} {
		if err := s.Write(name, []byte("k")); !errors.Is(err, ErrFilesystem) {
			t.Errorf("Write(%q) error = %v, want ErrFilesystem", name, err)
		}
	}
}

func TestListSkipsNonRegularAndTempFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"gh-bob", "gh-alice", "root", hostfs.TempPrefix + "123"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("k"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "gh-dir"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(filepath.Join(dir, "gh-bob"), filepath.Join(dir, "gh-link")); err != nil {
		t.Fatal(err)
	}

	got, err := New(dir).List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if want := []string{"gh-alice", "gh-bob", "root"}; !reflect.DeepEqual(got, want) {
		t.Errorf("List = %v, want %v", got, want)
	}
}

func TestListMissingDir(t *testing.T) {
	got, err := New(filepath.Join(t.TempDir(), "nope")).List()
	if err != nil || len(got) != 0 {
		t.Errorf("List = %v, %v; want empty, nil", got, err)
	}
}

func TestRemove(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	if err := s.Write("gh-carol", []byte("k")); err != nil {
		t.Fatal(err)
	}
	if err := s.Remove("gh-carol"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "gh-carol")); !os.IsNotExist(err) {
		t.Errorf("file still present: %v", err)
	}
	if err := s.Remove("gh-carol"); err != nil {
		t.Errorf("removing a missing file should succeed: %v", err)
	}
}

func TestOpenResolvesUnderRoot(t *testing.T) {
	root := t.TempDir()
	s, err := Open(root, DefaultDir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if want := filepath.Join(root, "etc/ssh/authorized_keys"); s.Dir() != want {
		t.Errorf("Dir = %q, want %q", s.Dir(), want)
	}
	if _, err := Open(root, "relative/dir"); !errors.Is(err, ErrFilesystem) {
		t.Errorf("Open(relative) error = %v, want ErrFilesystem", err)
	}
}
