// Package keystore manages the directory of per-account authorized key
// files read by sshd (AuthorizedKeysFile /etc/ssh/authorized_keys/%u).
package keystore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/hnrobert/teamlogin/internal/hostfs"
)

// DefaultDir is the host path of the key file directory.
const DefaultDir = "/etc/ssh/authorized_keys/"

var ErrFilesystem = errors.New("filesystem error")

const (
	dirPerm  = 0755
	filePerm = 0644
)

// Store is one key file per local username, named exactly like the user.
type Store struct {
	dir string
}

func New(dir string) *Store {
	return &Store{dir: dir}
}

// Open resolves hostDir against the host root and returns a Store on it.
func Open(root, hostDir string) (*Store, error) {
	dir, err := hostfs.Resolve(root, hostDir)
	if err != nil {
		return nil, fmt.Errorf("%w: key dir %q: %v", ErrFilesystem, hostDir, err)
	}
	return New(dir), nil
}

func (s *Store) Dir() string {
	return s.dir
}

// Write replaces the key file for username.
func (s *Store) Write(username string, material []byte) error {
	p, err := hostfs.Join(s.dir, username)
	if err != nil {
		return fmt.Errorf("%w: key file for %q: %v", ErrFilesystem, username, err)
	}
	if err := hostfs.EnsureDir(s.dir, dirPerm); err != nil {
		return fmt.Errorf("%w: create %s: %v", ErrFilesystem, s.dir, err)
	}
	if err := hostfs.WriteFileAtomic(p, material, filePerm); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrFilesystem, p, err)
	}
	return nil
}

// Read returns the current content of a key file.
func (s *Store) Read(username string) ([]byte, error) {
	p, err := hostfs.Join(s.dir, username)
	if err != nil {
		return nil, fmt.Errorf("%w: key file for %q: %v", ErrFilesystem, username, err)
	}
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrFilesystem, p, err)
	}
	return b, nil
}

// List returns the names of regular files in the directory, sorted.
// A missing directory lists as empty.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: list %s: %v", ErrFilesystem, s.dir, err)
	}
	var names []string
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), hostfs.TempPrefix) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Remove deletes one key file. A file that is already gone is not an error.
func (s *Store) Remove(name string) error {
	p, err := hostfs.Join(s.dir, name)
	if err != nil {
		return fmt.Errorf("%w: key file %q: %v", ErrFilesystem, name, err)
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: remove %s: %v", ErrFilesystem, p, err)
	}
	return nil
}
