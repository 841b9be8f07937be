// Package reconcile brings local SSH key files and accounts in line with the
// desired identity set.
//
// A run is strictly sequential: fetch the desired set, then for every
// identity write its key file and create its account if missing, then sweep
// key files that no longer belong to anyone. The first failure before the
// sweep stops the run; nothing already applied is rolled back.
package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/hnrobert/teamlogin/internal/directory"
	"github.com/hnrobert/teamlogin/internal/identity"
	"github.com/hnrobert/teamlogin/internal/logger"
)

// Directory is the remote source of truth.
type Directory interface {
	Identities(ctx context.Context) ([]string, error)
	Keys(ctx context.Context, id string) ([]byte, error)
}

// KeyStore holds one key file per local username.
type KeyStore interface {
	Write(username string, material []byte) error
	List() ([]string, error)
	Remove(name string) error
}

// Provisioner creates and configures OS accounts.
type Provisioner interface {
	Exists(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, username string) error
	GrantGroup(ctx context.Context, username, group string) error
	SetShell(ctx context.Context, username, shell string) error
	SetQuota(ctx context.Context, username string, softGB, hardGB int, mount string) error
}

type Options struct {
	Prefix     string
	Group      string
	Shell      string
	QuotaGB    int
	QuotaMount string
}

const (
	DefaultGroup      = "dev-desktop-allow-ssh"
	DefaultShell      = "/usr/bin/bash"
	DefaultQuotaMount = "/"

	// MaxQuotaGB is 1 PiB; the hard limit is one more.
	MaxQuotaGB = 1 << 20
)

type Reconciler struct {
	dir      Directory
	keys     KeyStore
	accounts Provisioner
	opts     Options
}

// Summary describes a run that got at least as far as the sweep.
type Summary struct {
	Identities  int
	KeysWritten int
	Created     []string
	Pruned      []string
}

func New(dir Directory, keys KeyStore, accounts Provisioner, opts Options) (*Reconciler, error) {
	if opts.QuotaGB <= 0 || opts.QuotaGB > MaxQuotaGB {
		return nil, fmt.Errorf("quota must be between 1 and %d GB, got %d", MaxQuotaGB, opts.QuotaGB)
	}
	if opts.Prefix == "" {
		opts.Prefix = identity.DefaultPrefix
	}
	if opts.Group == "" {
		opts.Group = DefaultGroup
	}
	if opts.Shell == "" {
		opts.Shell = DefaultShell
	}
	if opts.QuotaMount == "" {
		opts.QuotaMount = DefaultQuotaMount
	}
	return &Reconciler{dir: dir, keys: keys, accounts: accounts, opts: opts}, nil
}

// Run performs one full reconciliation. A returned error that is a prune
// failure (see IsPruneOnly) still comes with a complete Summary.
func (r *Reconciler) Run(ctx context.Context) (*Summary, error) {
	ids, err := r.dir.Identities(ctx)
	if err != nil {
		return nil, &Error{Step: StepFetchIdentities, Err: err}
	}
	if len(ids) == 0 {
		logger.Warn("desired set is empty; every managed key file will be revoked")
	}
	logger.Info("desired set has %d identities", len(ids))

	res, err := r.Apply(ctx, ids)
	if err != nil {
		return nil, err
	}

	pruned, err := NewPruner(r.keys, r.opts.Prefix).Prune(res.Current)
	return &Summary{
		Identities:  len(ids),
		KeysWritten: res.KeysWritten,
		Created:     res.Created,
		Pruned:      pruned.Removed,
	}, err
}

// ApplyResult is what Apply got done.
type ApplyResult struct {
	// Current holds the local username of every identity processed.
	Current     map[string]struct{}
	KeysWritten int
	Created     []string
}

// Apply writes key files and provisions missing accounts for ids, in
// order. It stops at the first failure and returns what was done so far.
func (r *Reconciler) Apply(ctx context.Context, ids []string) (*ApplyResult, error) {
	res := &ApplyResult{Current: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		created, err := r.applyOne(ctx, id, res)
		if err != nil {
			return res, err
		}
		if created {
			res.Created = append(res.Created, identity.LocalUsername(r.opts.Prefix, id))
		}
	}
	return res, nil
}

func (r *Reconciler) applyOne(ctx context.Context, id string, res *ApplyResult) (bool, error) {
	username := identity.LocalUsername(r.opts.Prefix, id)
	fail := func(step Step, err error) error {
		return &Error{Step: step, Identity: id, Username: username, Err: err}
	}
	if !identity.ValidUsername(username) {
		return false, fail(StepValidate, errors.New("not a valid local username"))
	}
	res.Current[username] = struct{}{}

	// Keys are refreshed on every run so rotations propagate.
	material, err := r.dir.Keys(ctx, id)
	if err != nil {
		return false, fail(StepFetchKeys, err)
	}
	if err := r.keys.Write(username, material); err != nil {
		return false, fail(StepWriteKeys, err)
	}
	res.KeysWritten++
	n := directory.CountKeys(material)
	if n == 0 {
		logger.Warn("no usable keys published for %s", logger.Sanitize(id))
	}

	exists, err := r.accounts.Exists(ctx, username)
	if err != nil {
		return false, fail(StepLookup, err)
	}
	if exists {
		// Existing accounts are never modified.
		logger.Info("refreshed %d keys for %s", n, username)
		return false, nil
	}

	if err := r.accounts.Create(ctx, username); err != nil {
		return false, fail(StepCreate, err)
	}
	if err := r.accounts.GrantGroup(ctx, username, r.opts.Group); err != nil {
		return false, fail(StepGroup, err)
	}
	if err := r.accounts.SetShell(ctx, username, r.opts.Shell); err != nil {
		return false, fail(StepShell, err)
	}
	if err := r.accounts.SetQuota(ctx, username, r.opts.QuotaGB, r.opts.QuotaGB+1, r.opts.QuotaMount); err != nil {
		return false, fail(StepQuota, err)
	}
	logger.Info("created %s with %d keys (quota %dG/%dG on %s)",
		username, n, r.opts.QuotaGB, r.opts.QuotaGB+1, r.opts.QuotaMount)
	return true, nil
}
