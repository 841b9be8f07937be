package reconcile

import (
	"errors"

	"github.com/hnrobert/teamlogin/internal/identity"
	"github.com/hnrobert/teamlogin/internal/logger"
)

// Pruner deletes managed key files whose user is no longer desired.
type Pruner struct {
	keys   KeyStore
	prefix string
}

type PruneResult struct {
	Removed []string
}

func NewPruner(keys KeyStore, prefix string) *Pruner {
	if prefix == "" {
		prefix = identity.DefaultPrefix
	}
	return &Pruner{keys: keys, prefix: prefix}
}

// Prune removes every key file that carries the managed prefix and is not
// in current. Files without the prefix are left alone. It keeps going past
// failed removals and returns them joined.
func (p *Pruner) Prune(current map[string]struct{}) (PruneResult, error) {
	var res PruneResult
	names, err := p.keys.List()
	if err != nil {
		return res, &Error{Step: StepPrune, Err: err}
	}
	var errs []error
	for _, name := range names {
		if !identity.Managed(p.prefix, name) {
			continue
		}
		if _, ok := current[name]; ok {
			continue
		}
		if err := p.keys.Remove(name); err != nil {
			logger.Error("failed to revoke %s: %v", name, err)
			errs = append(errs, &Error{Step: StepPrune, Username: name, Err: err})
			continue
		}
		logger.Info("revoked keys for %s", name)
		res.Removed = append(res.Removed, name)
	}
	return res, errors.Join(errs...)
}

// IsPruneOnly reports whether err consists solely of sweep failures, i.e.
// every desired identity was reconciled.
func IsPruneOnly(err error) bool {
	if err == nil {
		return false
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			if !IsPruneOnly(e) {
				return false
			}
		}
		return true
	}
	var re *Error
	return errors.As(err, &re) && re.Step == StepPrune
}
