package reconcile

import (
	"errors"
	"reflect"
	"testing"
)

func set(names ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(names))
	for _, n := range names {
		m[n] = struct{}{}
	}
	return m
}

func TestPruneOnlyTouchesManagedOrphans(t *testing.T) {
	keys := newFakeKeys("gh-alice", "gh-carol", "gh-dave", "root", "deploy", "gh-")
	res, err := NewPruner(keys, "gh-").Prune(set("gh-alice"))
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if want := []string{"gh-carol", "gh-dave"}; !reflect.DeepEqual(res.Removed, want) {
		t.Errorf("removed = %v, want %v", res.Removed, want)
	}
	if want := []string{"deploy", "gh-", "gh-alice", "root"}; !reflect.DeepEqual(keys.names(), want) {
		t.Errorf("remaining = %v, want %v", keys.names(), want)
	}
}

func TestPruneContinuesPastFailures(t *testing.T) {
	keys := newFakeKeys("gh-a", "gh-b", "gh-c")
	keys.removeErr["gh-a"] = errors.New("permission denied")
	keys.removeErr["gh-c"] = errors.New("read-only file system")

	res, err := NewPruner(keys, "gh-").Prune(set())

	if !reflect.DeepEqual(res.Removed, []string{"gh-b"}) {
		t.Errorf("removed = %v, want [gh-b]", res.Removed)
	}
	if err == nil {
		t.Fatal("expected joined error")
	}
	var failed []string
	for _, e := range err.(interface{ Unwrap() []error }).Unwrap() {
		var re *Error
		if !errors.As(e, &re) || re.Step != StepPrune {
			t.Errorf("unexpected error %v", e)
			continue
		}
		failed = append(failed, re.Username)
	}
	if !reflect.DeepEqual(failed, []string{"gh-a", "gh-c"}) {
		t.Errorf("failed = %v, want [gh-a gh-c]", failed)
	}
	if !IsPruneOnly(err) {
		t.Error("IsPruneOnly should hold for sweep failures")
	}
}

func TestPruneListFailure(t *testing.T) {
	keys := newFakeKeys("gh-a")
	keys.listErr = errors.New("EACCES")

	res, err := NewPruner(keys, "gh-").Prune(set())
	var re *Error
	if !errors.As(err, &re) || re.Step != StepPrune || re.Username != "" {
		t.Fatalf("error = %v, want StepPrune without a username", err)
	}
	if len(res.Removed) != 0 {
		t.Errorf("removed = %v", res.Removed)
	}
	if !IsPruneOnly(err) {
		t.Error("a failed listing is still a sweep failure")
	}
}

func TestIsPruneOnly(t *testing.T) {
	if IsPruneOnly(nil) {
		t.Error("nil is not a prune failure")
	}
	if IsPruneOnly(&Error{Step: StepCreate, Err: errors.New("x")}) {
		t.Error("create failure is not a prune failure")
	}
	mixed := errors.Join(&Error{Step: StepPrune, Err: errors.New("x")}, errors.New("other"))
	if IsPruneOnly(mixed) {
		t.Error("mixed errors are not prune-only")
	}
}
