package reconcile

import (
	"errors"
	"fmt"

	"github.com/hnrobert/teamlogin/internal/logger"
)

// Step names the operation a run was performing when it failed.
type Step string

const (
	StepFetchIdentities Step = "fetch identities"
	StepValidate        Step = "validate username"
	StepFetchKeys       Step = "fetch keys"
	StepWriteKeys       Step = "write key file"
	StepLookup          Step = "lookup account"
	StepCreate          Step = "create account"
	StepGroup           Step = "grant group"
	StepShell           Step = "set shell"
	StepQuota           Step = "set quota"
	StepPrune           Step = "remove key file"
)

// Provisioning reports whether the step mutates the OS account.
func (s Step) Provisioning() bool {
	switch s {
	case StepCreate, StepGroup, StepShell, StepQuota:
		return true
	}
	return false
}

// ErrProvision matches any Error raised by a provisioning step.
var ErrProvision = errors.New("provisioning failed")

// Error is a failed step, with the identity it was working on when there
// was one.
type Error struct {
	Step     Step
	Identity string
	Username string
	Err      error
}

func (e *Error) Error() string {
	switch {
	case e.Identity != "":
		return fmt.Sprintf("%s for %s (%s): %v", e.Step,
			logger.Sanitize(e.Identity), logger.Sanitize(e.Username), e.Err)
	case e.Username != "":
		return fmt.Sprintf("%s %s: %v", e.Step, logger.Sanitize(e.Username), e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Step, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	return target == ErrProvision && e.Step.Provisioning()
}
