package core

import (
	"errors"
	"fmt"
)

var (
	ErrAuthentication   = errors.New("wrong key")
	ErrAuthorization    = errors.New("missing access rights")
	ErrDuplicate        = errors.New("duplicate key")
	ErrInvalid          = errors.New("invalid input")
	ErrMalformedVersion = errors.New("malformed version")
	ErrNotFound         = errors.New("not found")
	ErrRemoteTerminal   = errors.New("remote journal failure")
	ErrRemoteTransient  = errors.New("remote journal temporarily unavailable")
	ErrUnconfiguredRole = errors.New("unconfigured role")
)

// UnconfiguredRoleError is returned if the role/stage table has no entry. It is a configuration error and must not be ignored.
type UnconfiguredRoleError struct {
	Role  Role
	Stage int
}

func (e *UnconfiguredRoleError) Error() string {
	return fmt.Sprintf("%v: role %d at stage %d", ErrUnconfiguredRole, e.Role, e.Stage)
}

func (e *UnconfiguredRoleError) Is(target error) bool {
	return target == ErrUnconfiguredRole
}

// RemoteError describes a failed call to the OJS gateway plugin.
// It always matches ErrRemoteTerminal because it is only returned once the retry budget is spent.
// If the last attempt failed with a 5xx status or a transport error, it matches ErrRemoteTransient as well.
type RemoteError struct {
	Endpoint  string
	Status    int // zero if no response was received
	Attempts  int
	Transient bool
	Err       error // transport error, if any
}

func (e *RemoteError) Error() string {
	var msg = fmt.Sprintf("%s failed after %d attempt(s)", e.Endpoint, e.Attempts)
	if e.Status != 0 {
		msg += fmt.Sprintf(": status %d", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RemoteError) Is(target error) bool {
	switch target {
	case ErrRemoteTerminal:
		return true
	case ErrRemoteTransient:
		return e.Transient
	}
	return false
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}
