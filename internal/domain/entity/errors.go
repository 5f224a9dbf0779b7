package entity

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrLoginDidNotComplete = errors.New("login did not complete")
	ErrSurfaceUnavailable  = errors.New("surface unavailable")

	ErrElementNotFound  = errors.New("element not found")
	ErrClickFailed      = errors.New("click failed")
	ErrNavigationFailed = errors.New("navigation failed")
	ErrSaveFailed       = errors.New("save failed")

	ErrRunInProgress = errors.New("another run is already in progress")
	ErrCancelled     = errors.New("run cancelled")
)

type AuthError struct {
	Kind error
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err == nil {
		return "auth: " + e.Kind.Error()
	}
	return fmt.Sprintf("auth: %v: %v", e.Kind, e.Err)
}

func (e *AuthError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

type DiscoveryError struct {
	Kind error
	Err  error
}

func (e *DiscoveryError) Error() string {
	if e.Err == nil {
		return "discovery: " + e.Kind.Error()
	}
	return fmt.Sprintf("discovery: %v: %v", e.Kind, e.Err)
}

func (e *DiscoveryError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// FillError never escapes a single item; the orchestrator logs it and moves on.
type FillError struct {
	Item string
	Op   string
	Kind error
	Err  error
}

func (e *FillError) Error() string {
	msg := fmt.Sprintf("fill %q: %s: %v", e.Item, e.Op, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FillError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}
