// Package presentation drives the Mini App screens: a small view state
// machine, the App that moves it through one user action, and the
// html/template renderer.
package presentation

import (
	"errors"
	"fmt"

	"go-glow-ai/pkg/models"
)

// State is the screen currently shown.
type State string

const (
	StateIdle           State = "idle"
	StateLoading        State = "loading"
	StateError          State = "error"
	StateResultLocked   State = "result-locked"
	StateResultUnlocked State = "result-unlocked"
)

// ErrIllegalTransition is returned when a transition is not allowed from the
// current state.
var ErrIllegalTransition = errors.New("illegal view transition")

// View is the state of one Mini App screen. It lives for a single request;
// anything that must survive is carried by the page itself.
type View struct {
	State State

	// Result is set in both result states.
	Result *models.AnalysisResult
	// Preview is a data URI of the uploaded photo, when available.
	Preview string

	// ErrorMessage is set in the error state.
	ErrorMessage string
	// ShowUpload offers the upload form next to the error.
	ShowUpload bool

	// Subscribed is remembered across Reset.
	Subscribed bool
	// GateMessage explains a failed explicit subscription check.
	GateMessage string

	// InitData is echoed back in forms so later actions can identify the
	// user.
	InitData string
}

// NewView returns an idle view.
func NewView(subscribed bool) *View {
	return &View{State: StateIdle, Subscribed: subscribed}
}

func (v *View) transition(to State, from ...State) error {
	for _, s := range from {
		if v.State == s {
			v.State = to
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, v.State, to)
}

// Start enters loading. Retrying from the error screen is allowed.
func (v *View) Start() error {
	if err := v.transition(StateLoading, StateIdle, StateError); err != nil {
		return err
	}
	v.ErrorMessage = ""
	v.ShowUpload = false
	return nil
}

// Fail shows message, optionally with the upload form.
func (v *View) Fail(message string, showUpload bool) error {
	if err := v.transition(StateError, StateLoading); err != nil {
		return err
	}
	v.ErrorMessage = message
	v.ShowUpload = showUpload
	return nil
}

// Lock shows result behind the subscription overlay.
func (v *View) Lock(result *models.AnalysisResult) error {
	if result == nil {
		return errors.New("lock: nil result")
	}
	if err := v.transition(StateResultLocked, StateLoading); err != nil {
		return err
	}
	v.Result = result
	return nil
}

// Unlock reveals the result and remembers the subscription.
func (v *View) Unlock() error {
	if err := v.transition(StateResultUnlocked, StateResultLocked); err != nil {
		return err
	}
	v.Subscribed = true
	v.GateMessage = ""
	return nil
}

// DenyUnlock keeps the result locked and records why.
func (v *View) DenyUnlock(message string) error {
	if v.State != StateResultLocked {
		return fmt.Errorf("%w: deny unlock in %s", ErrIllegalTransition, v.State)
	}
	v.GateMessage = message
	return nil
}

// Reset returns to idle from any state. The subscription flag survives.
func (v *View) Reset() {
	*v = View{State: StateIdle, Subscribed: v.Subscribed, InitData: v.InitData}
}
