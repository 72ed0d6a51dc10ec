// Package lifecycle drives one analysis attempt from user input to a rendered
// report or an error banner.
//
// The state machine is a pure function, [Transition], from a [State] and an
// [Event] to the next State plus the [Effect] values a shell must apply (show
// a spinner, dispatch the call, render the result). [Controller] wraps it
// with the two impure steps, parsing the input and calling the analysis
// service, so that both the interactive view and the plain CLI command drive
// exactly the same transitions.
//
//	idle ──Submitted──▶ validating ──Parsed──▶ loading ──Resolved──▶ success
//	                         │                    │
//	                    ParseFailed           Rejected
//	                         ▼                    ▼
//	                       error                error
//
// Success and error accept a new submission; loading ignores it.
package lifecycle

import (
	"strings"

	"github.com/matzehuels/depview/pkg/analysis"
	"github.com/matzehuels/depview/pkg/errors"
	"github.com/matzehuels/depview/pkg/i18n"
	"github.com/matzehuels/depview/pkg/repo"
)

// Phase is the coarse lifecycle position.
type Phase int

const (
	Idle Phase = iota
	Validating
	Loading
	Success
	Error
)

var phaseNames = [...]string{"idle", "validating", "loading", "success", "error"}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// BannerKind tells which banner, if any, is showing.
type BannerKind int

const (
	NoBanner BannerKind = iota
	ErrorBanner
	SuccessBanner
)

// Banner is the status line shown above the results.
type Banner struct {
	Kind    BannerKind
	Message string
}

// State is the controller's view of the current attempt.
type State struct {
	Phase  Phase
	Input  string         // trimmed input of the current attempt
	Ref    repo.Reference // set once the input parsed
	Result *analysis.Result
	Err    error // failure that ended the attempt, if any
	Banner Banner
}

// TriggerEnabled reports whether a new submission would be accepted.
func (s State) TriggerEnabled() bool { return s.Phase != Loading }

// Busy reports whether an analysis call is in flight.
func (s State) Busy() bool { return s.Phase == Loading }

// Event is something that happened to the attempt.
type Event interface{ event() }

type (
	// Submitted is a user request to analyze Raw.
	Submitted struct{ Raw string }
	// Parsed reports that the input names Ref.
	Parsed struct{ Ref repo.Reference }
	// ParseFailed reports that the input is not a repository URL.
	ParseFailed struct{ Err error }
	// Resolved carries a successful analysis.
	Resolved struct{ Result *analysis.Result }
	// Rejected carries a failed analysis call.
	Rejected struct{ Err error }
)

func (Submitted) event()   {}
func (Parsed) event()      {}
func (ParseFailed) event() {}
func (Resolved) event()    {}
func (Rejected) event()    {}

// Effect is an instruction for the shell. Effects are applied in the order
// they are returned.
type Effect interface{ effect() }

type (
	// Validate asks for Raw to be parsed; the outcome is fed back as Parsed
	// or ParseFailed.
	Validate struct{ Raw string }
	// DisableTrigger blocks new submissions.
	DisableTrigger struct{}
	// EnableTrigger accepts new submissions again.
	EnableTrigger struct{}
	// ShowLoading displays the progress indicator.
	ShowLoading struct{}
	// HideLoading removes the progress indicator.
	HideLoading struct{}
	// ClearBanners removes error and success banners.
	ClearBanners struct{}
	// Dispatch starts the analysis call; its outcome is fed back as
	// Resolved or Rejected.
	Dispatch struct{ Request analysis.Request }
	// Render displays a successful result.
	Render struct{ Result *analysis.Result }
	// ShowError displays an error banner.
	ShowError struct{ Message string }
	// ShowSuccess displays a success banner.
	ShowSuccess struct{ Message string }
)

func (Validate) effect()       {}
func (DisableTrigger) effect() {}
func (EnableTrigger) effect()  {}
func (ShowLoading) effect()    {}
func (HideLoading) effect()    {}
func (ClearBanners) effect()   {}
func (Dispatch) effect()       {}
func (Render) effect()         {}
func (ShowError) effect()      {}
func (ShowSuccess) effect()    {}

// Transition computes the state following ev. Events a phase does not expect
// leave the state unchanged and produce no effects.
//
// The Dispatch effect carries a request without a correlation ID; the
// controller assigns one.
func Transition(s State, ev Event, labels i18n.Labeler) (State, []Effect) {
	switch ev := ev.(type) {
	case Submitted:
		switch s.Phase {
		case Idle, Success, Error:
			raw := strings.TrimSpace(ev.Raw)
			return State{Phase: Validating, Input: raw}, []Effect{Validate{Raw: raw}}
		}

	case ParseFailed:
		if s.Phase == Validating {
			msg := labels.Label(i18n.KeyErrorMessage)
			s.Phase = Error
			s.Err = ev.Err
			s.Banner = Banner{Kind: ErrorBanner, Message: msg}
			return s, []Effect{ShowError{Message: msg}}
		}

	case Parsed:
		if s.Phase == Validating {
			s.Phase = Loading
			s.Ref = ev.Ref
			s.Banner = Banner{}
			req := analysis.Request{Owner: ev.Ref.Owner, Repo: ev.Ref.Repo, SourceURL: s.Input}
			return s, []Effect{DisableTrigger{}, ShowLoading{}, ClearBanners{}, Dispatch{Request: req}}
		}

	case Resolved:
		if s.Phase == Loading {
			msg := labels.Label(i18n.KeySuccessMessage)
			s.Phase = Success
			s.Result = ev.Result
			s.Banner = Banner{Kind: SuccessBanner, Message: msg}
			return s, []Effect{EnableTrigger{}, HideLoading{}, Render{Result: ev.Result}, ShowSuccess{Message: msg}}
		}

	case Rejected:
		if s.Phase == Loading {
			msg := RejectionMessage(ev.Err, labels)
			s.Phase = Error
			s.Err = ev.Err
			s.Banner = Banner{Kind: ErrorBanner, Message: msg}
			return s, []Effect{EnableTrigger{}, HideLoading{}, ShowError{Message: msg}}
		}
	}
	return s, nil
}

// RejectionMessage is the banner text for a failed call: the service's own
// message when it sent one, the localized generic failure otherwise.
func RejectionMessage(err error, labels i18n.Labeler) string {
	if errors.Kind(err) == errors.ErrCodeService {
		if msg := errors.UserMessage(err); msg != "" {
			return msg
		}
	}
	return labels.Label(i18n.KeyFailureMessage)
}
