package middleware

import (
	"context"

	"github.com/farmily/fhs/auth"
)

// AuthState is a position in the authentication state machine.
type AuthState int

const (
	StateNoHeader AuthState = iota
	StateHeaderPresent
	StateTokenExtracted
	StateValid
	StateInvalid
	StateContextSet
	StateContextEmpty
)

var stateNames = map[AuthState]string{
	StateNoHeader:       "no_header",
	StateHeaderPresent:  "header_present",
	StateTokenExtracted: "token_extracted",
	StateValid:          "valid",
	StateInvalid:        "invalid",
	StateContextSet:     "context_set",
	StateContextEmpty:   "context_empty",
}

// String implements fmt.Stringer
func (s AuthState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Terminal reports whether no further stage runs after s
func (s AuthState) Terminal() bool {
	return s == StateContextSet || s == StateContextEmpty
}

// Exchange is the value threaded through the pipeline stages.
// Stages return a modified copy and never touch the request.
type Exchange struct {
	State AuthState
	// Header is the raw Authorization header value.
	Header string
	Token  string
	// Subject is the token's sub claim once the signature has verified.
	Subject string
	// Bound is an identity already present on the request context.
	Bound *auth.Identity
	// Identity is the identity to bind on success.
	Identity *auth.Identity
	// Reason explains the outcome for logs and metrics. It is never sent to clients.
	Reason string
}

// NewExchange starts an exchange from the Authorization header and any
// identity already bound on ctx.
func NewExchange(ctx context.Context, header string) Exchange {
	ex := Exchange{
		State:  StateNoHeader,
		Header: header,
		Bound:  auth.IdentityFromContext(ctx),
	}
	if header != "" {
		ex.State = StateHeaderPresent
	}
	return ex
}

// Stage is one step of the pipeline. A stage may only move the exchange
// forward; it signals rejection by setting StateInvalid or StateContextEmpty.
type Stage func(ctx context.Context, ex Exchange) Exchange

// Pipeline runs stages in order until one reaches a terminal state.
type Pipeline struct {
	stages []Stage
}

// NewPipeline composes stages into a pipeline
func NewPipeline(stages ...Stage) *Pipeline {
	return &Pipeline{stages: stages}
}

// Run drives ex through the stages. An Invalid exchange is finalized as
// ContextEmpty with no identity. The result is always terminal.
func (p *Pipeline) Run(ctx context.Context, ex Exchange) Exchange {
	for _, stage := range p.stages {
		if ex.State.Terminal() {
			break
		}
		if ctx.Err() != nil {
			return empty(ex, "canceled")
		}
		ex = stage(ctx, ex)
		if ex.State == StateInvalid {
			return empty(ex, ex.Reason)
		}
	}
	if !ex.State.Terminal() {
		return empty(ex, "incomplete")
	}
	return ex
}

func empty(ex Exchange, reason string) Exchange {
	ex.State = StateContextEmpty
	ex.Identity = nil
	ex.Reason = reason
	return ex
}

func invalid(ex Exchange, reason string) Exchange {
	ex.State = StateInvalid
	ex.Identity = nil
	ex.Reason = reason
	return ex
}
