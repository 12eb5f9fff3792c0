package task

import "context"

// DependsMiddleware attaches shared, long-lived collaborator handles to
// every invocation before execution, so that task bodies and the
// notification dispatcher never reach into global mutable state. The
// handles are fixed at construction and shared read-only across
// invocations; applying the middleware more than once is a no-op.
type DependsMiddleware struct {
	deps Deps
}

// NewDependsMiddleware creates the middleware with the given handles.
func NewDependsMiddleware(sender Sender, localizer Localizer) *DependsMiddleware {
	return &DependsMiddleware{deps: Deps{Sender: sender, Localizer: localizer}}
}

// BeforeExecute merges the collaborator handles into the invocation.
func (m *DependsMiddleware) BeforeExecute(_ context.Context, inv *Invocation) {
	inv.Deps = m.deps
}
