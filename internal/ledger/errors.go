package ledger

import "collections_console/platform/apperr"

// Sentinel errors shared by every ledger operation. Callers match these
// with errors.Is; the HTTP layer maps the underlying apperr kind.
var (
	// ErrAuthExpired is returned for any 401 from an authenticated
	// endpoint. The session must be invalidated and the agent sent back
	// to the login boundary.
	ErrAuthExpired = apperr.Unauthorized("session expired")

	// ErrUnreachable is returned for transport-level failures. Local
	// state is retained; the failure is a non-fatal notice.
	ErrUnreachable = apperr.Unavailable("ledger unreachable")
)
