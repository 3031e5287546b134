package session

import "errors"

// Error taxonomy for every Store operation. Callers branch with errors.Is and
// render one message per kind; nothing in this package panics across the
// Store boundary.
var (
	// ErrInvalidCredentials covers bad password and unknown username alike,
	// so a caller cannot enumerate usernames.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrDuplicateIdentity means the email is already registered.
	ErrDuplicateIdentity = errors.New("email already registered")

	// ErrDuplicateProfile means the username is taken.
	ErrDuplicateProfile = errors.New("username already taken")

	// ErrServiceUnavailable is a transient failure talking to the credential
	// or profile store.
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrInconsistentState means a credential was created but the profile
	// insert failed: the identity now exists without a profile and needs a
	// retry path, so it must stay distinguishable from a generic failure.
	ErrInconsistentState = errors.New("credential created but profile creation failed")
)
