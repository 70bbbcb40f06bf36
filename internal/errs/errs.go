// Package errs defines the error kinds of spec §7 as small sentinel
// values. The safety monitor, the car link and the controller wrap their
// failures with them; of the binaries, only cmd/safety checks one with
// errors.Is (ErrAttach) to pick its message. Grounded in the teacher's kernel/utils/errors.go style of
// plain wrapped errors (fmt.Errorf("%w", ...)) rather than a custom error
// hierarchy.
package errs

import "errors"

// Sentinels for the error kinds named in spec §7. Concrete errors wrap
// one of these with fmt.Errorf("%w: %s", Kind, cause) so callers can both print
// a specific message and classify the failure with errors.Is.
var (
	// ErrUsage: wrong argv count/format.
	ErrUsage = errors.New("usage error")
	// ErrValidation: bad floor token, same-floor call, out-of-mode verb.
	ErrValidation = errors.New("validation error")
	// ErrAttach: shared region missing or unreadable.
	ErrAttach = errors.New("attach error")
	// ErrConnect: cannot reach controller.
	ErrConnect = errors.New("connect error")
	// ErrProtocol: unexpected or malformed message.
	ErrProtocol = errors.New("protocol error")
)
