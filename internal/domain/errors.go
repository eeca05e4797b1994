package domain

import "errors"

// Validation errors - rejected before any state mutation, retry with fixed input.
var (
	ErrInvalidConfig      = errors.New("invalid configuration")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidStaleness   = errors.New("staleness out of bounds")
	ErrStalenessTooLow    = errors.New("staleness below minimum")
	ErrStalenessTooHigh   = errors.New("staleness above maximum")
	ErrInvalidCoordinator = errors.New("invalid coordinator address")
	ErrInvalidToken       = errors.New("invalid token address")
	ErrInvalidKeyHash     = errors.New("invalid key lane hash")
	ErrInvalidAdmin       = errors.New("invalid admin address")
	ErrIndexOutOfBounds   = errors.New("index out of bounds")
)

// Authorization errors.
var ErrUnauthorized = errors.New("unauthorized")

// State errors - wrong lifecycle phase, expected steady-state outcomes.
var (
	ErrAlreadyInitialized        = errors.New("already initialized")
	ErrNotInitialized            = errors.New("not initialized")
	ErrAlreadyJoined             = errors.New("game already has a second player")
	ErrSelfJoin                  = errors.New("cannot join own game")
	ErrAlreadyCompleted          = errors.New("game already completed")
	ErrNotJoined                 = errors.New("game has no second player yet")
	ErrUnknownRequest            = errors.New("unknown randomness request")
	ErrAlreadyFulfilled          = errors.New("request already fulfilled")
	ErrRandomnessNotRequested    = errors.New("randomness never requested")
	ErrSubscriptionNotSet        = errors.New("no active subscription")
	ErrSubscriptionAlreadyExists = errors.New("subscription already exists")
)

// Timing errors - outside the staleness window; waiting may help, staleness never recovers.
var (
	ErrTooFresh = errors.New("action attempted too early")
	ErrTooStale = errors.New("action attempted too late")
)

// External dependency errors.
var (
	ErrRandomnessNotReady = errors.New("randomness not yet fulfilled")
	ErrTransferFailed     = errors.New("token transfer failed")
)

// Integrity errors.
var ErrInvalidRandomness = errors.New("degenerate randomness value")

// ErrorKind buckets errors by the recovery strategy available to the caller.
type ErrorKind string

const (
	KindValidation    ErrorKind = "validation"
	KindAuthorization ErrorKind = "authorization"
	KindState         ErrorKind = "state"
	KindTiming        ErrorKind = "timing"
	KindExternal      ErrorKind = "external"
	KindIntegrity     ErrorKind = "integrity"
	KindUnknown       ErrorKind = "unknown"
)

var kindTable = []struct {
	kind ErrorKind
	errs []error
}{
	{KindValidation, []error{
		ErrInvalidConfig, ErrInvalidArgument, ErrInvalidStaleness,
		ErrStalenessTooLow, ErrStalenessTooHigh, ErrInvalidCoordinator,
		ErrInvalidToken, ErrInvalidKeyHash, ErrInvalidAdmin, ErrIndexOutOfBounds,
	}},
	{KindAuthorization, []error{ErrUnauthorized}},
	{KindState, []error{
		ErrAlreadyInitialized, ErrNotInitialized, ErrAlreadyJoined, ErrSelfJoin,
		ErrAlreadyCompleted, ErrNotJoined, ErrUnknownRequest, ErrAlreadyFulfilled,
		ErrRandomnessNotRequested, ErrSubscriptionNotSet, ErrSubscriptionAlreadyExists,
	}},
	{KindTiming, []error{ErrTooFresh, ErrTooStale}},
	{KindExternal, []error{ErrRandomnessNotReady, ErrTransferFailed}},
	{KindIntegrity, []error{ErrInvalidRandomness}},
}

// Kind classifies an error into its taxonomy bucket.
func Kind(err error) ErrorKind {
	for _, row := range kindTable {
		for _, e := range row.errs {
			if errors.Is(err, e) {
				return row.kind
			}
		}
	}
	return KindUnknown
}
