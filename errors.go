package passauth

import (
	"errors"
	"fmt"
)

const (
	// EConfiguration represents a disabled or misconfigured passkey
	// subsystem.
	EConfiguration ErrCode = "configuration"
	// EInvalidField represents a missing or malformed entity field.
	EInvalidField ErrCode = "invalid_field"
	// ENotFound represents a reference to a user that does not exist.
	ENotFound ErrCode = "not_found"
	// EChallengeExpired represents a challenge that is missing, already
	// consumed, or past its deadline.
	EChallengeExpired ErrCode = "challenge_expired"
	// EEnrollmentRequired represents an authentication attempt for an
	// account with no registered credentials.
	EEnrollmentRequired ErrCode = "enrollment_required"
	// ECredentialNotFound represents a response referencing an unknown
	// or revoked credential.
	ECredentialNotFound ErrCode = "credential_not_found"
	// EVerification represents a response rejected by cryptographic
	// verification.
	EVerification ErrCode = "verification_failed"
	// EThrottle represents a rate limited request.
	EThrottle ErrCode = "throttled"
	// EInternal represents an internal error outside of our domain.
	EInternal ErrCode = "internal"
)

// Error represents an error within the passauth domain.
type Error interface {
	Error() string
	Code() ErrCode
	Message() string
}

// ErrCode is a machine readable code representing an error
// within the passauth domain.
type ErrCode string

// ErrConfiguration represents an error due to passkey support
// being disabled or incomplete.
type ErrConfiguration string

func (e ErrConfiguration) Code() ErrCode   { return EConfiguration }
func (e ErrConfiguration) Message() string { return string(e) }
func (e ErrConfiguration) Error() string   { return fmt.Sprintf("[%s] %s", e.Code(), string(e)) }

// ErrInvalidField represents an error related to missing or invalid
// entity fields supplied to a repository or service.
type ErrInvalidField string

func (e ErrInvalidField) Code() ErrCode   { return EInvalidField }
func (e ErrInvalidField) Message() string { return string(e) }
func (e ErrInvalidField) Error() string   { return fmt.Sprintf("[%s] %s", e.Code(), string(e)) }

// ErrNotFound represents an error due to a missing user account.
type ErrNotFound string

func (e ErrNotFound) Code() ErrCode   { return ENotFound }
func (e ErrNotFound) Message() string { return string(e) }
func (e ErrNotFound) Error() string   { return fmt.Sprintf("[%s] %s", e.Code(), string(e)) }

// ErrChallengeExpired represents an error due to a challenge that can
// no longer complete a ceremony. Callers should treat expiry and prior
// consumption as equivalent.
type ErrChallengeExpired string

func (e ErrChallengeExpired) Code() ErrCode   { return EChallengeExpired }
func (e ErrChallengeExpired) Message() string { return string(e) }
func (e ErrChallengeExpired) Error() string   { return fmt.Sprintf("[%s] %s", e.Code(), string(e)) }

// ErrEnrollmentRequired represents an authentication attempt by an
// account that has not yet registered an authenticator.
type ErrEnrollmentRequired string

func (e ErrEnrollmentRequired) Code() ErrCode   { return EEnrollmentRequired }
func (e ErrEnrollmentRequired) Message() string { return string(e) }
func (e ErrEnrollmentRequired) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code(), string(e))
}

// ErrCredentialNotFound represents a response referencing a credential
// we do not hold or no longer trust.
type ErrCredentialNotFound string

func (e ErrCredentialNotFound) Code() ErrCode   { return ECredentialNotFound }
func (e ErrCredentialNotFound) Message() string { return string(e) }
func (e ErrCredentialNotFound) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code(), string(e))
}

// ErrVerification represents a rejected authenticator response.
type ErrVerification string

func (e ErrVerification) Code() ErrCode   { return EVerification }
func (e ErrVerification) Message() string { return string(e) }
func (e ErrVerification) Error() string   { return fmt.Sprintf("[%s] %s", e.Code(), string(e)) }

// ErrThrottle represents a rate limited request.
type ErrThrottle string

func (e ErrThrottle) Code() ErrCode   { return EThrottle }
func (e ErrThrottle) Message() string { return string(e) }
func (e ErrThrottle) Error() string   { return fmt.Sprintf("[%s] %s", e.Code(), string(e)) }

// DomainError returns a domain error if available.
func DomainError(err error) Error {
	if err == nil {
		return nil
	}

	var e Error
	if errors.As(err, &e) {
		return e
	}

	return nil
}

// ErrorCode returns the code associated with a domain error.
// If an error is not part of the passauth domain, it returns EInternal.
func ErrorCode(err error) ErrCode {
	if err == nil {
		return ErrCode("")
	}

	e := DomainError(err)
	if e == nil {
		return EInternal
	}

	return e.Code()
}
