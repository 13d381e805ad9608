package user

import "github.com/pkg/errors"

var (
	ErrNotFound    = errors.New("user not found")
	ErrEmailExists = errors.New("a user with this email already exists")

	errInvalidToken = errors.New("invalid token")
	errTokenExpired = errors.New("token expired")
)

// Auth error codes, in the identity-provider format the clients already know.
const (
	CodeMissingCredentials = "auth/missing-credentials"
	CodeInvalidEmail       = "auth/invalid-email"
	CodeUserDisabled       = "auth/user-disabled"
	CodeUserNotFound       = "auth/user-not-found"
	CodeWrongPassword      = "auth/wrong-password"
	CodeInvalidCredential  = "auth/invalid-credential"
	CodeEmailInUse         = "auth/email-already-in-use"
	CodeWeakPassword       = "auth/weak-password"
	CodePasswordTooSimilar = "auth/password-too-similar"
)

const unknownAuthMessage = "An unknown authentication error occurred."

var authMessages = map[string]string{
	CodeMissingCredentials: "Email and password cannot be empty.",
	CodeInvalidEmail:       "The email address is not valid.",
	CodeUserDisabled:       "This account has been disabled.",
	CodeUserNotFound:       "Invalid email or password.",
	CodeWrongPassword:      "Invalid email or password.",
	CodeInvalidCredential:  "Invalid email or password.",
	CodeEmailInUse:         "This email is already in use.",
	CodeWeakPassword:       "Password should be at least 6 characters.",
	CodePasswordTooSimilar: "Password cannot be similar to your email.",
}

// Message returns the text shown to users for an auth error code.
func Message(code string) string {
	if msg, ok := authMessages[code]; ok {
		return msg
	}
	return unknownAuthMessage
}

type AuthError struct {
	Code string
}

func NewAuthError(code string) error {
	return &AuthError{Code: code}
}

func (e *AuthError) Error() string { return Message(e.Code) }

// AsAuthError unwraps err into an *AuthError.
func AsAuthError(err error) (*AuthError, bool) {
	aErr, ok := errors.Cause(err).(*AuthError)
	return aErr, ok
}
