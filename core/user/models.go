package user

import (
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/brighttutor/brightdesk/core"
)

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	IsActive     bool      `json:"is_active"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`           // UTC
	UpdatedAt    time.Time `json:"updated_at"`           // UTC
	LastLogin    time.Time `json:"last_login,omitempty"` // UTC; zero until the first sign-in
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

// Credentials are what a visitor types in the sign-in and sign-up forms.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Clean normalizes the email and reports the checks every auth operation shares.
func (c *Credentials) Clean(validate *validator.Validate) error {
	c.Email = core.CleanString(c.Email, true /* lower */)
	if c.Email == "" || c.Password == "" {
		return NewAuthError(CodeMissingCredentials)
	}
	if err := validate.Var(c.Email, "email"); err != nil {
		return NewAuthError(CodeInvalidEmail)
	}
	return nil
}

type ResetPassword struct {
	UID             string `json:"uid" validate:"required"`
	Token           string `json:"token" validate:"required"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (rp ResetPassword) Validate(validate *validator.Validate) error { return validate.Struct(rp) }
