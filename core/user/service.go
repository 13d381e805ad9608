package user

import (
	"context"
	"net/mail"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/brighttutor/brightdesk/core"
)

type (
	Repository interface {
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUserByID(ctx context.Context, id string) (User, error)
		GetUserByEmail(ctx context.Context, email string) (User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
	}

	ServiceInterface interface {
		SignUp(ctx context.Context, creds Credentials) (User, error)
		SignIn(ctx context.Context, creds Credentials) (User, error)
		GetByID(ctx context.Context, id string) (User, error)
		GetByEmail(ctx context.Context, email string) (User, error)
		RequestPasswordReset(ctx context.Context, email string) error
		ResetPassword(ctx context.Context, data ResetPassword) error
		SetPassword(ctx context.Context, email, pwd string) error
		SetActive(ctx context.Context, email string, active bool) error
	}

	service struct {
		repo     Repository
		mailSvc  core.EmailService
		validate *validator.Validate
		tokens   *tokenGenerator
		now      func() time.Time
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(conf *core.Config, repo Repository, mailSvc core.EmailService, validate *validator.Validate) ServiceInterface {
	return newService(conf, repo, mailSvc, validate)
}

func newService(conf *core.Config, repo Repository, mailSvc core.EmailService, validate *validator.Validate) *service {
	return &service{
		repo:     repo,
		mailSvc:  mailSvc,
		validate: validate,
		tokens:   newTokenGenerator(conf.SecretKey, conf.Server.PasswordResetTimeoutDelta),
		now:      time.Now,
	}
}

func (svc *service) SignUp(ctx context.Context, creds Credentials) (User, error) {
	if err := creds.Clean(svc.validate); err != nil {
		return User{}, err
	}
	if code := checkPassword(creds.Password, creds.Email); code != "" {
		return User{}, NewAuthError(code)
	}

	now := svc.now().UTC()
	usr := User{
		Email:     creds.Email,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
		LastLogin: now, // signing up signs in
	}
	if err := usr.SetPassword(creds.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}

	usr, err := svc.repo.CreateUser(ctx, usr)
	if err != nil {
		if errors.Cause(err) == ErrEmailExists {
			return User{}, NewAuthError(CodeEmailInUse)
		}
		return User{}, errors.Wrap(err, "creating user")
	}
	return usr, nil
}

func (svc *service) SignIn(ctx context.Context, creds Credentials) (User, error) {
	if err := creds.Clean(svc.validate); err != nil {
		return User{}, err
	}

	usr, err := svc.repo.GetUserByEmail(ctx, creds.Email)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return User{}, NewAuthError(CodeUserNotFound)
		}
		return User{}, errors.Wrap(err, "finding user by email")
	}
	if err = usr.CheckPassword(creds.Password); err != nil {
		return User{}, NewAuthError(CodeWrongPassword)
	}
	if !usr.IsActive {
		return User{}, NewAuthError(CodeUserDisabled)
	}

	usr.LastLogin = svc.now().UTC()
	usr, err = svc.repo.UpdateUser(ctx, usr)
	return usr, errors.Wrap(err, "setting lastLogin")
}

func (svc *service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}

func (svc *service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !usr.IsActive {
		return ErrNotFound
	}
	go svc.sendPasswordResetMail(usr)
	return nil
}

func (svc *service) sendPasswordResetMail(usr User) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Address: usr.Email}},
		Subject:      "Password Reset",
		TemplateName: "password_reset",
		TemplateData: map[string]interface{}{
			"Email": usr.Email,
			"UID":   EncodeUID(usr),
			"Token": svc.tokens.makeToken(usr),
		},
	})
}

func (svc *service) ResetPassword(ctx context.Context, data ResetPassword) error {
	if err := data.Validate(svc.validate); err != nil {
		return err
	}
	invalid := core.NewValidationError(errors.New("invalid token"))

	id, err := decodeUID(data.UID)
	if err != nil {
		return invalid
	}
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return invalid
		}
		return errors.Wrap(err, "finding user by ID")
	}
	if err := svc.tokens.verifyToken(usr, data.Token); err != nil {
		return core.NewValidationError(err)
	}
	if checkPassword(data.Password, usr.Email) == CodePasswordTooSimilar {
		return core.NewValidationError(nil, core.FieldError{Field: "password", Error: pwdAttrSimText})
	}
	return svc.updatePassword(ctx, usr, data.Password)
}

// SetPassword changes the password of the user with the given email, bypassing reset tokens.
func (svc *service) SetPassword(ctx context.Context, email, pwd string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if code := checkPassword(pwd, usr.Email); code != "" {
		return NewAuthError(code)
	}
	return svc.updatePassword(ctx, usr, pwd)
}

func (svc *service) updatePassword(ctx context.Context, usr User, pwd string) error {
	if err := usr.SetPassword(pwd); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	usr.UpdatedAt = svc.now().UTC()
	_, err := svc.repo.UpdateUser(ctx, usr)
	return errors.Wrap(err, "updating user")
}

// SetActive enables or disables the account with the given email.
func (svc *service) SetActive(ctx context.Context, email string, active bool) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	usr.IsActive = active
	usr.UpdatedAt = svc.now().UTC()
	_, err = svc.repo.UpdateUser(ctx, usr)
	return errors.Wrap(err, "updating user")
}
