package user

import (
	"context"

	"github.com/go-playground/validator/v10"

	"github.com/brighttutor/brightdesk/core"
)

type serviceMock struct {
	*service
}

// NewServiceMock returns a Service that sends emails synchronously.
func NewServiceMock(conf *core.Config, repo Repository, mailSvc core.EmailService, validate *validator.Validate) ServiceInterface {
	return &serviceMock{service: newService(conf, repo, mailSvc, validate)}
}

func (svc *serviceMock) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !usr.IsActive {
		return ErrNotFound
	}
	// run synchronously
	svc.sendPasswordResetMail(usr)
	return nil
}

// MakeResetToken exposes the reset token of usr to tests of other packages.
func MakeResetToken(conf *core.Config, usr User) string {
	return newTokenGenerator(conf.SecretKey, conf.Server.PasswordResetTimeoutDelta).makeToken(usr)
}
