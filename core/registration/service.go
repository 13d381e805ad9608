package registration

import (
	"bytes"
	"context"
	"net/mail"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/brighttutor/brightdesk/core"
	"github.com/brighttutor/brightdesk/core/country"
)

type Service struct {
	store    *Store
	dir      *country.Directory
	validate *validator.Validate
	mailSvc  core.EmailService
	logger   core.Logger
	conf     *core.Config
}

func NewService(
	conf *core.Config,
	store *Store,
	dir *country.Directory,
	validate *validator.Validate,
	mailSvc core.EmailService,
	logger core.Logger,
) *Service {
	return &Service{
		store:    store,
		dir:      dir,
		validate: validate,
		mailSvc:  mailSvc,
		logger:   logger,
		conf:     conf,
	}
}

// Start opens a new draft for role.
func (svc *Service) Start(role Role) (Form, error) {
	f, err := New(role)
	if err != nil {
		return Form{}, err
	}
	svc.store.Add(f)
	return f, nil
}

func (svc *Service) Get(id string) (Form, error) {
	return svc.store.Get(id)
}

func (svc *Service) Discard(id string) error {
	return svc.store.Delete(id)
}

func (svc *Service) Set(id, field, value string) (Form, error) {
	return svc.store.Update(id, func(f *Form) error { return f.Set(field, value) })
}

func (svc *Service) SetTerms(id string, accepted bool) (Form, error) {
	return svc.store.Update(id, func(f *Form) error { return f.SetTerms(accepted) })
}

func (svc *Service) ToggleDay(id, day string) (Form, error) {
	return svc.store.Update(id, func(f *Form) error { return f.ToggleDay(day) })
}

func (svc *Service) ToggleGrade(id, field string, grade int) (Form, error) {
	return svc.store.Update(id, func(f *Form) error { return f.ToggleGrade(field, grade) })
}

// TypeCountry records the country input, selecting the country it names exactly, if any.
func (svc *Service) TypeCountry(ctx context.Context, id, input string) (Form, error) {
	var matched *country.Country
	if c, ok := svc.dir.FindByName(ctx, strings.TrimSpace(input)); ok {
		matched = &c
	}
	return svc.store.Update(id, func(f *Form) error { return f.TypeCountry(input, matched) })
}

// SelectCountry selects the country with the given code.
func (svc *Service) SelectCountry(ctx context.Context, id, code string) (Form, error) {
	c, ok := svc.dir.FindByCode(ctx, code)
	if !ok {
		return Form{}, fieldError(FieldCountry, "unknown country")
	}
	return svc.store.Update(id, func(f *Form) error { return f.SelectCountry(c) })
}

func (svc *Service) SelectCity(id, city string) (Form, error) {
	return svc.store.Update(id, func(f *Form) error { return f.SelectCity(city) })
}

func (svc *Service) SelectSubcity(id, subcity string) (Form, error) {
	return svc.store.Update(id, func(f *Form) error { return f.SelectSubcity(subcity) })
}

func (svc *Service) AttachDegree(id, filename string, content []byte) (Form, error) {
	return svc.store.Update(id, func(f *Form) error { return f.AttachDegree(filename, content) })
}

// Submit validates the draft, records the application and acknowledges it by email.
// The draft is discarded afterwards.
func (svc *Service) Submit(ctx context.Context, id string) (Acknowledgement, error) {
	f, err := svc.store.Update(id, func(f *Form) error {
		if f.Submitted {
			return ErrSubmitted
		}
		if err := f.Validate(svc.validate); err != nil {
			return err
		}
		f.Submitted = true
		return nil
	})
	if err != nil {
		return Acknowledgement{}, err
	}

	ack := Acknowledgement{ID: f.ID, Role: f.Role, Message: StudentAcknowledgement}
	if f.Role == RoleTutor {
		ack.Message = TutorAcknowledgement
	}

	svc.logger.Info("registration submitted", map[string]interface{}{
		"id":     f.ID,
		"role":   string(f.Role),
		"values": f.Values(),
	})
	svc.mailSvc.SendMessages(svc.messages(f, ack)...)

	if err := svc.store.Delete(f.ID); err != nil && errors.Cause(err) != ErrNotFound {
		return Acknowledgement{}, errors.Wrap(err, "discarding draft")
	}
	return ack, nil
}

func (svc *Service) messages(f Form, ack Acknowledgement) []*core.EmailMessage {
	p := f.personal()
	name := strings.TrimSpace(p.FirstName + " " + p.LastName)

	msgs := []*core.EmailMessage{{
		To:           []mail.Address{{Name: name, Address: p.Email}},
		Subject:      "Application Submitted",
		TemplateName: "registration_received",
		TemplateData: map[string]interface{}{"Name": name, "Message": ack.Message},
	}}

	reviewers := svc.conf.Registration.ReviewersEmail
	if f.Tutor == nil || reviewers == "" {
		return msgs
	}

	addr, err := mail.ParseAddress(reviewers)
	if err != nil {
		svc.logger.Error("parsing reviewers email", errors.Wrap(err, reviewers))
		return msgs
	}
	t := f.Tutor
	review := &core.EmailMessage{
		To:           []mail.Address{*addr},
		Subject:      "New Tutor Application",
		TemplateName: "tutor_application",
		TemplateData: map[string]interface{}{
			"Name":        name,
			"Email":       p.Email,
			"Phone":       strings.TrimSpace(p.Location.PhoneCode + " " + p.Phone),
			"DegreeLevel": t.DegreeLevel,
			"Specialty":   t.Specialty,
		},
	}
	if t.Degree != nil {
		if err := review.Attach(bytes.NewReader(t.Degree.content), t.Degree.Filename, t.Degree.ContentType); err != nil {
			svc.logger.Error("attaching degree", err)
		}
	}
	return append(msgs, review)
}
