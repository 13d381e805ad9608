package core

import (
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitValidators(t *testing.T) {
	validate := validator.New()
	translator := NewTranslator()
	InitValidators(validate, translator)

	type payload struct {
		Name  string `json:"name" validate:"required,notblank"`
		Email string `json:"email_address" validate:"omitempty,email"`
		Day   string `json:"day" validate:"omitempty,datetime=2006-01-02"`
		Skip  string `json:"-" validate:"required"`
	}

	err := validate.Struct(payload{Name: "   ", Email: "nope", Day: "2020-02-30", Skip: "x"})
	require.Error(t, err)

	got := make(map[string]string)
	for _, fe := range err.(validator.ValidationErrors) {
		got[fe.Field()] = fe.Translate(translator)
	}
	assert.Equal(t, map[string]string{
		"name":          "this field cannot be blank",
		"email_address": "the email address is not valid",
		"day":           "this date is not valid",
	}, got)

	err = validate.Struct(payload{Skip: "x"})
	require.Error(t, err)
	assert.Equal(t, "this field is required", err.(validator.ValidationErrors)[0].Translate(translator))
}

func TestValidationError(t *testing.T) {
	err := NewValidationError(errors.New("invalid token"))
	assert.Equal(t, "invalid token", err.Error())

	err = NewValidationError(nil, FieldError{Field: "password", Error: "too short"})
	assert.Equal(t, "password: too short", err.Error())

	assert.True(t, IsShutdown(errors.Wrap(NewShutdownError("bye"), "stopping")))
	assert.False(t, IsShutdown(err))
}

func TestEmailMessage_Render(t *testing.T) {
	conf := NewTestConfig()
	conf.FrontendBaseURL = "https://app.example.com"

	msg := EmailMessage{
		TemplateName: "registration_received",
		TemplateData: map[string]interface{}{"Name": "Jane", "Message": "We will contact you soon."},
	}
	require.NoError(t, msg.Render(conf))
	assert.Contains(t, msg.TextContent, "Jane")
	assert.Contains(t, msg.TextContent, "We will contact you soon.")
	assert.Contains(t, msg.HTMLContent, "Jane")
	assert.Equal(t, strings.TrimSpace(msg.TextContent), msg.TextContent)

	plain := EmailMessage{BodyStr: "hello"}
	require.NoError(t, plain.Render(conf))
	assert.Equal(t, "hello", plain.TextContent)
	assert.Empty(t, plain.HTMLContent)

	unknown := EmailMessage{TemplateName: "nope"}
	assert.Error(t, unknown.Render(conf))
}

func TestEmailMessage_Attach(t *testing.T) {
	var msg EmailMessage
	require.NoError(t, msg.Attach(strings.NewReader("%PDF-1.4 degree"), "degree.pdf"))
	require.NoError(t, msg.Attach(strings.NewReader("hi"), "note.txt", "text/plain"))

	require.True(t, msg.HasAttachments())
	assert.Equal(t, "application/pdf", msg.Attachments[0].ContentType)
	assert.Equal(t, "JVBERi0xLjQgZGVncmVl", msg.Attachments[0].Content.String())
	assert.Equal(t, "text/plain", msg.Attachments[1].ContentType)
}

func TestCleanString(t *testing.T) {
	assert.Equal(t, "Jane", CleanString("  Jane\n"))
	assert.Equal(t, "jane@x.io", CleanString(" Jane@X.io ", true))
}
