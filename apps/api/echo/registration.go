package echoapi

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/brighttutor/brightdesk/core"
	"github.com/brighttutor/brightdesk/core/registration"
)

type registrationApi struct {
	svc *registration.Service
}

func registerRegistrationAPI(g *echo.Group, conf *core.Config, svc *registration.Service) {
	api := registrationApi{svc: svc}

	rg := g.Group("/registrations")
	rg.POST("", api.create)

	dg := rg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PATCH("", api.set)
	dg.DELETE("", api.destroy)
	dg.PUT("/terms", api.setTerms)
	dg.POST("/days/:day", api.toggleDay)
	dg.POST("/grades", api.toggleGrade)
	dg.PUT("/country", api.selectCountry)
	dg.PUT("/country-input", api.typeCountry)
	dg.PUT("/city", api.selectCity)
	dg.PUT("/subcity", api.selectSubcity)
	dg.POST("/degree", api.attachDegree, middleware.BodyLimit(conf.Registration.MaxUploadSize))
	dg.POST("/submit", api.submit)
}

// FormResponse is a draft plus the values of its visible fields.
type FormResponse struct {
	registration.Form
	Values map[string]interface{} `json:"values"`
}

func formResponse(ctx echo.Context, code int, f registration.Form) error {
	return ctx.JSON(code, FormResponse{Form: f, Values: f.Values()})
}

// reply sends the updated draft, or the error that prevented the update.
func reply(ctx echo.Context, f registration.Form, err error, action string) error {
	if err != nil {
		return errors.Wrap(err, action)
	}
	return formResponse(ctx, http.StatusOK, f)
}

type (
	StartRequest struct {
		Role registration.Role `json:"role"`
	}

	SetFieldRequest struct {
		Field string `json:"field"`
		Value string `json:"value"`
	}

	TermsRequest struct {
		Accepted bool `json:"accepted"`
	}

	GradeRequest struct {
		Field string `json:"field"`
		Grade int    `json:"grade"`
	}

	CountryRequest struct {
		Code string `json:"code"`
	}

	CountryInputRequest struct {
		Input string `json:"input"`
	}

	CityRequest struct {
		City string `json:"city"`
	}

	SubcityRequest struct {
		Subcity string `json:"subcity"`
	}
)

// Handlers

func (api *registrationApi) create(ctx echo.Context) error {
	var data StartRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StartRequest")
	}
	f, err := api.svc.Start(data.Role)
	if err != nil {
		return errors.Wrap(err, "starting registration")
	}
	return formResponse(ctx, http.StatusCreated, f)
}

func (api *registrationApi) retrieve(ctx echo.Context) error {
	f, err := api.svc.Get(ctx.Param("id"))
	return reply(ctx, f, err, "finding registration")
}

func (api *registrationApi) destroy(ctx echo.Context) error {
	if err := api.svc.Discard(ctx.Param("id")); err != nil {
		return errors.Wrap(err, "discarding registration")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *registrationApi) set(ctx echo.Context) error {
	var data SetFieldRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SetFieldRequest")
	}
	f, err := api.svc.Set(ctx.Param("id"), data.Field, data.Value)
	return reply(ctx, f, err, "setting field")
}

func (api *registrationApi) setTerms(ctx echo.Context) error {
	var data TermsRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TermsRequest")
	}
	f, err := api.svc.SetTerms(ctx.Param("id"), data.Accepted)
	return reply(ctx, f, err, "setting terms")
}

func (api *registrationApi) toggleDay(ctx echo.Context) error {
	f, err := api.svc.ToggleDay(ctx.Param("id"), ctx.Param("day"))
	return reply(ctx, f, err, "toggling day")
}

func (api *registrationApi) toggleGrade(ctx echo.Context) error {
	var data GradeRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GradeRequest")
	}
	f, err := api.svc.ToggleGrade(ctx.Param("id"), data.Field, data.Grade)
	return reply(ctx, f, err, "toggling grade")
}

func (api *registrationApi) selectCountry(ctx echo.Context) error {
	var data CountryRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CountryRequest")
	}
	f, err := api.svc.SelectCountry(ctx.Request().Context(), ctx.Param("id"), data.Code)
	return reply(ctx, f, err, "selecting country")
}

func (api *registrationApi) typeCountry(ctx echo.Context) error {
	var data CountryInputRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CountryInputRequest")
	}
	f, err := api.svc.TypeCountry(ctx.Request().Context(), ctx.Param("id"), data.Input)
	return reply(ctx, f, err, "typing country")
}

func (api *registrationApi) selectCity(ctx echo.Context) error {
	var data CityRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CityRequest")
	}
	f, err := api.svc.SelectCity(ctx.Param("id"), data.City)
	return reply(ctx, f, err, "selecting city")
}

func (api *registrationApi) selectSubcity(ctx echo.Context) error {
	var data SubcityRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SubcityRequest")
	}
	f, err := api.svc.SelectSubcity(ctx.Param("id"), data.Subcity)
	return reply(ctx, f, err, "selecting subcity")
}

func (api *registrationApi) attachDegree(ctx echo.Context) error {
	fh, err := ctx.FormFile(registration.FieldDegreePhoto)
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: registration.FieldDegreePhoto, Error: "this field is required"})
	}
	file, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening upload")
	}
	defer func() { _ = file.Close() }()

	content, err := io.ReadAll(file)
	if err != nil {
		return errors.Wrap(err, "reading upload")
	}
	f, err := api.svc.AttachDegree(ctx.Param("id"), fh.Filename, content)
	return reply(ctx, f, err, "attaching degree")
}

func (api *registrationApi) submit(ctx echo.Context) error {
	ack, err := api.svc.Submit(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return withRetry(errors.Wrap(err, "submitting registration"), msgSubmit)
	}
	return ctx.JSON(http.StatusOK, ack)
}
