package echoapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/brighttutor/brightdesk/core/country"
)

type countryApi struct {
	dir *country.Directory
}

func registerCountryAPI(g *echo.Group, dir *country.Directory) {
	api := countryApi{dir: dir}

	g.GET("/countries", api.query)
	g.GET("/countries/:code/cities", api.cities)
	g.GET("/cities/:city/subcities", api.subcities)
}

func (api *countryApi) query(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.dir.Filter(ctx.Request().Context(), ctx.QueryParam("search")))
}

func (api *countryApi) cities(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, nonNil(country.Cities(strings.TrimSpace(ctx.Param("code")))))
}

func (api *countryApi) subcities(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, nonNil(country.Subcities(ctx.Param("city"))))
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
