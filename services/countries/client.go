// Package countriessvc fetches the country directory from the REST Countries API.
package countriessvc

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/brighttutor/brightdesk/core"
	"github.com/brighttutor/brightdesk/core/country"
)

const fields = "name,cca2,idd"

type Client struct {
	url  string
	http *rest.Client
}

var _ country.Source = (*Client)(nil)

func NewClient(conf *core.Config) *Client {
	return &Client{
		url:  conf.Countries.URL,
		http: &rest.Client{HTTPClient: &http.Client{Timeout: conf.Countries.Timeout}},
	}
}

type restCountry struct {
	Name struct {
		Common string `json:"common"`
	} `json:"name"`
	Cca2 string `json:"cca2"`
	Idd  struct {
		Root     string   `json:"root"`
		Suffixes []string `json:"suffixes"`
	} `json:"idd"`
}

func (rc restCountry) phoneCode() string {
	if len(rc.Idd.Suffixes) > 0 {
		return rc.Idd.Root + rc.Idd.Suffixes[0]
	}
	return rc.Idd.Root
}

func (c *Client) Fetch(ctx context.Context) ([]country.Country, error) {
	req := rest.Request{
		Method:      rest.Get,
		BaseURL:     c.url,
		Headers:     map[string]string{"Accept": "application/json"},
		QueryParams: map[string]string{"fields": fields},
	}
	httpReq, err := rest.BuildRequestObject(req)
	if err != nil {
		return nil, errors.Wrap(err, "building countries request")
	}
	httpRes, err := c.http.MakeRequest(httpReq.WithContext(ctx))
	if err != nil {
		return nil, errors.Wrap(err, "requesting countries")
	}
	res, err := rest.BuildResponse(httpRes)
	if err != nil {
		return nil, errors.Wrap(err, "reading countries")
	}
	if res.StatusCode != http.StatusOK {
		return nil, errors.Errorf("countries status: %d", res.StatusCode)
	}

	var data []restCountry
	if err := json.NewDecoder(strings.NewReader(res.Body)).Decode(&data); err != nil {
		return nil, errors.Wrap(err, "decoding countries")
	}

	countries := make([]country.Country, 0, len(data))
	for _, rc := range data {
		if rc.Name.Common == "" {
			continue
		}
		countries = append(countries, country.Country{
			Name:      rc.Name.Common,
			Code:      rc.Cca2,
			PhoneCode: rc.phoneCode(),
		})
	}
	return countries, nil
}
