// Package holidayapi retrieves country lists and public holidays from a Nager.Date v3 compatible API
package holidayapi

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/OpenTransitTools/holidaycal/business/data/calendar"
	"github.com/go-resty/resty/v2"
	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"
)

// DefaultBaseUrl is the public Nager.Date service
const DefaultBaseUrl = "https://date.nager.at"

const (
	countriesPath = "/api/v3/AvailableCountries"
	holidaysPath  = "/api/v3/PublicHolidays/{year}/{countryCode}"
)

// Failure kinds returned by Client. Check with eris.Is.
var (
	ErrNetworkFailure    = eris.New("holiday api request failed")
	ErrMalformedResponse = eris.New("holiday api response malformed")
)

// Client performs requests against the holiday api
type Client struct {
	httpClient *resty.Client
}

// NewClient builds a Client for baseUrl. A zero timeout leaves requests unbounded.
func NewClient(baseUrl string, timeout time.Duration) *Client {
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(baseUrl, "/")).
		SetHeader("Accept", "application/json")
	if timeout > 0 {
		httpClient.SetTimeout(timeout)
	}
	return &Client{httpClient: httpClient}
}

// FetchCountries retrieves the countries the api has holidays for, in response order
func (c *Client) FetchCountries(ctx context.Context) ([]calendar.Country, error) {
	items, err := c.getArray(ctx, countriesPath, nil)
	if err != nil {
		return nil, err
	}

	countries := make([]calendar.Country, 0, len(items))
	for i, item := range items {
		code := item.Get("countryCode")
		if code.Type != gjson.String || code.String() == "" {
			return nil, eris.Wrapf(ErrMalformedResponse, "country %d has no countryCode", i)
		}
		name := item.Get("name")
		if name.Type != gjson.String {
			return nil, eris.Wrapf(ErrMalformedResponse, "country %s has no name", code.String())
		}
		countries = append(countries, calendar.Country{
			Code: code.String(),
			Name: name.String(),
		})
	}
	return countries, nil
}

// FetchHolidays retrieves the public holidays of countryCode in year. Records are returned in response
// order without removing duplicates.
func (c *Client) FetchHolidays(ctx context.Context, year int, countryCode string) ([]calendar.Holiday, error) {
	if countryCode == "" {
		return nil, eris.New("country code is required")
	}

	items, err := c.getArray(ctx, holidaysPath, map[string]string{
		"year":        strconv.Itoa(year),
		"countryCode": countryCode,
	})
	if err != nil {
		return nil, err
	}

	holidays := make([]calendar.Holiday, 0, len(items))
	for i, item := range items {
		dateResult := item.Get("date")
		if dateResult.Type != gjson.String {
			return nil, eris.Wrapf(ErrMalformedResponse, "holiday %d has no date", i)
		}
		date, err := calendar.ParseDate(dateResult.String())
		if err != nil {
			return nil, eris.Wrapf(ErrMalformedResponse, "holiday %d: %v", i, err)
		}
		name := item.Get("name")
		if name.Type != gjson.String {
			return nil, eris.Wrapf(ErrMalformedResponse, "holiday %d on %s has no name", i, date)
		}
		holidays = append(holidays, calendar.Holiday{
			Date: date,
			Name: name.String(),
		})
	}
	return holidays, nil
}

// getArray performs a GET on path and returns the elements of the JSON array in the response body
func (c *Client) getArray(ctx context.Context, path string, pathParams map[string]string) ([]gjson.Result, error) {
	request := c.httpClient.R().SetContext(ctx)
	if pathParams != nil {
		request.SetPathParams(pathParams)
	}

	resp, err := request.Get(path)
	if err != nil {
		return nil, eris.Wrapf(ErrNetworkFailure, "GET %s: %v", path, err)
	}
	if resp.IsError() || resp.StatusCode() != http.StatusOK {
		return nil, eris.Wrapf(ErrNetworkFailure, "GET %s: status %d", resp.Request.URL, resp.StatusCode())
	}

	body := resp.Body()
	if !gjson.ValidBytes(body) {
		return nil, eris.Wrapf(ErrMalformedResponse, "GET %s: body is not json", resp.Request.URL)
	}
	result := gjson.ParseBytes(body)
	if !result.IsArray() {
		return nil, eris.Wrapf(ErrMalformedResponse, "GET %s: body is not an array", resp.Request.URL)
	}
	return result.Array(), nil
}
