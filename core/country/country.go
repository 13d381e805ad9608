package country

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/brighttutor/brightdesk/core"
)

type Country struct {
	Name      string `json:"name"`
	Code      string `json:"code"` // ISO 3166-1 alpha-2
	PhoneCode string `json:"phoneCode"`
}

// Source fetches the list of countries from a remote directory.
type Source interface {
	Fetch(ctx context.Context) ([]Country, error)
}

// Fallback is served whenever the remote directory cannot be reached.
var Fallback = []Country{
	{Name: "Ethiopia", Code: "ET", PhoneCode: "+251"},
	{Name: "United States", Code: "US", PhoneCode: "+1"},
	{Name: "United Kingdom", Code: "GB", PhoneCode: "+44"},
	{Name: "Germany", Code: "DE", PhoneCode: "+49"},
	{Name: "France", Code: "FR", PhoneCode: "+33"},
	{Name: "India", Code: "IN", PhoneCode: "+91"},
	{Name: "China", Code: "CN", PhoneCode: "+86"},
	{Name: "Brazil", Code: "BR", PhoneCode: "+55"},
}

var (
	citiesByCountry = map[string][]string{
		"ET": {"Addis Ababa", "Dire Dawa", "Mekelle", "Hawassa", "Bahir Dar", "Gondar"},
	}

	subcitiesByCity = map[string][]string{
		"Addis Ababa": {"Bole", "Lideta", "Gulele", "Kirkos", "Arada", "Addis Ketema", "Nifas Silk", "Kolfe"},
		"Dire Dawa":   {"Dechatu", "Gonfa", "Sabian", "Gurgura"},
		"Mekelle":     {"Hawelti", "Ayder", "Quiha", "Adi Haki"},
	}
)

// Cities returns the known cities of the country with the given code, if any.
func Cities(code string) []string {
	return append([]string(nil), citiesByCountry[strings.ToUpper(code)]...)
}

// Subcities returns the known subcities of city, if any.
func Subcities(city string) []string {
	return append([]string(nil), subcitiesByCity[city]...)
}

func hasString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// HasCity tells whether city is a known city of the country with the given code.
func HasCity(code, city string) bool { return hasString(citiesByCountry[strings.ToUpper(code)], city) }

// HasSubcity tells whether subcity is a known subcity of city.
func HasSubcity(city, subcity string) bool { return hasString(subcitiesByCity[city], subcity) }

// Directory serves the list of countries, sorted by name.
// The first successful fetch is kept for the lifetime of the Directory.
// Concurrent callers share a single fetch. After a failure the static list is
// served until the backoff elapses, then the fetch is retried.
type Directory struct {
	src     Source
	logger  core.Logger
	backoff time.Duration
	now     func() time.Time
	fetches singleflight.Group

	mu        sync.Mutex
	countries []Country
	retryAt   time.Time
}

func NewDirectory(src Source, backoff time.Duration, logger core.Logger) *Directory {
	return &Directory{src: src, backoff: backoff, logger: logger, now: time.Now}
}

// NewStaticDirectory returns a Directory serving countries without a remote Source.
func NewStaticDirectory(countries ...Country) *Directory {
	if len(countries) == 0 {
		countries = Fallback
	}
	d := &Directory{countries: append([]Country(nil), countries...), now: time.Now}
	sortByName(d.countries)
	return d
}

func fallback() []Country {
	countries := append([]Country(nil), Fallback...)
	sortByName(countries)
	return countries
}

func (d *Directory) All(ctx context.Context) []Country {
	d.mu.Lock()
	countries, retryAt := d.countries, d.retryAt
	d.mu.Unlock()

	if countries != nil {
		return countries
	}
	if d.now().Before(retryAt) {
		return fallback()
	}

	select {
	case res := <-d.fetches.DoChan("all", func() (interface{}, error) { return d.fetch(ctx), nil }):
		return res.Val.([]Country)
	case <-ctx.Done():
		return fallback()
	}
}

// fetch asks the source for the countries. It runs once at a time.
func (d *Directory) fetch(ctx context.Context) []Country {
	d.mu.Lock()
	cached, retryAt := d.countries, d.retryAt
	d.mu.Unlock()
	if cached != nil {
		return cached // fetched while this call was queued
	}
	if d.now().Before(retryAt) {
		return fallback()
	}

	countries, err := d.src.Fetch(ctx)
	if err == nil && len(countries) == 0 {
		err = errEmptyDirectory
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if err != nil {
		d.logger.Error("fetching countries", err)
		if ctx.Err() == nil {
			d.retryAt = d.now().Add(d.backoff)
		}
		return fallback()
	}
	sortByName(countries)
	d.countries = countries
	return countries
}

// Filter returns the countries whose name contains query, ignoring case, or whose phone code contains it.
func (d *Directory) Filter(ctx context.Context, query string) []Country {
	all := d.All(ctx)
	query = strings.TrimSpace(query)
	if query == "" {
		return all
	}

	lq := strings.ToLower(query)
	found := make([]Country, 0)
	for _, c := range all {
		if strings.Contains(strings.ToLower(c.Name), lq) || strings.Contains(c.PhoneCode, query) {
			found = append(found, c)
		}
	}
	return found
}

// FindByName returns the country named name, ignoring case.
func (d *Directory) FindByName(ctx context.Context, name string) (Country, bool) {
	for _, c := range d.All(ctx) {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return Country{}, false
}

func (d *Directory) FindByCode(ctx context.Context, code string) (Country, bool) {
	for _, c := range d.All(ctx) {
		if strings.EqualFold(c.Code, code) {
			return c, true
		}
	}
	return Country{}, false
}

func sortByName(countries []Country) {
	cl := collate.New(language.English, collate.Loose)
	sort.SliceStable(countries, func(i, j int) bool {
		return cl.CompareString(countries[i].Name, countries[j].Name) < 0
	})
}
