package calendarsvc

import (
	"context"
	"sort"
	"time"

	"github.com/OpenTransitTools/holidaycal/business/data/calendar"
	"github.com/OpenTransitTools/holidaycal/foundation/holidayapi"
	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/us"
)

//HolidaySource supplies the country list and the holidays of a country for a year
type HolidaySource interface {
	FetchCountries(ctx context.Context) ([]calendar.Country, error)
	FetchHolidays(ctx context.Context, year int, countryCode string) ([]calendar.Holiday, error)
}

// holidayapi.Client is the default remote source
var _ HolidaySource = (*holidayapi.Client)(nil)

// LocalCountryCode is the only country LocalHolidaySource knows
const LocalCountryCode = "US"

//LocalHolidaySource computes United States federal holidays in process, for running without the remote api
type LocalHolidaySource struct {
	holidays []*cal.Holiday
}

//NewLocalHolidaySource builds LocalHolidaySource with the federal holidays
func NewLocalHolidaySource() *LocalHolidaySource {
	return &LocalHolidaySource{
		holidays: []*cal.Holiday{
			us.NewYear,
			us.MlkDay,
			us.PresidentsDay,
			us.MemorialDay,
			us.Juneteenth,
			us.IndependenceDay,
			us.LaborDay,
			us.ColumbusDay,
			us.VeteransDay,
			us.ThanksgivingDay,
			us.ChristmasDay,
		},
	}
}

//FetchCountries returns the single country served by LocalHolidaySource
func (s *LocalHolidaySource) FetchCountries(_ context.Context) ([]calendar.Country, error) {
	return []calendar.Country{{Code: LocalCountryCode, Name: "United States"}}, nil
}

//FetchHolidays returns the holidays of year ordered by date, empty for any country but LocalCountryCode.
//Holidays are listed on their actual date, not the observed weekday.
func (s *LocalHolidaySource) FetchHolidays(ctx context.Context, year int, countryCode string) ([]calendar.Holiday, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	results := make([]calendar.Holiday, 0, len(s.holidays))
	if countryCode != LocalCountryCode {
		return results, nil
	}
	for _, h := range s.holidays {
		actual, _ := h.Calc(year)
		if actual.IsZero() {
			// holiday not yet established in year
			continue
		}
		results = append(results, calendar.Holiday{
			Date: calendar.DateOf(actual),
			Name: h.Name,
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Date.Time(time.UTC).Before(results[j].Date.Time(time.UTC))
	})
	return results, nil
}
