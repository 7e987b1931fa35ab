package calendarsvc

import (
	"errors"
	"testing"
	"time"

	"github.com/OpenTransitTools/holidaycal/business/data/calendar"
	"github.com/matryer/is"
)

func TestNewController(t *testing.T) {
	is := is.New(t)
	c := NewController(testLogger(), newFakeSource(), nil, fixedClock(2024, time.July, 15))
	defer c.Close()

	s := c.Snapshot()
	is.Equal(VisibleMonth{Year: 2024, Month: 6}, s.State.VisibleMonth)
	is.Equal(ViewDefault, s.State.ViewMode)
	is.True(s.State.SelectedDate == nil)
	is.Equal("", s.State.SelectedCountryCode)
	is.Equal(0, len(s.Holidays))
	is.Equal(0, len(s.Countries))
}

func TestController_SelectCountry(t *testing.T) {
	is := is.New(t)
	source := newFakeSource()
	source.holidays[holidayKey(2024, "US")] = usHolidays2024
	source.holidayErrs[holidayKey(2024, "FR")] = errors.New("connection refused")
	c := NewController(testLogger(), source, nil, fixedClock(2024, time.July, 15))
	defer c.Close()

	c.SelectCountry("US")
	c.Wait()
	is.Equal([]holidayCall{{year: 2024, countryCode: "US"}}, source.calls())
	s := c.Snapshot()
	is.Equal("US", s.State.SelectedCountryCode)
	is.Equal(usHolidays2024, s.Holidays)

	// failed fetch keeps the previous holidays
	c.SelectCountry("FR")
	c.Wait()
	is.Equal(2, len(source.calls()))
	s = c.Snapshot()
	is.Equal("FR", s.State.SelectedCountryCode)
	is.Equal(usHolidays2024, s.Holidays)
}

func TestController_SelectCountry_empty(t *testing.T) {
	is := is.New(t)
	source := newFakeSource()
	source.holidays[holidayKey(2024, "US")] = usHolidays2024
	c := NewController(testLogger(), source, nil, fixedClock(2024, time.July, 15))
	defer c.Close()

	c.SelectCountry("US")
	c.Wait()
	c.SelectCountry("")
	c.Wait()

	is.Equal(1, len(source.calls()))
	s := c.Snapshot()
	is.Equal("", s.State.SelectedCountryCode)
	is.Equal(usHolidays2024, s.Holidays)
}

func TestController_SelectCountry_lastRequestedWins(t *testing.T) {
	is := is.New(t)
	source := newFakeSource()
	source.holidays[holidayKey(2024, "US")] = usHolidays2024
	source.holidays[holidayKey(2024, "FR")] = frHolidays2024
	usGate := source.gate(2024, "US")
	observer := newRecordingObserver()
	c := NewController(testLogger(), source, observer, fixedClock(2024, time.July, 15))
	defer c.Close()

	c.SelectCountry("US")
	c.SelectCountry("FR")

	frOutcome, ok := observer.next()
	is.True(ok)
	is.Equal("FR", frOutcome.CountryCode)
	is.True(frOutcome.Succeeded)
	is.True(!frOutcome.Stale)
	is.Equal(frHolidays2024, c.Snapshot().Holidays)

	// the earlier request resolves last and is dropped
	close(usGate)
	usOutcome, ok := observer.next()
	is.True(ok)
	is.Equal("US", usOutcome.CountryCode)
	is.True(usOutcome.Succeeded)
	is.True(usOutcome.Stale)
	is.Equal(len(usHolidays2024), usOutcome.Records)
	is.True(usOutcome.Generation < frOutcome.Generation)

	c.Wait()
	s := c.Snapshot()
	is.Equal("FR", s.State.SelectedCountryCode)
	is.Equal(frHolidays2024, s.Holidays)
}

func TestController_Navigate(t *testing.T) {
	tests := []struct {
		name      string
		now       func() time.Time
		direction Direction
		expected  VisibleMonth
	}{
		{"next in year", fixedClock(2024, time.July, 15), Next, VisibleMonth{Year: 2024, Month: 7}},
		{"prev in year", fixedClock(2024, time.July, 15), Prev, VisibleMonth{Year: 2024, Month: 5}},
		{"december to january", fixedClock(2024, time.December, 10), Next, VisibleMonth{Year: 2025, Month: 0}},
		{"january to december", fixedClock(2024, time.January, 10), Prev, VisibleMonth{Year: 2023, Month: 11}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			is := is.New(t)
			source := newFakeSource()
			c := NewController(testLogger(), source, nil, tt.now)
			defer c.Close()

			c.SelectDate(calendar.DateOf(tt.now()))
			c.Navigate(tt.direction)
			c.Wait()

			s := c.Snapshot()
			is.Equal(tt.expected, s.State.VisibleMonth)
			is.True(s.State.SelectedDate == nil)
			// nothing to fetch without a country
			is.Equal(0, len(source.calls()))
		})
	}
}

func TestController_Navigate_yearChangeRefetches(t *testing.T) {
	is := is.New(t)
	source := newFakeSource()
	source.holidays[holidayKey(2024, "US")] = usHolidays2024
	source.holidays[holidayKey(2025, "US")] = usHolidays2025
	c := NewController(testLogger(), source, nil, fixedClock(2024, time.November, 20))
	defer c.Close()

	c.SelectCountry("US")
	c.Wait()

	// same year, no fetch
	c.Navigate(Next)
	c.Wait()
	is.Equal(1, len(source.calls()))

	c.Navigate(Next)
	c.Wait()
	is.Equal([]holidayCall{
		{year: 2024, countryCode: "US"},
		{year: 2025, countryCode: "US"},
	}, source.calls())
	is.Equal(usHolidays2025, c.Snapshot().Holidays)

	c.Navigate(Prev)
	c.Wait()
	is.Equal(3, len(source.calls()))
	is.Equal(usHolidays2024, c.Snapshot().Holidays)
}

func TestController_GoToToday(t *testing.T) {
	is := is.New(t)
	source := newFakeSource()
	source.holidays[holidayKey(2024, "US")] = usHolidays2024
	source.holidays[holidayKey(2023, "US")] = []calendar.Holiday{}
	c := NewController(testLogger(), source, nil, fixedClock(2024, time.March, 3))
	defer c.Close()

	c.Navigate(Prev)
	c.Navigate(Prev)
	c.Navigate(Prev)
	is.Equal(VisibleMonth{Year: 2023, Month: 11}, c.Snapshot().State.VisibleMonth)

	c.SelectCountry("US")
	c.Wait()
	c.GoToToday()
	c.Wait()

	s := c.Snapshot()
	is.Equal(VisibleMonth{Year: 2024, Month: 2}, s.State.VisibleMonth)
	is.True(s.State.SelectedDate != nil)
	is.Equal(calendar.NewDate(2024, time.March, 3), *s.State.SelectedDate)
	is.Equal([]holidayCall{
		{year: 2023, countryCode: "US"},
		{year: 2024, countryCode: "US"},
	}, source.calls())
	is.Equal(usHolidays2024, s.Holidays)
}

func TestController_SelectDate(t *testing.T) {
	is := is.New(t)
	c := NewController(testLogger(), newFakeSource(), nil, fixedClock(2024, time.July, 15))
	defer c.Close()

	// dates outside the visible month are accepted
	d := calendar.NewDate(2023, time.February, 28)
	c.SelectDate(d)
	s := c.Snapshot()
	is.Equal(d, *s.State.SelectedDate)
	is.Equal(VisibleMonth{Year: 2024, Month: 6}, s.State.VisibleMonth)

	// snapshots do not share the selected date
	*s.State.SelectedDate = calendar.NewDate(2000, time.January, 1)
	is.Equal(d, *c.Snapshot().State.SelectedDate)
}

func TestController_SwitchView(t *testing.T) {
	is := is.New(t)
	source := newFakeSource()
	c := NewController(testLogger(), source, nil, fixedClock(2024, time.July, 15))
	defer c.Close()

	for _, mode := range []ViewMode{ViewYear, ViewMonth, ViewDefault} {
		c.SwitchView(mode)
		is.Equal(mode, c.Snapshot().State.ViewMode)
	}
	is.Equal(0, len(source.calls()))
}

func TestController_Init(t *testing.T) {
	is := is.New(t)
	source := newFakeSource()
	source.countries = []calendar.Country{{Code: "US", Name: "United States"}, {Code: "FR", Name: "France"}}
	observer := newRecordingObserver()
	c := NewController(testLogger(), source, observer, fixedClock(2024, time.July, 15))
	defer c.Close()

	c.Init()
	c.Init()
	c.Wait()

	is.Equal(1, source.countriesCalled())
	is.Equal(source.countries, c.Snapshot().Countries)

	outcome, ok := observer.next()
	is.True(ok)
	is.Equal(FetchKindCountries, outcome.Kind)
	is.True(outcome.Succeeded)
	is.Equal(2, outcome.Records)
	is.True(outcome.Id != "")
}

func TestController_Init_failureNotRetried(t *testing.T) {
	is := is.New(t)
	source := newFakeSource()
	source.countriesErr = errors.New("timeout")
	observer := newRecordingObserver()
	c := NewController(testLogger(), source, observer, fixedClock(2024, time.July, 15))
	defer c.Close()

	c.Init()
	c.Wait()
	c.Init()
	c.Wait()

	is.Equal(1, source.countriesCalled())
	is.Equal(0, len(c.Snapshot().Countries))
	outcome, ok := observer.next()
	is.True(ok)
	is.True(!outcome.Succeeded)
	is.Equal("timeout", outcome.Error)
}

func TestController_Close(t *testing.T) {
	is := is.New(t)
	source := newFakeSource()
	source.holidays[holidayKey(2024, "US")] = usHolidays2024
	source.gate(2024, "US")
	observer := newRecordingObserver()
	c := NewController(testLogger(), source, observer, fixedClock(2024, time.July, 15))

	c.SelectCountry("US")
	c.Close()

	outcome, ok := observer.next()
	is.True(ok)
	is.True(!outcome.Succeeded)
	is.Equal(0, len(c.Snapshot().Holidays))
}
