package calendarsvc

import (
	"context"
	"fmt"
	"io"
	logger "log"
	"sync"
	"time"

	"github.com/OpenTransitTools/holidaycal/business/data/calendar"
)

func testLogger() *logger.Logger {
	return logger.New(io.Discard, "TEST : ", logger.LstdFlags)
}

func fixedClock(year int, month time.Month, day int) func() time.Time {
	return func() time.Time {
		return time.Date(year, month, day, 10, 30, 0, 0, time.UTC)
	}
}

type holidayCall struct {
	year        int
	countryCode string
}

func holidayKey(year int, countryCode string) string {
	return fmt.Sprintf("%s-%d", countryCode, year)
}

//fakeSource is a HolidaySource whose answers, failures and timing are set by the test
type fakeSource struct {
	mu           sync.Mutex
	countries    []calendar.Country
	countriesErr error
	holidays     map[string][]calendar.Holiday
	holidayErrs  map[string]error
	gates        map[string]chan struct{}
	countryCalls int
	holidayCalls []holidayCall
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		holidays:    make(map[string][]calendar.Holiday),
		holidayErrs: make(map[string]error),
		gates:       make(map[string]chan struct{}),
	}
}

//gate makes fetches for countryCode and year block until the returned channel is closed
func (f *fakeSource) gate(year int, countryCode string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	g := make(chan struct{})
	f.gates[holidayKey(year, countryCode)] = g
	return g
}

func (f *fakeSource) FetchCountries(_ context.Context) ([]calendar.Country, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.countryCalls++
	if f.countriesErr != nil {
		return nil, f.countriesErr
	}
	return f.countries, nil
}

func (f *fakeSource) FetchHolidays(ctx context.Context, year int, countryCode string) ([]calendar.Holiday, error) {
	key := holidayKey(year, countryCode)
	f.mu.Lock()
	f.holidayCalls = append(f.holidayCalls, holidayCall{year: year, countryCode: countryCode})
	g := f.gates[key]
	f.mu.Unlock()

	if g != nil {
		select {
		case <-g:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.holidayErrs[key]; err != nil {
		return nil, err
	}
	return f.holidays[key], nil
}

func (f *fakeSource) calls() []holidayCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]holidayCall{}, f.holidayCalls...)
}

func (f *fakeSource) countriesCalled() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.countryCalls
}

//recordingObserver passes every outcome to a buffered channel
type recordingObserver struct {
	outcomes chan FetchOutcome
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{outcomes: make(chan FetchOutcome, 32)}
}

func (o *recordingObserver) Observe(outcome FetchOutcome) {
	o.outcomes <- outcome
}

//next waits for the next outcome, failing after a second
func (o *recordingObserver) next() (FetchOutcome, bool) {
	select {
	case outcome := <-o.outcomes:
		return outcome, true
	case <-time.After(time.Second):
		return FetchOutcome{}, false
	}
}

var (
	usHolidays2024 = []calendar.Holiday{
		{Date: calendar.NewDate(2024, time.January, 1), Name: "New Year's Day"},
		{Date: calendar.NewDate(2024, time.July, 4), Name: "Independence Day"},
		{Date: calendar.NewDate(2024, time.December, 25), Name: "Christmas Day"},
	}
	usHolidays2025 = []calendar.Holiday{
		{Date: calendar.NewDate(2025, time.January, 1), Name: "New Year's Day"},
		{Date: calendar.NewDate(2025, time.July, 4), Name: "Independence Day"},
	}
	frHolidays2024 = []calendar.Holiday{
		{Date: calendar.NewDate(2024, time.July, 14), Name: "Fête nationale"},
		{Date: calendar.NewDate(2024, time.August, 15), Name: "Assomption"},
	}
)
