package calendarsvc

import (
	"context"
	logger "log"
	"sync"
	"time"

	"github.com/OpenTransitTools/holidaycal/business/data/calendar"
	"github.com/google/uuid"
)

//Controller owns the calendar view state and the fetched country and holiday lists.
//All state changes happen under one mutex. Holiday fetches run in the background; when several
//overlap only the most recently requested one may replace the holiday list.
type Controller struct {
	log      *logger.Logger
	source   HolidaySource
	observer FetchObserver
	now      func() time.Time

	ctx      context.Context
	cancel   context.CancelFunc
	inFlight sync.WaitGroup
	initOnce sync.Once

	mu         sync.Mutex
	state      ViewState
	holidays   []calendar.Holiday
	countries  []calendar.Country
	generation uint64
}

//NewController creates Controller showing the month of now(). observer may be nil.
func NewController(log *logger.Logger, source HolidaySource, observer FetchObserver, now func() time.Time) *Controller {
	if observer == nil {
		observer = noopObserver{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		log:      log,
		source:   source,
		observer: observer,
		now:      now,
		ctx:      ctx,
		cancel:   cancel,
		state: ViewState{
			VisibleMonth: visibleMonthOf(calendar.DateOf(now())),
			ViewMode:     ViewDefault,
		},
		holidays:  []calendar.Holiday{},
		countries: []calendar.Country{},
	}
}

//Init starts the one time fetch of the country list. Later calls do nothing, a failed fetch is not retried.
func (c *Controller) Init() {
	c.initOnce.Do(func() {
		c.inFlight.Add(1)
		go c.fetchCountries()
	})
}

//GoToToday shows and selects the current date
func (c *Controller) GoToToday() {
	today := calendar.DateOf(c.now())
	c.mu.Lock()
	defer c.mu.Unlock()
	previousYear := c.state.VisibleMonth.Year
	c.state.VisibleMonth = visibleMonthOf(today)
	c.state.SelectedDate = &today
	c.refetchOnYearChangeLocked(previousYear)
}

//SelectDate marks d as selected. d is not checked against the visible month.
func (c *Controller) SelectDate(d calendar.Date) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.SelectedDate = &d
}

//Navigate moves the visible month one month in direction and clears the selected date
func (c *Controller) Navigate(direction Direction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	previousYear := c.state.VisibleMonth.Year
	c.state.VisibleMonth = c.state.VisibleMonth.Shift(int(direction))
	c.state.SelectedDate = nil
	c.refetchOnYearChangeLocked(previousYear)
}

//SwitchView changes the view mode
func (c *Controller) SwitchView(mode ViewMode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.ViewMode = mode
}

//SelectCountry records countryCode as selected and fetches its holidays for the visible year.
//An empty countryCode clears the selection and leaves the holiday list as is.
func (c *Controller) SelectCountry(countryCode string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.SelectedCountryCode = countryCode
	if countryCode == "" {
		return
	}
	c.startHolidayFetchLocked(c.state.VisibleMonth.Year, countryCode)
}

//Snapshot copies the current state
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	state := c.state
	if c.state.SelectedDate != nil {
		selected := *c.state.SelectedDate
		state.SelectedDate = &selected
	}
	return Snapshot{
		State:     state,
		Holidays:  append([]calendar.Holiday{}, c.holidays...),
		Countries: append([]calendar.Country{}, c.countries...),
	}
}

//Wait blocks until all fetches started so far have completed
func (c *Controller) Wait() {
	c.inFlight.Wait()
}

//Close cancels fetches in flight and waits for them to return
func (c *Controller) Close() {
	c.cancel()
	c.inFlight.Wait()
}

//refetchOnYearChangeLocked loads the holidays of the new visible year when a country is selected
func (c *Controller) refetchOnYearChangeLocked(previousYear int) {
	if c.state.SelectedCountryCode == "" || c.state.VisibleMonth.Year == previousYear {
		return
	}
	c.startHolidayFetchLocked(c.state.VisibleMonth.Year, c.state.SelectedCountryCode)
}

//startHolidayFetchLocked begins a new fetch generation, callers hold c.mu
func (c *Controller) startHolidayFetchLocked(year int, countryCode string) {
	c.generation++
	c.inFlight.Add(1)
	go c.fetchHolidays(c.generation, year, countryCode)
}

//fetchHolidays retrieves holidays and replaces the holiday list if no newer fetch was requested meanwhile.
//On failure the holiday list is left unchanged.
func (c *Controller) fetchHolidays(generation uint64, year int, countryCode string) {
	defer c.inFlight.Done()
	outcome := FetchOutcome{
		Id:          uuid.NewString(),
		Kind:        FetchKindHolidays,
		Year:        year,
		CountryCode: countryCode,
		Generation:  generation,
		StartedAt:   time.Now(),
	}

	holidays, err := c.source.FetchHolidays(c.ctx, year, countryCode)
	outcome.Duration = time.Since(outcome.StartedAt)

	c.mu.Lock()
	outcome.Stale = generation != c.generation
	if err == nil && !outcome.Stale {
		c.holidays = holidays
	}
	c.mu.Unlock()

	if err != nil {
		outcome.Error = err.Error()
		c.log.Printf("Error fetching holidays for %s %d: %v", countryCode, year, err)
	} else {
		outcome.Succeeded = true
		outcome.Records = len(holidays)
		if outcome.Stale {
			c.log.Printf("Discarding %d holidays for %s %d, a newer request was made", len(holidays),
				countryCode, year)
		}
	}
	c.observer.Observe(outcome)
}

//fetchCountries loads the country list once
func (c *Controller) fetchCountries() {
	defer c.inFlight.Done()
	outcome := FetchOutcome{
		Id:        uuid.NewString(),
		Kind:      FetchKindCountries,
		StartedAt: time.Now(),
	}

	countries, err := c.source.FetchCountries(c.ctx)
	outcome.Duration = time.Since(outcome.StartedAt)
	if err != nil {
		outcome.Error = err.Error()
		c.log.Printf("Error fetching countries: %v", err)
		c.observer.Observe(outcome)
		return
	}

	c.mu.Lock()
	c.countries = countries
	c.mu.Unlock()

	outcome.Succeeded = true
	outcome.Records = len(countries)
	c.observer.Observe(outcome)
}
