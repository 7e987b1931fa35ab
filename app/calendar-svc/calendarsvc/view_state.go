package calendarsvc

import (
	"fmt"
	"time"

	"github.com/OpenTransitTools/holidaycal/business/data/calendar"
)

//ViewMode selects which view the calendar renders
type ViewMode string

const (
	ViewDefault ViewMode = "default"
	ViewMonth   ViewMode = "month"
	ViewYear    ViewMode = "year"
)

//ParseViewMode converts a view name to ViewMode
func ParseViewMode(s string) (ViewMode, error) {
	switch mode := ViewMode(s); mode {
	case ViewDefault, ViewMonth, ViewYear:
		return mode, nil
	}
	return "", fmt.Errorf("unknown view mode %q", s)
}

//ShowsMonth is true for the modes rendering the month grid, default and month render identically
func (m ViewMode) ShowsMonth() bool {
	return m != ViewYear
}

//Direction is the way Navigate moves the visible month
type Direction int

const (
	Prev Direction = -1
	Next Direction = 1
)

//ParseDirection converts "prev" or "next" to Direction
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "prev":
		return Prev, nil
	case "next":
		return Next, nil
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

//VisibleMonth is the month shown by the month view, Month is zero based
type VisibleMonth struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

//visibleMonthOf returns the month containing d
func visibleMonthOf(d calendar.Date) VisibleMonth {
	return VisibleMonth{Year: d.Year, Month: int(d.Month) - 1}
}

//Shift moves the month by months, wrapping across year boundaries
func (v VisibleMonth) Shift(months int) VisibleMonth {
	first := time.Date(v.Year, time.Month(v.Month+1+months), 1, 0, 0, 0, 0, time.UTC)
	return visibleMonthOf(calendar.DateOf(first))
}

//Contains reports whether d lies in the month
func (v VisibleMonth) Contains(d calendar.Date) bool {
	return visibleMonthOf(d) == v
}

//Label formats the month as "January 2024"
func (v VisibleMonth) Label() string {
	return time.Date(v.Year, time.Month(v.Month+1), 1, 0, 0, 0, 0, time.UTC).Format("January 2006")
}

//ViewState is everything the user has chosen in the calendar
type ViewState struct {
	VisibleMonth        VisibleMonth   `json:"visible_month"`
	SelectedDate        *calendar.Date `json:"selected_date"`
	ViewMode            ViewMode       `json:"view_mode"`
	SelectedCountryCode string         `json:"selected_country_code,omitempty"`
}

//Snapshot is a copy of the controller state, safe to read while the controller changes
type Snapshot struct {
	State     ViewState          `json:"state"`
	Holidays  []calendar.Holiday `json:"holidays"`
	Countries []calendar.Country `json:"countries"`
}

//MonthGrid computes the grid of the visible month annotated with the current holidays
func (s Snapshot) MonthGrid() calendar.MonthGrid {
	return calendar.ComputeMonthGrid(s.State.VisibleMonth.Year, s.State.VisibleMonth.Month, s.Holidays)
}

//YearGrids computes the twelve grids of the visible year
func (s Snapshot) YearGrids() []calendar.MonthGrid {
	return calendar.ComputeYearGrids(s.State.VisibleMonth.Year)
}

//IsSelected reports whether d is the selected date
func (s Snapshot) IsSelected(d calendar.Date) bool {
	return s.State.SelectedDate != nil && *s.State.SelectedDate == d
}

// Holiday panel messages
const (
	NoHolidaysMessage  = "No Holidays"
	SelectDateMessage  = "Select a date in the current month"
	HolidayPanelHeader = "Holiday Details:"
)

//HolidayPanel is the list shown below the month grid
type HolidayPanel struct {
	Holidays []calendar.Holiday `json:"holidays"`
	Message  string             `json:"message,omitempty"`
}

//HolidayPanel lists the holidays of the visible month when any holidays are loaded, otherwise it carries
//a hint depending on whether the selected date is in the visible month
func (s Snapshot) HolidayPanel() HolidayPanel {
	if len(s.Holidays) > 0 {
		month := s.State.VisibleMonth
		return HolidayPanel{
			Holidays: calendar.HolidaysInMonth(s.Holidays, month.Year, time.Month(month.Month+1)),
		}
	}
	if s.State.SelectedDate != nil && s.State.VisibleMonth.Contains(*s.State.SelectedDate) {
		return HolidayPanel{Holidays: []calendar.Holiday{}, Message: NoHolidaysMessage}
	}
	return HolidayPanel{Holidays: []calendar.Holiday{}, Message: SelectDateMessage}
}
