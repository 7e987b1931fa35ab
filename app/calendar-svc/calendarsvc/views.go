package calendarsvc

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/OpenTransitTools/holidaycal/business/data/calendar"
)

//go:embed templates/*.html
var templateFiles embed.FS

var (
	monthWeekdayHeader = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
	yearWeekdayHeader  = []string{"S", "M", "T", "W", "Th", "F", "Sa"}
)

//dayView is one cell of the rendered month grid
type dayView struct {
	Empty       bool
	Day         int
	Date        string
	Selected    bool
	IsHoliday   bool
	HolidayName string
}

//miniMonthView is one month of the year view
type miniMonthView struct {
	Title string
	Weeks [][]calendar.Cell
}

//pageView holds everything calendar.html renders
type pageView struct {
	ShowMonth           bool
	MonthLabel          string
	Countries           []calendar.Country
	SelectedCountryCode string
	WeekdayHeader       []string
	Weeks               [][]dayView
	Panel               HolidayPanel
	PanelHeader         string
	Year                int
	YearWeekdayHeader   []string
	Months              []miniMonthView
}

//buildPageView turns a Snapshot into pageView, computing only the grids the view mode shows
func buildPageView(s Snapshot) pageView {
	view := pageView{
		ShowMonth:           s.State.ViewMode.ShowsMonth(),
		MonthLabel:          s.State.VisibleMonth.Label(),
		Countries:           s.Countries,
		SelectedCountryCode: s.State.SelectedCountryCode,
		Year:                s.State.VisibleMonth.Year,
	}

	if !view.ShowMonth {
		view.YearWeekdayHeader = yearWeekdayHeader
		for _, grid := range s.YearGrids() {
			first := VisibleMonth{Year: grid.Year, Month: grid.Month}
			view.Months = append(view.Months, miniMonthView{
				Title: first.Label(),
				Weeks: grid.Weeks(),
			})
		}
		return view
	}

	view.WeekdayHeader = monthWeekdayHeader
	grid := s.MonthGrid()
	for _, week := range grid.Weeks() {
		row := make([]dayView, 0, len(week))
		for _, cell := range week {
			if cell.Empty {
				row = append(row, dayView{Empty: true})
				continue
			}
			date := grid.DateOf(cell)
			row = append(row, dayView{
				Day:         cell.Day,
				Date:        date.String(),
				Selected:    s.IsSelected(date),
				IsHoliday:   cell.IsHoliday,
				HolidayName: cell.HolidayName,
			})
		}
		view.Weeks = append(view.Weeks, row)
	}
	view.Panel = s.HolidayPanel()
	if view.Panel.Message == "" {
		view.PanelHeader = HolidayPanelHeader
	}
	return view
}

//pageTemplates parses the embedded html templates
func pageTemplates() (*template.Template, error) {
	t, err := template.ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing calendar templates: %w", err)
	}
	return t, nil
}

//renderPage writes the calendar page for s
func renderPage(w io.Writer, t *template.Template, s Snapshot) error {
	return t.ExecuteTemplate(w, "calendar.html", buildPageView(s))
}
