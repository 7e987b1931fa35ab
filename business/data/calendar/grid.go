package calendar

import "time"

// DaysPerWeek is the width of a month grid
const DaysPerWeek = 7

// Cell is a single square of a MonthGrid. Empty cells pad the first week so that day 1 lands
// under its day of the week.
type Cell struct {
	Empty       bool   `json:"empty"`
	Day         int    `json:"day,omitempty"`
	IsHoliday   bool   `json:"is_holiday,omitempty"`
	HolidayName string `json:"holiday_name,omitempty"`
}

// MonthGrid holds the cells of one month, leading blanks first, then one cell per day.
// Month is zero based (0 is January).
type MonthGrid struct {
	Year  int    `json:"year"`
	Month int    `json:"month"`
	Cells []Cell `json:"cells"`
}

// firstOfMonth returns midnight on the first day of the zero based month
func firstOfMonth(year int, month int) time.Time {
	return time.Date(year, time.Month(month+1), 1, 0, 0, 0, 0, time.UTC)
}

// LeadingBlanks returns the day of week of the first of the month, 0 for Sunday through 6 for Saturday.
// month is zero based.
func LeadingBlanks(year int, month int) int {
	return int(firstOfMonth(year, month).Weekday())
}

// DaysInMonth returns the last day of the zero based month, found as day 0 of the following month
func DaysInMonth(year int, month int) int {
	return time.Date(year, time.Month(month+2), 0, 0, 0, 0, 0, time.UTC).Day()
}

// ComputeMonthGrid builds the grid for year and zero based month, marking days that share a calendar
// date with any of holidays. When several holidays fall on one day the first one in holidays names it.
// month is expected in [0, 11], other values are not checked.
func ComputeMonthGrid(year int, month int, holidays []Holiday) MonthGrid {
	return computeGrid(year, month, holidays)
}

// ComputeYearGrids builds the twelve month grids of year, without holiday annotations
func ComputeYearGrids(year int) []MonthGrid {
	grids := make([]MonthGrid, 0, 12)
	for month := 0; month < 12; month++ {
		grids = append(grids, computeGrid(year, month, nil))
	}
	return grids
}

// computeGrid is shared by the month and year views, holidays may be nil
func computeGrid(year int, month int, holidays []Holiday) MonthGrid {
	leading := LeadingBlanks(year, month)
	days := DaysInMonth(year, month)

	names := make(map[Date]string)
	for _, h := range holidays {
		if _, present := names[h.Date]; !present {
			names[h.Date] = h.Name
		}
	}

	first := DateOf(firstOfMonth(year, month))
	cells := make([]Cell, 0, leading+days)
	for i := 0; i < leading; i++ {
		cells = append(cells, Cell{Empty: true})
	}
	for day := 1; day <= days; day++ {
		cell := Cell{Day: day}
		if name, present := names[Date{Year: first.Year, Month: first.Month, Day: day}]; present {
			cell.IsHoliday = true
			cell.HolidayName = name
		}
		cells = append(cells, cell)
	}

	return MonthGrid{
		Year:  year,
		Month: month,
		Cells: cells,
	}
}

// LeadingBlanks counts the empty cells before day 1
func (g MonthGrid) LeadingBlanks() int {
	count := 0
	for _, c := range g.Cells {
		if !c.Empty {
			break
		}
		count++
	}
	return count
}

// DaysInMonth counts the day cells
func (g MonthGrid) DaysInMonth() int {
	return len(g.Cells) - g.LeadingBlanks()
}

// DateOf returns the calendar date of a day cell of g
func (g MonthGrid) DateOf(c Cell) Date {
	first := DateOf(firstOfMonth(g.Year, g.Month))
	return Date{Year: first.Year, Month: first.Month, Day: c.Day}
}

// Weeks splits the cells into rows of DaysPerWeek, the last row may be shorter
func (g MonthGrid) Weeks() [][]Cell {
	weeks := make([][]Cell, 0, (len(g.Cells)+DaysPerWeek-1)/DaysPerWeek)
	for start := 0; start < len(g.Cells); start += DaysPerWeek {
		end := start + DaysPerWeek
		if end > len(g.Cells) {
			end = len(g.Cells)
		}
		weeks = append(weeks, g.Cells[start:end])
	}
	return weeks
}
