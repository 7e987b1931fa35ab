package calendar

import "time"

// Holiday is a named public holiday as delivered by a holiday source
type Holiday struct {
	Date Date   `json:"date"`
	Name string `json:"name"`
}

// Country is an entry of the country list offered for holiday lookups
type Country struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// HolidaysInMonth returns the holidays falling in year and month, in input order
func HolidaysInMonth(holidays []Holiday, year int, month time.Month) []Holiday {
	results := make([]Holiday, 0)
	for _, h := range holidays {
		if h.Date.Year == year && h.Date.Month == month {
			results = append(results, h)
		}
	}
	return results
}
