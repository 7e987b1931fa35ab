package calendarsvc

import (
	"fmt"
	"io"
	"time"

	"github.com/OpenTransitTools/holidaycal/business/data/calendar"
	ics "github.com/arran4/golang-ical"
)

const icsProductId = "-//OpenTransitTools//holidaycal//EN"

//writeHolidayICS writes holidays as all day iCalendar events
func writeHolidayICS(w io.Writer, countryCode string, holidays []calendar.Holiday, stamp time.Time) error {
	c := ics.NewCalendar()
	c.SetMethod(ics.MethodPublish)
	c.SetProductId(icsProductId)
	c.SetXWRCalName(fmt.Sprintf("Public holidays %s", countryCode))

	for i, h := range holidays {
		start := h.Date.Time(time.UTC)
		// duplicates on one date are kept, the index keeps uids unique
		event := c.AddEvent(fmt.Sprintf("%s-%s-%d@holidaycal", h.Date, countryCode, i))
		event.SetDtStampTime(stamp)
		event.SetAllDayStartAt(start)
		event.SetAllDayEndAt(start.AddDate(0, 0, 1))
		event.SetSummary(h.Name)
	}

	_, err := io.WriteString(w, c.Serialize())
	return err
}
