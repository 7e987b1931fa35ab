package calendarsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"html/template"
	logger "log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/OpenTransitTools/holidaycal/business/data/calendar"
	"github.com/OpenTransitTools/holidaycal/business/data/fetchlog"
	"github.com/OpenTransitTools/holidaycal/foundation/database"
	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//recentFetchLimit is the number of fetch log rows served by /api/fetches
const recentFetchLimit = 100

//defaultHttpHandler answers health checks, including the database when one is configured
type defaultHttpHandler struct {
	log *logger.Logger
	db  *sqlx.DB
}

//ServeHTTP implements defaultHttpHandler http.Handler interface
func (h *defaultHttpHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), time.Second)
		defer cancel()
		if err := database.StatusCheck(ctx, h.db); err != nil {
			h.log.Printf("Database status check failed, error:%s", err)
			w.Header().Add("Application-Status", "DB_UNAVAILABLE")
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Add("Application-Status", "OK")
}

//calendarHandler holds data needed to respond to calendar requests and log them
type calendarHandler struct {
	log        *logger.Logger
	controller *Controller
	templates  *template.Template
	db         *sqlx.DB
	now        func() time.Time
}

//makeCalendarHandler creates calendarHandler, db may be nil when fetches are not recorded
func makeCalendarHandler(log *logger.Logger, controller *Controller, db *sqlx.DB) (*calendarHandler, error) {
	templates, err := pageTemplates()
	if err != nil {
		return nil, err
	}
	return &calendarHandler{
		log:        log,
		controller: controller,
		templates:  templates,
		db:         db,
		now:        time.Now,
	}, nil
}

//serveIndex renders the calendar page
func (h *calendarHandler) serveIndex(w http.ResponseWriter, _ *http.Request) {
	var buf bytes.Buffer
	if err := renderPage(&buf, h.templates, h.controller.Snapshot()); err != nil {
		h.log.Printf("Error rendering calendar page, error:%s", err)
		http.Error(w, "Error serving request", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		h.log.Printf("Error writing calendar page: %s", err)
	}
}

//redirectHome sends the browser back to the calendar page after an action
func redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *calendarHandler) handleToday(w http.ResponseWriter, r *http.Request) {
	h.controller.GoToToday()
	redirectHome(w, r)
}

func (h *calendarHandler) handleSelect(w http.ResponseWriter, r *http.Request) {
	date, err := calendar.ParseDate(r.FormValue("date"))
	if err != nil {
		http.Error(w, "Invalid date", http.StatusBadRequest)
		return
	}
	h.controller.SelectDate(date)
	redirectHome(w, r)
}

func (h *calendarHandler) handleNavigate(w http.ResponseWriter, r *http.Request) {
	direction, err := ParseDirection(mux.Vars(r)["direction"])
	if err != nil {
		http.Error(w, "Invalid direction", http.StatusBadRequest)
		return
	}
	h.controller.Navigate(direction)
	redirectHome(w, r)
}

func (h *calendarHandler) handleView(w http.ResponseWriter, r *http.Request) {
	mode, err := ParseViewMode(mux.Vars(r)["mode"])
	if err != nil {
		http.Error(w, "Invalid view mode", http.StatusBadRequest)
		return
	}
	h.controller.SwitchView(mode)
	redirectHome(w, r)
}

func (h *calendarHandler) handleCountry(w http.ResponseWriter, r *http.Request) {
	h.controller.SelectCountry(strings.TrimSpace(r.FormValue("code")))
	redirectHome(w, r)
}

//serveState sends the controller snapshot as json
func (h *calendarHandler) serveState(w http.ResponseWriter, _ *http.Request) {
	s := h.controller.Snapshot()
	h.writeJSON(w, struct {
		Snapshot
		Panel HolidayPanel `json:"panel"`
	}{Snapshot: s, Panel: s.HolidayPanel()})
}

//serveMonth sends the grid of ?year=&month= (zero based), defaulting to the visible month, annotated with
//the current holidays
func (h *calendarHandler) serveMonth(w http.ResponseWriter, r *http.Request) {
	s := h.controller.Snapshot()
	year := s.State.VisibleMonth.Year
	month := s.State.VisibleMonth.Month
	var err error
	if v := r.FormValue("year"); v != "" {
		if year, err = strconv.Atoi(v); err != nil {
			http.Error(w, "Invalid year", http.StatusBadRequest)
			return
		}
	}
	if v := r.FormValue("month"); v != "" {
		if month, err = strconv.Atoi(v); err != nil || month < 0 || month > 11 {
			http.Error(w, "Invalid month", http.StatusBadRequest)
			return
		}
	}
	h.writeJSON(w, calendar.ComputeMonthGrid(year, month, s.Holidays))
}

//serveYear sends the twelve grids of the year in the path
func (h *calendarHandler) serveYear(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(mux.Vars(r)["year"])
	if err != nil {
		http.Error(w, "Invalid year", http.StatusBadRequest)
		return
	}
	h.writeJSON(w, calendar.ComputeYearGrids(year))
}

//serveICS sends the current holidays as an iCalendar file
func (h *calendarHandler) serveICS(w http.ResponseWriter, _ *http.Request) {
	s := h.controller.Snapshot()
	var buf bytes.Buffer
	if err := writeHolidayICS(&buf, s.State.SelectedCountryCode, s.Holidays, h.now()); err != nil {
		h.log.Printf("Error building holiday ics, error:%s", err)
		http.Error(w, "Error serving request", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=holidays.ics")
	if _, err := buf.WriteTo(w); err != nil {
		h.log.Printf("Error writing holiday ics: %s", err)
	}
}

//serveFetches sends the most recent fetch log rows
func (h *calendarHandler) serveFetches(w http.ResponseWriter, _ *http.Request) {
	records, err := fetchlog.RecentFetches(h.db, recentFetchLimit)
	if err != nil {
		h.log.Printf("Error reading fetch log, error:%s", err)
		http.Error(w, "Error serving request", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, records)
}

//writeJSON marshals v and writes it as the response
func (h *calendarHandler) writeJSON(w http.ResponseWriter, v interface{}) {
	jsonData, err := json.Marshal(v)
	if err != nil {
		h.log.Printf("Error marshaling json response: error:%v\n", err)
		http.Error(w, "Error serving request", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(jsonData); err != nil {
		h.log.Printf("Error writing json response: %s", err)
	}
}

//newRouter routes every calendar endpoint
func newRouter(h *calendarHandler) *mux.Router {
	r := mux.NewRouter()
	r.Handle("/health", &defaultHttpHandler{log: h.log, db: h.db})
	r.HandleFunc("/", h.serveIndex).Methods(http.MethodGet)
	r.HandleFunc("/today", h.handleToday).Methods(http.MethodPost)
	r.HandleFunc("/select", h.handleSelect).Methods(http.MethodPost)
	r.HandleFunc("/navigate/{direction}", h.handleNavigate).Methods(http.MethodPost)
	r.HandleFunc("/view/{mode}", h.handleView).Methods(http.MethodPost)
	r.HandleFunc("/country", h.handleCountry).Methods(http.MethodPost)
	r.HandleFunc("/api/state", h.serveState).Methods(http.MethodGet)
	r.HandleFunc("/api/month", h.serveMonth).Methods(http.MethodGet)
	r.HandleFunc("/api/year/{year:-?[0-9]+}", h.serveYear).Methods(http.MethodGet)
	r.HandleFunc("/holidays.ics", h.serveICS).Methods(http.MethodGet)
	if h.db != nil {
		r.HandleFunc("/api/fetches", h.serveFetches).Methods(http.MethodGet)
	}
	r.Handle("/metrics", promhttp.Handler())
	return r
}

//createServer creates configured http.Server for the calendar
func createServer(log *logger.Logger, controller *Controller, db *sqlx.DB, httpPort int) (*http.Server, error) {
	handler, err := makeCalendarHandler(log, controller, db)
	if err != nil {
		return nil, err
	}
	srv := &http.Server{
		Addr: strings.Join([]string{"0.0.0.0", strconv.Itoa(httpPort)}, ":"),
		// Good practice to set timeouts to avoid Slowloris attacks.
		WriteTimeout: time.Second * 15,
		ReadTimeout:  time.Second * 15,
		IdleTimeout:  time.Second * 60,
		Handler:      newRouter(handler),
	}
	return srv, nil
}

//runWebService starts up the calendar web service, and terminates on shutdown signal
func runWebService(log *logger.Logger,
	wg *sync.WaitGroup,
	srv *http.Server,
	shutdownTimeout time.Duration,
	shutdownSignal chan bool,
) {
	defer wg.Done()
	log.Printf("Starting server on %s", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil {
			log.Printf("server ListenAndServe ended. %s", err)
		}
	}()

	<-shutdownSignal
	log.Printf("ending webservice on shutdown signal")
	shutdownCtx, serverCancelFunc := context.WithTimeout(context.Background(), shutdownTimeout)
	defer serverCancelFunc()
	err := srv.Shutdown(shutdownCtx)
	if err != nil {
		log.Printf("error shutting down webservice, error:%s", err)
	}
}
