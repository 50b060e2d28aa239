package app

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/Spok95/hallboard/internal/banner"
	"github.com/Spok95/hallboard/internal/export"
	"github.com/Spok95/hallboard/internal/fees"
	"github.com/Spok95/hallboard/internal/fleet"
	"github.com/Spok95/hallboard/internal/forms"
	"github.com/Spok95/hallboard/internal/models"
	"github.com/Spok95/hallboard/internal/session"
	"github.com/Spok95/hallboard/internal/students"
	"github.com/Spok95/hallboard/internal/tg"
	"github.com/Spok95/hallboard/internal/tracker"
)

// Deps are the services the HTTP surface renders. Notifier may be disabled.
type Deps struct {
	Session  *session.State
	Students *students.Service
	Fleet    *fleet.Service
	Poller   *tracker.Poller
	Frames   *tracker.Store
	Hub      *Hub
	Board    *banner.Board
	Notifier *tg.Notifier
	Health   []HealthCheck
	Location *time.Location
	Log      *zap.Logger
}

// HealthCheck is one dependency probed by /healthz.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type Handlers struct {
	Deps
	log *zap.Logger
	now func() time.Time
}

func NewHandlers(d Deps) *Handlers {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Location == nil {
		d.Location = time.Local
	}
	return &Handlers{Deps: d, log: d.Log.Named("http"), now: time.Now}
}

// selection reads ?year=&month=, defaulting to the current month.
func (h *Handlers) selection(r *http.Request) (fees.Selection, error) {
	cur := fees.Current(h.now().In(h.Location))
	q := r.URL.Query()
	y, m := q.Get("year"), q.Get("month")
	if y == "" {
		y = cur.Year
	}
	if m == "" {
		m = string(cur.Month)
	}
	return fees.ParseSelection(y, m)
}

func sitNoVar(r *http.Request) (int, bool) {
	n, err := strconv.Atoi(mux.Vars(r)["sitNo"])
	return n, err == nil && models.ValidSitNo(n)
}

// studentList re-fetches the list; on failure it falls back to the cached one,
// marked stale, or fails when nothing was ever loaded.
func (h *Handlers) studentList(ctx context.Context) ([]models.Student, bool, error) {
	list, err := h.Students.Refresh(ctx)
	if err == nil {
		return list, false, nil
	}
	if h.Students.Loaded() {
		return list, true, nil
	}
	return nil, false, err
}

// session

type sessionView struct {
	LoggedIn bool   `json:"loggedIn"`
	User     string `json:"user,omitempty"`
}

func (h *Handlers) GetSession(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, sessionView{LoggedIn: h.Session.LoggedIn(), User: h.Session.User()})
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.Session.Login(r.Context(), in.Username, in.Password); err != nil {
		h.fail(w, r, err, "Login failed")
		return
	}
	respondJSON(w, http.StatusOK, sessionView{LoggedIn: true, User: h.Session.User()})
}

func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Session.Logout(r.Context()); err != nil {
		h.log.Error("clear token store", zap.Error(err))
	}
	w.WriteHeader(http.StatusNoContent)
}

// requireLogin answers 401 when no admin token is held.
func (h *Handlers) requireLogin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.Session.LoggedIn() {
			respondError(w, http.StatusUnauthorized, "Login required")
			return
		}
		next(w, r)
	}
}

// tracker

type frameView struct {
	tracker.Frame
	Empty bool `json:"empty"`
}

func (h *Handlers) GetFrame(w http.ResponseWriter, r *http.Request) {
	f := h.Frames.Frame()
	respondJSON(w, http.StatusOK, frameView{Frame: f, Empty: f.Empty()})
}

func (h *Handlers) ClearTracker(w http.ResponseWriter, r *http.Request) {
	if err := h.Poller.Clear(r.Context()); err != nil {
		h.Board.Error("Failed to clear data")
		h.fail(w, r, err, "Failed to clear data")
		return
	}
	h.Board.Success("Location data cleared!")
	w.WriteHeader(http.StatusNoContent)
}

// fleet

func (h *Handlers) ListDrivers(w http.ResponseWriter, r *http.Request) {
	list, err := h.Fleet.ListDrivers(r.Context())
	if err != nil {
		h.Board.Error("Failed to load drivers.")
		h.fail(w, r, err, "Failed to load drivers")
		return
	}
	if list == nil {
		list = []models.Vehicle{}
	}
	respondJSON(w, http.StatusOK, list)
}

func (h *Handlers) RegisterDriver(w http.ResponseWriter, r *http.Request) {
	var reg models.Registration
	if err := decodeJSON(w, r, &reg); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.Fleet.Register(r.Context(), reg); err != nil {
		if !errors.Is(err, forms.ErrInvalid) {
			h.Board.Error("Failed to register vehicle.")
		}
		h.fail(w, r, err, "Failed to register vehicle")
		return
	}
	h.Board.Success("Vehicle registered successfully!")
	w.WriteHeader(http.StatusCreated)
}

func (h *Handlers) CurrentLocation(w http.ResponseWriter, r *http.Request) {
	h.lookup(w, r, h.Fleet.Current)
}

func (h *Handlers) LocationHistory(w http.ResponseWriter, r *http.Request) {
	h.lookup(w, r, h.Fleet.History)
}

func (h *Handlers) lookup(w http.ResponseWriter, r *http.Request, fn func(context.Context, string) (fleet.Lookup, error)) {
	no := mux.Vars(r)["vehicleNo"]
	l, err := fn(r.Context(), no)
	if err != nil {
		h.Board.Error("Failed to fetch vehicle location.")
		h.fail(w, r, err, "Failed to fetch vehicle location")
		return
	}
	respondJSON(w, http.StatusOK, l)
}

// students

type studentsView struct {
	Students []models.Student `json:"students"`
	Stale    bool             `json:"stale"`
}

func (h *Handlers) ListStudents(w http.ResponseWriter, r *http.Request) {
	list, stale, err := h.studentList(r.Context())
	if err != nil {
		h.fail(w, r, err, "Failed to load students")
		return
	}
	list = students.SortBySitNo(students.FilterByName(list, r.URL.Query().Get("q")))
	respondJSON(w, http.StatusOK, studentsView{Students: list, Stale: stale})
}

func (h *Handlers) CreateStudent(w http.ResponseWriter, r *http.Request) {
	var f students.Form
	if err := decodeJSON(w, r, &f); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if _, err := h.Students.Ensure(r.Context()); err != nil {
		h.fail(w, r, err, "Failed to load students")
		return
	}
	st, err := h.Students.Create(r.Context(), f)
	if err != nil {
		h.fail(w, r, err, "Failed to create/update student")
		return
	}
	respondJSON(w, http.StatusCreated, st)
}

// StudentForm prefills the edit form; paid reflects the selected month.
func (h *Handlers) StudentForm(w http.ResponseWriter, r *http.Request) {
	sitNo, ok := sitNoVar(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid sit number")
		return
	}
	sel, err := h.selection(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := h.Students.Ensure(r.Context()); err != nil {
		h.fail(w, r, err, "Failed to load students")
		return
	}
	st, ok := h.Students.Find(sitNo)
	if !ok {
		h.fail(w, r, students.ErrNotFound, "")
		return
	}
	f := students.FormOf(st)
	f.Paid = fees.StatusOf(st.Ledger, sel) == fees.Paid
	respondJSON(w, http.StatusOK, f)
}

func (h *Handlers) UpdateStudent(w http.ResponseWriter, r *http.Request) {
	sitNo, ok := sitNoVar(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid sit number")
		return
	}
	sel, err := h.selection(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var f students.Form
	if err := decodeJSON(w, r, &f); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if _, err := h.Students.Ensure(r.Context()); err != nil {
		h.fail(w, r, err, "Failed to load students")
		return
	}
	st, err := h.Students.Update(r.Context(), sitNo, f, sel)
	if err != nil {
		h.fail(w, r, err, "Failed to create/update student")
		return
	}
	respondJSON(w, http.StatusOK, st)
}

func (h *Handlers) DeleteStudent(w http.ResponseWriter, r *http.Request) {
	sitNo, ok := sitNoVar(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid sit number")
		return
	}
	if err := h.Students.Delete(r.Context(), sitNo); err != nil {
		h.fail(w, r, err, "Failed to delete student")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// seats and dashboard

type seatsView struct {
	Selection fees.Selection `json:"selection"`
	Filter    fees.Filter    `json:"filter"`
	Seats     []fees.Seat    `json:"seats"`
	Vacant    int            `json:"vacant"`
	Stale     bool           `json:"stale"`
}

func (h *Handlers) Seats(w http.ResponseWriter, r *http.Request) {
	sel, err := h.selection(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	filter, err := fees.ParseFilter(r.URL.Query().Get("filter"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	list, stale, err := h.studentList(r.Context())
	if err != nil {
		h.fail(w, r, err, "Failed to load students")
		return
	}
	respondJSON(w, http.StatusOK, seatsView{
		Selection: sel,
		Filter:    filter,
		Seats:     fees.FilterSeats(fees.SeatGrid(list, sel), filter),
		Vacant:    fees.VacantCount(list),
		Stale:     stale,
	})
}

func (h *Handlers) AvailableSeats(w http.ResponseWriter, r *http.Request) {
	list, _, err := h.studentList(r.Context())
	if err != nil {
		h.fail(w, r, err, "Failed to load students")
		return
	}
	respondJSON(w, http.StatusOK, fees.AvailableSeats(list))
}

type dashboardView struct {
	Selection fees.Selection `json:"selection"`
	Summary   fees.Summary   `json:"summary"`
	Years     []string       `json:"years"`
	Stale     bool           `json:"stale"`
}

func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	sel, err := h.selection(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	list, stale, err := h.studentList(r.Context())
	if err != nil {
		h.fail(w, r, err, "Failed to load students")
		return
	}
	respondJSON(w, http.StatusOK, dashboardView{
		Selection: sel,
		Summary:   fees.Summarize(list, sel),
		Years:     fees.Years(list),
		Stale:     stale,
	})
}

// fees

type feesView struct {
	Selection fees.Selection `json:"selection"`
	Rows      []fees.Row     `json:"rows"`
	Years     []string       `json:"years"`
	Stale     bool           `json:"stale"`
}

// feeRows is the month's rows narrowed by ?status= and ?q=.
func (h *Handlers) feeRows(r *http.Request) (fees.Selection, []fees.Row, []string, bool, error) {
	sel, err := h.selection(r)
	if err != nil {
		return sel, nil, nil, false, queryError{err}
	}
	filter, err := fees.ParseFilter(r.URL.Query().Get("status"))
	if err != nil {
		return sel, nil, nil, false, queryError{err}
	}
	list, stale, err := h.studentList(r.Context())
	if err != nil {
		return sel, nil, nil, false, err
	}
	list = students.FilterByName(list, r.URL.Query().Get("q"))
	return sel, fees.FilterRows(fees.MonthRows(list, sel), filter), fees.Years(list), stale, nil
}

func (h *Handlers) FeeRows(w http.ResponseWriter, r *http.Request) {
	sel, rows, years, stale, err := h.feeRows(r)
	if err != nil {
		h.failQuery(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, feesView{Selection: sel, Rows: rows, Years: years, Stale: stale})
}

type queryError struct{ err error }

func (e queryError) Error() string { return e.err.Error() }

// failQuery separates bad query parameters (400) from upstream failures.
func (h *Handlers) failQuery(w http.ResponseWriter, r *http.Request, err error) {
	var qe queryError
	if errors.As(err, &qe) {
		respondError(w, http.StatusBadRequest, qe.Error())
		return
	}
	h.fail(w, r, err, "Failed to load students")
}

func renderExport(rows []fees.Row, sel fees.Selection) ([]byte, string, error) {
	data, err := export.FeeWorkbookBytes(rows, sel)
	if err != nil {
		return nil, "", err
	}
	return data, export.FeeFileName(sel), nil
}

func (h *Handlers) ToggleFee(w http.ResponseWriter, r *http.Request) {
	sitNo, ok := sitNoVar(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid sit number")
		return
	}
	sel, err := h.selection(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := h.Students.Ensure(r.Context()); err != nil {
		h.fail(w, r, err, "Failed to load students")
		return
	}
	e, err := h.Students.ToggleFee(r.Context(), sitNo, sel)
	if err != nil {
		h.fail(w, r, err, "Failed to update fee status")
		return
	}
	respondJSON(w, http.StatusOK, e)
}

func (h *Handlers) Rollover(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Year  string `json:"year"`
		Month string `json:"month"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if in.Year == "" || in.Month == "" {
		respondError(w, http.StatusBadRequest, "Please select a year and month to add fees.")
		return
	}
	target, err := fees.ParseSelection(in.Year, in.Month)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	req, err := h.Students.CopyFeesNextMonth(r.Context(), target)
	if err != nil {
		h.fail(w, r, err, "Failed to set fees")
		return
	}
	respondJSON(w, http.StatusOK, req)
}

const xlsxType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (h *Handlers) ExportFees(w http.ResponseWriter, r *http.Request) {
	sel, rows, _, _, err := h.feeRows(r)
	if err != nil {
		h.failQuery(w, r, err)
		return
	}
	data, name, err := renderExport(rows, sel)
	if err != nil {
		h.log.Error("render export", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to build spreadsheet")
		return
	}
	w.Header().Set("Content-Type", xlsxType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handlers) SendExport(w http.ResponseWriter, r *http.Request) {
	if !h.Notifier.Enabled() {
		h.fail(w, r, tg.ErrDisabled, "")
		return
	}
	sel, rows, _, _, err := h.feeRows(r)
	if err != nil {
		h.failQuery(w, r, err)
		return
	}
	data, name, err := renderExport(rows, sel)
	if err != nil {
		h.log.Error("render export", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to build spreadsheet")
		return
	}
	caption := "Student Fee Details for " + sel.Month.Title() + " " + sel.Year
	if err := h.Notifier.SendDocument(r.Context(), name, data, caption); err != nil {
		h.Board.Error("Failed to send the export to Telegram.")
		h.fail(w, r, err, "Failed to send export")
		return
	}
	h.Board.Success("Export sent to Telegram.")
	respondJSON(w, http.StatusAccepted, map[string]any{"file": name, "rows": len(rows)})
}

// banner

func (h *Handlers) GetBanner(w http.ResponseWriter, r *http.Request) {
	b, ok := h.Board.Current()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	respondJSON(w, http.StatusOK, b)
}

func (h *Handlers) DismissBanner(w http.ResponseWriter, r *http.Request) {
	h.Board.Dismiss()
	w.WriteHeader(http.StatusNoContent)
}

// health

func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 800*time.Millisecond)
	defer cancel()
	for _, c := range h.Health {
		if err := c.Check(ctx); err != nil {
			http.Error(w, c.Name+" not ok: "+err.Error(), http.StatusServiceUnavailable)
			return
		}
	}
	_, _ = w.Write([]byte("ok"))
}
