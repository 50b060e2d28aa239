// Package fakebackend is an in-memory stand-in for the remote services the
// dashboard talks to: the students API, the fleet API, the location sheet and
// the reverse geocoder. Tests point clients at Server.URL.
package fakebackend

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"

	"github.com/gorilla/mux"

	"github.com/Spok95/hallboard/internal/models"
)

type Call struct {
	Method string
	Path   string
	Auth   string
	Body   json.RawMessage
}

type Server struct {
	*httptest.Server

	mu        sync.Mutex
	calls     []Call
	students  map[int]models.Student
	drivers   []models.Vehicle
	locations map[string][]models.RawLocation
	sheet     []models.RawLocation
	place     string
	failNext  map[string]int // route name -> status to return once
	Token     string
	Admin     [2]string
}

func New() *Server {
	s := &Server{
		students:  map[int]models.Student{},
		locations: map[string][]models.RawLocation{},
		failNext:  map[string]int{},
		Token:     "test-token",
		Admin:     [2]string{"admin", "secret"},
	}
	r := mux.NewRouter()
	r.Use(s.record)

	r.HandleFunc("/api/students/all", s.listStudents).Methods(http.MethodGet).Name("students.all")
	r.HandleFunc("/api/students/create", s.createStudent).Methods(http.MethodPost).Name("students.create")
	r.HandleFunc("/api/students/update/{sitNo}", s.updateStudent).Methods(http.MethodPut).Name("students.update")
	r.HandleFunc("/api/students/delete/{sitNo}", s.deleteStudent).Methods(http.MethodDelete).Name("students.delete")
	r.HandleFunc("/api/students/update-fee/{sitNo}", s.updateFee).Methods(http.MethodPut).Name("students.update-fee")
	r.HandleFunc("/api/students/copy-fees-next-month", s.copyFees).Methods(http.MethodPost).Name("students.copy-fees")

	r.HandleFunc("/api/auth/admin/login", s.login).Methods(http.MethodPost).Name("auth.login")
	r.HandleFunc("/api/auth/getDrivers", s.listDrivers).Methods(http.MethodGet).Name("auth.drivers")
	r.HandleFunc("/api/auth/register", s.register).Methods(http.MethodPost).Name("auth.register")
	r.HandleFunc("/api/auth/getVehicleLocations/{vehicleNo}", s.vehicleLocations).Methods(http.MethodGet).Name("auth.locations")

	r.HandleFunc("/get-sheet-data", s.sheetData).Methods(http.MethodGet).Name("sheet.data")
	r.HandleFunc("/clear-data", s.clearSheet).Methods(http.MethodGet).Name("sheet.clear")
	r.HandleFunc("/reverse", s.reverse).Methods(http.MethodGet).Name("geo.reverse")

	s.Server = httptest.NewServer(r)
	return s
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body json.RawMessage
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&body)
		}
		s.mu.Lock()
		s.calls = append(s.calls, Call{Method: r.Method, Path: r.URL.Path, Auth: r.Header.Get("Authorization"), Body: body})
		route := ""
		if cur := mux.CurrentRoute(r); cur != nil {
			route = cur.GetName()
		}
		code, fail := s.failNext[route]
		if fail {
			delete(s.failNext, route)
		}
		s.mu.Unlock()
		if fail {
			http.Error(w, "injected failure", code)
			return
		}
		r.Body = http.NoBody
		r = r.WithContext(withBody(r.Context(), body))
		next.ServeHTTP(w, r)
	})
}

// FailNext makes the next request to the named route answer with code.
func (s *Server) FailNext(route string, code int) {
	s.mu.Lock()
	s.failNext[route] = code
	s.mu.Unlock()
}

func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallsTo counts recorded requests with the given method and path.
func (s *Server) CallsTo(method, path string) int {
	n := 0
	for _, c := range s.Calls() {
		if c.Method == method && c.Path == path {
			n++
		}
	}
	return n
}

func (s *Server) LastCall(method, path string) (Call, bool) {
	calls := s.Calls()
	for i := len(calls) - 1; i >= 0; i-- {
		if calls[i].Method == method && calls[i].Path == path {
			return calls[i], true
		}
	}
	return Call{}, false
}

func (s *Server) AddStudent(st models.Student) {
	s.mu.Lock()
	s.students[st.SitNo] = st
	s.mu.Unlock()
}

func (s *Server) Student(sitNo int) (models.Student, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.students[sitNo]
	return st, ok
}

func (s *Server) AddDriver(v models.Vehicle) {
	s.mu.Lock()
	s.drivers = append(s.drivers, v)
	s.mu.Unlock()
}

func (s *Server) SetLocations(vehicleNo string, locs []models.RawLocation) {
	s.mu.Lock()
	s.locations[vehicleNo] = locs
	s.mu.Unlock()
}

func (s *Server) SetSheet(locs []models.RawLocation) {
	s.mu.Lock()
	s.sheet = locs
	s.mu.Unlock()
}

func (s *Server) SetPlace(name string) {
	s.mu.Lock()
	s.place = name
	s.mu.Unlock()
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func sitNo(r *http.Request) (int, bool) {
	n, err := strconv.Atoi(mux.Vars(r)["sitNo"])
	return n, err == nil
}

func (s *Server) listStudents(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make([]models.Student, 0, len(s.students))
	for _, st := range s.students {
		out = append(out, st)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].SitNo < out[j].SitNo })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createStudent(w http.ResponseWriter, r *http.Request) {
	var st models.Student
	if err := json.Unmarshal(body(r.Context()), &st); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.students[st.SitNo]; dup {
		http.Error(w, "sit already taken", http.StatusConflict)
		return
	}
	s.students[st.SitNo] = st
	writeJSON(w, http.StatusCreated, st)
}

func (s *Server) updateStudent(w http.ResponseWriter, r *http.Request) {
	n, ok := sitNo(r)
	if !ok {
		http.Error(w, "bad sitNo", http.StatusBadRequest)
		return
	}
	var st models.Student
	if err := json.Unmarshal(body(r.Context()), &st); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.students[n]; !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	st.SitNo = n
	s.students[n] = st
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) deleteStudent(w http.ResponseWriter, r *http.Request) {
	n, ok := sitNo(r)
	if !ok {
		http.Error(w, "bad sitNo", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.students[n]; !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	delete(s.students, n)
	writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
}

func (s *Server) updateFee(w http.ResponseWriter, r *http.Request) {
	n, ok := sitNo(r)
	if !ok {
		http.Error(w, "bad sitNo", http.StatusBadRequest)
		return
	}
	var in struct {
		Year  string          `json:"year"`
		Month string          `json:"month"`
		Fees  models.FeeEntry `json:"fees"`
	}
	if err := json.Unmarshal(body(r.Context()), &in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, err := models.ParseMonth(in.Month); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	m := models.Month(in.Month)
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.students[n]
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	st.Ledger = st.Ledger.Clone()
	st.Ledger.Set(in.Year, m, in.Fees)
	s.students[n] = st
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) copyFees(w http.ResponseWriter, r *http.Request) {
	var in struct {
		FromYear  string `json:"fromYear"`
		FromMonth string `json:"fromMonth"`
		ToYear    string `json:"toYear"`
		ToMonth   string `json:"toMonth"`
	}
	if err := json.Unmarshal(body(r.Context()), &in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	from, err1 := models.ParseMonth(in.FromMonth)
	to, err2 := models.ParseMonth(in.ToMonth)
	if err1 != nil || err2 != nil {
		http.Error(w, "bad month", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := 0
	for n, st := range s.students {
		e, ok := st.Ledger.Entry(in.FromYear, from)
		if !ok {
			continue
		}
		st.Ledger = st.Ledger.Clone()
		st.Ledger.Set(in.ToYear, to, models.FeeEntry{Value: e.Value, Paid: 0})
		s.students[n] = st
		copied++
	}
	writeJSON(w, http.StatusOK, map[string]int{"copied": copied})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	_ = json.Unmarshal(body(r.Context()), &in)
	if in.Username != s.Admin[0] || in.Password != s.Admin[1] {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": s.Token})
}

func (s *Server) listDrivers(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer "+s.Token {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	s.mu.Lock()
	out := append([]models.Vehicle{}, s.drivers...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var reg models.Registration
	if err := json.Unmarshal(body(r.Context()), &reg); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.drivers = append(s.drivers, models.Vehicle{VehicleNo: reg.VehicleNo, DriverName: reg.DriverName, VehicleType: reg.VehicleType})
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, map[string]string{"message": "registered"})
}

func (s *Server) vehicleLocations(w http.ResponseWriter, r *http.Request) {
	no := mux.Vars(r)["vehicleNo"]
	s.mu.Lock()
	locs, ok := s.locations[no]
	s.mu.Unlock()
	if !ok {
		http.Error(w, "vehicle not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, models.VehicleLocations{VehicleNo: no, Locations: locs})
}

func (s *Server) sheetData(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := append([]models.RawLocation{}, s.sheet...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) clearSheet(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.sheet = nil
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"message": "cleared"})
}

func (s *Server) reverse(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	place := s.place
	s.mu.Unlock()
	if place == "" {
		http.Error(w, "no place", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"display_name": place})
}
