package app

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Spok95/hallboard/internal/metrics"
)

// NewRouter wires every route of the dashboard API.
func NewRouter(h *Handlers) *mux.Router {
	r := mux.NewRouter()
	r.Use(h.recoverer, requestID, corsMiddleware, h.accessLog)

	r.HandleFunc("/healthz", h.Healthz).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	// session
	api.HandleFunc("/session", h.GetSession).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/session", h.Login).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/session", h.Logout).Methods(http.MethodDelete, http.MethodOptions)

	// tracker
	api.HandleFunc("/tracker/frame", h.GetFrame).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/tracker/clear", h.ClearTracker).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/tracker/ws", h.Hub.ServeWS)

	// fleet
	api.HandleFunc("/fleet/drivers", h.requireLogin(h.ListDrivers)).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/fleet/drivers", h.requireLogin(h.RegisterDriver)).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/fleet/vehicles/{vehicleNo}/current", h.CurrentLocation).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/fleet/vehicles/{vehicleNo}/history", h.LocationHistory).Methods(http.MethodGet, http.MethodOptions)

	// students
	api.HandleFunc("/students", h.ListStudents).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/students", h.CreateStudent).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/students/{sitNo}", h.StudentForm).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/students/{sitNo}", h.UpdateStudent).Methods(http.MethodPut, http.MethodOptions)
	api.HandleFunc("/students/{sitNo}", h.DeleteStudent).Methods(http.MethodDelete, http.MethodOptions)

	// seats
	api.HandleFunc("/seats", h.Seats).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/seats/available", h.AvailableSeats).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/dashboard", h.Dashboard).Methods(http.MethodGet, http.MethodOptions)

	// fees
	api.HandleFunc("/fees", h.FeeRows).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/fees/{sitNo}/toggle", h.ToggleFee).Methods(http.MethodPut, http.MethodOptions)
	api.HandleFunc("/fees/rollover", h.Rollover).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/fees/export", h.ExportFees).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/fees/export/send", h.SendExport).Methods(http.MethodPost, http.MethodOptions)

	api.HandleFunc("/banner", h.GetBanner).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/banner", h.DismissBanner).Methods(http.MethodDelete, http.MethodOptions)

	return r
}
