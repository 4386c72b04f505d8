// Package metrics expone contadores Prometheus del servicio: tráfico HTTP y
// ciclo de vida de turnos y consultas (vía hooks post-commit).
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain/appointments"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain/consultations"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain/medicalrecords"
)

const namespace = "vet"

type Metrics struct {
	reg *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	appointmentChanges  *prometheus.CounterVec
	consultationChanges *prometheus.CounterVec
	recordChanges       *prometheus.CounterVec
}

// New arma un registry propio (más collectors de proceso y runtime).
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		reg: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		appointmentChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "appointments",
			Name:      "changes_total",
			Help:      "Committed appointment writes by operation and resulting status.",
		}, []string{"op", "status"}),
		consultationChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "consultations",
			Name:      "changes_total",
			Help:      "Committed consultation writes by operation.",
		}, []string{"op", "follow_up"}),
		recordChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "medical_records",
			Name:      "changes_total",
			Help:      "Committed medical record writes by operation.",
		}, []string{"op"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.appointmentChanges,
		m.consultationChanges,
		m.recordChanges,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler sirve el endpoint de scrape.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// Middleware mide cada request por patrón de ruta de chi (no por path crudo,
// para no explotar la cardinalidad con IDs).
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// -------------------------
// Hooks
// -------------------------

func (m *Metrics) AppointmentChanged(_ context.Context, ch appointments.Change) error {
	m.appointmentChanges.WithLabelValues(string(ch.Op), string(ch.Appointment.Status)).Inc()
	return nil
}

func (m *Metrics) ConsultationChanged(_ context.Context, ch consultations.Change) error {
	m.consultationChanges.WithLabelValues(string(ch.Op), strconv.FormatBool(ch.Consultation.FollowUpRequired)).Inc()
	return nil
}

func (m *Metrics) MedicalRecordChanged(_ context.Context, ch medicalrecords.Change) error {
	m.recordChanges.WithLabelValues(string(ch.Op)).Inc()
	return nil
}
