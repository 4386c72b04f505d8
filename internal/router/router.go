package router

import (
	"log/slog"
	"net/http"
	"time"

	_ "github.com/Sjaypeter/Veterinary-Telemedicine-Api/docs"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/adapters/notify"
	mem "github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/adapters/storage/memory"
	pg "github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/adapters/storage/postgres"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain/appointments"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain/consultations"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain/medicalrecords"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain/notifications"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain/pets"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain/timeline"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/middleware"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/platform/metrics"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/ports/auth"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // nil = modo dev (headers X-Debug-*)

	// Si viene, usa Postgres. Si no, in-memory.
	DB *pgxpool.Pool

	Logger        *slog.Logger
	Publisher     notifications.Publisher // nil = log
	NotifyTimeout time.Duration           // tope por publicación, 0 = default
	Location      *time.Location          // zona de la clínica, nil = UTC

	Metrics     *metrics.Metrics // nil = sin /metrics
	MetricsPath string
	Swagger     bool
}

type repos struct {
	pets          pets.Repository
	appointments  appointments.Repository
	consultations consultations.Repository
	records       medicalrecords.Repository
	notifications notifications.Repository
	timeline      timeline.Repository
}

func newRepos(db *pgxpool.Pool) repos {
	if db != nil {
		return repos{
			pets:          pg.NewPetsRepo(db),
			appointments:  pg.NewAppointmentsRepo(db),
			consultations: pg.NewConsultationsRepo(db),
			records:       pg.NewMedicalRecordsRepo(db),
			notifications: pg.NewNotificationsRepo(db),
			timeline:      pg.NewTimelineRepo(db),
		}
	}

	appts := mem.NewAppointmentRepo()
	return repos{
		pets:          mem.NewPetRepo(),
		appointments:  appts,
		consultations: mem.NewConsultationRepo(appts),
		records:       mem.NewMedicalRecordRepo(),
		notifications: mem.NewNotificationRepo(),
		timeline:      mem.NewTimelineRepo(),
	}
}

func NewRouter(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(chimw.Recoverer)
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware)
	}
	r.Use(middleware.AuthContext(opts.AuthVerifier, log))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if opts.Metrics != nil {
		path := opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Method(http.MethodGet, path, opts.Metrics.Handler())
	}
	if opts.Swagger {
		r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	}

	rp := newRepos(opts.DB)

	pub := opts.Publisher
	if pub == nil {
		pub = notify.NewLogPublisher(log)
	}

	// Services por módulo
	petsSvc := pets.NewService(rp.pets, log)
	apptSvc := appointments.NewService(rp.appointments, petsSvc, log)
	if opts.Location != nil {
		apptSvc.UseLocation(opts.Location)
	}
	petsSvc.UseCareTeam(apptSvc)

	consSvc := consultations.NewService(rp.consultations, apptSvc, log)
	recordsSvc := medicalrecords.NewService(rp.records, petsSvc, apptSvc, log)
	timelineSvc := timeline.NewService(rp.timeline, petsSvc, apptSvc, log)
	notifySvc := notifications.NewService(rp.notifications, pub, log)
	notifySvc.UsePublishTimeout(opts.NotifyTimeout)

	// Efectos de cada cambio: historial, inbox y métricas.
	apptSvc.AddHook(timelineSvc)
	apptSvc.AddHook(notifySvc)
	consSvc.AddHook(timelineSvc)
	consSvc.AddHook(notifySvc)
	recordsSvc.AddHook(timelineSvc)
	recordsSvc.AddHook(notifySvc)
	if opts.Metrics != nil {
		apptSvc.AddHook(opts.Metrics)
		consSvc.AddHook(opts.Metrics)
		recordsSvc.AddHook(opts.Metrics)
	}

	// Rutas por módulo
	pets.RegisterRoutes(r, petsSvc)
	appointments.RegisterRoutes(r, apptSvc)
	consultations.RegisterRoutes(r, consSvc)
	medicalrecords.RegisterRoutes(r, recordsSvc)
	timeline.RegisterRoutes(r, timelineSvc)
	notifications.RegisterRoutes(r, notifySvc)

	return r
}
