package medicalrecords

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain/appointments"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain/pets"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain/policy"

	"github.com/google/uuid"
)

// PetDirectory es lo que este módulo usa del Pet Registry.
type PetDirectory interface {
	OwnerOf(ctx context.Context, petID string) (string, error)
	CanView(ctx context.Context, actor policy.Principal, petID string) (bool, error)
	ListByOwner(ctx context.Context, actor policy.Principal) ([]pets.Pet, error)
}

type AppointmentReader interface {
	Get(ctx context.Context, actor policy.Principal, id string) (appointments.Appointment, error)
	Today() time.Time
}

type Service struct {
	repo  Repository
	pets  PetDirectory
	appts AppointmentReader
	hooks []Hook
	log   *slog.Logger
	now   func() time.Time
}

func NewService(repo Repository, pets PetDirectory, appts AppointmentReader, log *slog.Logger, hooks ...Hook) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		repo:  repo,
		pets:  pets,
		appts: appts,
		hooks: hooks,
		log:   log.With("module", "medicalrecords"),
		now:   time.Now,
	}
}

func (s *Service) AddHook(h Hook) {
	if h != nil {
		s.hooks = append(s.hooks, h)
	}
}

type CreateInput struct {
	PetID            string // opcional si viene AppointmentID
	AppointmentID    string
	VisitDate        *time.Time // nil = ahora
	Diagnosis        string
	Symptoms         string
	Treatment        string
	Prescription     string
	Notes            string
	FollowUpRequired bool
	FollowUpDate     *time.Time
	WeightKg         *float64
	TemperatureC     *float64
}

// Create registra una ficha. Con turno: sólo su vet y para su mascota.
// Sin turno: sólo un vet que ya atendió a la mascota.
func (s *Service) Create(ctx context.Context, actor policy.Principal, in CreateInput) (MedicalRecord, error) {
	petID := strings.TrimSpace(in.PetID)
	apptID := strings.TrimSpace(in.AppointmentID)
	res := policy.Resource{Kind: policy.KindMedicalRecord, VeterinarianID: actor.ID}

	var v domain.Validator
	if apptID != "" {
		a, err := s.appts.Get(ctx, actor, apptID)
		if err != nil {
			return MedicalRecord{}, err
		}
		res.ClientID = a.ClientID
		res.VeterinarianID = a.VeterinarianID
		if petID == "" {
			petID = a.PetID
		}
		v.Check(a.PetID == petID, "appointment_id", "must be for the same pet as the record")
	}
	if petID == "" {
		return MedicalRecord{}, domain.NewValidationError("pet_id", "required")
	}

	owner, err := s.pets.OwnerOf(ctx, petID)
	if err != nil {
		return MedicalRecord{}, fmt.Errorf("pet %s: %w", petID, err)
	}
	if apptID == "" {
		res.ClientID = owner
		visible, err := s.pets.CanView(ctx, actor, petID)
		if err != nil {
			return MedicalRecord{}, err
		}
		if !visible {
			return MedicalRecord{}, &domain.ForbiddenError{Action: "medical_record:create", Hidden: true}
		}
	}
	if err := policy.Check(actor, policy.ActionCreate, res); err != nil {
		return MedicalRecord{}, err
	}

	now := s.now()
	m := MedicalRecord{
		ID:               uuid.NewString(),
		PetID:            petID,
		AppointmentID:    apptID,
		VeterinarianID:   actor.ID,
		VisitDate:        now,
		Diagnosis:        strings.TrimSpace(in.Diagnosis),
		Symptoms:         strings.TrimSpace(in.Symptoms),
		Treatment:        strings.TrimSpace(in.Treatment),
		Prescription:     strings.TrimSpace(in.Prescription),
		Notes:            strings.TrimSpace(in.Notes),
		FollowUpRequired: in.FollowUpRequired,
		FollowUpDate:     dateOnly(in.FollowUpDate),
		WeightKg:         in.WeightKg,
		TemperatureC:     in.TemperatureC,
		OwnerID:          owner,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if in.VisitDate != nil {
		m.VisitDate = *in.VisitDate
	}

	s.validate(&v, m)
	if err := v.Err(); err != nil {
		return MedicalRecord{}, err
	}

	if err := s.repo.Create(ctx, m); err != nil {
		return MedicalRecord{}, fmt.Errorf("create medical record: %w", err)
	}

	s.emit(ctx, Change{Op: OpCreated, Actor: actor, Record: m})
	return m, nil
}

// Patch: nil = no tocar. Mascota, turno y autor no cambian.
type Patch struct {
	Diagnosis         *string
	Symptoms          *string
	Treatment         *string
	Prescription      *string
	Notes             *string
	FollowUpRequired  *bool
	FollowUpDate      *time.Time
	ClearFollowUpDate bool
	WeightKg          *float64
	TemperatureC      *float64
}

func (s *Service) Update(ctx context.Context, actor policy.Principal, id string, p Patch) (MedicalRecord, error) {
	m, err := s.load(ctx, id)
	if err != nil {
		return MedicalRecord{}, err
	}
	if err := policy.Check(actor, policy.ActionUpdate, m.Resource()); err != nil {
		return MedicalRecord{}, err
	}

	setString(&m.Diagnosis, p.Diagnosis)
	setString(&m.Symptoms, p.Symptoms)
	setString(&m.Treatment, p.Treatment)
	setString(&m.Prescription, p.Prescription)
	setString(&m.Notes, p.Notes)
	if p.FollowUpRequired != nil {
		m.FollowUpRequired = *p.FollowUpRequired
	}
	switch {
	case p.ClearFollowUpDate:
		m.FollowUpDate = nil
	case p.FollowUpDate != nil:
		m.FollowUpDate = dateOnly(p.FollowUpDate)
	}
	if p.WeightKg != nil {
		m.WeightKg = p.WeightKg
	}
	if p.TemperatureC != nil {
		m.TemperatureC = p.TemperatureC
	}

	var v domain.Validator
	s.validate(&v, m)
	if err := v.Err(); err != nil {
		return MedicalRecord{}, err
	}

	m.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, m); err != nil {
		return MedicalRecord{}, fmt.Errorf("update medical record %s: %w", m.ID, err)
	}

	s.emit(ctx, Change{Op: OpUpdated, Actor: actor, Record: m})
	return m, nil
}

// Get: dueño de la mascota o autor.
func (s *Service) Get(ctx context.Context, actor policy.Principal, id string) (MedicalRecord, error) {
	m, err := s.load(ctx, id)
	if err != nil {
		return MedicalRecord{}, err
	}
	if err := policy.Check(actor, policy.ActionRead, m.Resource()); err != nil {
		return MedicalRecord{}, err
	}
	return m, nil
}

type ListQuery struct {
	PetID        string
	FollowUpOnly bool
	Limit        int
}

// ListForPrincipal: vet -> las que escribió, cliente -> las de sus mascotas.
func (s *Service) ListForPrincipal(ctx context.Context, actor policy.Principal, q ListQuery) ([]MedicalRecord, error) {
	f := ListFilter{FollowUpOnly: q.FollowUpOnly, Limit: q.Limit}
	petID := strings.TrimSpace(q.PetID)

	switch {
	case actor.IsVeterinarian():
		f.VeterinarianID = actor.ID
		if petID != "" {
			f.PetIDs = []string{petID}
		} else {
			f.AnyPet = true
		}
	case actor.IsClient():
		owned, err := s.pets.ListByOwner(ctx, actor)
		if err != nil {
			return nil, err
		}
		for _, p := range owned {
			if petID == "" || p.ID == petID {
				f.PetIDs = append(f.PetIDs, p.ID)
			}
		}
		if len(f.PetIDs) == 0 {
			return []MedicalRecord{}, nil
		}
	default:
		return []MedicalRecord{}, nil
	}

	items, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return s.withOwners(ctx, items)
}

// ListByPet: historial de una mascota para su dueño o su equipo de atención.
func (s *Service) ListByPet(ctx context.Context, actor policy.Principal, petID string, limit int) ([]MedicalRecord, error) {
	petID = strings.TrimSpace(petID)
	visible, err := s.pets.CanView(ctx, actor, petID)
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, &domain.ForbiddenError{Action: "pet:read", Hidden: true}
	}

	items, err := s.repo.List(ctx, ListFilter{PetIDs: []string{petID}, Limit: limit})
	if err != nil {
		return nil, err
	}
	return s.withOwners(ctx, items)
}

// ListFollowUps devuelve los seguimientos pendientes del vet.
func (s *Service) ListFollowUps(ctx context.Context, actor policy.Principal) ([]MedicalRecord, error) {
	if !actor.IsVeterinarian() {
		return nil, &domain.ForbiddenError{Action: "medical_record:follow_ups"}
	}
	items, err := s.repo.List(ctx, ListFilter{AnyPet: true, VeterinarianID: actor.ID, FollowUpOnly: true})
	if err != nil {
		return nil, err
	}

	today := s.appts.Today()
	out := make([]MedicalRecord, 0, len(items))
	for _, m := range items {
		if m.FollowUpPending(today) {
			out = append(out, m)
		}
	}
	return s.withOwners(ctx, out)
}

// Today expone el "hoy" de la clínica para los handlers.
func (s *Service) Today() time.Time {
	return s.appts.Today()
}

func (s *Service) load(ctx context.Context, id string) (MedicalRecord, error) {
	m, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return MedicalRecord{}, err
	}
	owner, err := s.pets.OwnerOf(ctx, m.PetID)
	if err != nil {
		return MedicalRecord{}, fmt.Errorf("pet %s: %w", m.PetID, err)
	}
	m.OwnerID = owner
	return m, nil
}

func (s *Service) withOwners(ctx context.Context, items []MedicalRecord) ([]MedicalRecord, error) {
	owners := map[string]string{}
	for i := range items {
		owner, ok := owners[items[i].PetID]
		if !ok {
			var err error
			owner, err = s.pets.OwnerOf(ctx, items[i].PetID)
			if err != nil {
				return nil, fmt.Errorf("pet %s: %w", items[i].PetID, err)
			}
			owners[items[i].PetID] = owner
		}
		items[i].OwnerID = owner
	}
	return items, nil
}

func (s *Service) validate(v *domain.Validator, m MedicalRecord) {
	v.Check(m.Diagnosis != "", "diagnosis", "required")
	v.Check(m.Treatment != "", "treatment", "required")
	v.Check(!m.VisitDate.After(s.now()), "visit_date", "must not be in the future")

	if m.FollowUpRequired && m.FollowUpDate == nil {
		v.Add("follow_up_date", "required when follow_up_required is true")
	}
	if m.FollowUpDate != nil && !m.FollowUpDate.After(s.appts.Today()) {
		v.Add("follow_up_date", "must be after today")
	}

	if m.WeightKg != nil {
		v.Check(*m.WeightKg > 0 && *m.WeightKg <= MaxWeightKg, "weight_kg", fmt.Sprintf("must be greater than 0 and at most %.0f", MaxWeightKg))
	}
	if m.TemperatureC != nil {
		v.Check(*m.TemperatureC >= MinTemperatureC && *m.TemperatureC <= MaxTemperatureC,
			"temperature_c", fmt.Sprintf("must be between %.0f and %.0f", MinTemperatureC, MaxTemperatureC))
	}
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func dateOnly(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := appointments.DateOf(*t)
	return &d
}

func (s *Service) emit(ctx context.Context, ch Change) {
	for _, h := range s.hooks {
		if err := h.MedicalRecordChanged(ctx, ch); err != nil {
			s.log.WarnContext(ctx, "medical record hook failed",
				"record_id", ch.Record.ID,
				"op", string(ch.Op),
				"error", err,
			)
		}
	}
}
