package pets

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain/policy"

	"github.com/google/uuid"
)

// CareTeam responde si un vet atendió (o tiene turno activo con) una mascota.
// Lo implementa appointments.Service; se inyecta después de construirlo.
type CareTeam interface {
	HasTreated(ctx context.Context, vetID, petID string) (bool, error)
}

type Service struct {
	repo Repository
	care CareTeam
	log  *slog.Logger
	now  func() time.Time
}

func NewService(repo Repository, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		repo: repo,
		log:  log.With("module", "pets"),
		now:  time.Now,
	}
}

// UseCareTeam habilita la lectura de mascotas por parte de sus veterinarios.
func (s *Service) UseCareTeam(c CareTeam) {
	s.care = c
}

type CreateInput struct {
	Name      string
	Species   string
	Breed     string
	Sex       string
	BirthDate *time.Time
	Notes     string
}

func (s *Service) Create(ctx context.Context, actor policy.Principal, in CreateInput) (Pet, error) {
	if err := policy.Check(actor, policy.ActionCreate, policy.Resource{Kind: policy.KindPet, ClientID: actor.ID}); err != nil {
		return Pet{}, err
	}

	now := s.now()
	p := Pet{
		ID:        uuid.NewString(),
		OwnerID:   actor.ID,
		Name:      strings.TrimSpace(in.Name),
		Species:   Species(strings.ToLower(strings.TrimSpace(in.Species))),
		Breed:     strings.TrimSpace(in.Breed),
		Sex:       Sex(strings.ToLower(strings.TrimSpace(in.Sex))),
		BirthDate: in.BirthDate,
		Notes:     strings.TrimSpace(in.Notes),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if p.Sex == "" {
		p.Sex = SexUnknown
	}
	if err := s.validate(p); err != nil {
		return Pet{}, err
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return Pet{}, fmt.Errorf("create pet: %w", err)
	}
	return p, nil
}

// Get: dueño o vet del equipo de atención. Al resto se le responde como NotFound.
func (s *Service) Get(ctx context.Context, actor policy.Principal, id string) (Pet, error) {
	p, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return Pet{}, err
	}
	res, err := s.resourceFor(ctx, actor, p)
	if err != nil {
		return Pet{}, err
	}
	if err := policy.Check(actor, policy.ActionRead, res); err != nil {
		return Pet{}, err
	}
	return p, nil
}

// ListByOwner devuelve las mascotas del actor (vacío para vets).
func (s *Service) ListByOwner(ctx context.Context, actor policy.Principal) ([]Pet, error) {
	if !actor.IsClient() {
		return []Pet{}, nil
	}
	return s.repo.ListByOwner(ctx, actor.ID)
}

// OptionalDate distingue "no enviado" de "enviado como null".
type OptionalDate struct {
	Set   bool
	Value *time.Time
}

// UpdateProfileInput: nil = no tocar.
type UpdateProfileInput struct {
	Name      *string
	Species   *string
	Breed     *string
	Sex       *string
	BirthDate OptionalDate
	Notes     *string
}

func (s *Service) UpdateProfile(ctx context.Context, actor policy.Principal, id string, in UpdateProfileInput) (Pet, error) {
	p, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return Pet{}, err
	}
	res, err := s.resourceFor(ctx, actor, p)
	if err != nil {
		return Pet{}, err
	}
	if err := policy.Check(actor, policy.ActionUpdate, res); err != nil {
		return Pet{}, err
	}

	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Species != nil {
		p.Species = Species(strings.ToLower(strings.TrimSpace(*in.Species)))
	}
	if in.Breed != nil {
		p.Breed = strings.TrimSpace(*in.Breed)
	}
	if in.Sex != nil {
		p.Sex = Sex(strings.ToLower(strings.TrimSpace(*in.Sex)))
	}
	if in.BirthDate.Set {
		p.BirthDate = in.BirthDate.Value
	}
	if in.Notes != nil {
		p.Notes = strings.TrimSpace(*in.Notes)
	}
	if err := s.validate(p); err != nil {
		return Pet{}, err
	}

	p.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, p); err != nil {
		return Pet{}, fmt.Errorf("update pet %s: %w", p.ID, err)
	}
	return p, nil
}

// OwnerOf es el getPet(id) -> owner que usan los demás módulos. No autoriza.
func (s *Service) OwnerOf(ctx context.Context, petID string) (string, error) {
	p, err := s.repo.GetByID(ctx, strings.TrimSpace(petID))
	if err != nil {
		return "", err
	}
	return p.OwnerID, nil
}

// CanView reporta si el actor puede leer la mascota (dueño o equipo de atención).
func (s *Service) CanView(ctx context.Context, actor policy.Principal, petID string) (bool, error) {
	p, err := s.repo.GetByID(ctx, strings.TrimSpace(petID))
	if err != nil {
		return false, err
	}
	res, err := s.resourceFor(ctx, actor, p)
	if err != nil {
		return false, err
	}
	return policy.CanRead(actor, res), nil
}

func (s *Service) resourceFor(ctx context.Context, actor policy.Principal, p Pet) (policy.Resource, error) {
	if !actor.IsVeterinarian() || s.care == nil {
		return p.Resource(""), nil
	}
	treated, err := s.care.HasTreated(ctx, actor.ID, p.ID)
	if err != nil {
		return policy.Resource{}, fmt.Errorf("care team lookup: %w", err)
	}
	if treated {
		return p.Resource(actor.ID), nil
	}
	return p.Resource(""), nil
}

func (s *Service) validate(p Pet) error {
	var v domain.Validator
	v.Check(p.Name != "", "name", "required")
	v.Check(p.Species.Valid(), "species", "must be one of dog, cat, other")
	v.Check(p.Sex.Valid(), "sex", "must be one of male, female, unknown")
	if p.BirthDate != nil {
		v.Check(!p.BirthDate.After(s.now()), "birth_date", "must not be in the future")
	}
	return v.Err()
}
