package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain/medicalrecords"
)

type medicalRecordRepo struct {
	mu   sync.RWMutex
	byID map[string]medicalrecords.MedicalRecord
}

func NewMedicalRecordRepo() medicalrecords.Repository {
	return &medicalRecordRepo{
		byID: make(map[string]medicalrecords.MedicalRecord),
	}
}

func (r *medicalRecordRepo) Create(ctx context.Context, m medicalrecords.MedicalRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m.ID == "" {
		return errors.New("medical record id required")
	}
	if _, exists := r.byID[m.ID]; exists {
		return domain.ErrConflict
	}
	m.OwnerID = ""
	r.byID[m.ID] = m
	return nil
}

func (r *medicalRecordRepo) GetByID(ctx context.Context, id string) (medicalrecords.MedicalRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.byID[id]
	if !ok {
		return medicalrecords.MedicalRecord{}, domain.ErrNotFound
	}
	return m, nil
}

func (r *medicalRecordRepo) Update(ctx context.Context, m medicalrecords.MedicalRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byID[m.ID]
	if !ok {
		return domain.ErrNotFound
	}
	m.PetID = cur.PetID
	m.AppointmentID = cur.AppointmentID
	m.VeterinarianID = cur.VeterinarianID
	m.OwnerID = ""
	r.byID[m.ID] = m
	return nil
}

func (r *medicalRecordRepo) List(ctx context.Context, f medicalrecords.ListFilter) ([]medicalrecords.MedicalRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]medicalrecords.MedicalRecord, 0)
	for _, m := range r.byID {
		if f.Matches(m) {
			out = append(out, m)
		}
	}

	// visit_date desc, created_at desc
	sort.Slice(out, func(i, j int) bool {
		if !out[i].VisitDate.Equal(out[j].VisitDate) {
			return out[i].VisitDate.After(out[j].VisitDate)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return limit(out, f.Limit), nil
}
