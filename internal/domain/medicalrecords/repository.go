package medicalrecords

import "context"

type Repository interface {
	Create(ctx context.Context, m MedicalRecord) error
	GetByID(ctx context.Context, id string) (MedicalRecord, error)
	Update(ctx context.Context, m MedicalRecord) error

	// List ordena por visit_date desc, created_at desc.
	List(ctx context.Context, filter ListFilter) ([]MedicalRecord, error)
}

// ListFilter: campos vacíos no filtran. PetIDs vacío con AnyPet=false no
// devuelve nada (cliente sin mascotas).
type ListFilter struct {
	PetIDs         []string
	AnyPet         bool
	VeterinarianID string
	FollowUpOnly   bool
	Limit          int
}

func (f ListFilter) Matches(m MedicalRecord) bool {
	if !f.AnyPet {
		found := false
		for _, id := range f.PetIDs {
			if id == m.PetID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.VeterinarianID != "" && m.VeterinarianID != f.VeterinarianID {
		return false
	}
	if f.FollowUpOnly && !m.FollowUpRequired {
		return false
	}
	return true
}
