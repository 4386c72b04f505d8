package pets

import (
	"time"

	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain/policy"
)

// Species define las especies soportadas.
// @Enum dog, cat, other
type Species string

const (
	SpeciesDog   Species = "dog"
	SpeciesCat   Species = "cat"
	SpeciesOther Species = "other"
)

func (s Species) Valid() bool {
	switch s {
	case SpeciesDog, SpeciesCat, SpeciesOther:
		return true
	}
	return false
}

// Sex define el sexo de la mascota.
// @Enum male, female, unknown
type Sex string

const (
	SexMale    Sex = "male"
	SexFemale  Sex = "female"
	SexUnknown Sex = "unknown"
)

func (s Sex) Valid() bool {
	switch s {
	case SexMale, SexFemale, SexUnknown:
		return true
	}
	return false
}

// Pet es el perfil mínimo que necesitan turnos y consultas: id + dueño.
type Pet struct {
	ID      string
	OwnerID string

	Name    string
	Species Species
	Breed   string
	Sex     Sex

	BirthDate *time.Time
	Notes     string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Resource arma el recurso de política. careVet es el vet del equipo de
// atención cuando el actor lo es; vacío si no aplica.
func (p Pet) Resource(careVet string) policy.Resource {
	return policy.Resource{Kind: policy.KindPet, ClientID: p.OwnerID, VeterinarianID: careVet}
}
