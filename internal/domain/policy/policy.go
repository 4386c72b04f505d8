package policy

import "github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain"

type Action string

const (
	ActionCreate        Action = "create"
	ActionRead          Action = "read"
	ActionUpdateStatus  Action = "update_status"
	ActionCancel        Action = "cancel"
	ActionUpdateDetails Action = "update_details"
	ActionUpdate        Action = "update"
)

type Kind string

const (
	KindAppointment   Kind = "appointment"
	KindConsultation  Kind = "consultation"
	KindMedicalRecord Kind = "medical_record"
	KindPet           Kind = "pet"
)

// Resource son las referencias de participantes de la entidad objetivo.
// Para pets, ClientID es el dueño y VeterinarianID el vet del equipo de
// atención (si el actor lo es); para medical records, ClientID es el dueño
// de la mascota y VeterinarianID el autor.
type Resource struct {
	Kind           Kind
	ClientID       string
	VeterinarianID string
}

type rule struct {
	match  func(a Action, k Kind) bool
	decide func(p Principal, r Resource) bool
}

func is(a Action, kinds ...Kind) func(Action, Kind) bool {
	return func(got Action, k Kind) bool {
		if got != a {
			return false
		}
		if len(kinds) == 0 {
			return true
		}
		for _, want := range kinds {
			if k == want {
				return true
			}
		}
		return false
	}
}

func participant(p Principal, r Resource) bool {
	return p.ID == r.ClientID || p.ID == r.VeterinarianID
}

func assignedVet(p Principal, r Resource) bool {
	return p.IsVeterinarian() && p.ID == r.VeterinarianID
}

// Orden importa: gana la primera regla que matchea.
var rules = []rule{
	{is(ActionRead), participant},
	{is(ActionCreate, KindAppointment), func(p Principal, r Resource) bool {
		return p.IsClient() && p.ID == r.ClientID
	}},
	{is(ActionUpdateStatus, KindAppointment), assignedVet},
	{is(ActionUpdateDetails, KindAppointment), assignedVet},
	{is(ActionCancel, KindAppointment), participant},
	{is(ActionCreate, KindConsultation), assignedVet},
	{is(ActionUpdate, KindConsultation), func(p Principal, r Resource) bool {
		return p.ID == r.VeterinarianID
	}},
	{is(ActionCreate, KindMedicalRecord), assignedVet},
	{is(ActionUpdate, KindMedicalRecord), assignedVet},
	{is(ActionCreate, KindPet), func(p Principal, r Resource) bool {
		return p.IsClient() && p.ID == r.ClientID
	}},
	{is(ActionUpdate, KindPet), func(p Principal, r Resource) bool {
		return p.ID == r.ClientID
	}},
}

// Allowed decide si el principal puede ejecutar action sobre r. Default: deny.
func Allowed(p Principal, action Action, r Resource) bool {
	if !p.Valid() {
		return false
	}
	for _, rl := range rules {
		if rl.match(action, r.Kind) {
			return rl.decide(p, r)
		}
	}
	return false
}

// Check devuelve nil si está permitido o un *domain.ForbiddenError.
// La denegación se marca Hidden cuando el actor tampoco podría leer la entidad.
func Check(p Principal, action Action, r Resource) error {
	if Allowed(p, action, r) {
		return nil
	}
	return &domain.ForbiddenError{
		Action: string(r.Kind) + ":" + string(action),
		Hidden: action == ActionRead || !Allowed(p, ActionRead, r),
	}
}

// CanRead es un atajo para la regla de lectura.
func CanRead(p Principal, r Resource) bool {
	return Allowed(p, ActionRead, r)
}
