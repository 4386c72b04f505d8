package medicalrecords

import (
	"context"

	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain/policy"
)

type Op string

const (
	OpCreated Op = "created"
	OpUpdated Op = "updated"
)

type Change struct {
	Op     Op
	Actor  policy.Principal
	Record MedicalRecord
}

type Hook interface {
	MedicalRecordChanged(ctx context.Context, ch Change) error
}

type HookFunc func(ctx context.Context, ch Change) error

func (f HookFunc) MedicalRecordChanged(ctx context.Context, ch Change) error { return f(ctx, ch) }
