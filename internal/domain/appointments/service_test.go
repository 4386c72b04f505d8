package appointments

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain/policy"
)

// -------------------------
// Test doubles
// -------------------------

type testRepo struct {
	mu   sync.Mutex
	byID map[string]Appointment
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Appointment{}}
}

func (r *testRepo) Create(ctx context.Context, a Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[a.ID]; ok {
		return errors.New("repo: already exists")
	}
	r.byID[a.ID] = a
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return Appointment{}, domain.ErrNotFound
	}
	return a, nil
}

func (r *testRepo) UpdateIfVersion(ctx context.Context, a Appointment, expected int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.byID[a.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if cur.Version != expected {
		return domain.ErrConflict
	}
	r.byID[a.ID] = a
	return nil
}

func (r *testRepo) List(ctx context.Context, f ListFilter) ([]Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Appointment, 0)
	for _, a := range r.byID {
		if f.Matches(a) {
			out = append(out, a)
		}
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *testRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

type testPets map[string]string // petID -> ownerID

func (p testPets) OwnerOf(ctx context.Context, petID string) (string, error) {
	owner, ok := p[petID]
	if !ok {
		return "", domain.ErrNotFound
	}
	return owner, nil
}

var (
	clientC = policy.Client("client-c")
	vetV    = policy.Veterinarian("vet-v")
	fixedAt = time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
)

func newTestService(t *testing.T) (*Service, *testRepo) {
	t.Helper()
	repo := newTestRepo()
	svc := NewService(repo, testPets{"pet-p": "client-c", "pet-x": "client-x"}, nil)
	svc.now = func() time.Time { return fixedAt }
	return svc, repo
}

func tomorrow() time.Time { return DateOf(fixedAt).AddDate(0, 0, 1) }

func book(t *testing.T, svc *Service) Appointment {
	t.Helper()
	a, err := svc.Create(context.Background(), clientC, CreateInput{
		VeterinarianID: vetV.ID,
		PetID:          "pet-p",
		Date:           tomorrow(),
		Reason:         "ear scratching",
	})
	if err != nil {
		t.Fatalf("create: unexpected err: %v", err)
	}
	return a
}

func assertValidationField(t *testing.T, err error, field string) {
	t.Helper()
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if !verr.HasField(field) {
		t.Fatalf("expected validation on %q, got %+v", field, verr.Errors)
	}
}

func assertTransition(t *testing.T, err error, from, to Status) {
	t.Helper()
	var terr *domain.TransitionError
	if !errors.As(err, &terr) {
		t.Fatalf("expected TransitionError, got %v", err)
	}
	if terr.From != string(from) || terr.To != string(to) {
		t.Fatalf("expected %s -> %s, got %s -> %s", from, to, terr.From, terr.To)
	}
}

// -------------------------
// Create
// -------------------------

func TestService_Create_StartsPending(t *testing.T) {
	svc, _ := newTestService(t)

	a := book(t, svc)

	if a.Status != StatusPending {
		t.Fatalf("expected PENDING, got %s", a.Status)
	}
	if a.ClientID != clientC.ID {
		t.Fatalf("expected client defaulted to actor, got %q", a.ClientID)
	}
	if a.Version != 1 {
		t.Fatalf("expected version 1, got %d", a.Version)
	}
}

func TestService_Create_PetOwnerMismatch_CreatesNothing(t *testing.T) {
	svc, repo := newTestService(t)

	_, err := svc.Create(context.Background(), clientC, CreateInput{
		VeterinarianID: vetV.ID,
		PetID:          "pet-x",
		Date:           tomorrow(),
	})

	assertValidationField(t, err, "pet_id")
	if repo.count() != 0 {
		t.Fatalf("expected no appointment persisted")
	}
}

func TestService_Create_ClientEqualsVet(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Create(context.Background(), clientC, CreateInput{
		VeterinarianID: clientC.ID,
		PetID:          "pet-p",
		Date:           tomorrow(),
	})

	assertValidationField(t, err, "veterinarian_id")
}

func TestService_Create_PastDateRejected_TodayAccepted(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Create(context.Background(), clientC, CreateInput{
		VeterinarianID: vetV.ID,
		PetID:          "pet-p",
		Date:           DateOf(fixedAt).AddDate(0, 0, -1),
	})
	assertValidationField(t, err, "date")

	if _, err := svc.Create(context.Background(), clientC, CreateInput{
		VeterinarianID: vetV.ID,
		PetID:          "pet-p",
		Date:           DateOf(fixedAt),
	}); err != nil {
		t.Fatalf("expected today to be accepted, got %v", err)
	}
}

func TestService_Create_UnknownPet(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Create(context.Background(), clientC, CreateInput{
		VeterinarianID: vetV.ID,
		PetID:          "missing",
		Date:           tomorrow(),
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestService_Create_VetCannotBook(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Create(context.Background(), vetV, CreateInput{
		ClientID:       clientC.ID,
		VeterinarianID: "vet-other",
		PetID:          "pet-p",
		Date:           tomorrow(),
	})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

// -------------------------
// Lifecycle
// -------------------------

func TestService_HappyPath_ConfirmComplete(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	a := book(t, svc)

	confirmed, err := svc.Confirm(ctx, vetV, a.ID, ConfirmInput{})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if confirmed.Status != StatusConfirmed {
		t.Fatalf("expected CONFIRMED, got %s", confirmed.Status)
	}
	if !confirmed.Date.Equal(a.Date) {
		t.Fatalf("expected date kept when omitted")
	}

	completed, err := svc.Complete(ctx, vetV, a.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if completed.Status != StatusCompleted || completed.CompletedAt == nil {
		t.Fatalf("expected COMPLETED with completed_at, got %+v", completed)
	}
	if completed.Version != 3 {
		t.Fatalf("expected version 3, got %d", completed.Version)
	}
}

func TestService_Confirm_OverwritesDateAndTime(t *testing.T) {
	svc, _ := newTestService(t)
	a := book(t, svc)

	newDate := DateOf(fixedAt).AddDate(0, 0, 5)
	tod := Clock{Hour: 14, Minute: 30}
	got, err := svc.Confirm(context.Background(), vetV, a.ID, ConfirmInput{Date: &newDate, Time: &tod})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if !got.Date.Equal(newDate) {
		t.Fatalf("expected date %s, got %s", newDate, got.Date)
	}
	if got.Time == nil || got.Time.String() != "14:30" {
		t.Fatalf("expected time 14:30, got %v", got.Time)
	}
}

func TestService_Confirm_PastDateRejected(t *testing.T) {
	svc, repo := newTestService(t)
	a := book(t, svc)

	past := DateOf(fixedAt).AddDate(0, 0, -2)
	_, err := svc.Confirm(context.Background(), vetV, a.ID, ConfirmInput{Date: &past})
	assertValidationField(t, err, "date")

	stored, _ := repo.GetByID(context.Background(), a.ID)
	if stored.Status != StatusPending {
		t.Fatalf("expected status unchanged, got %s", stored.Status)
	}
}

func TestService_Confirm_ByClient_Forbidden(t *testing.T) {
	svc, repo := newTestService(t)
	a := book(t, svc)

	_, err := svc.Confirm(context.Background(), clientC, a.ID, ConfirmInput{})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if domain.IsHidden(err) {
		t.Fatalf("client can read own appointment: denial must not be hidden")
	}

	stored, _ := repo.GetByID(context.Background(), a.ID)
	if stored.Status != StatusPending {
		t.Fatalf("expected PENDING, got %s", stored.Status)
	}
}

func TestService_Confirm_ByOtherVet_HiddenForbidden(t *testing.T) {
	svc, _ := newTestService(t)
	a := book(t, svc)

	_, err := svc.Confirm(context.Background(), policy.Veterinarian("vet-other"), a.ID, ConfirmInput{})
	if !errors.Is(err, domain.ErrForbidden) || !domain.IsHidden(err) {
		t.Fatalf("expected hidden forbidden, got %v", err)
	}
}

func TestService_Complete_Pending_InvalidTransition(t *testing.T) {
	svc, _ := newTestService(t)
	a := book(t, svc)

	_, err := svc.Complete(context.Background(), vetV, a.ID)
	assertTransition(t, err, StatusPending, StatusCompleted)
}

func TestService_Confirm_Twice_InvalidTransition(t *testing.T) {
	svc, _ := newTestService(t)
	a := book(t, svc)

	if _, err := svc.Confirm(context.Background(), vetV, a.ID, ConfirmInput{}); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	_, err := svc.Confirm(context.Background(), vetV, a.ID, ConfirmInput{})
	assertTransition(t, err, StatusConfirmed, StatusConfirmed)
}

func TestService_Cancel_ByEitherParticipant(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	a := book(t, svc)
	got, err := svc.Cancel(ctx, clientC, a.ID)
	if err != nil {
		t.Fatalf("client cancel: %v", err)
	}
	if got.Status != StatusCancelled || got.CancelledBy != clientC.ID || got.CancelledAt == nil {
		t.Fatalf("unexpected cancelled appointment: %+v", got)
	}

	b := book(t, svc)
	if _, err := svc.Confirm(ctx, vetV, b.ID, ConfirmInput{}); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if _, err := svc.Cancel(ctx, vetV, b.ID); err != nil {
		t.Fatalf("vet cancel confirmed: %v", err)
	}
}

func TestService_Cancel_Terminal_InvalidTransition(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	a := book(t, svc)

	if _, err := svc.Cancel(ctx, clientC, a.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	_, err := svc.Cancel(ctx, vetV, a.ID)
	assertTransition(t, err, StatusCancelled, StatusCancelled)

	b := book(t, svc)
	_, _ = svc.Confirm(ctx, vetV, b.ID, ConfirmInput{})
	_, _ = svc.Complete(ctx, vetV, b.ID)
	_, err = svc.Cancel(ctx, clientC, b.ID)
	assertTransition(t, err, StatusCompleted, StatusCancelled)
}

func TestService_Cancel_ByStranger_Forbidden(t *testing.T) {
	svc, repo := newTestService(t)
	a := book(t, svc)

	_, err := svc.Cancel(context.Background(), policy.Client("client-z"), a.ID)
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	stored, _ := repo.GetByID(context.Background(), a.ID)
	if stored.Status != StatusPending {
		t.Fatalf("expected status unchanged, got %s", stored.Status)
	}
}

func TestService_UpdateDetails(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	a := book(t, svc)

	notes := "bring previous x-rays"
	tod := Clock{Hour: 10, Minute: 0}
	got, err := svc.UpdateDetails(ctx, vetV, a.ID, DetailsPatch{Notes: &notes, Time: &tod})
	if err != nil {
		t.Fatalf("update details: %v", err)
	}
	if got.Notes != notes || got.Time == nil || got.Time.Minutes() != 600 {
		t.Fatalf("unexpected details: %+v", got)
	}
	if got.Status != StatusPending {
		t.Fatalf("status must not change, got %s", got.Status)
	}

	if _, err := svc.UpdateDetails(ctx, clientC, a.ID, DetailsPatch{Notes: &notes}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected client forbidden, got %v", err)
	}
}

func TestService_UpdateDetails_TerminalRejected(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	a := book(t, svc)
	_, _ = svc.Cancel(ctx, clientC, a.ID)

	notes := "late edit"
	_, err := svc.UpdateDetails(ctx, vetV, a.ID, DetailsPatch{Notes: &notes})
	assertTransition(t, err, StatusCancelled, StatusCancelled)
}

// -------------------------
// Reads
// -------------------------

func TestService_Get_StrangerSeesNotFoundShape(t *testing.T) {
	svc, _ := newTestService(t)
	a := book(t, svc)

	if _, err := svc.Get(context.Background(), clientC, a.ID); err != nil {
		t.Fatalf("client get: %v", err)
	}
	_, err := svc.Get(context.Background(), policy.Veterinarian("vet-other"), a.ID)
	if !domain.IsHidden(err) {
		t.Fatalf("expected hidden denial, got %v", err)
	}
}

func TestService_List_ScopedToPrincipal(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	a := book(t, svc)

	mine, err := svc.List(ctx, clientC, ListQuery{})
	if err != nil || len(mine) != 1 || mine[0].ID != a.ID {
		t.Fatalf("expected client to see own appointment, got %v err=%v", mine, err)
	}

	assigned, _ := svc.List(ctx, vetV, ListQuery{Status: StatusPending})
	if len(assigned) != 1 {
		t.Fatalf("expected vet to see assigned appointment, got %d", len(assigned))
	}

	other, err := svc.List(ctx, policy.Veterinarian("vet-other"), ListQuery{})
	if err != nil || len(other) != 0 {
		t.Fatalf("expected empty list for other vet, got %v err=%v", other, err)
	}

	none, err := svc.List(ctx, policy.Principal{ID: "x", Role: "ADMIN"}, ListQuery{})
	if err != nil || len(none) != 0 {
		t.Fatalf("expected empty list for invalid principal, got %v err=%v", none, err)
	}

	upcoming, _ := svc.List(ctx, vetV, ListQuery{Upcoming: true})
	if len(upcoming) != 0 {
		t.Fatalf("pending appointment is not upcoming")
	}
	_, _ = svc.Confirm(ctx, vetV, a.ID, ConfirmInput{})
	upcoming, _ = svc.List(ctx, vetV, ListQuery{Upcoming: true})
	if len(upcoming) != 1 {
		t.Fatalf("expected confirmed appointment to be upcoming")
	}
}

func TestService_HasTreated(t *testing.T) {
	svc, _ := newTestService(t)
	a := book(t, svc)

	ok, err := svc.HasTreated(context.Background(), vetV.ID, a.PetID)
	if err != nil || !ok {
		t.Fatalf("expected vet to be in care team, got %v err=%v", ok, err)
	}
	ok, _ = svc.HasTreated(context.Background(), "vet-other", a.PetID)
	if ok {
		t.Fatalf("other vet is not in care team")
	}
}

// -------------------------
// Concurrency + hooks
// -------------------------

func TestService_ConcurrentConfirm_OnlyOneWins(t *testing.T) {
	svc, _ := newTestService(t)
	a := book(t, svc)

	const n = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		wins      int
		conflicts int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Confirm(context.Background(), vetV, a.ID, ConfirmInput{})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrInvalidTransition):
				conflicts++
			default:
				t.Errorf("unexpected err: %v", err)
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("expected exactly one confirm to win, got %d", wins)
	}
	if conflicts != n-1 {
		t.Fatalf("expected %d losers, got %d", n-1, conflicts)
	}
}

func TestService_Hooks_RunAfterCommit_ErrorsIgnored(t *testing.T) {
	repo := newTestRepo()
	var got []Change
	svc := NewService(repo, testPets{"pet-p": "client-c"}, nil,
		HookFunc(func(ctx context.Context, ch Change) error {
			got = append(got, ch)
			return errors.New("downstream unavailable")
		}),
	)
	svc.now = func() time.Time { return fixedAt }

	a := book(t, svc)
	if _, err := svc.Confirm(context.Background(), vetV, a.ID, ConfirmInput{}); err != nil {
		t.Fatalf("hook failure must not fail the operation: %v", err)
	}

	// Una transición rechazada no dispara hooks.
	_, _ = svc.Confirm(context.Background(), vetV, a.ID, ConfirmInput{})

	if len(got) != 2 {
		t.Fatalf("expected 2 changes, got %d", len(got))
	}
	if got[1].Op != OpConfirmed || got[1].From != StatusPending || got[1].Appointment.Status != StatusConfirmed {
		t.Fatalf("unexpected change: %+v", got[1])
	}
}
