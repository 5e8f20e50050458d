package domain

import (
	"math/rand"
	"regexp"
	"testing"
	"time"

	"fieldservice_backend/platform/apperr"

	"github.com/google/uuid"
)

var now = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func pending(customerID uuid.UUID) Appointment {
	return Appointment{
		ID:                uuid.New(),
		CustomerID:        customerID,
		Status:            StatusPending,
		Priority:          PriorityMedium,
		EstimatedDuration: 120,
	}
}

func mustPlan(t *testing.T, appt *Appointment, actor Actor, change Change) Appointment {
	t.Helper()
	tr, err := Plan(appt, actor, change, now)
	if err != nil {
		t.Fatalf("plan %s -> %s: %v", appt.Status, change.To, err)
	}
	return Apply(*appt, tr)
}

func TestHappyPathLifecycle(t *testing.T) {
	customer := uuid.New()
	tech := uuid.New()
	appt := pending(customer)

	appt = mustPlan(t, &appt, Assigner{}, Change{To: StatusAssigned, TechnicianID: tech})
	if appt.AssignedAt == nil || !appt.AssignedTo(tech) {
		t.Fatalf("expected assignment to %s, got %+v", tech, appt)
	}

	appt = mustPlan(t, &appt, Technician{ID: tech}, Change{To: StatusAccepted})
	appt = mustPlan(t, &appt, Technician{ID: tech}, Change{To: StatusInProgress})
	notes := "replaced valve"
	appt = mustPlan(t, &appt, Technician{ID: tech}, Change{To: StatusCompleted, Notes: &notes})

	if appt.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s", appt.Status)
	}
	if appt.CompletedAt == nil || appt.CompletionNotes == nil || *appt.CompletionNotes != notes {
		t.Fatalf("completion not recorded: %+v", appt)
	}
	if err := appt.CheckInvariant(); err != nil {
		t.Fatalf("invariant: %v", err)
	}
}

func TestPlanRejectsSkippedStates(t *testing.T) {
	tech := uuid.New()
	appt := pending(uuid.New())
	appt = mustPlan(t, &appt, Assigner{}, Change{To: StatusAssigned, TechnicianID: tech})

	_, err := Plan(&appt, Technician{ID: tech}, Change{To: StatusCompleted}, now)
	if !apperr.Is(err, apperr.KindConflict) || apperr.GetCode(err) != CodeInvalidTransition {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

func TestOnlyAssignerAssigns(t *testing.T) {
	appt := pending(uuid.New())
	for _, actor := range []Actor{Customer{ID: appt.CustomerID}, Technician{ID: uuid.New()}, Operator{ID: uuid.New()}} {
		_, err := Plan(&appt, actor, Change{To: StatusAssigned, TechnicianID: uuid.New()}, now)
		if apperr.GetCode(err) != CodeAccessDenied {
			t.Fatalf("%s should not assign, got %v", ActorKind(actor), err)
		}
	}
}

func TestAssignRequiresTechnician(t *testing.T) {
	appt := pending(uuid.New())
	if _, err := Plan(&appt, Assigner{}, Change{To: StatusAssigned}, now); err == nil {
		t.Fatal("expected error without technician")
	}
}

func TestOnlyAssignedTechnicianProgresses(t *testing.T) {
	tech := uuid.New()
	other := uuid.New()
	appt := pending(uuid.New())
	appt = mustPlan(t, &appt, Assigner{}, Change{To: StatusAssigned, TechnicianID: tech})

	_, err := Plan(&appt, Technician{ID: other}, Change{To: StatusAccepted}, now)
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden for other technician, got %v", err)
	}

	tr, err := Plan(&appt, Technician{ID: tech}, Change{To: StatusAccepted}, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.ExpectTechnician == nil || *tr.ExpectTechnician != tech {
		t.Fatalf("technician transitions must guard on technician id, got %+v", tr)
	}
}

func TestCancellationClearsTechnician(t *testing.T) {
	customer := uuid.New()
	appt := pending(customer)
	appt = mustPlan(t, &appt, Assigner{}, Change{To: StatusAssigned, TechnicianID: uuid.New()})

	if _, err := Plan(&appt, Customer{ID: uuid.New()}, Change{To: StatusCancelled}, now); err == nil {
		t.Fatal("foreign customer must not cancel")
	}
	appt = mustPlan(t, &appt, Customer{ID: customer}, Change{To: StatusCancelled})
	if appt.TechnicianID != nil {
		t.Fatal("cancelled appointment must not hold a technician")
	}
	if _, err := Plan(&appt, Operator{}, Change{To: StatusPending}, now); err == nil {
		t.Fatal("cancelled is terminal")
	}
}

func TestFeedbackRules(t *testing.T) {
	customer := uuid.New()
	tech := uuid.New()
	appt := pending(customer)

	if _, err := PlanFeedback(&appt, Customer{ID: customer}, 5, nil, now); apperr.GetCode(err) != CodeInvalidStatus {
		t.Fatalf("feedback before completion should be rejected, got %v", err)
	}

	appt = mustPlan(t, &appt, Assigner{}, Change{To: StatusAssigned, TechnicianID: tech})
	appt = mustPlan(t, &appt, Technician{ID: tech}, Change{To: StatusAccepted})
	appt = mustPlan(t, &appt, Technician{ID: tech}, Change{To: StatusInProgress})
	appt = mustPlan(t, &appt, Technician{ID: tech}, Change{To: StatusCompleted})

	if _, err := PlanFeedback(&appt, Customer{ID: uuid.New()}, 5, nil, now); apperr.GetCode(err) != CodeAccessDenied {
		t.Fatalf("non-owner feedback should be denied, got %v", err)
	}
	if _, err := PlanFeedback(&appt, Customer{ID: customer}, 6, nil, now); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("rating 6 should fail validation, got %v", err)
	}

	fb, err := PlanFeedback(&appt, Customer{ID: customer}, 4, nil, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	appt.Feedback = &fb

	if _, err := PlanFeedback(&appt, Customer{ID: customer}, 5, nil, now); apperr.GetCode(err) != CodeFeedbackExists {
		t.Fatalf("second feedback should conflict, got %v", err)
	}
}

// Random actors request random changes; whatever Plan accepts must keep the
// technician/status invariant and follow the table.
func TestInvariantHoldsUnderRandomSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	statuses := []Status{StatusPending, StatusAssigned, StatusAccepted, StatusInProgress, StatusCompleted, StatusCancelled}

	for run := 0; run < 500; run++ {
		customer := uuid.New()
		techs := []uuid.UUID{uuid.New(), uuid.New()}
		appt := pending(customer)

		for step := 0; step < 12; step++ {
			var actor Actor
			switch rng.Intn(4) {
			case 0:
				actor = Assigner{}
			case 1:
				actor = Technician{ID: techs[rng.Intn(len(techs))]}
			case 2:
				actor = Customer{ID: customer}
			default:
				actor = Operator{ID: uuid.New()}
			}
			change := Change{To: statuses[rng.Intn(len(statuses))], TechnicianID: techs[rng.Intn(len(techs))]}

			before := appt
			tr, err := Plan(&appt, actor, change, now)
			if err != nil {
				continue
			}
			if !CanTransition(before.Status, tr.To) {
				t.Fatalf("run %d: plan allowed %s -> %s", run, before.Status, tr.To)
			}
			appt = Apply(appt, tr)
			if err := appt.CheckInvariant(); err != nil {
				t.Fatalf("run %d step %d (%s by %s): %v", run, step, tr.To, ActorKind(actor), err)
			}
			if before.TechnicianID != nil && appt.TechnicianID != nil && *before.TechnicianID != *appt.TechnicianID {
				t.Fatalf("run %d: technician changed without reassignment", run)
			}
		}
	}
}

func TestCanView(t *testing.T) {
	customer := uuid.New()
	tech := uuid.New()
	appt := pending(customer)
	appt = mustPlan(t, &appt, Assigner{}, Change{To: StatusAssigned, TechnicianID: tech})

	cases := []struct {
		actor Actor
		want  bool
	}{
		{Customer{ID: customer}, true},
		{Customer{ID: uuid.New()}, false},
		{Technician{ID: tech}, true},
		{Technician{ID: uuid.New()}, false},
		{Operator{ID: uuid.New()}, true},
	}
	for _, tc := range cases {
		if got := CanView(&appt, tc.actor); got != tc.want {
			t.Fatalf("CanView(%s) = %v, want %v", ActorKind(tc.actor), got, tc.want)
		}
	}
}

func TestReferenceNumberFormat(t *testing.T) {
	ref := NewReferenceNumber(now)
	if !regexp.MustCompile(`^FSM-20260314-[A-Z0-9]{6}$`).MatchString(ref) {
		t.Fatalf("unexpected reference %q", ref)
	}
}

func TestPriorityWeightOrder(t *testing.T) {
	if !(PriorityUrgent.Weight() > PriorityHigh.Weight() &&
		PriorityHigh.Weight() > PriorityMedium.Weight() &&
		PriorityMedium.Weight() > PriorityLow.Weight()) {
		t.Fatal("priority weights out of order")
	}
}
