package subscription

import (
	"testing"

	"go.uber.org/zap"

	domsub "github.com/kailas-cloud/tenantrag/internal/domain/subscription"
)

func TestLookup_UnknownAgentIsActiveFree(t *testing.T) {
	s := New(zap.NewNop()).Lookup("nobody")
	if !s.Active() || s.Plan() != domsub.PlanFree {
		t.Errorf("expected active/free, got %s/%s", s.Status(), s.Plan())
	}
}

func TestActivateSuspend(t *testing.T) {
	r := New(zap.NewNop())

	if r.Suspend("alice") {
		t.Error("suspend without a record must report false")
	}
	if !r.Lookup("alice").Active() {
		t.Error("agent without record must stay active")
	}

	r.Activate("alice", domsub.PlanPro)
	if s := r.Lookup("alice"); !s.Active() || s.Plan() != domsub.PlanPro {
		t.Errorf("expected active/pro, got %s/%s", s.Status(), s.Plan())
	}

	if !r.Suspend("alice") {
		t.Error("expected suspend to succeed")
	}
	s := r.Lookup("alice")
	if s.Active() || s.Status() != domsub.StatusSuspended || s.Plan() != domsub.PlanPro {
		t.Errorf("expected suspended/pro, got %s/%s", s.Status(), s.Plan())
	}
}

func TestSet(t *testing.T) {
	r := New(zap.NewNop())
	r.Set("bob", domsub.StatusTrial, domsub.PlanBasic)

	if s := r.Lookup("bob"); s.Active() || s.Status() != domsub.StatusTrial {
		t.Errorf("trial must not be active, got %s", s.Status())
	}
}
