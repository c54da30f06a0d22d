package domain_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/themperek/rig/internal/core/domain"
	"go.trai.ch/zerr"
)

func registerAll(t *testing.T, reg *domain.Registry, steps ...domain.Step) {
	t.Helper()
	for _, s := range steps {
		if err := reg.Register(s); err != nil {
			t.Fatalf("failed to register step %s: %v", s.ID, err)
		}
	}
}

func orderOf(p *domain.Plan) []string {
	var out []string
	for step := range p.Order() {
		out = append(out, step.ID)
	}
	return out
}

func cmdStep(id string, needs ...string) domain.Step {
	return domain.Step{
		ID:     id,
		Action: domain.Action{Kind: domain.ActionCommand, Command: []string{"true"}},
		Needs:  needs,
	}
}

func TestRegistry_Register_Duplicate(t *testing.T) {
	reg := domain.NewRegistry()
	if err := reg.Register(cmdStep("install-go")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := reg.Register(cmdStep("install-go"))
	if err == nil {
		t.Fatal("expected error when registering duplicate step, got nil")
	}
	if !errors.Is(err, domain.ErrDuplicateStep) {
		t.Errorf("expected ErrDuplicateStep, got %v", err)
	}

	zErr, ok := err.(*zerr.Error)
	if !ok {
		t.Fatalf("expected *zerr.Error, got %T", err)
	}
	if id, ok := zErr.Metadata()["step"].(string); !ok || id != "install-go" {
		t.Errorf("expected metadata step=install-go, got %v", zErr.Metadata()["step"])
	}
}

func TestNewPlan_TopologicalOrder(t *testing.T) {
	// download -> unpack -> install, plus an independent env step.
	reg := domain.NewRegistry()
	registerAll(t, reg,
		cmdStep("install", "unpack"),
		cmdStep("unpack", "download"),
		cmdStep("download"),
		cmdStep("path-env"),
	)

	plan, err := domain.NewPlan(reg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	order := orderOf(plan)
	pos := make(map[string]int, len(order))
	for i, id := range order {
		pos[id] = i
	}

	if pos["download"] > pos["unpack"] || pos["unpack"] > pos["install"] {
		t.Errorf("dependency order violated: %v", order)
	}
	if len(order) != 4 {
		t.Errorf("expected 4 steps in order, got %v", order)
	}
}

func TestNewPlan_Deterministic(t *testing.T) {
	build := func() *domain.Plan {
		reg := domain.NewRegistry()
		registerAll(t, reg,
			cmdStep("c"),
			cmdStep("a"),
			cmdStep("b"),
			cmdStep("final", "a", "b", "c"),
		)
		plan, err := domain.NewPlan(reg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return plan
	}

	first := orderOf(build())
	for range 10 {
		if got := orderOf(build()); !equal(first, got) {
			t.Fatalf("order not deterministic: %v vs %v", first, got)
		}
	}

	// Independent steps keep registration order.
	if !equal(first, []string{"c", "a", "b", "final"}) {
		t.Errorf("expected registration-order ties, got %v", first)
	}
}

func TestNewPlan_Cycle(t *testing.T) {
	reg := domain.NewRegistry()
	registerAll(t, reg,
		cmdStep("a", "b"),
		cmdStep("b", "c"),
		cmdStep("c", "a"),
	)

	_, err := domain.NewPlan(reg)
	if err == nil {
		t.Fatal("expected error for cycle, got nil")
	}
	if !errors.Is(err, domain.ErrCycle) {
		t.Fatalf("expected ErrCycle, got %v", err)
	}

	zErr, ok := err.(*zerr.Error)
	if !ok {
		t.Fatalf("expected *zerr.Error, got %T", err)
	}
	cycle, ok := zErr.Metadata()["cycle"].(string)
	if !ok {
		t.Fatal("expected cycle metadata")
	}
	for _, id := range []string{"a", "b", "c"} {
		if !strings.Contains(cycle, id) {
			t.Errorf("cycle report %q misses member %s", cycle, id)
		}
	}
}

func TestNewPlan_SelfCycle(t *testing.T) {
	reg := domain.NewRegistry()
	registerAll(t, reg, cmdStep("a", "a"))

	_, err := domain.NewPlan(reg)
	if !errors.Is(err, domain.ErrCycle) {
		t.Fatalf("expected ErrCycle for self-dependency, got %v", err)
	}
}

func TestNewPlan_UnknownDependency(t *testing.T) {
	reg := domain.NewRegistry()
	registerAll(t, reg, cmdStep("a", "ghost"))

	_, err := domain.NewPlan(reg)
	if err == nil {
		t.Fatal("expected error for unknown dependency, got nil")
	}
	if !errors.Is(err, domain.ErrUnknownStep) {
		t.Fatalf("expected ErrUnknownStep, got %v", err)
	}

	zErr, ok := err.(*zerr.Error)
	if !ok {
		t.Fatalf("expected *zerr.Error, got %T", err)
	}
	if by, ok := zErr.Metadata()["needed_by"].(string); !ok || by != "a" {
		t.Errorf("expected metadata needed_by=a, got %v", zErr.Metadata()["needed_by"])
	}
}

func TestPlan_Descendants(t *testing.T) {
	reg := domain.NewRegistry()
	registerAll(t, reg,
		cmdStep("root"),
		cmdStep("mid", "root"),
		cmdStep("leaf", "mid"),
		cmdStep("other"),
	)

	plan, err := domain.NewPlan(reg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	desc := plan.Descendants("root")
	if len(desc) != 2 {
		t.Fatalf("expected 2 descendants, got %v", desc)
	}
	for _, id := range []string{"mid", "leaf"} {
		if _, ok := desc[id]; !ok {
			t.Errorf("expected %s in descendants of root", id)
		}
	}
	if _, ok := desc["other"]; ok {
		t.Error("unrelated step must not appear in descendants")
	}
}

func TestPlan_Restrict(t *testing.T) {
	reg := domain.NewRegistry()
	registerAll(t, reg,
		cmdStep("download"),
		cmdStep("unpack", "download"),
		cmdStep("install", "unpack"),
		cmdStep("other"),
	)

	plan, err := domain.NewPlan(reg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sub, err := plan.Restrict([]string{"unpack"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := orderOf(sub); !equal(got, []string{"download", "unpack"}) {
		t.Errorf("expected [download unpack], got %v", got)
	}

	_, err = plan.Restrict([]string{"ghost"})
	if !errors.Is(err, domain.ErrUnknownStep) {
		t.Errorf("expected ErrUnknownStep for unknown target, got %v", err)
	}
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
