package domain

import (
	"iter"
	"strings"

	"go.trai.ch/zerr"
)

// Registry holds declarative step definitions. It preserves registration
// order so that plans built from it are deterministic.
type Registry struct {
	steps map[string]Step
	order []string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{steps: make(map[string]Step)}
}

// Register adds a step definition.
// It returns ErrDuplicateStep if the identifier is already taken.
func (r *Registry) Register(s Step) error {
	if _, exists := r.steps[s.ID]; exists {
		return zerr.With(ErrDuplicateStep, "step", s.ID)
	}
	r.steps[s.ID] = s
	r.order = append(r.order, s.ID)
	return nil
}

// Get returns the step for an identifier.
// It returns ErrUnknownStep if no such step is registered.
func (r *Registry) Get(id string) (Step, error) {
	s, ok := r.steps[id]
	if !ok {
		return Step{}, zerr.With(ErrUnknownStep, "step", id)
	}
	return s, nil
}

// Len returns the number of registered steps.
func (r *Registry) Len() int {
	return len(r.steps)
}

// Steps returns an iterator over the steps in registration order.
func (r *Registry) Steps() iter.Seq[Step] {
	return func(yield func(Step) bool) {
		for _, id := range r.order {
			if !yield(r.steps[id]) {
				return
			}
		}
	}
}

// Plan is a validated, topologically ordered view of a step registry.
// Construction fails if any dependency identifier does not resolve or if
// the dependency relation contains a cycle; a partial plan never executes.
type Plan struct {
	registry   *Registry
	order      []string
	dependents map[string][]string
}

// NewPlan validates the registry's dependency relation and computes the
// execution order. Every step appears after all its dependencies; ties
// among independent steps are broken by registration order, so the same
// registry always yields the same sequence.
func NewPlan(reg *Registry) (*Plan, error) {
	p := &Plan{
		registry:   reg,
		order:      make([]string, 0, reg.Len()),
		dependents: make(map[string][]string),
	}

	visited := make(map[string]int) // 0: unvisited, 1: visiting, 2: visited
	var path []string

	var visit func(id string) error
	visit = func(id string) error {
		visited[id] = 1
		path = append(path, id)

		step, ok := reg.steps[id]
		if !ok {
			return zerr.With(ErrUnknownStep, "step", id)
		}

		for _, dep := range step.Needs {
			if _, ok := reg.steps[dep]; !ok {
				return zerr.With(zerr.With(ErrUnknownStep, "step", dep), "needed_by", id)
			}
			if visited[dep] == 1 {
				return cycleError(path, dep)
			}
			if visited[dep] == 0 {
				if err := visit(dep); err != nil {
					return err
				}
			}
		}

		visited[id] = 2
		path = path[:len(path)-1]
		p.order = append(p.order, id)
		return nil
	}

	// Roots are visited in registration order; a DFS post-order append then
	// places every step after its dependencies deterministically.
	for _, id := range reg.order {
		if visited[id] == 0 {
			if err := visit(id); err != nil {
				return nil, err
			}
		}
	}

	for _, id := range reg.order {
		for _, dep := range reg.steps[id].Needs {
			p.dependents[dep] = append(p.dependents[dep], id)
		}
	}

	return p, nil
}

// cycleError constructs an ErrCycle carrying the cycle's member identifiers.
func cycleError(path []string, dep string) error {
	start := 0
	for i, id := range path {
		if id == dep {
			start = i
			break
		}
	}
	members := append(append([]string{}, path[start:]...), dep)
	return zerr.With(ErrCycle, "cycle", strings.Join(members, " -> "))
}

// Order returns an iterator over the steps in execution order. The sequence
// is recomputable: iterating twice yields the same steps in the same order.
func (p *Plan) Order() iter.Seq[Step] {
	return func(yield func(Step) bool) {
		for _, id := range p.order {
			if !yield(p.registry.steps[id]) {
				return
			}
		}
	}
}

// Len returns the number of steps in the plan.
func (p *Plan) Len() int {
	return len(p.order)
}

// Get returns the step for an identifier.
func (p *Plan) Get(id string) (Step, error) {
	return p.registry.Get(id)
}

// Descendants returns the set of steps that transitively depend on the
// given step. Used to block dependents of a failed step.
func (p *Plan) Descendants(id string) map[string]struct{} {
	out := make(map[string]struct{})
	stack := append([]string{}, p.dependents[id]...)
	for len(stack) > 0 {
		next := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, seen := out[next]; seen {
			continue
		}
		out[next] = struct{}{}
		stack = append(stack, p.dependents[next]...)
	}
	return out
}

// Restrict returns a plan limited to the given target steps and their
// transitive dependencies, preserving the full plan's relative order.
// It returns ErrUnknownStep if a target does not resolve.
func (p *Plan) Restrict(targets []string) (*Plan, error) {
	keep := make(map[string]struct{})
	var mark func(id string) error
	mark = func(id string) error {
		if _, ok := keep[id]; ok {
			return nil
		}
		step, err := p.registry.Get(id)
		if err != nil {
			return err
		}
		keep[id] = struct{}{}
		for _, dep := range step.Needs {
			if err := mark(dep); err != nil {
				return err
			}
		}
		return nil
	}
	for _, t := range targets {
		if err := mark(t); err != nil {
			return nil, err
		}
	}

	sub := &Plan{
		registry:   p.registry,
		dependents: p.dependents,
	}
	for _, id := range p.order {
		if _, ok := keep[id]; ok {
			sub.order = append(sub.order, id)
		}
	}
	return sub, nil
}
