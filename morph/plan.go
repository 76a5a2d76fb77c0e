package morph

import (
	"errors"
	"fmt"
	"slices"
)

// PlanEventKind classifies a plan change notification.
type PlanEventKind int

const (
	OperatorAdded PlanEventKind = iota
	OperatorRemoved
	PlanChanged
)

func (k PlanEventKind) String() string {
	switch k {
	case OperatorAdded:
		return "operator-added"
	case OperatorRemoved:
		return "operator-removed"
	case PlanChanged:
		return "plan-changed"
	default:
		return "unknown"
	}
}

// PlanEvent is delivered to plan observers.
type PlanEvent struct {
	Kind     PlanEventKind
	Operator string
}

type edgeKey struct {
	from string
	role string
}

// Plan is an ordered set of operators plus their bound edges.
//
// A Plan is not safe for concurrent mutation. Hand a Clone to other
// goroutines.
type Plan struct {
	ops       []*Operator
	edges     map[edgeKey]string
	observers map[int]func(PlanEvent)
	nextObs   int
}

// NewPlan returns a plan holding ops in order. Edges are not bound until
// Bind is called.
func NewPlan(ops ...*Operator) (*Plan, error) {
	p := &Plan{edges: make(map[edgeKey]string)}

	for _, op := range ops {
		if err := p.add(op); err != nil {
			return nil, err
		}
	}

	return p, nil
}

// Operators returns the operators in plan order.
func (p *Plan) Operators() []*Operator {
	return p.ops
}

// Operator returns the operator called name, or nil.
func (p *Plan) Operator(name string) *Operator {
	for _, op := range p.ops {
		if op.Name == name {
			return op
		}
	}

	return nil
}

// Output returns the first output operator, or nil.
func (p *Plan) Output() *Operator {
	for _, op := range p.ops {
		if op.Type == TypeOutput {
			return op
		}
	}

	return nil
}

// Add appends op and notifies observers.
func (p *Plan) Add(op *Operator) error {
	if err := p.add(op); err != nil {
		return err
	}

	p.emit(PlanEvent{Kind: OperatorAdded, Operator: op.Name})
	p.emit(PlanEvent{Kind: PlanChanged})

	return nil
}

func (p *Plan) add(op *Operator) error {
	if op == nil {
		return fmt.Errorf("%w: nil operator", ErrInvalidOperator)
	}

	if err := op.Validate(); err != nil {
		return err
	}

	if p.Operator(op.Name) != nil {
		return fmt.Errorf("%w: duplicate name %q", ErrInvalidOperator, op.Name)
	}

	p.ops = append(p.ops, op)

	return nil
}

// Remove deletes the operator called name and clears every reference to
// it. It reports whether the operator existed.
func (p *Plan) Remove(name string) bool {
	idx := slices.IndexFunc(p.ops, func(op *Operator) bool { return op.Name == name })
	if idx < 0 {
		return false
	}

	p.ops = slices.Delete(p.ops, idx, idx+1)

	for _, op := range p.ops {
		op.clear(name)
	}

	for k, to := range p.edges {
		if k.from == name || to == name {
			delete(p.edges, k)
		}
	}

	p.emit(PlanEvent{Kind: OperatorRemoved, Operator: name})
	p.emit(PlanEvent{Kind: PlanChanged})

	return true
}

// Changed notifies observers that operator parameters were edited in place.
func (p *Plan) Changed() {
	p.emit(PlanEvent{Kind: PlanChanged})
}

// Subscribe registers fn for plan events. Events are delivered
// synchronously in the mutating goroutine. The returned function removes
// the subscription.
func (p *Plan) Subscribe(fn func(PlanEvent)) (unsubscribe func()) {
	if p.observers == nil {
		p.observers = make(map[int]func(PlanEvent))
	}

	id := p.nextObs
	p.nextObs++
	p.observers[id] = fn

	return func() {
		delete(p.observers, id)
	}
}

func (p *Plan) emit(ev PlanEvent) {
	ids := make([]int, 0, len(p.observers))
	for id := range p.observers {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for _, id := range ids {
		p.observers[id](ev)
	}
}

// Bind resolves all operator references in plan order. References to
// missing operators and edges that would close a cycle are left unbound
// and reported; every other edge is bound. The returned error joins all
// failures.
func (p *Plan) Bind() error {
	clear(p.edges)

	var errs []error

	for _, op := range p.ops {
		for _, ref := range op.refs() {
			role, target := ref[0], ref[1]
			if target == "" {
				continue
			}

			if p.Operator(target) == nil {
				errs = append(errs, fmt.Errorf("%w: %s %s -> %q", ErrUnknownOperator, op.Name, role, target))
				continue
			}

			if target == op.Name || p.reachable(target, op.Name) {
				errs = append(errs, fmt.Errorf("%w: %s %s -> %s", ErrPlanCycle, op.Name, role, target))
				continue
			}

			p.edges[edgeKey{from: op.Name, role: role}] = target
		}
	}

	return errors.Join(errs...)
}

// reachable reports whether to can be reached from from along bound edges.
func (p *Plan) reachable(from, to string) bool {
	seen := map[string]bool{from: true}
	stack := []string{from}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if cur == to {
			return true
		}

		for k, next := range p.edges {
			if k.from == cur && !seen[next] {
				seen[next] = true
				stack = append(stack, next)
			}
		}
	}

	return false
}

// Input returns the operator bound to role of the operator called name,
// or nil when the edge is unbound.
func (p *Plan) Input(name, role string) *Operator {
	target, ok := p.edges[edgeKey{from: name, role: role}]
	if !ok {
		return nil
	}

	return p.Operator(target)
}

// Order returns the operator names so that every operator comes after its
// bound inputs (Kahn's algorithm, ties in plan order).
func (p *Plan) Order() []string {
	indegree := make(map[string]int, len(p.ops))
	for k := range p.edges {
		indegree[k.from]++
	}

	order := make([]string, 0, len(p.ops))
	done := make(map[string]bool, len(p.ops))

	for len(order) < len(p.ops) {
		progressed := false

		for _, op := range p.ops {
			if done[op.Name] || indegree[op.Name] > 0 {
				continue
			}

			done[op.Name] = true
			order = append(order, op.Name)
			progressed = true

			for k, to := range p.edges {
				if to == op.Name {
					indegree[k.from]--
				}
			}
		}

		if !progressed {
			break
		}
	}

	return order
}

// Clone returns a deep copy of the plan and its bound edges without
// observers.
func (p *Plan) Clone() *Plan {
	c := &Plan{
		ops:   make([]*Operator, len(p.ops)),
		edges: make(map[edgeKey]string, len(p.edges)),
	}

	for i, op := range p.ops {
		c.ops[i] = op.Clone()
	}

	for k, v := range p.edges {
		c.edges[k] = v
	}

	return c
}

// SameStructure reports whether p and other have the same operators (by
// name and type, in order) and the same bound edges. Plans with the same
// structure can be applied by reconfiguring existing modules.
func (p *Plan) SameStructure(other *Plan) bool {
	if other == nil || len(p.ops) != len(other.ops) || len(p.edges) != len(other.edges) {
		return false
	}

	for i, op := range p.ops {
		if op.Name != other.ops[i].Name || op.Type != other.ops[i].Type {
			return false
		}
	}

	for k, v := range p.edges {
		if other.edges[k] != v {
			return false
		}
	}

	return true
}
