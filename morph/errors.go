package morph

import "errors"

var (
	// ErrPlanCycle is returned by Plan.Bind for edges that would close a
	// cycle. The offending edge stays unbound.
	ErrPlanCycle = errors.New("morph: plan cycle")

	// ErrUnknownOperator is returned for references to missing operators.
	ErrUnknownOperator = errors.New("morph: unknown operator")

	// ErrInvalidOperator is returned for malformed operator descriptions.
	ErrInvalidOperator = errors.New("morph: invalid operator")

	// ErrUnknownType is returned when no module factory is registered for
	// an operator type.
	ErrUnknownType = errors.New("morph: unknown operator type")

	errDuplicateType = errors.New("duplicate operator type")
)
