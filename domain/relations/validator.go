package relations

import "fmt"

// Operation is a proposed edge mutation kind.
type Operation string

const (
	OpAdd    Operation = "add"
	OpRemove Operation = "remove"
)

// Rule names carried on violations and warnings so callers can render
// actionable messages.
const (
	RuleOneToOneSource  = "one_to_one_source"
	RuleOneToOneTarget  = "one_to_one_target"
	RuleOneToManySource = "one_to_many_source"
	RuleMaxRelations    = "max_relations"
	RuleMinRelations    = "min_relations"
	RuleRequired        = "required"
)

// CheckInput is a proposed mutation together with the committed edge counts
// it would act on. SourceCount is the number of edges under the definition
// sharing the proposed source; TargetCount the number sharing the target.
type CheckInput struct {
	Definition  *RelationDefinition
	Op          Operation
	SourceCount int
	TargetCount int
}

// Violation is one broken cardinality rule. Current and Allowed let the
// caller say "3 of 3 used" instead of a bare rejection.
type Violation struct {
	Rule    string `json:"rule"`
	Message string `json:"message"`
	Current int    `json:"current"`
	Allowed int    `json:"allowed"`
}

// ConstraintWarning is a non-blocking signal: the operation proceeds, but the
// resulting state breaks a soft expectation such as min_relations.
type ConstraintWarning struct {
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// CheckResult is the validator's decision.
type CheckResult struct {
	Allowed    bool                `json:"allowed"`
	Violations []Violation         `json:"violations,omitempty"`
	Warnings   []ConstraintWarning `json:"warnings,omitempty"`
}

// CheckConstraints decides whether a proposed edge mutation respects the
// definition's relation type and cardinality bounds. It performs no I/O; the
// caller supplies committed counts and runs the check inside the same
// transaction as the write.
//
// Removals are never disallowed: going below min_relations or emptying a
// required relation produces warnings, and the caller decides what to do
// with them. An error is returned only for malformed input.
func CheckConstraints(in CheckInput) (CheckResult, error) {
	def := in.Definition
	if def == nil {
		return CheckResult{}, fmt.Errorf("check constraints: nil definition")
	}
	if !def.RelationType.Valid() {
		return CheckResult{}, fmt.Errorf("check constraints: unknown relation type %q", def.RelationType)
	}

	switch in.Op {
	case OpAdd:
		return checkAdd(def, in.SourceCount, in.TargetCount), nil
	case OpRemove:
		return checkRemove(def, in.SourceCount), nil
	default:
		return CheckResult{}, fmt.Errorf("check constraints: unknown operation %q", in.Op)
	}
}

func checkAdd(def *RelationDefinition, sourceCount, targetCount int) CheckResult {
	var violations []Violation

	switch def.RelationType {
	case OneToOne:
		// Symmetric uniqueness: both endpoints may appear at most once.
		if sourceCount > 0 {
			violations = append(violations, Violation{
				Rule:    RuleOneToOneSource,
				Message: fmt.Sprintf("source already has a %s relation under definition %q", OneToOne, def.Name),
				Current: sourceCount,
				Allowed: 1,
			})
		}
		if targetCount > 0 {
			violations = append(violations, Violation{
				Rule:    RuleOneToOneTarget,
				Message: fmt.Sprintf("target is already referenced by a %s relation under definition %q", OneToOne, def.Name),
				Current: targetCount,
				Allowed: 1,
			})
		}

	case OneToMany:
		// The source side is capped at one edge; the target side is
		// unbounded unless max_relations caps the reverse count.
		if sourceCount > 0 {
			violations = append(violations, Violation{
				Rule:    RuleOneToManySource,
				Message: fmt.Sprintf("source already has a relation under %s definition %q", OneToMany, def.Name),
				Current: sourceCount,
				Allowed: 1,
			})
		}
		if def.MaxRelations != nil && targetCount >= *def.MaxRelations {
			violations = append(violations, Violation{
				Rule:    RuleMaxRelations,
				Message: fmt.Sprintf("target reached the maximum of %d relations under definition %q", *def.MaxRelations, def.Name),
				Current: targetCount,
				Allowed: *def.MaxRelations,
			})
		}

	case ManyToMany:
		if def.MaxRelations != nil && sourceCount >= *def.MaxRelations {
			violations = append(violations, Violation{
				Rule:    RuleMaxRelations,
				Message: fmt.Sprintf("source reached the maximum of %d relations under definition %q", *def.MaxRelations, def.Name),
				Current: sourceCount,
				Allowed: *def.MaxRelations,
			})
		}
	}

	return CheckResult{Allowed: len(violations) == 0, Violations: violations}
}

func checkRemove(def *RelationDefinition, sourceCount int) CheckResult {
	var warnings []ConstraintWarning
	remaining := sourceCount - 1
	if remaining < 0 {
		remaining = 0
	}

	if def.IsRequired && remaining == 0 {
		warnings = append(warnings, ConstraintWarning{
			Rule:    RuleRequired,
			Message: fmt.Sprintf("removal leaves source with no relations under required definition %q", def.Name),
		})
	}
	if def.MinRelations > 0 && remaining < def.MinRelations {
		warnings = append(warnings, ConstraintWarning{
			Rule:    RuleMinRelations,
			Message: fmt.Sprintf("removal leaves source with %d relations, below the minimum of %d for definition %q", remaining, def.MinRelations, def.Name),
		})
	}

	return CheckResult{Allowed: true, Warnings: warnings}
}
