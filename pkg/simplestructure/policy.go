package simplestructure

import "context"

// VariantPolicy picks among the variants attached to a selector version
// during resolution. A policy returns the subset of candidates it
// considers applicable; the resolution engine then requires that subset to
// contain exactly one variant and fails with SelectorUnresolvedError
// otherwise. Policies must be pure: no writes, no dependence on call
// order.
//
// Which variant a given learner sees is a learning-context concern, so the
// library ships only trivial policies. Callers supply their own for
// anything smarter (per-user assignment, experiment bucketing, ...).
type VariantPolicy interface {
	SelectVariants(ctx context.Context, sv *SelectorVersion, variants []*Variant) ([]*Variant, error)
}

// VariantPolicyFunc adapts a plain function to the VariantPolicy interface.
type VariantPolicyFunc func(ctx context.Context, sv *SelectorVersion, variants []*Variant) ([]*Variant, error)

// SelectVariants calls f.
func (f VariantPolicyFunc) SelectVariants(ctx context.Context, sv *SelectorVersion, variants []*Variant) ([]*Variant, error) {
	return f(ctx, sv, variants)
}

// FirstVariant returns a policy that picks the earliest-created variant
// (the control group, by convention). It matches nothing when the
// selector version has no variants.
func FirstVariant() VariantPolicy {
	return VariantPolicyFunc(func(ctx context.Context, sv *SelectorVersion, variants []*Variant) ([]*Variant, error) {
		if len(variants) == 0 {
			return nil, nil
		}
		return variants[:1], nil
	})
}

// VariantKey returns a policy that matches variants by their key.
func VariantKey(key string) VariantPolicy {
	return VariantPolicyFunc(func(ctx context.Context, sv *SelectorVersion, variants []*Variant) ([]*Variant, error) {
		var matched []*Variant
		for _, v := range variants {
			if v.Key == key {
				matched = append(matched, v)
			}
		}
		return matched, nil
	})
}
