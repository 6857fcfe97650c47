package engine

import (
	"fmt"

	"phylon/internal/collect"
	"phylon/internal/pop"
	"phylon/internal/trait"
)

// resolveNumeric turns a trait spec into a per-organism value function. A
// bare name in the layout binds the trait directly; anything else compiles
// through the interpreter as an equation over trait names.
func (c *Controller) resolveNumeric(spec string) (EquationFn, error) {
	if id, ok := c.layout.ID(spec); ok {
		return func(dm *trait.DataMap) (float64, error) {
			return dm.Float(id)
		}, nil
	}
	if c.interp == nil {
		return nil, fmt.Errorf("trait %q is not in the layout and no interpreter is attached", spec)
	}
	fn, err := c.interp.CompileEquation(spec)
	if err != nil {
		return nil, fmt.Errorf("equation %q: %w", spec, err)
	}
	return fn, nil
}

// collectValues evaluates a spec over every live organism in the
// collection, keeping positions aligned with values.
func (c *Controller) collectValues(spec string, coll *pop.Collection) ([]float64, []pop.Position, error) {
	fn, err := c.resolveNumeric(spec)
	if err != nil {
		return nil, nil, err
	}
	live := coll.Live()
	vals := make([]float64, 0, len(live))
	positions := make([]pop.Position, 0, len(live))
	for _, pos := range live {
		v, err := fn(pos.Org().DataMap())
		if err != nil {
			return nil, nil, fmt.Errorf("organism at %s: %w", pos, err)
		}
		vals = append(vals, v)
		positions = append(positions, pos)
	}
	return vals, positions, nil
}

// TraitSummary applies an aggregation filter to a trait spec over a
// collection and returns the formatted result. String traits take the
// categorical filters; everything else is numeric.
func (c *Controller) TraitSummary(spec, filterStr string, coll *pop.Collection) (string, error) {
	f, err := collect.ParseFilter(filterStr)
	if err != nil {
		c.errs.AddError("trait summary: %v", err)
		return "", err
	}

	if id, ok := c.layout.ID(spec); ok && c.layout.Tag(id) == trait.TagString {
		live := coll.Live()
		vals := make([]string, 0, len(live))
		for _, pos := range live {
			vals = append(vals, pos.Org().DataMap().Render(id))
		}
		out, err := f.ApplyStrings(vals)
		if err != nil {
			c.errs.AddError("trait summary %q: %v", spec, err)
			return "", err
		}
		return out, nil
	}

	vals, _, err := c.collectValues(spec, coll)
	if err != nil {
		c.errs.AddError("trait summary %q: %v", spec, err)
		return "", err
	}
	out, err := f.ApplyFloats(vals)
	if err != nil {
		c.errs.AddError("trait summary %q: %v", spec, err)
		return "", err
	}
	return out, nil
}

// FindMinPos returns the position of the organism minimizing the spec.
func (c *Controller) FindMinPos(spec string, coll *pop.Collection) (pop.Position, error) {
	vals, positions, err := c.collectValues(spec, coll)
	if err != nil {
		c.errs.AddError("find min %q: %v", spec, err)
		return pop.Position{}, err
	}
	idx := collect.MinIndex(vals)
	if idx < 0 {
		return pop.Position{}, nil
	}
	return positions[idx], nil
}

// FindMaxPos returns the position of the organism maximizing the spec.
func (c *Controller) FindMaxPos(spec string, coll *pop.Collection) (pop.Position, error) {
	vals, positions, err := c.collectValues(spec, coll)
	if err != nil {
		c.errs.AddError("find max %q: %v", spec, err)
		return pop.Position{}, err
	}
	idx := collect.MaxIndex(vals)
	if idx < 0 {
		return pop.Position{}, nil
	}
	return positions[idx], nil
}

// FilterCollection keeps the organisms for which the predicate expression
// evaluates non-zero.
func (c *Controller) FilterCollection(coll *pop.Collection, expr string) (*pop.Collection, error) {
	vals, positions, err := c.collectValues(expr, coll)
	if err != nil {
		c.errs.AddError("filter %q: %v", expr, err)
		return nil, err
	}
	out := pop.NewCollection()
	for i, v := range vals {
		if v != 0 {
			out.Insert(positions[i])
		}
	}
	return out, nil
}
