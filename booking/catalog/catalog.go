package catalog

import (
	"fmt"

	coreconfig "github.com/wowmotion/bookingbot/core/config"
)

// Plan describes a bookable photosession package.
type Plan struct {
	ID          string
	Name        string
	Price       int64
	Description string
	Group       string
	Label       string
}

// Catalog holds the configured plans in their configured order and
// provides lookups by id and by group.
type Catalog struct {
	plans  []Plan
	byID   map[string]Plan
	groups []string
}

// New builds a catalog from configured plans. Plan ids must be unique.
func New(cfgPlans []coreconfig.Plan) (*Catalog, error) {
	if len(cfgPlans) == 0 {
		return nil, fmt.Errorf("catalog: no plans configured")
	}

	c := &Catalog{
		plans: make([]Plan, 0, len(cfgPlans)),
		byID:  make(map[string]Plan, len(cfgPlans)),
	}
	seenGroups := make(map[string]struct{})

	for _, p := range cfgPlans {
		if p.ID == "" {
			return nil, fmt.Errorf("catalog: plan with empty id")
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate plan id %q", p.ID)
		}
		plan := Plan{
			ID:          p.ID,
			Name:        p.Name,
			Price:       p.Price,
			Description: p.Description,
			Group:       p.Group,
			Label:       p.Label,
		}
		c.plans = append(c.plans, plan)
		c.byID[plan.ID] = plan
		if plan.Group != "" {
			if _, ok := seenGroups[plan.Group]; !ok {
				seenGroups[plan.Group] = struct{}{}
				c.groups = append(c.groups, plan.Group)
			}
		}
	}
	return c, nil
}

// PlanByID returns the plan with the given id.
func (c *Catalog) PlanByID(id string) (Plan, bool) {
	p, ok := c.byID[id]
	return p, ok
}

// Plans returns all plans in configured order.
func (c *Catalog) Plans() []Plan {
	out := make([]Plan, len(c.plans))
	copy(out, c.plans)
	return out
}

// PlansByGroup returns plans belonging to the given group, in configured order.
func (c *Catalog) PlansByGroup(group string) []Plan {
	var out []Plan
	for _, p := range c.plans {
		if p.Group == group {
			out = append(out, p)
		}
	}
	return out
}

// Groups returns distinct plan groups in first-seen order.
func (c *Catalog) Groups() []string {
	out := make([]string, len(c.groups))
	copy(out, c.groups)
	return out
}
