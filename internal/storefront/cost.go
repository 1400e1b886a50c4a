package storefront

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// costPlan resolves line items to inventory items before any cost lookup so
// that costs are fetched once per distinct item.
type costPlan struct {
	byLine map[string]string
	items  []string
}

func newCostPlan(orders []Order, variants map[string]string) costPlan {
	plan := costPlan{byLine: make(map[string]string)}
	seen := make(map[string]struct{})
	for _, o := range orders {
		for _, li := range o.LineItems {
			inventoryID, ok := variants[li.VariantID]
			if li.VariantID == "" || !ok {
				continue
			}
			plan.byLine[lineKey(o.ID, li.ID)] = inventoryID
			if _, dup := seen[inventoryID]; dup {
				continue
			}
			seen[inventoryID] = struct{}{}
			plan.items = append(plan.items, inventoryID)
		}
	}
	sort.Strings(plan.items)
	return plan
}

func (p costPlan) apply(orders []Order, costs map[string]decimal.Decimal) []CostedOrder {
	out := make([]CostedOrder, 0, len(orders))
	for _, o := range orders {
		costed := CostedOrder{Order: o, TotalCost: decimal.Zero}
		for _, li := range o.LineItems {
			inventoryID, ok := p.byLine[lineKey(o.ID, li.ID)]
			if !ok {
				costed.UnresolvedLines++
				continue
			}
			unit, ok := costs[inventoryID]
			if !ok {
				costed.UnresolvedLines++
				continue
			}
			costed.TotalCost = costed.TotalCost.Add(unit.Mul(decimal.NewFromInt(int64(li.Quantity))))
		}
		out = append(out, costed)
	}
	return out
}

func lineKey(orderID, lineID string) string {
	return orderID + "/" + lineID
}

// FetchOrdersWithCost fetches orders since the watermark and attaches the
// cost of goods to each. Only the order fetch is fatal; a failed catalog or
// cost lookup degrades to zero cost for the affected lines.
func (c *Client) FetchOrdersWithCost(ctx context.Context, since *time.Time) ([]CostedOrder, error) {
	orders, err := c.FetchOrders(ctx, since)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return []CostedOrder{}, nil
	}

	variants, err := c.FetchVariantInventoryMap(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logg.WarnErr(ctx, "variant lookup failed; order costs default to zero", err)
		variants = map[string]string{}
	}

	plan := newCostPlan(orders, variants)
	costs := map[string]decimal.Decimal{}
	if len(plan.items) > 0 {
		costs, err = c.FetchInventoryCosts(ctx, plan.items)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// Chunks fetched before the failure are still usable.
			c.logg.WarnErr(ctx, "inventory cost lookup failed; unresolved lines cost zero", err)
		}
	}

	costed := plan.apply(orders, costs)
	unresolved := 0
	for _, o := range costed {
		unresolved += o.UnresolvedLines
	}
	if unresolved > 0 {
		c.metrics.AddUnresolvedLines(unresolved)
		ctx = c.logg.WithField(ctx, "unresolved_lines", unresolved)
		c.logg.Warn(ctx, "some line items have no known cost")
	}
	return costed, nil
}
