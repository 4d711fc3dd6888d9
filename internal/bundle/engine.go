// Package bundle computes "buy N, pay X" discounts for a cart. It performs no
// I/O: callers load the active bundles and decide how to apply the result.
package bundle

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Mode selects which units are priced individually when comparing against
// the bundle price.
type Mode string

const (
	// ModeAllLines compares against every matching line at full quantity,
	// leftovers beyond the applied bundles included.
	ModeAllLines Mode = "all_lines"
	// ModeConsumedUnits compares only the bundleQuantity × minimumQuantity
	// units the bundles consume, taken in cart order.
	ModeConsumedUnits Mode = "consumed_units"
)

// Line is one finalized cart line.
type Line struct {
	ProductID uuid.UUID
	Quantity  int
	UnitPrice decimal.Decimal
}

// Rule is the subset of a bundle definition the engine needs.
type Rule struct {
	ID              uuid.UUID
	Name            string
	ProductIDs      []uuid.UUID
	MinimumQuantity int
	BundlePrice     decimal.Decimal
	IsActive        bool
	ValidFrom       *time.Time
	ValidTo         *time.Time
}

// ActiveAt reports whether the rule is flagged active and at falls inside
// its optional validity window (bounds inclusive).
func (r Rule) ActiveAt(at time.Time) bool {
	if !r.IsActive {
		return false
	}
	if r.ValidFrom != nil && at.Before(*r.ValidFrom) {
		return false
	}
	if r.ValidTo != nil && at.After(*r.ValidTo) {
		return false
	}
	return true
}

// Application is one bundle that beats individual pricing for the cart.
type Application struct {
	BundleID       uuid.UUID
	BundleName     string
	ProductIDs     []uuid.UUID // cart products that matched
	TotalQuantity  int
	BundleQuantity int
	OriginalTotal  decimal.Decimal
	BundleTotal    decimal.Decimal
	Savings        decimal.Decimal
}

// Compute evaluates every rule active at `at` against lines and returns the
// applications with positive savings, best savings first. Ties are broken by
// bundle id so the result is deterministic. Rules are evaluated independently:
// a product may contribute to more than one application.
func Compute(lines []Line, rules []Rule, mode Mode, at time.Time) []Application {
	var apps []Application
	for _, rule := range rules {
		if !rule.ActiveAt(at) || rule.MinimumQuantity <= 0 {
			continue
		}
		if app, ok := evaluate(lines, rule, mode); ok {
			apps = append(apps, app)
		}
	}
	sort.SliceStable(apps, func(i, j int) bool {
		if c := apps[i].Savings.Cmp(apps[j].Savings); c != 0 {
			return c > 0
		}
		return apps[i].BundleID.String() < apps[j].BundleID.String()
	})
	return apps
}

// Best returns the application with the highest savings, if any.
func Best(apps []Application) (Application, bool) {
	if len(apps) == 0 {
		return Application{}, false
	}
	return apps[0], true
}

func evaluate(lines []Line, rule Rule, mode Mode) (Application, bool) {
	members := make(map[uuid.UUID]bool, len(rule.ProductIDs))
	for _, id := range rule.ProductIDs {
		members[id] = true
	}

	var matched []Line
	total := 0
	for _, l := range lines {
		if members[l.ProductID] && l.Quantity > 0 {
			matched = append(matched, l)
			total += l.Quantity
		}
	}
	if total < rule.MinimumQuantity {
		return Application{}, false
	}

	bundleQty := total / rule.MinimumQuantity
	original := decimal.Zero
	switch mode {
	case ModeConsumedUnits:
		remaining := bundleQty * rule.MinimumQuantity
		for _, l := range matched {
			if remaining == 0 {
				break
			}
			n := min(l.Quantity, remaining)
			original = original.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(n))))
			remaining -= n
		}
	default:
		for _, l := range matched {
			original = original.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
		}
	}

	bundleTotal := rule.BundlePrice.Mul(decimal.NewFromInt(int64(bundleQty)))
	savings := original.Sub(bundleTotal)
	if !savings.IsPositive() {
		return Application{}, false
	}

	ids := make([]uuid.UUID, 0, len(matched))
	seen := make(map[uuid.UUID]bool, len(matched))
	for _, l := range matched {
		if !seen[l.ProductID] {
			seen[l.ProductID] = true
			ids = append(ids, l.ProductID)
		}
	}
	return Application{
		BundleID:       rule.ID,
		BundleName:     rule.Name,
		ProductIDs:     ids,
		TotalQuantity:  total,
		BundleQuantity: bundleQty,
		OriginalTotal:  original,
		BundleTotal:    bundleTotal,
		Savings:        savings,
	}, true
}
