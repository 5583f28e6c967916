// internal/service/plan.go
package service

import (
	"fmt"
	"strings"

	"github.com/parleyhq/parley/internal/domain"
)

// planSeats maps a subscription plan to its seat capacity.
var planSeats = map[string]int{
	"knight":  3,
	"queen":   10,
	"king":    100,
	"emperor": 500,
}

// defaultPlanSeats is the conservative capacity applied when an
// organization update names a plan we do not recognize.
const defaultPlanSeats = 3

func normalizePlan(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.TrimSuffix(name, " plan")
}

// MaxUsersForPlan returns the seat capacity for a plan name,
// case-insensitively and tolerating a trailing " plan". An unrecognized
// name is an error; the signup path refuses to create an organization with
// an unknown capacity.
func MaxUsersForPlan(name string) (int, error) {
	if seats, ok := planSeats[normalizePlan(name)]; ok {
		return seats, nil
	}
	return 0, fmt.Errorf("%w: %q", domain.ErrUnknownPlan, name)
}

// MaxUsersForPlanOrDefault is the organization-update variant: an
// unrecognized plan falls back to the smallest capacity instead of
// failing.
func MaxUsersForPlanOrDefault(name string) int {
	if seats, ok := planSeats[normalizePlan(name)]; ok {
		return seats
	}
	return defaultPlanSeats
}
