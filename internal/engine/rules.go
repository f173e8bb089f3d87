package engine

import (
	"fmt"

	"scriptorium/internal/domain"
)

// rule describes who may perform an action and from which statuses.
// A zero role means any authenticated user (ownership is checked by the
// operation itself); an empty from list means any status.
type rule struct {
	role    domain.Role
	from    []domain.Status
	message string
}

var rules = map[domain.Action]rule{
	domain.ActionCreated: {
		role: domain.RoleAdmin,
	},
	domain.ActionAssigned: {
		role:    domain.RoleAdmin,
		from:    []domain.Status{domain.StatusPending},
		message: "task is not in pending status",
	},
	domain.ActionTextUpdated: {},
	domain.ActionSubmitted: {
		from:    []domain.Status{domain.StatusInProgress, domain.StatusRejected},
		message: "task cannot be submitted in its current status",
	},
	domain.ActionClaimedForReview: {
		role:    domain.RoleReviewer,
		from:    []domain.Status{domain.StatusAwaitingReview},
		message: "task is not awaiting review",
	},
	domain.ActionApproved: {
		from:    []domain.Status{domain.StatusInReview},
		message: "task is not in review",
	},
	domain.ActionRejected: {
		from:    []domain.Status{domain.StatusInReview, domain.StatusFinalReview},
		message: "task cannot be rejected in its current status",
	},
	domain.ActionClaimedForFinalReview: {
		role:    domain.RoleFinalReviewer,
		from:    []domain.Status{domain.StatusAwaitingFinalReview},
		message: "task is not awaiting final review",
	},
	domain.ActionFinalApproved: {
		from:    []domain.Status{domain.StatusFinalReview},
		message: "task is not in final review",
	},
	domain.ActionReassigned: {
		role:    domain.RoleAdmin,
		from:    []domain.Status{domain.StatusRejected},
		message: "task is not in rejected status",
	},
}

// checkRule enforces the role and status requirements for an action.
func checkRule(action domain.Action, actor domain.User, status domain.Status) error {
	r, ok := rules[action]
	if !ok {
		return fmt.Errorf("no rule for action %s", action)
	}
	if r.role != "" && actor.Role != r.role {
		return UnauthorizedError{Reason: fmt.Sprintf("action requires the %s role", r.role)}
	}
	if len(r.from) > 0 {
		allowed := false
		for _, s := range r.from {
			if s == status {
				allowed = true
				break
			}
		}
		if !allowed {
			return PreconditionError{Reason: r.message}
		}
	}
	return nil
}
