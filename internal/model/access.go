package model

import "clinsim/internal/pagerange"

// AccessKind is the outcome family of an access evaluation.
type AccessKind string

const (
	AccessDenied     AccessKind = "denied"
	AccessFull       AccessKind = "full"
	AccessRestricted AccessKind = "restricted"
)

// AccessDecision is the answer to "may this viewer see this file, and if so
// which pages". Pages is populated only for restricted decisions.
type AccessDecision struct {
	Kind  AccessKind    `json:"kind"`
	Pages pagerange.Set `json:"pages,omitempty"`
}

// Denied is the decision refusing all access.
func Denied() AccessDecision {
	return AccessDecision{Kind: AccessDenied}
}

// FullAccess is the decision releasing the entire file.
func FullAccess() AccessDecision {
	return AccessDecision{Kind: AccessFull}
}

// RestrictedTo is the decision releasing only the given pages.
func RestrictedTo(pages pagerange.Set) AccessDecision {
	return AccessDecision{Kind: AccessRestricted, Pages: pages}
}

// Allows reports whether the decision permits viewing the given page.
func (d AccessDecision) Allows(page int) bool {
	switch d.Kind {
	case AccessFull:
		return true
	case AccessRestricted:
		return d.Pages.Contains(page)
	default:
		return false
	}
}
