package visibility

// Visibility is a goal's declared disclosure level.
type Visibility string

const (
	VisibilityPrivate Visibility = "private"
	VisibilityTribe   Visibility = "tribe"
	VisibilityPublic  Visibility = "public"
)

// ParseVisibility maps a raw stored value onto the closed enum. Anything
// unrecognized becomes private: disclosure must fail closed, never open.
func ParseVisibility(raw string) Visibility {
	switch Visibility(raw) {
	case VisibilityTribe:
		return VisibilityTribe
	case VisibilityPublic:
		return VisibilityPublic
	case VisibilityPrivate:
		return VisibilityPrivate
	default:
		return VisibilityPrivate
	}
}

// Tier is the viewer's access level relative to a target user. It is derived
// fresh on every request; group membership and levels drift over time, so a
// cached tier would go stale.
type Tier string

const (
	TierSelf          Tier = "self"
	TierSharedGroup   Tier = "shared_group"
	TierHigherOrEqual Tier = "higher_or_equal_level"
	TierStranger      Tier = "stranger"
)

// OKR is a measurable sub-goal. A non-empty SharedWith list restricts the OKR
// to viewers in one of those groups; an empty list inherits the goal's
// tribe-wide default.
type OKR struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	SharedWith []string `json:"shared_with,omitempty"`
}

// Goal is a user's goal with its declared visibility and child OKRs.
// Visibility is kept as the raw stored string and parsed at resolution time
// so malformed values can never slip past the fail-closed default.
type Goal struct {
	ID         string `json:"id"`
	OwnerID    string `json:"owner_id"`
	Title      string `json:"title"`
	Visibility string `json:"visibility"`
	OKRs       []OKR  `json:"okrs,omitempty"`
}

// Request carries everything needed to resolve one viewer/goal pair.
type Request struct {
	ViewerID     string
	TargetID     string
	ViewerGroups []string
	TargetGroups []string
	ViewerLevel  int
	TargetLevel  int
}

// Result is the disclosure decision for one goal. A visible tribe goal whose
// OKRs were all filtered out stays visible with an empty OKR list; callers
// use the distinction to render a "no shared metrics" placeholder instead of
// nothing.
type Result struct {
	Hidden bool
	OKRs   []OKR
}

// ResolveTier derives the viewer's access tier for the target user.
func ResolveTier(req Request) Tier {
	switch {
	case req.ViewerID == req.TargetID:
		return TierSelf
	case intersects(req.ViewerGroups, req.TargetGroups):
		return TierSharedGroup
	case req.ViewerLevel >= req.TargetLevel:
		return TierHigherOrEqual
	default:
		return TierStranger
	}
}

// Resolve decides whether the goal is disclosed to the viewer and which child
// OKRs come with it.
//
// Self and shared-group viewers may see tribe goals; higher-or-equal-level
// viewers and strangers see public goals only — level alone never unlocks
// tribe-restricted content.
func Resolve(req Request, goal Goal) Result {
	tier := ResolveTier(req)
	if tier == TierSelf {
		return Result{OKRs: goal.OKRs}
	}
	// Owners always see their own goals, even when the request was routed
	// under a different target id.
	if goal.OwnerID != "" && goal.OwnerID == req.ViewerID {
		return Result{OKRs: goal.OKRs}
	}

	switch ParseVisibility(goal.Visibility) {
	case VisibilityPublic:
		return Result{OKRs: goal.OKRs}
	case VisibilityTribe:
		if tier != TierSharedGroup {
			return Result{Hidden: true}
		}
		return Result{OKRs: filterOKRs(goal.OKRs, req.ViewerGroups)}
	default:
		// Private, plus anything unrecognized: fail closed.
		return Result{Hidden: true}
	}
}

// filterOKRs keeps OKRs whose share list is empty (inherit the tribe-wide
// default, already checked) or intersects the viewer's groups.
func filterOKRs(okrs []OKR, viewerGroups []string) []OKR {
	disclosed := make([]OKR, 0, len(okrs))
	for _, okr := range okrs {
		if len(okr.SharedWith) == 0 || intersects(okr.SharedWith, viewerGroups) {
			disclosed = append(disclosed, okr)
		}
	}
	return disclosed
}

func intersects(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, v := range a {
		set[v] = struct{}{}
	}
	for _, v := range b {
		if _, ok := set[v]; ok {
			return true
		}
	}
	return false
}
