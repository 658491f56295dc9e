package matching

import (
	"fmt"
	"math"

	"github.com/spigell/roomeo/internal/housing"
)

// Scope tells when a rule is evaluated, depending on whether the listing
// carries a lister profile.
type Scope int

const (
	Always Scope = iota
	WithLister
	WithoutLister
)

// Rule is a single scoring rule. Evaluate returns the points and the reason
// to show. A rule that does not fire returns zero points.
type Rule struct {
	Name     string
	Scope    Scope
	Evaluate func(w Weights, seeker *housing.Profile, listing *housing.Listing) (int, string)
}

func (r Rule) applies(listing *housing.Listing) bool {
	switch r.Scope {
	case WithLister:
		return listing.ListerProfile != nil
	case WithoutLister:
		return listing.ListerProfile == nil
	default:
		return true
	}
}

// DefaultRules returns the rule set in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "institution", Scope: Always, Evaluate: institutionRule},
		{Name: "budget", Scope: Always, Evaluate: budgetRule},
		{Name: "gender_preference", Scope: WithLister, Evaluate: genderPreferenceRule},
		{Name: "cleanliness", Scope: WithLister, Evaluate: cleanlinessRule},
		{Name: "sleep_schedule", Scope: WithLister, Evaluate: sleepScheduleRule},
		{Name: "no_lister", Scope: WithoutLister, Evaluate: noListerRule},
	}
}

func institutionRule(w Weights, seeker *housing.Profile, listing *housing.Listing) (int, string) {
	mine := seeker.InstitutionKey()
	theirs := listing.ListerProfile.InstitutionKey()
	if mine == "" || theirs == "" || mine != theirs {
		return 0, ""
	}
	return w.Institution, fmt.Sprintf("Both attend %s", seeker.University)
}

// budgetRule checks the closed range first; the tolerance applies above
// budget_max only. The bounds are used as given, even when inverted.
func budgetRule(w Weights, seeker *housing.Profile, listing *housing.Listing) (int, string) {
	price := listing.Price
	if math.IsNaN(price) {
		return 0, ""
	}
	if price >= seeker.BudgetMin && price <= seeker.BudgetMax {
		return w.BudgetFit, "Perfect budget alignment"
	}
	if price <= seeker.BudgetMax+w.NearBudgetTolerance {
		return w.NearBudget, "Near budget range"
	}
	return 0, ""
}

// genderPreferenceRule compares values exactly, unlike the institution rule.
func genderPreferenceRule(w Weights, seeker *housing.Profile, listing *housing.Listing) (int, string) {
	lister := listing.ListerProfile
	if !lister.HasGenderPreference() || lister.GenderPreference == seeker.GenderPreference {
		return w.GenderPreference, "Gender preference compatible"
	}
	return 0, ""
}

func cleanlinessRule(w Weights, seeker *housing.Profile, listing *housing.Listing) (int, string) {
	gap := seeker.CleanlinessOrDefault() - listing.ListerProfile.CleanlinessOrDefault()
	if gap < 0 {
		gap = -gap
	}
	if gap > w.MaxCleanlinessGap {
		return 0, ""
	}
	return w.Cleanliness, "Similar cleanliness standards"
}

// sleepScheduleRule needs both schedules set. No default is substituted.
func sleepScheduleRule(w Weights, seeker *housing.Profile, listing *housing.Listing) (int, string) {
	schedule := seeker.SleepSchedule
	if schedule == "" || schedule != listing.ListerProfile.SleepSchedule {
		return 0, ""
	}
	return w.SleepSchedule, fmt.Sprintf("Shared %s lifestyle", schedule)
}

// noListerRule awards flat points without a reason.
func noListerRule(w Weights, _ *housing.Profile, _ *housing.Listing) (int, string) {
	return w.NoLister, ""
}
