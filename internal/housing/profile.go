package housing

import (
	"errors"
	"strings"
)

const (
	// DefaultCleanliness is used when a profile has no cleanliness rating.
	DefaultCleanliness = 3
	// GenderPreferenceNone is the explicit "no preference" value.
	GenderPreferenceNone = "none"
)

type SleepSchedule string

const (
	SleepEarly SleepSchedule = "early"
	SleepNight SleepSchedule = "night"
)

// Profile describes a student. The same shape is used for the seeker looking
// at a listing and for the lister embedded in it.
type Profile struct {
	ID               string        `json:"id,omitempty"`
	Name             string        `json:"name,omitempty"`
	Email            string        `json:"email,omitempty"`
	University       string        `json:"university,omitempty"`
	Program          string        `json:"program,omitempty"`
	Year             int           `json:"year,omitempty"`
	Bio              string        `json:"bio,omitempty"`
	Cleanliness      int           `json:"cleanliness,omitempty"`
	SleepSchedule    SleepSchedule `json:"sleep_schedule,omitempty"`
	GenderPreference string        `json:"gender_preference,omitempty"`
	BudgetMin        float64       `json:"budget_min"`
	BudgetMax        float64       `json:"budget_max"`
}

// CleanlinessOrDefault returns the cleanliness rating, or DefaultCleanliness
// when it is unset. A stored 0 counts as unset.
func (p *Profile) CleanlinessOrDefault() int {
	if p == nil || p.Cleanliness == 0 {
		return DefaultCleanliness
	}
	return p.Cleanliness
}

// HasGenderPreference reports whether the profile states a preference other
// than the "none" sentinel.
func (p *Profile) HasGenderPreference() bool {
	if p == nil {
		return false
	}
	return p.GenderPreference != "" && p.GenderPreference != GenderPreferenceNone
}

// InstitutionKey returns the normalized institution name used for comparisons.
func (p *Profile) InstitutionKey() string {
	if p == nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(p.University))
}

// ErrNotFound is wrapped by every storage backend when a record is missing.
var ErrNotFound = errors.New("not found")
