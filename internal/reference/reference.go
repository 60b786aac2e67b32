// internal/reference/reference.go
//
// Static municipal reference data: ward-to-councillor assignments,
// category-to-department routing, and the category-derived default
// priorities. The data is injected into services instead of read from
// package globals so tests can substitute fixtures.
//
// Issues snapshot councillor and department at creation time; the
// lookups here also serve as the "current mapping" for display, which
// may legitimately differ from what historical issues recorded.
package reference

import (
	"sort"

	"freestate-servicedelivery/internal/models"
)

// UnknownCouncillor is recorded when a ward has no councillor mapping.
const UnknownCouncillor = "Unknown"

// Set is one consistent snapshot of the reference tables.
type Set struct {
	// Councillors maps ward number to the sitting councillor's name.
	Councillors map[int]string

	// Departments routes each issue category to the responsible
	// municipal department.
	Departments map[models.IssueCategory]models.Department

	// Priorities holds the default priority assigned to a new issue
	// of each category.
	Priorities map[models.IssueCategory]models.IssuePriority

	// Municipalities maps each known municipality to its ward count.
	// Wards are numbered 1..count.
	Municipalities map[string]int
}

// Defaults returns the production reference data for the Free State
// municipalities served by the platform.
func Defaults() *Set {
	return &Set{
		Councillors: map[int]string{
			1: "Eleanor Vance",
			2: "Ben Carter",
			3: "Priya Singh",
			4: "Omar Al-Jamil",
		},
		Departments: map[models.IssueCategory]models.Department{
			models.CategoryWaterLeak:      models.DeptWaterSanitation,
			models.CategorySewage:         models.DeptWaterSanitation,
			models.CategoryPothole:        models.DeptRoadsTransport,
			models.CategoryTrafficSignal:  models.DeptRoadsTransport,
			models.CategoryElectricity:    models.DeptEnergy,
			models.CategoryWasteRemoval:   models.DeptWaste,
			models.CategoryIllegalDumping: models.DeptWaste,
			models.CategoryParks:          models.DeptPublicWorks,
			models.CategoryOther:          models.DeptPublicWorks,
		},
		Priorities: map[models.IssueCategory]models.IssuePriority{
			models.CategoryWaterLeak:      models.PriorityHigh,
			models.CategorySewage:         models.PriorityHigh,
			models.CategoryPothole:        models.PriorityMedium,
			models.CategoryTrafficSignal:  models.PriorityHigh,
			models.CategoryElectricity:    models.PriorityHigh,
			models.CategoryWasteRemoval:   models.PriorityLow,
			models.CategoryIllegalDumping: models.PriorityMedium,
			models.CategoryParks:          models.PriorityLow,
			models.CategoryOther:          models.PriorityLow,
		},
		Municipalities: map[string]int{
			"Mangaung Metropolitan Municipality":  51,
			"Masilonyana Local Municipality":      15,
			"Tokologo Local Municipality":         7,
			"Tswelopele Local Municipality":       9,
			"Matjhabeng Local Municipality":       45,
			"Nala Local Municipality":             11,
			"Setsoto Local Municipality":          18,
			"Dihlabeng Local Municipality":        20,
			"Nketoana Local Municipality":         13,
			"Maluti-a-Phofung Local Municipality": 36,
		},
	}
}

// CouncillorForWard returns the councillor for a ward, or
// UnknownCouncillor when the ward has no mapping.
func (s *Set) CouncillorForWard(ward int) string {
	if name, ok := s.Councillors[ward]; ok {
		return name
	}
	return UnknownCouncillor
}

// DepartmentForCategory routes a category to its department. Unmapped
// categories fall back to Public Works, the catch-all unit.
func (s *Set) DepartmentForCategory(category models.IssueCategory) models.Department {
	if dept, ok := s.Departments[category]; ok {
		return dept
	}
	return models.DeptPublicWorks
}

// PriorityForCategory returns the default priority for a category.
func (s *Set) PriorityForCategory(category models.IssueCategory) models.IssuePriority {
	if priority, ok := s.Priorities[category]; ok {
		return priority
	}
	return models.PriorityLow
}

// CouncillorWards lists the wards with a councillor mapping, ascending.
func (s *Set) CouncillorWards() []int {
	wards := make([]int, 0, len(s.Councillors))
	for ward := range s.Councillors {
		wards = append(wards, ward)
	}
	sort.Ints(wards)
	return wards
}

// MunicipalityNames lists the known municipalities, sorted by name.
func (s *Set) MunicipalityNames() []string {
	names := make([]string, 0, len(s.Municipalities))
	for name := range s.Municipalities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidWard reports whether the ward number exists in the municipality.
func (s *Set) ValidWard(municipality string, ward int) bool {
	count, ok := s.Municipalities[municipality]
	if !ok {
		return false
	}
	return ward >= 1 && ward <= count
}
