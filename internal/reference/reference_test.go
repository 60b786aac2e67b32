package reference

import (
	"testing"

	"freestate-servicedelivery/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestCouncillorForWard(t *testing.T) {
	ref := Defaults()
	assert.Equal(t, "Eleanor Vance", ref.CouncillorForWard(1))
	assert.Equal(t, "Omar Al-Jamil", ref.CouncillorForWard(4))
	assert.Equal(t, UnknownCouncillor, ref.CouncillorForWard(99))
	assert.Equal(t, UnknownCouncillor, ref.CouncillorForWard(0))
}

func TestEveryCategoryHasRouting(t *testing.T) {
	ref := Defaults()
	for _, category := range models.AllCategories() {
		dept := ref.DepartmentForCategory(category)
		assert.True(t, dept.IsValid(), "category %q routes to invalid department %q", category, dept)

		priority := ref.PriorityForCategory(category)
		assert.True(t, priority.IsValid(), "category %q has invalid default priority %q", category, priority)
	}
}

func TestDepartmentRouting(t *testing.T) {
	ref := Defaults()
	assert.Equal(t, models.DeptWaterSanitation, ref.DepartmentForCategory(models.CategoryWaterLeak))
	assert.Equal(t, models.DeptRoadsTransport, ref.DepartmentForCategory(models.CategoryPothole))
	assert.Equal(t, models.DeptPublicWorks, ref.DepartmentForCategory(models.IssueCategory("Unmapped")))
}

func TestPriorityDefaults(t *testing.T) {
	ref := Defaults()
	assert.Equal(t, models.PriorityHigh, ref.PriorityForCategory(models.CategoryWaterLeak))
	assert.Equal(t, models.PriorityLow, ref.PriorityForCategory(models.CategoryParks))
	assert.Equal(t, models.PriorityLow, ref.PriorityForCategory(models.IssueCategory("Unmapped")))
}

func TestCouncillorWardsSorted(t *testing.T) {
	ref := Defaults()
	assert.Equal(t, []int{1, 2, 3, 4}, ref.CouncillorWards())
}

func TestValidWard(t *testing.T) {
	ref := Defaults()

	tests := []struct {
		name         string
		municipality string
		ward         int
		want         bool
	}{
		{"first ward", "Mangaung Metropolitan Municipality", 1, true},
		{"last ward", "Tokologo Local Municipality", 7, true},
		{"past last ward", "Tokologo Local Municipality", 8, false},
		{"ward zero", "Mangaung Metropolitan Municipality", 0, false},
		{"negative ward", "Mangaung Metropolitan Municipality", -1, false},
		{"unknown municipality", "Atlantis", 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ref.ValidWard(tt.municipality, tt.ward))
		})
	}
}

func TestMunicipalityNamesSorted(t *testing.T) {
	ref := Defaults()
	names := ref.MunicipalityNames()
	assert.Len(t, names, len(ref.Municipalities))
	for i := 1; i < len(names); i++ {
		assert.Less(t, names[i-1], names[i])
	}
}
