package enrollmentservice

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	catalogservice "github.com/oh-sansi/olympiad-backend/app/modules/catalog/application"
	catalogdb "github.com/oh-sansi/olympiad-backend/app/modules/catalog/infrastructure/repositories"
	domain "github.com/oh-sansi/olympiad-backend/app/modules/enrollment/domain"
	"github.com/oh-sansi/olympiad-backend/internal/observability"
)

// testCatalogRepo fakes a catalog with Matemáticas/Física areas,
// Primaria/Secundaria levels and every (area, level, modality) combination
// enabled except Física+Primaria in team modality.
func testCatalogRepo() *catalogdb.FakeRepository {
	areas := []catalogdb.Area{
		{ID: 1, Code: "MAT", Name: "Matemáticas", Active: true},
		{ID: 2, Code: "FIS", Name: "Física", Active: true},
	}
	levels := []catalogdb.Level{
		{ID: 10, Code: "PRI", Name: "Primaria", Active: true},
		{ID: 20, Code: "SEC", Name: "Secundaria", Active: true},
	}
	var categories []catalogdb.Category
	id := int64(100)
	for _, a := range areas {
		for _, l := range levels {
			for _, m := range []string{"INDIVIDUAL", "EQUIPO"} {
				if a.Code == "FIS" && l.Code == "PRI" && m == "EQUIPO" {
					continue
				}
				categories = append(categories, catalogdb.Category{
					ID: id, AreaID: a.ID, LevelID: l.ID, Modality: m, Active: true,
				})
				id++
			}
		}
	}

	return &catalogdb.FakeRepository{
		ListActiveAreasFn:      func(ctx context.Context) ([]catalogdb.Area, error) { return areas, nil },
		ListActiveLevelsFn:     func(ctx context.Context) ([]catalogdb.Level, error) { return levels, nil },
		ListActiveCategoriesFn: func(ctx context.Context) ([]catalogdb.Category, error) { return categories, nil },
	}
}

func testSnapshot(t *testing.T) *catalogservice.Snapshot {
	t.Helper()
	cache := catalogservice.NewCache(testCatalogRepo(), observability.NoOpLogger)
	snap, err := cache.Resolve(context.Background())
	require.NoError(t, err)
	return snap
}

// individualFields returns a complete, valid individual row.
func individualFields() map[string]string {
	return map[string]string{
		domain.ColParticipationType: "INDIVIDUAL",
		domain.ColAreaCode:          "MAT",
		domain.ColAreaName:          "Matemáticas",
		domain.ColLevelCode:         "SEC",
		domain.ColLevelName:         "Secundaria",

		domain.ColStudentDocType:     "CI",
		domain.ColStudentDocNumber:   "7894561",
		domain.ColStudentNames:       "Lucía",
		domain.ColStudentSurname1:    "Fernández",
		domain.ColStudentSurname2:    "Rojas",
		domain.ColStudentInstitution: "U.E. Simón Bolívar",
		domain.ColStudentDepartment:  "COCHABAMBA",
		domain.ColStudentGrade:       "4TO SECUNDARIA",
		domain.ColStudentBirthDate:   "2009-05-14",
		domain.ColStudentSex:         "F",
		domain.ColStudentEmail:       "lucia.fernandez@example.edu.bo",

		domain.ColTutorDocType:     "CI",
		domain.ColTutorDocNumber:   "4455667",
		domain.ColTutorNames:       "Marcelo",
		domain.ColTutorSurnames:    "Fernández Gutiérrez",
		domain.ColTutorPhone:       "70712345",
		domain.ColTutorEmail:       "marcelo.fernandez@example.com",
		domain.ColTutorInstitution: "U.E. Simón Bolívar",
		domain.ColTutorProfession:  "Docente",

		domain.ColTeamName: "",
		domain.ColTeamRole: "",
	}
}

// teamFields returns a complete, valid team-member row.
func teamFields(team, role, docNumber, names string) map[string]string {
	f := individualFields()
	f[domain.ColParticipationType] = "EQUIPO"
	f[domain.ColTeamName] = team
	f[domain.ColTeamRole] = role
	f[domain.ColStudentDocNumber] = docNumber
	f[domain.ColStudentNames] = names
	f[domain.ColStudentEmail] = ""
	return f
}

func normalizedRow(t *testing.T, rowNum int, fields map[string]string) domain.NormalizedRow {
	t.Helper()
	normalized, warnings := NormalizeRow(domain.RawRow{Row: rowNum, Fields: fields})
	require.Empty(t, warnings)
	return normalized
}

func validCandidate(t *testing.T, rowNum int, fields map[string]string) domain.Candidate {
	t.Helper()
	cand, issues := ValidateRow(normalizedRow(t, rowNum, fields), testSnapshot(t))
	require.NotNil(t, cand, "expected a candidate, got issues: %v", issues)
	require.False(t, domain.HasError(issues))
	return *cand
}
