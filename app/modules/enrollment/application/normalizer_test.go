package enrollmentservice

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/oh-sansi/olympiad-backend/app/modules/enrollment/domain"
)

func TestNormalizeRow_CleansFields(t *testing.T) {
	raw := domain.RawRow{
		Row: 2,
		Fields: map[string]string{
			domain.ColParticipationType: "  individual ",
			domain.ColStudentDocType:    "ci",
			domain.ColStudentNames:      "  Lucía  ",
			domain.ColStudentEmail:      "n/a",
			domain.ColStudentSurname2:   "—",
			domain.ColTutorPhone:        "NULL",
			domain.ColTeamName:          "-",
			domain.ColTeamRole:          "na",
		},
	}

	normalized, warnings := NormalizeRow(raw)
	require.Empty(t, warnings)

	assert.Equal(t, "INDIVIDUAL", normalized.Get(domain.ColParticipationType))
	assert.Equal(t, "CI", normalized.Get(domain.ColStudentDocType))
	assert.Equal(t, "Lucía", normalized.Get(domain.ColStudentNames))
	assert.Equal(t, "", normalized.Get(domain.ColStudentEmail))
	assert.Equal(t, "", normalized.Get(domain.ColStudentSurname2))
	assert.Equal(t, "", normalized.Get(domain.ColTutorPhone))
	assert.Equal(t, "", normalized.Get(domain.ColTeamName))
	assert.Equal(t, "", normalized.Get(domain.ColTeamRole))
}

func TestNormalizeRow_TruncatesOverLengthFields(t *testing.T) {
	long := strings.Repeat("x", 200)
	raw := domain.RawRow{
		Row: 5,
		Fields: map[string]string{
			domain.ColStudentInstitution: long,
			domain.ColStudentNames:       "Ana",
		},
	}

	normalized, warnings := NormalizeRow(raw)

	require.Len(t, warnings, 1)
	assert.Equal(t, domain.WarnFieldTruncated, warnings[0].Code)
	assert.Equal(t, domain.ColStudentInstitution, warnings[0].Column)
	assert.Equal(t, 5, warnings[0].Row)
	assert.Len(t, normalized.Get(domain.ColStudentInstitution), 150)
	assert.Equal(t, "Ana", normalized.Get(domain.ColStudentNames))
}

func TestNormalizeRow_Idempotent(t *testing.T) {
	raw := domain.RawRow{Row: 3, Fields: individualFields()}

	first, warnings := NormalizeRow(raw)
	require.Empty(t, warnings)

	second, warnings := NormalizeRow(domain.RawRow{Row: 3, Fields: first.Fields()})
	require.Empty(t, warnings)

	if diff := cmp.Diff(first.Fields(), second.Fields()); diff != "" {
		t.Errorf("normalization not idempotent (-first +second):\n%s", diff)
	}
}

func TestNormalizeRow_NeverRejects(t *testing.T) {
	// Garbage in every field still yields a normalized row.
	fields := map[string]string{}
	for _, col := range domain.Columns {
		fields[col] = strings.Repeat("?", 500)
	}

	normalized, warnings := NormalizeRow(domain.RawRow{Row: 9, Fields: fields})

	assert.Len(t, warnings, len(domain.Columns))
	for _, w := range warnings {
		assert.Equal(t, domain.WarnFieldTruncated, w.Code)
		assert.False(t, w.IsError())
	}
	assert.NotEmpty(t, normalized.Get(domain.ColStudentNames))
}

func TestNormalizeRow_RandomizedInputHoldsInvariants(t *testing.T) {
	faker := gofakeit.New(42)

	for run := 0; run < 50; run++ {
		fields := map[string]string{}
		for _, col := range domain.Columns {
			fields[col] = faker.Sentence(faker.Number(0, 40))
		}

		normalized, _ := NormalizeRow(domain.RawRow{Row: 2, Fields: fields})

		for _, col := range domain.Columns {
			v := normalized.Get(col)
			assert.Equal(t, strings.TrimSpace(v), v, "column %s not trimmed", col)
			assert.LessOrEqual(t, utf8.RuneCountInString(v), 200, "column %s over cap", col)
		}
	}
}
