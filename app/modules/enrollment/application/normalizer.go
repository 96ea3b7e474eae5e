package enrollmentservice

import (
	"fmt"
	"strings"

	domain "github.com/oh-sansi/olympiad-backend/app/modules/enrollment/domain"
)

// Placeholder tokens that mean "no value" in submitted spreadsheets. Matched
// case-insensitively after trimming.
var placeholderTokens = map[string]struct{}{
	"":     {},
	"N/A":  {},
	"NULL": {},
	"—":    {},
	"-":    {},
	"NA":   {},
}

// Columns whose values are categorical tokens; upper-cased so the validator
// can compare against the fixed sets directly.
var categoricalColumns = map[string]struct{}{
	domain.ColParticipationType: {},
	domain.ColAreaCode:          {},
	domain.ColLevelCode:         {},
	domain.ColStudentDocType:    {},
	domain.ColStudentDepartment: {},
	domain.ColStudentSex:        {},
	domain.ColTutorDocType:      {},
	domain.ColTeamRole:          {},
}

// Per-column length caps. Anything not listed falls back to maxLenDefault.
const (
	maxLenCode        = 50
	maxLenName        = 100
	maxLenInstitution = 150
	maxLenPhone       = 20
	maxLenEmail       = 150
	maxLenDefault     = 200
)

var columnMaxLen = map[string]int{
	domain.ColParticipationType: maxLenCode,
	domain.ColAreaCode:          maxLenCode,
	domain.ColAreaName:          maxLenName,
	domain.ColLevelCode:         maxLenCode,
	domain.ColLevelName:         maxLenName,

	domain.ColStudentDocType:     maxLenCode,
	domain.ColStudentDocNumber:   maxLenCode,
	domain.ColStudentNames:       maxLenName,
	domain.ColStudentSurname1:    maxLenName,
	domain.ColStudentSurname2:    maxLenName,
	domain.ColStudentInstitution: maxLenInstitution,
	domain.ColStudentDepartment:  maxLenName,
	domain.ColStudentGrade:       maxLenCode,
	domain.ColStudentBirthDate:   maxLenCode,
	domain.ColStudentSex:         maxLenCode,
	domain.ColStudentEmail:       maxLenEmail,

	domain.ColTutorDocType:     maxLenCode,
	domain.ColTutorDocNumber:   maxLenCode,
	domain.ColTutorNames:       maxLenName,
	domain.ColTutorSurnames:    maxLenName,
	domain.ColTutorPhone:       maxLenPhone,
	domain.ColTutorEmail:       maxLenEmail,
	domain.ColTutorInstitution: maxLenInstitution,
	domain.ColTutorProfession:  maxLenName,

	domain.ColTeamName: maxLenName,
	domain.ColTeamRole: maxLenCode,
}

// NormalizeRow cleans one raw row: trims every field, clears placeholder
// tokens, upper-cases categorical columns and caps over-length values with a
// warning. It never rejects a row, and normalizing an already-normalized row
// is a no-op.
func NormalizeRow(raw domain.RawRow) (domain.NormalizedRow, []domain.Issue) {
	fields := make(map[string]string, len(raw.Fields))
	var warnings []domain.Issue

	for col, value := range raw.Fields {
		v := strings.TrimSpace(value)

		if _, ok := placeholderTokens[strings.ToUpper(v)]; ok {
			fields[col] = ""
			continue
		}

		if _, ok := categoricalColumns[col]; ok {
			v = strings.ToUpper(v)
		}

		if maxLen := lenCap(col); len([]rune(v)) > maxLen {
			runes := []rune(v)
			truncated := strings.TrimSpace(string(runes[:maxLen]))
			warnings = append(warnings, domain.NewFieldWarning(
				raw.Row, domain.WarnFieldTruncated, domain.RowLabel(raw.Row), col, v,
				fmt.Sprintf("el valor de %s excede %d caracteres y fue truncado", col, maxLen),
			))
			v = truncated
		}

		fields[col] = v
	}

	return domain.NewNormalizedRow(raw.Row, fields), warnings
}

func lenCap(col string) int {
	if n, ok := columnMaxLen[col]; ok {
		return n
	}
	return maxLenDefault
}
