package enrollmentservice

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	catalogservice "github.com/oh-sansi/olympiad-backend/app/modules/catalog/application"
	domain "github.com/oh-sansi/olympiad-backend/app/modules/enrollment/domain"
)

var (
	emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	digitRegex = regexp.MustCompile(`\d`)
	gradeRegex = regexp.MustCompile(`^\d(RO|DO|ER|TO|MO)?\s+(DE\s+)?(PRIMARIA|SECUNDARIA)$`)
)

// validDepartments is the fixed department catalog.
var validDepartments = map[string]struct{}{
	"LA PAZ":     {},
	"COCHABAMBA": {},
	"SANTA CRUZ": {},
	"ORURO":      {},
	"POTOSI":     {},
	"CHUQUISACA": {},
	"TARIJA":     {},
	"BENI":       {},
	"PANDO":      {},
}

const minPhoneDigits = 7

// ValidateRow is a pure function turning one normalized row into a Candidate
// or a set of issues. It has no side effects and is safe to run concurrently
// across rows; the snapshot is read-only.
//
// Stages run in strict order. A failure in the participation-type or
// area/level stages stops the row immediately; student and tutor field
// checks accumulate, and the row stops before cross-field checks if any of
// them produced an error.
func ValidateRow(row domain.NormalizedRow, snap *catalogservice.Snapshot) (*domain.Candidate, []domain.Issue) {
	subject := subjectLabel(row)

	// Stage 1: participation type.
	ptype := domain.ParticipationType(row.Get(domain.ColParticipationType))
	if ptype != domain.ParticipationIndividual && ptype != domain.ParticipationTeam {
		return nil, []domain.Issue{domain.NewFieldError(
			row.Row, domain.ErrBadParticipationType, subject,
			domain.ColParticipationType, string(ptype),
			fmt.Sprintf("tipo de participación inválido, se espera %s o %s",
				domain.ParticipationIndividual, domain.ParticipationTeam),
		)}
	}

	// Stage 2: area and level resolution.
	var issues []domain.Issue
	areaID, areaIssues := resolveArea(row, snap, subject)
	issues = append(issues, areaIssues...)
	levelID, levelIssues := resolveLevel(row, snap, subject)
	issues = append(issues, levelIssues...)
	if len(issues) > 0 {
		return nil, issues
	}

	// Stages 3 and 4: student and tutor fields; both accumulate.
	student, studentIssues := validateStudent(row, subject)
	issues = append(issues, studentIssues...)
	tutor, tutorIssues := validateTutor(row, subject)
	issues = append(issues, tutorIssues...)

	// Stage 5: stop before cross-field checks on any accumulated error.
	if domain.HasError(issues) {
		return nil, issues
	}

	// Stage 6: cross-field rules between participation type and team columns.
	teamName := row.Get(domain.ColTeamName)
	teamRole := domain.TeamRole(row.Get(domain.ColTeamRole))

	switch ptype {
	case domain.ParticipationIndividual:
		if teamName != "" || teamRole != "" {
			issues = append(issues, domain.NewError(
				row.Row, domain.ErrIndividualHasTeamFields, subject,
				"una fila individual no debe llevar nombre ni rol de equipo",
			))
		}
	case domain.ParticipationTeam:
		if teamName == "" || teamRole == "" {
			issues = append(issues, domain.NewError(
				row.Row, domain.ErrTeamFieldsMissing, subject,
				fmt.Sprintf("una fila de equipo requiere %s y %s", domain.ColTeamName, domain.ColTeamRole),
			))
		} else if !teamRole.IsValid() {
			issues = append(issues, domain.NewFieldError(
				row.Row, domain.ErrBadTeamRole, subject,
				domain.ColTeamRole, string(teamRole),
				fmt.Sprintf("rol de equipo inválido, se espera %s o %s", domain.RoleLeader, domain.RoleParticipant),
			))
		}
	}

	// The (area, level, modality) combination must be offered this edition.
	if _, ok := snap.Category(areaID, levelID, string(ptype)); !ok {
		issues = append(issues, domain.NewError(
			row.Row, domain.ErrCategoryUnavailable, subject,
			fmt.Sprintf("la combinación área/nivel no está habilitada en modalidad %s", ptype),
		))
	}

	if domain.HasError(issues) {
		return nil, issues
	}

	// Stage 7: candidate. Identity resolution against persisted students and
	// tutors is deferred to the writer.
	cand := &domain.Candidate{
		Kind:    ptype,
		Row:     row.Row,
		AreaID:  areaID,
		LevelID: levelID,
		Student: student,
		Tutor:   tutor,
	}
	if ptype == domain.ParticipationTeam {
		cand.TeamName = teamName
		cand.Role = teamRole
	}
	return cand, issues
}

// subjectLabel prefers the student's name, then the team name, then the row.
func subjectLabel(row domain.NormalizedRow) string {
	name := strings.TrimSpace(strings.Join(nonEmpty(
		row.Get(domain.ColStudentNames),
		row.Get(domain.ColStudentSurname1),
		row.Get(domain.ColStudentSurname2),
	), " "))
	if name != "" {
		return name
	}
	if team := row.Get(domain.ColTeamName); team != "" {
		return team
	}
	return domain.RowLabel(row.Row)
}

func nonEmpty(values ...string) []string {
	out := values[:0]
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func resolveArea(row domain.NormalizedRow, snap *catalogservice.Snapshot, subject string) (int64, []domain.Issue) {
	code := row.Get(domain.ColAreaCode)
	name := row.Get(domain.ColAreaName)

	if code == "" && name == "" {
		return 0, []domain.Issue{domain.NewError(
			row.Row, domain.ErrAreaUnresolved, subject,
			fmt.Sprintf("se requiere %s o %s", domain.ColAreaCode, domain.ColAreaName),
		)}
	}

	byCode, haveCode := snap.AreaByCode(code)
	byName, haveName := snap.AreaByName(name)

	switch {
	case code != "" && name != "":
		if !haveCode || !haveName {
			return 0, []domain.Issue{unresolvedIssue(row.Row, domain.ErrAreaUnresolved, subject, "área", code, name)}
		}
		if byCode.ID != byName.ID {
			return 0, []domain.Issue{domain.NewFieldError(
				row.Row, domain.ErrAreaConflict, subject, domain.ColAreaName, name,
				fmt.Sprintf("el código %q y el nombre %q refieren a áreas distintas", code, name),
			)}
		}
		return byCode.ID, nil
	case code != "":
		if !haveCode {
			return 0, []domain.Issue{unresolvedIssue(row.Row, domain.ErrAreaUnresolved, subject, "área", code, name)}
		}
		return byCode.ID, nil
	default:
		if !haveName {
			return 0, []domain.Issue{unresolvedIssue(row.Row, domain.ErrAreaUnresolved, subject, "área", code, name)}
		}
		return byName.ID, nil
	}
}

func resolveLevel(row domain.NormalizedRow, snap *catalogservice.Snapshot, subject string) (int64, []domain.Issue) {
	code := row.Get(domain.ColLevelCode)
	name := row.Get(domain.ColLevelName)

	if code == "" && name == "" {
		return 0, []domain.Issue{domain.NewError(
			row.Row, domain.ErrLevelUnresolved, subject,
			fmt.Sprintf("se requiere %s o %s", domain.ColLevelCode, domain.ColLevelName),
		)}
	}

	byCode, haveCode := snap.LevelByCode(code)
	byName, haveName := snap.LevelByName(name)

	switch {
	case code != "" && name != "":
		if !haveCode || !haveName {
			return 0, []domain.Issue{unresolvedIssue(row.Row, domain.ErrLevelUnresolved, subject, "nivel", code, name)}
		}
		if byCode.ID != byName.ID {
			return 0, []domain.Issue{domain.NewFieldError(
				row.Row, domain.ErrLevelConflict, subject, domain.ColLevelName, name,
				fmt.Sprintf("el código %q y el nombre %q refieren a niveles distintos", code, name),
			)}
		}
		return byCode.ID, nil
	case code != "":
		if !haveCode {
			return 0, []domain.Issue{unresolvedIssue(row.Row, domain.ErrLevelUnresolved, subject, "nivel", code, name)}
		}
		return byCode.ID, nil
	default:
		if !haveName {
			return 0, []domain.Issue{unresolvedIssue(row.Row, domain.ErrLevelUnresolved, subject, "nivel", code, name)}
		}
		return byName.ID, nil
	}
}

func unresolvedIssue(rowNum int, code domain.IssueCode, subject, what, rawCode, rawName string) domain.Issue {
	value := rawCode
	if value == "" {
		value = rawName
	}
	return domain.NewFieldError(rowNum, code, subject, "", value,
		fmt.Sprintf("%s %q no existe o está inactivo", what, value))
}

func validateStudent(row domain.NormalizedRow, subject string) (domain.StudentData, []domain.Issue) {
	var issues []domain.Issue

	docType := domain.DocumentType(row.Get(domain.ColStudentDocType))
	if !docType.IsValid() {
		issues = append(issues, domain.NewFieldError(
			row.Row, domain.ErrStudentDocType, subject,
			domain.ColStudentDocType, string(docType),
			fmt.Sprintf("tipo de documento inválido, se espera %s, %s o %s",
				domain.DocumentCI, domain.DocumentPassport, domain.DocumentForeign),
		))
	}

	for _, req := range []struct {
		col, label string
	}{
		{domain.ColStudentDocNumber, "número de documento del estudiante"},
		{domain.ColStudentNames, "nombres del estudiante"},
		{domain.ColStudentSurname1, "apellido paterno del estudiante"},
		{domain.ColStudentInstitution, "institución del estudiante"},
	} {
		if row.Get(req.col) == "" {
			issues = append(issues, domain.NewFieldError(
				row.Row, domain.ErrStudentRequired, subject, req.col, "",
				fmt.Sprintf("falta %s", req.label),
			))
		}
	}

	if dep := row.Get(domain.ColStudentDepartment); dep != "" {
		if _, ok := validDepartments[dep]; !ok {
			issues = append(issues, domain.NewFieldError(
				row.Row, domain.ErrStudentDepartment, subject,
				domain.ColStudentDepartment, dep, "departamento no reconocido",
			))
		}
	}

	if birth := row.Get(domain.ColStudentBirthDate); birth != "" {
		if _, err := time.Parse("2006-01-02", birth); err != nil {
			issues = append(issues, domain.NewFieldError(
				row.Row, domain.ErrStudentBirthDate, subject,
				domain.ColStudentBirthDate, birth, "fecha de nacimiento inválida, formato esperado AAAA-MM-DD",
			))
		}
	}

	if sex := row.Get(domain.ColStudentSex); sex != "" && sex != "M" && sex != "F" {
		issues = append(issues, domain.NewFieldError(
			row.Row, domain.ErrStudentSex, subject,
			domain.ColStudentSex, sex, "sexo inválido, se espera M o F",
		))
	}

	if email := row.Get(domain.ColStudentEmail); email != "" && !emailRegex.MatchString(email) {
		issues = append(issues, domain.NewFieldError(
			row.Row, domain.ErrStudentEmail, subject,
			domain.ColStudentEmail, email, "correo del estudiante inválido",
		))
	}

	if grade := row.Get(domain.ColStudentGrade); grade != "" && !gradeRegex.MatchString(strings.ToUpper(grade)) {
		issues = append(issues, domain.NewFieldWarning(
			row.Row, domain.WarnGradeFormat, subject,
			domain.ColStudentGrade, grade, "formato de grado no estándar",
		))
	}

	student := domain.StudentData{
		Key: domain.NaturalKey{
			DocType:   docType,
			DocNumber: row.Get(domain.ColStudentDocNumber),
		},
		Names:       row.Get(domain.ColStudentNames),
		Surname1:    row.Get(domain.ColStudentSurname1),
		Surname2:    row.Get(domain.ColStudentSurname2),
		Institution: row.Get(domain.ColStudentInstitution),
		Department:  row.Get(domain.ColStudentDepartment),
		Grade:       row.Get(domain.ColStudentGrade),
		BirthDate:   row.Get(domain.ColStudentBirthDate),
		Sex:         row.Get(domain.ColStudentSex),
		Email:       row.Get(domain.ColStudentEmail),
	}
	return student, issues
}

func validateTutor(row domain.NormalizedRow, subject string) (domain.TutorData, []domain.Issue) {
	var issues []domain.Issue

	docType := domain.DocumentType(row.Get(domain.ColTutorDocType))
	if !docType.IsValid() {
		issues = append(issues, domain.NewFieldError(
			row.Row, domain.ErrTutorDocType, subject,
			domain.ColTutorDocType, string(docType),
			fmt.Sprintf("tipo de documento del tutor inválido, se espera %s, %s o %s",
				domain.DocumentCI, domain.DocumentPassport, domain.DocumentForeign),
		))
	}

	for _, req := range []struct {
		col, label string
	}{
		{domain.ColTutorDocNumber, "número de documento del tutor"},
		{domain.ColTutorNames, "nombres del tutor"},
		{domain.ColTutorSurnames, "apellidos del tutor"},
	} {
		if row.Get(req.col) == "" {
			issues = append(issues, domain.NewFieldError(
				row.Row, domain.ErrTutorRequired, subject, req.col, "",
				fmt.Sprintf("falta %s", req.label),
			))
		}
	}

	if phone := row.Get(domain.ColTutorPhone); phone != "" {
		if len(digitRegex.FindAllString(phone, -1)) < minPhoneDigits {
			issues = append(issues, domain.NewFieldError(
				row.Row, domain.ErrTutorPhone, subject,
				domain.ColTutorPhone, phone,
				fmt.Sprintf("el teléfono del tutor requiere al menos %d dígitos", minPhoneDigits),
			))
		}
	}

	if email := row.Get(domain.ColTutorEmail); email != "" && !emailRegex.MatchString(email) {
		issues = append(issues, domain.NewFieldError(
			row.Row, domain.ErrTutorEmail, subject,
			domain.ColTutorEmail, email, "correo del tutor inválido",
		))
	}

	tutor := domain.TutorData{
		Key: domain.NaturalKey{
			DocType:   docType,
			DocNumber: row.Get(domain.ColTutorDocNumber),
		},
		Names:       row.Get(domain.ColTutorNames),
		Surnames:    row.Get(domain.ColTutorSurnames),
		Phone:       row.Get(domain.ColTutorPhone),
		Email:       row.Get(domain.ColTutorEmail),
		Institution: row.Get(domain.ColTutorInstitution),
		Profession:  row.Get(domain.ColTutorProfession),
	}
	return tutor, issues
}
