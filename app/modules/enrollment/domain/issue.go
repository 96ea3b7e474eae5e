package enrollmentdomain

import "fmt"

// Severity splits issues into blocking errors and informative warnings.
type Severity string

const (
	SeverityError   Severity = "ERROR"
	SeverityWarning Severity = "WARNING"
)

// IssueCode is a stable, machine-readable identifier of one rule violation.
// Codes never change meaning between releases; clients key on them.
type IssueCode string

// Blocking error codes.
const (
	ErrBadParticipationType IssueCode = "E-OLI-TIPO-001"
	ErrAreaUnresolved       IssueCode = "E-OLI-AREA-001"
	ErrAreaConflict         IssueCode = "E-OLI-AREA-002"
	ErrLevelUnresolved      IssueCode = "E-OLI-NIVEL-001"
	ErrLevelConflict        IssueCode = "E-OLI-NIVEL-002"

	ErrStudentDocType    IssueCode = "E-EST-DOC-001"
	ErrStudentRequired   IssueCode = "E-EST-REQ-001"
	ErrStudentDepartment IssueCode = "E-EST-DEPTO-001"
	ErrStudentBirthDate  IssueCode = "E-EST-FECHA-001"
	ErrStudentSex        IssueCode = "E-EST-SEXO-001"
	ErrStudentEmail      IssueCode = "E-EST-EMAIL-001"

	ErrTutorDocType  IssueCode = "E-TUT-DOC-001"
	ErrTutorRequired IssueCode = "E-TUT-REQ-001"
	ErrTutorPhone    IssueCode = "E-TUT-TEL-001"
	ErrTutorEmail    IssueCode = "E-TUT-EMAIL-001"

	ErrIndividualHasTeamFields IssueCode = "E-OLI-CRUZ-001"
	ErrTeamFieldsMissing       IssueCode = "E-OLI-CRUZ-002"
	ErrBadTeamRole             IssueCode = "E-OLI-ROL-001"

	ErrDuplicateIndividual  IssueCode = "E-OLI-DUP-001"
	ErrEmailOwnedByOther    IssueCode = "E-OLI-EMAIL-UNQ-001"
	ErrCategoryUnavailable  IssueCode = "E-OLI-CAT-001"

	ErrTeamHeterogeneous   IssueCode = "E-EQP-AREA-001"
	ErrTeamBelowMinimum    IssueCode = "E-EQP-MIN-001"
	ErrDuplicateTeam       IssueCode = "E-EQP-DUP-001"
	ErrMemberAlreadyInTeam IssueCode = "E-EQP-MIEM-001"
)

// Warning codes.
const (
	WarnFieldTruncated      IssueCode = "W-NORM-TRUNC-001"
	WarnStudentReused       IssueCode = "W-EST-REUSE-001"
	WarnTutorReused         IssueCode = "W-TUT-REUSE-001"
	WarnDuplicateMemberKept IssueCode = "W-MIEM-DUP-KEEP-001"
	WarnGradeFormat         IssueCode = "W-EST-GRADO-001"
	WarnLeaderPromoted      IssueCode = "W-EQP-LIDER-001"
)

// Issue is one validation finding for one row. Issues are plain data; they
// are accumulated, never thrown, and survive into the final ImportSummary.
type Issue struct {
	Row      int       `json:"fila"`
	Severity Severity  `json:"severidad"`
	Code     IssueCode `json:"codigo"`
	Column   string    `json:"columna,omitempty"`
	Value    string    `json:"valor,omitempty"`
	Message  string    `json:"mensaje"`
	Subject  string    `json:"sujeto"`
}

// IsError reports whether the issue blocks persistence of its row.
func (i Issue) IsError() bool {
	return i.Severity == SeverityError
}

// NewError builds a blocking Issue.
func NewError(row int, code IssueCode, subject, message string) Issue {
	return Issue{Row: row, Severity: SeverityError, Code: code, Subject: subject, Message: message}
}

// NewFieldError builds a blocking Issue tied to one column and its value.
func NewFieldError(row int, code IssueCode, subject, column, value, message string) Issue {
	i := NewError(row, code, subject, message)
	i.Column = column
	i.Value = value
	return i
}

// NewWarning builds a non-blocking Issue.
func NewWarning(row int, code IssueCode, subject, message string) Issue {
	return Issue{Row: row, Severity: SeverityWarning, Code: code, Subject: subject, Message: message}
}

// NewFieldWarning builds a non-blocking Issue tied to one column and value.
func NewFieldWarning(row int, code IssueCode, subject, column, value, message string) Issue {
	i := NewWarning(row, code, subject, message)
	i.Column = column
	i.Value = value
	return i
}

// HasError reports whether any issue in the slice is blocking.
func HasError(issues []Issue) bool {
	for _, i := range issues {
		if i.IsError() {
			return true
		}
	}
	return false
}

func rowLabel(row int) string {
	return fmt.Sprintf("fila %d", row)
}

// RowLabel is the fallback subject label when no name is available.
func RowLabel(row int) string {
	return rowLabel(row)
}
