package enrollmentdomain

// Column names of the enrollment spreadsheet header contract. The row source
// verifies the header before the pipeline runs; the pipeline assumes every
// column key below is present in each RawRow (possibly empty).
const (
	ColParticipationType = "TIPO_PARTICIPACION"
	ColAreaCode          = "AREA_CODIGO"
	ColAreaName          = "AREA_NOMBRE"
	ColLevelCode         = "NIVEL_CODIGO"
	ColLevelName         = "NIVEL_NOMBRE"

	ColStudentDocType     = "EST_TIPO_DOC"
	ColStudentDocNumber   = "EST_NRO_DOC"
	ColStudentNames       = "EST_NOMBRES"
	ColStudentSurname1    = "EST_APELLIDO_PATERNO"
	ColStudentSurname2    = "EST_APELLIDO_MATERNO"
	ColStudentInstitution = "EST_INSTITUCION"
	ColStudentDepartment  = "EST_DEPARTAMENTO"
	ColStudentGrade       = "EST_GRADO"
	ColStudentBirthDate   = "EST_FECHA_NAC"
	ColStudentSex         = "EST_SEXO"
	ColStudentEmail       = "EST_EMAIL"

	ColTutorDocType     = "TUT_TIPO_DOC"
	ColTutorDocNumber   = "TUT_NRO_DOC"
	ColTutorNames       = "TUT_NOMBRES"
	ColTutorSurnames    = "TUT_APELLIDOS"
	ColTutorPhone       = "TUT_TELEFONO"
	ColTutorEmail       = "TUT_EMAIL"
	ColTutorInstitution = "TUT_INSTITUCION"
	ColTutorProfession  = "TUT_PROFESION"

	ColTeamName = "EQUIPO_NOMBRE"
	ColTeamRole = "EQUIPO_ROL"
)

// Columns lists every column of the header contract, in canonical order.
var Columns = []string{
	ColParticipationType,
	ColAreaCode, ColAreaName, ColLevelCode, ColLevelName,
	ColStudentDocType, ColStudentDocNumber, ColStudentNames,
	ColStudentSurname1, ColStudentSurname2, ColStudentInstitution,
	ColStudentDepartment, ColStudentGrade, ColStudentBirthDate,
	ColStudentSex, ColStudentEmail,
	ColTutorDocType, ColTutorDocNumber, ColTutorNames, ColTutorSurnames,
	ColTutorPhone, ColTutorEmail, ColTutorInstitution, ColTutorProfession,
	ColTeamName, ColTeamRole,
}

// RawRow is one spreadsheet row exactly as read: column name to cell text.
// Row is the 1-based spreadsheet row number (the header is row 1, so data
// rows start at 2); it is carried through every stage so issues can point
// back at the submitted file.
type RawRow struct {
	Row    int
	Fields map[string]string
}

// NormalizedRow is a RawRow after trimming, placeholder clearing, case
// folding and length capping. It is immutable once built; stages after the
// normalizer only read it.
type NormalizedRow struct {
	Row    int
	fields map[string]string
}

// NewNormalizedRow builds a NormalizedRow taking ownership of fields.
func NewNormalizedRow(row int, fields map[string]string) NormalizedRow {
	return NormalizedRow{Row: row, fields: fields}
}

// Get returns the normalized value of a column, or "" when absent.
func (r NormalizedRow) Get(col string) string {
	return r.fields[col]
}

// Fields returns a copy of the underlying field map.
func (r NormalizedRow) Fields() map[string]string {
	out := make(map[string]string, len(r.fields))
	for k, v := range r.fields {
		out[k] = v
	}
	return out
}
