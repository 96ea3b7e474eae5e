package enrollmentdomain

import "strings"

// ParticipationType distinguishes individual entries from team entries.
type ParticipationType string

const (
	ParticipationIndividual ParticipationType = "INDIVIDUAL"
	ParticipationTeam       ParticipationType = "EQUIPO"
)

// DocumentType is the identity document kind accepted for students and tutors.
type DocumentType string

const (
	DocumentCI       DocumentType = "CI"
	DocumentPassport DocumentType = "PASAPORTE"
	DocumentForeign  DocumentType = "EXTRANJERO"
)

// IsValid reports whether dt is one of the accepted document types.
func (dt DocumentType) IsValid() bool {
	switch dt {
	case DocumentCI, DocumentPassport, DocumentForeign:
		return true
	}
	return false
}

// TeamRole is the declared role of a team member row.
type TeamRole string

const (
	RoleLeader      TeamRole = "LIDER"
	RoleParticipant TeamRole = "PARTICIPANTE"
)

// IsValid reports whether r is a declared role.
func (r TeamRole) IsValid() bool {
	return r == RoleLeader || r == RoleParticipant
}

// NaturalKey identifies a person across runs.
type NaturalKey struct {
	DocType   DocumentType
	DocNumber string
}

func (k NaturalKey) String() string {
	return string(k.DocType) + ":" + k.DocNumber
}

// StudentData carries the validated student fields of one row. Optional
// fields are empty strings when the row did not provide them.
type StudentData struct {
	Key         NaturalKey
	Names       string
	Surname1    string
	Surname2    string
	Institution string
	Department  string
	Grade       string
	BirthDate   string // YYYY-MM-DD, empty when not given
	Sex         string
	Email       string
}

// FullName returns the display name used as the subject label of issues.
func (s StudentData) FullName() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{s.Names, s.Surname1, s.Surname2} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// TutorData carries the validated tutor fields of one row.
type TutorData struct {
	Key         NaturalKey
	Names       string
	Surnames    string
	Phone       string
	Email       string
	Institution string
	Profession  string
}

// Candidate is a validated intent to create a participation. It is a tagged
// union: Kind selects Individual or TeamMember; TeamName and Role are only
// meaningful for team members.
type Candidate struct {
	Kind    ParticipationType
	Row     int
	AreaID  int64
	LevelID int64
	Student StudentData
	Tutor   TutorData

	// Team member fields; zero for individuals.
	TeamName string
	Role     TeamRole
}

// Subject returns the human label used in consolidated messages: the
// student's name when known, otherwise the team name, otherwise the row.
func (c Candidate) Subject() string {
	if name := c.Student.FullName(); name != "" {
		return name
	}
	if c.TeamName != "" {
		return c.TeamName
	}
	return rowLabel(c.Row)
}
