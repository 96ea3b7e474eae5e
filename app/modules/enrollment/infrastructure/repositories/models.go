package enrollmentdb

import (
	"time"

	"github.com/uptrace/bun"

	domain "github.com/oh-sansi/olympiad-backend/app/modules/enrollment/domain"
)

// Student is a persisted competitor. The natural key is (doc_type,
// doc_number); email is globally unique. Attributes are never overwritten by
// the import pipeline once persisted.
type Student struct {
	bun.BaseModel `bun:"table:students,alias:s"`
	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	DocType       string    `bun:"doc_type,notnull" json:"doc_type"`
	DocNumber     string    `bun:"doc_number,notnull" json:"doc_number"`
	Names         string    `bun:"names,notnull" json:"names"`
	Surname1      string    `bun:"surname1,notnull" json:"surname1"`
	Surname2      string    `bun:"surname2,nullzero" json:"surname2,omitempty"`
	Institution   string    `bun:"institution,notnull" json:"institution"`
	Department    string    `bun:"department,nullzero" json:"department,omitempty"`
	Grade         string    `bun:"grade,nullzero" json:"grade,omitempty"`
	BirthDate     string    `bun:"birth_date,nullzero" json:"birth_date,omitempty"`
	Sex           string    `bun:"sex,nullzero" json:"sex,omitempty"`
	Email         string    `bun:"email,nullzero" json:"email,omitempty"`
	Active        bool      `bun:"active,notnull,default:true" json:"active"`
	TutorID       *int64    `bun:"tutor_id,nullzero" json:"tutor_id,omitempty"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`

	Tutor *Tutor `bun:"rel:belongs-to,join:tutor_id=id" json:"-"`
}

// Key returns the student's natural key.
func (s *Student) Key() domain.NaturalKey {
	return domain.NaturalKey{DocType: domain.DocumentType(s.DocType), DocNumber: s.DocNumber}
}

// Tutor is a persisted legal guardian or teacher responsible for students.
type Tutor struct {
	bun.BaseModel `bun:"table:tutors,alias:t"`
	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	DocType       string    `bun:"doc_type,notnull" json:"doc_type"`
	DocNumber     string    `bun:"doc_number,notnull" json:"doc_number"`
	Names         string    `bun:"names,notnull" json:"names"`
	Surnames      string    `bun:"surnames,notnull" json:"surnames"`
	Phone         string    `bun:"phone,nullzero" json:"phone,omitempty"`
	Email         string    `bun:"email,nullzero" json:"email,omitempty"`
	Institution   string    `bun:"institution,nullzero" json:"institution,omitempty"`
	Profession    string    `bun:"profession,nullzero" json:"profession,omitempty"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

// Key returns the tutor's natural key.
func (t *Tutor) Key() domain.NaturalKey {
	return domain.NaturalKey{DocType: domain.DocumentType(t.DocType), DocNumber: t.DocNumber}
}

// Team is a persisted team, unique by name.
type Team struct {
	bun.BaseModel `bun:"table:teams,alias:tm"`
	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	Name          string    `bun:"name,unique,notnull" json:"name"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`

	Members []*TeamMember `bun:"rel:has-many,join:id=team_id" json:"-"`
}

// TeamMember links a student to a team with a role. Position preserves the
// first-seen row order of the submitted batch.
type TeamMember struct {
	bun.BaseModel `bun:"table:team_members,alias:tmm"`
	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	TeamID        int64     `bun:"team_id,notnull" json:"team_id"`
	StudentID     int64     `bun:"student_id,notnull" json:"student_id"`
	Role          string    `bun:"role,notnull" json:"role"`
	Position      int       `bun:"position,notnull" json:"position"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`

	Team    *Team    `bun:"rel:belongs-to,join:team_id=id" json:"-"`
	Student *Student `bun:"rel:belongs-to,join:student_id=id" json:"-"`
}

// Participation links exactly one student or one team to an (area, level)
// pair. Unique per subject + area + level.
type Participation struct {
	bun.BaseModel `bun:"table:participations,alias:p"`
	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	StudentID     *int64    `bun:"student_id,nullzero" json:"student_id,omitempty"`
	TeamID        *int64    `bun:"team_id,nullzero" json:"team_id,omitempty"`
	AreaID        int64     `bun:"area_id,notnull" json:"area_id"`
	LevelID       int64     `bun:"level_id,notnull" json:"level_id"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}
