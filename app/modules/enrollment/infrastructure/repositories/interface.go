package enrollmentdb

import (
	"context"

	"github.com/uptrace/bun"

	domain "github.com/oh-sansi/olympiad-backend/app/modules/enrollment/domain"
)

// Repository is the enrollment store. Every method takes a bun.IDB so the
// writer can thread one transaction through every lookup and insert of a
// unit; pass the plain *bun.DB for standalone reads.
type Repository interface {
	FindStudentByKey(ctx context.Context, db bun.IDB, key domain.NaturalKey) (*Student, error)
	FindStudentByEmail(ctx context.Context, db bun.IDB, email string) (*Student, error)
	CreateStudent(ctx context.Context, db bun.IDB, student *Student) error
	AttachTutor(ctx context.Context, db bun.IDB, studentID, tutorID int64) error

	FindTutorByKey(ctx context.Context, db bun.IDB, key domain.NaturalKey) (*Tutor, error)
	CreateTutor(ctx context.Context, db bun.IDB, tutor *Tutor) error

	FindTeamByName(ctx context.Context, db bun.IDB, name string) (*Team, error)
	CreateTeam(ctx context.Context, db bun.IDB, team *Team) error
	IsTeamMember(ctx context.Context, db bun.IDB, teamID, studentID int64) (bool, error)
	CreateTeamMember(ctx context.Context, db bun.IDB, member *TeamMember) error

	StudentParticipationExists(ctx context.Context, db bun.IDB, studentID, areaID, levelID int64) (bool, error)
	TeamParticipationExists(ctx context.Context, db bun.IDB, teamID, areaID, levelID int64) (bool, error)
	CreateParticipation(ctx context.Context, db bun.IDB, participation *Participation) error
}
