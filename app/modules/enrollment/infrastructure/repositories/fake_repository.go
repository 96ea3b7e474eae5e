package enrollmentdb

import (
	"context"

	"github.com/uptrace/bun"

	domain "github.com/oh-sansi/olympiad-backend/app/modules/enrollment/domain"
)

// FakeRepository is a fake implementation of Repository for testing.
type FakeRepository struct {
	FindStudentByKeyFn   func(ctx context.Context, db bun.IDB, key domain.NaturalKey) (*Student, error)
	FindStudentByEmailFn func(ctx context.Context, db bun.IDB, email string) (*Student, error)
	CreateStudentFn      func(ctx context.Context, db bun.IDB, student *Student) error
	AttachTutorFn        func(ctx context.Context, db bun.IDB, studentID, tutorID int64) error

	FindTutorByKeyFn func(ctx context.Context, db bun.IDB, key domain.NaturalKey) (*Tutor, error)
	CreateTutorFn    func(ctx context.Context, db bun.IDB, tutor *Tutor) error

	FindTeamByNameFn   func(ctx context.Context, db bun.IDB, name string) (*Team, error)
	CreateTeamFn       func(ctx context.Context, db bun.IDB, team *Team) error
	IsTeamMemberFn     func(ctx context.Context, db bun.IDB, teamID, studentID int64) (bool, error)
	CreateTeamMemberFn func(ctx context.Context, db bun.IDB, member *TeamMember) error

	StudentParticipationExistsFn func(ctx context.Context, db bun.IDB, studentID, areaID, levelID int64) (bool, error)
	TeamParticipationExistsFn    func(ctx context.Context, db bun.IDB, teamID, areaID, levelID int64) (bool, error)
	CreateParticipationFn        func(ctx context.Context, db bun.IDB, participation *Participation) error
}

func (f *FakeRepository) FindStudentByKey(ctx context.Context, db bun.IDB, key domain.NaturalKey) (*Student, error) {
	if f.FindStudentByKeyFn != nil {
		return f.FindStudentByKeyFn(ctx, db, key)
	}
	return nil, ErrStudentNotFound
}

func (f *FakeRepository) FindStudentByEmail(ctx context.Context, db bun.IDB, email string) (*Student, error) {
	if f.FindStudentByEmailFn != nil {
		return f.FindStudentByEmailFn(ctx, db, email)
	}
	return nil, ErrStudentNotFound
}

func (f *FakeRepository) CreateStudent(ctx context.Context, db bun.IDB, student *Student) error {
	if f.CreateStudentFn != nil {
		return f.CreateStudentFn(ctx, db, student)
	}
	return nil
}

func (f *FakeRepository) AttachTutor(ctx context.Context, db bun.IDB, studentID, tutorID int64) error {
	if f.AttachTutorFn != nil {
		return f.AttachTutorFn(ctx, db, studentID, tutorID)
	}
	return nil
}

func (f *FakeRepository) FindTutorByKey(ctx context.Context, db bun.IDB, key domain.NaturalKey) (*Tutor, error) {
	if f.FindTutorByKeyFn != nil {
		return f.FindTutorByKeyFn(ctx, db, key)
	}
	return nil, ErrTutorNotFound
}

func (f *FakeRepository) CreateTutor(ctx context.Context, db bun.IDB, tutor *Tutor) error {
	if f.CreateTutorFn != nil {
		return f.CreateTutorFn(ctx, db, tutor)
	}
	return nil
}

func (f *FakeRepository) FindTeamByName(ctx context.Context, db bun.IDB, name string) (*Team, error) {
	if f.FindTeamByNameFn != nil {
		return f.FindTeamByNameFn(ctx, db, name)
	}
	return nil, ErrTeamNotFound
}

func (f *FakeRepository) CreateTeam(ctx context.Context, db bun.IDB, team *Team) error {
	if f.CreateTeamFn != nil {
		return f.CreateTeamFn(ctx, db, team)
	}
	return nil
}

func (f *FakeRepository) IsTeamMember(ctx context.Context, db bun.IDB, teamID, studentID int64) (bool, error) {
	if f.IsTeamMemberFn != nil {
		return f.IsTeamMemberFn(ctx, db, teamID, studentID)
	}
	return false, nil
}

func (f *FakeRepository) CreateTeamMember(ctx context.Context, db bun.IDB, member *TeamMember) error {
	if f.CreateTeamMemberFn != nil {
		return f.CreateTeamMemberFn(ctx, db, member)
	}
	return nil
}

func (f *FakeRepository) StudentParticipationExists(ctx context.Context, db bun.IDB, studentID, areaID, levelID int64) (bool, error) {
	if f.StudentParticipationExistsFn != nil {
		return f.StudentParticipationExistsFn(ctx, db, studentID, areaID, levelID)
	}
	return false, nil
}

func (f *FakeRepository) TeamParticipationExists(ctx context.Context, db bun.IDB, teamID, areaID, levelID int64) (bool, error) {
	if f.TeamParticipationExistsFn != nil {
		return f.TeamParticipationExistsFn(ctx, db, teamID, areaID, levelID)
	}
	return false, nil
}

func (f *FakeRepository) CreateParticipation(ctx context.Context, db bun.IDB, participation *Participation) error {
	if f.CreateParticipationFn != nil {
		return f.CreateParticipationFn(ctx, db, participation)
	}
	return nil
}
