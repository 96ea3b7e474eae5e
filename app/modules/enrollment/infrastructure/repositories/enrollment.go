package enrollmentdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	domain "github.com/oh-sansi/olympiad-backend/app/modules/enrollment/domain"
)

// EnrollmentDBImpl is the bun-backed enrollment repository.
type EnrollmentDBImpl struct{}

// NewRepository returns the bun-backed enrollment repository.
func NewRepository() *EnrollmentDBImpl {
	return &EnrollmentDBImpl{}
}

// FindStudentByKey looks a student up by natural key.
func (r *EnrollmentDBImpl) FindStudentByKey(ctx context.Context, db bun.IDB, key domain.NaturalKey) (*Student, error) {
	student := &Student{}
	err := db.NewSelect().
		Model(student).
		Where("doc_type = ? AND doc_number = ?", string(key.DocType), key.DocNumber).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("failed to find student by key: %w", err)
	}
	return student, nil
}

// FindStudentByEmail looks a student up by email, used by the uniqueness
// guard. Must run inside the same transaction as the eventual insert.
func (r *EnrollmentDBImpl) FindStudentByEmail(ctx context.Context, db bun.IDB, email string) (*Student, error) {
	student := &Student{}
	err := db.NewSelect().
		Model(student).
		Where("LOWER(email) = LOWER(?)", email).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("failed to find student by email: %w", err)
	}
	return student, nil
}

// CreateStudent inserts a new student. Concurrent units may race on the
// natural key or the email index; a lost race returns ErrDuplicateKey
// without aborting the transaction.
func (r *EnrollmentDBImpl) CreateStudent(ctx context.Context, db bun.IDB, student *Student) error {
	res, err := db.NewInsert().
		Model(student).
		On("CONFLICT DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create student: %w", err)
	}
	return duplicateKeyOnNoRows(res, "student")
}

// AttachTutor sets the tutor reference of a student only when it is missing.
// Existing references are never replaced.
func (r *EnrollmentDBImpl) AttachTutor(ctx context.Context, db bun.IDB, studentID, tutorID int64) error {
	_, err := db.NewUpdate().
		Model((*Student)(nil)).
		Set("tutor_id = ?", tutorID).
		Where("id = ? AND tutor_id IS NULL", studentID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to attach tutor to student: %w", err)
	}
	return nil
}

// FindTutorByKey looks a tutor up by natural key.
func (r *EnrollmentDBImpl) FindTutorByKey(ctx context.Context, db bun.IDB, key domain.NaturalKey) (*Tutor, error) {
	tutor := &Tutor{}
	err := db.NewSelect().
		Model(tutor).
		Where("doc_type = ? AND doc_number = ?", string(key.DocType), key.DocNumber).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTutorNotFound
		}
		return nil, fmt.Errorf("failed to find tutor by key: %w", err)
	}
	return tutor, nil
}

// CreateTutor inserts a new tutor. A lost race on the natural key returns
// ErrDuplicateKey without aborting the transaction.
func (r *EnrollmentDBImpl) CreateTutor(ctx context.Context, db bun.IDB, tutor *Tutor) error {
	res, err := db.NewInsert().
		Model(tutor).
		On("CONFLICT DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create tutor: %w", err)
	}
	return duplicateKeyOnNoRows(res, "tutor")
}

// FindTeamByName looks a team up by its unique name.
func (r *EnrollmentDBImpl) FindTeamByName(ctx context.Context, db bun.IDB, name string) (*Team, error) {
	team := &Team{}
	err := db.NewSelect().
		Model(team).
		Where("name = ?", name).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to find team by name: %w", err)
	}
	return team, nil
}

// CreateTeam inserts a new team. A lost race on the unique name returns
// ErrDuplicateKey without aborting the transaction.
func (r *EnrollmentDBImpl) CreateTeam(ctx context.Context, db bun.IDB, team *Team) error {
	res, err := db.NewInsert().
		Model(team).
		On("CONFLICT DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create team: %w", err)
	}
	return duplicateKeyOnNoRows(res, "team")
}

// IsTeamMember reports whether the student already belongs to the team.
func (r *EnrollmentDBImpl) IsTeamMember(ctx context.Context, db bun.IDB, teamID, studentID int64) (bool, error) {
	exists, err := db.NewSelect().
		Model((*TeamMember)(nil)).
		Where("team_id = ? AND student_id = ?", teamID, studentID).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check team membership: %w", err)
	}
	return exists, nil
}

// CreateTeamMember inserts a new membership.
func (r *EnrollmentDBImpl) CreateTeamMember(ctx context.Context, db bun.IDB, member *TeamMember) error {
	if _, err := db.NewInsert().Model(member).Exec(ctx); err != nil {
		return fmt.Errorf("failed to create team member: %w", err)
	}
	return nil
}

// StudentParticipationExists reports whether the student already has a
// participation for the (area, level) pair.
func (r *EnrollmentDBImpl) StudentParticipationExists(ctx context.Context, db bun.IDB, studentID, areaID, levelID int64) (bool, error) {
	exists, err := db.NewSelect().
		Model((*Participation)(nil)).
		Where("student_id = ? AND area_id = ? AND level_id = ?", studentID, areaID, levelID).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check student participation: %w", err)
	}
	return exists, nil
}

// TeamParticipationExists reports whether the team already has a
// participation for the (area, level) pair.
func (r *EnrollmentDBImpl) TeamParticipationExists(ctx context.Context, db bun.IDB, teamID, areaID, levelID int64) (bool, error) {
	exists, err := db.NewSelect().
		Model((*Participation)(nil)).
		Where("team_id = ? AND area_id = ? AND level_id = ?", teamID, areaID, levelID).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check team participation: %w", err)
	}
	return exists, nil
}

// CreateParticipation inserts a new participation.
func (r *EnrollmentDBImpl) CreateParticipation(ctx context.Context, db bun.IDB, participation *Participation) error {
	if _, err := db.NewInsert().Model(participation).Exec(ctx); err != nil {
		return fmt.Errorf("failed to create participation: %w", err)
	}
	return nil
}

func duplicateKeyOnNoRows(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read insert result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s already exists: %w", what, ErrDuplicateKey)
	}
	return nil
}
