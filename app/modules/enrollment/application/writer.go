package enrollmentservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/uptrace/bun"

	domain "github.com/oh-sansi/olympiad-backend/app/modules/enrollment/domain"
	enrollmentdb "github.com/oh-sansi/olympiad-backend/app/modules/enrollment/infrastructure/repositories"
)

// errUnitRejected signals a business rejection inside a unit transaction so
// RunInTx rolls back every write of the unit. It never escapes the writer.
var errUnitRejected = errors.New("enrollment unit rejected")

// txBeginner is the slice of bun.DB the writer needs; *bun.DB implements it.
type txBeginner interface {
	RunInTx(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context, tx bun.Tx) error) error
}

// Writer persists validated candidates. Each individual and each team is one
// all-or-nothing transaction; a business rejection rolls back the unit and
// is reported as issues, while infrastructure failures propagate and abort
// the run.
type Writer struct {
	repo   enrollmentdb.Repository
	db     txBeginner
	logger *slog.Logger
}

// NewWriter creates a reconciliation writer. db may be nil in tests; the
// repository fakes then receive a nil bun.IDB.
func NewWriter(repo enrollmentdb.Repository, db txBeginner, logger *slog.Logger) *Writer {
	return &Writer{repo: repo, db: db, logger: logger}
}

func (w *Writer) runInTx(ctx context.Context, fn func(ctx context.Context, tx bun.IDB) error) error {
	if w.db == nil {
		return fn(ctx, nil)
	}
	return w.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, tx)
	})
}

// WriteIndividual persists one individual candidate: email guard, student
// and tutor reconciliation, participation insert. Returns the accumulated
// issues and whether the participation was inserted.
func (w *Writer) WriteIndividual(ctx context.Context, cand domain.Candidate) ([]domain.Issue, bool, error) {
	var issues []domain.Issue

	err := w.runInTx(ctx, func(ctx context.Context, tx bun.IDB) error {
		student, resIssues, err := w.resolveStudent(ctx, tx, cand)
		issues = append(issues, resIssues...)
		if err != nil {
			return err
		}

		_, tutIssues, err := w.resolveTutor(ctx, tx, cand, student)
		issues = append(issues, tutIssues...)
		if err != nil {
			return err
		}

		exists, err := w.repo.StudentParticipationExists(ctx, tx, student.ID, cand.AreaID, cand.LevelID)
		if err != nil {
			return err
		}
		if exists {
			issues = append(issues, domain.NewError(
				cand.Row, domain.ErrDuplicateIndividual, cand.Subject(),
				"el estudiante ya tiene una inscripción para esta área y nivel",
			))
			return errUnitRejected
		}

		return w.repo.CreateParticipation(ctx, tx, &enrollmentdb.Participation{
			StudentID: &student.ID,
			AreaID:    cand.AreaID,
			LevelID:   cand.LevelID,
		})
	})

	if errors.Is(err, errUnitRejected) {
		return issues, false, nil
	}
	if err != nil {
		return issues, false, fmt.Errorf("failed to write individual enrollment: %w", err)
	}

	w.logger.InfoContext(ctx, "individual enrollment persisted",
		slog.Int("row", cand.Row),
		slog.String("student", cand.Student.Key.String()),
	)
	return issues, true, nil
}

// WriteTeam persists one accepted team group as a single transaction. On a
// business rejection no write of the unit survives; reason carries the
// summary text for the rejected-teams list.
func (w *Writer) WriteTeam(ctx context.Context, group domain.TeamGroup) (issues []domain.Issue, membersInserted int, reason string, err error) {
	err = w.runInTx(ctx, func(ctx context.Context, tx bun.IDB) error {
		team, err := w.repo.FindTeamByName(ctx, tx, group.Name)
		if errors.Is(err, enrollmentdb.ErrTeamNotFound) {
			team = &enrollmentdb.Team{Name: group.Name}
			if cerr := w.repo.CreateTeam(ctx, tx, team); errors.Is(cerr, enrollmentdb.ErrDuplicateKey) {
				// A concurrent run created the team first; reuse it.
				if team, cerr = w.repo.FindTeamByName(ctx, tx, group.Name); cerr != nil {
					return cerr
				}
			} else if cerr != nil {
				return cerr
			}
		} else if err != nil {
			return err
		}

		exists, err := w.repo.TeamParticipationExists(ctx, tx, team.ID, group.AreaID, group.LevelID)
		if err != nil {
			return err
		}
		if exists {
			reason = "el equipo ya tiene una inscripción para esta área y nivel"
			for _, m := range group.Members {
				issues = append(issues, domain.NewError(
					m.Row, domain.ErrDuplicateTeam, m.Subject(),
					fmt.Sprintf("el equipo %q ya está inscrito en esta área y nivel", group.Name),
				))
			}
			return errUnitRejected
		}

		for i, m := range group.Members {
			student, resIssues, err := w.resolveStudent(ctx, tx, m)
			issues = append(issues, resIssues...)
			if err != nil {
				if errors.Is(err, errUnitRejected) {
					reason = fmt.Sprintf("fila %d rechazada", m.Row)
				}
				return err
			}

			_, tutIssues, err := w.resolveTutor(ctx, tx, m, student)
			issues = append(issues, tutIssues...)
			if err != nil {
				return err
			}

			member, err := w.repo.IsTeamMember(ctx, tx, team.ID, student.ID)
			if err != nil {
				return err
			}
			if member {
				reason = fmt.Sprintf("%s ya pertenece al equipo", m.Subject())
				issues = append(issues, domain.NewError(
					m.Row, domain.ErrMemberAlreadyInTeam, m.Subject(),
					fmt.Sprintf("el estudiante ya pertenece al equipo %q", group.Name),
				))
				return errUnitRejected
			}

			if err := w.repo.CreateTeamMember(ctx, tx, &enrollmentdb.TeamMember{
				TeamID:    team.ID,
				StudentID: student.ID,
				Role:      string(m.Role),
				Position:  i,
			}); err != nil {
				return err
			}
		}

		return w.repo.CreateParticipation(ctx, tx, &enrollmentdb.Participation{
			TeamID:  &team.ID,
			AreaID:  group.AreaID,
			LevelID: group.LevelID,
		})
	})

	if errors.Is(err, errUnitRejected) {
		return issues, 0, reason, nil
	}
	if err != nil {
		return issues, 0, "", fmt.Errorf("failed to write team %q: %w", group.Name, err)
	}

	w.logger.InfoContext(ctx, "team enrollment persisted",
		slog.String("team", group.Name),
		slog.Int("members", len(group.Members)),
	)
	return issues, len(group.Members), "", nil
}

// resolveStudent finds or creates the candidate's student. Existing records
// are reused as-is: attribute divergence only produces a warning, and the
// tutor reference is the only thing that may still be attached later. The
// email-uniqueness guard runs here, inside the unit transaction, so the
// check and the insert share one consistency scope.
func (w *Writer) resolveStudent(ctx context.Context, tx bun.IDB, cand domain.Candidate) (*enrollmentdb.Student, []domain.Issue, error) {
	var issues []domain.Issue

	if cand.Student.Email != "" {
		owner, err := w.repo.FindStudentByEmail(ctx, tx, cand.Student.Email)
		if err != nil && !errors.Is(err, enrollmentdb.ErrStudentNotFound) {
			return nil, issues, err
		}
		if owner != nil && owner.Key() != cand.Student.Key {
			issues = append(issues, domain.NewFieldError(
				cand.Row, domain.ErrEmailOwnedByOther, cand.Subject(),
				domain.ColStudentEmail, cand.Student.Email,
				"el correo ya pertenece a otro estudiante registrado",
			))
			return nil, issues, errUnitRejected
		}
	}

	existing, err := w.repo.FindStudentByKey(ctx, tx, cand.Student.Key)
	if err != nil && !errors.Is(err, enrollmentdb.ErrStudentNotFound) {
		return nil, issues, err
	}
	if existing != nil {
		if diverging := studentDivergence(existing, cand.Student); len(diverging) > 0 {
			issues = append(issues, domain.NewWarning(
				cand.Row, domain.WarnStudentReused, cand.Subject(),
				fmt.Sprintf("estudiante ya registrado, se reutiliza sin modificar (difiere: %s)",
					strings.Join(diverging, ", ")),
			))
		}
		return existing, issues, nil
	}

	student := &enrollmentdb.Student{
		DocType:     string(cand.Student.Key.DocType),
		DocNumber:   cand.Student.Key.DocNumber,
		Names:       cand.Student.Names,
		Surname1:    cand.Student.Surname1,
		Surname2:    cand.Student.Surname2,
		Institution: cand.Student.Institution,
		Department:  cand.Student.Department,
		Grade:       cand.Student.Grade,
		BirthDate:   cand.Student.BirthDate,
		Sex:         cand.Student.Sex,
		Email:       cand.Student.Email,
		Active:      true,
	}
	err = w.repo.CreateStudent(ctx, tx, student)
	if err == nil {
		return student, issues, nil
	}
	if !errors.Is(err, enrollmentdb.ErrDuplicateKey) {
		return nil, issues, err
	}

	// A concurrent unit created the same student between the lookup and the
	// insert. Reuse whatever won; when the key still misses, the conflict was
	// the email index and the email belongs to a different student.
	winner, ferr := w.repo.FindStudentByKey(ctx, tx, cand.Student.Key)
	if errors.Is(ferr, enrollmentdb.ErrStudentNotFound) {
		issues = append(issues, domain.NewFieldError(
			cand.Row, domain.ErrEmailOwnedByOther, cand.Subject(),
			domain.ColStudentEmail, cand.Student.Email,
			"el correo ya pertenece a otro estudiante registrado",
		))
		return nil, issues, errUnitRejected
	}
	if ferr != nil {
		return nil, issues, ferr
	}
	if diverging := studentDivergence(winner, cand.Student); len(diverging) > 0 {
		issues = append(issues, domain.NewWarning(
			cand.Row, domain.WarnStudentReused, cand.Subject(),
			fmt.Sprintf("estudiante ya registrado, se reutiliza sin modificar (difiere: %s)",
				strings.Join(diverging, ", ")),
		))
	}
	return winner, issues, nil
}

// resolveTutor finds or creates the candidate's tutor and attaches it to the
// student only when the student has none.
func (w *Writer) resolveTutor(ctx context.Context, tx bun.IDB, cand domain.Candidate, student *enrollmentdb.Student) (*enrollmentdb.Tutor, []domain.Issue, error) {
	var issues []domain.Issue

	existing, err := w.repo.FindTutorByKey(ctx, tx, cand.Tutor.Key)
	if err != nil && !errors.Is(err, enrollmentdb.ErrTutorNotFound) {
		return nil, issues, err
	}

	tutor := existing
	if tutor == nil {
		tutor = &enrollmentdb.Tutor{
			DocType:     string(cand.Tutor.Key.DocType),
			DocNumber:   cand.Tutor.Key.DocNumber,
			Names:       cand.Tutor.Names,
			Surnames:    cand.Tutor.Surnames,
			Phone:       cand.Tutor.Phone,
			Email:       cand.Tutor.Email,
			Institution: cand.Tutor.Institution,
			Profession:  cand.Tutor.Profession,
		}
		if cerr := w.repo.CreateTutor(ctx, tx, tutor); errors.Is(cerr, enrollmentdb.ErrDuplicateKey) {
			// A concurrent unit registered the same tutor first; reuse it.
			winner, ferr := w.repo.FindTutorByKey(ctx, tx, cand.Tutor.Key)
			if ferr != nil {
				return nil, issues, ferr
			}
			tutor = winner
			if diverging := tutorDivergence(winner, cand.Tutor); len(diverging) > 0 {
				issues = append(issues, domain.NewWarning(
					cand.Row, domain.WarnTutorReused, cand.Subject(),
					fmt.Sprintf("tutor ya registrado, se reutiliza sin modificar (difiere: %s)",
						strings.Join(diverging, ", ")),
				))
			}
		} else if cerr != nil {
			return nil, issues, cerr
		}
	} else if diverging := tutorDivergence(existing, cand.Tutor); len(diverging) > 0 {
		issues = append(issues, domain.NewWarning(
			cand.Row, domain.WarnTutorReused, cand.Subject(),
			fmt.Sprintf("tutor ya registrado, se reutiliza sin modificar (difiere: %s)",
				strings.Join(diverging, ", ")),
		))
	}

	if student.TutorID == nil {
		if err := w.repo.AttachTutor(ctx, tx, student.ID, tutor.ID); err != nil {
			return nil, issues, err
		}
		student.TutorID = &tutor.ID
	}

	return tutor, issues, nil
}

// studentDivergence lists the columns where the incoming row disagrees with
// the persisted student. The compared set is fixed; optional fields the row
// left empty are not counted as divergence.
func studentDivergence(existing *enrollmentdb.Student, incoming domain.StudentData) []string {
	var cols []string
	type cmp struct {
		col, stored, got string
	}
	for _, c := range []cmp{
		{domain.ColStudentNames, existing.Names, incoming.Names},
		{domain.ColStudentSurname1, existing.Surname1, incoming.Surname1},
		{domain.ColStudentSurname2, existing.Surname2, incoming.Surname2},
		{domain.ColStudentInstitution, existing.Institution, incoming.Institution},
		{domain.ColStudentBirthDate, existing.BirthDate, incoming.BirthDate},
		{domain.ColStudentEmail, existing.Email, incoming.Email},
	} {
		if c.got != "" && !strings.EqualFold(c.stored, c.got) {
			cols = append(cols, c.col)
		}
	}
	return cols
}

func tutorDivergence(existing *enrollmentdb.Tutor, incoming domain.TutorData) []string {
	var cols []string
	type cmp struct {
		col, stored, got string
	}
	for _, c := range []cmp{
		{domain.ColTutorNames, existing.Names, incoming.Names},
		{domain.ColTutorSurnames, existing.Surnames, incoming.Surnames},
		{domain.ColTutorPhone, existing.Phone, incoming.Phone},
		{domain.ColTutorEmail, existing.Email, incoming.Email},
	} {
		if c.got != "" && !strings.EqualFold(c.stored, c.got) {
			cols = append(cols, c.col)
		}
	}
	return cols
}
