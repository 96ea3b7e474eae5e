package enrollmentservice

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	domain "github.com/oh-sansi/olympiad-backend/app/modules/enrollment/domain"
	enrollmentdb "github.com/oh-sansi/olympiad-backend/app/modules/enrollment/infrastructure/repositories"
	"github.com/oh-sansi/olympiad-backend/internal/observability"
)

// memStore backs a FakeRepository with in-memory state so writer tests can
// assert on what got persisted. The mutex keeps it safe under the service's
// concurrent unit writes.
type memStore struct {
	mu             sync.Mutex
	students       map[domain.NaturalKey]*enrollmentdb.Student
	tutors         map[domain.NaturalKey]*enrollmentdb.Tutor
	teams          map[string]*enrollmentdb.Team
	members        []*enrollmentdb.TeamMember
	participations []*enrollmentdb.Participation
	nextID         int64
}

func newMemStore() *memStore {
	return &memStore{
		students: make(map[domain.NaturalKey]*enrollmentdb.Student),
		tutors:   make(map[domain.NaturalKey]*enrollmentdb.Tutor),
		teams:    make(map[string]*enrollmentdb.Team),
		nextID:   1,
	}
}

func (m *memStore) id() int64 {
	id := m.nextID
	m.nextID++
	return id
}

func (m *memStore) repo() *enrollmentdb.FakeRepository {
	return &enrollmentdb.FakeRepository{
		FindStudentByKeyFn: func(ctx context.Context, db bun.IDB, key domain.NaturalKey) (*enrollmentdb.Student, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			if s, ok := m.students[key]; ok {
				return s, nil
			}
			return nil, enrollmentdb.ErrStudentNotFound
		},
		FindStudentByEmailFn: func(ctx context.Context, db bun.IDB, email string) (*enrollmentdb.Student, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			for _, s := range m.students {
				if s.Email == email {
					return s, nil
				}
			}
			return nil, enrollmentdb.ErrStudentNotFound
		},
		CreateStudentFn: func(ctx context.Context, db bun.IDB, student *enrollmentdb.Student) error {
			m.mu.Lock()
			defer m.mu.Unlock()
			student.ID = m.id()
			m.students[student.Key()] = student
			return nil
		},
		AttachTutorFn: func(ctx context.Context, db bun.IDB, studentID, tutorID int64) error {
			m.mu.Lock()
			defer m.mu.Unlock()
			for _, s := range m.students {
				if s.ID == studentID && s.TutorID == nil {
					s.TutorID = &tutorID
				}
			}
			return nil
		},
		FindTutorByKeyFn: func(ctx context.Context, db bun.IDB, key domain.NaturalKey) (*enrollmentdb.Tutor, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			if tu, ok := m.tutors[key]; ok {
				return tu, nil
			}
			return nil, enrollmentdb.ErrTutorNotFound
		},
		CreateTutorFn: func(ctx context.Context, db bun.IDB, tutor *enrollmentdb.Tutor) error {
			m.mu.Lock()
			defer m.mu.Unlock()
			tutor.ID = m.id()
			m.tutors[tutor.Key()] = tutor
			return nil
		},
		FindTeamByNameFn: func(ctx context.Context, db bun.IDB, name string) (*enrollmentdb.Team, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			if tm, ok := m.teams[name]; ok {
				return tm, nil
			}
			return nil, enrollmentdb.ErrTeamNotFound
		},
		CreateTeamFn: func(ctx context.Context, db bun.IDB, team *enrollmentdb.Team) error {
			m.mu.Lock()
			defer m.mu.Unlock()
			team.ID = m.id()
			m.teams[team.Name] = team
			return nil
		},
		IsTeamMemberFn: func(ctx context.Context, db bun.IDB, teamID, studentID int64) (bool, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			for _, tm := range m.members {
				if tm.TeamID == teamID && tm.StudentID == studentID {
					return true, nil
				}
			}
			return false, nil
		},
		CreateTeamMemberFn: func(ctx context.Context, db bun.IDB, member *enrollmentdb.TeamMember) error {
			m.mu.Lock()
			defer m.mu.Unlock()
			member.ID = m.id()
			m.members = append(m.members, member)
			return nil
		},
		StudentParticipationExistsFn: func(ctx context.Context, db bun.IDB, studentID, areaID, levelID int64) (bool, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			for _, p := range m.participations {
				if p.StudentID != nil && *p.StudentID == studentID && p.AreaID == areaID && p.LevelID == levelID {
					return true, nil
				}
			}
			return false, nil
		},
		TeamParticipationExistsFn: func(ctx context.Context, db bun.IDB, teamID, areaID, levelID int64) (bool, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			for _, p := range m.participations {
				if p.TeamID != nil && *p.TeamID == teamID && p.AreaID == areaID && p.LevelID == levelID {
					return true, nil
				}
			}
			return false, nil
		},
		CreateParticipationFn: func(ctx context.Context, db bun.IDB, participation *enrollmentdb.Participation) error {
			m.mu.Lock()
			defer m.mu.Unlock()
			participation.ID = m.id()
			m.participations = append(m.participations, participation)
			return nil
		},
	}
}

// memSnapshot is a deep copy of the store, enough to undo every write and
// every in-place mutation (like an attached tutor reference) of one unit.
type memSnapshot struct {
	students       map[domain.NaturalKey]*enrollmentdb.Student
	tutors         map[domain.NaturalKey]*enrollmentdb.Tutor
	teams          map[string]*enrollmentdb.Team
	members        []*enrollmentdb.TeamMember
	participations []*enrollmentdb.Participation
	nextID         int64
}

func (m *memStore) snapshot() memSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := memSnapshot{
		students: make(map[domain.NaturalKey]*enrollmentdb.Student, len(m.students)),
		tutors:   make(map[domain.NaturalKey]*enrollmentdb.Tutor, len(m.tutors)),
		teams:    make(map[string]*enrollmentdb.Team, len(m.teams)),
		nextID:   m.nextID,
	}
	for k, s := range m.students {
		c := *s
		if s.TutorID != nil {
			id := *s.TutorID
			c.TutorID = &id
		}
		snap.students[k] = &c
	}
	for k, tu := range m.tutors {
		c := *tu
		snap.tutors[k] = &c
	}
	for k, tm := range m.teams {
		c := *tm
		snap.teams[k] = &c
	}
	for _, mb := range m.members {
		c := *mb
		snap.members = append(snap.members, &c)
	}
	for _, p := range m.participations {
		c := *p
		if p.StudentID != nil {
			id := *p.StudentID
			c.StudentID = &id
		}
		if p.TeamID != nil {
			id := *p.TeamID
			c.TeamID = &id
		}
		snap.participations = append(snap.participations, &c)
	}
	return snap
}

func (m *memStore) restore(snap memSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.students = snap.students
	m.tutors = snap.tutors
	m.teams = snap.teams
	m.members = snap.members
	m.participations = snap.participations
	m.nextID = snap.nextID
}

// txFake gives the writer real transaction semantics over the memStore:
// every write of a unit lands inside one RunInTx call, and an error from fn
// restores the store to its pre-unit state.
type txFake struct {
	store *memStore
}

func (f *txFake) RunInTx(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context, tx bun.Tx) error) error {
	snap := f.store.snapshot()
	if err := fn(ctx, bun.Tx{}); err != nil {
		f.store.restore(snap)
		return err
	}
	return nil
}

func newTestWriter(store *memStore) *Writer {
	return NewWriter(store.repo(), nil, observability.NoOpLogger)
}

func TestWriter_WriteIndividual_CreatesEverything(t *testing.T) {
	store := newMemStore()
	w := newTestWriter(store)
	cand := validCandidate(t, 2, individualFields())

	issues, inserted, err := w.WriteIndividual(context.Background(), cand)

	require.NoError(t, err)
	assert.True(t, inserted)
	assert.Empty(t, issues)
	assert.Len(t, store.students, 1)
	assert.Len(t, store.tutors, 1)
	require.Len(t, store.participations, 1)
	require.NotNil(t, store.participations[0].StudentID)

	student := store.students[cand.Student.Key]
	require.NotNil(t, student.TutorID)
}

func TestWriter_WriteIndividual_ReusesExistingWithoutModification(t *testing.T) {
	store := newMemStore()
	tutorID := int64(99)
	existing := &enrollmentdb.Student{
		ID: 50, DocType: "CI", DocNumber: "7894561",
		Names: "Lucia", Surname1: "Fernandez", Institution: "Otro Colegio",
		Email: "lucia.fernandez@example.edu.bo", TutorID: &tutorID,
	}
	store.students[existing.Key()] = existing

	w := newTestWriter(store)
	cand := validCandidate(t, 2, individualFields())

	issues, inserted, err := w.WriteIndividual(context.Background(), cand)

	require.NoError(t, err)
	assert.True(t, inserted)

	// reused, never overwritten
	assert.Len(t, store.students, 1)
	assert.Equal(t, "Otro Colegio", existing.Institution)
	assert.Equal(t, int64(99), *existing.TutorID)

	reuse := filterCode(issues, domain.WarnStudentReused)
	require.Len(t, reuse, 1)
	assert.False(t, reuse[0].IsError())
}

func TestWriter_WriteIndividual_EmailOwnedByOtherStudent(t *testing.T) {
	store := newMemStore()
	other := &enrollmentdb.Student{
		ID: 50, DocType: "CI", DocNumber: "9999999",
		Names: "Otra", Surname1: "Persona", Institution: "X",
		Email: "lucia.fernandez@example.edu.bo",
	}
	store.students[other.Key()] = other

	w := newTestWriter(store)
	cand := validCandidate(t, 2, individualFields())

	issues, inserted, err := w.WriteIndividual(context.Background(), cand)

	require.NoError(t, err)
	assert.False(t, inserted)

	rejections := filterCode(issues, domain.ErrEmailOwnedByOther)
	require.Len(t, rejections, 1)
	assert.Equal(t, 2, rejections[0].Row)

	// zero writes for the candidate
	assert.Len(t, store.students, 1)
	assert.Empty(t, store.tutors)
	assert.Empty(t, store.participations)
}

func TestWriter_WriteIndividual_DuplicateParticipation(t *testing.T) {
	store := newMemStore()
	w := newTestWriter(store)
	cand := validCandidate(t, 2, individualFields())

	_, inserted, err := w.WriteIndividual(context.Background(), cand)
	require.NoError(t, err)
	require.True(t, inserted)

	issues, inserted, err := w.WriteIndividual(context.Background(), cand)
	require.NoError(t, err)
	assert.False(t, inserted)
	require.Len(t, filterCode(issues, domain.ErrDuplicateIndividual), 1)
	assert.Len(t, store.participations, 1)
}

func TestWriter_WriteTeam_PersistsUnit(t *testing.T) {
	store := newMemStore()
	w := newTestWriter(store)
	group := domain.TeamGroup{
		Name: "Equipo-1", AreaID: 1, LevelID: 20,
		Members: []domain.Candidate{
			member(t, 2, "Equipo-1", "LIDER", "100", "Ana"),
			member(t, 3, "Equipo-1", "PARTICIPANTE", "200", "Beto"),
			member(t, 4, "Equipo-1", "PARTICIPANTE", "300", "Carla"),
		},
	}

	issues, members, reason, err := w.WriteTeam(context.Background(), group)

	require.NoError(t, err)
	assert.Empty(t, reason)
	assert.Equal(t, 3, members)
	assert.Empty(t, issues)
	assert.Len(t, store.teams, 1)
	assert.Len(t, store.members, 3)
	require.Len(t, store.participations, 1)
	require.NotNil(t, store.participations[0].TeamID)

	// membership order follows the group's member order
	assert.Equal(t, "LIDER", store.members[0].Role)
	assert.Equal(t, 0, store.members[0].Position)
	assert.Equal(t, 2, store.members[2].Position)
}

func TestWriter_WriteTeam_DuplicateParticipationRejectsUnit(t *testing.T) {
	store := newMemStore()
	w := newTestWriter(store)
	group := domain.TeamGroup{
		Name: "Equipo-1", AreaID: 1, LevelID: 20,
		Members: []domain.Candidate{
			member(t, 2, "Equipo-1", "LIDER", "100", "Ana"),
			member(t, 3, "Equipo-1", "PARTICIPANTE", "200", "Beto"),
			member(t, 4, "Equipo-1", "PARTICIPANTE", "300", "Carla"),
		},
	}

	_, _, reason, err := w.WriteTeam(context.Background(), group)
	require.NoError(t, err)
	require.Empty(t, reason)

	issues, members, reason, err := w.WriteTeam(context.Background(), group)

	require.NoError(t, err)
	assert.NotEmpty(t, reason)
	assert.Zero(t, members)
	assert.Len(t, filterCode(issues, domain.ErrDuplicateTeam), 3)
	assert.Len(t, store.participations, 1)
	assert.Len(t, store.members, 3)
}

func TestWriter_WriteTeam_MemberAlreadyInTeamRejectsUnit(t *testing.T) {
	store := newMemStore()
	w := newTestWriter(store)

	// Seed team with Ana already a member.
	team := &enrollmentdb.Team{ID: store.id(), Name: "Equipo-1"}
	store.teams[team.Name] = team
	ana := &enrollmentdb.Student{ID: store.id(), DocType: "CI", DocNumber: "100", Names: "Ana", Surname1: "Fernández", Institution: "U.E. Simón Bolívar"}
	store.students[ana.Key()] = ana
	store.members = append(store.members, &enrollmentdb.TeamMember{TeamID: team.ID, StudentID: ana.ID, Role: "PARTICIPANTE"})

	group := domain.TeamGroup{
		Name: "Equipo-1", AreaID: 1, LevelID: 20,
		Members: []domain.Candidate{
			member(t, 2, "Equipo-1", "LIDER", "100", "Ana"),
			member(t, 3, "Equipo-1", "PARTICIPANTE", "200", "Beto"),
			member(t, 4, "Equipo-1", "PARTICIPANTE", "300", "Carla"),
		},
	}

	issues, members, reason, err := w.WriteTeam(context.Background(), group)

	require.NoError(t, err)
	assert.NotEmpty(t, reason)
	assert.Zero(t, members)
	require.Len(t, filterCode(issues, domain.ErrMemberAlreadyInTeam), 1)
	assert.Empty(t, store.participations)
}

func TestWriter_WriteIndividual_StudentInsertConflictReusesWinner(t *testing.T) {
	store := newMemStore()
	repo := store.repo()

	baseFind := repo.FindStudentByKeyFn
	baseCreate := repo.CreateStudentFn
	var finds int
	repo.FindStudentByKeyFn = func(ctx context.Context, db bun.IDB, key domain.NaturalKey) (*enrollmentdb.Student, error) {
		finds++
		if finds == 1 {
			// The lookup misses; a concurrent unit inserts the same key
			// before our own insert lands.
			return nil, enrollmentdb.ErrStudentNotFound
		}
		return baseFind(ctx, db, key)
	}
	repo.CreateStudentFn = func(ctx context.Context, db bun.IDB, student *enrollmentdb.Student) error {
		winner := &enrollmentdb.Student{
			DocType: "CI", DocNumber: "7894561",
			Names: "Lucía", Surname1: "Fernández", Surname2: "Rojas",
			Institution: "Otro Colegio",
			Email:       "lucia.fernandez@example.edu.bo", Active: true,
		}
		require.NoError(t, baseCreate(ctx, db, winner))
		return enrollmentdb.ErrDuplicateKey
	}

	w := NewWriter(repo, nil, observability.NoOpLogger)
	cand := validCandidate(t, 2, individualFields())

	issues, inserted, err := w.WriteIndividual(context.Background(), cand)

	require.NoError(t, err)
	assert.True(t, inserted)
	assert.Len(t, store.students, 1)
	require.Len(t, store.participations, 1)

	winner := store.students[cand.Student.Key]
	require.NotNil(t, store.participations[0].StudentID)
	assert.Equal(t, winner.ID, *store.participations[0].StudentID)

	// the diverging institution marks the reuse
	reuse := filterCode(issues, domain.WarnStudentReused)
	require.Len(t, reuse, 1)
	assert.False(t, reuse[0].IsError())
}

func TestWriter_WriteIndividual_EmailIndexConflictRejectsUnit(t *testing.T) {
	store := newMemStore()
	repo := store.repo()
	// Both guards miss, yet the insert loses a unique-constraint race. The
	// key still resolves nothing afterwards, so the email index won.
	repo.CreateStudentFn = func(ctx context.Context, db bun.IDB, student *enrollmentdb.Student) error {
		return enrollmentdb.ErrDuplicateKey
	}

	w := NewWriter(repo, &txFake{store: store}, observability.NoOpLogger)
	cand := validCandidate(t, 2, individualFields())

	issues, inserted, err := w.WriteIndividual(context.Background(), cand)

	require.NoError(t, err)
	assert.False(t, inserted)
	rejections := filterCode(issues, domain.ErrEmailOwnedByOther)
	require.Len(t, rejections, 1)
	assert.Equal(t, 2, rejections[0].Row)
	assert.Empty(t, store.students)
	assert.Empty(t, store.tutors)
	assert.Empty(t, store.participations)
}

func TestWriter_WriteIndividual_TutorInsertConflictReusesWinner(t *testing.T) {
	store := newMemStore()
	repo := store.repo()

	baseFind := repo.FindTutorByKeyFn
	baseCreate := repo.CreateTutorFn
	var finds int
	repo.FindTutorByKeyFn = func(ctx context.Context, db bun.IDB, key domain.NaturalKey) (*enrollmentdb.Tutor, error) {
		finds++
		if finds == 1 {
			return nil, enrollmentdb.ErrTutorNotFound
		}
		return baseFind(ctx, db, key)
	}
	repo.CreateTutorFn = func(ctx context.Context, db bun.IDB, tutor *enrollmentdb.Tutor) error {
		winner := &enrollmentdb.Tutor{
			DocType: "CI", DocNumber: "4455667",
			Names: "Marcelo", Surnames: "Fernández Gutiérrez",
			Phone: "70000000",
		}
		require.NoError(t, baseCreate(ctx, db, winner))
		return enrollmentdb.ErrDuplicateKey
	}

	w := NewWriter(repo, nil, observability.NoOpLogger)
	cand := validCandidate(t, 2, individualFields())

	issues, inserted, err := w.WriteIndividual(context.Background(), cand)

	require.NoError(t, err)
	assert.True(t, inserted)
	assert.Len(t, store.tutors, 1)

	winner := store.tutors[cand.Tutor.Key]
	student := store.students[cand.Student.Key]
	require.NotNil(t, student.TutorID)
	assert.Equal(t, winner.ID, *student.TutorID)
	require.Len(t, filterCode(issues, domain.WarnTutorReused), 1)
}

func TestWriter_WriteTeam_InfrastructureFailureRollsBackUnit(t *testing.T) {
	boom := errors.New("connection reset")
	store := newMemStore()
	repo := store.repo()

	baseCreate := repo.CreateTeamMemberFn
	var calls int
	repo.CreateTeamMemberFn = func(ctx context.Context, db bun.IDB, tm *enrollmentdb.TeamMember) error {
		calls++
		if calls == 3 {
			return boom
		}
		return baseCreate(ctx, db, tm)
	}

	w := NewWriter(repo, &txFake{store: store}, observability.NoOpLogger)
	group := domain.TeamGroup{
		Name: "Equipo-1", AreaID: 1, LevelID: 20,
		Members: []domain.Candidate{
			member(t, 2, "Equipo-1", "LIDER", "100", "Ana"),
			member(t, 3, "Equipo-1", "PARTICIPANTE", "200", "Beto"),
			member(t, 4, "Equipo-1", "PARTICIPANTE", "300", "Carla"),
		},
	}

	_, members, _, err := w.WriteTeam(context.Background(), group)

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, members)

	// nothing of the unit survives
	assert.Empty(t, store.students)
	assert.Empty(t, store.tutors)
	assert.Empty(t, store.teams)
	assert.Empty(t, store.members)
	assert.Empty(t, store.participations)
}

func TestWriter_WriteTeam_RejectionLeavesNoPartialWrites(t *testing.T) {
	store := newMemStore()

	// Seed team with Ana already a member; Ana arrives last in the group so
	// Beto and Carla get written before the rejection.
	team := &enrollmentdb.Team{ID: store.id(), Name: "Equipo-1"}
	store.teams[team.Name] = team
	ana := &enrollmentdb.Student{ID: store.id(), DocType: "CI", DocNumber: "100", Names: "Ana", Surname1: "Fernández", Institution: "U.E. Simón Bolívar"}
	store.students[ana.Key()] = ana
	store.members = append(store.members, &enrollmentdb.TeamMember{TeamID: team.ID, StudentID: ana.ID, Role: "PARTICIPANTE"})

	w := NewWriter(store.repo(), &txFake{store: store}, observability.NoOpLogger)
	group := domain.TeamGroup{
		Name: "Equipo-1", AreaID: 1, LevelID: 20,
		Members: []domain.Candidate{
			member(t, 2, "Equipo-1", "LIDER", "200", "Beto"),
			member(t, 3, "Equipo-1", "PARTICIPANTE", "300", "Carla"),
			member(t, 4, "Equipo-1", "PARTICIPANTE", "100", "Ana"),
		},
	}

	issues, members, reason, err := w.WriteTeam(context.Background(), group)

	require.NoError(t, err)
	assert.NotEmpty(t, reason)
	assert.Zero(t, members)
	require.Len(t, filterCode(issues, domain.ErrMemberAlreadyInTeam), 1)

	// only the seeded rows survive, including Ana without a tutor
	assert.Len(t, store.students, 1)
	assert.Empty(t, store.tutors)
	assert.Len(t, store.members, 1)
	assert.Empty(t, store.participations)
	assert.Nil(t, store.students[ana.Key()].TutorID)
}

func TestWriter_InfrastructureFailurePropagates(t *testing.T) {
	boom := errors.New("connection reset")
	repo := &enrollmentdb.FakeRepository{
		FindStudentByEmailFn: func(ctx context.Context, db bun.IDB, email string) (*enrollmentdb.Student, error) {
			return nil, boom
		},
	}
	w := NewWriter(repo, nil, observability.NoOpLogger)
	cand := validCandidate(t, 2, individualFields())

	_, inserted, err := w.WriteIndividual(context.Background(), cand)

	assert.False(t, inserted)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}
