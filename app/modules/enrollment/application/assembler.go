package enrollmentservice

import (
	"fmt"

	domain "github.com/oh-sansi/olympiad-backend/app/modules/enrollment/domain"
)

// AssemblyResult is the outcome of grouping team-member candidates.
type AssemblyResult struct {
	Accepted []domain.TeamGroup
	Rejected []domain.RejectedTeam
	Issues   []domain.Issue
}

// AssembleTeams groups team-member candidates by exact team name, preserving
// first-seen order of both groups and members, and applies the team rules:
// area/level homogeneity, member dedup by natural key (first kept), leader
// auto-promotion and the minimum-size rule.
func AssembleTeams(members []domain.Candidate) AssemblyResult {
	var result AssemblyResult

	order := make([]string, 0)
	byName := make(map[string][]domain.Candidate)
	for _, m := range members {
		if _, seen := byName[m.TeamName]; !seen {
			order = append(order, m.TeamName)
		}
		byName[m.TeamName] = append(byName[m.TeamName], m)
	}

	for _, name := range order {
		rows := byName[name]
		group, rejected, issues := assembleGroup(name, rows)
		result.Issues = append(result.Issues, issues...)
		if rejected != nil {
			result.Rejected = append(result.Rejected, *rejected)
			continue
		}
		result.Accepted = append(result.Accepted, *group)
	}
	return result
}

func assembleGroup(name string, rows []domain.Candidate) (*domain.TeamGroup, *domain.RejectedTeam, []domain.Issue) {
	first := rows[0]

	// Homogeneity: every row must agree with the first row's area and level.
	// A single disagreement rejects the whole group, one error per original
	// row so the report covers the full team.
	homogeneous := true
	for _, r := range rows[1:] {
		if r.AreaID != first.AreaID || r.LevelID != first.LevelID {
			homogeneous = false
			break
		}
	}
	if !homogeneous {
		issues := make([]domain.Issue, 0, len(rows))
		for _, r := range rows {
			issues = append(issues, domain.NewError(
				r.Row, domain.ErrTeamHeterogeneous, r.Subject(),
				fmt.Sprintf("el equipo %q mezcla filas con área o nivel distintos", name),
			))
		}
		return nil, &domain.RejectedTeam{Name: name, Reason: "área o nivel inconsistentes entre filas"}, issues
	}

	// Dedup members by natural key: first occurrence wins, later ones are
	// dropped with a warning, never an error.
	var issues []domain.Issue
	seen := make(map[domain.NaturalKey]struct{}, len(rows))
	kept := make([]domain.Candidate, 0, len(rows))
	for _, r := range rows {
		if _, dup := seen[r.Student.Key]; dup {
			issues = append(issues, domain.NewWarning(
				r.Row, domain.WarnDuplicateMemberKept, r.Subject(),
				fmt.Sprintf("documento %s repetido en el equipo %q, se conserva la primera fila", r.Student.Key, name),
			))
			continue
		}
		seen[r.Student.Key] = struct{}{}
		kept = append(kept, r)
	}

	if len(kept) < domain.MinTeamSize {
		for _, r := range rows {
			issues = append(issues, domain.NewError(
				r.Row, domain.ErrTeamBelowMinimum, r.Subject(),
				fmt.Sprintf("el equipo %q requiere al menos %d integrantes distintos y tiene %d",
					name, domain.MinTeamSize, len(kept)),
			))
		}
		reason := fmt.Sprintf("menos de %d integrantes distintos", domain.MinTeamSize)
		return nil, &domain.RejectedTeam{Name: name, Reason: reason}, issues
	}

	// Leader auto-promotion: exactly one warning, first valid member.
	hasLeader := false
	for _, r := range kept {
		if r.Role == domain.RoleLeader {
			hasLeader = true
			break
		}
	}
	if !hasLeader {
		kept[0].Role = domain.RoleLeader
		issues = append(issues, domain.NewWarning(
			kept[0].Row, domain.WarnLeaderPromoted, kept[0].Subject(),
			fmt.Sprintf("el equipo %q no declara líder, se promueve a %s", name, kept[0].Subject()),
		))
	}

	group := &domain.TeamGroup{
		Name:    name,
		AreaID:  first.AreaID,
		LevelID: first.LevelID,
		Members: kept,
		Issues:  issues,
	}
	return group, nil, issues
}
