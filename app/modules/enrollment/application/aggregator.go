package enrollmentservice

import (
	"fmt"
	"sort"
	"strings"

	domain "github.com/oh-sansi/olympiad-backend/app/modules/enrollment/domain"
)

// Aggregate merges every issue of the run into one ImportSummary: one
// consolidated sentence per row (ascending by row number, "; "-joined),
// the run counters, and the overall outcome. The run only counts as failed
// when nothing at all was inserted.
func Aggregate(counters domain.Counters, issues []domain.Issue, rejected []domain.RejectedTeam) domain.ImportSummary {
	errorRows := make(map[int][]string)
	warningRows := make(map[int][]string)
	warningCount := 0

	for _, issue := range issues {
		sentence := issueSentence(issue)
		if issue.IsError() {
			errorRows[issue.Row] = append(errorRows[issue.Row], sentence)
		} else {
			warningRows[issue.Row] = append(warningRows[issue.Row], sentence)
			warningCount++
		}
	}

	counters.WarningCount = warningCount
	counters.RowsDiscarded = len(errorRows)
	counters.TeamsRejected = len(rejected)

	summary := domain.ImportSummary{
		Counters:      counters,
		Errors:        consolidate(errorRows),
		Warnings:      consolidate(warningRows),
		RejectedTeams: rejected,
	}

	inserted := counters.IndividualsInserted + counters.TeamsInserted + counters.MembersInserted
	switch {
	case inserted == 0:
		summary.OK = false
		summary.Message = "la importación no registró ninguna inscripción"
	case counters.RowsDiscarded > 0 || counters.TeamsRejected > 0:
		summary.OK = true
		summary.Message = fmt.Sprintf(
			"importación completada con observaciones: %d filas descartadas, %d equipos rechazados",
			counters.RowsDiscarded, counters.TeamsRejected,
		)
	default:
		summary.OK = true
		summary.Message = "importación completada con éxito"
	}
	return summary
}

func consolidate(byRow map[int][]string) []domain.RowMessage {
	rows := make([]int, 0, len(byRow))
	for row := range byRow {
		rows = append(rows, row)
	}
	sort.Ints(rows)

	out := make([]domain.RowMessage, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.RowMessage{
			Row:     row,
			Message: strings.Join(byRow[row], "; "),
		})
	}
	return out
}

func issueSentence(issue domain.Issue) string {
	return fmt.Sprintf("[%s] %s: %s", issue.Code, issue.Subject, issue.Message)
}
