package enrollmentdomain

// MinTeamSize is the minimum number of distinct valid members a team needs
// after deduplication. Fixed business rule, not configurable.
const MinTeamSize = 3

// TeamGroup is an assembled team ready for persistence: the members of every
// accepted row sharing one team name, in first-seen row order, all agreeing
// on area and level. Consumed by the writer, never persisted itself.
type TeamGroup struct {
	Name    string
	AreaID  int64
	LevelID int64
	Members []Candidate
	Issues  []Issue
}

// RejectedTeam records a team-level rejection for the summary.
type RejectedTeam struct {
	Name   string `json:"nombre"`
	Reason string `json:"motivo"`
}
