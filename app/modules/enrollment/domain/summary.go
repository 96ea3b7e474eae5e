package enrollmentdomain

// Counters are the run totals reported to the caller. JSON names are the
// contract the submission UI keys on.
type Counters struct {
	RowsProcessed       int `json:"filasProcesadas"`
	IndividualsInserted int `json:"insertadasIndividual"`
	TeamsInserted       int `json:"equiposInscritos"`
	MembersInserted     int `json:"miembrosInsertados"`
	RowsDiscarded       int `json:"filasDescartadas"`
	TeamsRejected       int `json:"equiposRechazados"`
	WarningCount        int `json:"advertencias"`
}

// RowMessage is one consolidated sentence for one row of the submission.
type RowMessage struct {
	Row     int    `json:"fila"`
	Message string `json:"mensaje"`
}

// ImportSummary is the full report of one run. It is transient: built by the
// aggregator, returned to the caller, never persisted.
type ImportSummary struct {
	OK            bool           `json:"ok"`
	Message       string         `json:"mensaje"`
	Counters      Counters       `json:"resumen"`
	Warnings      []RowMessage   `json:"advertenciasDetalle"`
	Errors        []RowMessage   `json:"erroresDetalle"`
	RejectedTeams []RejectedTeam `json:"equiposRechazadosDetalle"`
}
