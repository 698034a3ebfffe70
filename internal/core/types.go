package core

import "time"

const (
	AppName    = "TalkData"
	AppVersion = "0.1.0"
)

// TurnRecord is one half of a conversation turn.
type TurnRecord struct {
	Text string    `json:"text"`
	Time time.Time `json:"time"`
}

// Turn pairs a user request with the answer recorded for it. Turns are
// appended atomically and never mutated, so the request and response
// sequences of a session stay positionally paired.
type Turn struct {
	Request  TurnRecord `json:"request"`
	Response TurnRecord `json:"response"`
}

// Row is a single result row keyed by column name.
type Row map[string]any

type SchemaColumn struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// ColumnDescription is the offline-generated natural language summary of one
// dataset column.
type ColumnDescription struct {
	Name         string `json:"name"`
	Purpose      string `json:"purpose"`
	UniqueValues string `json:"unique_values"`
	Histogram    string `json:"histogram,omitempty"`
	Insights     string `json:"insights,omitempty"`
}

// SchemaDescriptor describes the queryable table: ordered columns plus the
// per-column descriptions. Immutable for the lifetime of a process.
type SchemaDescriptor struct {
	TableName    string
	Columns      []SchemaColumn
	Descriptions map[string]ColumnDescription
}

type OutcomeStatus string

const (
	StatusSuccess          OutcomeStatus = "success"
	StatusNoQueryExtracted OutcomeStatus = "no_query_extracted"
	StatusNoRowsReturned   OutcomeStatus = "no_rows_returned"
	StatusExecutionFailed  OutcomeStatus = "execution_failed"
)

// Outcome is the terminal classification of one query-translation request.
type Outcome struct {
	Status OutcomeStatus `json:"status"`
	Query  string        `json:"query,omitempty"`
	Rows   []Row         `json:"rows,omitempty"`
	// Message carries the store diagnostic on failure, verbatim, for logs.
	Message string `json:"message,omitempty"`
}

// Answer is what a transport hands back to the user: the classified query
// outcome plus the spoken-style summary built from it.
type Answer struct {
	Outcome Outcome `json:"outcome"`
	Summary string  `json:"summary"`
}
