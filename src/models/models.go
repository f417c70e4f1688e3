package models

import "tabledb/src/engine"

// Command names accepted by the command director.
const (
	CmdAuth           = "auth"
	CmdCreateDatabase = "create_database"
	CmdOpenDatabase   = "open_database"
	CmdCreateTable    = "create_table"
	CmdRemoveTable    = "remove_table"
	CmdListTables     = "list_tables"
	CmdAddField       = "add_field"
	CmdEditField      = "edit_field"
	CmdRemoveField    = "remove_field"
	CmdAddRecord      = "add_record"
	CmdViewTable      = "view_table"
	CmdViewAllTables  = "view_all_tables"
	CmdSave           = "save"
	CmdLoad           = "load"
	CmdJoin           = "join"
)

// Request is one front-end call with plain parameters. Only the members the
// command needs are read.
type Request struct {
	Command string `json:"command"`

	Database string `json:"database,omitempty"`
	Table    string `json:"table,omitempty"`

	// Field is the field name for add/remove, and the new name for edit.
	Field     string `json:"field,omitempty"`
	OldField  string `json:"old_field,omitempty"`
	FieldType string `json:"field_type,omitempty"`

	Record map[string]engine.Value `json:"record,omitempty"`

	// Table2 is the right-hand table of a join.
	Table2 string `json:"table2,omitempty"`

	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

// Response status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Response is the outcome of one Request. Kind carries the error kind on
// failure so clients can branch without parsing Message.
type Response struct {
	RequestID   string      `json:"request_id"`
	Status      string      `json:"status"`
	Kind        string      `json:"kind,omitempty"`
	Message     string      `json:"message,omitempty"`
	ResultCount int         `json:"result_count,omitempty"`
	Result      interface{} `json:"result,omitempty"`
}
