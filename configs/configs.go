// Package configs embeds the default runtime assets. The installer copies
// them into the runtime directory where operators can edit them, the pipeline
// falls back to these embedded copies when no file exists.
package configs

import (
	_ "embed"
)

//go:embed query_prompt.tmpl
var QueryPrompt string

//go:embed summary_prompt.tmpl
var SummaryPrompt string

//go:embed corrections.json
var Corrections []byte
