// Package sonic holds the JSON codec shared by the CLI, rpc bodies and test
// configs.
package sonic

import "github.com/bytedance/sonic"

// Config is encoding/json compatible, except that it skips validating the
// output of json.Marshaler implementations. Map keys are sorted so reports
// print the same every run.
var Config = sonic.Config{
	EscapeHTML:              false,
	SortMapKeys:             true,
	NoQuoteTextMarshaler:    false,
	NoValidateJSONMarshaler: true,
	NoValidateJSONSkip:      true,
}.Froze()
