package components

import (
	"encoding/json"
	"html/template"

	"agency_site_go/logging"

	"go.uber.org/zap"
)

// StateScriptID is the element id of the serialized initial state.
const StateScriptID = "__APP_STATE__"

// JSON marshals an object to a JSON string, returning "{}" on error.
// encoding/json escapes <, > and & so the result is safe inside a script element.
func JSON(v interface{}) template.JS {
	b, err := json.Marshal(v)
	if err != nil {
		logging.L().Error("failed to marshal JSON", zap.Error(err))
		return "{}"
	}
	return template.JS(b)
}

// StateScript embeds v as a non-executable JSON data block.
func StateScript(v interface{}) template.HTML {
	return template.HTML(`<script id="` + StateScriptID + `" type="application/json">` + string(JSON(v)) + `</script>`)
}
