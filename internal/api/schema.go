package api

import "net/http"

type schemaResponse struct {
	Schema string `json:"schema"`
}

func handleSchema(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Agent == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "AGENT_NOT_CONFIGURED", "agent dependencies are not configured", false, nil)
		return
	}

	schemaText, err := deps.Agent.GetSchema(r.Context())
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "SCHEMA_ERROR", err.Error(), true, nil)
		return
	}
	writeJSON(w, http.StatusOK, schemaResponse{Schema: schemaText})
}
