package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

type queryRequest struct {
	// Query is the natural language question, not SQL.
	Query string `json:"query"`
}

func handleQuery(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Agent == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "AGENT_NOT_CONFIGURED", "agent dependencies are not configured", false, nil)
		return
	}

	var request queryRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid query request body", false, map[string]any{"details": err.Error()})
		return
	}
	if strings.TrimSpace(request.Query) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "QUERY_REQUIRED", "query is required", false, nil)
		return
	}

	result := deps.Agent.ProcessNaturalLanguage(r.Context(), request.Query)
	if !result.Success {
		if deps.Logger != nil {
			deps.Logger.ErrorContext(r.Context(), "question processing failed",
				slog.String("error", result.Error),
			)
		}
		writeJSON(w, http.StatusInternalServerError, result)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
