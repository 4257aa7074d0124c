package api

import (
	"encoding/json"
	"net/http"
	"strings"
)

type analyzeRequest struct {
	Query string `json:"query"`
}

func handleAnalyze(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Agent == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "AGENT_NOT_CONFIGURED", "agent dependencies are not configured", false, nil)
		return
	}

	var request analyzeRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid analyze request body", false, map[string]any{"details": err.Error()})
		return
	}
	if strings.TrimSpace(request.Query) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "QUERY_REQUIRED", "query is required", false, nil)
		return
	}

	analysis, err := deps.Agent.AnalyzeQuery(r.Context(), request.Query)
	if err != nil {
		writeError(r.Context(), w, http.StatusBadGateway, "ANALYSIS_FAILED", err.Error(), true, nil)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}
