package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/pysugar/notion-nexus/internal/upstream"
)

// FormulaGenerateHandler drives a formula-generation request using the
// selected database's structure as context.
// POST /api/formula/generate {userRequirements, databaseStructure}
func FormulaGenerateHandler(client *upstream.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			UserRequirements  string      `json:"userRequirements"`
			DatabaseStructure interface{} `json:"databaseStructure"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, "Invalid request body")
			return
		}
		if body.DatabaseStructure == nil {
			body.DatabaseStructure = map[string]interface{}{}
		}

		text, err := client.GenerateFormula(r.Context(), body.UserRequirements, body.DatabaseStructure)
		if err != nil {
			log.Printf("❌ Formula generation failed: %v", err)
			writeError(w, "Failed to generate formula")
			return
		}

		writeJSON(w, map[string]interface{}{"success": true, "text": text})
	}
}
