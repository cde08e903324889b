package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/basestats/stats-engine/internal/logic"
	"github.com/basestats/stats-engine/internal/models"
)

// IngestGames handles POST /api/v1/games.
//
// The body is one game record, a JSON array of records, or one record per
// line. Every record is validated before any is queued, so a bad batch is
// rejected whole. With ?sync=true the records are applied before responding.
func (h *Handler) IngestGames(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.errorResponse(w, http.StatusRequestEntityTooLarge, "Request body too large")
		return
	}
	defer r.Body.Close()

	records, err := decodeGameRecords(body)
	if err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}
	if len(records) == 0 {
		h.errorResponse(w, http.StatusBadRequest, "No game records in body")
		return
	}

	for i, rec := range records {
		if err := logic.ValidateGameRecord(rec); err != nil {
			h.logger.Warnw("Rejected game record", "index", i, "error", err)
			h.jsonResponse(w, http.StatusBadRequest, map[string]interface{}{
				"error": err.Error(),
				"index": i,
			})
			return
		}
		if rec.ID == "" {
			rec.ID = logic.DeriveGameID(rec)
		}
	}

	resp := models.IngestResponse{Status: "accepted", GameIDs: make([]string, 0, len(records))}

	if r.URL.Query().Get("sync") == "true" {
		for _, rec := range records {
			if _, err := h.aggregation.ProcessGame(r.Context(), rec); err != nil {
				h.serviceError(w, err, "Failed to process game")
				return
			}
			resp.Accepted++
			resp.GameIDs = append(resp.GameIDs, rec.ID)
		}
		resp.Status = "processed"
		h.jsonResponse(w, http.StatusOK, resp)
		return
	}

	for _, rec := range records {
		event := models.GameRecordCreated{Subject: rec.Subject, GameID: rec.ID, Record: rec}
		if !h.pool.Enqueue(event) {
			h.logger.Warnw("Worker pool queue full, dropping remaining games", "accepted", resp.Accepted, "total", len(records))
			break
		}
		resp.Accepted++
		resp.GameIDs = append(resp.GameIDs, rec.ID)
	}

	if resp.Accepted == 0 {
		w.Header().Set("Retry-After", "1")
		h.errorResponse(w, http.StatusServiceUnavailable, "Ingest queue full")
		return
	}
	h.jsonResponse(w, http.StatusAccepted, resp)
}

// decodeGameRecords accepts a single object, an array, or a stream of
// whitespace-separated objects.
func decodeGameRecords(body []byte) ([]*models.GameRecord, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var records []*models.GameRecord
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, err
		}
		return records, nil
	}

	var records []*models.GameRecord
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	for {
		var rec models.GameRecord
		err := dec.Decode(&rec)
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", len(records), err)
		}
		records = append(records, &rec)
	}
}
