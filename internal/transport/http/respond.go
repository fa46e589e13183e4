package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// ErrorResponse: тело любого отказа: {"error": "..."}
type ErrorResponse struct {
	Error string `json:"error"`
}

// RespondJSON пишет payload как JSON с заданным статусом
func RespondJSON(w http.ResponseWriter, log *slog.Logger, status int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Error("failed to marshal JSON response", slog.String("error", err.Error()))
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": "internal server error"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(response)
}

// RespondError пишет {"error": message}
func RespondError(w http.ResponseWriter, log *slog.Logger, status int, message string) {
	RespondJSON(w, log, status, ErrorResponse{Error: message})
}

// DecodeJSON читает тело запроса в dst; тело ограничено 1 МБ
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	return json.NewDecoder(r.Body).Decode(dst)
}
