package transport

import (
	"encoding/json"
	"net/http"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"code":  code,
		"error": message,
	})
}

// decodeLenient decodes the request body into target. An empty or malformed
// body leaves target untouched, as if no fields were sent.
func decodeLenient[T any](r *http.Request, target *T) {
	if r.Body == nil {
		return
	}
	defer r.Body.Close()

	var decoded T
	if err := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes)).Decode(&decoded); err != nil {
		return
	}
	*target = decoded
}
