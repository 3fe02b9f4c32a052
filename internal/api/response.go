package api

import (
	"encoding/json"
	"net/http"
)

type envelope struct {
	Data  interface{} `json:"data,omitempty"`
	Page  *Page       `json:"page,omitempty"`
	Error string      `json:"error,omitempty"`
}

func writeData(w http.ResponseWriter, status int, data interface{}, page *Page) {
	writeJSON(w, status, envelope{Data: data, Page: page})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
