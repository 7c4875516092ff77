package handlers

import "net/http"

type healthInput struct {
	Method string `json:"method"`
	Path   string `json:"path"`
}

type healthResponse struct {
	Message string      `json:"message"`
	Input   healthInput `json:"input"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Health handles GET /. It echoes a summary of the request.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Message: "Go Serverless v3.0! Your function executed successfully!",
		Input:   healthInput{Method: r.Method, Path: r.URL.Path},
	})
}

// Description handles GET /v1.
func Description(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, messageResponse{Message: "TTS api version 1."})
}
