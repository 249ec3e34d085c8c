package handler

import (
	"context"
	"log/slog"
	"net/http"
	"reelcast/internal/models"
)

// Connector is the connection manager as seen by the HTTP layer.
type Connector interface {
	Connect(ctx context.Context, username, password string) (string, error)
	Disconnect()
	Status() models.ConnectionStatus
}

// ConnectionHandler handles HTTP requests for the Instagram session
type ConnectionHandler struct {
	connections Connector
	logger      *slog.Logger
}

// NewConnectionHandler creates a new connection handler
func NewConnectionHandler(connections Connector, logger *slog.Logger) *ConnectionHandler {
	return &ConnectionHandler{connections: connections, logger: logger}
}

// Status handles GET /connection/status
func (h *ConnectionHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.logger, http.StatusOK, h.connections.Status())
}

// Connect handles POST /connection
func (h *ConnectionHandler) Connect(w http.ResponseWriter, r *http.Request) {
	var req models.ConnectRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}

	username, err := h.connections.Connect(r.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, models.ConnectResponse{
		Success:  true,
		Message:  "Successfully connected to Instagram",
		Username: username,
	})
}

// Disconnect handles POST /connection/disconnect
func (h *ConnectionHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	h.connections.Disconnect()
	writeJSON(w, h.logger, http.StatusOK, models.SuccessResponse{
		Success: true,
		Message: "Disconnected from Instagram",
	})
}
