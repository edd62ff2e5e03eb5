package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"dinequeue/internal/hub"
	"dinequeue/internal/store"

	"github.com/google/uuid"
)

type Handler struct {
	store store.Store
	hub   *hub.Hub
}

type issueTicketRequest struct {
	PartySize int `json:"party_size"`
}

type createTableRequest struct {
	Label    string `json:"label"`
	Capacity int    `json:"capacity"`
}

type assignTableRequest struct {
	TicketID string `json:"ticket_id"`
}

type createReservationRequest struct {
	CustomerName    string `json:"customer_name"`
	CustomerPhone   string `json:"customer_phone"`
	ReservationTime string `json:"reservation_time"`
	PartySize       int    `json:"party_size"`
	TableID         string `json:"table_id"`
}

type closeShiftRequest struct {
	CashCounted int64  `json:"cash_counted"`
	Note        string `json:"note"`
}

type resetWaitingResponse struct {
	Cancelled int `json:"cancelled"`
}

type errorResponse struct {
	Error responseError `json:"error"`
}

type responseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewHandler(store store.Store, hub *hub.Hub) *Handler {
	return &Handler{store: store, hub: hub}
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", h.handleHealth)
	mux.HandleFunc("/api/queue", h.handleQueue)
	mux.HandleFunc("/api/tickets", h.handleTickets)
	mux.HandleFunc("/api/tickets/actions/call-next", h.handleCallNext)
	mux.HandleFunc("/api/tickets/actions/reset-waiting", h.handleResetWaiting)
	mux.HandleFunc("/api/tickets/", h.handleTicketActions)
	mux.HandleFunc("/api/tables", h.handleTables)
	mux.HandleFunc("/api/tables/", h.handleTableByID)
	mux.HandleFunc("/api/reservations", h.handleReservations)
	mux.HandleFunc("/api/reservations/", h.handleReservationActions)
	mux.HandleFunc("/api/shifts", h.handleShifts)
	mux.HandleFunc("/api/shifts/close", h.handleCloseShift)
	return mux
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handleQueue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	// Same aggregate the hub pushes, for clients that poll instead.
	snapshot, err := h.store.Snapshot(r.Context())
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, status, code, msg)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (h *Handler) handleTickets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req issueTicketRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	if req.PartySize <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "party_size must be a positive integer")
		return
	}

	unitPrice, err := h.store.UnitPrice(r.Context())
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, status, code, msg)
		return
	}

	ticket, err := h.store.IssueTicket(r.Context(), store.IssueTicketInput{
		PartySize: req.PartySize,
		UnitPrice: unitPrice,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, status, code, msg)
		return
	}

	h.publishSnapshot(r.Context())
	writeJSON(w, http.StatusOK, ticket)
}

func (h *Handler) handleCallNext(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ticket, err := h.store.CallNext(r.Context(), time.Now().UTC())
	if err != nil {
		if errors.Is(err, store.ErrNoTicket) {
			writeError(w, http.StatusConflict, "queue_empty", "no waiting tickets")
			return
		}
		status, code, msg := mapError(err)
		writeError(w, status, code, msg)
		return
	}

	h.publishSnapshot(r.Context())
	writeJSON(w, http.StatusOK, ticket)
}

func (h *Handler) handleResetWaiting(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !requireAdmin(w, r) {
		return
	}

	count, err := h.store.ResetWaiting(r.Context(), time.Now().UTC())
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, status, code, msg)
		return
	}

	h.publishSnapshot(r.Context())
	writeJSON(w, http.StatusOK, resetWaitingResponse{Cancelled: count})
}

func (h *Handler) handleTicketActions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ticketID, action, ok := splitActionPath(r.URL.Path, "/api/tickets/")
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if !isValidUUID(ticketID) {
		writeError(w, http.StatusBadRequest, "invalid_request", "ticket_id must be a UUID")
		return
	}

	var newStatus string
	switch action {
	case "seat":
		newStatus = "seated"
	case "cancel":
		newStatus = "cancelled"
	default:
		w.WriteHeader(http.StatusNotFound)
		return
	}

	ticket, err := h.store.UpdateTicketStatus(r.Context(), ticketID, newStatus, time.Now().UTC())
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, status, code, msg)
		return
	}

	h.publishSnapshot(r.Context())
	writeJSON(w, http.StatusOK, ticket)
}

func (h *Handler) handleTables(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		tables, err := h.store.ListTables(r.Context())
		if err != nil {
			status, code, msg := mapError(err)
			writeError(w, status, code, msg)
			return
		}
		writeJSON(w, http.StatusOK, tables)
	case http.MethodPost:
		if !requireAdmin(w, r) {
			return
		}
		var req createTableRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		req.Label = strings.TrimSpace(req.Label)
		if req.Label == "" || req.Capacity <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_request", "label and a positive capacity are required")
			return
		}

		table, err := h.store.CreateTable(r.Context(), req.Label, req.Capacity)
		if err != nil {
			status, code, msg := mapError(err)
			writeError(w, status, code, msg)
			return
		}

		h.publishSnapshot(r.Context())
		writeJSON(w, http.StatusOK, table)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleTableByID(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/tables/"), "/")
	parts := strings.Split(path, "/")

	switch {
	case len(parts) == 1 && r.Method == http.MethodDelete:
		h.handleDeleteTable(w, r, parts[0])
	case len(parts) == 3 && parts[1] == "actions" && parts[2] == "assign" && r.Method == http.MethodPost:
		h.handleAssignTable(w, r, parts[0])
	case len(parts) == 1 || (len(parts) == 3 && parts[1] == "actions"):
		w.WriteHeader(http.StatusMethodNotAllowed)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleAssignTable(w http.ResponseWriter, r *http.Request, tableID string) {
	if !isValidUUID(tableID) {
		writeError(w, http.StatusBadRequest, "invalid_request", "table_id must be a UUID")
		return
	}

	var req assignTableRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	req.TicketID = strings.TrimSpace(req.TicketID)
	if req.TicketID != "" && !isValidUUID(req.TicketID) {
		writeError(w, http.StatusBadRequest, "invalid_request", "ticket_id must be a UUID when provided")
		return
	}

	table, err := h.store.AssignTable(r.Context(), tableID, req.TicketID, time.Now().UTC())
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, status, code, msg)
		return
	}

	h.publishSnapshot(r.Context())
	writeJSON(w, http.StatusOK, table)
}

func (h *Handler) handleDeleteTable(w http.ResponseWriter, r *http.Request, tableID string) {
	if !requireAdmin(w, r) {
		return
	}
	if !isValidUUID(tableID) {
		writeError(w, http.StatusBadRequest, "invalid_request", "table_id must be a UUID")
		return
	}

	if err := h.store.DeleteTable(r.Context(), tableID); err != nil {
		status, code, msg := mapError(err)
		writeError(w, status, code, msg)
		return
	}

	h.publishSnapshot(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleReservations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		reservations, err := h.store.ListPendingReservations(r.Context())
		if err != nil {
			status, code, msg := mapError(err)
			writeError(w, status, code, msg)
			return
		}
		writeJSON(w, http.StatusOK, reservations)
	case http.MethodPost:
		h.handleCreateReservation(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleCreateReservation(w http.ResponseWriter, r *http.Request) {
	var req createReservationRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	req.CustomerName = strings.TrimSpace(req.CustomerName)
	req.TableID = strings.TrimSpace(req.TableID)
	if req.CustomerName == "" || req.PartySize <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "customer_name and a positive party_size are required")
		return
	}
	reservationTime, err := time.Parse(time.RFC3339, strings.TrimSpace(req.ReservationTime))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "reservation_time must be an RFC3339 timestamp")
		return
	}
	if req.TableID != "" && !isValidUUID(req.TableID) {
		writeError(w, http.StatusBadRequest, "invalid_request", "table_id must be a UUID when provided")
		return
	}

	reservation, err := h.store.CreateReservation(r.Context(), store.CreateReservationInput{
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		ReservationTime: reservationTime,
		PartySize:       req.PartySize,
		TableID:         req.TableID,
		CreatedAt:       time.Now().UTC(),
	})
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, status, code, msg)
		return
	}

	h.publishSnapshot(r.Context())
	writeJSON(w, http.StatusOK, reservation)
}

func (h *Handler) handleReservationActions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	reservationID, action, ok := splitActionPath(r.URL.Path, "/api/reservations/")
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if !isValidUUID(reservationID) {
		writeError(w, http.StatusBadRequest, "invalid_request", "reservation_id must be a UUID")
		return
	}

	switch action {
	case "check-in":
		h.handleCheckInReservation(w, r, reservationID)
	case "cancel":
		h.handleCancelReservation(w, r, reservationID)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleCheckInReservation(w http.ResponseWriter, r *http.Request, reservationID string) {
	unitPrice, err := h.store.UnitPrice(r.Context())
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, status, code, msg)
		return
	}

	ticket, err := h.store.CheckInReservation(r.Context(), store.CheckInInput{
		ReservationID: reservationID,
		UnitPrice:     unitPrice,
		CheckedInAt:   time.Now().UTC(),
	})
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, status, code, msg)
		return
	}

	h.publishSnapshot(r.Context())
	writeJSON(w, http.StatusOK, ticket)
}

func (h *Handler) handleCancelReservation(w http.ResponseWriter, r *http.Request, reservationID string) {
	reservation, err := h.store.CancelReservation(r.Context(), reservationID)
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, status, code, msg)
		return
	}

	h.publishSnapshot(r.Context())
	writeJSON(w, http.StatusOK, reservation)
}

func (h *Handler) handleShifts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !requireAdmin(w, r) {
		return
	}

	limit := 0
	if limitRaw := strings.TrimSpace(r.URL.Query().Get("limit")); limitRaw != "" {
		parsed, err := strconv.Atoi(limitRaw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_request", "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	records, err := h.store.ListShifts(r.Context(), limit)
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, status, code, msg)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *Handler) handleCloseShift(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	session, ok := sessionFromContext(r.Context())
	if !ok || session.Role != store.RoleAdmin {
		writeError(w, http.StatusForbidden, "access_denied", "admin role required")
		return
	}

	var req closeShiftRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	if req.CashCounted < 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "cash_counted must not be negative")
		return
	}

	record, err := h.store.CloseShift(r.Context(), store.CloseShiftInput{
		ClosedBy:    session.UserID,
		CashCounted: req.CashCounted,
		Note:        strings.TrimSpace(req.Note),
		ClosedAt:    time.Now().UTC(),
	})
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, status, code, msg)
		return
	}

	h.publishSnapshot(r.Context())
	writeJSON(w, http.StatusOK, record)
}

// publishSnapshot pushes the post-mutation floor state to realtime clients.
// Failures are logged only: broadcast is best effort and the mutation has
// already committed.
func (h *Handler) publishSnapshot(ctx context.Context) {
	if h.hub == nil {
		return
	}
	snapshot, err := h.store.Snapshot(ctx)
	if err != nil {
		log.Printf("snapshot error: %v", err)
		return
	}
	h.hub.Publish(snapshot, time.Now().UTC())
}

func splitActionPath(path, prefix string) (id, action string, ok bool) {
	trimmed := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	parts := strings.Split(trimmed, "/")
	if len(parts) != 3 || parts[1] != "actions" {
		return "", "", false
	}
	return parts[0], parts[2], true
}

func isValidUUID(value string) bool {
	_, err := uuid.Parse(value)
	return err == nil
}

func decodeRequest(w http.ResponseWriter, r *http.Request, target interface{}) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON payload")
		return false
	}
	return true
}

func mapError(err error) (int, string, string) {
	switch {
	case errors.Is(err, store.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_request", "invalid request"
	case errors.Is(err, store.ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition", "ticket status does not allow this action"
	case errors.Is(err, store.ErrNoTicket):
		return http.StatusConflict, "queue_empty", "no waiting tickets"
	case errors.Is(err, store.ErrTicketNotFound):
		return http.StatusNotFound, "ticket_not_found", "ticket not found"
	case errors.Is(err, store.ErrTableNotFound):
		return http.StatusNotFound, "table_not_found", "table not found"
	case errors.Is(err, store.ErrReservationNotFound):
		return http.StatusNotFound, "reservation_not_found", "reservation not found"
	case errors.Is(err, store.ErrDuplicateLabel):
		return http.StatusConflict, "duplicate_label", "a table with this label already exists"
	case errors.Is(err, store.ErrTableOccupied):
		return http.StatusConflict, "table_occupied", "table is occupied"
	case errors.Is(err, store.ErrTicketAlreadySeated):
		return http.StatusConflict, "ticket_already_seated", "ticket already occupies another table"
	case errors.Is(err, store.ErrInvalidState):
		return http.StatusConflict, "invalid_state", "reservation state does not allow this action"
	case errors.Is(err, store.ErrSessionNotFound):
		return http.StatusUnauthorized, "unauthorized", "invalid session"
	default:
		return http.StatusInternalServerError, "internal_error", "internal server error"
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Error: responseError{
			Code:    code,
			Message: message,
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}
