package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/trazzini/smstrack/internal/model"
	"github.com/trazzini/smstrack/internal/repo"
)

type Sender interface {
	Send(ctx context.Context, from, to, body string) (model.Record, error)
}

type EventHandler interface {
	HandleEvent(ctx context.Context, ev model.StatusEvent) error
}

type Handler struct {
	sender Sender
	events EventHandler
	store  repo.RecordStore
}

func NewHandler(sender Sender, events EventHandler, store repo.RecordStore) *Handler {
	return &Handler{sender: sender, events: events, store: store}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

type sendRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
	Body string `json:"body"`
}

func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid json body"})
		return
	}
	if req.From == "" || req.To == "" || req.Body == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "from, to and body are required"})
		return
	}

	rec, err := h.sender.Send(r.Context(), req.From, req.To, req.Body)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]any{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusCreated, rec)
}

func (h *Handler) GetMessage(w http.ResponseWriter, r *http.Request) {
	rec, err := h.store.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, repo.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "message not found"})
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

// StatusCallback accepts the carrier's delivery webhook, either as the
// urlencoded form the carrier posts or as JSON. A dropped event still
// answers 204; only a store failure returns 500 so the carrier retries.
func (h *Handler) StatusCallback(w http.ResponseWriter, r *http.Request) {
	ev, err := decodeStatusEvent(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}

	if err := h.events.HandleEvent(r.Context(), ev); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type statusEventBody struct {
	MessageID string          `json:"messageId"`
	Status    string          `json:"status"`
	Price     json.RawMessage `json:"price"`
}

func decodeStatusEvent(r *http.Request) (model.StatusEvent, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		return decodeJSONEvent(r)
	}
	return decodeFormEvent(r)
}

func decodeJSONEvent(r *http.Request) (model.StatusEvent, error) {
	var body statusEventBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return model.StatusEvent{}, errors.New("invalid json body")
	}

	ev := model.StatusEvent{MessageID: body.MessageID, Status: body.Status}
	if len(body.Price) > 0 && string(body.Price) != "null" {
		price, err := parsePrice(string(body.Price))
		if err != nil {
			return model.StatusEvent{}, err
		}
		ev.Price = price
	}

	return ev, validateEvent(ev)
}

func decodeFormEvent(r *http.Request) (model.StatusEvent, error) {
	if err := r.ParseForm(); err != nil {
		return model.StatusEvent{}, errors.New("invalid form body")
	}

	ev := model.StatusEvent{
		MessageID: firstOf(r.PostForm, "MessageSid", "SmsSid"),
		Status:    firstOf(r.PostForm, "MessageStatus", "SmsStatus"),
	}
	if raw := r.PostForm.Get("Price"); raw != "" {
		price, err := parsePrice(raw)
		if err != nil {
			return model.StatusEvent{}, err
		}
		ev.Price = price
	}

	return ev, validateEvent(ev)
}

func parsePrice(raw string) (*decimal.Decimal, error) {
	trimmed := raw
	if len(trimmed) >= 2 && trimmed[0] == '"' && trimmed[len(trimmed)-1] == '"' {
		trimmed = trimmed[1 : len(trimmed)-1]
	}
	price, err := decimal.NewFromString(trimmed)
	if err != nil {
		return nil, errors.New("invalid price")
	}
	return &price, nil
}

func validateEvent(ev model.StatusEvent) error {
	if ev.MessageID == "" || ev.Status == "" {
		return errors.New("message id and status are required")
	}
	return nil
}

func firstOf(form map[string][]string, keys ...string) string {
	for _, key := range keys {
		if vals := form[key]; len(vals) > 0 && vals[0] != "" {
			return vals[0]
		}
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
