// Package api exposes the auction control surface over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/mcdev12/gavel/go/internal/auction"
	"github.com/mcdev12/gavel/go/internal/models"
	"github.com/rs/zerolog/log"
)

// Prefix is where the control routes are mounted
const Prefix = "/api/v1/auction"

// maxBodyBytes caps request bodies; every payload here is a handful of ids.
const maxBodyBytes = 1 << 16

// Controller is the part of the engine the HTTP surface drives
type Controller interface {
	Initialize(ctx context.Context, groupID uuid.UUID) (*models.Session, error)
	Start(ctx context.Context) (*models.Session, error)
	TogglePause(ctx context.Context) (*models.Session, error)
	Resume(ctx context.Context) (*models.Session, error)
	EndAuction(ctx context.Context) (*models.Session, error)
	Clear(ctx context.Context) (*models.Session, error)
	Reset(ctx context.Context) (*models.Session, error)
	Data(ctx context.Context) (*models.Session, error)
	Bid(ctx context.Context, req auction.BidRequest) (*models.Bid, error)
}

// Response is the envelope every route answers with
type Response struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
	Msg    string `json:"msg"`
	Data   any    `json:"data,omitempty"`
}

const (
	statusOK    = "ok"
	statusError = "error"
)

type initializeRequest struct {
	GroupID uuid.UUID `json:"group_id"`
}

type bidRequest struct {
	ItemID uuid.UUID       `json:"item_id"`
	TeamID uuid.UUID       `json:"team_id"`
	Amount json.RawMessage `json:"amount"`
}

// Handler serves the auction control routes
type Handler struct {
	engine Controller
}

func NewHandler(engine Controller) *Handler {
	return &Handler{engine: engine}
}

// RegisterRoutes registers the control routes with an HTTP mux
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST "+Prefix+"/initialize", h.HandleInitialize)
	mux.HandleFunc("POST "+Prefix+"/start", h.session("start", h.engine.Start))
	mux.HandleFunc("POST "+Prefix+"/pause", h.session("pause", h.engine.TogglePause))
	mux.HandleFunc("POST "+Prefix+"/resume", h.session("resume", h.engine.Resume))
	mux.HandleFunc("POST "+Prefix+"/end", h.session("end", h.engine.EndAuction))
	mux.HandleFunc("POST "+Prefix+"/clear", h.session("clear", h.engine.Clear))
	mux.HandleFunc("POST "+Prefix+"/reset", h.session("reset", h.engine.Reset))
	mux.HandleFunc("POST "+Prefix+"/bid", h.HandleBid)
	mux.HandleFunc("GET "+Prefix+"/data", h.session("data", h.engine.Data))
}

// HandleInitialize handles POST /api/v1/auction/initialize
func (h *Handler) HandleInitialize(w http.ResponseWriter, r *http.Request) {
	var req initializeRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, "initialize", err)
		return
	}
	s, err := h.engine.Initialize(r.Context(), req.GroupID)
	if err != nil {
		writeError(w, "initialize", err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Status: statusOK, Msg: "auction initialized", Data: s})
}

// HandleBid handles POST /api/v1/auction/bid
func (h *Handler) HandleBid(w http.ResponseWriter, r *http.Request) {
	var req bidRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, "bid", err)
		return
	}
	if req.ItemID == uuid.Nil || req.TeamID == uuid.Nil || len(req.Amount) == 0 {
		writeError(w, "bid", &auction.RejectionError{
			Reason: auction.ReasonInvalidPayload,
			Msg:    "item_id, team_id and amount are required",
		})
		return
	}

	bid, err := h.engine.Bid(r.Context(), auction.NewBidRequest(req.ItemID, req.TeamID, req.Amount))
	if err != nil {
		writeError(w, "bid", err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Status: statusOK, Msg: "bid accepted", Data: bid})
}

func (h *Handler) session(op string, fn func(ctx context.Context) (*models.Session, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := fn(r.Context())
		if err != nil {
			writeError(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, Response{Status: statusOK, Msg: op, Data: s})
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &auction.RejectionError{Reason: auction.ReasonInvalidPayload, Msg: err.Error()}
	}
	return nil
}

func writeError(w http.ResponseWriter, op string, err error) {
	if rej, ok := auction.AsRejection(err); ok {
		writeJSON(w, http.StatusBadRequest, Response{
			Status: statusError,
			Reason: string(rej.Reason),
			Msg:    rej.Msg,
		})
		return
	}

	status := http.StatusInternalServerError
	if errors.Is(err, auction.ErrEngineStopped) || errors.Is(err, context.Canceled) {
		status = http.StatusServiceUnavailable
	}
	log.Error().Err(err).Str("op", op).Msg("auction request failed")
	writeJSON(w, status, Response{Status: statusError, Reason: "internal", Msg: "internal error"})
}

func writeJSON(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Error().Err(err).Msg("failed to write response")
	}
}
