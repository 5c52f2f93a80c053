package quote

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/noah-isme/backend-freight/internal/channel"
	"github.com/noah-isme/backend-freight/internal/common"
	"github.com/noah-isme/backend-freight/internal/expr"
	"github.com/noah-isme/backend-freight/internal/order"
	"github.com/noah-isme/backend-freight/internal/surcharge"
)

// Handler exposes quoting, expression evaluation, rule linting and bill runs over HTTP.
type Handler struct {
	Svc       *Service
	Validate  *validator.Validate
	BodyLimit int64
}

type evaluateRequest struct {
	Tokens  expr.Formula `json:"tokens"`
	Text    string       `json:"text"`
	Context expr.Context `json:"context"`
}

type evaluateResponse struct {
	Result any    `json:"result"`
	Type   string `json:"type"`
}

type lintResult struct {
	ID       string   `json:"id,omitempty"`
	Valid    bool     `json:"valid"`
	Problems []string `json:"problems,omitempty"`
}

type billRunRequest struct {
	OrderIDs []uuid.UUID `json:"orderIds" validate:"required,min=1"`
}

// Quote prices an unsaved order against a channel.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "quote service not configured", nil)
		return
	}
	var req AdHocRequest
	if !h.decode(w, r, &req) {
		return
	}
	q, err := h.Svc.QuoteAdHoc(r.Context(), req)
	if err != nil {
		writeQuoteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, q)
}

// QuoteOrder prices a stored order and records its charge weight.
func (h *Handler) QuoteOrder(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "quote service not configured", nil)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "orderId"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid order id", nil)
		return
	}
	q, err := h.Svc.QuoteOrder(r.Context(), id)
	if err != nil {
		writeQuoteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, q)
}

// Evaluate runs a postfix expression against a context. Malformed expressions
// evaluate to false rather than failing the request.
func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if !h.decode(w, r, &req) {
		return
	}
	nodes := []expr.Node(req.Tokens)
	if req.Text != "" {
		parsed, err := expr.Parse(req.Text)
		if err != nil {
			common.Data(w, http.StatusOK, evaluateResponse{Result: false, Type: "boolean"})
			return
		}
		nodes = parsed
	} else if len(nodes) == 0 {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "tokens or text is required", nil)
		return
	}
	res := expr.Evaluate(nodes, req.Context)
	typ := "number"
	if res.IsBool() {
		typ = "boolean"
	}
	common.Data(w, http.StatusOK, evaluateResponse{Result: res.Interface(), Type: typ})
}

// Lint reports configuration problems for a list of rule records.
func (h *Handler) Lint(w http.ResponseWriter, r *http.Request) {
	var records []surcharge.Record
	if !h.decode(w, r, &records) {
		return
	}
	results := make([]lintResult, 0, len(records))
	valid := true
	for _, rec := range records {
		problems := surcharge.Lint(rec)
		if len(problems) > 0 {
			valid = false
		}
		results = append(results, lintResult{ID: rec.ID, Valid: len(problems) == 0, Problems: problems})
	}
	common.Data(w, http.StatusOK, map[string]any{"valid": valid, "rules": results})
}

// CreateBillRun enqueues a batch quote of the given orders.
func (h *Handler) CreateBillRun(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "quote service not configured", nil)
		return
	}
	var req billRunRequest
	if !h.decode(w, r, &req) {
		return
	}
	id, err := h.Svc.StartBillRun(r.Context(), req.OrderIDs)
	if err != nil {
		if errors.Is(err, ErrEmptyBillRun) {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to start bill run", nil)
		return
	}
	common.Data(w, http.StatusAccepted, map[string]any{"billRunId": id, "status": BillRunQueued})
}

// GetBillRun returns the status of a bill run.
func (h *Handler) GetBillRun(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil || h.Svc.BillRuns == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "bill runs not configured", nil)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "billRunId"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid bill run id", nil)
		return
	}
	run, err := h.Svc.BillRuns.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrBillRunNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "bill run not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load bill run", nil)
		return
	}
	common.Data(w, http.StatusOK, run)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := r.Body
	if h.BodyLimit > 0 {
		body = http.MaxBytesReader(w, r.Body, h.BodyLimit)
	}
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			common.JSONError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "request body too large", nil)
			return false
		}
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", err.Error())
		return false
	}
	if h.Validate == nil {
		return true
	}
	if err := h.Validate.Struct(dst); err != nil {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			// dst is not a struct, nothing to validate
			return true
		}
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid payload", validationDetails(err))
		return false
	}
	return true
}

func validationDetails(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, fe.Namespace()+": "+fe.Tag())
	}
	return out
}

func writeQuoteError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, order.ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
	case errors.Is(err, channel.ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "CHANNEL_NOT_FOUND", "channel not found", nil)
	case errors.Is(err, channel.ErrInvalidConfig):
		common.JSONError(w, http.StatusUnprocessableEntity, "CHANNEL_INVALID", "channel configuration invalid", nil)
	case errors.Is(err, ErrChannelMismatch):
		common.JSONError(w, http.StatusConflict, "CHANNEL_MISMATCH", err.Error(), nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to compute quote", nil)
	}
}
