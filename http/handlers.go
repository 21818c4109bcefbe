package http

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"strconv"
	"strings"

	"depositform/db"
	"depositform/ml"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

const maxHistoryLimit = 500

// HistoryStore records answered predictions. *db.Store satisfies it.
type HistoryStore interface {
	SavePrediction(ctx context.Context, rec db.PredictionRecord) (int64, error)
	RecentPredictions(ctx context.Context, limit int) ([]db.PredictionRecord, error)
}

// Handler serves the prediction pages.
type Handler struct {
	deps  Deps
	pages *pages
}

type pageData struct {
	Title      string
	Lang       string
	Fields     []string
	Prediction string
	Score      float64
	Message    string
	Details    []string
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.handleHome)
	mux.HandleFunc("GET /predict", h.handlePredictForm)
	mux.HandleFunc("POST /result", h.handleResult)
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.HandleFunc("GET /api/history", h.handleHistory)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (h *Handler) handleHome(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "home.html", pageData{Title: "Term Deposit Prediction"})
}

func (h *Handler) handlePredictForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "index.html", pageData{
		Title:  "Client Details",
		Fields: h.deps.Schema,
	})
}

func (h *Handler) handleResult(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(ctx)

	if err := parseForm(r); err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		logger.Info("unreadable form", zap.Error(err))
		h.renderError(w, r, status, "The form could not be read.", nil)
		return
	}

	x, err := h.deps.Schema.Vector(r.PostForm)
	if err != nil {
		logger.Info("rejected form", zap.Error(err))
		h.renderError(w, r, http.StatusBadRequest, "Every field must be filled in with a number.", formDetails(err))
		return
	}

	predictor, err := h.deps.Loader.Load(ctx)
	if err != nil {
		logger.Error("model load failed", zap.Error(err))
		msg := "The prediction model could not be loaded."
		if errors.Is(err, fs.ErrNotExist) {
			msg = "The prediction model file is missing."
		}
		h.renderError(w, r, http.StatusInternalServerError, msg, nil)
		return
	}

	pred, err := predictor.Predict(x)
	if err != nil {
		logger.Error("prediction failed", zap.Error(err))
		h.renderError(w, r, http.StatusInternalServerError, "The model could not make a prediction.", nil)
		return
	}

	answers := answersFor(r)
	display := answers.display(pred.Label == h.deps.PositiveLabel)
	logger.Debug("prediction", zap.String("label", pred.Label), zap.Float64("score", pred.Score))
	h.record(ctx, logger, x, pred, display)

	h.render(w, r, http.StatusOK, "result.html", pageData{
		Title:      "Prediction",
		Lang:       answers.Lang,
		Prediction: display,
		Score:      pred.Score,
	})
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	if h.deps.History == nil {
		http.Error(w, "prediction history is disabled", http.StatusNotFound)
		return
	}

	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(l, maxHistoryLimit)
	}

	records, err := h.deps.History.RecentPredictions(r.Context(), limit)
	if err != nil {
		h.requestLogger(r.Context()).Error("history query failed", zap.Error(err))
		http.Error(w, "history unavailable", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"count": len(records),
		"data":  records,
	})
}

// record stores the prediction; failures are logged and never reach the
// user.
func (h *Handler) record(ctx context.Context, logger *zap.Logger, x *mat.Dense, pred ml.Prediction, display string) {
	if h.deps.History == nil {
		return
	}
	features := make(map[string]float64, len(h.deps.Schema))
	for i, name := range h.deps.Schema {
		features[name] = x.At(0, i)
	}
	_, err := h.deps.History.SavePrediction(ctx, db.PredictionRecord{
		RequestID: GetRequestID(ctx),
		Label:     pred.Label,
		Display:   display,
		Score:     pred.Score,
		Features:  features,
	})
	if err != nil {
		logger.Warn("saving prediction failed", zap.Error(err))
	}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, data pageData) {
	if err := h.pages.render(w, status, name, data); err != nil {
		h.requestLogger(r.Context()).Error("render failed", zap.String("template", name), zap.Error(err))
	}
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, status int, message string, details []string) {
	h.render(w, r, status, "error.html", pageData{
		Title:   http.StatusText(status),
		Message: message,
		Details: details,
	})
}

func (h *Handler) requestLogger(ctx context.Context) *zap.Logger {
	return h.deps.Logger.With(zap.String("request_id", GetRequestID(ctx)))
}

func parseForm(r *http.Request) error {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return r.ParseMultipartForm(32 << 10)
	}
	return r.ParseForm()
}

func formDetails(err error) []string {
	var fe *ml.FormError
	if !errors.As(err, &fe) {
		return []string{err.Error()}
	}
	details := make([]string, 0, len(fe.Missing)+len(fe.Unknown)+len(fe.Invalid))
	for _, name := range fe.Missing {
		details = append(details, name+": missing")
	}
	for _, invalid := range fe.Invalid {
		details = append(details, invalid.Field+": "+invalid.Reason)
	}
	for _, name := range fe.Unknown {
		details = append(details, name+": not a model field")
	}
	return details
}
