package tsumego

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	domain "tsumego_exe/internal/domain/tsumego"
	ownErrors "tsumego_exe/internal/errors"
	"tsumego_exe/internal/httpresponse"
	"tsumego_exe/internal/metrics"
	tsumegouc "tsumego_exe/internal/usecase/tsumego"
	"tsumego_exe/internal/utils"
)

type TsumegoHandler struct {
	log       *zap.SugaredLogger
	tsumegoUC *tsumegouc.TsumegoUseCase
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func NewTsumegoHandler(log *zap.SugaredLogger, tsumegoUC *tsumegouc.TsumegoUseCase) *TsumegoHandler {
	return &TsumegoHandler{
		log:       log,
		tsumegoUC: tsumegoUC,
	}
}

func (h *TsumegoHandler) Register(r chi.Router) {
	r.Get("/tsumego", h.HandleCollections)
	r.Get("/tsumego/{collection}", h.HandleCollection)
	r.Post("/tsumego/{collection}", h.HandleAnalyze)
	r.Get("/tsumego/{collection}/verify", h.HandleVerify)
	r.Get("/tsumego/{collection}/explore", h.HandleExplore)
	r.Get("/tsumego/{collection}/{tsumego}", h.HandleTsumego)
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, ownErrors.ErrCollectionNotFound), errors.Is(err, ownErrors.ErrTsumegoNotFound):
		return http.StatusNotFound
	case errors.Is(err, ownErrors.ErrMalformedPosition):
		return http.StatusBadRequest
	case errors.Is(err, ownErrors.ErrValueNotFound), errors.Is(err, ownErrors.ErrPositionNotFound):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// describe hides contract failures from clients.
func (h *TsumegoHandler) describe(err error) (int, string) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		h.log.Error(err)
		return status, "Internal server error"
	}
	h.log.Debugf("request failed: %v", err)
	return status, err.Error()
}

func (h *TsumegoHandler) writeError(w http.ResponseWriter, err error) {
	status, description := h.describe(err)
	httpresponse.WriteErrorResponse(w, status, description)
}

func (h *TsumegoHandler) HandleCollections(w http.ResponseWriter, r *http.Request) {
	resp, err := h.tsumegoUC.Collections(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, resp)
}

func (h *TsumegoHandler) HandleCollection(w http.ResponseWriter, r *http.Request) {
	resp, err := h.tsumegoUC.Collection(r.Context(), chi.URLParam(r, "collection"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, resp)
}

func (h *TsumegoHandler) HandleTsumego(w http.ResponseWriter, r *http.Request) {
	resp, err := h.tsumegoUC.Tsumego(r.Context(), chi.URLParam(r, "collection"), chi.URLParam(r, "tsumego"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, resp)
}

func (h *TsumegoHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req domain.AnalyzeRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		h.log.Debugf("%s: %v", httpresponse.MALFORMEDJSON_errorDesc, err)
		httpresponse.WriteErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.tsumegoUC.Analyze(r.Context(), chi.URLParam(r, "collection"), req.State)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.log.Debugf("analysed %s with %s tactics", chi.URLParam(r, "collection"), req.Tactics)
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, result)
}

func (h *TsumegoHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	report, err := h.tsumegoUC.VerifyCollection(r.Context(), chi.URLParam(r, "collection"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, report)
}

// HandleExplore answers every {"state": ...} frame with the analysis of that state, in the
// same {Status, Body} envelope as the HTTP routes.
func (h *TsumegoHandler) HandleExplore(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "collection")
	if _, err := h.tsumegoUC.Collection(r.Context(), slug); err != nil {
		h.writeError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Errorf("websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	sessionID := uuid.New().String()
	metrics.ExploreOpened()
	defer metrics.ExploreClosed()
	h.log.Infow("explore session opened", "collection", slug, "session", sessionID)

	for {
		var req domain.AnalyzeRequest
		if err = conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warnw("explore session read failed", "session", sessionID, "error", err)
			}
			break
		}

		result, err := h.tsumegoUC.Analyze(r.Context(), slug, req.State)
		if err != nil {
			status, description := h.describe(err)
			err = conn.WriteJSON(httpresponse.NewResponse(status, httpresponse.ErrorResponse{ErrorDescription: description}))
		} else {
			err = conn.WriteJSON(httpresponse.NewResponse(http.StatusOK, result))
		}
		if err != nil {
			h.log.Warnw("explore session write failed", "session", sessionID, "error", err)
			break
		}
	}
	h.log.Infow("explore session closed", "collection", slug, "session", sessionID)
}
