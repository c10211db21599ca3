package http

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gitzip/pkg/domain/interfaces"
	"github.com/m-mizutani/gitzip/pkg/domain/model"
	"github.com/m-mizutani/gitzip/pkg/domain/types"
	"github.com/m-mizutani/gitzip/pkg/infra/logsink"
	"github.com/m-mizutani/gitzip/pkg/utils/async"
)

const (
	maxRequestBytes = 1 << 20

	// statusClientClosedRequest marks a caller that went away before the
	// artifact was ready
	statusClientClosedRequest = 499

	HeaderEntries  = "X-Gitzip-Entries"
	HeaderFailures = "X-Gitzip-Failures"
)

// DownloadRequest is the body of POST /api/download
type DownloadRequest struct {
	Origin string                `json:"origin"`
	Items  []model.SelectionItem `json:"items"`
}

// DownloadHandler runs one download action per request. Only one action runs
// at a time; a concurrent request is answered with 409.
type DownloadHandler struct {
	downloadUC interfaces.DownloadUseCase
	creds      *model.Credentials
	mirror     interfaces.ArtifactStore
	dispatcher *async.Dispatcher

	running sync.Mutex
}

// NewDownloadHandler creates a DownloadHandler. creds is used for requests
// without an Authorization header. mirror may be nil.
func NewDownloadHandler(
	downloadUC interfaces.DownloadUseCase,
	creds *model.Credentials,
	mirror interfaces.ArtifactStore,
	dispatcher *async.Dispatcher,
) *DownloadHandler {
	if dispatcher == nil {
		dispatcher = async.NewDispatcher()
	}
	return &DownloadHandler{
		downloadUC: downloadUC,
		creds:      creds,
		mirror:     mirror,
		dispatcher: dispatcher,
	}
}

// Handle processes download requests
func (h *DownloadHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := ctxlog.From(ctx)

	if !h.running.TryLock() {
		writeError(w, r, goerr.New("another download is in progress"), http.StatusConflict)
		return
	}
	defer h.running.Unlock()

	var req DownloadRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := decoder.Decode(&req); err != nil {
		writeError(w, r, goerr.Wrap(err, "invalid JSON body"), http.StatusBadRequest)
		return
	}

	sel, err := model.NewSelection(req.Origin, req.Items)
	if err != nil {
		writeError(w, r, err, http.StatusBadRequest)
		return
	}

	artifact, err := h.downloadUC.Download(ctx, sel, credentialsFrom(r, h.creds), logsink.NewSlog())
	if err != nil {
		if errors.Is(err, types.ErrNoSelection) {
			logger.Info("Nothing selected")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeError(w, r, err, statusOf(err))
		return
	}

	w.Header().Set("Content-Type", artifact.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": artifact.Name,
	}))
	w.Header().Set("Content-Length", strconv.Itoa(len(artifact.Data)))
	w.Header().Set(HeaderEntries, strconv.Itoa(artifact.Entries))
	w.Header().Set(HeaderFailures, strconv.Itoa(artifact.Failures))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(artifact.Data); err != nil {
		logger.Error("Failed to write artifact", "error", err, "name", artifact.Name)
		return
	}

	if h.mirror != nil {
		mirror := h.mirror
		h.dispatcher.Dispatch(ctx, func(ctx context.Context) error {
			location, err := mirror.Save(ctx, artifact)
			if err != nil {
				return goerr.Wrap(err, "failed to mirror artifact", goerr.V("name", artifact.Name))
			}
			ctxlog.From(ctx).Info("Mirrored artifact", "location", location)
			return nil
		})
	}
}

// credentialsFrom prefers a token in the Authorization header
// ("token X" or "Bearer X") over the server default
func credentialsFrom(r *http.Request, fallback *model.Credentials) *model.Credentials {
	scheme, token, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	token = strings.TrimSpace(token)
	if ok && token != "" && (strings.EqualFold(scheme, "token") || strings.EqualFold(scheme, "bearer")) {
		return &model.Credentials{Token: token}
	}
	return fallback
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, types.ErrAuthRequired):
		return http.StatusUnauthorized
	case errors.Is(err, types.ErrInvalidRepository):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, types.ErrFetchFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
