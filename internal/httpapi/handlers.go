package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/olgkv/tasklist/internal/domain"
	"github.com/olgkv/tasklist/internal/service"
)

const (
	maxFormBytes            = 1 << 20
	reportGenerationTimeout = 30 * time.Second
)

// ActionRequest is the decoded body of a POST to the action endpoint.
type ActionRequest struct {
	Action string
	Fields url.Values
}

// Field returns the value of key and whether it was sent at all.
func (a ActionRequest) Field(key string) (string, bool) {
	v, ok := a.Fields[key]
	if !ok || len(v) == 0 {
		return "", false
	}
	return v[0], true
}

type ActionResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Task    *domain.Task `json:"task,omitempty"`
	HTML    *string      `json:"html,omitempty"`
}

var errInvalidRequest = domain.Validation("Invalid request")

type Handler struct {
	svc *service.Service
}

func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Index renders the task page, optionally filtered by the status query parameter.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	filter := r.URL.Query().Get("status")
	tasks, err := h.svc.FilterTasks(r.Context(), filter)
	if err != nil {
		logError(r, "list tasks", err)
		http.Error(w, domain.Message(err), httpStatus(err))
		return
	}

	var buf bytes.Buffer
	if err := renderPage(&buf, tasks, filter); err != nil {
		logError(r, "render page", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// Action is the single POST entry point for task mutations and filtering.
// The body is form-encoded or multipart.
func (h *Handler) Action(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	req, err := decodeActionRequest(w, r)
	if err != nil {
		writeActionError(w, r, errInvalidRequest)
		return
	}
	setAction(r.Context(), req.Action)

	resp, err := h.dispatch(r.Context(), req)
	if err != nil {
		writeActionError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) dispatch(ctx context.Context, req ActionRequest) (*ActionResponse, error) {
	switch req.Action {
	case "add":
		name, ok := req.Field("name")
		if !ok {
			return nil, errInvalidRequest
		}
		task, err := h.svc.AddTask(ctx, name)
		if err != nil {
			return nil, err
		}
		return &ActionResponse{Success: true, Task: task}, nil

	case "delete":
		id, err := requireID(req)
		if err != nil {
			return nil, err
		}
		if err := h.svc.DeleteTask(ctx, id); err != nil {
			return nil, err
		}
		return &ActionResponse{Success: true}, nil

	case "update":
		id, err := requireID(req)
		if err != nil {
			return nil, err
		}
		raw, ok := req.Field("status")
		if !ok {
			return nil, errInvalidRequest
		}
		status, err := domain.ParseStatus(raw)
		if err != nil {
			return nil, err
		}
		if err := h.svc.UpdateTaskStatus(ctx, id, status); err != nil {
			return nil, err
		}
		return &ActionResponse{Success: true}, nil

	case "rename":
		id, err := requireID(req)
		if err != nil {
			return nil, err
		}
		name, ok := req.Field("name")
		if !ok {
			return nil, errInvalidRequest
		}
		if err := h.svc.RenameTask(ctx, id, name); err != nil {
			return nil, err
		}
		return &ActionResponse{Success: true}, nil

	case "filter":
		status, ok := req.Field("status")
		if !ok {
			return nil, errInvalidRequest
		}
		tasks, err := h.svc.FilterTasks(ctx, status)
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		if err := renderRows(&buf, tasks); err != nil {
			return nil, err
		}
		html := buf.String()
		return &ActionResponse{Success: true, HTML: &html}, nil
	}
	return nil, errInvalidRequest
}

// Report streams a PDF of the tasks, optionally filtered by the status query parameter.
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), reportGenerationTimeout)
	defer cancel()

	data, err := h.svc.GenerateReport(ctx, r.URL.Query().Get("status"))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			http.Error(w, "report generation timeout", http.StatusGatewayTimeout)
			return
		}
		logError(r, "generate report", err)
		http.Error(w, domain.Message(err), httpStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=tasks.pdf")
	_, _ = w.Write(data)
}

func decodeActionRequest(w http.ResponseWriter, r *http.Request) (ActionRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseMultipartForm(maxFormBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return ActionRequest{}, err
	}
	return ActionRequest{
		Action: r.PostForm.Get("action"),
		Fields: r.PostForm,
	}, nil
}

func requireID(req ActionRequest) (int, error) {
	raw, ok := req.Field("id")
	if !ok {
		return 0, errInvalidRequest
	}
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, domain.Validation("Task ID must be an integer")
	}
	return id, nil
}

func httpStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeActionError(w http.ResponseWriter, r *http.Request, err error) {
	status := httpStatus(err)
	if status >= http.StatusInternalServerError {
		logError(r, "action failed", err)
	} else {
		slog.Warn("action rejected", "error", err, "request_id", RequestID(r.Context()))
	}
	writeJSON(w, status, ActionResponse{Success: false, Message: domain.Message(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func logError(r *http.Request, msg string, err error) {
	slog.Error(msg, "error", err, "path", r.URL.Path, "request_id", RequestID(r.Context()))
}
