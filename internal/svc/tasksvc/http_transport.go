package tasksvc

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/mkrupp/homecase-todo/internal/domain"
	context_ "github.com/mkrupp/homecase-todo/internal/infra/context"
	"github.com/mkrupp/homecase-todo/internal/infra/logging"
	http_ "github.com/mkrupp/homecase-todo/internal/infra/transport/http"
	"github.com/mkrupp/homecase-todo/internal/infra/view"
)

// Messages shown to the user after a failed task operation.
const (
	MsgEmptyContent   = "Task content cannot be empty"
	MsgContentTooLong = "Task content cannot exceed 200 characters"
	MsgCreateFailed   = "There was an issue adding your task."
	MsgDeleteOthers   = "You can only delete your own tasks."
	MsgDeleteFailed   = "There was a problem deleting the task."
	MsgUpdateOthers   = "You can only update your own tasks."
	MsgUpdateFailed   = "There was an issue updating your task."
)

// HTTPTransport handles the task pages. Every route requires an
// authenticated user.
type HTTPTransport struct {
	taskSvc  *TaskService
	sessions http_.SessionStore
	respond  *http_.Responder
	log      logging.Logger
}

// NewHTTPTransport creates a new HTTPTransport for the given TaskService.
func NewHTTPTransport(taskSvc *TaskService, sessions http_.SessionStore, renderer view.Renderer) *HTTPTransport {
	log := logging.GetLogger("svc.tasksvc.http_transport")

	return &HTTPTransport{
		taskSvc:  taskSvc,
		sessions: sessions,
		respond:  &http_.Responder{Sessions: sessions, Renderer: renderer, Log: log},
		log:      log,
	}
}

// Routes registers the task endpoints on mux:
// - GET /index: List the user's tasks
// - POST /index: Create a task
// - POST /delete/{id}: Delete a task
// - GET /update/{id}: Show the update form
// - POST /update/{id}: Update a task.
//
// The handlers expect the request context to be prepared by http_.SessionMiddleware.
func (ht *HTTPTransport) Routes(mux *http.ServeMux) {
	mux.Handle("GET /index", ht.requireUser(ht.HandleList))
	mux.Handle("POST /index", ht.requireUser(ht.HandleCreate))
	mux.Handle("POST /delete/{id}", ht.requireUser(ht.HandleDelete))
	mux.Handle("GET /update/{id}", ht.requireUser(ht.HandleUpdateForm))
	mux.Handle("POST /update/{id}", ht.requireUser(ht.HandleUpdate))
}

func (ht *HTTPTransport) requireUser(fn func(http.ResponseWriter, *http.Request, *domain.User)) http.Handler {
	return http_.AuthenticatingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := context_.UserFromContext(r.Context())
		if !ok {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)

			return
		}

		fn(w, r, user)
	}), ht.sessions, ht.log)
}

// HandleList renders the user's tasks.
func (ht *HTTPTransport) HandleList(w http.ResponseWriter, r *http.Request, user *domain.User) {
	tasks, err := ht.taskSvc.ListTasks(r.Context(), user)
	if err != nil {
		ht.log.ErrorContext(r.Context(), "list tasks failed", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)

		return
	}

	ht.respond.Render(w, r, http.StatusOK, view.PageIndex, view.Data{"tasks": tasks})
}

// HandleCreate adds a task for the user and redirects back to the list.
func (ht *HTTPTransport) HandleCreate(w http.ResponseWriter, r *http.Request, user *domain.User) {
	if _, err := ht.taskSvc.CreateTask(r.Context(), user, r.PostFormValue("content")); err != nil {
		ht.respond.RedirectWithError(w, r, http_.HomePath, contentErrorMessage(err, MsgCreateFailed))

		return
	}

	ht.respond.Redirect(w, r, http_.HomePath)
}

// HandleDelete removes a task of the user.
func (ht *HTTPTransport) HandleDelete(w http.ResponseWriter, r *http.Request, user *domain.User) {
	taskID, ok := pathTaskID(r)
	if !ok {
		ht.respond.NotFound(w, r)

		return
	}

	err := ht.taskSvc.DeleteTask(r.Context(), user, taskID)

	switch {
	case err == nil:
		ht.respond.Redirect(w, r, http_.HomePath)
	case errors.Is(err, domain.ErrTaskNotFound):
		ht.respond.NotFound(w, r)
	case errors.Is(err, domain.ErrForbidden):
		ht.respond.RedirectWithError(w, r, http_.HomePath, MsgDeleteOthers)
	default:
		ht.respond.RedirectWithError(w, r, http_.HomePath, MsgDeleteFailed)
	}
}

// HandleUpdateForm renders the update form for a task of the user.
func (ht *HTTPTransport) HandleUpdateForm(w http.ResponseWriter, r *http.Request, user *domain.User) {
	task, ok := ht.ownedTask(w, r, user)
	if !ok {
		return
	}

	ht.respond.Render(w, r, http.StatusOK, view.PageUpdate, view.Data{"task": task})
}

// HandleUpdate replaces the content of a task of the user. Failures re-render
// the form in place instead of redirecting.
func (ht *HTTPTransport) HandleUpdate(w http.ResponseWriter, r *http.Request, user *domain.User) {
	task, ok := ht.ownedTask(w, r, user)
	if !ok {
		return
	}

	_, err := ht.taskSvc.UpdateTask(r.Context(), user, task.ID, r.PostFormValue("content"))

	switch {
	case err == nil:
		ht.respond.Redirect(w, r, http_.HomePath)
	case errors.Is(err, domain.ErrTaskNotFound):
		ht.respond.NotFound(w, r)
	case errors.Is(err, domain.ErrForbidden):
		ht.respond.RedirectWithError(w, r, http_.HomePath, MsgUpdateOthers)
	case errors.Is(err, domain.ErrEmptyContent), errors.Is(err, domain.ErrContentTooLong):
		ht.respond.Render(w, r, http.StatusUnprocessableEntity, view.PageUpdate, view.Data{
			"task":          task,
			"error_message": contentErrorMessage(err, MsgUpdateFailed),
		})
	default:
		ht.respond.Render(w, r, http.StatusOK, view.PageUpdate, view.Data{
			"task":          task,
			"error_message": MsgUpdateFailed,
		})
	}
}

// ownedTask loads the task named in the path. It answers the request itself
// and returns false if the task is unknown or not owned by user.
func (ht *HTTPTransport) ownedTask(w http.ResponseWriter, r *http.Request, user *domain.User) (*domain.Task, bool) {
	taskID, ok := pathTaskID(r)
	if !ok {
		ht.respond.NotFound(w, r)

		return nil, false
	}

	task, err := ht.taskSvc.GetOwnedTask(r.Context(), user, taskID)

	switch {
	case err == nil:
		return task, true
	case errors.Is(err, domain.ErrTaskNotFound):
		ht.respond.NotFound(w, r)
	case errors.Is(err, domain.ErrForbidden):
		ht.respond.RedirectWithError(w, r, http_.HomePath, MsgUpdateOthers)
	default:
		ht.log.ErrorContext(r.Context(), "get task failed", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}

	return nil, false
}

func pathTaskID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}

	return id, true
}

func contentErrorMessage(err error, fallback string) string {
	switch {
	case errors.Is(err, domain.ErrEmptyContent):
		return MsgEmptyContent
	case errors.Is(err, domain.ErrContentTooLong):
		return MsgContentTooLong
	default:
		return fallback
	}
}
