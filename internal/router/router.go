// Package router exposes the HTTP API. Every route that touches persistence
// runs inside a storage session acquired when the request arrives and
// released when the handler returns.
package router

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	validator "github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/docsvc/internal/auth"
	"github.com/patric-chuzhbe/docsvc/internal/db/storage"
	"github.com/patric-chuzhbe/docsvc/internal/documents"
	"github.com/patric-chuzhbe/docsvc/internal/logger"
	"github.com/patric-chuzhbe/docsvc/internal/models"
)

type documentAnalyzer interface {
	AnalyzeDocument(ctx context.Context, content string) (string, error)
}

type contextKey string

const sessionKey contextKey = "storageSession"

// Router holds the dependencies shared by all handlers.
type Router struct {
	db         storage.Storage
	analyzer   documentAnalyzer
	bcryptCost int
	validate   *validator.Validate
}

// New builds the chi mux with all routes and middlewares.
func New(db storage.Storage, analyzer documentAnalyzer, bcryptCost int) *chi.Mux {
	myRouter := &Router{
		db:         db,
		analyzer:   analyzer,
		bcryptCost: bcryptCost,
		validate:   validator.New(),
	}

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		logger.WithLoggingHTTPMiddleware,
		middleware.Recoverer,
		middleware.Compress(5, "application/json"),
	)

	router.Get(`/ping`, myRouter.GetPing)
	router.Post(`/analyze/`, myRouter.PostAnalyze)

	router.Group(func(r chi.Router) {
		r.Use(myRouter.withSession)
		r.Post(`/users/`, myRouter.PostUsers)
		r.Post(`/login/`, myRouter.PostLogin)
		r.Post(`/documents/`, myRouter.PostDocuments)
		r.Get(`/documents/{user_id}`, myRouter.GetDocuments)
	})

	return router
}

// withSession acquires a storage session for the request and guarantees it
// is closed on every exit path, panics included.
func (router *Router) withSession(h http.Handler) http.Handler {
	handler := func(response http.ResponseWriter, request *http.Request) {
		session, err := router.db.NewSession(request.Context())
		if err != nil {
			logger.Log.Debugln("Error calling the `router.db.NewSession()`: ", zap.Error(err))
			writeError(response, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
			return
		}
		defer func() {
			if err := session.Close(); err != nil {
				logger.Log.Debugln("Error calling the `session.Close()`: ", zap.Error(err))
			}
		}()

		ctx := context.WithValue(request.Context(), sessionKey, session)
		h.ServeHTTP(response, request.WithContext(ctx))
	}

	return http.HandlerFunc(handler)
}

func sessionFromContext(ctx context.Context) storage.Session {
	session, _ := ctx.Value(sessionKey).(storage.Session)
	return session
}

// PostUsers registers a user from email, password and username.
func (router *Router) PostUsers(response http.ResponseWriter, request *http.Request) {
	var req models.CreateUserRequest
	if !router.bindRequest(response, request, &req) {
		return
	}

	usr, err := auth.New(sessionFromContext(request.Context()), router.bcryptCost).
		CreateUser(request.Context(), *req.Email, *req.Password, *req.Username)
	if err != nil {
		writeInternalError(response, "auth.CreateUser()", err)
		return
	}

	writeJSON(response, http.StatusOK, usr)
}

// PostLogin checks email and password. A mismatch of either answers 401.
func (router *Router) PostLogin(response http.ResponseWriter, request *http.Request) {
	var req models.LoginRequest
	if !router.bindRequest(response, request, &req) {
		return
	}

	usr, err := auth.New(sessionFromContext(request.Context()), router.bcryptCost).
		AuthenticateUser(request.Context(), *req.Email, *req.Password)
	if err != nil {
		writeInternalError(response, "auth.AuthenticateUser()", err)
		return
	}
	if usr == nil {
		writeError(response, http.StatusUnauthorized, "invalid email or password")
		return
	}

	writeJSON(response, http.StatusOK, usr)
}

// PostDocuments stores a document under user_id.
func (router *Router) PostDocuments(response http.ResponseWriter, request *http.Request) {
	var req models.CreateDocumentRequest
	if !router.bindRequest(response, request, &req) {
		return
	}

	doc, err := documents.New(sessionFromContext(request.Context())).
		CreateDocument(request.Context(), *req.UserID, *req.Title, *req.Content)
	if err != nil {
		writeInternalError(response, "documents.CreateDocument()", err)
		return
	}

	writeJSON(response, http.StatusOK, doc)
}

// GetDocuments lists the documents of the user in the path.
func (router *Router) GetDocuments(response http.ResponseWriter, request *http.Request) {
	userID := chi.URLParam(request, "user_id")

	docs, err := documents.New(sessionFromContext(request.Context())).
		GetUserDocuments(request.Context(), userID)
	if err != nil {
		writeInternalError(response, "documents.GetUserDocuments()", err)
		return
	}

	writeJSON(response, http.StatusOK, docs)
}

// PostAnalyze returns the completion API's analysis of content as a JSON string.
func (router *Router) PostAnalyze(response http.ResponseWriter, request *http.Request) {
	var req models.AnalyzeRequest
	if !router.bindRequest(response, request, &req) {
		return
	}

	analysis, err := router.analyzer.AnalyzeDocument(request.Context(), *req.Content)
	if err != nil {
		writeInternalError(response, "router.analyzer.AnalyzeDocument()", err)
		return
	}

	writeJSON(response, http.StatusOK, analysis)
}

// GetPing reports whether storage is reachable.
func (router *Router) GetPing(response http.ResponseWriter, request *http.Request) {
	if err := router.db.Ping(request.Context()); err != nil {
		writeInternalError(response, "router.db.Ping()", err)
		return
	}

	response.WriteHeader(http.StatusOK)
}

// bindRequest fills dst from a JSON body, or from query and form fields
// otherwise, then validates it. A field counts as missing only when its key
// is absent; empty values are accepted. On failure it answers 422 and
// returns false.
func (router *Router) bindRequest(response http.ResponseWriter, request *http.Request, dst any) bool {
	err := decodeRequest(request, dst)
	if err == nil {
		err = router.validate.Struct(dst)
	}
	if err != nil {
		logger.Log.Debugln("Error binding the request: ", zap.Error(err))
		writeError(response, http.StatusUnprocessableEntity, err.Error())
		return false
	}

	return true
}

func decodeRequest(request *http.Request, dst any) error {
	if strings.HasPrefix(request.Header.Get("Content-Type"), "application/json") {
		return json.NewDecoder(request.Body).Decode(dst)
	}

	if err := request.ParseForm(); err != nil {
		return err
	}
	fields := make(map[string]string, len(request.Form))
	for key := range request.Form {
		fields[key] = request.Form.Get(key)
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return err
	}

	return json.Unmarshal(raw, dst)
}

func writeInternalError(response http.ResponseWriter, call string, err error) {
	logger.Log.Debugln("Error calling the `"+call+"`: ", zap.Error(err))
	writeError(response, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}

func writeError(response http.ResponseWriter, status int, detail string) {
	writeJSON(response, status, models.ErrorResponse{Detail: detail})
}

func writeJSON(response http.ResponseWriter, status int, body any) {
	response.Header().Set("Content-Type", "application/json")
	response.WriteHeader(status)

	if err := json.NewEncoder(response).Encode(body); err != nil {
		logger.Log.Debugln("Error encoding the response: ", zap.Error(err))
	}
}
