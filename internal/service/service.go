package service

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"gitlab.com/dirk.krummacker/contacts-api/internal/auth"
	"gitlab.com/dirk.krummacker/contacts-api/internal/config"
	"gitlab.com/dirk.krummacker/contacts-api/internal/store"
	"gitlab.com/dirk.krummacker/contacts-api/internal/store/filestore"
	"gitlab.com/dirk.krummacker/contacts-api/internal/store/mongostore"
	"gitlab.com/dirk.krummacker/contacts-api/internal/store/sqlstore"
	"gitlab.com/dirk.krummacker/contacts-api/internal/validation"
	pkgmodel "gitlab.com/dirk.krummacker/contacts-api/pkg/model"
)

// pingTimeout bounds the store check of the health endpoint.
const pingTimeout = 2 * time.Second

// Options configure the HTTP router.
type Options struct {
	// Authenticate resolves the owner of each request, see auth.Middleware and auth.Anonymous.
	// Requests are anonymous if it is nil.
	Authenticate gin.HandlerFunc

	// Logger receives request logs and unexpected errors. A default logger is used if it is nil.
	Logger *logrus.Logger

	// RequestLogging writes one log entry per request.
	RequestLogging bool

	// PageSize is the number of contacts listed if a request does not specify a limit.
	PageSize int

	// Registry collects the HTTP metrics and is exposed on /metrics. Metrics are off if it is nil.
	Registry *prometheus.Registry
}

// Handler serves the contacts API on top of a store.
type Handler struct {
	store    store.Store
	logger   *logrus.Logger
	pageSize int
}

// CreateStore opens the store selected by the configuration. SQL databases get the contacts
// table created if it is missing.
func CreateStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch {
	case cfg.IsSQL():
		db, err := sqlstore.Open(cfg.StoreDriver, cfg.DSN())
		if err != nil {
			return nil, err
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("ping %s database: %w", cfg.StoreDriver, err)
		}
		if err := sqlstore.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate %s database: %w", cfg.StoreDriver, err)
		}
		s, err := sqlstore.New(db)
		if err != nil {
			db.Close()
			return nil, err
		}
		return s, nil
	case cfg.StoreDriver == config.DriverMongoDB:
		return mongostore.Open(ctx, cfg.DSN(), cfg.MongoDatabase)
	case cfg.StoreDriver == config.DriverFile:
		return filestore.Open(cfg.DataFile)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// SetupHttpRouter initializes the REST API router and registers all endpoints.
func SetupHttpRouter(s store.Store, opts Options) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.PageSize < 1 {
		opts.PageSize = 20
	}
	if opts.Authenticate == nil {
		opts.Authenticate = auth.Anonymous()
	}
	h := &Handler{store: s, logger: opts.Logger, pageSize: opts.PageSize}

	router := gin.New()
	if opts.RequestLogging {
		router.Use(requestLogger(opts.Logger))
	} else {
		opts.Logger.Info("Turning off HTTP request logging.")
	}
	router.Use(gin.CustomRecovery(recovered(opts.Logger)))
	if opts.Registry != nil {
		router.Use(newMetrics(opts.Registry).middleware())
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{})))
	}
	router.GET("/healthz", h.health)

	contacts := router.Group("/api/contacts", opts.Authenticate)
	contacts.GET("", h.findContacts)
	contacts.POST("", h.createContact)
	contacts.GET("/:id", h.findContactByID)
	contacts.PUT("/:id", h.updateContactByID)
	contacts.PATCH("/:id/favorite", h.updateFavoriteByID)
	contacts.DELETE("/:id", h.deleteContactByID)
	return router
}

// health responds with the OK status code if the store can be reached.
//
// Example REST API call:
//
//	> curl http://localhost:8080/healthz
func (h *Handler) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
	defer cancel()
	if err := h.store.Ping(ctx); err != nil {
		h.logger.WithError(err).Warn("store is not reachable")
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"message": "store unavailable"})
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"message": "ok"})
}

// findContacts responds with one page of the caller's contacts as JSON, sorted by name.
//
// The URL parameter 'page' selects the page, starting at 1. The URL parameter 'limit' specifies
// how many contacts are on a page. If the URL parameter 'favorite' is 'true' or 'false', only
// contacts with that favorite status are returned.
//
// An empty list is a valid result.
//
// REST API calls:
//
//	> curl -H "Authorization: Bearer $TOKEN" "http://localhost:8080/api/contacts"
//	> curl -H "Authorization: Bearer $TOKEN" "http://localhost:8080/api/contacts?page=2&limit=10"
//	> curl -H "Authorization: Bearer $TOKEN" "http://localhost:8080/api/contacts?favorite=true"
func (h *Handler) findContacts(c *gin.Context) {
	page, success := parsePageAndLimit(c, h.pageSize)
	if !success {
		return
	}
	favorite, success := parseFavorite(c)
	if !success {
		return
	}
	filter := filterFor(auth.Owner(c), favorite)
	contacts, err := h.store.List(c.Request.Context(), filter, page)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, contacts)
}

// createContact stores the contact specified in the request's JSON for the caller. It responds
// with the full contact data including the newly assigned id.
//
// Example REST API call:
//
//	> curl http://localhost:8080/api/contacts --request "POST" --include --header "Authorization: Bearer $TOKEN" --header "Content-Type: application/json" --data '{"name": "Hans Wurst", "email": "hans@example.com", "phone": "0815"}'
func (h *Handler) createContact(c *gin.Context) {
	var input pkgmodel.ContactInput
	if err := bindJSON(c, &input); err != nil {
		h.respondError(c, err)
		return
	}
	fields, err := validation.Create(input)
	if err != nil {
		h.respondError(c, err)
		return
	}
	contact, err := h.store.Insert(c.Request.Context(), fields, auth.Owner(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.IndentedJSON(http.StatusCreated, contact)
}

// findContactByID locates the caller's contact whose ID value matches the id parameter of the
// request URL, then returns that contact as a response.
//
// Example REST API call:
//
//	> curl -H "Authorization: Bearer $TOKEN" http://localhost:8080/api/contacts/0b5f5f6e-8a4c-4f0e-9a57-6f4f1c1a2b3c
func (h *Handler) findContactByID(c *gin.Context) {
	id, success := parseId(c)
	if !success {
		return
	}
	contact, err := h.store.FindOne(c.Request.Context(), id, auth.Owner(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, contact)
}

// updateContactByID updates the caller's contact whose ID value matches the id parameter of the
// request URL with the values specified in the JSON (and only those), and finally responds with
// the new version of the contact.
//
// Example REST API calls:
//
//	> curl http://localhost:8080/api/contacts/0b5f5f6e-8a4c-4f0e-9a57-6f4f1c1a2b3c --request "PUT" --include --header "Authorization: Bearer $TOKEN" --header "Content-Type: application/json" --data '{"phone": "81970"}'
//	> curl http://localhost:8080/api/contacts/0b5f5f6e-8a4c-4f0e-9a57-6f4f1c1a2b3c --request "PUT" --include --header "Authorization: Bearer $TOKEN" --header "Content-Type: application/json" --data '{"name": "Rudi Völler", "email": "rudi@example.com"}'
func (h *Handler) updateContactByID(c *gin.Context) {
	id, success := parseId(c)
	if !success {
		return
	}
	var patch pkgmodel.ContactPatch
	if err := bindJSON(c, &patch); err != nil {
		h.respondError(c, err)
		return
	}
	changes, err := validation.Update(patch)
	if err != nil {
		h.respondError(c, err)
		return
	}
	contact, err := h.store.Update(c.Request.Context(), id, auth.Owner(c), changes)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, contact)
}

// updateFavoriteByID sets the favorite status of the caller's contact whose ID value matches the
// id parameter of the request URL, and responds with the new version of the contact.
//
// Example REST API call:
//
//	> curl http://localhost:8080/api/contacts/0b5f5f6e-8a4c-4f0e-9a57-6f4f1c1a2b3c/favorite --request "PATCH" --include --header "Authorization: Bearer $TOKEN" --header "Content-Type: application/json" --data '{"favorite": true}'
func (h *Handler) updateFavoriteByID(c *gin.Context) {
	id, success := parseId(c)
	if !success {
		return
	}
	var input pkgmodel.FavoriteInput
	if err := bindJSON(c, &input); err != nil {
		h.respondError(c, err)
		return
	}
	changes, err := validation.Favorite(input)
	if err != nil {
		h.respondError(c, err)
		return
	}
	contact, err := h.store.Update(c.Request.Context(), id, auth.Owner(c), changes)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, contact)
}

// deleteContactByID deletes the caller's contact whose ID value matches the id parameter of the
// request URL.
//
// Example REST API call:
//
//	> curl -H "Authorization: Bearer $TOKEN" http://localhost:8080/api/contacts/0b5f5f6e-8a4c-4f0e-9a57-6f4f1c1a2b3c --request "DELETE"
func (h *Handler) deleteContactByID(c *gin.Context) {
	id, success := parseId(c)
	if !success {
		return
	}
	if err := h.store.Delete(c.Request.Context(), id, auth.Owner(c)); err != nil {
		h.respondError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"message": "contact deleted"})
}
