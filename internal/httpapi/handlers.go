// Package httpapi serves the code data as a JSON REST API.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sha1n/mcp-codemaster-server/internal/codemaster"
	"github.com/sha1n/mcp-codemaster-server/internal/codes"
	"github.com/sha1n/mcp-codemaster-server/internal/search"
	"github.com/sha1n/mcp-codemaster-server/internal/validation"
	"golang.org/x/text/language"
)

// Backend is the part of the code service the API needs.
type Backend interface {
	IsReady() bool
	Resolver() (*codes.Resolver, error)
	Validator() *validation.Validator
	Search(ctx context.Context, q search.Query) (*search.Result, error)
	Status() codemaster.Status
	Reload(ctx context.Context) error
}

var _ Backend = (*codemaster.Service)(nil)

// Handler serves the REST endpoints.
type Handler struct {
	backend Backend
	logger  *slog.Logger
}

// NewHandler creates a new handler.
func NewHandler(backend Backend, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{backend: backend, logger: logger}
}

// NewEcho returns an Echo instance with the API routes and middleware registered.
func NewEcho(backend Backend, logger *slog.Logger) *echo.Echo {
	h := NewHandler(backend, logger)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(h.requestLogger())
	e.Use(AcceptLanguage())
	h.RegisterRoutes(e)
	return e
}

// RegisterRoutes registers the API routes under /api.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api")
	api.GET("/codesets/:codeset/values", h.GetValues)
	api.GET("/codesets/:codeset/values/:value", h.GetValue)
	api.GET("/codesets/:codeset/contains/:value", h.GetContains)
	api.POST("/codesets/:codeset/validate", h.PostValidate)
	api.GET("/search", h.GetSearch)
	api.GET("/status", h.GetStatus)
	api.POST("/reload", h.PostReload)
}

func (h *Handler) requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency}
			if v.Error != nil {
				h.logger.WarnContext(c.Request().Context(), "API request failed", append(attrs, "error", v.Error)...)
				return nil
			}
			h.logger.DebugContext(c.Request().Context(), "API request", attrs...)
			return nil
		},
	})
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ValueItem is one value of a codeset listing.
type ValueItem struct {
	Value     string `json:"value"`
	Name      string `json:"name"`
	ShortName string `json:"short_name"`
}

// ValuesResponse lists the values of a codeset in locale order.
type ValuesResponse struct {
	Codeset string      `json:"codeset"`
	Pattern string      `json:"pattern,omitempty"`
	Locale  string      `json:"locale"`
	Values  []ValueItem `json:"values"`
}

// ValueResponse describes one value. Column and Option are set when an
// option column was requested.
type ValueResponse struct {
	Codeset   string `json:"codeset"`
	Value     string `json:"value"`
	Locale    string `json:"locale"`
	Name      string `json:"name,omitempty"`
	ShortName string `json:"short_name,omitempty"`
	Column    string `json:"column,omitempty"`
	Option    string `json:"option,omitempty"`
}

// ContainsResponse reports membership of a value.
type ContainsResponse struct {
	Codeset string `json:"codeset"`
	Value   string `json:"value"`
	Pattern string `json:"pattern,omitempty"`
	Member  bool   `json:"member"`
}

// ValidateRequest is the body of a validation request.
type ValidateRequest struct {
	Pattern   string   `json:"pattern"`
	MessageID string   `json:"message_id"`
	Values    []string `json:"values"`
}

// GetValues lists the values of a codeset, optionally restricted to a pattern.
func (h *Handler) GetValues(c echo.Context) error {
	resolver, err := h.resolver()
	if err != nil {
		return h.fail(c, err)
	}
	ctx := c.Request().Context()
	codeset := c.Param("codeset")
	pattern := c.QueryParam("pattern")

	locale, err := h.locale(c, resolver)
	if err != nil {
		return h.fail(c, err)
	}

	// The listing and its names come from one snapshot; a reload in between
	// must not fail a value that was just listed.
	cs, err := resolver.CodeSet(ctx, codeset)
	if err != nil {
		return h.fail(c, err)
	}

	var values []string
	if pattern == "" {
		values, err = cs.Values(locale)
	} else {
		values, err = cs.ValuesInPattern(pattern, locale)
	}
	if err != nil {
		return h.fail(c, err)
	}

	items := make([]ValueItem, 0, len(values))
	for _, value := range values {
		name, err := cs.Name(value, locale)
		if err != nil {
			return h.fail(c, err)
		}
		shortName, err := cs.ShortName(value, locale)
		if err != nil {
			return h.fail(c, err)
		}
		items = append(items, ValueItem{Value: value, Name: name, ShortName: shortName})
	}

	return c.JSON(http.StatusOK, ValuesResponse{
		Codeset: codeset,
		Pattern: pattern,
		Locale:  locale.String(),
		Values:  items,
	})
}

// GetValue resolves the names of one value, or one option column when the
// column query parameter is given.
func (h *Handler) GetValue(c echo.Context) error {
	resolver, err := h.resolver()
	if err != nil {
		return h.fail(c, err)
	}
	codeset := c.Param("codeset")
	value := c.Param("value")
	column := c.QueryParam("column")

	locale, err := h.locale(c, resolver)
	if err != nil {
		return h.fail(c, err)
	}
	cs, err := resolver.CodeSet(c.Request().Context(), codeset)
	if err != nil {
		return h.fail(c, err)
	}
	resp := ValueResponse{Codeset: codeset, Value: value, Locale: locale.String()}

	if column != "" {
		option, err := cs.OptionalName(value, column, locale)
		if err != nil {
			return h.fail(c, err)
		}
		resp.Column = column
		resp.Option = option
		return c.JSON(http.StatusOK, resp)
	}

	if resp.Name, err = cs.Name(value, locale); err != nil {
		return h.fail(c, err)
	}
	if resp.ShortName, err = cs.ShortName(value, locale); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// GetContains reports whether a value belongs to a codeset or pattern.
func (h *Handler) GetContains(c echo.Context) error {
	resolver, err := h.resolver()
	if err != nil {
		return h.fail(c, err)
	}
	ctx := c.Request().Context()
	resp := ContainsResponse{
		Codeset: c.Param("codeset"),
		Value:   c.Param("value"),
		Pattern: c.QueryParam("pattern"),
	}

	if resp.Pattern == "" {
		resp.Member, err = resolver.Contains(ctx, resp.Codeset, resp.Value)
	} else {
		resp.Member, err = resolver.ContainsInPattern(ctx, resp.Codeset, resp.Pattern, resp.Value)
	}
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// PostValidate validates a list of values against a codeset.
func (h *Handler) PostValidate(c echo.Context) error {
	if !h.backend.IsReady() {
		return h.fail(c, errNotReady)
	}

	var req ValidateRequest
	if err := c.Bind(&req); err != nil {
		return h.fail(c, badRequest("invalid request body"))
	}

	ctx := c.Request().Context()
	if raw := c.QueryParam("locale"); raw != "" {
		locale, err := codes.ParseLocale(raw)
		if err != nil {
			return h.fail(c, badRequest("invalid locale "+strconv.Quote(raw)))
		}
		ctx = codes.WithLocale(ctx, locale)
	}

	rule := validation.Rule{
		CodesetID: c.Param("codeset"),
		Pattern:   req.Pattern,
		MessageID: req.MessageID,
	}
	result, err := h.backend.Validator().ValidateEach(ctx, rule, req.Values)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// GetSearch runs a full-text search over names.
func (h *Handler) GetSearch(c echo.Context) error {
	if !h.backend.IsReady() {
		return h.fail(c, errNotReady)
	}

	q := search.Query{
		Text:    c.QueryParam("q"),
		Codeset: c.QueryParam("codeset"),
		Locale:  c.QueryParam("locale"),
	}
	if strings.TrimSpace(q.Text) == "" {
		return h.fail(c, badRequest("query parameter q is required"))
	}
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return h.fail(c, badRequest("limit must be a positive integer"))
		}
		q.Limit = limit
	}

	result, err := h.backend.Search(c.Request().Context(), q)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// GetStatus returns the service status.
func (h *Handler) GetStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, h.backend.Status())
}

// PostReload reloads the code data and returns the new status.
func (h *Handler) PostReload(c echo.Context) error {
	if err := h.backend.Reload(c.Request().Context()); err != nil {
		return h.fail(c, err)
	}
	h.logger.InfoContext(c.Request().Context(), "Code data reloaded via API")
	return c.JSON(http.StatusOK, h.backend.Status())
}

func (h *Handler) resolver() (*codes.Resolver, error) {
	if !h.backend.IsReady() {
		return nil, errNotReady
	}
	return h.backend.Resolver()
}

// locale returns the effective locale: the locale query parameter, then the
// request-scoped locale, then the resolver default.
func (h *Handler) locale(c echo.Context, resolver *codes.Resolver) (language.Tag, error) {
	locale := language.Und
	if raw := c.QueryParam("locale"); raw != "" {
		tag, err := codes.ParseLocale(raw)
		if err != nil {
			return language.Und, badRequest("invalid locale " + strconv.Quote(raw))
		}
		locale = tag
	}
	return resolver.ResolveLocale(c.Request().Context(), locale), nil
}

var errNotReady = errors.New("code data is not loaded yet")

type badRequestError struct {
	msg string
}

func (e *badRequestError) Error() string { return e.msg }

func badRequest(msg string) error {
	return &badRequestError{msg: msg}
}

// StatusFor maps an error to the HTTP status reported for it.
func StatusFor(err error) int {
	var br *badRequestError
	switch {
	case errors.As(err, &br):
		return http.StatusBadRequest
	case errors.Is(err, validation.ErrNoCodeset):
		return http.StatusBadRequest
	case errors.Is(err, codes.ErrUnknownCodeset),
		errors.Is(err, codes.ErrUnknownPattern),
		errors.Is(err, codes.ErrUnknownValue),
		errors.Is(err, codes.ErrUnknownOptionColumn),
		errors.Is(err, codes.ErrUnknownLocaleData):
		return http.StatusNotFound
	case errors.Is(err, errNotReady),
		errors.Is(err, codes.ErrLoadFailure),
		errors.Is(err, codemaster.ErrSearchDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(c echo.Context, err error) error {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.ErrorContext(c.Request().Context(), "API request error", "path", c.Path(), "error", err)
	}
	return c.JSON(status, ErrorResponse{Error: err.Error()})
}
