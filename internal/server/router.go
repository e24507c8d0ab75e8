// Package server assembles the HTTP API: routes, gates, rate limits and
// the http.Server lifecycle.
package server

import (
	"net/http"

	"github.com/gorilla/mux"

	"pixelwerk.nl/backoffice/internal/access"
	"pixelwerk.nl/backoffice/internal/common"
	"pixelwerk.nl/backoffice/internal/config"
	"pixelwerk.nl/backoffice/internal/features/analytics"
	"pixelwerk.nl/backoffice/internal/features/attachments"
	"pixelwerk.nl/backoffice/internal/features/auth"
	"pixelwerk.nl/backoffice/internal/features/companies"
	"pixelwerk.nl/backoffice/internal/features/customers"
	"pixelwerk.nl/backoffice/internal/features/leads"
	"pixelwerk.nl/backoffice/internal/features/quotes"
	"pixelwerk.nl/backoffice/internal/features/users"
	"pixelwerk.nl/backoffice/internal/ratelimit"
	"pixelwerk.nl/backoffice/internal/server/middleware"
)

// Handlers are the feature handlers the router mounts.
type Handlers struct {
	Auth        *auth.Handler
	Users       *users.Handler
	Leads       *leads.Handler
	Attachments *attachments.Handler
	Quotes      *quotes.Handler
	Customers   *customers.Handler
	Analytics   *analytics.Handler
	Companies   *companies.Handler
	// Debug is mounted only when non-nil.
	Debug http.HandlerFunc
}

// Quotas per rate-limit category.
type Quotas struct {
	Login    ratelimit.Quota
	Contact  ratelimit.Quota
	Postcode ratelimit.Quota
	API      ratelimit.Quota
}

// QuotasFromConfig reads the RATE_LIMIT_* settings.
func QuotasFromConfig(cfg *config.Config) Quotas {
	return Quotas{
		Login:    ratelimit.Quota{Max: cfg.RateLimitLoginRequests, Window: cfg.RateLimitLoginWindow},
		Contact:  ratelimit.Quota{Max: cfg.RateLimitContactRequests, Window: cfg.RateLimitContactWindow},
		Postcode: ratelimit.Quota{Max: cfg.RateLimitPostcodeRequests, Window: cfg.RateLimitPostcodeWindow},
		API:      ratelimit.Quota{Max: cfg.RateLimitAPIRequests, Window: cfg.RateLimitAPIWindow},
	}
}

// RouterConfig bundles what NewRouter needs besides the handlers.
type RouterConfig struct {
	Gate      *auth.Gate
	Limiter   *ratelimit.Limiter
	Quotas    Quotas
	ProxyHops int
}

// NewRouter builds the /api routes.
func NewRouter(h Handlers, rc RouterConfig) http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.ClientIP(rc.ProxyHops), middleware.Recovery, middleware.Logger)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		common.WriteError(w, common.NewAPIError(http.StatusNotFound, "Niet gevonden"))
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		common.WriteError(w, common.NewAPIError(http.StatusMethodNotAllowed, "Methode niet toegestaan"))
	})

	g := rc.Gate
	limit := func(category string, q ratelimit.Quota) func(http.Handler) http.Handler {
		return middleware.RateLimit(rc.Limiter, category, q)
	}
	apiLimit := limit("api", rc.Quotas.API)

	// need wraps a handler in the api quota and the capability gate.
	need := func(c access.Capability, fn http.HandlerFunc) http.Handler {
		return apiLimit(g.Require(c, fn))
	}
	authed := func(fn http.HandlerFunc) http.Handler {
		return apiLimit(g.Authenticated(fn))
	}
	superOnly := func(fn http.HandlerFunc) http.Handler {
		return apiLimit(g.RequireSuperAdmin(fn))
	}

	api := r.PathPrefix("/api").Subrouter()

	// Public.
	api.Handle("/auth/login", limit("login", rc.Quotas.Login)(http.HandlerFunc(h.Auth.Login))).Methods(http.MethodPost)
	api.Handle("/auth/test-login", limit("login", rc.Quotas.Login)(http.HandlerFunc(h.Auth.TestLogin))).Methods(http.MethodPost)
	api.HandleFunc("/auth/logout", h.Auth.Logout).Methods(http.MethodPost)
	api.Handle("/leads/submit", limit("contact", rc.Quotas.Contact)(http.HandlerFunc(h.Leads.Submit))).Methods(http.MethodPost)
	api.Handle("/postcode/{postcode}", limit("postcode", rc.Quotas.Postcode)(http.HandlerFunc(h.Companies.Postcode))).Methods(http.MethodGet)

	// Any admin.
	api.Handle("/auth/session", authed(h.Auth.Session)).Methods(http.MethodGet)
	api.Handle("/account/password", authed(h.Users.ChangePassword)).Methods(http.MethodPut)
	api.Handle("/dashboard", authed(h.Analytics.Dashboard)).Methods(http.MethodGet)

	// Leads.
	api.Handle("/leads", need(access.CapLeads, h.Leads.List)).Methods(http.MethodGet)
	api.Handle("/leads", need(access.CapLeads, h.Leads.Create)).Methods(http.MethodPost)
	api.Handle("/leads/{id}", need(access.CapLeads, h.Leads.Get)).Methods(http.MethodGet)
	api.Handle("/leads/{id}", need(access.CapLeads, h.Leads.Update)).Methods(http.MethodPatch)
	api.Handle("/leads/{id}", need(access.CapLeads, h.Leads.Delete)).Methods(http.MethodDelete)
	api.Handle("/leads/{id}/status", need(access.CapLeads, h.Leads.ChangeStatus)).Methods(http.MethodPatch)
	api.Handle("/leads/{id}/activities", need(access.CapLeads, h.Leads.Activities)).Methods(http.MethodGet)
	api.Handle("/leads/{id}/activities", need(access.CapLeads, h.Leads.AddActivity)).Methods(http.MethodPost)
	api.Handle("/leads/{id}/attachments", need(access.CapLeads, h.Attachments.List)).Methods(http.MethodGet)
	api.Handle("/leads/{id}/attachments", need(access.CapLeads, h.Attachments.Upload)).Methods(http.MethodPost)
	api.Handle("/attachments/{id}", need(access.CapLeads, h.Attachments.Download)).Methods(http.MethodGet)
	api.Handle("/attachments/{id}", need(access.CapLeads, h.Attachments.Delete)).Methods(http.MethodDelete)
	api.Handle("/leads/{id}/quotes", need(access.CapLeads, h.Quotes.ListByLead)).Methods(http.MethodGet)
	api.Handle("/leads/{id}/quotes", need(access.CapLeads, h.Quotes.Create)).Methods(http.MethodPost)
	api.Handle("/quotes/{id}", need(access.CapLeads, h.Quotes.Get)).Methods(http.MethodGet)
	api.Handle("/quotes/{id}", need(access.CapLeads, h.Quotes.Update)).Methods(http.MethodPut)
	api.Handle("/quotes/{id}/status", need(access.CapLeads, h.Quotes.ChangeStatus)).Methods(http.MethodPatch)
	api.Handle("/companies/search", need(access.CapLeads, h.Companies.Search)).Methods(http.MethodGet)

	// Customers.
	api.Handle("/leads/{id}/convert", need(access.CapCustomers, h.Customers.Convert)).Methods(http.MethodPost)
	api.Handle("/customers", need(access.CapCustomers, h.Customers.List)).Methods(http.MethodGet)
	api.Handle("/customers", need(access.CapCustomers, h.Customers.Create)).Methods(http.MethodPost)
	api.Handle("/customers/{id}", need(access.CapCustomers, h.Customers.Get)).Methods(http.MethodGet)
	api.Handle("/customers/{id}", need(access.CapCustomers, h.Customers.Update)).Methods(http.MethodPatch)

	// Analytics.
	api.Handle("/analytics", need(access.CapAnalytics, h.Analytics.Report)).Methods(http.MethodGet)

	// User management.
	api.Handle("/users", need(access.CapUsers, h.Users.List)).Methods(http.MethodGet)
	api.Handle("/users", need(access.CapUsers, h.Users.Create)).Methods(http.MethodPost)
	api.Handle("/users/{id}/capabilities", need(access.CapUsers, h.Users.SetCapability)).Methods(http.MethodPatch)
	api.Handle("/users/{id}/active", need(access.CapUsers, h.Users.SetActive)).Methods(http.MethodPatch)
	api.Handle("/users/{id}/role", superOnly(h.Users.SetRole)).Methods(http.MethodPut)

	if h.Debug != nil {
		api.Handle("/debug", superOnly(h.Debug)).Methods(http.MethodGet)
	}
	return r
}
