package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/storefront/storefront-api/internal/api/handler"
	mw "github.com/storefront/storefront-api/internal/api/middleware"
	"github.com/storefront/storefront-api/internal/core/policy"
)

// route binds a handler to the requirement the gate enforces for it.
type route struct {
	method  string
	path    string
	handler echo.HandlerFunc
	req     mw.Requirement
}

type handlers struct {
	users      *handler.UserHandler
	products   *handler.ProductHandler
	categories *handler.CategoryHandler
	tasks      *handler.TaskHandler
}

// routes is the policy table. Every API route appears here exactly once.
func routes(h handlers) []route {
	var (
		read   = policy.ActionRead
		create = policy.ActionCreate
		update = policy.ActionUpdate
		del    = policy.ActionDelete
		manage = policy.ActionManage
	)

	return []route{
		// users
		{http.MethodPost, "/user", h.users.Signup, mw.Public()},
		{http.MethodPost, "/user/login", h.users.Login, mw.Public()},
		{http.MethodPost, "/user/login/verify-login-code", h.users.VerifyLoginCode, mw.Public()},
		{http.MethodPost, "/user/verify-email", h.users.VerifyEmail, mw.Public()},
		{http.MethodGet, "/user/verify-email", h.users.VerifyEmailLink, mw.Public()},
		{http.MethodPut, "/user/refresh-token", h.users.Refresh, mw.Require(update, policy.SubjectUser, mw.OwnerSelf)},
		{http.MethodGet, "/user", h.users.List, mw.Require(read, policy.SubjectUser, mw.OwnerNone)},
		{http.MethodGet, "/user/em/:email", h.users.GetByEmail, mw.Require(read, policy.SubjectUser, mw.OwnerParamEmail)},
		{http.MethodGet, "/user/:id", h.users.Get, mw.Require(read, policy.SubjectUser, mw.OwnerParamID)},
		{http.MethodPut, "/user/:id/password", h.users.ChangePassword, mw.Require(update, policy.SubjectUser, mw.OwnerParamID)},
		{http.MethodPut, "/user/:id/verify", h.users.MarkVerified, mw.Require(manage, policy.SubjectUser, mw.OwnerNone)},
		{http.MethodDelete, "/user/:id", h.users.Delete, mw.Require(del, policy.SubjectUser, mw.OwnerParamID)},

		// products
		{http.MethodGet, "/products", h.products.List, mw.Public()},
		{http.MethodGet, "/products/:id", h.products.Get, mw.Public()},
		{http.MethodPost, "/products", h.products.Create, mw.Require(create, policy.SubjectProduct, mw.OwnerNone)},
		{http.MethodPut, "/products/:id", h.products.Update, mw.Require(update, policy.SubjectProduct, mw.OwnerNone)},
		{http.MethodDelete, "/products/:id", h.products.Delete, mw.Require(del, policy.SubjectProduct, mw.OwnerNone)},

		// categories
		{http.MethodGet, "/categories", h.categories.List, mw.Require(read, policy.SubjectCategory, mw.OwnerNone)},
		{http.MethodGet, "/categories/:id", h.categories.Get, mw.Require(read, policy.SubjectCategory, mw.OwnerNone)},
		{http.MethodPost, "/categories", h.categories.Create, mw.Require(create, policy.SubjectCategory, mw.OwnerNone)},
		{http.MethodPut, "/categories/:id", h.categories.Update, mw.Require(update, policy.SubjectCategory, mw.OwnerNone)},
		{http.MethodDelete, "/categories/:id", h.categories.Delete, mw.Require(del, policy.SubjectCategory, mw.OwnerNone)},

		// tasks: ownership is checked against the loaded task
		{http.MethodGet, "/tasks", h.tasks.List, mw.Require(read, policy.SubjectTask, mw.OwnerDeferred)},
		{http.MethodGet, "/tasks/:id", h.tasks.Get, mw.Require(read, policy.SubjectTask, mw.OwnerDeferred)},
		{http.MethodPost, "/tasks", h.tasks.Create, mw.Require(create, policy.SubjectTask, mw.OwnerSelf)},
		{http.MethodPut, "/tasks/:id", h.tasks.Update, mw.Require(update, policy.SubjectTask, mw.OwnerDeferred)},
		{http.MethodDelete, "/tasks/:id", h.tasks.Delete, mw.Require(del, policy.SubjectTask, mw.OwnerDeferred)},
	}
}
