// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package patron

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/libris/internal/platform/middleware"
	requestutil "github.com/taibuivan/libris/internal/platform/request"
	"github.com/taibuivan/libris/internal/platform/respond"
	"github.com/taibuivan/libris/internal/platform/sec"
	"github.com/taibuivan/libris/pkg/pagination"
	"github.com/taibuivan/libris/pkg/query"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Group(func(staffRoute chi.Router) {
		staffRoute.Use(middleware.RequireRole(sec.RoleVolunteer))

		staffRoute.Get("/", handler.listPatrons)
		staffRoute.Get("/{id}", handler.getPatron)

		staffRoute.Group(func(deskRoute chi.Router) {
			deskRoute.Use(middleware.RequireRole(sec.RoleLibrarian))

			deskRoute.Post("/", handler.registerPatron)
			deskRoute.Patch("/{id}", handler.updatePatron)

			// Admin strict only
			deskRoute.With(middleware.RequireRole(sec.RoleAdmin)).Post("/{id}/deactivate", handler.deactivate)
			deskRoute.With(middleware.RequireRole(sec.RoleAdmin)).Post("/{id}/activate", handler.reactivate)
		})
	})
}

func (handler *Handler) listPatrons(writer http.ResponseWriter, request *http.Request) {
	paginationParams := pagination.FromRequest(request)
	values := request.URL.Query()

	filter := Filter{
		Query:  values.Get("q"),
		Active: query.Bool(values.Get("active")),
	}

	patrons, total, err := handler.service.ListPatrons(request.Context(), filter, paginationParams.Limit, paginationParams.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, patrons, pagination.NewMeta(paginationParams.Page, paginationParams.Limit, total))
}

func (handler *Handler) getPatron(writer http.ResponseWriter, request *http.Request) {
	standing, err := handler.service.GetStanding(request.Context(), requestutil.Param(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, standing)
}

type patronInput struct {
	PatronCode      string `json:"patron_code"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Address         string `json:"address"`
	MaxBooksAllowed int    `json:"max_books_allowed"`
}

func (input patronInput) patron() *Patron {
	return &Patron{
		PatronCode:      input.PatronCode,
		Name:            input.Name,
		Email:           input.Email,
		Phone:           input.Phone,
		Address:         input.Address,
		MaxBooksAllowed: input.MaxBooksAllowed,
	}
}

func (handler *Handler) registerPatron(writer http.ResponseWriter, request *http.Request) {
	var input patronInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	patron := input.patron()
	if err := handler.service.RegisterPatron(request.Context(), patron); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, patron)
}

func (handler *Handler) updatePatron(writer http.ResponseWriter, request *http.Request) {
	var input patronInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	patron := input.patron()
	if err := handler.service.UpdatePatron(request.Context(), requestutil.Param(request, "id"), patron); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, patron)
}

func (handler *Handler) deactivate(writer http.ResponseWriter, request *http.Request) {
	patron, err := handler.service.Deactivate(request.Context(), requestutil.Param(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, patron)
}

func (handler *Handler) reactivate(writer http.ResponseWriter, request *http.Request) {
	patron, err := handler.service.Reactivate(request.Context(), requestutil.Param(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, patron)
}
