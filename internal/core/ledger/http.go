// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package ledger

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/libris/internal/platform/middleware"
	requestutil "github.com/taibuivan/libris/internal/platform/request"
	"github.com/taibuivan/libris/internal/platform/respond"
	"github.com/taibuivan/libris/internal/platform/sec"
	"github.com/taibuivan/libris/pkg/pagination"
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

		staffRoute.Get("/issues/{id}", handler.getIssue)
		staffRoute.Get("/books/{id}/open-loan", handler.findOpenLoan)
		staffRoute.Get("/patrons/{id}/history", handler.listHistory)

		staffRoute.With(middleware.RequireRole(sec.RoleLibrarian)).Post("/issues/{id}/fine-paid", handler.markFinePaid)
	})
}

func (handler *Handler) getIssue(writer http.ResponseWriter, request *http.Request) {
	issue, err := handler.service.GetIssue(request.Context(), requestutil.Param(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, issue)
}

func (handler *Handler) findOpenLoan(writer http.ResponseWriter, request *http.Request) {
	issue, err := handler.service.FindOpenLoan(request.Context(), requestutil.Param(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, issue)
}

func (handler *Handler) listHistory(writer http.ResponseWriter, request *http.Request) {
	paginationParams := pagination.FromRequest(request)

	issues, total, err := handler.service.ListHistory(request.Context(), requestutil.Param(request, "id"),
		paginationParams.Limit, paginationParams.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, issues, pagination.NewMeta(paginationParams.Page, paginationParams.Limit, total))
}

func (handler *Handler) markFinePaid(writer http.ResponseWriter, request *http.Request) {
	issue, err := handler.service.MarkFinePaid(request.Context(), requestutil.Param(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, issue)
}
