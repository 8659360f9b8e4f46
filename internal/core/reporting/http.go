// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package reporting

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/libris/internal/platform/middleware"
	requestutil "github.com/taibuivan/libris/internal/platform/request"
	"github.com/taibuivan/libris/internal/platform/respond"
	"github.com/taibuivan/libris/internal/platform/sec"
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

		staffRoute.Get("/summary", handler.summary)
		staffRoute.Get("/activity", handler.activity)
	})
}

func (handler *Handler) summary(writer http.ResponseWriter, request *http.Request) {
	summary, err := handler.service.Summary(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, summary)
}

func (handler *Handler) activity(writer http.ResponseWriter, request *http.Request) {
	from, err := requestutil.QueryDate(request, "from")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	to, err := requestutil.QueryDate(request, "to")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	activity, err := handler.service.Activity(request.Context(), from, to)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, activity)
}
