// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package catalog

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
	// Public
	router.Get("/", handler.listBooks)
	router.Get("/{id}", handler.getBook)

	// Librarian desk
	router.Group(func(staffRoute chi.Router) {
		staffRoute.Use(middleware.RequireRole(sec.RoleLibrarian))

		staffRoute.Post("/", handler.createBook)
		staffRoute.Patch("/{id}", handler.updateBook)
		staffRoute.Put("/{id}/hold", handler.setHold)
	})
}

func (handler *Handler) listBooks(writer http.ResponseWriter, request *http.Request) {
	paginationParams := pagination.FromRequest(request)
	values := request.URL.Query()

	filter := Filter{
		Query:         values.Get("q"),
		CategorySlugs: query.StringSlice(values.Get("category")),
	}
	if available := query.Bool(values.Get("available")); available != nil {
		filter.AvailableOnly = *available
	}

	books, total, err := handler.service.ListBooks(request.Context(), filter, paginationParams.Limit, paginationParams.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, books, pagination.NewMeta(paginationParams.Page, paginationParams.Limit, total))
}

func (handler *Handler) getBook(writer http.ResponseWriter, request *http.Request) {
	book, err := handler.service.GetBook(request.Context(), requestutil.Param(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, book)
}

type bookInput struct {
	AccessionNumber string      `json:"accession_number"`
	Title           string      `json:"title"`
	Author          string      `json:"author"`
	Category        string      `json:"category"`
	Condition       string      `json:"condition"`
	TotalCopies     int         `json:"total_copies"`
	HoldStatus      *HoldStatus `json:"hold_status"`
}

func (input bookInput) book() *Book {
	return &Book{
		AccessionNumber: input.AccessionNumber,
		Title:           input.Title,
		Author:          input.Author,
		Category:        input.Category,
		Condition:       input.Condition,
		TotalCopies:     input.TotalCopies,
		HoldStatus:      input.HoldStatus,
	}
}

func (handler *Handler) createBook(writer http.ResponseWriter, request *http.Request) {
	var input bookInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	book := input.book()
	if err := handler.service.CreateBook(request.Context(), book); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, book)
}

type updateInput struct {
	AccessionNumber string `json:"accession_number"`
	Title           string `json:"title"`
	Author          string `json:"author"`
	Category        string `json:"category"`
	Condition       string `json:"condition"`
}

func (handler *Handler) updateBook(writer http.ResponseWriter, request *http.Request) {
	var input updateInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	book := &Book{
		AccessionNumber: input.AccessionNumber,
		Title:           input.Title,
		Author:          input.Author,
		Category:        input.Category,
		Condition:       input.Condition,
	}
	if err := handler.service.UpdateBook(request.Context(), requestutil.Param(request, "id"), book); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, book)
}

type holdInput struct {
	HoldStatus *HoldStatus `json:"hold_status"`
}

func (handler *Handler) setHold(writer http.ResponseWriter, request *http.Request) {
	var input holdInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	book, err := handler.service.SetHoldStatus(request.Context(), requestutil.Param(request, "id"), input.HoldStatus)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, book)
}
