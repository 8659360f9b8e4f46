// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package circulation

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/libris/internal/core/ledger"
	"github.com/taibuivan/libris/internal/platform/apperr"
	"github.com/taibuivan/libris/internal/platform/ctxutil"
	"github.com/taibuivan/libris/internal/platform/middleware"
	requestutil "github.com/taibuivan/libris/internal/platform/request"
	"github.com/taibuivan/libris/internal/platform/respond"
	"github.com/taibuivan/libris/internal/platform/sec"
	"github.com/taibuivan/libris/internal/platform/validate"
)

type Handler struct {
	engine *Engine
}

func NewHandler(engine *Engine) *Handler {
	return &Handler{engine: engine}
}

func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Group(func(staffRoute chi.Router) {
		staffRoute.Use(middleware.RequireRole(sec.RoleVolunteer))

		staffRoute.Get("/books/{id}", handler.getBook)
		staffRoute.Get("/patrons/{id}/loans", handler.patronLoans)
		staffRoute.Get("/overdue", handler.overdue)

		// Circulation desk
		staffRoute.Group(func(deskRoute chi.Router) {
			deskRoute.Use(middleware.RequireRole(sec.RoleLibrarian))

			deskRoute.Post("/issue", handler.issue)
			deskRoute.Post("/return", handler.returnLoan)
			deskRoute.Post("/books/{id}/copies", handler.addCopies)

			// Admin strict only
			deskRoute.With(middleware.RequireRole(sec.RoleAdmin)).Post("/books/{id}/withdrawals", handler.withdrawCopies)
		})
	})
}

// # Effectful endpoints

type issueInput struct {
	BookID   string  `json:"book_id"`
	PatronID string  `json:"patron_id"`
	StaffID  string  `json:"staff_id"`
	DueDate  *string `json:"due_date"`
}

// loanReceipt is the issue/return response: the ledger row plus its id under
// the name the desk client expects.
type loanReceipt struct {
	IssueID string `json:"issue_id"`
	*ledger.Issue
}

func (handler *Handler) issue(writer http.ResponseWriter, request *http.Request) {
	var input issueInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	staffID, err := issuingStaff(request, input.StaffID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	dueDate, err := parseDate(input.DueDate, "due_date", EndOfDay)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	issue, err := handler.engine.Issue(request.Context(), IssueRequest{
		BookID:   strings.TrimSpace(input.BookID),
		PatronID: strings.TrimSpace(input.PatronID),
		StaffID:  staffID,
		DueDate:  dueDate,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, loanReceipt{IssueID: issue.ID, Issue: issue})
}

type returnInput struct {
	IssueID    string  `json:"issue_id"`
	ReturnDate *string `json:"return_date"`
}

func (handler *Handler) returnLoan(writer http.ResponseWriter, request *http.Request) {
	var input returnInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	returnDate, err := parseDate(input.ReturnDate, "return_date", StartOfDay)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	issue, err := handler.engine.Return(request.Context(), ReturnRequest{
		IssueID:    strings.TrimSpace(input.IssueID),
		ReturnDate: returnDate,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, loanReceipt{IssueID: issue.ID, Issue: issue})
}

type copiesInput struct {
	Count int `json:"count"`
}

func (handler *Handler) addCopies(writer http.ResponseWriter, request *http.Request) {
	var input copiesInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	availability, err := handler.engine.AddCopies(request.Context(), requestutil.Param(request, "id"), input.Count)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, availability)
}

func (handler *Handler) withdrawCopies(writer http.ResponseWriter, request *http.Request) {
	var input copiesInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	availability, err := handler.engine.WithdrawCopies(request.Context(), requestutil.Param(request, "id"), input.Count)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, availability)
}

// # Read endpoints

func (handler *Handler) getBook(writer http.ResponseWriter, request *http.Request) {
	availability, err := handler.engine.BookAvailability(request.Context(), requestutil.Param(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, availability)
}

func (handler *Handler) patronLoans(writer http.ResponseWriter, request *http.Request) {
	loans, err := handler.engine.PatronLoans(request.Context(), requestutil.Param(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, loans)
}

func (handler *Handler) overdue(writer http.ResponseWriter, request *http.Request) {
	loans, err := handler.engine.Overdue(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, loans)
}

// issuingStaff is the authenticated staff member. Only an admin may record a
// loan under someone else's id.
func issuingStaff(request *http.Request, claimed string) (string, error) {
	authenticated, err := requestutil.RequiredStaffID(request)
	if err != nil {
		return "", err
	}

	claimed = strings.TrimSpace(claimed)
	if claimed == "" || claimed == authenticated {
		return authenticated, nil
	}

	staff := ctxutil.GetStaff(request.Context())
	if !sec.Role(staff.Role).AtLeast(sec.RoleAdmin) {
		return "", apperr.Forbidden("Only an admin may issue on behalf of another staff member")
	}
	return claimed, nil
}

// # Date parsing

// parseDate accepts RFC 3339 timestamps as-is and YYYY-MM-DD dates anchored
// in UTC by anchor. A nil or blank input yields nil.
func parseDate(raw *string, field string, anchor func(time.Time) time.Time) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	value := strings.TrimSpace(*raw)

	if day, err := time.Parse(requestutil.DateLayout, value); err == nil {
		anchored := anchor(day)
		return &anchored, nil
	}

	timestamp, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, validate.RequiredError(field, "Must be a date (YYYY-MM-DD) or an RFC 3339 timestamp")
	}
	return &timestamp, nil
}
