// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package circulation_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/libris/internal/core/circulation"
	"github.com/taibuivan/libris/internal/platform/ctxutil"
	"github.com/taibuivan/libris/internal/platform/sec"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
	Code  string          `json:"code"`
}

// serve mounts the circulation routes behind a fake authenticated staff member.
func serve(f *fixture, role sec.Role, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			claims := &sec.AuthClaims{UserID: "staff-9", Username: "desk", Role: string(role)}
			next.ServeHTTP(writer, request.WithContext(ctxutil.WithStaff(request.Context(), claims)))
		})
	})
	router.Route("/circulation", circulation.NewHandler(f.engine).RegisterRoutes)

	request := httptest.NewRequest(method, target, strings.NewReader(body))
	request.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	var decoded envelope
	_ = json.Unmarshal(recorder.Body.Bytes(), &decoded)
	return recorder, decoded
}

/*
TestHandler_IssueAndReturn drives a late loan through the desk endpoints and
checks the receipt fields, including the fine computed from date-only input.
*/
func TestHandler_IssueAndReturn(t *testing.T) {
	f := newFixture(t)
	bookID := f.addBook(1)
	patronID := f.addPatron(3, true)

	recorder, response := serve(f, sec.RoleLibrarian, http.MethodPost, "/circulation/issue",
		`{"book_id":"`+bookID+`","patron_id":"`+patronID+`","due_date":"2024-01-15"}`)
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())

	var issued struct {
		IssueID  string `json:"issue_id"`
		BookID   string `json:"book_id"`
		IssuedBy string `json:"issued_by"`
		DueDate  string `json:"due_date"`
	}
	require.NoError(t, json.Unmarshal(response.Data, &issued))
	assert.NotEmpty(t, issued.IssueID)
	assert.Equal(t, bookID, issued.BookID)
	assert.Equal(t, "staff-9", issued.IssuedBy)
	assert.Equal(t, "2024-01-15T23:59:59Z", issued.DueDate)

	recorder, response = serve(f, sec.RoleLibrarian, http.MethodPost, "/circulation/return",
		`{"issue_id":"`+issued.IssueID+`","return_date":"2024-01-20"}`)
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	var returned struct {
		IssueID    string `json:"issue_id"`
		FineAmount string `json:"fine_amount"`
		FinePaid   bool   `json:"fine_paid"`
	}
	require.NoError(t, json.Unmarshal(response.Data, &returned))
	assert.Equal(t, issued.IssueID, returned.IssueID)
	assert.Equal(t, "25", returned.FineAmount)
	assert.False(t, returned.FinePaid)

	recorder, response = serve(f, sec.RoleLibrarian, http.MethodPost, "/circulation/return",
		`{"issue_id":"`+issued.IssueID+`"}`)
	assert.Equal(t, http.StatusConflict, recorder.Code)
	assert.Equal(t, "ALREADY_RETURNED", response.Code)
}

/*
TestHandler_IssuedBy verifies loans are recorded under the authenticated staff
member. Naming another issuer needs the admin role.
*/
func TestHandler_IssuedBy(t *testing.T) {
	f := newFixture(t)
	patronID := f.addPatron(5, true)

	issuedBy := func(response envelope) string {
		var issued struct {
			IssuedBy string `json:"issued_by"`
		}
		require.NoError(t, json.Unmarshal(response.Data, &issued))
		return issued.IssuedBy
	}

	t.Run("librarian naming someone else", func(t *testing.T) {
		bookID := f.addBook(1)
		recorder, response := serve(f, sec.RoleLibrarian, http.MethodPost, "/circulation/issue",
			`{"book_id":"`+bookID+`","patron_id":"`+patronID+`","staff_id":"staff-1"}`)

		assert.Equal(t, http.StatusForbidden, recorder.Code)
		assert.Equal(t, "FORBIDDEN", response.Code)
		assert.Equal(t, 1, f.store.Snapshot().Books[bookID].AvailableCopies)
	})

	t.Run("librarian naming themselves", func(t *testing.T) {
		recorder, response := serve(f, sec.RoleLibrarian, http.MethodPost, "/circulation/issue",
			`{"book_id":"`+f.addBook(1)+`","patron_id":"`+patronID+`","staff_id":"staff-9"}`)

		require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())
		assert.Equal(t, "staff-9", issuedBy(response))
	})

	t.Run("admin on behalf of a librarian", func(t *testing.T) {
		recorder, response := serve(f, sec.RoleAdmin, http.MethodPost, "/circulation/issue",
			`{"book_id":"`+f.addBook(1)+`","patron_id":"`+patronID+`","staff_id":"staff-1"}`)

		require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())
		assert.Equal(t, "staff-1", issuedBy(response))
	})
}

/*
TestHandler_PolicyErrors verifies that engine rejections map to their status
codes and machine codes.
*/
func TestHandler_PolicyErrors(t *testing.T) {
	f := newFixture(t)
	empty := f.addBook(0)
	patronID := f.addPatron(3, true)
	inactive := f.addPatron(3, false)

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"no copies", `{"book_id":"` + empty + `","patron_id":"` + patronID + `"}`, http.StatusConflict, "NO_COPIES_AVAILABLE"},
		{"inactive", `{"book_id":"` + f.addBook(1) + `","patron_id":"` + inactive + `"}`, http.StatusUnprocessableEntity, "PATRON_INACTIVE"},
		{"bad date", `{"book_id":"` + empty + `","patron_id":"` + patronID + `","due_date":"next week"}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unknown field", `{"book":"x"}`, http.StatusBadRequest, "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder, response := serve(f, sec.RoleLibrarian, http.MethodPost, "/circulation/issue", tt.body)
			assert.Equal(t, tt.status, recorder.Code)
			assert.Equal(t, tt.code, response.Code)
		})
	}
}

/*
TestHandler_RoleGates verifies that volunteers can read but not mutate, and
only admins withdraw copies.
*/
func TestHandler_RoleGates(t *testing.T) {
	f := newFixture(t)
	bookID := f.addBook(2)

	recorder, _ := serve(f, sec.RoleVolunteer, http.MethodGet, "/circulation/books/"+bookID, "")
	assert.Equal(t, http.StatusOK, recorder.Code)

	recorder, _ = serve(f, sec.RoleVolunteer, http.MethodPost, "/circulation/issue", `{}`)
	assert.Equal(t, http.StatusForbidden, recorder.Code)

	recorder, _ = serve(f, sec.RoleLibrarian, http.MethodPost, "/circulation/books/"+bookID+"/withdrawals", `{"count":1}`)
	assert.Equal(t, http.StatusForbidden, recorder.Code)

	recorder, _ = serve(f, sec.RoleAdmin, http.MethodPost, "/circulation/books/"+bookID+"/withdrawals", `{"count":1}`)
	assert.Equal(t, http.StatusOK, recorder.Code)

	recorder, _ = serve(f, sec.RoleMember, http.MethodGet, "/circulation/overdue", "")
	assert.Equal(t, http.StatusForbidden, recorder.Code)
}

/*
TestHandler_Reads verifies the availability, patron loans and overdue views.
*/
func TestHandler_Reads(t *testing.T) {
	f := newFixture(t)
	bookID := f.addBook(2)
	patronID := f.addPatron(3, true)
	issue := f.issue(t, bookID, patronID)

	recorder, response := serve(f, sec.RoleVolunteer, http.MethodGet, "/circulation/books/"+bookID, "")
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"book_id":"`+bookID+`","available_copies":1,"total_copies":2,"status":"available"}`, string(response.Data))

	recorder, response = serve(f, sec.RoleVolunteer, http.MethodGet, "/circulation/patrons/"+patronID+"/loans", "")
	require.Equal(t, http.StatusOK, recorder.Code)
	var loans []struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(response.Data, &loans))
	require.Len(t, loans, 1)
	assert.Equal(t, issue.ID, loans[0].ID)

	recorder, response = serve(f, sec.RoleVolunteer, http.MethodGet, "/circulation/overdue", "")
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `[]`, string(response.Data))

	recorder, response = serve(f, sec.RoleVolunteer, http.MethodGet, "/circulation/books/not-a-uuid", "")
	assert.Equal(t, http.StatusNotFound, recorder.Code)
	assert.Equal(t, "NOT_FOUND", response.Code)
}
