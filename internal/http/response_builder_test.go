package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHTMXResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		Status(http.StatusOK).
		Body([]byte("test")).
		Write(w)

	if w.Code != http.StatusOK {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusOK)
	}
	if w.Body.String() != "test" {
		t.Errorf("Body = %q, want %q", w.Body.String(), "test")
	}
}

func TestHTMXResponseBuilder_Triggers(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		TriggerExpenseCreated("e-1", "Food").
		TriggerFormReset().
		TriggerSummaryRefresh(2025).
		TriggerSuccessNotification("Test message").
		Write(w)

	trigger := w.Header().Get("HX-Trigger")
	if trigger == "" {
		t.Fatal("HX-Trigger header not set")
	}

	expectedParts := []string{
		`"expense:created"`,
		`"id":"e-1"`,
		`"category":"Food"`,
		`"form:reset"`,
		`"summary:refresh"`,
		`"year":2025`,
		`"show-notification"`,
		`"type":"success"`,
	}
	for _, part := range expectedParts {
		if !strings.Contains(trigger, part) {
			t.Errorf("HX-Trigger missing %q: %s", part, trigger)
		}
	}
}

func TestHTMXResponseBuilder_IncomeEvents(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		TriggerIncomeCreated("i-1").
		TriggerIncomeDeleted("i-0").
		TriggerExpenseDeleted("e-9").
		Write(w)

	trigger := w.Header().Get("HX-Trigger")
	for _, part := range []string{`"income:created":{"id":"i-1"}`, `"income:deleted":{"id":"i-0"}`, `"expense:deleted":{"id":"e-9"}`} {
		if !strings.Contains(trigger, part) {
			t.Errorf("HX-Trigger missing %q: %s", part, trigger)
		}
	}
}

func TestHTMXResponseBuilder_Redirect(t *testing.T) {
	w := httptest.NewRecorder()
	NewHTMXResponse().Redirect("/auth/login").Write(w)

	if got := w.Header().Get("HX-Redirect"); got != "/auth/login" {
		t.Errorf("HX-Redirect = %q", got)
	}
	if w.Header().Get("HX-Trigger") != "" {
		t.Error("no triggers were added, header should be absent")
	}
}

func TestHTMXResponseBuilder_SwapHeader(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		Header("HX-Reswap", "outerHTML").
		Status(http.StatusCreated).
		Write(w)

	if w.Header().Get("HX-Reswap") != "outerHTML" {
		t.Errorf("HX-Reswap header not set")
	}
	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
}

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		name       string
		builder    *HTMXResponseBuilder
		wantStatus int
		wantBody   string
	}{
		{
			name:       "bad request",
			builder:    BadRequestError("Missing entry id"),
			wantStatus: http.StatusBadRequest,
			wantBody:   `<div class="error" role="alert">Missing entry id</div>`,
		},
		{
			name:       "unprocessable entity",
			builder:    UnprocessableEntityError("Enter a description"),
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   `<div class="error" role="alert">Enter a description</div>`,
		},
		{
			name:       "internal server error",
			builder:    InternalServerError("Could not save your changes"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `<div class="error" role="alert">Could not save your changes</div>`,
		},
		{
			name:       "not found",
			builder:    NotFoundError("Entry not found"),
			wantStatus: http.StatusNotFound,
			wantBody:   `<div class="error" role="alert">Entry not found</div>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.builder.Write(w)

			if w.Code != tt.wantStatus {
				t.Errorf("Status code = %d, want %d", w.Code, tt.wantStatus)
			}
			if w.Body.String() != tt.wantBody {
				t.Errorf("Body = %q, want %q", w.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestErrorResponse_EscapesHTML(t *testing.T) {
	w := httptest.NewRecorder()

	BadRequestError("<script>alert('xss')</script> is not a number").Write(w)

	body := w.Body.String()
	if strings.Contains(body, "<script>") {
		t.Error("Error response did not escape HTML")
	}
	if !strings.Contains(body, "&lt;script&gt;") {
		t.Error("Error response did not properly escape HTML entities")
	}
}

func TestMethodNotAllowedError(t *testing.T) {
	w := httptest.NewRecorder()

	MethodNotAllowedError("GET, POST").Write(w)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusMethodNotAllowed)
	}
	if w.Header().Get("Allow") != "GET, POST" {
		t.Errorf("Allow header = %q, want %q", w.Header().Get("Allow"), "GET, POST")
	}
}

func TestNotificationTypes(t *testing.T) {
	tests := []struct {
		notifType NotificationType
		want      string
	}{
		{NotificationSuccess, "success"},
		{NotificationError, "error"},
		{NotificationWarning, "warning"},
		{NotificationInfo, "info"},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		NewHTMXResponse().
			TriggerNotification(tt.notifType, "Expense deleted", 1000).
			Write(w)

		trigger := w.Header().Get("HX-Trigger")
		if !strings.Contains(trigger, `"type":"`+tt.want+`"`) || !strings.Contains(trigger, `"duration":1000`) {
			t.Errorf("Notification type %q not found in trigger: %s", tt.want, trigger)
		}
	}
}
