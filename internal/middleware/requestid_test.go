// Mediarec - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediarec

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/tomtom215/mediarec/internal/logging"
)

func TestRequestID(t *testing.T) {
	tests := []struct {
		name      string
		header    string
		wantKept  bool
		wantValid bool
	}{
		{name: "generates when missing", header: "", wantValid: true},
		{name: "keeps upstream id", header: "upstream-12345", wantKept: true},
		{name: "replaces id with spaces", header: "bad id", wantValid: true},
		{name: "replaces oversized id", header: strings.Repeat("a", maxRequestIDLength+1), wantValid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ctxID, corrID string
			handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				ctxID = GetRequestID(r.Context())
				corrID = logging.CorrelationIDFromContext(r.Context())
				w.WriteHeader(http.StatusNoContent)
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/variants", nil)
			if tt.header != "" {
				req.Header.Set(RequestIDHeader, tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			got := rec.Header().Get(RequestIDHeader)
			if got != ctxID {
				t.Errorf("header id %q != context id %q", got, ctxID)
			}
			if corrID == "" {
				t.Error("expected a correlation id in context")
			}
			if tt.wantKept && got != tt.header {
				t.Errorf("id = %q, want upstream %q", got, tt.header)
			}
			if tt.wantValid {
				if _, err := uuid.Parse(got); err != nil {
					t.Errorf("id %q is not a UUID: %v", got, err)
				}
			}
		})
	}
}
