package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/atinyakov/recipebox/internal/apperr"
	"github.com/atinyakov/recipebox/internal/models"
)

// fakeResolver implements PrincipalResolver for testing.
type fakeResolver struct {
	user *models.User
	err  error
}

func (f *fakeResolver) ResolvePrincipal(ctx context.Context, token string) (*models.User, error) {
	return f.user, f.err
}

func TestTokenAuth(t *testing.T) {
	tests := []struct {
		name         string
		header       string
		resolver     *fakeResolver
		expectedCode int
		expectUser   bool
	}{
		{
			name:         "missing header",
			header:       "",
			resolver:     &fakeResolver{},
			expectedCode: http.StatusUnauthorized,
		},
		{
			name:         "wrong scheme",
			header:       "Basic abc123",
			resolver:     &fakeResolver{},
			expectedCode: http.StatusUnauthorized,
		},
		{
			name:         "invalid token",
			header:       "Bearer bogus",
			resolver:     &fakeResolver{err: apperr.ErrUnauthenticated},
			expectedCode: http.StatusUnauthorized,
		},
		{
			name:         "valid token",
			header:       "Bearer good",
			resolver:     &fakeResolver{user: &models.User{ID: 7, Email: "tester@gmail.com"}},
			expectedCode: http.StatusOK,
			expectUser:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUser *models.User
			handler := TokenAuth(tt.resolver)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUser = GetUserFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			rec := httptest.NewRecorder()
			req := httptest.NewRequest("GET", "/api/recipes", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.expectedCode {
				t.Fatalf("expected status %d, got %d", tt.expectedCode, rec.Code)
			}
			if tt.expectUser {
				if gotUser == nil || gotUser.ID != 7 {
					t.Errorf("expected user 7 in context, got %+v", gotUser)
				}
			} else if gotUser != nil {
				t.Errorf("expected no user in context, got %+v", gotUser)
			}
		})
	}
}

func TestGetUserFromContext_Empty(t *testing.T) {
	if u := GetUserFromContext(context.Background()); u != nil {
		t.Errorf("expected nil user, got %+v", u)
	}
}
