package v1_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/flowdeck/flowdeck/internal/api/v1"
	"github.com/flowdeck/flowdeck/internal/auth"
	"github.com/flowdeck/flowdeck/internal/domain"
)

func TestRegister(t *testing.T) {
	t.Parallel()

	t.Run("happy_path", func(t *testing.T) {
		t.Parallel()

		uid := uuid.New()
		now := time.Now().Truncate(time.Second)

		_, api := humatest.New(t)
		svc := &mockAuthService{
			registerFunc: func(_ context.Context, email, password, nickname string) (*domain.User, error) {
				assert.Equal(t, "ana@example.com", email)
				assert.Equal(t, "hunter2hunter2", password)
				assert.Equal(t, "ana", nickname)
				return &domain.User{ID: uid, Email: email, Nickname: nickname, CreatedAt: now}, nil
			},
		}
		v1.RegisterAuthRoutes(api, svc)

		resp := api.Post("/auth/register", map[string]any{
			"email":    "ana@example.com",
			"password": "hunter2hunter2",
			"nickname": "ana",
		})

		require.Equal(t, http.StatusCreated, resp.Code)

		var body struct {
			ID       uuid.UUID `json:"id"`
			Email    string    `json:"email"`
			Nickname string    `json:"nickname"`
		}
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
		assert.Equal(t, uid, body.ID)
		assert.Equal(t, "ana", body.Nickname)
		assert.NotContains(t, resp.Body.String(), "password", "credentials never leave the server")
	})

	t.Run("duplicate_email", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		svc := &mockAuthService{
			registerFunc: func(_ context.Context, _, _, _ string) (*domain.User, error) {
				return nil, auth.ErrUserAlreadyExists
			},
		}
		v1.RegisterAuthRoutes(api, svc)

		resp := api.Post("/auth/register", map[string]any{
			"email":    "ana@example.com",
			"password": "hunter2hunter2",
			"nickname": "ana",
		})

		assert.Equal(t, http.StatusConflict, resp.Code)
	})

	t.Run("short_password_rejected", func(t *testing.T) {
		t.Parallel()

		var svcCalled bool
		_, api := humatest.New(t)
		svc := &mockAuthService{
			registerFunc: func(_ context.Context, _, _, _ string) (*domain.User, error) {
				svcCalled = true
				return nil, nil
			},
		}
		v1.RegisterAuthRoutes(api, svc)

		resp := api.Post("/auth/register", map[string]any{
			"email":    "ana@example.com",
			"password": "short",
			"nickname": "ana",
		})

		assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
		assert.False(t, svcCalled)
	})
}

func TestLogin(t *testing.T) {
	t.Parallel()

	t.Run("happy_path", func(t *testing.T) {
		t.Parallel()

		uid := uuid.New()

		_, api := humatest.New(t)
		svc := &mockAuthService{
			loginFunc: func(_ context.Context, email, password string) (string, *domain.User, error) {
				assert.Equal(t, "ana@example.com", email)
				return "token-abc", &domain.User{ID: uid, Email: email, Nickname: "ana"}, nil
			},
		}
		v1.RegisterAuthRoutes(api, svc)

		resp := api.Post("/auth/login", map[string]any{
			"email":    "ana@example.com",
			"password": "hunter2hunter2",
		})

		require.Equal(t, http.StatusOK, resp.Code)

		var body struct {
			Token string `json:"token"`
			User  struct {
				ID uuid.UUID `json:"id"`
			} `json:"user"`
		}
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
		assert.Equal(t, "token-abc", body.Token)
		assert.Equal(t, uid, body.User.ID)
	})

	t.Run("bad_credentials", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		svc := &mockAuthService{
			loginFunc: func(_ context.Context, _, _ string) (string, *domain.User, error) {
				return "", nil, auth.ErrInvalidCredentials
			},
		}
		v1.RegisterAuthRoutes(api, svc)

		resp := api.Post("/auth/login", map[string]any{
			"email":    "ana@example.com",
			"password": "wrong-password",
		})

		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})
}
