package v1

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/flowdeck/flowdeck/internal/auth"
)

type UserBody struct {
	ID        uuid.UUID `json:"id" doc:"User ID"`
	Email     string    `json:"email" doc:"Email address"`
	Nickname  string    `json:"nickname" doc:"Display name shown in presence"`
	CreatedAt time.Time `json:"created_at"`
}

type RegisterInput struct {
	Body struct {
		Email    string `json:"email" format:"email" doc:"Email address"`
		Password string `json:"password" minLength:"8" maxLength:"128" doc:"Password"`
		Nickname string `json:"nickname" minLength:"1" maxLength:"64" doc:"Display name"`
	}
}

type RegisterOutput struct {
	Status int
	Body   *UserBody
}

type LoginInput struct {
	Body struct {
		Email    string `json:"email" format:"email" doc:"Email address"`
		Password string `json:"password" minLength:"1" doc:"Password"`
	}
}

type LoginOutput struct {
	Body struct {
		Token string    `json:"token" doc:"Bearer token for the API and push channel"`
		User  *UserBody `json:"user"`
	}
}

func RegisterAuthRoutes(api huma.API, svc AuthService) {
	huma.Register(api, huma.Operation{
		OperationID: "register",
		Method:      http.MethodPost,
		Path:        "/auth/register",
		Summary:     "Register a new user",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, input *RegisterInput) (*RegisterOutput, error) {
		u, err := svc.Register(ctx, input.Body.Email, input.Body.Password, input.Body.Nickname)
		if err != nil {
			if errors.Is(err, auth.ErrUserAlreadyExists) {
				return nil, huma.Error409Conflict("email already registered")
			}
			return nil, huma.Error500InternalServerError("failed to register user", err)
		}

		return &RegisterOutput{
			Status: http.StatusCreated,
			Body: &UserBody{
				ID:        u.ID,
				Email:     u.Email,
				Nickname:  u.Nickname,
				CreatedAt: u.CreatedAt,
			},
		}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/auth/login",
		Summary:     "Exchange credentials for a bearer token",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, input *LoginInput) (*LoginOutput, error) {
		token, u, err := svc.Login(ctx, input.Body.Email, input.Body.Password)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidCredentials) {
				return nil, huma.Error401Unauthorized("invalid credentials")
			}
			return nil, huma.Error500InternalServerError("failed to log in", err)
		}

		out := &LoginOutput{}
		out.Body.Token = token
		out.Body.User = &UserBody{
			ID:        u.ID,
			Email:     u.Email,
			Nickname:  u.Nickname,
			CreatedAt: u.CreatedAt,
		}
		return out, nil
	})
}
