package remote

import (
	"context"
	"errors"
	"fmt"

	"github.com/dwikikusuma/farmgate/internal/account/domain"
	"github.com/dwikikusuma/farmgate/pkg/httpclient"
)

// ErrRegistrationRejected is returned for a 2xx answer with success=false.
var ErrRegistrationRejected = errors.New("registration rejected")

type registerPayload struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
	Address  string `json:"address,omitempty"`
	Town     string `json:"town,omitempty"`
}

type userPayload struct {
	ID    string `json:"id"`
	MID   string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Role  string `json:"role"`
}

type registerResponse struct {
	Success *bool       `json:"success"`
	Message string      `json:"message"`
	Token   string      `json:"token"`
	User    userPayload `json:"user"`
}

type AuthClient struct {
	http *httpclient.Client
}

func NewAuthClient(c *httpclient.Client) *AuthClient {
	return &AuthClient{http: c}
}

func (c *AuthClient) Register(ctx context.Context, req domain.RegisterRequest) (domain.Credentials, error) {
	var resp registerResponse
	err := c.http.Post(ctx, "/auth/register", registerPayload{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
		Address:  req.Address,
		Town:     req.Town,
	}, &resp)
	if err != nil {
		return domain.Credentials{}, err
	}

	if resp.Success != nil && !*resp.Success {
		if resp.Message == "" {
			return domain.Credentials{}, ErrRegistrationRejected
		}
		return domain.Credentials{}, fmt.Errorf("%w: %s", ErrRegistrationRejected, resp.Message)
	}

	id := resp.User.ID
	if id == "" {
		id = resp.User.MID
	}
	return domain.Credentials{
		Token: resp.Token,
		User: domain.User{
			ID:    id,
			Name:  resp.User.Name,
			Email: resp.User.Email,
			Phone: resp.User.Phone,
			Role:  resp.User.Role,
		},
	}, nil
}
