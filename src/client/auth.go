package client

import (
	"net/http"

	"github.com/username/pettyvault/src/model"
	"github.com/username/pettyvault/src/security/validation"
)

type SignupPayload struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	InviteToken string `json:"inviteToken,omitempty"`
}

func (p SignupPayload) Validate() error {
	errs := validation.FieldErrors{}
	validation.Required(errs, "name", p.Name)
	validation.Required(errs, "email", p.Email)
	validation.Required(errs, "password", p.Password)
	validation.Email(errs, "email", p.Email)
	validation.MinLength(errs, "password", p.Password, 8)
	return errs.ErrOrNil()
}

type LoginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (p LoginPayload) Validate() error {
	errs := validation.FieldErrors{}
	validation.Required(errs, "email", p.Email)
	validation.Required(errs, "password", p.Password)
	return errs.ErrOrNil()
}

// LoginResult mirrors the login response. ExpiresAt is epoch
// milliseconds, stored verbatim as the session expirationTime.
type LoginResult struct {
	Token     string     `json:"token"`
	User      model.User `json:"user"`
	ExpiresAt int64      `json:"expiresAt"`
}

type ProfilePayload struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (p ProfilePayload) Validate() error {
	errs := validation.FieldErrors{}
	validation.Required(errs, "name", p.Name)
	validation.Required(errs, "email", p.Email)
	validation.Email(errs, "email", p.Email)
	return errs.ErrOrNil()
}

type ChangePasswordPayload struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (p ChangePasswordPayload) Validate() error {
	errs := validation.FieldErrors{}
	validation.Required(errs, "currentPassword", p.CurrentPassword)
	validation.Required(errs, "newPassword", p.NewPassword)
	validation.MinLength(errs, "newPassword", p.NewPassword, 8)
	return errs.ErrOrNil()
}

type InvitePayload struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (p InvitePayload) Validate() error {
	errs := validation.FieldErrors{}
	validation.Required(errs, "email", p.Email)
	validation.Email(errs, "email", p.Email)
	validation.Required(errs, "role", p.Role)
	validation.OneOf(errs, "role", p.Role,
		string(model.RoleAdmin), string(model.RoleFinance), string(model.RoleEmployee))
	return errs.ErrOrNil()
}

func (c *Client) Signup(payload SignupPayload) (*model.User, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}
	var user model.User
	if err := c.do(http.MethodPost, "/auth/signup", payload, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) Login(payload LoginPayload) (*LoginResult, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}
	var result LoginResult
	if err := c.do(http.MethodPost, "/auth/login", payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) Logout() error {
	return c.do(http.MethodPost, "/auth/logout", nil, nil)
}

func (c *Client) ForgotPassword(email string) error {
	errs := validation.FieldErrors{}
	validation.Required(errs, "email", email)
	validation.Email(errs, "email", email)
	if err := errs.ErrOrNil(); err != nil {
		return err
	}
	return c.do(http.MethodPost, "/auth/forgot-password", map[string]string{"email": email}, nil)
}

func (c *Client) ResetPassword(token, password string) error {
	errs := validation.FieldErrors{}
	validation.Required(errs, "token", token)
	validation.Required(errs, "password", password)
	validation.MinLength(errs, "password", password, 8)
	if err := errs.ErrOrNil(); err != nil {
		return err
	}
	body := map[string]string{"token": token, "password": password}
	return c.do(http.MethodPost, "/auth/reset-password", body, nil)
}

func (c *Client) Me() (*model.User, error) {
	var user model.User
	if err := c.do(http.MethodGet, "/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) UpdateProfile(payload ProfilePayload) (*model.User, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}
	var user model.User
	if err := c.do(http.MethodPut, "/auth/profile", payload, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) ChangePassword(payload ChangePasswordPayload) error {
	if err := payload.Validate(); err != nil {
		return err
	}
	return c.do(http.MethodPut, "/auth/change-password", payload, nil)
}

func (c *Client) Invite(payload InvitePayload) error {
	if err := payload.Validate(); err != nil {
		return err
	}
	return c.do(http.MethodPost, "/auth/invite", payload, nil)
}

// ListUsers returns the members of the active company.
func (c *Client) ListUsers() ([]model.MemberInfo, error) {
	var members []model.MemberInfo
	if err := c.do(http.MethodGet, "/auth/users", nil, &members); err != nil {
		return nil, err
	}
	return members, nil
}
