package apiclient

import (
	"context"
	"errors"
	"net/http"
)

// SignupRequest starts a registration; the backend emails an OTP.
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup submits a registration and returns the backend's confirmation message.
func (c *Client) Signup(ctx context.Context, req SignupRequest) (string, error) {
	cl, err := jsonCall("signup", http.MethodPost, "/auth/signup", req)
	if err != nil {
		return "", err
	}
	var out messageResponse
	if err := c.do(ctx, cl, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// VerifyOTP confirms an email address with the one-time password.
func (c *Client) VerifyOTP(ctx context.Context, email, otp string) (string, error) {
	cl, err := jsonCall("verify_otp", http.MethodPost, "/auth/verify-otp", map[string]string{
		"email": email,
		"otp":   otp,
	})
	if err != nil {
		return "", err
	}
	var out messageResponse
	if err := c.do(ctx, cl, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// ErrEmptyToken is returned when a login succeeds without a token in the body.
var ErrEmptyToken = errors.New("apiclient: login returned no token")

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	cl, err := jsonCall("login", http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return "", err
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, cl, &out); err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", ErrEmptyToken
	}
	return out.Token, nil
}

// ForgotPassword requests a reset link. The backend always answers with a
// generic message whether or not the account exists.
func (c *Client) ForgotPassword(ctx context.Context, email string) (string, error) {
	cl, err := jsonCall("forgot_password", http.MethodPost, "/auth/forgot-password", map[string]string{
		"email": email,
	})
	if err != nil {
		return "", err
	}
	var out messageResponse
	if err := c.do(ctx, cl, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// ResetPassword completes a reset with the emailed token.
func (c *Client) ResetPassword(ctx context.Context, resetToken, newPassword string) (string, error) {
	cl, err := jsonCall("reset_password", http.MethodPost, "/auth/reset-password", map[string]string{
		"token":       resetToken,
		"newPassword": newPassword,
	})
	if err != nil {
		return "", err
	}
	var out messageResponse
	if err := c.do(ctx, cl, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}
