package dto

// RequestCodeRequest asks for a one-time login code. Name is only required
// when the email is unknown; the handler surfaces that as a conflict so the
// client can re-prompt.
type RequestCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"omitempty,min=2,max=255"`
}

// RequestCodeResponse reports whether the account existed before the call.
type RequestCodeResponse struct {
	UserExists bool `json:"user_exists"`
}

// VerifyCodeRequest exchanges an emailed code for a token pair.
type VerifyCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

// AccessTokenResponse returns the access token; the refresh token travels
// only as an HTTP-only cookie.
type AccessTokenResponse struct {
	AccessToken string `json:"access_token"`
}
