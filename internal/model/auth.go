package model

// Token API error codes (used in HTTP responses)
const (
	CodeTokenExpired = "TOKEN_EXPIRED"
	CodeTokenInvalid = "TOKEN_INVALID"
)

// AccessTokenCookie is the cookie browsers carry the access token in.
const AccessTokenCookie = "access_token"

// AccessToken is a signed token and its lifetime in seconds.
type AccessToken struct {
	Token     string `json:"accessToken"`
	ExpiresIn int    `json:"expiresIn"`
}

// LoginResponse is returned after successful login or registration
type LoginResponse struct {
	User        User   `json:"user"`
	AccessToken string `json:"accessToken"`
	ExpiresIn   int    `json:"expiresIn"`
}
