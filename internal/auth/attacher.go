package auth

import (
	"net/http"

	"golang.org/x/oauth2"

	"github.com/five82/rollcall/internal/api"
)

var _ api.Decorator = (*Attacher)(nil)

// Attacher adds the held credential to outbound requests.
type Attacher struct {
	session *Session
}

// NewAttacher returns an Attacher reading from s.
func NewAttacher(s *Session) *Attacher {
	return &Attacher{session: s}
}

// Decorate returns req unchanged when no credential is held, or a clone
// carrying exactly one bearer Authorization header.
func (a *Attacher) Decorate(req *http.Request) *http.Request {
	return DecorateWith(req, a.session.Token(req.Context()))
}

// DecorateWith is Decorate with an explicit credential.
func DecorateWith(req *http.Request, token string) *http.Request {
	if token == "" {
		return req
	}
	out := req.Clone(req.Context())
	out.Header.Del("Authorization")
	(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}).SetAuthHeader(out)
	return out
}
