package mockserver

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/balkashynov/saj/internal/config"
	"github.com/balkashynov/saj/internal/models"
)

// CookieName is the HTTP-only cookie that carries the JWT in cookie mode
const CookieName = "jwt"

const ctxUserKey = "user"

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// issueToken signs an HS256 JWT for u
func (s *Server) issueToken(u userRow) (string, time.Time, error) {
	now := time.Now()
	expires := now.Add(s.cfg.TokenTTL)
	claims := jwt.MapClaims{
		"sub":  u.Username,
		"uid":  u.ID,
		"name": u.FullName,
		"role": u.Role,
		"jti":  uuid.NewString(),
		"iat":  now.Unix(),
		"exp":  expires.Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(s.cfg.JWTSecret))
	return signed, expires, err
}

// parseToken validates a JWT and returns its user id
func (s *Server) parseToken(raw string) (string, error) {
	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !tkn.Valid {
		return "", errors.New("invalid token")
	}

	uid, _ := claims["uid"].(string)
	if uid == "" {
		return "", errors.New("token has no user")
	}
	return uid, nil
}

// login mirrors the real backend: 401 with a plain-text body on bad credentials,
// bare identity (cookie mode) or {token} (bearer mode) on success
func (s *Server) login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Requisição inválida")
	}

	user, ok := s.store.authenticate(strings.TrimSpace(req.Username), req.Password)
	if !ok {
		s.log.Info().Str("username", req.Username).Msg("login rejected")
		return c.String(http.StatusUnauthorized, "Erro de autenticação: Usuário ou senha inválidos.")
	}

	token, expires, err := s.issueToken(user)
	if err != nil {
		return err
	}
	s.log.Info().Str("username", user.Username).Str("mode", string(s.mode)).Msg("login")

	if s.mode == config.AuthModeBearer {
		return c.JSON(http.StatusOK, tokenResponse{Token: token})
	}

	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		MaxAge:   int(time.Until(expires).Seconds()),
	})
	return c.JSON(http.StatusOK, models.Session{
		UserID:   user.ID,
		FullName: user.FullName,
		Username: user.Username,
		Role:     user.Role,
	})
}

// logout expires the cookie. Tokens are stateless, so bearer mode has nothing to revoke.
func (s *Server) logout(c echo.Context) error {
	if s.mode == config.AuthModeCookie {
		c.SetCookie(&http.Cookie{
			Name:     CookieName,
			Value:    "",
			Path:     "/",
			HttpOnly: true,
			MaxAge:   -1,
		})
	}
	return c.String(http.StatusOK, "Logout realizado com sucesso")
}

// requireAuth reads the credential of the configured mode and rejects anything
// invalid with 401
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := ""
		if s.mode == config.AuthModeBearer {
			parts := strings.SplitN(c.Request().Header.Get("Authorization"), " ", 2)
			if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
				raw = strings.TrimSpace(parts[1])
			}
		} else if cookie, err := c.Cookie(CookieName); err == nil {
			raw = cookie.Value
		}
		if raw == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "Não autenticado")
		}

		uid, err := s.parseToken(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "Sessão inválida ou expirada")
		}
		user, ok := s.store.findUser(uid)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "Usuário não encontrado")
		}

		c.Set(ctxUserKey, user.public())
		return next(c)
	}
}
