package httpHandler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"community-server/apperr"
	"community-server/auth"
	"community-server/logging"
	"community-server/middleware"
	"community-server/usecases"
)

// CookieConfig describes the session cookie.
type CookieConfig struct {
	Name   string
	Domain string
	Secure bool
}

type AuthHandler struct {
	users    *usecases.UserUseCase
	sessions *auth.Sessions
	cookie   CookieConfig
	log      logging.Logger
}

func NewAuthHandler(users *usecases.UserUseCase, sessions *auth.Sessions, cookie CookieConfig, log logging.Logger) *AuthHandler {
	return &AuthHandler{users: users, sessions: sessions, cookie: cookie, log: log}
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, h.log, errInvalidBody)
		return
	}

	user, err := h.users.Register(c.Request.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		middleware.AbortWithError(c, h.log, err)
		return
	}

	h.log.Info(c.Request.Context(), "user registered", "user_id", user.ID)
	c.JSON(http.StatusCreated, user.Profile())
}

// Login handles POST /api/auth/login. Unknown users and wrong passwords get
// the same response.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, h.log, errInvalidBody)
		return
	}

	ctx := c.Request.Context()
	user, err := h.users.VerifyCredentials(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			err = apperr.ErrInvalidCredentials
		}
		middleware.AbortWithError(c, h.log, err)
		return
	}

	token, _, err := h.sessions.Issue(user.ID)
	if err != nil {
		middleware.AbortWithError(c, h.log, err)
		return
	}
	h.setCookie(c, token, int(h.sessions.TTL().Seconds()))

	c.JSON(http.StatusOK, gin.H{"user": user.Profile()})
}

// Logout handles POST /api/auth/logout. Tokens are stateless, so this only
// expires the client's cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.setCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	p := auth.PrincipalFromContext(c.Request.Context())
	if p.Anonymous() {
		middleware.AbortWithError(c, h.log, apperr.ErrUnauthorized)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": p.User.Profile()})
}

func (h *AuthHandler) setCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, value, maxAge, "/", h.cookie.Domain, h.cookie.Secure, true)
}
