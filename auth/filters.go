package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"acl-center/enums"
	"acl-center/repositories"

	restful "github.com/emicklei/go-restful/v3"
	"golang.org/x/crypto/bcrypt"
)

const (
	AttrUserID   = "user_id"
	AttrUsername = "username"
)

// AuthFilter creates a go-restful FilterFunction for JWT authentication.
func AuthFilter() restful.FilterFunction {
	return func(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
		authHeader := req.HeaderParameter("Authorization")
		if authHeader == "" {
			_ = resp.WriteHeaderAndJson(http.StatusUnauthorized, map[string]string{"message": "Authorization header required"}, restful.MIME_JSON)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			_ = resp.WriteHeaderAndJson(http.StatusUnauthorized, map[string]string{"message": "Invalid authorization header format"}, restful.MIME_JSON)
			return
		}

		claims, err := ParseAndValidateToken(parts[1])
		if err != nil {
			_ = resp.WriteHeaderAndJson(http.StatusUnauthorized, map[string]string{"message": err.Error()}, restful.MIME_JSON)
			return
		}

		req.SetAttribute(AttrUserID, claims.UserID)
		req.SetAttribute(AttrUsername, claims.Username)
		chain.ProcessFilter(req, resp)
	}
}

// RequirePermission rejects requests whose user lacks any of perms. It must
// run after AuthFilter.
func (c *PermissionChecker) RequirePermission(perms ...enums.UserPermission) restful.FilterFunction {
	return guard(func(ctx context.Context, userID uint) (bool, error) {
		return c.UserHasPermissions(ctx, userID, perms...)
	})
}

// RequirePanelAccess admits users allowed to use the admin API at all.
func (c *PermissionChecker) RequirePanelAccess() restful.FilterFunction {
	return guard(c.CanAccessPanel)
}

func guard(check func(ctx context.Context, userID uint) (bool, error)) restful.FilterFunction {
	return func(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
		userID, ok := UserIDFromRequest(req)
		if !ok {
			_ = resp.WriteHeaderAndJson(http.StatusUnauthorized, map[string]string{"message": "User ID not found in request"}, restful.MIME_JSON)
			return
		}

		allowed, err := check(req.Request.Context(), userID)
		if err != nil && !errors.Is(err, repositories.ErrUserNotFound) {
			_ = resp.WriteHeaderAndJson(http.StatusServiceUnavailable, map[string]string{"message": "Error checking permissions"}, restful.MIME_JSON)
			return
		}
		if !allowed {
			_ = resp.WriteHeaderAndJson(http.StatusForbidden, map[string]string{"message": "Forbidden"}, restful.MIME_JSON)
			return
		}
		chain.ProcessFilter(req, resp)
	}
}

func UserIDFromRequest(req *restful.Request) (uint, bool) {
	userID, ok := req.Attribute(AttrUserID).(uint)
	return userID, ok
}

// LoginCredentials defines the structure of the login request
type LoginCredentials struct {
	Username string `json:"username" description:"Username for login"`
	Password string `json:"password" description:"Password for login"`
}

// LoginResponse defines the structure of the login response
type LoginResponse struct {
	Token   string `json:"token,omitempty"`
	Message string `json:"message,omitempty"`
}

// LoginHandler issues tokens to users whose credentials match.
type LoginHandler struct {
	users repositories.UserRepository
}

func NewLoginHandler(users repositories.UserRepository) *LoginHandler {
	return &LoginHandler{users: users}
}

func (h *LoginHandler) Login(request *restful.Request, response *restful.Response) {
	creds := new(LoginCredentials)
	if err := request.ReadEntity(creds); err != nil {
		_ = response.WriteHeaderAndJson(http.StatusBadRequest, LoginResponse{Message: "Invalid request body: " + err.Error()}, restful.MIME_JSON)
		return
	}

	if creds.Username == "" || creds.Password == "" {
		_ = response.WriteHeaderAndJson(http.StatusBadRequest, LoginResponse{Message: "Username and password are required"}, restful.MIME_JSON)
		return
	}

	user, err := h.users.FindByUsername(request.Request.Context(), creds.Username)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			// Avoid revealing whether the user exists
			_ = response.WriteHeaderAndJson(http.StatusUnauthorized, LoginResponse{Message: "Invalid credentials"}, restful.MIME_JSON)
			return
		}
		_ = response.WriteHeaderAndJson(http.StatusServiceUnavailable, LoginResponse{Message: "Database unavailable"}, restful.MIME_JSON)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(creds.Password)); err != nil {
		_ = response.WriteHeaderAndJson(http.StatusUnauthorized, LoginResponse{Message: "Invalid credentials"}, restful.MIME_JSON)
		return
	}

	token, err := GenerateToken(user)
	if err != nil {
		_ = response.WriteHeaderAndJson(http.StatusInternalServerError, LoginResponse{Message: "Could not generate token"}, restful.MIME_JSON)
		return
	}

	_ = response.WriteHeaderAndJson(http.StatusOK, LoginResponse{Token: token}, restful.MIME_JSON)
}
