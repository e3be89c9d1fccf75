package controllers

import (
	"net/http"
	"strconv"
	"time"

	"acl-center/auth"
	"acl-center/enums"
	"acl-center/models"
	"acl-center/services"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"
)

type UserController struct {
	userService services.UserService
	checker     *auth.PermissionChecker
}

func NewUserController(userService services.UserService, checker *auth.PermissionChecker) *UserController {
	return &UserController{userService: userService, checker: checker}
}

// UserResponse Defines the response structure of user information
type UserResponse struct {
	ID          uint      `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	Nickname    string    `json:"nickname"`
	Roles       []string  `json:"roles"`
	Permissions []string  `json:"permissions,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type PaginatedUsersResponse struct {
	Users    []UserResponse `json:"users"`
	Total    int64          `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}

func mapModelToUserResponse(user *models.User) UserResponse {
	roles := make([]string, 0, len(user.Roles))
	for _, r := range user.Roles {
		roles = append(roles, r.Name)
	}
	return UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Nickname:  user.Nickname,
		Roles:     roles,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

// RegisterRoutes sets up the user-related routes for a go-restful WebService.
func (ctl *UserController) RegisterRoutes(ws *restful.WebService) {
	ws.Path("/users").Consumes(restful.MIME_JSON).Produces(restful.MIME_JSON)
	guard := ctl.checker.RequirePermission(enums.SeePanel, enums.ManageUsers)

	ws.Route(ws.GET("/{user-id}").Filter(auth.AuthFilter()).Filter(guard).To(ctl.getUserByIDHandler).
		Doc("Get user by ID with effective permissions").
		Param(ws.PathParameter("user-id", "Identifier of the user").DataType("integer")).
		Metadata(restfulspec.KeyOpenAPITags, []string{"users"}).
		Writes(UserResponse{}).
		Returns(http.StatusOK, "User found", UserResponse{}).
		Returns(http.StatusUnauthorized, "Unauthorized", ErrorResponse{}).
		Returns(http.StatusForbidden, "Forbidden", ErrorResponse{}).
		Returns(http.StatusNotFound, "User not found", ErrorResponse{}))

	ws.Route(ws.GET("").Filter(auth.AuthFilter()).Filter(guard).To(ctl.listUsersHandler).
		Doc("List users with pagination").
		Param(ws.QueryParameter("page", "Page number (default 1)").DataType("integer").DefaultValue("1")).
		Param(ws.QueryParameter("page_size", "Users per page (default 10)").DataType("integer").DefaultValue("10")).
		Metadata(restfulspec.KeyOpenAPITags, []string{"users"}).
		Writes(PaginatedUsersResponse{}).
		Returns(http.StatusOK, "Users listed successfully", PaginatedUsersResponse{}).
		Returns(http.StatusUnauthorized, "Unauthorized", ErrorResponse{}).
		Returns(http.StatusForbidden, "Forbidden", ErrorResponse{}))
}

// getUserByIDHandler (Handles GET /users/{user-id})
func (ctl *UserController) getUserByIDHandler(request *restful.Request, response *restful.Response) {
	targetUserID, err := strconv.ParseUint(request.PathParameter("user-id"), 10, 32)
	if err != nil {
		_ = response.WriteHeaderAndJson(http.StatusBadRequest, ErrorResponse{Message: "Invalid user ID format"}, restful.MIME_JSON)
		return
	}

	user, perms, err := ctl.userService.GetUserByID(request.Request.Context(), uint(targetUserID))
	if err != nil {
		handleServiceError(response, err)
		return
	}

	resp := mapModelToUserResponse(user)
	resp.Permissions = perms
	_ = response.WriteHeaderAndJson(http.StatusOK, resp, restful.MIME_JSON)
}

// listUsersHandler (Handles GET /users)
func (ctl *UserController) listUsersHandler(request *restful.Request, response *restful.Response) {
	page, err := strconv.Atoi(request.QueryParameter("page"))
	if err != nil || page < 1 {
		page = 1
	}
	pageSize, err := strconv.Atoi(request.QueryParameter("page_size"))
	if err != nil || pageSize < 1 {
		pageSize = 10
	}

	users, total, err := ctl.userService.ListUsers(request.Request.Context(), page, pageSize)
	if err != nil {
		handleServiceError(response, err)
		return
	}

	userResponses := make([]UserResponse, len(users))
	for i := range users {
		userResponses[i] = mapModelToUserResponse(&users[i])
	}

	_ = response.WriteHeaderAndJson(http.StatusOK, PaginatedUsersResponse{
		Users:    userResponses,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, restful.MIME_JSON)
}
