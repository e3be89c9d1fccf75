package controllers

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"

	"acl-center/auth"
	"acl-center/enums"
	"acl-center/services"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"
)

type ACLController struct {
	acl     *services.ACLSyncService
	checker *auth.PermissionChecker
}

func NewACLController(acl *services.ACLSyncService, checker *auth.PermissionChecker) *ACLController {
	return &ACLController{acl: acl, checker: checker}
}

type RoleResponse struct {
	Role        string   `json:"role"`
	Name        string   `json:"name"`
	RateLimit   int      `json:"rate_limit"`
	Permissions []string `json:"permissions"`
}

type PermissionResponse struct {
	Permission string `json:"permission"`
	Name       string `json:"name"`
	AdminLevel bool   `json:"admin_level"`
	Middleware string `json:"middleware"`
}

type DiffResponse struct {
	Role string `json:"role"`
	services.PermissionDiff
	Unchanged bool `json:"unchanged"`
}

type SyncResponse struct {
	*services.SyncReport
	Output []string `json:"output"`
}

func (ctl *ACLController) RegisterRoutes(ws *restful.WebService) {
	ws.Path("/acl").Consumes(restful.MIME_JSON).Produces(restful.MIME_JSON)
	tags := []string{"acl"}
	canSee := ctl.checker.RequirePanelAccess()
	canManage := ctl.checker.RequirePermission(enums.SeePanel, enums.ManageUsers)

	ws.Route(ws.GET("/roles").Filter(auth.AuthFilter()).Filter(canSee).To(ctl.listRoles).
		Doc("List declared roles").
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Writes([]RoleResponse{}).
		Returns(http.StatusOK, "OK", []RoleResponse{}))

	ws.Route(ws.GET("/permissions").Filter(auth.AuthFilter()).Filter(canSee).To(ctl.listPermissions).
		Doc("List declared permissions").
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Writes([]PermissionResponse{}).
		Returns(http.StatusOK, "OK", []PermissionResponse{}))

	ws.Route(ws.GET("/roles/{role}/diff").Filter(auth.AuthFilter()).Filter(canSee).To(ctl.diffRole).
		Doc("Compare declared and persisted permissions of a role").
		Param(ws.PathParameter("role", "Role name, e.g. admin").DataType("string")).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Writes(DiffResponse{}).
		Returns(http.StatusOK, "OK", DiffResponse{}).
		Returns(http.StatusNotFound, "Unknown role", ErrorResponse{}).
		Returns(http.StatusServiceUnavailable, "Store unavailable", ErrorResponse{}))

	ws.Route(ws.POST("/sync").Filter(auth.AuthFilter()).Filter(canManage).To(ctl.sync).
		AllowedMethodsWithoutContentType([]string{http.MethodPost}).
		Doc("Reconcile persisted role permissions with the declared ones").
		Param(ws.QueryParameter("sync", "Overwrite instead of only granting missing permissions").DataType("boolean").DefaultValue("false")).
		Param(ws.QueryParameter("pretend", "Only compute and log the diff").DataType("boolean").DefaultValue("false")).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Writes(SyncResponse{}).
		Returns(http.StatusOK, "OK", SyncResponse{}).
		Returns(http.StatusConflict, "Sync already running", ErrorResponse{}).
		Returns(http.StatusServiceUnavailable, "Store unavailable", ErrorResponse{}))
}

func (ctl *ACLController) listRoles(_ *restful.Request, response *restful.Response) {
	roles := enums.Roles()
	out := make([]RoleResponse, 0, len(roles))
	for _, r := range roles {
		out = append(out, RoleResponse{
			Role:        string(r),
			Name:        r.Name(),
			RateLimit:   r.RateLimit(),
			Permissions: r.PermissionNames(),
		})
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, out, restful.MIME_JSON)
}

func (ctl *ACLController) listPermissions(_ *restful.Request, response *restful.Response) {
	perms := enums.Permissions()
	out := make([]PermissionResponse, 0, len(perms))
	for _, p := range perms {
		out = append(out, PermissionResponse{
			Permission: string(p),
			Name:       p.Name(),
			AdminLevel: p.IsAdminLevel(),
			Middleware: p.Middleware(),
		})
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, out, restful.MIME_JSON)
}

func (ctl *ACLController) diffRole(request *restful.Request, response *restful.Response) {
	role, err := enums.ParseRole(request.PathParameter("role"))
	if err != nil {
		handleServiceError(response, err)
		return
	}

	diff, err := ctl.acl.DiffRole(request.Request.Context(), role)
	if err != nil {
		handleServiceError(response, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, DiffResponse{
		Role:           string(role),
		PermissionDiff: diff,
		Unchanged:      diff.Unchanged(),
	}, restful.MIME_JSON)
}

func (ctl *ACLController) sync(request *restful.Request, response *restful.Response) {
	opts := services.SyncOptions{
		Sync:    queryBool(request, "sync"),
		Pretend: queryBool(request, "pretend"),
	}

	var out bytes.Buffer
	report, err := ctl.acl.Sync(request.Request.Context(), opts, &out)
	if err != nil {
		handleServiceError(response, err)
		return
	}
	lines := []string{}
	if text := strings.TrimRight(out.String(), "\n"); text != "" {
		lines = strings.Split(text, "\n")
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, SyncResponse{SyncReport: report, Output: lines}, restful.MIME_JSON)
}

func queryBool(request *restful.Request, name string) bool {
	v, err := strconv.ParseBool(request.QueryParameter(name))
	return err == nil && v
}
