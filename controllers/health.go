package controllers

import (
	"context"
	"net/http"
	"time"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"
)

// Pinger reports whether the backing store answers.
type Pinger func(ctx context.Context) error

type HealthController struct {
	ping Pinger
}

func NewHealthController(ping Pinger) *HealthController {
	return &HealthController{ping: ping}
}

type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

func (ctl *HealthController) RegisterRoutes(ws *restful.WebService) {
	ws.Path("/health").Produces(restful.MIME_JSON)
	ws.Route(ws.GET("").To(ctl.health).
		Doc("Liveness and database connectivity").
		Metadata(restfulspec.KeyOpenAPITags, []string{"health"}).
		Returns(http.StatusOK, "Healthy", HealthResponse{}).
		Returns(http.StatusServiceUnavailable, "Database unreachable", HealthResponse{}))
}

func (ctl *HealthController) health(request *restful.Request, response *restful.Response) {
	ctx, cancel := context.WithTimeout(request.Request.Context(), 2*time.Second)
	defer cancel()

	if err := ctl.ping(ctx); err != nil {
		_ = response.WriteHeaderAndJson(http.StatusServiceUnavailable, HealthResponse{Status: "fail", Database: err.Error()}, restful.MIME_JSON)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, HealthResponse{Status: "ok", Database: "ok"}, restful.MIME_JSON)
}
