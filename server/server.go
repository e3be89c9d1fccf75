package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"acl-center/auth"
	"acl-center/controllers"
	"acl-center/database"
	"acl-center/repositories"
	"acl-center/services"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"
	"github.com/go-openapi/spec"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps are the collaborators the HTTP API is built from.
type Deps struct {
	DB      *gorm.DB
	Users   repositories.UserRepository
	Checker *auth.PermissionChecker
	ACL     *services.ACLSyncService
	Logger  *zap.Logger
}

// NewContainer registers every web service and the OpenAPI document.
func NewContainer(d Deps) *restful.Container {
	container := restful.NewContainer()
	container.Filter(LoggingFilter(d.Logger))

	loginWS := new(restful.WebService)
	loginWS.Path("/login").Consumes(restful.MIME_JSON).Produces(restful.MIME_JSON)
	loginWS.Route(loginWS.POST("").To(auth.NewLoginHandler(d.Users).Login).
		Doc("Exchange credentials for a token").
		Metadata(restfulspec.KeyOpenAPITags, []string{"auth"}).
		Reads(auth.LoginCredentials{}).
		Returns(http.StatusOK, "Token issued", auth.LoginResponse{}).
		Returns(http.StatusUnauthorized, "Invalid credentials", auth.LoginResponse{}))
	container.Add(loginWS)

	aclWS := new(restful.WebService)
	controllers.NewACLController(d.ACL, d.Checker).RegisterRoutes(aclWS)
	container.Add(aclWS)

	userWS := new(restful.WebService)
	controllers.NewUserController(services.NewUserService(d.Users), d.Checker).RegisterRoutes(userWS)
	container.Add(userWS)

	healthWS := new(restful.WebService)
	controllers.NewHealthController(func(ctx context.Context) error {
		return database.Ping(ctx, d.DB)
	}).RegisterRoutes(healthWS)
	container.Add(healthWS)

	container.Add(restfulspec.NewOpenAPIService(restfulspec.Config{
		WebServices:                   container.RegisteredWebServices(),
		APIPath:                       "/apidocs.json",
		PostBuildSwaggerObjectHandler: enrichSwaggerObject,
	}))
	return container
}

func enrichSwaggerObject(swo *spec.Swagger) {
	swo.Info = &spec.Info{
		InfoProps: spec.InfoProps{
			Title:       "ACL Center",
			Description: "Role and permission administration",
			Version:     "1.0.0",
		},
	}
	swo.SecurityDefinitions = spec.SecurityDefinitions{
		"bearer": spec.APIKeyAuth("Authorization", "header"),
	}
}

// LoggingFilter logs every request once it has been handled.
func LoggingFilter(logger *zap.Logger) restful.FilterFunction {
	return func(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
		start := time.Now()
		chain.ProcessFilter(req, resp)

		logger.Info("Request",
			zap.String("client_ip", req.Request.RemoteAddr),
			zap.String("method", req.Request.Method),
			zap.String("path", req.Request.URL.Path),
			zap.Int("status_code", resp.StatusCode()),
			zap.Duration("latency", time.Since(start)),
			zap.String("user_agent", req.Request.UserAgent()),
		)
	}
}

// Run serves handler on port until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, port int, handler http.Handler, logger *zap.Logger) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("Shutting down HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}
