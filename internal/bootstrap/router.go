package bootstrap

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	httpapi "github.com/cognigraph/cognigraph-backend/internal/api/http"
	"github.com/cognigraph/cognigraph-backend/internal/api/http/middleware"
	"github.com/cognigraph/cognigraph-backend/internal/nlp"
	nlphttp "github.com/cognigraph/cognigraph-backend/internal/nlp/http"
	topichttp "github.com/cognigraph/cognigraph-backend/internal/topics/http"
	"github.com/cognigraph/cognigraph-backend/internal/topics/repository"
	"github.com/cognigraph/cognigraph-backend/internal/topics/service"
)

const welcomeText = "Welcome to CogniGraph Backend API"

type RouterDeps struct {
	ServiceName string
	Version     string
	CORSOrigins []string
	StoreName   string
	Store       repository.Store
	StorePing   httpapi.PingFunc
	Extractor   *nlp.Extractor
	Registry    *prometheus.Registry
	Logger      *zap.Logger
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	log := dep.Logger
	if log == nil {
		log = zap.NewNop()
	}
	reg := dep.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	r := gin.New()
	// route on the escaped path so an encoded '/' inside a topic name
	// does not split the segment; gin unescapes the captured value
	r.UseRawPath = true
	r.UnescapePathValues = true

	r.Use(gin.Recovery())
	r.Use(cors.New(corsConfig(dep.CORSOrigins)))
	r.Use(middleware.RequestIDMiddleware(log))
	r.Use(middleware.NewHTTPMetrics(reg).Middleware())

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, welcomeText)
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.StoreName, dep.StorePing)
	healthHandler.RegisterRoutes(r)

	api := r.Group("/api")

	topicService := service.NewTopicService(dep.Store, log.Named("topics"))
	topichttp.NewHandler(topicService, log.Named("topics")).Register(api.Group("/topics"))

	if dep.Extractor != nil {
		nlphttp.NewHandler(dep.Extractor, log.Named("nlp")).Register(api)
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}
	cfg.AllowHeaders = append(cfg.AllowHeaders, "X-Request-Id")
	cfg.ExposeHeaders = []string{"X-Request-Id"}

	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
