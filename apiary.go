package apiary

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	log "github.com/sirupsen/logrus"

	"github.com/apiarium/apiary/api/apiv1"
	"github.com/apiarium/apiary/internal/version"
	"github.com/apiarium/apiary/session"
	"github.com/apiarium/apiary/storage/model"
)

// Apiary is the hive management service: the action API and its http
// server.
type Apiary struct {
	server     *fiber.App
	serverConf ServerConf
}

// FiberServerConfig is the fiber.Config that is used to init the http fiber.App
var FiberServerConfig = fiber.Config{
	ReadTimeout:    3 * time.Second,
	WriteTimeout:   20 * time.Second,
	IdleTimeout:    150 * time.Second,
	ReadBufferSize: 8192,
	ErrorHandler:   handleError,
	Network:        "tcp",
}

// handleError answers unhandled errors with the generic server-error body;
// fiber's own routing errors keep their status.
func handleError(ctx *fiber.Ctx, err error) error {
	if e, ok := err.(*fiber.Error); ok && e.Code < fiber.StatusInternalServerError {
		return ctx.Status(e.Code).JSON(fiber.Map{"error": e.Message})
	}
	log.WithError(err).WithField("path", ctx.Path()).Error("unhandled error")
	return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Server error"})
}

// NewApiary creates a new Apiary serving the action API on top of the
// passed storage backends, session manager, and login-failure tracker.
func NewApiary(
	serverConf ServerConf,
	storages model.Backends,
	sessions *session.Manager,
	failures apiv1.FailureTracker,
	apiOpts *apiv1.Options,
) *Apiary {
	if tps := serverConf.TrustedProxies; len(tps) > 0 {
		FiberServerConfig.TrustedProxies = tps
		FiberServerConfig.EnableTrustedProxyCheck = true
	}
	FiberServerConfig.ProxyHeader = serverConf.ForwardedIPHeader
	server := fiber.New(FiberServerConfig)
	server.Use(recover.New())
	server.Use(compress.New())
	server.Use(logger.New())
	server.Use(requestid.New())

	server.Get(
		"/healthz", func(ctx *fiber.Ctx) error {
			return ctx.JSON(fiber.Map{"status": "ok", "version": version.VERSION})
		},
	)
	apiv1.Register(server.Group("/api/v1"), storages, sessions, failures, apiOpts)

	return &Apiary{
		server:     server,
		serverConf: serverConf,
	}
}

// HttpHandlerFunc returns an http.HandlerFunc for serving all the necessary endpoints
func (a *Apiary) HttpHandlerFunc() http.HandlerFunc {
	return adaptor.FiberApp(a.server)
}

// Listen starts an http server at the specific address for serving all the
// necessary endpoints
func (a *Apiary) Listen(addr string) error {
	return a.server.Listen(addr)
}

// Start runs the server per its ServerConf, with optional TLS and an
// http-to-https redirect server. It blocks until the server fails.
func (a *Apiary) Start() {
	conf := a.serverConf
	if !conf.TLS.Enabled {
		log.WithField("port", conf.Port).Info("TLS is disabled, starting http server")
		log.WithError(a.server.Listen(fmt.Sprintf("%s:%d", conf.IPListen, conf.Port))).Fatal()
	}
	if conf.TLS.RedirectHTTP {
		httpServer := fiber.New(FiberServerConfig)
		httpServer.All(
			"*", func(ctx *fiber.Ctx) error {
				//goland:noinspection HttpUrlsUsage
				return ctx.Redirect(
					strings.Replace(ctx.Request().URI().String(), "http://", "https://", 1),
					fiber.StatusPermanentRedirect,
				)
			},
		)
		log.Info("TLS and http redirect enabled, starting redirect server on port 80")
		go func() {
			log.WithError(httpServer.Listen(":80")).Fatal()
		}()
	}
	time.Sleep(time.Millisecond) // This is just for a more pretty output with the tls header printed after the http one
	log.Info("TLS enabled, starting https server on port 443")
	log.WithError(a.server.ListenTLS(":443", conf.TLS.Cert, conf.TLS.Key)).Fatal()
}
