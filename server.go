package main

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/rogermuhire/portfolio/internal/config"
	"github.com/rogermuhire/portfolio/internal/contact"
	"github.com/rogermuhire/portfolio/internal/content"
	"github.com/rogermuhire/portfolio/internal/logger"
	"github.com/rogermuhire/portfolio/internal/metrics"
	"github.com/rogermuhire/portfolio/internal/store"
)

const limiterIdle = 10 * time.Minute

// server carries everything a request handler needs. Nothing here is global.
type server struct {
	cfg          *config.Config
	log          *logger.Logger
	fs           afero.Fs
	profiles     *store.ProfileStore
	testimonials *store.TestimonialStore
	mailer       contact.Sender
	catalog      *content.Catalog
	metrics      *metrics.Metrics
	db           *sql.DB
	admin        *adminAuth
	limiter      *clientLimiter
	now          func() time.Time
}

type serverDeps struct {
	cfg     *config.Config
	log     *logger.Logger
	fs      afero.Fs
	mailer  contact.Sender
	catalog *content.Catalog
	db      *sql.DB
}

func newServer(d serverDeps) (*server, error) {
	admin, err := newAdminAuth(d.cfg.Admin)
	if err != nil {
		return nil, err
	}
	storage := d.cfg.Storage
	return &server{
		cfg:          d.cfg,
		log:          d.log,
		fs:           d.fs,
		profiles:     store.NewProfileStore(d.fs, storage.Resolve(storage.ProfileFile)),
		testimonials: store.NewTestimonialStore(d.fs, storage.Resolve(storage.TestimonialsFile)),
		mailer:       d.mailer,
		catalog:      d.catalog,
		metrics:      metrics.New(),
		db:           d.db,
		admin:        admin,
		limiter:      newClientLimiter(d.cfg.Limits.SubmissionsPerMinute, d.cfg.Limits.Burst, limiterIdle),
		now:          time.Now,
	}, nil
}

func (s *server) routes() *gin.Engine {
	r := gin.New()
	r.SetHTMLTemplate(loadTemplates())
	r.MaxMultipartMemory = s.cfg.Storage.MaxUploadBytes

	r.Use(s.requestLogger(), gin.Recovery(), s.visitorTrackingMiddleware())

	r.GET("/", s.home)
	r.POST("/about", s.saveAbout)
	r.GET("/projects", s.projects)
	r.GET("/skills", s.skills)
	r.GET("/testimonials", s.listTestimonials)
	r.POST("/testimonials", s.submissionLimit(), s.submitTestimonial)
	r.GET("/timeline", s.timeline)
	r.GET("/settings", s.settings)
	r.POST("/settings", s.saveSettings)
	r.GET("/contact", s.contactForm)
	r.POST("/contact", s.submissionLimit(), s.sendContact)

	r.GET("/profile/picture", s.profilePicture)
	r.POST("/profile/picture", s.uploadProfilePicture)
	r.GET("/resume", s.resume)
	r.GET("/images/:name", s.image)

	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	s.setupAdminRoutes(r)
	return r
}

// requestLogger tags each request with an id and logs it once it completes.
func (s *server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Header("X-Request-ID", id)
		c.Set("request_id", id)

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		s.metrics.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()

		log := s.log.WithRequestID(id)
		fields := []interface{}{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", time.Since(start),
		}
		if len(c.Errors) > 0 {
			log.Errorw("Request failed", append(fields, "errors", c.Errors.String())...)
			return
		}
		log.Infow("Request", fields...)
	}
}

// submissionLimit throttles form posts per client IP.
func (s *server) submissionLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.limiter.allow(c.ClientIP(), s.now()) {
			s.requestLog(c).Warnw("Submission throttled", "client", s.admin.hashIP(c.ClientIP()))
			c.HTML(http.StatusTooManyRequests, "failure.html", gin.H{
				"error": "Too many submissions, please try again in a minute.",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

func (s *server) requestLog(c *gin.Context) *logger.Logger {
	return s.log.WithRequestID(c.GetString("request_id"))
}
