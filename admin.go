// admin.go - privacy-conscious visitor analytics and the admin dashboard
package main

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/rogermuhire/portfolio/internal/config"
	"github.com/rogermuhire/portfolio/internal/contact"
)

const (
	adminCookie      = "admin_token"
	visitorRetention = 365 * 24 * time.Hour
)

type VisitorMetric struct {
	ID        int       `json:"id"`
	HashedIP  string    `json:"hashed_ip"`
	UserAgent string    `json:"user_agent"`
	Path      string    `json:"path"`
	Timestamp time.Time `json:"timestamp"`
}

type PathStat struct {
	Path   string `json:"path"`
	Visits int64  `json:"visits"`
}

// ContactRecord is one logged contact-form submission and its delivery outcome.
type ContactRecord struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	Delivered bool      `json:"delivered"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type AdminStats struct {
	TotalVisitors    int64           `json:"total_visitors"`
	UniqueVisitors   int64           `json:"unique_visitors"`
	VisitorsToday    int64           `json:"visitors_today"`
	VisitorsThisWeek int64           `json:"visitors_this_week"`
	Testimonials     int             `json:"testimonials"`
	ContactMessages  int64           `json:"contact_messages"`
	ContactFailures  int64           `json:"contact_failures"`
	TopPaths         []PathStat      `json:"top_paths"`
	RecentVisitors   []VisitorMetric `json:"recent_visitors"`
	RecentContacts   []ContactRecord `json:"recent_contacts"`
}

// adminAuth holds the per-process secrets behind admin sessions and IP hashing.
type adminAuth struct {
	username     string
	passwordHash []byte
	signingKey   []byte
	hashingSalt  string
	session      time.Duration
}

func newAdminAuth(cfg config.AdminConfig) (*adminAuth, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}
	key, err := randomHex(32)
	if err != nil {
		return nil, err
	}
	salt, err := randomHex(32)
	if err != nil {
		return nil, err
	}
	session := cfg.Session
	if session <= 0 {
		session = 24 * time.Hour
	}
	return &adminAuth{
		username:     cfg.Username,
		passwordHash: hash,
		signingKey:   []byte(key),
		hashingSalt:  salt,
		session:      session,
	}, nil
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate random secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// hashIP is stable per IP for the life of the process.
func (a *adminAuth) hashIP(ip string) string {
	sum := sha256.Sum256([]byte(ip + a.hashingSalt))
	return hex.EncodeToString(sum[:])[:16]
}

func (a *adminAuth) checkCredentials(username, password string) bool {
	if username != a.username {
		return false
	}
	return bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)) == nil
}

func (a *adminAuth) issueToken(now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   a.username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(a.session)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.signingKey)
}

func (a *adminAuth) validToken(raw string) bool {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return a.signingKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return false
	}
	return claims.Subject == a.username
}

func (a *adminAuth) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(adminCookie)
		if err != nil || !a.validToken(token) {
			c.Redirect(http.StatusFound, "/admin/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// visitorTrackingMiddleware records page views with hashed IPs.
func (s *server) visitorTrackingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if c.Request.Method != http.MethodGet ||
			strings.HasPrefix(path, "/images/") ||
			strings.HasPrefix(path, "/admin/") ||
			strings.HasPrefix(path, "/profile/") ||
			strings.HasPrefix(path, "/favicon") ||
			path == "/metrics" ||
			path == "/privacy" {
			c.Next()
			return
		}

		// Respect Do Not Track header
		if c.GetHeader("DNT") == "1" {
			c.Next()
			return
		}

		s.trackVisitor(c.ClientIP(), c.GetHeader("User-Agent"), path)
		c.Next()
	}
}

func (s *server) trackVisitor(ip, userAgent, path string) {
	_, err := s.db.Exec(`
		INSERT INTO visitors (hashed_ip, user_agent, path, timestamp)
		VALUES (?, ?, ?, ?)
	`, s.admin.hashIP(ip), userAgent, path, s.now().UTC())
	if err != nil {
		s.log.WithError(err).Warnw("Error recording visitor")
	}
}

// recordContact logs a contact submission with its delivery outcome.
func (s *server) recordContact(sub contact.Submission, sendErr error) {
	var errText string
	if sendErr != nil {
		errText = sendErr.Error()
	}
	_, err := s.db.Exec(`
		INSERT INTO contact_messages (name, email, message, delivered, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, sub.Name, sub.Email, sub.Message, sendErr == nil, errText, s.now().UTC())
	if err != nil {
		s.log.WithError(err).Warnw("Error recording contact message")
	}
}

// cleanupOldVisitorData drops visits older than the retention window.
func (s *server) cleanupOldVisitorData() (int64, error) {
	cutoff := s.now().UTC().Add(-visitorRetention)
	result, err := s.db.Exec(`DELETE FROM visitors WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup visitors: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows > 0 {
		s.log.Infow("Privacy cleanup removed old visitor records", "rows", rows)
	}
	return rows, nil
}

func (s *server) getAdminStats() (*AdminStats, error) {
	stats := &AdminStats{}
	now := s.now().UTC()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	counts := []struct {
		dst   *int64
		query string
		args  []any
	}{
		{&stats.TotalVisitors, `SELECT COUNT(*) FROM visitors`, nil},
		{&stats.UniqueVisitors, `SELECT COUNT(DISTINCT hashed_ip) FROM visitors`, nil},
		{&stats.VisitorsToday, `SELECT COUNT(*) FROM visitors WHERE timestamp >= ?`, []any{startOfDay}},
		{&stats.VisitorsThisWeek, `SELECT COUNT(*) FROM visitors WHERE timestamp >= ?`, []any{now.Add(-7 * 24 * time.Hour)}},
		{&stats.ContactMessages, `SELECT COUNT(*) FROM contact_messages`, nil},
		{&stats.ContactFailures, `SELECT COUNT(*) FROM contact_messages WHERE delivered = 0`, nil},
	}
	for _, q := range counts {
		if err := s.db.QueryRow(q.query, q.args...).Scan(q.dst); err != nil {
			return nil, fmt.Errorf("admin stats: %w", err)
		}
	}

	testimonials, err := s.testimonials.Load()
	if err != nil {
		return nil, err
	}
	stats.Testimonials = len(testimonials)

	if stats.TopPaths, err = s.topPaths(10); err != nil {
		return nil, err
	}
	if stats.RecentVisitors, err = s.listVisitors(50); err != nil {
		return nil, err
	}
	if stats.RecentContacts, err = s.listContacts(20); err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *server) topPaths(limit int) ([]PathStat, error) {
	rows, err := s.db.Query(`
		SELECT COALESCE(path, ''), COUNT(*) AS visits
		FROM visitors
		GROUP BY path
		ORDER BY visits DESC, path
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("top paths: %w", err)
	}
	defer rows.Close()

	var paths []PathStat
	for rows.Next() {
		var p PathStat
		if err := rows.Scan(&p.Path, &p.Visits); err != nil {
			continue
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

func (s *server) listVisitors(limit int) ([]VisitorMetric, error) {
	rows, err := s.db.Query(`
		SELECT id, hashed_ip, COALESCE(user_agent, ''), COALESCE(path, ''), timestamp
		FROM visitors
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list visitors: %w", err)
	}
	defer rows.Close()

	var visitors []VisitorMetric
	for rows.Next() {
		var v VisitorMetric
		if err := rows.Scan(&v.ID, &v.HashedIP, &v.UserAgent, &v.Path, &v.Timestamp); err != nil {
			continue
		}
		visitors = append(visitors, v)
	}
	return visitors, rows.Err()
}

func (s *server) listContacts(limit int) ([]ContactRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, COALESCE(name, ''), COALESCE(email, ''), COALESCE(message, ''), delivered, COALESCE(error, ''), created_at
		FROM contact_messages
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	var contacts []ContactRecord
	for rows.Next() {
		var r ContactRecord
		if err := rows.Scan(&r.ID, &r.Name, &r.Email, &r.Message, &r.Delivered, &r.Error, &r.CreatedAt); err != nil {
			continue
		}
		contacts = append(contacts, r)
	}
	return contacts, rows.Err()
}

func (s *server) setupAdminRoutes(r *gin.Engine) {
	r.GET("/privacy", func(c *gin.Context) {
		c.HTML(http.StatusOK, "privacy.html", gin.H{"title": "Privacy Policy"})
	})

	r.GET("/admin/login", func(c *gin.Context) {
		c.HTML(http.StatusOK, "admin-login.html", gin.H{"title": "Admin Login"})
	})

	r.POST("/admin/login", func(c *gin.Context) {
		username := c.PostForm("username")
		password := c.PostForm("password")

		if !s.admin.checkCredentials(username, password) {
			s.log.Warnw("Failed admin login attempt", "visitor", s.admin.hashIP(c.ClientIP()))
			c.HTML(http.StatusUnauthorized, "admin-login.html", gin.H{"error": "Invalid credentials"})
			return
		}

		token, err := s.admin.issueToken(s.now())
		if err != nil {
			s.log.WithError(err).Errorw("Error issuing admin token")
			c.HTML(http.StatusInternalServerError, "error.html", gin.H{"error": "Login failed"})
			return
		}
		c.SetCookie(adminCookie, token, int(s.admin.session.Seconds()), "/admin", "", false, true)
		s.log.Infow("Admin login successful", "visitor", s.admin.hashIP(c.ClientIP()))
		c.Redirect(http.StatusFound, "/admin/dashboard")
	})

	r.GET("/admin/logout", func(c *gin.Context) {
		c.SetCookie(adminCookie, "", -1, "/admin", "", false, true)
		c.Redirect(http.StatusFound, "/admin/login")
	})

	admin := r.Group("/admin")
	admin.Use(s.admin.middleware())

	admin.GET("/dashboard", func(c *gin.Context) {
		stats, err := s.getAdminStats()
		if err != nil {
			s.log.WithError(err).Errorw("Error loading admin stats")
			c.HTML(http.StatusInternalServerError, "error.html", gin.H{"error": "Failed to load statistics"})
			return
		}
		c.HTML(http.StatusOK, "admin-dashboard.html", gin.H{"stats": stats})
	})

	admin.GET("/api/stats", func(c *gin.Context) {
		stats, err := s.getAdminStats()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, stats)
	})

	admin.GET("/visitors", func(c *gin.Context) {
		visitors, err := s.listVisitors(200)
		if err != nil {
			c.HTML(http.StatusInternalServerError, "error.html", gin.H{"error": "Failed to load visitors"})
			return
		}
		c.HTML(http.StatusOK, "admin-visitors.html", gin.H{"visitors": visitors})
	})

	admin.GET("/contacts", func(c *gin.Context) {
		contacts, err := s.listContacts(200)
		if err != nil {
			c.HTML(http.StatusInternalServerError, "error.html", gin.H{"error": "Failed to load contact messages"})
			return
		}
		c.HTML(http.StatusOK, "admin-contacts.html", gin.H{"contacts": contacts})
	})

	admin.POST("/privacy/cleanup", func(c *gin.Context) {
		rows, err := s.cleanupOldVisitorData()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"removed": rows})
	})

	admin.GET("/export/stats", func(c *gin.Context) {
		stats, err := s.getAdminStats()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Header("Content-Disposition", "attachment; filename=admin-stats.json")
		c.JSON(http.StatusOK, stats)
	})
}
