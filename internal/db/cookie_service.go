package db

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/balkashynov/saj/internal/logger"
	"github.com/balkashynov/saj/internal/models"
)

// CookieJar is an http.CookieJar whose cookies survive process restarts.
// Lookups are served by net/http/cookiejar, every change is mirrored to SQLite.
type CookieJar struct {
	mu  sync.Mutex
	db  *gorm.DB
	jar *cookiejar.Jar
	now func() time.Time
}

// NewCookieJar creates a jar and replays the persisted, unexpired cookies into it
func NewCookieJar(db *gorm.DB) (*CookieJar, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	j := &CookieJar{db: db, jar: jar, now: time.Now}
	if err := j.load(); err != nil {
		return nil, err
	}
	return j, nil
}

// load fills the in-memory jar from the database and drops expired rows
func (j *CookieJar) load() error {
	var stored []models.StoredCookie
	if err := j.db.Find(&stored).Error; err != nil {
		return fmt.Errorf("failed to load cookies: %w", err)
	}

	log := logger.Get()
	now := j.now()
	for _, sc := range stored {
		if sc.Expires != nil && !sc.Expires.After(now) {
			if err := j.db.Delete(&models.StoredCookie{}, sc.ID).Error; err != nil {
				log.Error().Err(err).Str("cookie", sc.Name).Msg("failed to prune expired cookie")
			}
			continue
		}

		u := &url.URL{Scheme: sc.Scheme, Host: sc.Host, Path: sc.Path}
		cookie := &http.Cookie{
			Name:     sc.Name,
			Value:    sc.Value,
			Path:     sc.Path,
			Domain:   sc.Domain,
			Secure:   sc.Secure,
			HttpOnly: sc.HttpOnly,
		}
		if sc.Expires != nil {
			cookie.Expires = *sc.Expires
		}
		j.jar.SetCookies(u, []*http.Cookie{cookie})
	}
	return nil
}

// SetCookies implements http.CookieJar
func (j *CookieJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.jar.SetCookies(u, cookies)

	log := logger.Get()
	now := j.now()
	for _, c := range cookies {
		path := c.Path
		if path == "" || path[0] != '/' {
			path = defaultCookiePath(u.Path)
		}

		// Max-Age=0 or an expiry in the past removes the cookie
		if c.MaxAge < 0 || (!c.Expires.IsZero() && !c.Expires.After(now)) {
			err := j.db.Where("host = ? AND path = ? AND name = ?", u.Host, path, c.Name).
				Delete(&models.StoredCookie{}).Error
			if err != nil {
				log.Error().Err(err).Str("cookie", c.Name).Msg("failed to delete stored cookie")
			}
			continue
		}

		var expires *time.Time
		if c.MaxAge > 0 {
			t := now.Add(time.Duration(c.MaxAge) * time.Second)
			expires = &t
		} else if !c.Expires.IsZero() {
			t := c.Expires
			expires = &t
		}

		stored := models.StoredCookie{
			Host:     u.Host,
			Path:     path,
			Name:     c.Name,
			Scheme:   u.Scheme,
			Value:    c.Value,
			Domain:   c.Domain,
			Expires:  expires,
			Secure:   c.Secure,
			HttpOnly: c.HttpOnly,
		}
		err := j.db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "host"}, {Name: "path"}, {Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "scheme", "domain", "expires", "secure", "http_only", "updated_at"}),
		}).Create(&stored).Error
		if err != nil {
			log.Error().Err(err).Str("cookie", c.Name).Msg("failed to persist cookie")
		}
	}
}

// Cookies implements http.CookieJar
func (j *CookieJar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.jar.Cookies(u)
}

// Clear forgets every cookie, in memory and on disk
func (j *CookieJar) Clear(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	jar, err := cookiejar.New(nil)
	if err != nil {
		return err
	}
	j.jar = jar

	if err := j.db.WithContext(ctx).Where("1 = 1").Delete(&models.StoredCookie{}).Error; err != nil {
		return fmt.Errorf("failed to clear cookies: %w", err)
	}
	return nil
}

// defaultCookiePath mirrors the RFC 6265 default-path algorithm
func defaultCookiePath(urlPath string) string {
	if urlPath == "" || urlPath[0] != '/' {
		return "/"
	}
	i := strings.LastIndex(urlPath, "/")
	if i == 0 {
		return "/"
	}
	return urlPath[:i]
}
