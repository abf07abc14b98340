// internal/config/views.go
//
// Typed views over a Snapshot.
//
// Context
// -------
// Collaborators never pass (section, key) strings around.  They take one
// of these structs, built from the snapshot by the functions below.  The
// structs are plain values: copying them is cheap and they stay valid for
// the life of the process.  A view function only panics when the schema
// and the view disagree, which the package tests rule out.
package config

import (
	"time"

	"github.com/netpulse/devicemngr/internal/snapshot"
)

// Database engines accepted by DB_ENGINE.
const (
	EnginePostgres = "postgresql"
	EngineMySQL    = "mysql"
)

// Database holds connection-pool parameters for the primary store.
type Database struct {
	Engine     string
	Name       string
	User       string
	Password   string
	Host       string
	Port       int
	ConnMaxAge time.Duration
	SSLMode    string
}

// Redis holds one client block (tasks or caching).
type Redis struct {
	Host     string
	Port     int
	Username string
	Password string
	Database int
	SSL      bool
}

// Email holds mail-transport parameters.
type Email struct {
	Server   string
	Port     int
	Username string
	Password string
	UseSSL   bool
	UseTLS   bool
	Timeout  time.Duration
	From     string
}

// Logging configures internal/logger.
type Logging struct {
	Level   string
	Dir     string
	Console bool
}

// Diagnostics configures the operator HTTP listener.
type Diagnostics struct {
	ListenAddr   string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	AdminRoles   []string
}

// CORS configures cross-origin access to the diagnostics listener.
type CORS struct {
	AllowAll bool
	Origins  []string

	// OriginPatterns are regular expressions matched against the Origin
	// header in addition to Origins.
	OriginPatterns []string
}

func DatabaseFrom(s *snapshot.Snapshot) Database {
	return Database{
		Engine:     s.MustString(SecDatabase, "ENGINE"),
		Name:       s.MustString(SecDatabase, "NAME"),
		User:       s.MustString(SecDatabase, "USER"),
		Password:   s.MustString(SecDatabase, "PASSWORD"),
		Host:       s.MustString(SecDatabase, "HOST"),
		Port:       s.MustInt(SecDatabase, "PORT"),
		ConnMaxAge: s.MustDuration(SecDatabase, "CONN_MAX_AGE"),
		SSLMode:    s.MustString(SecDatabase, "SSL_MODE"),
	}
}

// RedisFrom reads SecTasks or SecCaching.
func RedisFrom(s *snapshot.Snapshot, section string) Redis {
	return Redis{
		Host:     s.MustString(section, "HOST"),
		Port:     s.MustInt(section, "PORT"),
		Username: s.MustString(section, "USERNAME"),
		Password: s.MustString(section, "PASSWORD"),
		Database: s.MustInt(section, "DATABASE"),
		SSL:      s.MustBool(section, "SSL"),
	}
}

func EmailFrom(s *snapshot.Snapshot) Email {
	return Email{
		Server:   s.MustString(SecEmail, "SERVER"),
		Port:     s.MustInt(SecEmail, "PORT"),
		Username: s.MustString(SecEmail, "USERNAME"),
		Password: s.MustString(SecEmail, "PASSWORD"),
		UseSSL:   s.MustBool(SecEmail, "USE_SSL"),
		UseTLS:   s.MustBool(SecEmail, "USE_TLS"),
		Timeout:  s.MustDuration(SecEmail, "TIMEOUT"),
		From:     s.MustString(SecEmail, "FROM_EMAIL"),
	}
}

func LoggingFrom(s *snapshot.Snapshot) Logging {
	return Logging{
		Level:   s.MustString(SecLogging, "LEVEL"),
		Dir:     s.MustString(SecLogging, "DIR"),
		Console: s.MustBool(SecLogging, "CONSOLE"),
	}
}

func DiagnosticsFrom(s *snapshot.Snapshot) Diagnostics {
	return Diagnostics{
		ListenAddr:   s.MustString(SecDiagnostics, "LISTEN_ADDR"),
		ReadTimeout:  s.MustDuration(SecDiagnostics, "READ_TIMEOUT"),
		WriteTimeout: s.MustDuration(SecDiagnostics, "WRITE_TIMEOUT"),
		IdleTimeout:  s.MustDuration(SecDiagnostics, "IDLE_TIMEOUT"),
		AdminRoles:   s.MustStrings(SecDiagnostics, "ADMIN_ROLES"),
	}
}

func CORSFrom(s *snapshot.Snapshot) CORS {
	return CORS{
		AllowAll: s.MustBool(SecCORS, "ORIGIN_ALLOW_ALL"),
		Origins:  s.MustStrings(SecCORS, "ORIGIN_WHITELIST"),

		OriginPatterns: s.MustStrings(SecCORS, "ORIGIN_REGEX_WHITELIST"),
	}
}
