package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	alertapp "envmonitor-cloud/internal/alerts/application"
	alertrepo "envmonitor-cloud/internal/alerts/infrastructure/postgres"
	alerthttp "envmonitor-cloud/internal/alerts/interfaces/http"
	alertnotify "envmonitor-cloud/internal/alerts/notify"
	analyticsapp "envmonitor-cloud/internal/analytics/application"
	apihttp "envmonitor-cloud/internal/api/http"
	ingestapp "envmonitor-cloud/internal/ingest/application"
	ingesthttp "envmonitor-cloud/internal/ingest/interfaces/http"
	"envmonitor-cloud/internal/observability/metrics"
	sensorrepo "envmonitor-cloud/internal/sensors/infrastructure/postgres"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Fatalf("timezone error: %v", err)
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}
	if err := sensorrepo.EnsureSchema(context.Background(), db); err != nil {
		logger.Fatalf("schema error: %v", err)
	}

	metrics.Init(db, logger)

	rules, err := alertapp.LoadRules(cfg.ThresholdsConfig)
	if err != nil {
		logger.Fatalf("threshold config error: %v", err)
	}

	broker := alerthttp.NewSSEBroker()
	notifiers := []alertapp.AlertNotifier{broker}

	var emailChannel *alertnotify.SMTPChannel
	if cfg.SMTP.Complete() {
		emailChannel, err = alertnotify.NewSMTPChannel(cfg.SMTP)
		if err != nil {
			logger.Fatalf("smtp channel error: %v", err)
		}
		emailNotifier, err := alertnotify.NewEmailNotifier(emailChannel, logger, alertnotify.WithSendTimeout(cfg.SMTPTimeout))
		if err != nil {
			logger.Fatalf("email notifier error: %v", err)
		}
		notifiers = append(notifiers, emailNotifier)
	} else {
		logger.Printf("smtp relay not configured, alert email disabled")
	}

	alertService, err := alertapp.NewService(rules, alertrepo.NewStateRepository(db),
		alertapp.WithNotifier(alertnotify.NewMultiNotifier(notifiers...)))
	if err != nil {
		logger.Fatalf("alert service error: %v", err)
	}

	readingRepo := sensorrepo.NewReadingRepository(db)
	readingQuery := sensorrepo.NewReadingQuery(db)

	ingestService, err := ingestapp.NewService(readingRepo, alertService, loc, logger)
	if err != nil {
		logger.Fatalf("ingest service error: %v", err)
	}
	ingestHandler, err := ingesthttp.NewHandler(ingestService, loc, logger)
	if err != nil {
		logger.Fatalf("ingest handler error: %v", err)
	}

	analyticsService, err := analyticsapp.NewService(readingQuery, loc)
	if err != nil {
		logger.Fatalf("analytics service error: %v", err)
	}
	dashboardHandler, err := apihttp.NewDashboardHandler(analyticsService, logger)
	if err != nil {
		logger.Fatalf("dashboard handler error: %v", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/add", ingestHandler)
	mux.Handle("/add-batch", ingestHandler)
	mux.HandleFunc("/latest", dashboardHandler.HandleLatest)
	mux.HandleFunc("/trend/", dashboardHandler.HandleTrend)
	mux.HandleFunc("/daily-summary/", dashboardHandler.HandleDailySummary)
	mux.HandleFunc("/api/v1/exports/daily.xlsx", dashboardHandler.HandleExportXLSX)
	mux.HandleFunc("/api/v1/exports/daily.pdf", dashboardHandler.HandleExportPDF)
	mux.Handle("/api/v1/alerts/stream", alerthttp.NewStreamHandler(broker))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/test-email", testEmailHandler(emailChannel, logger))
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDir))))
	mux.HandleFunc("/dashboard", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, cfg.StaticDir+"/dashboard.html")
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "running"})
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(mux, logger)}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

func testEmailHandler(channel *alertnotify.SMTPChannel, logger *log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if channel == nil {
			http.Error(w, "smtp relay not configured", http.StatusServiceUnavailable)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
		defer cancel()
		if err := channel.Send(ctx, "Test Alert", "This is a test email from the environmental monitor."); err != nil {
			logger.Printf("test email failed: %v", err)
			http.Error(w, "send failed", http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "sent"})
	}
}

type config struct {
	DatabaseURL      string
	HTTPAddr         string
	Timezone         string
	ThresholdsConfig string
	StaticDir        string
	SMTP             alertnotify.SMTPConfig
	SMTPTimeout      time.Duration
}

func loadConfig() config {
	cfg := config{
		DatabaseURL:      getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:         getenvDefault("HTTP_ADDR", ":8080"),
		Timezone:         getenvDefault("TIMEZONE", "Asia/Kolkata"),
		ThresholdsConfig: getenvDefault("THRESHOLDS_CONFIG", ""),
		StaticDir:        getenvDefault("STATIC_DIR", "static"),
		SMTP: alertnotify.SMTPConfig{
			Host:      getenvDefault("SMTP_SERVER", "smtp-relay.brevo.com"),
			Port:      getenvIntDefault("SMTP_PORT", 587),
			Username:  getenvDefault("SMTP_USERNAME", ""),
			Password:  getenvDefault("SMTP_PASSWORD", ""),
			Sender:    getenvDefault("ALERT_EMAIL", ""),
			Recipient: getenvDefault("ALERT_TO", getenvDefault("ALERT_EMAIL", "")),
		},
		SMTPTimeout: getenvDuration("SMTP_SEND_TIMEOUT", 20*time.Second),
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL or PG_DSN is required")
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Flush keeps the alert stream working through the middleware.
func (w *statusWriter) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
