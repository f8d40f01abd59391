package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/panjf2000/ants/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/config"
	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/fieldcheck"
	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/gateway"
	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/model"
	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/observer"
	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/upstream"
	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/utm"
	"gitlab.com/timkado/api/lead-onboarding-gateway/pkg/logger"
)

// LeadTask is one simulated visitor.
type LeadTask struct {
	Service      string
	SubmissionID string // reused to exercise idempotent replays
}

// taskEnv is shared by all workers.
type taskEnv struct {
	cfg        config.GatewayConfig
	aRecord    string
	httpClient upstream.Doer
	wg         *sync.WaitGroup
}

func main() {
	cfg, err := config.LoadConfig("")
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	endpoint := flag.String("url", cfg.Gateway.BaseURL, "Proxy endpoint URL")
	servicesStr := flag.String("services", "onboarding,contact,utm", "Comma-separated list of services to exercise")
	rate := flag.Int("rate", 20, "Target requests per second (total)")
	duration := flag.Duration("duration", 1*time.Minute, "Load test duration")
	concurrency := flag.Int("concurrency", 10, "Number of concurrent workers")
	replayRatio := flag.Float64("replay-ratio", 0.05, "Fraction of onboarding submissions that reuse a previous submission id")
	metricsPort := flag.Int("metrics-port", 9091, "Port for Prometheus metrics endpoint")
	logLevel := flag.String("log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Lead Gateway Load Generator\n")
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Generates onboarding, contact and conversion traffic against the proxy endpoint.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *rate <= 0 {
		*rate = 20
		fmt.Printf("Invalid rate, using default: %d\n", *rate)
	}

	if err := logger.Initialize(*logLevel); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	observer.InitMetrics(true)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metricsServer := startMetricsServer(*metricsPort)
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Log.Error("Metrics server shutdown error", zap.Error(err))
		}
	}()

	services := strings.Split(*servicesStr, ",")
	for _, s := range services {
		switch s {
		case model.ServiceOnboarding, model.ServiceContact, model.ServiceConversion:
		default:
			logger.Log.Fatal("Unsupported service", zap.String("service", s))
		}
	}

	logger.Log.Info("Starting Lead Gateway Load Generator",
		zap.String("url", *endpoint),
		zap.Strings("services", services),
		zap.Int("rate_per_sec", *rate),
		zap.Duration("duration", *duration),
		zap.Int("concurrency", *concurrency),
		zap.Float64("replay_ratio", *replayRatio),
		zap.Int("metrics_port", *metricsPort),
	)

	gofakeit.Seed(time.Now().UnixNano())

	gwCfg := cfg.Gateway
	gwCfg.BaseURL = *endpoint
	var wg sync.WaitGroup
	env := &taskEnv{
		cfg:        gwCfg,
		aRecord:    cfg.DNS.RequiredARecord,
		httpClient: upstream.NewHTTPClient(gwCfg.Timeout),
		wg:         &wg,
	}

	pool, err := ants.NewPoolWithFunc(*concurrency, func(data interface{}) {
		runTask(ctx, env, data.(LeadTask))
	})
	if err != nil {
		logger.Log.Fatal("Failed to create worker pool", zap.Error(err))
	}
	defer pool.Release()

	runLoadLoop(ctx, *rate, *duration, services, *replayRatio, pool, &wg)

	logger.Log.Info("Waiting for in-flight requests to complete...")
	wg.Wait()
	logger.Log.Info("Load generator shutdown complete.")
}

func startMetricsServer(port int) *http.Server {
	logger.Log.Info("Starting Prometheus metrics server", zap.Int("port", port))
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Error("Failed to start Prometheus metrics server", zap.Error(err))
		}
	}()
	return server
}

// runLoadLoop submits tasks at the target rate until the duration elapses or ctx is cancelled.
func runLoadLoop(ctx context.Context, rate int, duration time.Duration, services []string, replayRatio float64, pool *ants.PoolWithFunc, wg *sync.WaitGroup) {
	ticker := time.NewTicker(time.Second / time.Duration(rate))
	defer ticker.Stop()

	durationTimer := time.NewTimer(duration)
	defer durationTimer.Stop()

	var (
		counter int
		seen    []string
	)
	for {
		select {
		case <-ctx.Done():
			logger.Log.Info("Load generation loop stopping due to signal")
			return
		case <-durationTimer.C:
			logger.Log.Info("Load generation loop stopping after specified duration")
			return
		case <-ticker.C:
			task := LeadTask{Service: services[counter%len(services)]}
			counter++

			if task.Service == model.ServiceOnboarding {
				if len(seen) > 0 && rand.Float64() < replayRatio {
					task.SubmissionID = seen[rand.Intn(len(seen))]
				} else {
					task.SubmissionID = gofakeit.UUID()
					seen = append(seen, task.SubmissionID)
				}
			}

			observer.IncLoadgenRequestsAttempted(task.Service)
			wg.Add(1)
			if err := pool.Invoke(task); err != nil {
				wg.Done()
				logger.Log.Warn("Failed to invoke worker pool", zap.String("service", task.Service), zap.Error(err))
				observer.IncLoadgenRequestErrors(task.Service, "pool")
			}
		}
	}
}

// landingURL is the page a visitor arrived on, carrying their campaign parameters.
func landingURL(p model.UTMParams) string {
	q := url.Values{}
	q.Set("utm_source", p.Source)
	q.Set("utm_medium", p.Medium)
	q.Set("utm_campaign", p.Campaign)
	return "https://example.com/start?" + q.Encode()
}

// runTask simulates one visitor: capture attribution from the landing page,
// pre-check the fields the way the form does, then submit.
func runTask(ctx context.Context, env *taskEnv, task LeadTask) {
	defer env.wg.Done()

	lead := model.NewOnboardingPayload(&model.OnboardingPayload{SubmissionID: task.SubmissionID})
	capture := utm.NewCapture(utm.NewMemoryStore(), utm.Strict)
	page := landingURL(lead.UTMParams)
	capture.CaptureFromURL(page, "https://www.google.com/")
	client := gateway.NewClient(env.cfg, env.aRecord, capture, env.httpClient)

	if fieldcheck.BasicEmail(lead.Email).Failed() || fieldcheck.BasicPhone(lead.PhoneNumber).Failed() {
		logger.Log.Debug("Generated lead failed local field checks", zap.String("service", task.Service))
		observer.IncLoadgenRequestErrors(task.Service, string(gateway.KindValidation))
		return
	}

	var res gateway.Result
	switch task.Service {
	case model.ServiceOnboarding:
		out := client.SubmitOnboarding(ctx,
			gateway.CompanyData{CompanyName: lead.CompanyName, Industry: lead.Industry, Size: lead.CompanySize, Website: lead.CompanyWebsite},
			gateway.ContactData{FirstName: lead.FirstName, LastName: lead.LastName, Email: lead.Email, PhoneNumber: lead.PhoneNumber, JobTitle: lead.JobTitle},
			gateway.DomainData{CustomDomain: lead.CustomDomain, Email: lead.Email},
			lead.SubmissionID,
		)
		res = out.Result
		if out.Duplicate {
			logger.Log.Debug("Replayed submission resolved to existing lead", zap.Int64("id", out.ID))
		}
	case model.ServiceContact:
		contact := model.NewContactPayload()
		out := client.SubmitContact(ctx, gateway.ContactForm{
			Name:    contact.Name,
			Email:   contact.Email,
			Phone:   contact.Phone,
			Message: contact.Message,
		}, page)
		res = out.Result
	case model.ServiceConversion:
		res = client.SaveConversion(ctx, gateway.ConversionData{
			User: model.ConversionUser{
				FirstName:   lead.FirstName,
				LastName:    lead.LastName,
				Email:       lead.Email,
				PhoneNumber: lead.PhoneNumber,
				CompanyName: lead.CompanyName,
				Industry:    lead.Industry,
				Domain:      lead.CustomDomain,
			},
			ConversionType: model.ConversionDashboardVisit,
		})
	}

	if !res.Success {
		logger.Log.Warn("Request failed",
			zap.String("service", task.Service),
			zap.String("kind", string(res.Kind)),
			zap.Int("status", res.StatusCode),
			zap.String("message", res.Message),
		)
		observer.IncLoadgenRequestErrors(task.Service, string(res.Kind))
		return
	}
	observer.IncLoadgenRequestsSucceeded(task.Service)
}
