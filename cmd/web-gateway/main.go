// Copyright © 2024 LearnHub Ltd., or its subsidiaries. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"expvar"
	"fmt"
	"io/ioutil"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"learnhub-gateway/internal/config"
	"learnhub-gateway/internal/proxy"
	"learnhub-gateway/internal/token"
	"learnhub-gateway/internal/web"

	stdLog "log"

	"github.com/fsnotify/fsnotify"
	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/metric/prometheus"
	"go.opentelemetry.io/otel/exporters/trace/zipkin"
	"go.opentelemetry.io/otel/sdk/trace"
)

const (
	logLevel  = "log.level"
	logFormat = "log.format"
)

var (
	// build is to be set via build flags in the makefile.
	build = "develop"
	cfg   Config
)

func main() {
	log := logrus.New()

	if err := run(log.WithContext(context.Background())); err != nil {
		log.Errorf("main: error: %+v", err)
		os.Exit(1)
	}
}

// Config is the configuration details of the web gateway
type Config struct {
	Version string
	Zipkin  struct {
		CollectorURI string
		ServiceName  string
		Probability  float64
	}
	Proxy struct {
		Host         string
		ReadTimeout  time.Duration
		WriteTimeout time.Duration
	}
	Web struct {
		ShowDebugHTTP   bool
		DebugHost       string
		ShutdownTimeout time.Duration
	}
	Upstream struct {
		APIEndpoint string
		AppEndpoint string
		Insecure    bool
	}
	Guard struct {
		RulesFile string
		CacheSize int
	}
	Log struct {
		Level  string
		Format string
	}
}

func run(log *logrus.Entry) error {
	cfgViper := viper.New()
	cfgViper.SetConfigName("config")
	cfgViper.AddConfigPath(".")
	cfgViper.AddConfigPath("/etc/learnhub-gateway/config/")

	cfgViper.SetDefault("proxy.host", ":8080")
	cfgViper.SetDefault("proxy.readtimeout", 30*time.Second)
	cfgViper.SetDefault("proxy.writetimeout", 30*time.Second)

	cfgViper.SetDefault("web.debughost", ":9090")
	cfgViper.SetDefault("web.shutdowntimeout", 15*time.Second)
	cfgViper.SetDefault("web.showdebughttp", false)

	cfgViper.SetDefault("zipkin.collectoruri", "")
	cfgViper.SetDefault("zipkin.servicename", "web-gateway")
	cfgViper.SetDefault("zipkin.probability", 0.8)

	cfgViper.SetDefault("upstream.apiendpoint", "http://localhost:8000")
	cfgViper.SetDefault("upstream.appendpoint", "http://localhost:3000")
	cfgViper.SetDefault("upstream.insecure", false)

	cfgViper.SetDefault("guard.rulesfile", "")
	cfgViper.SetDefault("guard.cachesize", token.DefaultCacheSize)

	cfgViper.SetDefault(logLevel, "info")
	cfgViper.SetDefault(logFormat, "text")

	if err := cfgViper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Fatalf("reading config file: %+v", err)
		}
		log.Info("main: no config file found, using defaults")
	}
	if err := cfgViper.Unmarshal(&cfg); err != nil {
		log.Fatalf("decoding config file: %+v", err)
	}

	updateLoggingSettings := func(log *logrus.Entry) {
		format := cfgViper.GetString(logFormat)
		if strings.EqualFold(format, "json") {
			log.Logger.SetFormatter(&logrus.JSONFormatter{})
		} else {
			// use text formatter by default
			log.Logger.SetFormatter(&logrus.TextFormatter{})
		}

		level, err := logrus.ParseLevel(cfgViper.GetString(logLevel))
		if err != nil {
			// use INFO level by default
			level = logrus.InfoLevel
		}
		log.Logger.SetLevel(level)
		log.WithField(logLevel, level).Info("configuration has been set.")
	}
	updateLoggingSettings(log)

	cfgViper.WatchConfig()
	cfgViper.OnConfigChange(func(e fsnotify.Event) {
		updateLoggingSettings(log)
	})

	log.Infof("Config: %+v", cfg)

	// Initializing application

	cfg.Version = build
	expvar.NewString("build").Set(build)

	log.Infof("main: started application version %q", build)
	defer log.Info("main: stopped application")

	// Start tracing support

	tp, err := initTracing(log,
		cfg.Zipkin.CollectorURI,
		cfg.Zipkin.ServiceName,
		cfg.Zipkin.Probability)
	if err != nil {
		return err
	}

	// Start debug service
	//
	// /debug/pprof - added to the default mux by importing the net/http/pprof package.
	// /debug/vars - added to the default mux by importing the expvar package.
	//
	log.Info("main: initializing debugging support")

	metricsExp, err := prometheus.InstallNewPipeline(prometheus.Config{})
	if err != nil {
		return err
	}
	http.HandleFunc("/metrics", metricsExp.ServeHTTP)

	go func() {
		expvar.Publish("goroutines", expvar.Func(func() interface{} {
			return fmt.Sprintf("%d", runtime.NumGoroutine())
		}))
		log.WithField("debug host", cfg.Web.DebugHost).Debug("main: debug listening")
		s := http.Server{
			Addr:    cfg.Web.DebugHost,
			Handler: debugRouter(build),
		}
		if err := s.ListenAndServe(); err != nil {
			log.WithError(err).Warn("main: debug listener closed")
		}
	}()

	// Build the route guard and start watching its rule file

	decoder, err := token.NewCachingDecoder(token.NewJwxDecoder(), cfg.Guard.CacheSize)
	if err != nil {
		return err
	}
	guard := web.NewGuard(log, decoder, web.DefaultRouteRules())

	if cfg.Guard.RulesFile != "" {
		rules, err := config.LoadRouteRules(cfg.Guard.RulesFile)
		if err != nil {
			return fmt.Errorf("loading route rules: %w", err)
		}
		guard.UpdateRules(rules)

		watcher := config.New(log)
		watcher.SetPath(cfg.Guard.RulesFile)
		watcher.OnChange(func(e fsnotify.Event) {
			log.Infof("Route rules changed! %+v, %s", e.Op, e.Name)
			rules, err := config.LoadRouteRules(cfg.Guard.RulesFile)
			if err != nil {
				// Keep the current rules on a bad file.
				log.WithError(err).Error("main: reloading route rules")
				return
			}
			guard.UpdateRules(rules)
		})
		watcher.Watch(context.Background())
	}

	// Build the upstream proxies

	apiUpstream, err := proxy.BuildUpstream(log, "api", cfg.Upstream.APIEndpoint, cfg.Upstream.Insecure)
	if err != nil {
		return fmt.Errorf("building api upstream: %w", err)
	}
	appUpstream, err := proxy.BuildUpstream(log, "app", cfg.Upstream.AppEndpoint, cfg.Upstream.Insecure)
	if err != nil {
		return fmt.Errorf("building app upstream: %w", err)
	}
	dh := proxy.NewDispatchHandler(log, apiUpstream, appUpstream)

	router := &web.Router{
		APIHandler: web.Adapt(dh, web.OtelMW(tp, "api")),
		AppHandler: web.Adapt(dh, guard.Middleware(), web.OtelMW(tp, "app")),
	}

	// Start the gateway service
	log.Info("main: initializing gateway service")

	svr := http.Server{
		Addr: cfg.Proxy.Host,
		Handler: web.Adapt(router.Handler(),
			web.LoggingMW(log, cfg.Web.ShowDebugHTTP), // log all requests
			web.CleanMW(), // clean paths
			web.OtelMW(tp, "", // format the span name
				otelhttp.WithSpanNameFormatter(func(s string, r *http.Request) string {
					return fmt.Sprintf("%s %s", r.Method, r.URL.Path)
				}))),
		ReadTimeout:  cfg.Proxy.ReadTimeout,
		WriteTimeout: cfg.Proxy.WriteTimeout,
	}

	// Start listening for requests

	serverErrors := make(chan error, 1)
	go func() {
		log.WithField("proxy host", cfg.Proxy.Host).Info("main: gateway listening")
		serverErrors <- svr.ListenAndServe()
	}()

	// Handle graceful shutdown

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("main: server error: %w", err)
	case sig := <-shutdown:
		log.WithField("signal", sig).Info("main: starting shutdown")
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		// Ask the gateway to shutdown and shed load
		if err := svr.Shutdown(ctx); err != nil {
			closeErr := svr.Close()
			if closeErr != nil {
				return fmt.Errorf("main: failed to close server: %w", closeErr)
			}
			return fmt.Errorf("main: failed to gracefully shutdown server: %w", err)
		}
	}

	return nil
}

// debugRouter serves the health and version routes on the debug listener.
// Anything it does not know about falls through to the default mux, which
// carries /metrics, /debug/vars and /debug/pprof.
func debugRouter(build string) http.Handler {
	router := httprouter.New()
	router.HandlerFunc(http.MethodGet, "/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	router.HandlerFunc(http.MethodGet, "/readyz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	router.HandlerFunc(http.MethodGet, "/version", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintln(w, build)
	})
	router.NotFound = http.DefaultServeMux
	return router
}

func initTracing(log *logrus.Entry, uri, name string, prob float64) (*trace.TracerProvider, error) {
	if len(strings.TrimSpace(uri)) == 0 {
		return nil, nil
	}

	log.Info("main: initializing otel/zipkin tracing support")

	exporter, err := zipkin.NewRawExporter(
		uri,
		name,
		zipkin.WithLogger(stdLog.New(ioutil.Discard, "", stdLog.LstdFlags)),
	)
	if err != nil {
		return nil, fmt.Errorf("creating zipkin exporter: %w", err)
	}

	tp := trace.NewTracerProvider(
		trace.WithConfig(trace.Config{DefaultSampler: trace.TraceIDRatioBased(prob)}),
		trace.WithBatcher(
			exporter,
			trace.WithMaxExportBatchSize(trace.DefaultMaxExportBatchSize),
			trace.WithBatchTimeout(trace.DefaultBatchTimeout),
		),
	)
	otel.SetTracerProvider(tp)

	return tp, nil
}
