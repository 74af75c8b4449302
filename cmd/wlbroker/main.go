// Package main starts a worklist broker server.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/k2field/worklistbroker/engine"
	enginehttp "github.com/k2field/worklistbroker/engine/http"
	httpwl "github.com/k2field/worklistbroker/http"
	"github.com/k2field/worklistbroker/logkeys"
	"github.com/k2field/worklistbroker/service"
	"github.com/k2field/worklistbroker/utils/uuid"
	"github.com/k2field/worklistbroker/workflow/local"
	localhttp "github.com/k2field/worklistbroker/workflow/local/http"

	"github.com/alexedwards/flow"
	"github.com/micromdm/nanolib/envflag"
	nanohttp "github.com/micromdm/nanolib/http"
	"github.com/micromdm/nanolib/http/trace"
	"github.com/micromdm/nanolib/log/stdlogfmt"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// overridden by -ldflags -X
var version = "unknown"

const (
	apiUsername = "wlbroker"
	apiRealm    = "wlbroker"
)

func main() {
	var (
		flDebug    = flag.Bool("debug", false, "log debug messages")
		flListen   = flag.String("listen", ":9004", "HTTP listen address")
		flVersion  = flag.Bool("version", false, "print version and exit")
		flAPIKey   = flag.String("api", "", "API key for API endpoints")
		flConn     = flag.String("conn", "", "workflow server connection string")
		flImpConn  = flag.String("impersonate-conn", "", "workflow server connection string for impersonated calls")
		flConfig   = flag.String("config", "", "path to YAML service instance config")
		flStorage  = flag.String("storage", "file", "name of worklist storage backend")
		flDSN      = flag.String("storage-dsn", "", "data source name (e.g. connection string or path)")
		flSeed     = flag.String("seed", "", "path to YAML worklist seed file")
		flSvcAcct  = flag.String("service-account", "", "identity of integrated logins")
		flDumpReqs = flag.Bool("dump-requests", false, "dump API requests")
	)
	envflag.Parse("WLBROKER_", []string{"version"})

	if *flVersion {
		fmt.Println(version)
		return
	}

	logger := stdlogfmt.New(stdlogfmt.WithDebugFlag(*flDebug))

	cfg, err := loadConfig(*flConfig, engine.Config{
		ConnectionString:            *flConn,
		ImpersonateConnectionString: *flImpConn,
	})
	if err != nil {
		logger.Info(logkeys.Message, "load config", logkeys.Error, err)
		os.Exit(1)
	}
	if cfg.ConnectionString == "" || cfg.ImpersonateConnectionString == "" {
		// calls fail with a configuration error until both are set
		logger.Info(logkeys.Message, "connection strings not configured")
	}

	store, err := parseStorage(*flStorage, *flDSN)
	if err != nil {
		logger.Info(logkeys.Message, "parse storage", logkeys.Error, err)
		os.Exit(1)
	}

	if *flSeed != "" {
		n, err := loadSeed(context.Background(), *flSeed, store)
		if err != nil {
			logger.Info(logkeys.Message, "load seed", logkeys.Error, err)
			os.Exit(1)
		}
		logger.Debug(logkeys.Message, "loaded seed", logkeys.GenericCount, n)
	}

	// the bundled workflow server the broker connects to
	srvOpts := []local.Option{local.WithLogger(logger.With("service", "workflow"))}
	if *flSvcAcct != "" {
		srvOpts = append(srvOpts, local.WithServiceAccount(*flSvcAcct))
	}
	srv := local.New(store, srvOpts...)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	ider := uuid.NewUUID()
	e := engine.New(
		cfg,
		engine.WithLogger(logger.With("service", "engine")),
		engine.WithIDer(ider),
		engine.WithMetrics(reg),
		engine.WithServiceInfo(service.Info),
	)

	svc, err := service.New(srv, service.WithLogger(logger.With("service", "worklist")))
	if err != nil {
		logger.Info(logkeys.Message, "describing service", logkeys.Error, err)
		os.Exit(1)
	}
	if err = svc.Register(e); err != nil {
		logger.Info(logkeys.Message, "registering service", logkeys.Error, err)
		os.Exit(1)
	}

	mux := flow.New()

	mux.Handle("/version", nanohttp.NewJSONVersionHandler(version))
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), "GET")

	if *flAPIKey != "" {
		mux.Group(func(mux *flow.Mux) {
			mux.Use(func(h http.Handler) http.Handler {
				return nanohttp.NewSimpleBasicAuthHandler(h, apiUsername, *flAPIKey, apiRealm)
			})
			if *flDumpReqs {
				mux.Use(func(h http.Handler) http.Handler {
					return httpwl.DumpHandler(h, os.Stdout)
				})
			}

			enginehttp.HandleAPIv1("/v1", mux, logger, e)
			localhttp.HandleAPIv1("/v1", mux, logger, store)
		})
	} else {
		logger.Info(logkeys.Message, "no API key set, API endpoints disabled")
	}

	logger.Info(logkeys.Message, "starting server", "listen", *flListen)
	err = http.ListenAndServe(*flListen, trace.NewTraceLoggingHandler(mux, logger.With("handler", "log"), ider.TraceID))
	logs := []interface{}{logkeys.Message, "server shutdown"}
	if err != nil {
		logs = append(logs, logkeys.Error, err)
	}
	logger.Info(logs...)
}
