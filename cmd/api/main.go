// Command api exposes the passkey authentication HTTP API.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/oklog/run"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/fmitra/passauth/internal/entropy"
	"github.com/fmitra/passauth/internal/httpapi"
	"github.com/fmitra/passauth/internal/passkey"
	"github.com/fmitra/passauth/internal/passkeyapi"
	"github.com/fmitra/passauth/internal/pg"
	"github.com/fmitra/passauth/internal/webauthn"
)

func main() {
	var err error

	var logger log.Logger
	{
		logger = log.NewJSONLogger(log.NewSyncWriter(os.Stderr))
		logger = log.With(logger, "ts", log.DefaultTimestampUTC)
		logger = log.With(logger, "caller", log.DefaultCaller)
	}

	var configPath string
	fs := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	{
		fs.Bool("api.debug", false, "Enable debug logging")
		fs.String("api.http-addr", ":8080", "Address to listen on")
		fs.String("api.allowed-origins", "*", "Comma separated list of allowed origins")
		fs.String("pg.conn-string", "", "Postgres connection string")
		fs.String("webauthn.relying-party-id", "", "Relying party ID, e.g. example.com")
		fs.String("webauthn.relying-party-name", "Passauth", "Relying party display name")
		fs.StringSlice("webauthn.origins", []string{}, "Allowed WebAuthn origins")
		fs.Duration("webauthn.challenge-ttl", 5*time.Minute, "Challenge expiry time")

		fs.StringVar(&configPath, "config", "", "Path to the config file")
		err = fs.Parse(os.Args[1:])
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		if err != nil {
			logger.Log("message", "failed to parse cli flags", "error", err, "source", "cmd/api")
			os.Exit(1)
		}
	}

	if _, err = os.Stat(configPath); !os.IsNotExist(err) {
		viper.SetConfigFile(configPath)
		err = viper.ReadInConfig()
		if err != nil {
			logger.Log("message", "failed to load config file", "error", err, "source", "cmd/api")
			os.Exit(1)
		}
	}
	if err = viper.BindPFlags(fs); err != nil {
		logger.Log("message", "failed to load cli flags", "error", err, "source", "cmd/api")
		os.Exit(1)
	}

	if viper.GetBool("api.debug") {
		logger = level.NewFilter(logger, level.AllowDebug())
	} else {
		logger = level.NewFilter(logger, level.AllowInfo())
	}

	var pgDB *sql.DB
	{
		pgDB, err = sql.Open("postgres", viper.GetString("pg.conn-string"))
		if err != nil {
			logger.Log(
				"message", "postgres connection failed",
				"error", err,
				"source", "cmd/api",
			)
			os.Exit(1)
		}
		if err = pgDB.Ping(); err != nil {
			logger.Log("message", "postgres did not respond", "error", err, "source", "cmd/api")
			os.Exit(1)
		}
		defer func() {
			if err = pgDB.Close(); err != nil {
				logger.Log(
					"message", "failed to close postgres connection",
					"error", err,
					"source", "cmd/api",
				)
			}
		}()
	}

	repoMngr := pg.NewClient(
		pg.WithLogger(logger),
		pg.WithEntropy(entropy.New()),
		pg.WithDB(pgDB),
	)

	engine, err := webauthn.NewEngine(
		webauthn.WithRelyingParty(
			viper.GetString("webauthn.relying-party-id"),
			viper.GetString("webauthn.relying-party-name"),
		),
		webauthn.WithOrigins(viper.GetStringSlice("webauthn.origins")),
		webauthn.WithChallengeTTL(viper.GetDuration("webauthn.challenge-ttl")),
	)
	if err != nil {
		logger.Log("message", "failed to build webauthn engine", "error", err, "source", "cmd/api")
		os.Exit(1)
	}
	if !engine.Enabled() {
		logger.Log(
			"message", "passkey support is disabled, relying party is not configured",
			"source", "cmd/api",
		)
	}

	passkeySvc := passkey.NewService(
		passkey.WithLogger(logger),
		passkey.WithRepoManager(repoMngr),
		passkey.WithEngine(engine),
		passkey.WithChallengeTTL(viper.GetDuration("webauthn.challenge-ttl")),
	)

	passkeyAPI := passkeyapi.NewService(
		passkeyapi.WithLogger(logger),
		passkeyapi.WithPasskeyService(passkeySvc),
	)

	router := mux.NewRouter()
	router.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	passkeyapi.SetupHTTPHandler(passkeyAPI, router, logger, httpapi.NewRateLimiter())

	server := http.Server{
		Addr: viper.GetString("api.http-addr"),
		Handler: handlers.CORS(
			handlers.AllowedOrigins(strings.Split(
				viper.GetString("api.allowed-origins"), ","),
			),
			handlers.AllowedHeaders([]string{
				"X-Requested-With",
				"Content-Type",
			}),
			handlers.AllowCredentials(),
			handlers.AllowedMethods([]string{"GET", "POST", "DELETE", "OPTIONS", "HEAD"}),
		)(router),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())

	var g run.Group
	{
		g.Add(func() error {
			sig := make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
			return fmt.Errorf("signal received: %v", <-sig)
		}, func(err error) {
			logger.Log("message", "program was interrupted", "error", err, "source", "cmd/api")
			cancel()
		})
	}
	{
		g.Add(func() error {
			logger.Log(
				"message", "API server is starting",
				"address", server.Addr,
				"source", "cmd/api",
			)
			return server.ListenAndServe()
		}, func(err error) {
			logger.Log(
				"message", "API server was interrupted",
				"error", err,
				"source", "cmd/api",
			)
			logger.Log(
				"message", "API server shut down",
				"error", server.Shutdown(ctx),
				"source", "cmd/api",
			)
		})
	}

	err = g.Run()
	logger.Log("message", "actors stopped", "error", err, "source", "cmd/api")
}
