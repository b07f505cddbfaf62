package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/chrissyx/zay-linkauth/deeplink"
	"github.com/chrissyx/zay-linkauth/devicetrust"
	devicesqlite "github.com/chrissyx/zay-linkauth/devicetrust/sqliterepo"
	"github.com/chrissyx/zay-linkauth/internal/config"
	"github.com/chrissyx/zay-linkauth/loginlink"
	linksqlite "github.com/chrissyx/zay-linkauth/loginlink/sqliterepo"
	"github.com/chrissyx/zay-linkauth/oauthflow"
	"github.com/chrissyx/zay-linkauth/securestore"
	"github.com/chrissyx/zay-linkauth/server"
	"github.com/chrissyx/zay-linkauth/sessions"
	"github.com/chrissyx/zay-linkauth/vault"
)

var (
	flagAddress  = pflag.StringP("address", "a", "", "listen address (overrides PORT)")
	flagDatabase = pflag.StringP("database", "d", "", "sqlite DSN (overrides DATABASE_DSN)")
)

func main() {
	for {
		if err := run(); err != nil {
			log.Fatalf("Error running server: %s\n", err)
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Printf("Server stopped\n")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	_ = godotenv.Load()
	pflag.Parse()

	c := config.New()
	displayAppname(c.GetAppName())

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()

	handler, cleanup, err := buildServer(c, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	address := *flagAddress
	if address == "" {
		address = c.GetPort()
	}

	httpServer := &http.Server{Addr: address, Handler: handler}
	go listenAndServe(httpServer)
	waitForStopSignal()
	returnError = shutdown(httpServer)
	return returnError
}

func buildServer(c config.Config, logger zerolog.Logger) (http.Handler, func(), error) {
	if err := os.MkdirAll(c.GetDataFolder(), 0o700); err != nil {
		return nil, nil, fmt.Errorf("creating data folder: %w", err)
	}

	masterKey := c.GetVaultMasterKey()
	if masterKey == "" {
		return nil, nil, errors.New("VAULT_MASTER_KEY is not set")
	}

	store, err := securestore.OpenFileStore(filepath.Join(c.GetDataFolder(), "vault.enc"), []byte(masterKey))
	if err != nil {
		return nil, nil, fmt.Errorf("opening token vault store: %w", err)
	}

	tokenVault, err := vault.New(store, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("creating token vault: %w", err)
	}
	if err := tokenVault.SweepExpired(); err != nil {
		logger.Warn().Err(err).Msg("sweeping expired tokens")
	}

	dsn := *flagDatabase
	if dsn == "" {
		dsn = c.GetDatabaseDSN()
	}
	db, err := linksqlite.Open(dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	cleanup := func() { _ = db.Close() }

	linkRepo, err := linksqlite.New(db)
	if err != nil {
		return nil, cleanup, fmt.Errorf("creating login link repo: %w", err)
	}
	links, err := loginlink.NewService(linkRepo, logger)
	if err != nil {
		return nil, cleanup, fmt.Errorf("creating login link service: %w", err)
	}

	deviceRepo, err := devicesqlite.New(db)
	if err != nil {
		return nil, cleanup, fmt.Errorf("creating device repo: %w", err)
	}
	devices, err := devicetrust.New(c.GetDevicePlatformID(), c.GetDeviceModel(), deviceRepo, logger)
	if err != nil {
		return nil, cleanup, fmt.Errorf("creating device trust manager: %w", err)
	}

	sessionStore, err := sessions.NewManager([]byte(c.GetSessionSecret()), logger,
		sessions.WithLifetime(c.GetSessionLifetime()))
	if err != nil {
		return nil, cleanup, fmt.Errorf("creating session manager: %w", err)
	}

	router, err := deeplink.NewRouter(tokenVault, links, devices, sessionStore, loginlink.ParseLink, logger)
	if err != nil {
		return nil, cleanup, fmt.Errorf("creating deep link router: %w", err)
	}
	registerFlows(c, router, logger)

	srv, err := server.New(c, tokenVault, links, devices, router, logger)
	if err != nil {
		return nil, cleanup, fmt.Errorf("creating server: %w", err)
	}
	return srv, cleanup, nil
}

func registerFlows(c config.Config, router *deeplink.Router, logger zerolog.Logger) {
	providers := []oauthflow.Provider{
		oauthflow.Snapchat(c.GetSnapchatClientID()),
		oauthflow.Instagram(c.GetInstagramClientID()),
	}
	for _, provider := range providers {
		flow, err := oauthflow.NewFlow(provider, logger)
		if err != nil {
			logger.Warn().Str("provider", provider.Name).Msg("provider not configured, skipping")
			continue
		}
		router.RegisterFlow(flow)
	}
}

func listenAndServe(server *http.Server) error {
	log.Printf("Server listening on %s\n", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
