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

	"github.com/campusmedia/go-staff-console/accounts"
	"github.com/campusmedia/go-staff-console/identity"
	"github.com/campusmedia/go-staff-console/internal/config"
	"github.com/campusmedia/go-staff-console/roles"
	"github.com/campusmedia/go-staff-console/server"
	"github.com/campusmedia/go-staff-console/storage"
	"github.com/campusmedia/go-staff-console/switcher"
	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"
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

	c := config.New()
	displayAppname(c.GetAppName())

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	ctx := context.Background()

	kv, err := openStore(ctx, c)
	if err != nil {
		return fmt.Errorf("openStore: %w", err)
	}
	defer func() { _ = kv.Close() }()

	cache, err := accounts.NewCache(ctx, kv, logger)
	if err != nil {
		return fmt.Errorf("accounts.NewCache: %w", err)
	}
	prefs, err := accounts.NewLoginPrefs(kv)
	if err != nil {
		return fmt.Errorf("accounts.NewLoginPrefs: %w", err)
	}

	store, err := identity.NewClient(ctx, identity.ClientConfig{
		IssuerURL:    c.GetIssuerURL(),
		ClientID:     c.GetClientID(),
		ClientSecret: c.GetClientSecret(),
		Scopes:       c.GetScopes(),
	})
	if err != nil {
		return fmt.Errorf("identity.NewClient: %w", err)
	}

	notices := server.NewNoticeFeed()
	manager, err := switcher.NewManager(ctx, switcher.Deps{
		Store: store,
		Cache: cache,
		Prefs: prefs,
	}, switcher.WithNotifier(notices), switcher.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("switcher.NewManager: %w", err)
	}
	defer manager.Close()

	resolver, err := roleResolver(c, manager)
	if err != nil {
		return fmt.Errorf("roleResolver: %w", err)
	}

	handler, err := server.New(c, manager, resolver, notices)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}

	httpServer := &http.Server{Addr: c.GetPort(), Handler: handler}
	go listenAndServe(httpServer)
	waitForStopSignal()
	returnError = shutdown(httpServer)
	return returnError
}

// openStore selects the durable local store backend and optionally seals
// it with a passphrase so cached refresh tokens are encrypted at rest.
func openStore(ctx context.Context, c config.Config) (storage.KV, error) {
	var kv storage.KV
	var err error

	switch c.GetStoreBackend() {
	case "sqlite":
		kv, err = storage.NewSQLiteStore(ctx, filepath.Join(c.GetDataFolder(), "console.db"))
	default:
		kv, err = storage.NewFileStore(c.GetDataFolder())
	}
	if err != nil {
		return nil, err
	}

	if passphrase := c.GetStorePassphrase(); passphrase != "" {
		sealed, err := storage.NewSealedStore(ctx, kv, passphrase)
		if err != nil {
			_ = kv.Close()
			return nil, err
		}
		return sealed, nil
	}
	return kv, nil
}

// roleResolver wires the platform's role endpoint when configured; without
// one every operator is a plain user.
func roleResolver(c config.Config, manager *switcher.Manager) (roles.Resolver, error) {
	baseURL := c.GetRoleServiceURL()
	if baseURL == "" {
		return roles.Static(roles.RoleUser), nil
	}
	return roles.NewHTTPResolver(baseURL, func() string {
		if session := manager.ActiveSession(); session != nil {
			return session.AccessToken
		}
		return ""
	}, nil)
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
