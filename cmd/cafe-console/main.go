package main

import (
	"io"
	"log"
	"net"
	"net/http"
	"os"

	"cafedesk/internal/api"
	"cafedesk/internal/config"
	"cafedesk/internal/fakeapi"
	"cafedesk/internal/http/handlers"
	applog "cafedesk/internal/log"
	"cafedesk/internal/session"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	out := io.Writer(os.Stdout)
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			out = io.MultiWriter(os.Stdout, f)
			log.SetOutput(out)
		}
	}
	applog.Setup(out, cfg.LogLevel)

	if cfg.DemoBackend {
		addr, err := startDemoBackend(cfg.DemoPassword)
		if err != nil {
			log.Fatal(err)
		}
		cfg.APIBaseURL = "http://" + addr + "/api"
		cfg.ServerURL = "http://" + addr
		log.Printf("[demo] backend on %s (user admin)", addr)
	}

	p, err := session.OpenPersister(cfg.SessionStore, cfg.SessionPath)
	if err != nil {
		log.Fatal(err)
	}
	if c, ok := p.(io.Closer); ok {
		defer c.Close()
	}
	store, err := session.Open(p)
	if err != nil {
		log.Printf("[warn] %v; starting signed out", err)
	}

	client := api.Dial(cfg, store, nil)
	engine := handlers.Engine("./web/templates", cfg.ServerURL)
	engine.Reload(true)

	app := handlers.NewApp(handlers.AppConfig{
		Views:     engine,
		Deps:      handlers.NewDeps(client, store, cfg, nil),
		RateLimit: 60,
		AccessLog: true,
	})
	log.Fatal(app.Listen(cfg.Host + ":" + cfg.Port))
}

// startDemoBackend serves a seeded in-memory backend on a loopback port.
func startDemoBackend(password string) (string, error) {
	srv, err := fakeapi.New(fakeapi.Options{AdminPassword: password, Seed: true})
	if err != nil {
		return "", err
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", err
	}
	go func() {
		if err := http.Serve(ln, srv.Handler()); err != nil {
			log.Printf("[demo] backend stopped: %v", err)
		}
	}()
	return ln.Addr().String(), nil
}
