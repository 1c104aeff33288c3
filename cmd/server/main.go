// Command server starts the Roomcast chat relay.
//
// Flags control the listen address, debug logging, and optional ngrok
// tunneling for easy external access during development. Everything else
// is configured through environment variables, optionally loaded from a
// .env file; see server.NewConfigFromEnv for the full list.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/roomcast/roomcast/internal/server"
)

var (
	addr         = flag.String("addr", "", "Listen address (overrides SERVER_PORT)")
	debug        = flag.Bool("debug", false, "Enable debug logging")
	ngrokEnabled = flag.Bool("ngrok", false, "Enable ngrok tunnel")
	ngrokAuth    = flag.String("ngrok-auth", "", "Ngrok auth token (or use NGROK_AUTHTOKEN env var)")
	ngrokDomain  = flag.String("ngrok-domain", "", "Custom ngrok domain (optional)")
)

func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	} else {
		log.Println("Loaded environment variables from .env file")
	}

	flag.Parse()

	if *debug {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	} else {
		log.SetFlags(log.LstdFlags)
	}

	fmt.Println("Starting Roomcast server...")

	config := server.NewConfigFromEnv()
	if *addr != "" {
		config.Port = *addr
	}

	srv := server.NewServer(*config)
	httpServer := server.CreateServer(config.Port, srv)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := server.StartServer(httpServer); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// The tunnel can be requested by flag or environment so containerized
	// deployments can toggle it without changing the command line.
	ngrokShouldRun := *ngrokEnabled
	if !ngrokShouldRun {
		if envEnabled := os.Getenv("NGROK_ENABLED"); envEnabled == "true" || envEnabled == "1" {
			ngrokShouldRun = true
		}
	}

	if ngrokShouldRun {
		wg.Add(1)
		go func() {
			defer wg.Done()
			serveNgrok(ctx, srv)
		}()
	}

	sig := <-stop
	log.Printf("Received signal: %v. Shutting down...", sig)
	cancel()

	// Stop accepting new connections first, then unwind the sessions that
	// survived the HTTP shutdown (WebSockets are hijacked and outlive it).
	_ = server.ShutdownServer(httpServer, 10*time.Second)

	if err := srv.Shutdown(5 * time.Second); err != nil {
		log.Printf("Session shutdown error: %v", err)
	}

	wg.Wait()
	log.Println("Server stopped")
}

// serveNgrok provisions a public ngrok tunnel and serves the same handler
// through it until ctx is cancelled. Failures are logged and abandon the
// tunnel only; the local listener keeps running.
func serveNgrok(ctx context.Context, handler http.Handler) {
	authToken := *ngrokAuth
	if authToken == "" {
		authToken = os.Getenv("NGROK_AUTHTOKEN")
		if authToken == "" {
			authToken = os.Getenv("NGROK_AUTH_TOKEN")
		}
	}
	if authToken == "" {
		log.Println("WARNING: Ngrok enabled but no auth token provided (use -ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN env var)")
		return
	}

	log.Println("Starting ngrok tunnel...")

	domain := *ngrokDomain
	if domain == "" {
		domain = os.Getenv("NGROK_DOMAIN")
	}

	var tunnel ngrokConfig.Tunnel
	if domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
		log.Printf("Using custom ngrok domain: %s", domain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx,
		tunnel,
		ngrok.WithAuthtoken(authToken),
	)
	if err != nil {
		log.Printf("Failed to start ngrok tunnel: %v", err)
		return
	}
	defer func() {
		if err := tun.Close(); err != nil {
			log.Printf("Failed to close ngrok tunnel: %v", err)
		}
	}()

	ngrokURL := tun.URL()
	log.Printf("Ngrok tunnel established: %s", ngrokURL)
	log.Printf("  Chat (ngrok): %s/ws/room/{room}/user/{user}", ngrokURL)
	log.Printf("  Ping-pong (ngrok): %s/ws/ping", ngrokURL)
	log.Printf("  Test page (ngrok): %s/test", ngrokURL)

	if err := http.Serve(tun, handler); err != nil && err != http.ErrServerClosed {
		log.Printf("Ngrok server error: %v", err)
	}
	log.Println("Ngrok tunnel closed")
}
