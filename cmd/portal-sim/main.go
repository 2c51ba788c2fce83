// Package main runs a local imitation of the FW portal for development
// against the real HTTP client.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Feuerwehr-Effeltrich/Erfassinator/pkg/portalsim"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:8080", "Listen address")
	user := flag.String("user", "admin", "Accepted username")
	password := flag.String("password", "admin", "Accepted password")
	org := flag.String("org", portalsim.DefaultOrganisationID, "Organisation id embedded in status pages")
	flag.Parse()

	sim := portalsim.New(
		portalsim.WithUser(*user, *password),
		portalsim.WithOrganisationID(*org),
	)

	srv := &http.Server{
		Addr:              *addr,
		Handler:           sim.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	fmt.Printf("Portal simulator listening on http://%s (user %s)\n", *addr, *user)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("portal simulator: %v", err)
	}
}
