// gridsim-backendd serves a DC solver over websocket so that an environment
// on another host can use it through the backendws client.
package main

import (
	"flag"
	"log"
	"net/http"
	"os"

	"github.com/AlexZhaoZt/Grid2Op-Resilience/internal/backend/backendws"
	"github.com/AlexZhaoZt/Grid2Op-Resilience/internal/backend/dcsolver"
)

func main() {
	var (
		addr = flag.String("addr", ":8085", "listen address")
		path = flag.String("path", "/v1/backend", "websocket endpoint path")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[backendd] ", log.LstdFlags|log.Lmicroseconds)

	srv := backendws.NewServer(dcsolver.New(), logger)
	mux := http.NewServeMux()
	mux.HandleFunc(*path, srv.Handler())

	logger.Printf("serving backend on %s%s", *addr, *path)
	if err := http.ListenAndServe(*addr, mux); err != nil {
		logger.Fatalf("listen: %v", err)
	}
}
