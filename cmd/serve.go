package cmd

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"uvmrun/api"
	"uvmrun/runner"
)

// Serve starts the read-only run history server
func Serve(args []string) error {
	fs := flag.NewFlagSet("uvmrun serve", flag.ContinueOnError)
	root := fs.String("root", "", "Project root (default: nearest directory with "+runner.ManifestName+")")
	port := fs.String("port", "", "Listen port (default: $PORT or 8080)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	projectRoot := *root
	if projectRoot == "" {
		projectRoot = runner.FindProjectRoot(".")
	}

	// Load .env file if it exists (ignore errors if it doesn't)
	_ = godotenv.Load(filepath.Join(projectRoot, ".env"))

	if *port == "" {
		*port = getEnv("PORT", "8080")
	}

	manifest, err := runner.LoadManifest(filepath.Join(projectRoot, runner.ManifestName))
	if err != nil {
		return err
	}
	log.Printf("📁 Loaded %d test(s)", len(manifest.Tests))

	store, err := openHistory(runner.NewLayout(projectRoot).DataDir)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/runs", api.GetRuns(store))
	mux.HandleFunc("/api/runs/", api.GetRun(store))
	mux.HandleFunc("/api/tests", api.GetTests(manifest, store))

	// CORS middleware
	corsMiddleware := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	}

	serverAddr := ":" + *port
	log.Printf("🚀 Starting uvmrun history server on port %s...", *port)
	log.Printf("📊 Runs: http://localhost:%s/api/runs", *port)

	if err := http.ListenAndServe(serverAddr, corsMiddleware(mux)); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

// getEnv gets environment variable or returns default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
