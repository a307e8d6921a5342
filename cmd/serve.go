package cmd

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"docqa/internal/rag"
	"docqa/internal/server"
	"docqa/internal/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API for uploads and queries.

Endpoints:
  POST /api/upload  - multipart document upload
  POST /api/query   - ask a question, optionally within a session
  GET  /api/health  - ingested files and chunk counts

Conversation history is stored in a local SQLite database unless --session-db
is set to the empty string.

Examples:
  docqa serve
  docqa serve --listen :9000 --session-db ./sessions.db`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("listen", ":8000", "Address to listen on")
	serveCmd.Flags().Int("top-k", 5, "Number of most relevant chunks to retrieve per query")
	serveCmd.Flags().String("session-db", defaultSessionDB(), "SQLite database for conversation history (empty disables)")

	viper.BindPFlag("listen", serveCmd.Flags().Lookup("listen"))
	viper.BindPFlag("session_db", serveCmd.Flags().Lookup("session-db"))
}

func runServe(cmd *cobra.Command, args []string) error {
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	embedder, err := newEmbedder()
	if err != nil {
		return fmt.Errorf("failed to initialize embedding client: %w", err)
	}
	llmClient, err := newLLMClient()
	if err != nil {
		return fmt.Errorf("failed to initialize LLM client: %w", err)
	}
	store, err := openStore()
	if err != nil {
		return err
	}
	topK, _ := cmd.Flags().GetInt("top-k")
	pipeline := rag.New(embedder, store, llmClient, log, rag.Config{TopK: topK})

	var sessions *session.Store
	if dbPath := viper.GetString("session_db"); dbPath != "" {
		sessions, err = session.Open(dbPath)
		if err != nil {
			return fmt.Errorf("failed to open session database: %w", err)
		}
		defer sessions.Close()
		log.Info("conversation history enabled", "db", dbPath)
	}

	addr := viper.GetString("listen")
	srv := &http.Server{
		Addr:              addr,
		Handler:           server.New(pipeline, sessions, log).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info("listening", "addr", addr, "chunks", store.Count())
	return srv.ListenAndServe()
}

func defaultSessionDB() string {
	return filepath.Join(defaultDataDir(), "sessions.db")
}
