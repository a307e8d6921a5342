package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"docqa/internal/embedding"
	"docqa/internal/llm"
	"docqa/internal/vectorstore"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "docqa",
	Short: "DocQA - Document question answering over your own files",
	Long: `DocQA ingests documents (txt, csv, json, pdf), embeds them via an
OpenAI-compatible embeddings API and answers natural-language questions about
them with a planner/retriever/reasoner agent flow.

Features:
- Ingest files or whole directories into a local vector store
- Numeric analysis (average, sum, growth rate) over ingested CSV tables
- Query from the command line or over an HTTP API
- Optional conversation history in a local SQLite database`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.docqa.yaml)")
	rootCmd.PersistentFlags().String("embed-base-url", "", "base URL of the embeddings API (default OpenAI)")
	rootCmd.PersistentFlags().String("embed-model", "text-embedding-3-small", "embedding model")
	rootCmd.PersistentFlags().String("embed-api-key-env", "OPENAI_API_KEY", "env var holding the embeddings API key")
	rootCmd.PersistentFlags().Int("dimension", 1536, "embedding vector dimension")
	rootCmd.PersistentFlags().String("llm-base-url", "", "base URL of the chat completions API (default Groq)")
	rootCmd.PersistentFlags().String("llm-model", "llama-3.3-70b-versatile", "chat completions model")
	rootCmd.PersistentFlags().String("llm-api-key-env", "GROQ_API_KEY", "env var holding the LLM API key")
	rootCmd.PersistentFlags().String("data-dir", defaultDataDir(), "directory for the persisted vector store")

	viper.BindPFlag("embed_base_url", rootCmd.PersistentFlags().Lookup("embed-base-url"))
	viper.BindPFlag("embed_model", rootCmd.PersistentFlags().Lookup("embed-model"))
	viper.BindPFlag("embed_api_key_env", rootCmd.PersistentFlags().Lookup("embed-api-key-env"))
	viper.BindPFlag("dimension", rootCmd.PersistentFlags().Lookup("dimension"))
	viper.BindPFlag("llm_base_url", rootCmd.PersistentFlags().Lookup("llm-base-url"))
	viper.BindPFlag("llm_model", rootCmd.PersistentFlags().Lookup("llm-model"))
	viper.BindPFlag("llm_api_key_env", rootCmd.PersistentFlags().Lookup("llm-api-key-env"))
	viper.BindPFlag("data_dir", rootCmd.PersistentFlags().Lookup("data-dir"))
}

// initConfig reads .env, the config file and ENV variables if set.
func initConfig() {
	// .env is optional; a missing file is fine.
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".docqa")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".docqa"
	}
	return filepath.Join(home, ".docqa")
}

func newEmbedder() (*embedding.Service, error) {
	return embedding.NewService(embedding.Config{
		BaseURL:   viper.GetString("embed_base_url"),
		APIKey:    os.Getenv(viper.GetString("embed_api_key_env")),
		Model:     viper.GetString("embed_model"),
		Dimension: viper.GetInt("dimension"),
		Timeout:   30 * time.Second,
	})
}

func newLLMClient() (*llm.Client, error) {
	return llm.NewClient(llm.Config{
		BaseURL: viper.GetString("llm_base_url"),
		APIKey:  os.Getenv(viper.GetString("llm_api_key_env")),
		Model:   viper.GetString("llm_model"),
		Timeout: 60 * time.Second,
	})
}

// openStore loads the persisted vector store from the data dir, or returns a
// fresh empty store when no artifacts exist yet.
func openStore() (*vectorstore.Store, error) {
	dataDir := viper.GetString("data_dir")
	dimension := viper.GetInt("dimension")

	store, err := vectorstore.Load(dataDir, dimension)
	if err == nil {
		return store, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return vectorstore.New(dimension)
	}
	return nil, fmt.Errorf("failed to load vector store from %s: %w", dataDir, err)
}
