package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"docqa/internal/ingest"
	"docqa/internal/rag"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file/directory]",
	Short: "Ingest documents into the vector store",
	Long: `Ingest documents by parsing them, splitting the text into chunks,
generating embeddings and appending them to the persisted vector store.

Supported file formats:
- .txt (plain text)
- .csv (tables, also made available for numeric analysis)
- .json (flattened key paths)
- .pdf (extracted text)

Examples:
  docqa ingest ./reports
  docqa ingest quarterly.csv
  docqa ingest ./docs --recursive`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().BoolP("recursive", "r", false, "Recursively ingest directories")
	ingestCmd.Flags().IntP("chunk-size", "c", ingest.DefaultChunkSize, "Approximate chunk size in tokens")
}

func runIngest(cmd *cobra.Command, args []string) error {
	path := args[0]
	recursive, _ := cmd.Flags().GetBool("recursive")
	chunkSize, _ := cmd.Flags().GetInt("chunk-size")

	model := viper.GetString("embed_model")
	fmt.Printf("Initializing embedding client (model: %s)...\n", model)
	embedder, err := newEmbedder()
	if err != nil {
		return fmt.Errorf("failed to initialize embedding client: %w", err)
	}

	dataDir := viper.GetString("data_dir")
	store, err := openStore()
	if err != nil {
		return err
	}
	fmt.Printf("Vector store ready (%d chunks, data dir: %s)\n", store.Count(), dataDir)

	pipeline := rag.New(embedder, store, nil, nil, rag.Config{ChunkSize: chunkSize})

	files, err := supportedFiles(path, recursive)
	if err != nil {
		return fmt.Errorf("failed to collect files: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no supported files found under %s (supported: %s)",
			path, strings.Join(ingest.SupportedTypes, ", "))
	}

	fmt.Printf("Found %d files to ingest\n\n", len(files))

	ingested := 0
	for i, file := range files {
		fmt.Printf("[%d/%d] %s...", i+1, len(files), file)
		result, err := pipeline.Ingest(cmd.Context(), file)
		if err != nil {
			fmt.Printf(" failed: %v\n", err)
			continue
		}
		fmt.Printf(" %d chunks\n", result.ChunksAdded)
		ingested++
	}

	if err := pipeline.Save(dataDir); err != nil {
		return fmt.Errorf("failed to save vector store: %w", err)
	}

	fmt.Printf("\nIngestion complete: %d/%d files, %d total chunks stored in %s\n",
		ingested, len(files), store.Count(), dataDir)
	return nil
}

// supportedFiles resolves path to the list of ingestable files. A single file
// must be of a supported type; directories are filtered by extension.
func supportedFiles(path string, recursive bool) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		if _, err := ingest.FileType(path); err != nil {
			return nil, err
		}
		return []string{path}, nil
	}

	var files []string
	if recursive {
		err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if _, typeErr := ingest.FileType(p); typeErr == nil {
				files = append(files, p)
			}
			return nil
		})
		return files, err
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		p := filepath.Join(path, entry.Name())
		if _, typeErr := ingest.FileType(p); typeErr == nil {
			files = append(files, p)
		}
	}
	return files, nil
}
