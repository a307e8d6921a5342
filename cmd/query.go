package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"docqa/internal/rag"
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Ask a question about the ingested documents",
	Long: `Ask a natural-language question about the ingested documents.
This command will:
1. Plan the query (analysis type, retrieval focus, numeric needs)
2. Retrieve the most relevant chunks from the vector store
3. Compute numeric metrics over ingested tables when the plan asks for them
4. Reason over the retrieved context to produce a grounded answer

Examples:
  docqa query "What was the total revenue across quarters?"
  docqa query "Summarize the report" --top-k 8`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)

	queryCmd.Flags().IntP("top-k", "k", 5, "Number of most relevant chunks to retrieve")
	queryCmd.Flags().BoolP("show-sources", "s", true, "Show source documents in the response")
}

func runQuery(cmd *cobra.Command, args []string) error {
	question := args[0]
	topK, _ := cmd.Flags().GetInt("top-k")
	showSources, _ := cmd.Flags().GetBool("show-sources")

	embedder, err := newEmbedder()
	if err != nil {
		return fmt.Errorf("failed to initialize embedding client: %w", err)
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	if store.Count() == 0 {
		return fmt.Errorf("no documents ingested. Please run 'docqa ingest' first")
	}

	llmClient, err := newLLMClient()
	if err != nil {
		return fmt.Errorf("failed to initialize LLM client: %w", err)
	}

	pipeline := rag.New(embedder, store, llmClient, nil, rag.Config{TopK: topK})

	fmt.Printf("Searching %d chunks for relevant information...\n", store.Count())

	result, err := pipeline.Query(cmd.Context(), question)
	if err != nil {
		return fmt.Errorf("failed to process query: %w", err)
	}

	fmt.Printf("\nAnswer:\n")
	fmt.Println(strings.Repeat("-", 80))
	fmt.Println(result.Answer)
	fmt.Println(strings.Repeat("-", 80))
	fmt.Printf("Confidence: %.2f\n", result.Confidence)

	if showSources && len(result.Sources) > 0 {
		fmt.Printf("\nSources (%d):\n", len(result.Sources))
		for _, source := range result.Sources {
			fmt.Printf("  - %s\n", source)
		}
	}

	return nil
}
