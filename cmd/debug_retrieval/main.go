package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"ai-agent-be/internal/bootstrap"
	"ai-agent-be/internal/config"
	"ai-agent-be/internal/dto"
	"ai-agent-be/pkg/database"
	"ai-agent-be/pkg/rag/search"

	"github.com/fatih/color"
)

/*
Runs the knowledge retrieval pipeline from the command line and prints every
reranked candidate, marking the ones that pass the score filter.

USAGE:
  go run ./cmd/debug_retrieval -scope <knowledge-id>[,<knowledge-id>] [-field summary] [-rewrite] "<query>"
*/

func main() {
	scope := flag.String("scope", "", "comma-separated knowledge ids")
	field := flag.String("field", "content", "chunk field matched first: summary or content")
	rewrite := flag.Bool("rewrite", false, "expand the query with the rewrite model")
	topK := flag.Int("top-k", 0, "override RAG_TOP_K")
	minScore := flag.Float64("min-score", -1, "override RAG_MIN_SCORE")
	flag.Parse()

	if flag.NArg() == 0 || *scope == "" {
		fmt.Println("Usage: go run ./cmd/debug_retrieval -scope <knowledge-id> \"<query>\"")
		flag.PrintDefaults()
		os.Exit(1)
	}
	query := strings.Join(flag.Args(), " ")

	cfg := config.Load()
	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, database.DefaultPoolConfig())
	if err != nil {
		color.Red("❌ Database: %v", err)
		os.Exit(1)
	}

	container, err := bootstrap.NewContainer(db, cfg)
	if err != nil {
		color.Red("❌ Bootstrap: %v", err)
		os.Exit(1)
	}
	defer container.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	n, err := container.IndexerService.Reload(ctx)
	if err != nil {
		color.Red("❌ Lexical reload: %v", err)
		os.Exit(1)
	}
	color.Cyan("🔎 Lexical index loaded with %d chunks", n)

	req := &dto.RetrieveRequest{
		Query:   query,
		Scope:   strings.Split(*scope, ","),
		Rewrite: *rewrite,
		Field:   *field,
		Explain: true,
	}
	if *topK > 0 {
		req.TopK = topK
	}
	if *minScore >= 0 {
		req.MinScore = minScore
	}
	threshold := cfg.Rag.MinScore
	if req.MinScore != nil {
		threshold = *req.MinScore
	}

	start := time.Now()
	resp, err := container.KnowledgeService.Retrieve(ctx, req)
	if err != nil {
		color.Red("❌ Retrieve: %v", err)
		if errors.Is(err, search.ErrRetrieval) {
			color.Yellow("   (one of the stores, the rewriter or the reranker failed)")
		}
		os.Exit(1)
	}

	color.Yellow("\nQuery: %q  field=%s  rewrite=%v  (%s)", query, *field, *rewrite, time.Since(start).Round(time.Millisecond))
	color.Yellow("\n[RANKED CANDIDATES]")
	for i, doc := range resp.Ranked {
		line := fmt.Sprintf("%2d. %.4f  %s", i+1, doc.Score, preview(doc.Content, 100))
		if doc.Score >= threshold {
			color.Green("%s", line)
		} else {
			color.HiBlack("%s", line)
		}
	}

	color.Yellow("\n[EVIDENCE]")
	if resp.Evidence == search.NoDocumentsFound {
		color.Red("%s", resp.Evidence)
		return
	}
	fmt.Println(resp.Evidence)
}

func preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "…"
}
