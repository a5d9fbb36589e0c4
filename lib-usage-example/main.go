package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/veriscope/veriscope/pkg/evaluation"
	"github.com/veriscope/veriscope/pkg/pipeline"
	"github.com/veriscope/veriscope/pkg/providers/simulated"
)

func main() {
	// Usage: go run main.go -content "drinking bleach cures covid" -estimate 10

	contentFlag := flag.String("content", "", "Text or claim to analyze")
	estimateFlag := flag.Int("estimate", -1, "Your credibility estimate (0-100), optional")

	// Parse the command-line flags
	flag.Parse()

	if *contentFlag == "" {
		fmt.Println("Content is required. Please provide it using the -content flag.")
		return
	}

	// This example runs fully offline on simulated signals. Swap in the
	// openai, anthropic, and factcheck providers for live analysis.
	runner, err := pipeline.New(pipeline.Config{
		Analyzer: &simulated.Analyzer{},
		Verifier: &simulated.Verifier{},
	})
	if err != nil {
		log.Fatal(err)
	}

	var estimate *int
	if *estimateFlag >= 0 {
		estimate = estimateFlag
	}

	eval, err := runner.Run(context.Background(), evaluation.ContentItem{
		Type:    evaluation.TypeText,
		Payload: *contentFlag,
	}, estimate)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("%s: %d/100\n", eval.Verdict, eval.Aggregate)
	for _, r := range eval.Results {
		fmt.Println(r.Stage, r.Confidence)
	}
	if eval.Discrepancy != nil {
		fmt.Printf("your estimate was off by %d (%s)\n", *eval.Discrepancy, evaluation.DiscrepancyBand(*eval.Discrepancy))
	}
}
