package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/richard-senior/hockey/internal/config"
	"github.com/richard-senior/hockey/internal/logger"
	"github.com/richard-senior/hockey/internal/processor"
	"github.com/richard-senior/hockey/pkg/store"
)

// query runs one JSON request against the stats database, e.g.
//
//	query -args '{"team_a":"TOR","team_b":"MTL"}' head_to_head
//	echo '{"query":"data_health"}' | query
func main() {
	debug := flag.Bool("debug", false, "Enable debug logging")
	inputFile := flag.String("input", "", "Input file path (if not provided, stdin will be used)")
	outputFile := flag.String("output", "", "Output file path (if not provided, stdout will be used)")
	rawArgs := flag.String("args", "", "JSON arguments for a query named on the command line")
	dbPath := flag.String("db", "", "Database path (defaults to HOCKEY_DB_PATH)")
	flag.Parse()

	logger.SetShowDateTime(true)
	if *debug {
		logger.SetLevel(logger.DEBUG)
		logger.Debug("Debug logging enabled")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", err)
	}
	if *dbPath != "" {
		cfg.DbPath = *dbPath
	}

	var input []byte
	if *inputFile != "" {
		input, err = os.ReadFile(*inputFile)
		if err != nil {
			logger.Fatal("Failed to read input file", err)
		}
	} else if args := flag.Args(); len(args) > 0 {
		req := processor.Request{
			Query:     strings.Join(args, "_"),
			RequestID: fmt.Sprintf("cli-%d", os.Getpid()),
		}
		if *rawArgs != "" {
			req.Args = json.RawMessage(*rawArgs)
		}
		input, err = json.Marshal(req)
		if err != nil {
			logger.Fatal("Failed to create request from command line arguments", err)
		}
	} else {
		input, err = io.ReadAll(os.Stdin)
		if err != nil {
			logger.Fatal("Failed to read from stdin", err)
		}
	}

	ctx := context.Background()
	st, err := store.Open(ctx, cfg.DbPath)
	if err != nil {
		logger.Fatal("Failed to open database", err)
	}
	defer st.Close()

	result, err := processor.New(st).ProcessRequest(ctx, input)
	if err != nil {
		logger.Error("Failed to process request", err)
		st.Close()
		os.Exit(1)
	}

	if *outputFile != "" {
		if err := os.WriteFile(*outputFile, result, 0644); err != nil {
			logger.Fatal("Failed to write to output file", err)
		}
	} else {
		fmt.Println(string(result))
	}
}
