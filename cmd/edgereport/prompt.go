package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/aluiziolira/edgereport/config"
)

// interactiveFill prompts on stdin for any core parameter still missing,
// offering the env-sourced suggestions as defaults.
func interactiveFill(cfg *config.Config, suggested config.Suggested) {
	in := bufio.NewReader(os.Stdin)

	if cfg.Start == "" {
		cfg.Start = ask(in, "Start (ISO-8601 Z)", suggested.Start)
	}
	if cfg.End == "" {
		cfg.End = ask(in, "End (ISO-8601 Z)", suggested.End)
	}
	if cfg.Interval == "" {
		cfg.Interval = strings.ToUpper(ask(in, "Interval (HOUR|DAY|WEEK|MONTH)", suggested.Interval))
	}
	if cfg.ObjectType == "" {
		cfg.ObjectType = ask(in, "Object type", suggested.ObjectType)
	}
	if len(cfg.ObjectIDs) == 0 {
		cfg.ObjectIDs = config.SplitList(ask(in, "Object IDs (comma-separated)", suggested.ObjectIDs))
	}
	if len(cfg.Metrics) == 0 {
		cfg.Metrics = config.SplitList(ask(in, "Metrics (comma-separated)", suggested.Metrics))
	}
	if cfg.Limit == "" {
		cfg.Limit = ask(in, "Limit (number or MAX)", suggested.Limit)
	}

	if cfg.OutputFormat == "" {
		format := strings.ToLower(ask(in, "Output format (json/csv/xlsx)", "csv"))
		switch format {
		case "json", "csv", "xlsx":
			cfg.OutputFormat = format
		default:
			cfg.OutputFormat = "csv"
		}
		if cfg.OutputFormat != "json" && cfg.OutputFile == "" {
			fallback := "report.csv"
			if cfg.OutputFormat == "xlsx" {
				fallback = "report.xlsx"
			}
			if name := ask(in, fmt.Sprintf("%s file name", strings.ToUpper(cfg.OutputFormat)), fallback); name != "" {
				cfg.OutputFile = name
			} else if cfg.OutputFormat == "xlsx" {
				cfg.OutputFile = fallback
			}
		}
	}

	if !cfg.Pretty && yes(ask(in, "Pretty print JSON? (y/N)", "N")) {
		cfg.Pretty = true
	}
	if !cfg.Verbose && yes(ask(in, "Verbose? (y/N)", "N")) {
		cfg.Verbose = true
	}
	if !cfg.LogHeaders && yes(ask(in, "Log headers? (y/N)", "N")) {
		cfg.LogHeaders = true
	}
}

func ask(in *bufio.Reader, prompt, fallback string) string {
	if fallback != "" {
		fmt.Fprintf(os.Stderr, "%s [%s]: ", prompt, fallback)
	} else {
		fmt.Fprintf(os.Stderr, "%s: ", prompt)
	}
	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		return fallback
	}
	if line = strings.TrimSpace(line); line != "" {
		return line
	}
	return fallback
}

func yes(answer string) bool {
	return strings.HasPrefix(strings.ToLower(answer), "y")
}
