// Copyright 2025 Agentic World, LLC (Sherin Thomas)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command sitebrief crawls a business website and prints the extracted
// BusinessInfo record as JSON.
//
// Usage:
//
//	sitebrief [flags] <url> [extra-url ...]
//
// The JSON record goes to stdout (or the -o file); all diagnostics go to
// stderr. The process exits non-zero when no level-1 page could be fetched.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/kennygrant/sanitize"

	"github.com/agentberlin/sitebrief"
	"github.com/agentberlin/sitebrief/internal/store"
)

func main() {
	// A .env file can provide SITEBRIEF_* defaults; absence is fine.
	_ = godotenv.Load()

	deepFlag := flag.Bool("deep", false, "retain larger text budgets and full per-page raw text")
	outFlag := flag.String("o", "", "write the JSON record to a file instead of stdout")
	outDirFlag := flag.String("dir", envOr("SITEBRIEF_OUTDIR", ""), "write the record to <dir>/<domain>.json instead of stdout")
	saveFlag := flag.Bool("save", false, "persist the crawl result to the local history database")
	dbFlag := flag.String("db", envOr("SITEBRIEF_DB", "sitebrief.db"), "path of the history database used with -save")
	delayFlag := flag.Duration("delay", 500*time.Millisecond, "politeness delay after every fetch")
	timeoutFlag := flag.Duration("timeout", 15*time.Second, "per-request HTTP timeout")
	userAgentFlag := flag.String("user-agent", envOr("SITEBRIEF_USER_AGENT", sitebrief.DefaultUserAgent), "User-Agent header")
	ignoreRobotsFlag := flag.Bool("ignore-robots", false, "skip robots.txt checks")
	verboseFlag := flag.Bool("v", false, "verbose diagnostics")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: sitebrief [flags] <url> [extra-url ...]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "sitebrief"})
	if *verboseFlag {
		logger.SetLevel(log.DebugLevel)
	}

	opts := []sitebrief.Option{
		sitebrief.WithDelay(*delayFlag),
		sitebrief.WithTimeout(*timeoutFlag),
		sitebrief.WithUserAgent(*userAgentFlag),
		sitebrief.WithLogger(logger),
	}
	if *deepFlag {
		opts = append(opts, sitebrief.WithDeepMode())
	}
	if *ignoreRobotsFlag {
		opts = append(opts, sitebrief.WithIgnoreRobots())
	}
	if extras := flag.Args()[1:]; len(extras) > 0 {
		normalized := make([]string, len(extras))
		for i, u := range extras {
			normalized[i] = sitebrief.NormalizeSeedURL(u)
		}
		opts = append(opts, sitebrief.WithExtraURLs(normalized...))
	}

	rootURL := sitebrief.NormalizeSeedURL(flag.Arg(0))
	crawler := sitebrief.NewCrawler(opts...)

	info, err := crawler.Crawl(rootURL)
	if err != nil {
		logger.Fatal("crawl failed", "url", rootURL, "err", err)
	}

	if *saveFlag {
		db, err := store.Open(*dbFlag)
		if err != nil {
			logger.Fatal("could not open history database", "path", *dbFlag, "err", err)
		}
		record, err := db.Save(rootURL, info)
		if err != nil {
			logger.Fatal("could not save crawl result", "err", err)
		}
		logger.Info("crawl saved", "id", record.ID, "domain", record.Domain)
	}

	payload, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		logger.Fatal("could not encode result", "err", err)
	}
	payload = append(payload, '\n')

	outPath := *outFlag
	if outPath == "" && *outDirFlag != "" {
		outPath = filepath.Join(*outDirFlag, sanitize.BaseName(info.Domain)+".json")
	}
	if outPath != "" {
		if err := os.WriteFile(outPath, payload, 0644); err != nil {
			logger.Fatal("could not write output file", "path", outPath, "err", err)
		}
		logger.Info("record written", "path", outPath)
		return
	}
	os.Stdout.Write(payload)
}

// envOr returns the environment variable's value, or the fallback when it is
// unset or empty.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
