// Command scrape looks up coordinates for Google Maps links and Wikipedia
// articles and prints them as TSV: url, raw latitude, raw longitude, decimal
// latitude, decimal longitude. URLs without coordinates print empty fields.
//
// Usage:
//
//	go run ./cmd/scrape https://en.wikipedia.org/wiki/Seikan_Tunnel
//	go run ./cmd/scrape -urls data/tunnel_urls.txt > data/tunnel_coords.tsv
package main

import (
	"bufio"
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/couchcryptid/geobin/internal/adapter/scrape"
	"github.com/couchcryptid/geobin/internal/domain"
	"github.com/couchcryptid/geobin/internal/observability"
)

func main() {
	urlFile := flag.String("urls", "", "file with one URL per line")
	interval := flag.Duration("interval", time.Second, "minimum time between page fetches")
	timeout := flag.Duration("timeout", 10*time.Second, "per-request timeout")
	header := flag.Bool("header", false, "print a header row")
	flag.Parse()

	urls := flag.Args()
	if *urlFile != "" {
		fromFile, err := readURLs(*urlFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
			os.Exit(1)
		}
		urls = append(urls, fromFile...)
	}
	if len(urls) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	metrics := observability.NewMetrics()
	client := scrape.NewClient(*timeout, *interval, metrics, logger)
	locator := scrape.NewCachedLocator(client, len(urls), metrics)

	if err := run(ctx, os.Stdout, locator, urls, *header); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, out io.Writer, locator domain.Locator, urls []string, header bool) error {
	w := csv.NewWriter(out)
	w.Comma = '\t'

	if header {
		if err := w.Write([]string{"URL", "Latitude", "Longitude", "Lat", "Lon"}); err != nil {
			return err
		}
	}
	for _, url := range urls {
		loc, err := locator.Locate(ctx, url)
		if err != nil {
			return err
		}
		if err := w.Write(row(url, loc)); err != nil {
			return err
		}
		w.Flush()
	}
	w.Flush()
	return w.Error()
}

func row(url string, loc domain.Location) []string {
	if !loc.Found {
		return []string{url, loc.RawLat, loc.RawLon, "", ""}
	}
	return []string{
		url,
		loc.RawLat,
		loc.RawLon,
		strconv.FormatFloat(loc.Lat, 'f', -1, 64),
		strconv.FormatFloat(loc.Lon, 'f', -1, 64),
	}
}

func readURLs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open url file: %w", err)
	}
	defer f.Close()

	var urls []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" && !strings.HasPrefix(line, "#") {
			urls = append(urls, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read url file: %w", err)
	}
	return urls, nil
}
