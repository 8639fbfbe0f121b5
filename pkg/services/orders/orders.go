// Package orders downloads and parses the order table.
package orders

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"orderbot/pkg/models"

	"go.uber.org/zap"
)

// Column names of the order table.
const (
	ColumnNumber  = "Order number"
	ColumnHead    = "Head"
	ColumnBody    = "Body"
	ColumnLegs    = "Legs"
	ColumnAddress = "Address"
)

var columns = []string{ColumnNumber, ColumnHead, ColumnBody, ColumnLegs, ColumnAddress}

// ErrMalformed marks a table that cannot be turned into orders.
var ErrMalformed = errors.New("malformed order table")

// Fetcher downloads the order table to a local file and reads it back.
type Fetcher struct {
	client *http.Client
	url    string
	dest   string
	log    *zap.Logger
}

// NewFetcher creates a fetcher that saves url to dest, overwriting it.
func NewFetcher(client *http.Client, url, dest string, logger *zap.Logger) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{client: client, url: url, dest: dest, log: logger.Named("orders")}
}

// Fetch downloads the table and returns its rows in file order.
func (f *Fetcher) Fetch(ctx context.Context) ([]models.Order, error) {
	if err := f.download(ctx); err != nil {
		return nil, err
	}

	file, err := os.Open(f.dest)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.dest, err)
	}
	defer file.Close()

	orders, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", f.dest, err)
	}
	f.log.Info("Orders loaded", zap.String("file", f.dest), zap.Int("count", len(orders)))
	return orders, nil
}

func (f *Fetcher) download(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("download %s: %w", f.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("download %s: unexpected status %s", f.url, resp.Status)
	}

	if dir := filepath.Dir(f.dest); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	out, err := os.Create(f.dest)
	if err != nil {
		return fmt.Errorf("create %s: %w", f.dest, err)
	}
	n, err := io.Copy(out, resp.Body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", f.dest, err)
	}
	f.log.Debug("Order table downloaded", zap.String("url", f.url), zap.Int64("bytes", n))
	return nil
}

// Parse reads a CSV order table. Columns are matched by header name, so
// their order does not matter; extra columns are ignored.
func Parse(r io.Reader) ([]models.Order, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty table", ErrMalformed)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, name := range columns {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrMalformed, name)
		}
	}

	var orders []models.Order
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		line, _ := reader.FieldPos(0)

		order := models.Order{
			Number:  strings.TrimSpace(record[index[ColumnNumber]]),
			Head:    strings.TrimSpace(record[index[ColumnHead]]),
			Body:    strings.TrimSpace(record[index[ColumnBody]]),
			Address: strings.TrimSpace(record[index[ColumnAddress]]),
		}
		if order.Number == "" {
			return nil, fmt.Errorf("%w: line %d: empty order number", ErrMalformed, line)
		}
		if !safeNumber(order.Number) {
			return nil, fmt.Errorf("%w: line %d: order number %q is not usable in a file name", ErrMalformed, line, order.Number)
		}
		legs := strings.TrimSpace(record[index[ColumnLegs]])
		order.Legs, err = strconv.Atoi(legs)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: legs %q is not a number", ErrMalformed, line, legs)
		}
		orders = append(orders, order)
	}
	return orders, nil
}

// safeNumber reports whether an order number can be embedded in artifact file
// names without leaving the output directory.
func safeNumber(n string) bool {
	return !strings.ContainsAny(n, `/\`) && !strings.Contains(n, "..")
}
