// Command catalog-browse pages through a running storefront gateway from the
// terminal. Each Enter press loads the next page, the way the storefront's
// "load more" button does.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/application/browse"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/storefrontapi"
)

const (
	baseURLFlag  = "base-url"
	categoryFlag = "category"
	searchFlag   = "search"
	pageSizeFlag = "page-size"
	currencyFlag = "currency"
	localeFlag   = "locale"
	logLevelFlag = "log-level"
)

type options struct {
	BaseURL  string
	Key      browse.QueryKey
	PageSize int
	Currency string
	Locale   string
	LogLevel string
}

func main() {
	opts, err := parseFlags(os.Args[0], os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log, err := logger.New(&logger.Config{
		Level:  opts.LogLevel,
		Format: "console",
		Output: "stderr",
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize logger:", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, log, os.Stdin, os.Stdout); err != nil {
		log.Error("browse failed", zap.Error(err))
		os.Exit(1)
	}
}

func parseFlags(name string, args []string) (options, error) {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	baseURL := fs.StringP(baseURLFlag, "u", "http://localhost:8080", "storefront gateway base URL")
	category := fs.StringP(categoryFlag, "c", "", "category id to browse")
	search := fs.StringP(searchFlag, "s", "", "search term to browse")
	pageSize := fs.IntP(pageSizeFlag, "n", browse.DefaultPageSize, "products per page")
	currency := fs.String(currencyFlag, "MYR", "ISO 4217 currency used to print prices")
	locale := fs.String(localeFlag, "en-MY", "BCP 47 locale used to print prices")
	logLevel := fs.String(logLevelFlag, "warn", "log level")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	var errs []error
	if *category != "" && *search != "" {
		errs = append(errs, fmt.Errorf("--%s and --%s are mutually exclusive", categoryFlag, searchFlag))
	}
	if *pageSize < 1 || *pageSize > 100 {
		errs = append(errs, fmt.Errorf("--%s must be between 1 and 100", pageSizeFlag))
	}
	if err := errors.Join(errs...); err != nil {
		return options{}, err
	}

	key := browse.QueryKey{Kind: browse.KindAll}
	switch {
	case *category != "":
		key = browse.QueryKey{Kind: browse.KindCategory, Value: *category}
	case *search != "":
		key = browse.QueryKey{Kind: browse.KindSearch, Value: *search}
	}

	return options{
		BaseURL:  *baseURL,
		Key:      key,
		PageSize: *pageSize,
		Currency: *currency,
		Locale:   *locale,
		LogLevel: *logLevel,
	}, nil
}

// run loads the first page, then one more page per line read from in until
// the listing is exhausted or in is closed
func run(ctx context.Context, opts options, log *zap.Logger, in io.Reader, out io.Writer) error {
	client, err := storefrontapi.New(opts.BaseURL, storefrontapi.WithLogger(log))
	if err != nil {
		return err
	}
	prices, err := catalog.NewPriceFormatter(opts.Currency, opts.Locale)
	if err != nil {
		return err
	}

	o := browse.NewOrchestrator(client,
		browse.WithPageSize(opts.PageSize),
		browse.WithLogger(log),
	)
	o.Reset(opts.Key)
	fmt.Fprintf(out, "Browsing %s\n", opts.Key)

	lines := bufio.NewScanner(in)
	shown := 0
	for {
		outcome, err := o.FetchNext(ctx)
		state := o.Snapshot()
		switch {
		case err != nil:
			fmt.Fprintf(out, "Could not load page %d: %v\n", state.Page, err)
		case outcome == browse.OutcomeAppended:
			for _, p := range state.Items[shown:] {
				fmt.Fprintf(out, "%6d  %-48s %s\n", p.ID, p.Name, prices.Format(p.Price))
			}
			shown = len(state.Items)
		}

		if err == nil && !state.HasMore {
			fmt.Fprintf(out, "%d products, end of list\n", len(state.Items))
			return nil
		}

		if err != nil {
			fmt.Fprint(out, "Press Enter to retry ")
		} else {
			fmt.Fprintf(out, "%d products shown. Press Enter to load more ", len(state.Items))
		}
		if !lines.Scan() {
			fmt.Fprintln(out)
			return lines.Err()
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}
