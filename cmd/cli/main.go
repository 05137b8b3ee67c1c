package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/iho/ledgersaga/internal/adapter/http/dto"
	"github.com/iho/ledgersaga/internal/adapter/http/middleware"
)

type options struct {
	ledgerURL   string
	transferURL string
	timeout     time.Duration
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "ledgersaga-cli",
		Short:         "LedgerSaga CLI tool",
		Long:          `A command line interface for the ledger and transfer service APIs.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.ledgerURL, "ledger-url", envOr("LEDGER_URL", "http://localhost:8080"), "Base URL of the ledger service")
	rootCmd.PersistentFlags().StringVar(&opts.transferURL, "transfer-url", envOr("TRANSFER_URL", "http://localhost:8081"), "Base URL of the transfer service")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(accountsCmd(opts), transactionsCmd(opts), outboxCmd(opts))
	return rootCmd
}

func accountsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Ledger account operations",
	}

	var (
		owner    string
		balance  string
		inactive bool
	)
	create := &cobra.Command{
		Use:   "create <account-number>",
		Short: "Open an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{
				"account_number":  args[0],
				"owner_name":      owner,
				"initial_balance": balance,
			}
			if inactive {
				req["status"] = "INACTIVE"
			}
			var out dto.AccountResponse
			if err := ledger(opts).do(cmd.Context(), http.MethodPost, "/api/v1/accounts", req, &out, nil); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	create.Flags().StringVar(&owner, "owner", "", "Owner name")
	create.Flags().StringVar(&balance, "balance", "0", "Opening balance")
	create.Flags().BoolVar(&inactive, "inactive", false, "Open the account INACTIVE")
	_ = create.MarkFlagRequired("owner")

	var byNumber bool
	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/accounts/" + url.PathEscape(args[0])
			if byNumber {
				path = "/api/v1/accounts/by-number/" + url.PathEscape(args[0])
			}
			var out dto.AccountResponse
			if err := ledger(opts).do(cmd.Context(), http.MethodGet, path, nil, &out, nil); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	get.Flags().BoolVar(&byNumber, "number", false, "Look the account up by account number")

	var limit, offset int
	list := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			var out dto.ListAccountsResponse
			if err := ledger(opts).do(cmd.Context(), http.MethodGet, "/api/v1/accounts"+pageQuery(limit, offset), nil, &out, nil); err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%-26s  %-12s  %-20s  %14s  %-8s  %s\n", "ID", "NUMBER", "OWNER", "BALANCE", "STATUS", "VERSION")
			for _, a := range out.Accounts {
				fmt.Fprintf(w, "%-26s  %-12s  %-20s  %14s  %-8s  %d\n",
					a.ID, truncate(a.AccountNumber, 12), truncate(a.OwnerName, 20), a.Balance.StringFixed(2), a.Status, a.Version)
			}
			return nil
		},
	}
	list.Flags().IntVar(&limit, "limit", 0, "Page size")
	list.Flags().IntVar(&offset, "offset", 0, "Page offset")

	setStatus := &cobra.Command{
		Use:       "set-status <id> <ACTIVE|INACTIVE>",
		Short:     "Activate or deactivate an account",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"ACTIVE", "INACTIVE"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var out dto.AccountResponse
			body := dto.UpdateAccountStatusRequest{Status: args[1]}
			if err := ledger(opts).do(cmd.Context(), http.MethodPatch, "/api/v1/accounts/"+url.PathEscape(args[0])+"/status", body, &out, nil); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}

	cmd.AddCommand(create, get, list, setStatus)
	return cmd
}

func transactionsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"tx"},
		Short:   "Transfer operations",
	}

	var (
		description    string
		txType         string
		idempotencyKey string
	)
	create := &cobra.Command{
		Use:   "create <from-number> <to-number> <amount>",
		Short: "Request a transfer",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{
				"from_account_number": args[0],
				"to_account_number":   args[1],
				"amount":              args[2],
				"description":         description,
			}
			if txType != "" {
				req["type"] = txType
			}
			var headers map[string]string
			if idempotencyKey != "" {
				headers = map[string]string{middleware.IdempotencyKeyHeader: idempotencyKey}
			}
			var out dto.TransactionResponse
			if err := transfer(opts).do(cmd.Context(), http.MethodPost, "/api/v1/transactions", req, &out, headers); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	create.Flags().StringVar(&description, "description", "", "Free text description")
	create.Flags().StringVar(&txType, "type", "", "TRANSFER or PAYMENT")
	create.Flags().StringVar(&idempotencyKey, "idempotency-key", "", "Idempotency-Key header value")

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show a transaction and its outcome",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var out dto.TransactionResponse
			if err := transfer(opts).do(cmd.Context(), http.MethodGet, "/api/v1/transactions/"+url.PathEscape(args[0]), nil, &out, nil); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}

	var limit, offset int
	list := &cobra.Command{
		Use:   "list",
		Short: "List transactions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			var out dto.ListTransactionsResponse
			if err := transfer(opts).do(cmd.Context(), http.MethodGet, "/api/v1/transactions"+pageQuery(limit, offset), nil, &out, nil); err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%-26s  %14s  %-9s  %s\n", "ID", "AMOUNT", "STATUS", "OBSERVATIONS")
			for _, tx := range out.Transactions {
				fmt.Fprintf(w, "%-26s  %14s  %-9s  %s\n", tx.ID, tx.Amount.StringFixed(2), tx.Status, truncate(tx.Observations, 40))
			}
			return nil
		},
	}
	list.Flags().IntVar(&limit, "limit", 0, "Page size")
	list.Flags().IntVar(&offset, "offset", 0, "Page offset")

	cmd.AddCommand(create, get, list)
	return cmd
}

func outboxCmd(opts *options) *cobra.Command {
	var service string

	cmd := &cobra.Command{
		Use:   "outbox",
		Short: "Inspect and requeue outbox events",
	}
	cmd.PersistentFlags().StringVar(&service, "service", "ledger", "Service to talk to: ledger or transfer")

	client := func() (*apiClient, error) {
		switch service {
		case "ledger":
			return ledger(opts), nil
		case "transfer":
			return transfer(opts), nil
		default:
			return nil, fmt.Errorf("unknown service %q", service)
		}
	}

	var (
		status string
		limit  int
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List outbox events",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client()
			if err != nil {
				return err
			}
			q := url.Values{}
			q.Set("status", status)
			if limit > 0 {
				q.Set("limit", strconv.Itoa(limit))
			}
			var out dto.ListOutboxEventsResponse
			if err := c.do(cmd.Context(), http.MethodGet, "/api/v1/outbox?"+q.Encode(), nil, &out, nil); err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%-26s  %-22s  %-7s  %8s  %s\n", "ID", "TOPIC", "STATUS", "ATTEMPTS", "LAST ERROR")
			for _, e := range out.Events {
				fmt.Fprintf(w, "%-26s  %-22s  %-7s  %8d  %s\n", e.ID, e.Topic, e.Status, e.Attempts, truncate(e.LastError, 50))
			}
			return nil
		},
	}
	list.Flags().StringVar(&status, "status", "FAILED", "PENDING, SENT or FAILED")
	list.Flags().IntVar(&limit, "limit", 0, "Maximum number of events")

	requeue := &cobra.Command{
		Use:   "requeue <event-id>",
		Short: "Move a FAILED event back to PENDING",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client()
			if err != nil {
				return err
			}
			if err := c.do(cmd.Context(), http.MethodPost, "/api/v1/outbox/"+url.PathEscape(args[0])+"/requeue", nil, nil, nil); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "requeued %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(list, requeue)
	return cmd
}

func ledger(opts *options) *apiClient   { return newAPIClient(opts.ledgerURL, opts.timeout) }
func transfer(opts *options) *apiClient { return newAPIClient(opts.transferURL, opts.timeout) }

func pageQuery(limit, offset int) string {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
