package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/initify/issue-notifier/internal/app"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func runWithSignals(run func(context.Context) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func serve(ctx context.Context, h *app.Handler, log logrus.FieldLogger, port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           app.NewRouterWithHandler(h),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Infof("issue notifier listening on %s", srv.Addr)
	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func readEvent(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func main() {
	startLambda := func(cmd *cobra.Command, args []string) error {
		h, _, err := app.HandlerFromEnv()
		if err != nil {
			return err
		}
		lambda.Start(h.Handle)
		return nil
	}

	rootCmd := &cobra.Command{
		Use:          "issue-notifier",
		Short:        "Forward GitHub issue events to a Slack webhook",
		SilenceUsage: true,
		RunE:         startLambda,
	}

	lambdaCmd := &cobra.Command{
		Use:   "lambda",
		Short: "Run as an AWS Lambda function (default)",
		RunE:  startLambda,
	}

	var port string
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the webhook over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfigFromEnv()
			if err != nil {
				return err
			}
			h, logger := app.NewHandlerFromConfig(cfg)
			if !cmd.Flags().Changed("port") {
				port = cfg.Port
			}
			return runWithSignals(func(ctx context.Context) error {
				return serve(ctx, h, logger, port)
			})
		},
	}
	serveCmd.Flags().StringVar(&port, "port", "8080", "Port to listen on")

	var eventPath string
	invokeCmd := &cobra.Command{
		Use:   "invoke",
		Short: "Handle a single event read from a file or stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readEvent(eventPath)
			if err != nil {
				return err
			}
			h, _, err := app.HandlerFromEnv()
			if err != nil {
				return err
			}
			return runWithSignals(func(ctx context.Context) error {
				result, err := h.Handle(ctx, json.RawMessage(raw))
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), result)
				return err
			})
		},
	}
	invokeCmd.Flags().StringVar(&eventPath, "event", "-", "Path to the event JSON, or - for stdin")

	rootCmd.AddCommand(lambdaCmd, serveCmd, invokeCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
