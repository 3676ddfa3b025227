package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"receipts/internal/api"
	"receipts/internal/config"
	"receipts/internal/draft"
	"receipts/internal/session"
)

// loadConfig loads the configuration and checks that the back office is
// configured when the command needs it.
func loadConfig(needAPI bool, log zerolog.Logger) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return nil, err
	}
	if needAPI {
		if err := cfg.RequireAPI(); err != nil {
			return nil, fmt.Errorf("%w. Set it in the environment, in .env or in the file named by RECEIPTS_CONFIG", err)
		}
	}
	return cfg, nil
}

// newAPIClient creates the back office client from the configuration
func newAPIClient(cfg *config.Config) (*api.Client, error) {
	opts := []api.Option{api.WithTimeout(cfg.HTTPTimeout)}
	if cfg.APIToken != "" {
		opts = append(opts, api.WithToken(cfg.APIToken))
	}
	return api.NewClient(cfg.APIURL, opts...)
}

// openSession creates a client and a session and opens receiptID in it
func openSession(ctx context.Context, cfg *config.Config, receiptID string, log zerolog.Logger, opts ...session.Option) (*session.Session, error) {
	client, err := newAPIClient(cfg)
	if err != nil {
		return nil, err
	}

	s := session.New(client, opts...)
	if err := s.Open(ctx, receiptID); err != nil {
		return nil, handleAPIError(err, log)
	}
	return s, nil
}

// createContextWithTimeout creates a context with timeout and signal handling
func createContextWithTimeout(timeoutSecs int, log zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSecs)*time.Second)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

func commandContext(cmd *cobra.Command, log zerolog.Logger) (context.Context, context.CancelFunc) {
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")
	if timeoutSecs <= 0 {
		timeoutSecs = 60
	}
	return createContextWithTimeout(timeoutSecs, log)
}

// handleAPIError provides user-friendly error messages for back office failures
func handleAPIError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("Back office request failed")

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("the back office did not answer in time. Try increasing --timeout or RECEIPTS_HTTP_TIMEOUT")
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("request was canceled")
	case errors.Is(err, api.ErrUnauthorized):
		return fmt.Errorf("the back office rejected the credentials. Check RECEIPTS_API_TOKEN: %w", err)
	case errors.Is(err, api.ErrNotFound):
		return fmt.Errorf("receipt not found: %w", err)
	case errors.Is(err, api.ErrTransport):
		return fmt.Errorf("could not reach the back office at RECEIPTS_API_URL: %w", err)
	case errors.Is(err, api.ErrUnexpectedStatus):
		code := api.StatusCode(err)
		if code >= http.StatusInternalServerError {
			return fmt.Errorf("the back office failed with status %d, try again later: %w", code, err)
		}
		return fmt.Errorf("the back office answered with status %d: %w", code, err)
	case errors.Is(err, api.ErrInvalidJSON):
		return fmt.Errorf("the back office sent a response that is not JSON: %w", err)
	case errors.Is(err, session.ErrSaveInProgress):
		return fmt.Errorf("a save is already in progress")
	case errors.Is(err, draft.ErrInvalidPath), errors.Is(err, draft.ErrUnknownField),
		errors.Is(err, draft.ErrAmbiguousField), errors.Is(err, draft.ErrIndexOutOfRange),
		errors.Is(err, draft.ErrInvalidValue):
		return fmt.Errorf("invalid edit: %w", err)
	default:
		return err
	}
}

// writeOutput writes data to outputPath, or to stdout when it is empty
func writeOutput(data []byte, outputPath string, log zerolog.Logger) error {
	if outputPath == "" {
		if _, err := os.Stdout.Write(data); err != nil {
			log.Error().Err(err).Msg("Failed to write to stdout")
			return fmt.Errorf("failed to write output: %w", err)
		}
		if len(data) > 0 && data[len(data)-1] != '\n' {
			fmt.Println()
		}
		return nil
	}

	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		log.Error().
			Err(err).
			Str("output_file", outputPath).
			Msg("Failed to write output file")
		return fmt.Errorf("failed to write output file: %w", err)
	}

	log.Info().
		Str("output_file", outputPath).
		Int("bytes", len(data)).
		Msg("Output written to file")
	return nil
}

func writeJSON(v any, outputPath string, log zerolog.Logger) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal JSON output")
		return fmt.Errorf("failed to create JSON output: %w", err)
	}
	return writeOutput(data, outputPath, log)
}

// parseAssignments splits "key=value" flags
func parseAssignments(values []string) ([][2]string, error) {
	out := make([][2]string, 0, len(values))
	for _, v := range values {
		key, value, ok := strings.Cut(v, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("expected key=value, got %q", v)
		}
		out = append(out, [2]string{strings.TrimSpace(key), value})
	}
	return out, nil
}
