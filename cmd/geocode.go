package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/doormap/internal/geocode"
)

var geocodeCmd = &cobra.Command{
	Use:   "geocode",
	Short: "Prepare and submit batch geocoding jobs",
	Long: `Commands for the batch geocoder. Results are not polled: download the
finished job manually and point geocoder.result_file at it.`,
}

var geocodeBodyCmd = &cobra.Command{
	Use:   "body",
	Short: "Write the pipe-delimited batch body for the scraped doors",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("scrape"); err != nil {
			return err
		}

		out, _ := cmd.Flags().GetString("out")
		if out == "" {
			out = cfg.Geocoder.BodyFile
		}

		unknown, err := writeBatchBody(ctx, out)
		if err != nil {
			return err
		}
		for _, t := range unknown {
			fmt.Fprintf(os.Stderr, "new street type: %s\n", t)
		}
		return nil
	},
}

var geocodeSubmitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a batch body to the geocoder",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("submit"); err != nil {
			return err
		}

		body, _ := cmd.Flags().GetString("body")
		if body == "" {
			body = cfg.Geocoder.BodyFile
		}

		job, err := submitBatch(ctx, body)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "request id: %s\nstatus: %s\n", job.RequestID, job.Status)
		return nil
	},
}

// writeBatchBody scrapes (or loads) the doors and writes their batch body to
// path. It returns the address types that had no mapping.
func writeBatchBody(ctx context.Context, path string) ([]string, error) {
	log := zap.L().With(zap.String("command", "geocode.body"))

	st, err := openStore(ctx)
	if err != nil {
		return nil, err
	}
	if st != nil {
		defer st.Close() //nolint:errcheck
	}

	res, err := scrape(ctx, st)
	if err != nil {
		return nil, err
	}

	body, unknown := geocode.BuildBatchBody(res.Doors, locality())
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, eris.Wrapf(err, "geocode body: create dir %s", dir)
		}
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return nil, eris.Wrapf(err, "geocode body: write %s", path)
	}

	log.Info("batch body written",
		zap.String("path", path),
		zap.Int("doors", len(res.Doors)),
		zap.Strings("unknown_address_types", unknown),
	)
	return unknown, nil
}

// submitBatch posts the body file at path to the batch geocoder.
func submitBatch(ctx context.Context, path string) (*geocode.Job, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "geocode submit: read %s", path)
	}

	client := geocode.NewClient(newFetcher(),
		geocode.WithURL(cfg.Geocoder.URL),
		geocode.WithCredentials(cfg.Geocoder.AppID, cfg.Geocoder.AppCode),
		geocode.WithMailTo(cfg.Geocoder.MailTo),
	)
	return client.Submit(ctx, string(body))
}

func init() {
	geocodeBodyCmd.Flags().String("out", "", "body file to write (default geocoder.body_file)")
	geocodeSubmitCmd.Flags().String("body", "", "body file to submit (default geocoder.body_file)")

	geocodeCmd.AddCommand(geocodeBodyCmd)
	geocodeCmd.AddCommand(geocodeSubmitCmd)
	rootCmd.AddCommand(geocodeCmd)
}
