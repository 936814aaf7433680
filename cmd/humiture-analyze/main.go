package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/LogicPi-cn/lgp-iot-db/internal/diag"
	"github.com/LogicPi-cn/lgp-iot-db/pkg/humiture"
)

var (
	rootCmd = &cobra.Command{
		Use:   "humiture-analyze [hex]",
		Short: "Decode humiture frames",
		Long:  "humiture-analyze decodes temperature/humidity frames and prints the header and readings as JSON.",
		Args:  cobra.MaximumNArgs(1),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logrus.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			logrus.SetLevel(level)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := analyzeOptions()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				return runInteractive(out, opts)
			}
			return runAnalyze(out, opts, args[0])
		},
	}

	variant   string
	samples   int
	verifyCRC bool
	at        string
	logLevel  string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&variant, "variant", humiture.DefaultVariant, "frame variant ("+strings.Join(humiture.Variants(), ", ")+")")
	rootCmd.PersistentFlags().StringVar(&at, "at", "", "reference time (RFC3339); defaults to now")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "logrus level")
	rootCmd.Flags().IntVarP(&samples, "samples", "n", 0, "samples per frame; 0 infers it from the frame length")
	rootCmd.Flags().BoolVar(&verifyCRC, "verify-crc", false, "reject frames with a bad checksum")
	rootCmd.AddCommand(encodeCmd)
}

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	ctx := context.Background()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logrus.Fatal(err)
	}
}

func analyzeOptions() (humiture.AnalyzeOptions, error) {
	if samples < 0 {
		return humiture.AnalyzeOptions{}, fmt.Errorf("--samples must not be negative")
	}
	ref, err := referenceTime()
	if err != nil {
		return humiture.AnalyzeOptions{}, err
	}
	return humiture.AnalyzeOptions{
		Variant:        variant,
		Samples:        samples,
		VerifyChecksum: verifyCRC,
		Reference:      ref,
		Diagnostics:    diag.Logger{Log: logrus.StandardLogger()},
	}, nil
}

// referenceTime parses --at; the zero time means "use the wall clock".
func referenceTime() (time.Time, error) {
	if at == "" {
		return time.Time{}, nil
	}
	ts, err := time.Parse(time.RFC3339, at)
	if err != nil {
		return time.Time{}, fmt.Errorf("--at: %w", err)
	}
	return ts, nil
}

func runInteractive(out io.Writer, opts humiture.AnalyzeOptions) error {
	scanner := bufio.NewScanner(os.Stdin)
	logrus.Info("humiture analyze mode. Paste a hex frame and press Enter (Ctrl+D to exit).")
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := runAnalyze(out, opts, line); err != nil {
			logrus.WithError(err).Error("failed to decode frame")
		}
	}
	return scanner.Err()
}

func runAnalyze(out io.Writer, opts humiture.AnalyzeOptions, hex string) error {
	result, err := humiture.AnalyzeHexWithOptions(hex, opts)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, result.String())
	return nil
}
