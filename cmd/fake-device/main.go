// Package main is the entry point for the fake-device binary.
// It simulates an IoT device issuing a single mutually-authenticated HTTPS
// request to a device-gateway and prints the response.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/foundriesio/fake-device/internal/device"
	"github.com/foundriesio/fake-device/internal/gateway"
	"github.com/foundriesio/fake-device/pkg/config"
	"github.com/foundriesio/fake-device/pkg/logging"
)

var version = "devel"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd creates the root command. Running it with a resource argument
// performs the request; subcommands cover provisioning and inspection.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "fake-device [flags] resource",
		Short: "Simulated device client for a device-gateway",
		Long: `fake-device issues a single GET request to a device-gateway over mutual
TLS, using the client certificate, private key, and trust root found in a
device directory. The HTTP status line goes to stderr, the raw response body
to stdout.

Example:
  fake-device -d ./my-device /items`,
		Args:          cobra.ExactArgs(1),
		RunE:          runRequest,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.Flags().Int("port", 8443, "Port of device-gateway")
	rootCmd.Flags().String("http-method", "GET", "HTTP method; only GET is supported")
	rootCmd.Flags().StringP("device-dir", "d", "", "Directory containing device credential files")
	rootCmd.Flags().Duration("timeout", gateway.DefaultTimeout, "Request timeout, handshake included")
	rootCmd.Flags().String("config", "", "Path to configuration file (YAML)")
	rootCmd.Flags().String("log-level", "", "Log level (debug, info, warn, error)")
	_ = rootCmd.MarkFlagRequired("device-dir")

	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newInspectCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// loadRunConfig builds the effective configuration: file values on top of
// defaults, CLI flags on top of both.
func loadRunConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	explicit := configPath != ""
	if !explicit {
		configPath = config.DefaultPath
	}

	cfg, err := config.Load(configPath, explicit)
	if err != nil {
		return nil, err
	}
	if err := applyFlagOverrides(cmd, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFlagOverrides copies explicitly-set flags over the file configuration.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) error {
	if cmd.Flags().Changed("port") {
		port, err := cmd.Flags().GetInt("port")
		if err != nil {
			return err
		}
		cfg.Port = port
	}
	if cmd.Flags().Changed("http-method") {
		method, err := cmd.Flags().GetString("http-method")
		if err != nil {
			return err
		}
		cfg.HTTPMethod = method
	}
	if cmd.Flags().Changed("timeout") {
		timeout, err := cmd.Flags().GetDuration("timeout")
		if err != nil {
			return err
		}
		cfg.Timeout = config.Duration(timeout)
	}
	if cmd.Flags().Changed("log-level") {
		level, err := cmd.Flags().GetString("log-level")
		if err != nil {
			return err
		}
		cfg.Logging.Level = level
	}
	return cfg.Validate()
}

func runRequest(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig(cmd)
	if err != nil {
		return err
	}

	logging.SetupLogger(logging.Config{
		Level:  cfg.Logging.Level,
		Pretty: cfg.Logging.Pretty,
	})

	deviceDir, err := cmd.Flags().GetString("device-dir")
	if err != nil {
		return err
	}

	dir := device.Directory{Path: deviceDir}
	hostname, err := dir.Hostname()
	if err != nil {
		return err
	}

	client := gateway.Client{Timeout: time.Duration(cfg.Timeout)}
	target := gateway.Target{
		Hostname: hostname,
		Port:     cfg.Port,
		Resource: args[0],
	}

	outcome, err := client.Do(cmd.Context(), cfg.HTTPMethod, target, dir.Credentials())
	if err != nil {
		return err
	}

	// Status line to stderr, raw body to stdout. Any status code, 4xx/5xx
	// included, is a completed exchange and exits 0.
	fmt.Fprintf(os.Stderr, "< HTTP %d\n", outcome.StatusCode)
	fmt.Println(outcome.Body)
	return nil
}

func newInitCmd() *cobra.Command {
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Provision a device directory with fresh credentials",
		Long: `Generate a throwaway CA, a client certificate and key signed by it, and
the gateway hostname file, producing a complete device directory.`,
		RunE: runInit,
	}

	initCmd.Flags().StringP("device-dir", "d", "", "Directory to create the device credential files in")
	initCmd.Flags().String("hostname", "", "Gateway hostname written to the hostname file")
	initCmd.Flags().String("cn", "fake-device", "Common name for the client certificate")
	initCmd.Flags().String("factory", "", "Factory name recorded as the certificate organizational unit")
	initCmd.Flags().Duration("valid-for", 365*24*time.Hour, "Client certificate validity duration")
	_ = initCmd.MarkFlagRequired("device-dir")
	_ = initCmd.MarkFlagRequired("hostname")

	return initCmd
}

func runInit(cmd *cobra.Command, args []string) error {
	deviceDir, err := cmd.Flags().GetString("device-dir")
	if err != nil {
		return err
	}
	hostname, err := cmd.Flags().GetString("hostname")
	if err != nil {
		return err
	}
	commonName, err := cmd.Flags().GetString("cn")
	if err != nil {
		return err
	}
	factory, err := cmd.Flags().GetString("factory")
	if err != nil {
		return err
	}
	validFor, err := cmd.Flags().GetDuration("valid-for")
	if err != nil {
		return err
	}

	logging.SetupLogger(logging.Config{Level: "info", Pretty: true})

	if err := device.Provision(deviceDir, device.ProvisionOptions{
		Hostname:   hostname,
		CommonName: commonName,
		Factory:    factory,
		ValidFor:   validFor,
	}); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Device directory provisioned in %s\n", deviceDir)
	return nil
}

func newInspectCmd() *cobra.Command {
	inspectCmd := &cobra.Command{
		Use:   "inspect",
		Short: "Inspect the certificates in a device directory",
		RunE:  runInspect,
	}

	inspectCmd.Flags().StringP("device-dir", "d", "", "Directory containing device credential files")
	inspectCmd.Flags().String("format", "text", "Output format: text, json")
	_ = inspectCmd.MarkFlagRequired("device-dir")

	return inspectCmd
}

func runInspect(cmd *cobra.Command, args []string) error {
	deviceDir, err := cmd.Flags().GetString("device-dir")
	if err != nil {
		return err
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}

	infos, err := device.Directory{Path: deviceDir}.Inspect()
	if err != nil {
		return err
	}

	switch format {
	case "text":
		printCertificateInfoText(infos)
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(infos); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown format: %s (supported: text, json)", format)
	}
	return nil
}

func printCertificateInfoText(infos []device.CertificateInfo) {
	for i, info := range infos {
		if i > 0 {
			fmt.Println()
		}
		fmt.Printf("Certificate: %s\n", info.File)
		fmt.Printf("  Subject: %s\n", info.Subject)
		fmt.Printf("  Issuer: %s\n", info.Issuer)
		fmt.Printf("  Valid From: %s\n", info.NotBefore.Format(time.RFC3339))
		fmt.Printf("  Valid Until: %s\n", info.NotAfter.Format(time.RFC3339))
		fmt.Printf("  Status: %s\n", info.Status)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("fake-device version %s\n", version)
		},
	}
}
