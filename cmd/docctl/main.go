// Package main provides the docctl CLI for operating the document index.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/arigen-tech/docstream/internal/config"
	"github.com/arigen-tech/docstream/internal/crypto"
	"github.com/arigen-tech/docstream/internal/extract"
	"github.com/arigen-tech/docstream/internal/index"
	"github.com/arigen-tech/docstream/internal/ingest"
	"github.com/arigen-tech/docstream/internal/records"
)

var (
	configPath string
	searchIDs  []int64
	keyString  string
)

var rootCmd = &cobra.Command{
	Use:   "docctl",
	Short: "Document index operations tool",
	Long:  "CLI tool for scanning, searching, and maintaining the document search index",
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Sweep the document roots and index every file",
	Long: `Walks every configured root directory and runs the full ingestion
pipeline on each file: decrypt if needed, extract text, fingerprint,
and reconcile duplicates against the canonical record store.

Environment variables:
  DOCSTREAM_ROOTS          Comma-separated root directories
  DOCSTREAM_DATABASE_URL   Record store connection string
  DOCSTREAM_INDEX_PATH     SQLite index file
  DOCSTREAM_ENCRYPTION_KEY Key material for encrypted files (optional)`,
	RunE: runScan,
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the index",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every index entry",
	RunE:  runReset,
}

var encryptCmd = &cobra.Command{
	Use:   "encrypt <in> <out>",
	Short: "Encrypt a file with the configured key",
	Args:  cobra.ExactArgs(2),
	RunE:  runEncrypt,
}

var decryptCmd = &cobra.Command{
	Use:   "decrypt <in> <out>",
	Short: "Decrypt a file with the configured key",
	Args:  cobra.ExactArgs(2),
	RunE:  runDecrypt,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "config file path")
	searchCmd.Flags().Int64SliceVar(&searchIDs, "id", nil, "restrict results to these canonical ids")
	encryptCmd.Flags().StringVar(&keyString, "key", "", "key material (overrides config)")
	decryptCmd.Flags().StringVar(&keyString, "key", "", "key material (overrides config)")

	rootCmd.AddCommand(scanCmd, searchCmd, resetCmd, encryptCmd, decryptCmd)
}

func main() {
	// Load .env file if present (local development), ignore if missing (production)
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	start := time.Now()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	fmt.Printf("Connecting to record store...\n")
	store, err := records.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect to record store: %w", err)
	}
	defer store.Close()

	idx, err := index.Open(cfg.IndexPath)
	if err != nil {
		return fmt.Errorf("open search index: %w", err)
	}
	defer idx.Close()

	var cipher *crypto.Cipher
	if cfg.EncryptionKey != "" {
		cipher, err = crypto.New(crypto.KeyFromString(cfg.EncryptionKey))
		if err != nil {
			return fmt.Errorf("create cipher: %w", err)
		}
	}

	failLog, err := ingest.OpenFailLog(cfg.FailedLogPath)
	if err != nil {
		return fmt.Errorf("open failed-file log: %w", err)
	}

	coordinator := ingest.NewCoordinator(store, idx, extract.NewRegistry(), cipher, failLog, slog.Default())

	fmt.Printf("Scanning %v...\n", cfg.Roots)
	res, err := coordinator.ScanAll(ctx, cfg.Roots)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	fmt.Println()
	fmt.Printf("Processed:  %d\n", res.Processed)
	fmt.Printf("Originals:  %d\n", res.Originals)
	fmt.Printf("Duplicates: %d\n", res.Duplicates)
	fmt.Printf("Skipped:    %d\n", res.Skipped)
	fmt.Printf("Failed:     %d\n", res.Failed)
	fmt.Printf("Done in %s\n", time.Since(start).Round(time.Millisecond))
	return nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	idx, err := index.Open(cfg.IndexPath)
	if err != nil {
		return fmt.Errorf("open search index: %w", err)
	}
	defer idx.Close()

	matches, err := idx.Search(context.Background(), args[0], searchIDs)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	if len(matches) == 0 {
		fmt.Println("No matches")
		return nil
	}
	for _, m := range matches {
		fmt.Printf("%8d  %s\n", m.OriginalID, m.FileName)
	}
	return nil
}

func runReset(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	idx, err := index.Open(cfg.IndexPath)
	if err != nil {
		return fmt.Errorf("open search index: %w", err)
	}
	defer idx.Close()

	if err := idx.DeleteAll(context.Background()); err != nil {
		return fmt.Errorf("reset index: %w", err)
	}
	fmt.Println("Index cleared")
	return nil
}

func runEncrypt(cmd *cobra.Command, args []string) error {
	cipher, err := cipherFromFlags()
	if err != nil {
		return err
	}
	if err := cipher.EncryptFile(args[0], args[1]); err != nil {
		return fmt.Errorf("encrypt %s: %w", args[0], err)
	}
	fmt.Printf("Encrypted %s -> %s\n", args[0], args[1])
	return nil
}

func runDecrypt(cmd *cobra.Command, args []string) error {
	cipher, err := cipherFromFlags()
	if err != nil {
		return err
	}
	if err := cipher.DecryptFile(args[0], args[1]); err != nil {
		return fmt.Errorf("decrypt %s: %w", args[0], err)
	}
	fmt.Printf("Decrypted %s -> %s\n", args[0], args[1])
	return nil
}

func cipherFromFlags() (*crypto.Cipher, error) {
	material := keyString
	if material == "" {
		cfg, err := loadConfig()
		if err != nil {
			return nil, err
		}
		material = cfg.EncryptionKey
	}
	if material == "" {
		return nil, fmt.Errorf("no key material: set --key or encryption_key in config")
	}
	return crypto.New(crypto.KeyFromString(material))
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
