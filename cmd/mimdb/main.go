package main

import (
	"fmt"
	"net/http"
	"os"
	"runtime"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/QuerthDP/mimdb/pkg/config"
	"github.com/QuerthDP/mimdb/pkg/csvload"
	"github.com/QuerthDP/mimdb/pkg/format"
	"github.com/QuerthDP/mimdb/pkg/logger"
	"github.com/QuerthDP/mimdb/pkg/metastore"
	"github.com/QuerthDP/mimdb/pkg/metrics"
	"github.com/QuerthDP/mimdb/pkg/restapi"
	"github.com/QuerthDP/mimdb/pkg/table"
)

var version = "0.1.0"

func main() {
	_ = godotenv.Load() // ignore error if .env doesn't exist

	root := &cobra.Command{
		Use:   "mimdb",
		Short: "MIMDB - columnar analytical storage engine",
		Long:  `MIMDB stores tables of Int64 and Varchar columns in a compact, compressed binary format and serves them over a small REST facade.`,
	}

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("mimdb v%s\n", version)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	root.AddCommand(newServeCmd())
	root.AddCommand(newLoadCmd())
	root.AddCommand(newInspectCmd())
	root.AddCommand(newMetricsCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newServeCmd() *cobra.Command {
	var configFile, address, dataDir, metastorePath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the REST facade",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.New()
			if configFile != "" {
				if err := config.Load(configFile, cfg); err != nil {
					return fmt.Errorf("loading config: %w", err)
				}
			}
			if address != "" {
				cfg.Server.Address = address
			}
			if dataDir != "" {
				cfg.Storage.DataDir = dataDir
			}
			if metastorePath != "" {
				cfg.Storage.MetastorePath = metastorePath
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			if err := logger.Init(logger.Config{Level: cfg.LogLevel, Encoding: "console"}); err != nil {
				return fmt.Errorf("initializing logger: %w", err)
			}
			log := logger.Get().With(zap.String("component", "mimdb-serve"))

			if err := os.MkdirAll(cfg.Storage.DataDir, 0o755); err != nil {
				return fmt.Errorf("creating data directory: %w", err)
			}

			store, err := metastore.Open(cfg.Storage.MetastorePath)
			if err != nil {
				return fmt.Errorf("opening metastore: %w", err)
			}

			server := restapi.New(store, cfg.Storage.DataDir, cfg.Codec.NormalizedRowsPerBatch(), cfg.Codec.ZstdLevel, log)

			log.Info("serving", zap.String("address", cfg.Server.Address), zap.String("data_dir", cfg.Storage.DataDir))
			return http.ListenAndServe(cfg.Server.Address, server.Routes())
		},
	}

	cmd.Flags().StringVar(&configFile, "config", "", "path to a YAML configuration file")
	cmd.Flags().StringVar(&address, "address", "", "listen address (overrides config)")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "directory holding table files (overrides config)")
	cmd.Flags().StringVar(&metastorePath, "metastore", "", "path to the metastore JSON file (overrides config)")
	return cmd
}

func newLoadCmd() *cobra.Command {
	var rowsPerBatch, zstdLevel int

	cmd := &cobra.Command{
		Use:   "load <csv-file> <mimdb-file>",
		Short: "Bulk-load a CSV file into a new MIMDB table file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			csvFile, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening csv file: %w", err)
			}
			defer csvFile.Close()

			tbl, err := csvload.Load(csvFile)
			if err != nil {
				return fmt.Errorf("loading csv: %w", err)
			}

			out, err := os.Create(args[1])
			if err != nil {
				return fmt.Errorf("creating output file: %w", err)
			}
			defer out.Close()

			if err := format.Write(out, tbl, rowsPerBatch, zstdLevel); err != nil {
				return fmt.Errorf("writing table: %w", err)
			}

			fmt.Printf("loaded %d rows, %d columns into %s\n", tbl.RowCount(), tbl.ColumnCount(), args[1])
			return nil
		},
	}

	cmd.Flags().IntVar(&rowsPerBatch, "rows-per-batch", config.DefaultRowsPerBatch, "rows per compressed batch")
	cmd.Flags().IntVar(&zstdLevel, "zstd-level", config.DefaultZstdLevel, "ZSTD compression level for Int64 columns")
	return cmd
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <mimdb-file>",
		Short: "Print a table's shape and column types",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tbl, err := readTableFile(args[0])
			if err != nil {
				return err
			}

			fmt.Printf("rows: %d\n", tbl.RowCount())
			fmt.Printf("columns: %d\n", tbl.ColumnCount())
			for _, col := range tbl.Columns() {
				fmt.Printf("  %-24s %s\n", col.Name, col.Type)
			}
			return nil
		},
	}
}

func newMetricsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "metrics <mimdb-file>",
		Short: "Print Int64 averages and Varchar ASCII byte counts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tbl, err := readTableFile(args[0])
			if err != nil {
				return err
			}

			for _, col := range tbl.Columns() {
				switch col.Type {
				case table.Int64:
					if avg, ok := metrics.IntAverage(tbl, col.Name); ok {
						fmt.Printf("  %-24s average = %g\n", col.Name, avg)
					} else {
						fmt.Printf("  %-24s average = (not defined)\n", col.Name)
					}
				case table.Varchar:
					fmt.Printf("  %-24s ascii_bytes = %d\n", col.Name, metrics.AsciiByteCount(tbl, col.Name))
				}
			}
			return nil
		},
	}
}

func readTableFile(path string) (*table.Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer file.Close()

	tbl, err := format.Read(file)
	if err != nil {
		return nil, fmt.Errorf("reading table: %w", err)
	}
	return tbl, nil
}
