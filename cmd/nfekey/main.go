package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/zepa1/nfekey/internal/capture"
	"github.com/zepa1/nfekey/internal/config"
	"github.com/zepa1/nfekey/internal/journal"
	"github.com/zepa1/nfekey/internal/logging"
	"github.com/zepa1/nfekey/internal/scanner"
	"github.com/zepa1/nfekey/internal/store"
	"github.com/zepa1/nfekey/internal/web"
)

var cfgFile string

func main() {
	root := &cobra.Command{
		Use:   "nfekey",
		Short: "Collect NFe access keys from fiscal receipt QR codes",
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $NFEKEY_CONFIG or ./nfekey.yaml)")

	root.AddCommand(serveCmd())
	root.AddCommand(scanCmd())
	root.AddCommand(processCmd())
	root.AddCommand(listCmd())
	root.AddCommand(exportCmd())
	root.AddCommand(clearCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// openAll builds the store, journal, logger and scanner from config.
func openAll(cfg *config.Config) (*store.Store, *journal.Journal, *logging.Logger, *scanner.Scanner, error) {
	st, err := store.Open(cfg.StoreFile)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	jn, err := journal.Open(cfg.JournalFile)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	lg, err := logging.New(cfg.LogFile)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	return st, jn, lg, scanner.New(st, jn, lg), nil
}

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the browser UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Listen = addr
			}
			st, jn, lg, sc, err := openAll(cfg)
			if err != nil {
				return err
			}
			defer lg.Close()

			srv := &web.Server{
				Scanner: sc,
				Store:   st,
				Journal: jn,
				Log:     lg,
				Metrics: cfg.Metrics.MetricsEnabled(),
			}
			httpSrv := &http.Server{Addr: cfg.Listen, Handler: web.NewRouter(srv)}

			go func() {
				log.Printf("Server running on %s", cfg.Listen)
				if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal(err)
				}
			}()

			waitForSignal()
			return httpSrv.Close()
		},
	}

	cmd.Flags().StringVar(&addr, "listen", "", "listen address (overrides config)")
	return cmd
}

func scanCmd() *cobra.Command {
	var (
		device   string
		interval time.Duration
		once     bool
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan QR codes from a local webcam until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			if device != "" {
				cfg.Webcam.Device = device
			}
			if interval != 0 {
				cfg.Webcam.Interval = interval
			}
			_, _, lg, sc, err := openAll(cfg)
			if err != nil {
				return err
			}
			defer lg.Close()

			src, err := capture.OpenWebcam(cfg.Webcam.Device, cfg.Webcam.Width, cfg.Webcam.Height)
			if err != nil {
				return err
			}
			defer src.Close()

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
			fmt.Printf("scanning %s every %s, Ctrl-C to stop\n", cfg.Webcam.Device, cfg.Webcam.Interval)

			ticker := time.NewTicker(cfg.Webcam.Interval)
			defer ticker.Stop()
			for {
				select {
				case <-stop:
					return nil
				case <-ticker.C:
					img, err := src.Grab()
					if err != nil {
						lg.Errorf("grab frame: %v", err)
						continue
					}
					results, err := sc.ProcessImage("webcam", img)
					if err != nil {
						fmt.Fprintln(os.Stderr, err)
						continue
					}
					printResults(results)
					if once && len(results) > 0 {
						return nil
					}
				}
			}
		},
	}

	cmd.Flags().StringVar(&device, "device", "", "V4L2 device (overrides config)")
	cmd.Flags().DurationVar(&interval, "interval", 0, "capture interval (overrides config)")
	cmd.Flags().BoolVar(&once, "once", false, "stop after the first decoded frame")
	return cmd
}

func processCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process <image>...",
		Short: "Extract access keys from image files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			_, _, lg, sc, err := openAll(cfg)
			if err != nil {
				return err
			}
			defer lg.Close()

			for _, path := range args {
				img, err := capture.File(path)
				if err != nil {
					fmt.Fprintln(os.Stderr, err)
					continue
				}
				results, err := sc.ProcessImage("file", img)
				if err != nil {
					fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
					continue
				}
				fmt.Printf("%s:\n", path)
				printResults(results)
			}
			return nil
		},
	}
	return cmd
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print collected access keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			st, err := store.Open(cfg.StoreFile)
			if err != nil {
				return err
			}
			recs := st.All()
			fmt.Printf("%d access keys in %s\n", len(recs), st.Path())
			for _, r := range recs {
				fmt.Printf("%s  %s\n", r.AccessKey, r.Timestamp.Format(store.TimeLayout))
			}
			return nil
		},
	}
}

func exportCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the store as CSV to stdout or a file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			st, err := store.Open(cfg.StoreFile)
			if err != nil {
				return err
			}
			if out == "" {
				return st.Export(os.Stdout)
			}
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			defer f.Close()
			return st.Export(f)
		},
	}

	cmd.Flags().StringVarP(&out, "output", "o", "", "destination file (default: stdout)")
	return cmd
}

func clearCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove all collected keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear the store without --yes")
			}
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			st, err := store.Open(cfg.StoreFile)
			if err != nil {
				return err
			}
			n := st.Count()
			if err := st.Clear(); err != nil {
				return err
			}
			fmt.Printf("removed %d records\n", n)
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion")
	return cmd
}

func printResults(results []scanner.Result) {
	for _, r := range results {
		switch r.Status {
		case scanner.StatusSaved:
			fmt.Printf("  saved      %s\n", r.AccessKey)
		case scanner.StatusDuplicate:
			fmt.Printf("  duplicate  %s\n", r.AccessKey)
		case scanner.StatusNoKey:
			fmt.Println("  payload has no access key")
		}
	}
}

func waitForSignal() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
}
