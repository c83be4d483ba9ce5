// Command motion-energy converts the ROI motion energy of one IBL session
// camera into a "behavior" time series in a container file.
//
//	motion-energy -session 4b7fbad4-... -camera leftCamera -out session.nwb.db
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/banshee-data/motion-energy/internal/alyx"
	"github.com/banshee-data/motion-energy/internal/config"
	"github.com/banshee-data/motion-energy/internal/monitoring"
	"github.com/banshee-data/motion-energy/internal/motionenergy"
	"github.com/banshee-data/motion-energy/internal/nwb"
	"github.com/banshee-data/motion-energy/internal/nwbfile"
	"github.com/banshee-data/motion-energy/internal/preview"
	"github.com/banshee-data/motion-energy/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		log.Fatalf("motion-energy: %v", err)
	}
}

type options struct {
	configPath string
	session    string
	camera     string
	cacheDir   string
	out        string
	previewPNG string
	chartHTML  string
	verbose    bool
	version    bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	var o options
	fs := flag.NewFlagSet("motion-energy", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.configPath, "config", "", "path to a converter JSON config (optional)")
	fs.StringVar(&o.session, "session", "", "Alyx session UUID (required)")
	fs.StringVar(&o.camera, "camera", "leftCamera", "camera name: leftCamera, rightCamera or bodyCamera")
	fs.StringVar(&o.cacheDir, "cache", "", "download cache directory (default: config cache_dir or the user cache dir)")
	fs.StringVar(&o.out, "out", "", "output container file (required, must not exist)")
	fs.StringVar(&o.previewPNG, "preview", "", "write a PNG plot of the series to this path")
	fs.StringVar(&o.chartHTML, "chart", "", "write an interactive HTML chart of the series to this path")
	fs.BoolVar(&o.verbose, "v", false, "log download progress")
	fs.BoolVar(&o.version, "version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if o.version {
		return &o, nil
	}
	if o.session == "" {
		return nil, fmt.Errorf("-session is required")
	}
	if o.out == "" {
		return nil, fmt.Errorf("-out is required")
	}
	// Checked again by nwbfile.Create; this catches a typo before any download.
	if _, err := os.Stat(o.out); err == nil {
		return nil, fmt.Errorf("-out %s already exists", o.out)
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("-out: %w", err)
	}
	return &o, nil
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	o, err := parseFlags(args, os.Stderr)
	if err != nil {
		return err
	}
	if o.version {
		fmt.Fprintf(stdout, "motion-energy %s\n", version.String())
		return nil
	}

	cfg := config.EmptyConverterConfig()
	if o.configPath != "" {
		if cfg, err = config.LoadConverterConfig(o.configPath); err != nil {
			return err
		}
	}
	ac := cfg.AlyxConfig()
	if o.verbose {
		ac.Silent = false
	}
	if ac.CacheDir, err = resolveCacheDir(o.cacheDir, ac.CacheDir); err != nil {
		return err
	}
	if ac.Silent {
		monitoring.SetLogger(nil)
	}

	client, err := alyx.New(ac)
	if err != nil {
		return err
	}
	conv := motionenergy.NewConverter(client)
	conv.Collection = cfg.GetCollection()

	doc := nwb.NewDocument("IBL session "+o.session, time.Time{}, nil)
	ts, err := conv.Convert(ctx, o.session, o.camera, doc)
	if err != nil {
		return err
	}

	f, err := nwbfile.Create(o.out)
	if err != nil {
		return err
	}
	if err := f.Write(doc); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "wrote %s/%s to %s\n", motionenergy.ModuleName, ts.Name, o.out)
	fmt.Fprintln(stdout, preview.Summarise(ts))

	if o.previewPNG != "" {
		if err := preview.RenderPNG(ts, o.previewPNG); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "plot: %s\n", o.previewPNG)
	}
	if o.chartHTML != "" {
		if err := writeChart(ts, o.chartHTML); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "chart: %s\n", o.chartHTML)
	}
	return nil
}

// resolveCacheDir picks the flag, then the config value, then
// <user cache dir>/motion-energy.
func resolveCacheDir(flagValue, configValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if configValue != "" {
		return configValue, nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("no -cache given and no user cache dir: %w", err)
	}
	return filepath.Join(base, "motion-energy"), nil
}

func writeChart(ts *nwb.TimeSeries, path string) error {
	w, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := preview.RenderHTML(ts, w); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
