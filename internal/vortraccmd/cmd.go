/*
Copyright © 2024 the VORTRAC authors.
This file is part of VORTRAC.

VORTRAC is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

VORTRAC is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with VORTRAC.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package vortraccmd builds the cobra command tree for the vortrac
// binary, the same Root/PersistentPreRunE/viper wiring inmaputil's Cfg
// uses for InMAP (spec §9).
package vortraccmd

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/vortrac/vortrac/internal/analysis"
	"github.com/vortrac/vortrac/internal/atcf"
	"github.com/vortrac/vortrac/internal/center"
	"github.com/vortrac/vortrac/internal/ingest"
	"github.com/vortrac/vortrac/internal/obs"
	"github.com/vortrac/vortrac/internal/pressure"
	"github.com/vortrac/vortrac/internal/radarvolume"
	"github.com/vortrac/vortrac/internal/vortracconfig"
	"github.com/vortrac/vortrac/internal/vortracerr"
	"github.com/vortrac/vortrac/internal/vortraclog"
)

// Version is the build version, set by the linker for release builds.
var Version = "dev"

// Cfg holds the cobra command tree and its backing configuration.
type Cfg struct {
	*vortracconfig.Cfg

	Root, runCmd, replayCmd, versionCmd *cobra.Command
}

// InitializeConfig builds the command tree. Following inmaputil's Cfg
// pattern, Root's PersistentPreRunE reads the --config file into viper
// before any subcommand runs.
func InitializeConfig() *Cfg {
	cfg := &Cfg{Cfg: vortracconfig.New()}

	cfg.Root = &cobra.Command{
		Use:   "vortrac",
		Short: "Real-time single-Doppler tropical cyclone center and intensity tracker.",
		Long: `vortrac watches a directory of radar volumes, estimates each volume's
storm center, radius of maximum wind, tangential wind profile, and
central pressure, and publishes the results as they become available.

Configuration is a file of sections (radar, cappi, center, vtd,
choosecenter, pressure) passed with --config.`,
		DisableAutoGenTag: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return loadConfig(cfg)
		},
	}
	cfg.Root.PersistentFlags().String("config", "", "path to a VORTRAC configuration file")
	cfg.BindPFlag("config", cfg.Root.PersistentFlags().Lookup("config"))

	cfg.versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("vortrac v%s\n", Version)
		},
		DisableAutoGenTag: true,
	}

	cfg.runCmd = &cobra.Command{
		Use:   "run",
		Short: "Watch a radar directory and publish VortexRecords as new volumes arrive.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			return runPipeline(ctx, cfg)
		},
		DisableAutoGenTag: true,
	}

	cfg.replayCmd = &cobra.Command{
		Use:   "replay [vortex-list-file]",
		Short: "Print a previously persisted VortexList.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return replayList(cmd, args[0])
		},
		DisableAutoGenTag: true,
	}

	cfg.Root.AddCommand(cfg.versionCmd, cfg.runCmd, cfg.replayCmd)
	return cfg
}

func loadConfig(cfg *Cfg) error {
	path := cfg.GetString("config")
	if path == "" {
		return nil
	}
	return cfg.LoadFile(path)
}

func replayList(cmd *cobra.Command, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	list, err := analysis.LoadVortexList(f)
	if err != nil {
		return err
	}
	for _, r := range list.Snapshot() {
		if r.Null {
			cmd.Printf("%s: null\n", r.Time.Format("2006-01-02T15:04:05Z"))
			continue
		}
		cmd.Printf("%s: center=(%.3f,%.3f) RMW=%.1fkm\n", r.Time.Format("2006-01-02T15:04:05Z"), r.CenterLat, r.CenterLon, r.RMWKM)
	}
	return nil
}

// runPipeline wires every stage together from the loaded configuration
// and drives the ingest queue until ctx is canceled, mirroring the
// AnalysisDriver contract in spec §4.6.
func runPipeline(ctx context.Context, cfg *Cfg) error {
	log := vortraclog.New()

	radarCfg, err := vortracconfig.BuildRadarConfig(cfg.Cfg)
	if err != nil {
		return err
	}
	gridCfg, err := vortracconfig.GridderConfig(cfg.Cfg)
	if err != nil {
		return err
	}
	simplexCfg, err := vortracconfig.SimplexConfig(cfg.Cfg)
	if err != nil {
		return err
	}
	gbvtdCfg, err := vortracconfig.GBVTDConfig(cfg.Cfg)
	if err != nil {
		return err
	}
	weights, err := vortracconfig.ChooseCenterWeights(cfg.Cfg)
	if err != nil {
		return err
	}
	pressureCfg, err := vortracconfig.PressureConfig(cfg.Cfg)
	if err != nil {
		return err
	}
	dir, window, err := vortracconfig.IngestConfig(cfg.Cfg)
	if err != nil {
		return err
	}

	cfg.WarnUnknownKeys(func(key string) {
		log.Warnf("config", "unrecognized configuration key %q, ignoring", key)
	})

	pub := analysis.NewPublisher()
	pub.Subscribe(analysis.ObserverFunc(func(r analysis.VortexRecord) {
		if r.Null {
			fmt.Printf("%s: null\n", r.Time.Format("2006-01-02T15:04:05Z"))
			return
		}
		fmt.Printf("%s: center=(%.3f,%.3f) RMW=%.1fkm\n", r.Time.Format("2006-01-02T15:04:05Z"), r.CenterLat, r.CenterLon, r.RMWKM)
	}))

	driver := analysis.NewDriver(analysis.Config{
		Grid:     gridCfg,
		Simplex:  simplexCfg,
		GBVTD:    gbvtdCfg,
		Weights:  weights,
		Pressure: pressureCfg,
	}, log, pub)

	var fixes []atcf.Fix
	if atcfPath := cfg.GetString("radar.ATCFFile"); atcfPath != "" {
		f, err := os.Open(atcfPath)
		if err != nil {
			return err
		}
		fixes, err = atcf.ReadBestTrack(f)
		f.Close()
		if err != nil {
			return err
		}
	}

	var obsList []pressure.Observation
	if obsPath := cfg.GetString("pressure.ObservationFile"); obsPath != "" {
		f, err := os.Open(obsPath)
		if err != nil {
			return err
		}
		obsList, err = obs.ReadStream(f)
		f.Close()
		if err != nil {
			return err
		}
	}

	queue := ingest.NewQueue()
	watcher := ingest.NewWatcher(dir, queue, log)
	watcher.Window = window

	aborted := func() bool {
		select {
		case <-ctx.Done():
			return true
		default:
			return false
		}
	}

	// haveGuess/lastX/lastY track the best-guess center across volumes:
	// the first volume is seeded from the nearest ATCF fix (converted to
	// the radar-centered grid coordinates Gridder uses), and every later
	// volume reuses the previous volume's chosen center as its guess.
	var haveGuess bool
	var lastX, lastY float64

	for {
		if aborted() {
			return ctx.Err()
		}
		if err := watcher.PollOnce(ctx); err != nil {
			log.Errorf("ingest", "polling %q: %v", dir, err)
		}
		item, ok := queue.Pop()
		if !ok {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
			}
			continue
		}
		vol, err := radarvolume.NewFromCDF(item.Path, item.RadarID, radarCfg.Lat, radarCfg.Lon, radarCfg.AltKM, item.Time, radarCfg.NumRays, radarCfg.NumGates)
		if err != nil {
			ingestErr := &vortracerr.IngestError{File: item.Path, Err: err}
			log.Warnf("ingest", "%v", ingestErr)
			continue
		}

		if !haveGuess {
			if fix, ok := atcf.NearestBefore(fixes, vol.Time); ok {
				lastX, lastY = latLonToRadarCentered(radarCfg.Lat, radarCfg.Lon, fix.Lat, fix.Lon)
			}
			haveGuess = true
		}
		gx, gy := lastX, lastY
		guessCenter := func(float64) (float64, float64) { return gx, gy }

		rec, err := driver.AnalyzeVolume(vol, guessCenter, center.Track(nil), obsList, aborted)
		if err != nil {
			log.Errorf("driver", "volume %s: %v", vol.Time, err)
			continue
		}
		if !rec.Null {
			lastX, lastY = latLonToRadarCentered(radarCfg.Lat, radarCfg.Lon, rec.CenterLat, rec.CenterLon)
		}
	}
}

// latLonToRadarCentered is the inverse of the equirectangular
// approximation AnalysisDriver uses to report lat/lon, used here to
// seed the best-guess center from an ATCF fix or a prior VortexRecord.
func latLonToRadarCentered(radarLat, radarLon, lat, lon float64) (x, y float64) {
	const kmPerDegreeLat = 111.32
	y = (lat - radarLat) * kmPerDegreeLat
	x = (lon - radarLon) * kmPerDegreeLat * math.Cos(radarLat*math.Pi/180)
	return x, y
}
