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

package analysis

import (
	"math"
	"sync"

	"github.com/ctessum/geom"

	"github.com/vortrac/vortrac/internal/center"
	"github.com/vortrac/vortrac/internal/gbvtd"
	"github.com/vortrac/vortrac/internal/griddedfield"
	"github.com/vortrac/vortrac/internal/gridder"
	"github.com/vortrac/vortrac/internal/pressure"
	"github.com/vortrac/vortrac/internal/radarvolume"
	"github.com/vortrac/vortrac/internal/simplex"
	"github.com/vortrac/vortrac/internal/vortracerr"
	"github.com/vortrac/vortrac/internal/vortraclog"
)

// kmPerDegreeLat approximates the length of one degree of latitude, used
// to convert the grid's radar-centered (x,y) km coordinates back to
// lat/lon for reporting.
const kmPerDegreeLat = 111.32

// GBVTDTuning holds the ring-fit parameters every (radius, height)
// objective evaluation shares for one volume.
type GBVTDTuning struct {
	Closure            gbvtd.Closure
	MaxWave            int
	MaxGapDeg          map[int]float64
	NumAzimuthSamples  int
}

// Config bundles the per-stage configuration AnalysisDriver wires
// together for every volume (spec §4.6).
type Config struct {
	Grid     gridder.Config
	Simplex  simplex.Config
	GBVTD    GBVTDTuning
	Weights  center.Weights
	Pressure pressure.Config
}

// Driver sequences the Gridder, SimplexCenterFinder, CenterChooser, and
// PressureSolver stages for successive volumes of a single storm, and is
// the sole mutator of its VortexList and SimplexList. Everything it
// needs to share across volumes (the previous volume's chosen rings) is
// guarded by mu, since ingest may hand it volumes from a queue drained
// by its own goroutine while observers read the published lists
// concurrently.
type Driver struct {
	cfg       Config
	log       *vortraclog.Logger
	vortices  *VortexList
	simplices *SimplexList
	pub       *Publisher

	mu         sync.Mutex
	prevChosen map[int]center.Chosen
}

// NewDriver constructs a Driver around fresh VortexList/SimplexList and
// the given Publisher.
func NewDriver(cfg Config, log *vortraclog.Logger, pub *Publisher) *Driver {
	return &Driver{
		cfg:       cfg,
		log:       log,
		vortices:  NewVortexList(),
		simplices: NewSimplexList(),
		pub:       pub,
	}
}

// VortexList and SimplexList expose the driver's lists for save/restart
// and for read access by non-observer callers (e.g. command-line replay
// tooling).
func (d *Driver) VortexList() *VortexList   { return d.vortices }
func (d *Driver) SimplexList() *SimplexList { return d.simplices }

// AnalyzeVolume runs the full pipeline on one radar volume and publishes
// the resulting VortexRecord. guessCenter supplies the best-guess center
// (grid km, radar-centered) at a given height, from ATCF on the first
// volume and from track extrapolation afterward. track is the
// best-guess storm track used for CenterChooser's continuity term, and
// may be nil. abort is polled at the (level, ring) and seed boundaries
// described in spec §5; when it returns true mid-search, AnalyzeVolume
// still publishes whatever partial result it can recover rather than
// discarding the volume.
func (d *Driver) AnalyzeVolume(vol *radarvolume.Volume, guessCenter func(height float64) (x, y float64), track center.Track, obs []pressure.Observation, abort func() bool) (VortexRecord, error) {
	if vol.IsNull() {
		d.log.Warnf("driver", "volume %s is null, skipping analysis", vol.Time)
		rec := VortexRecord{Time: vol.Time, Null: true}
		d.vortices.Append(rec)
		d.pub.Publish(rec)
		return rec, nil
	}

	field := gridder.Grid(vol, d.cfg.Grid, d.log)

	records, ok := simplex.Find(d.cfg.Simplex, guessCenter, d.makeRingObjective(field), abort, d.log)
	d.simplices.Append(records)
	cancelled := !ok
	if cancelled {
		d.log.Warnf("driver", "volume %s: %v", vol.Time, &vortracerr.Cancelled{})
	}

	d.mu.Lock()
	prev := d.prevChosen
	d.mu.Unlock()

	result, err := center.Choose(records, d.cfg.Weights, d.cfg.Simplex.RingWidth, d.cfg.Simplex.InnerRadius, prev, track)
	if err != nil {
		d.log.Warnf("driver", "volume %s: no viable center: %v", vol.Time, err)
		rec := VortexRecord{Time: vol.Time, Null: true, Cancelled: cancelled}
		d.vortices.Append(rec)
		d.pub.Publish(rec)
		return rec, nil
	}

	chosenByLevel := make(map[int]center.Chosen, len(result.Chosen))
	for _, c := range result.Chosen {
		chosenByLevel[c.Level] = c
	}
	d.mu.Lock()
	d.prevChosen = chosenByLevel
	d.mu.Unlock()

	profile := d.windProfile(field, result.CenterX, result.CenterY)

	lat, lon := radarCenteredToLatLon(vol.Lat, vol.Lon, result.CenterX, result.CenterY)

	var ringVTs []pressure.RingVT
	for _, p := range profile {
		ringVTs = append(ringVTs, pressure.RingVT{RadiusKM: p.RadiusKM, VT: p.VTC0})
	}
	pcfg := d.cfg.Pressure
	pcfg.CenterLat = lat
	pressureResult := pressure.Solve(ringVTs, lat, lon, vol.Time, obs, pcfg)

	rec := VortexRecord{
		Time:               vol.Time,
		CenterLat:          lat,
		CenterLon:          lon,
		RMWKM:              result.RMW,
		WindProfile:        profile,
		CentralPressureHPa: pressureResult.CentralPressure,
		PressureDeficitHPa: pressureResult.PressureDeficit,
		Cancelled:          cancelled,
	}
	d.vortices.Append(rec)
	d.pub.Publish(rec)
	d.log.Infof("driver", "volume %s: center (%.2f,%.2f) RMW %.1f km", vol.Time, lat, lon, result.RMW)
	return rec, nil
}

// makeRingObjective builds the simplex.RingObjective the search uses to
// evaluate candidate centers. Each call to the returned Objective reads
// field through PolarSampleAt, which takes the candidate center as an
// explicit parameter rather than mutating shared state, so concurrent
// seed evaluations from simplex.Find's worker pool never race (spec §5).
func (d *Driver) makeRingObjective(field *griddedfield.Field) simplex.RingObjective {
	return func(radius, height float64) (simplex.Objective, simplex.OutOfBounds) {
		oob := func(x, y float64) bool {
			i, j, k := field.XYZToIJK(x, y, height)
			return !field.InBounds(i, j, k)
		}
		obj := func(x, y float64) (float64, bool) {
			samples := field.PolarSampleAt(griddedfield.Velocity, x, y, radius, height, d.cfg.GBVTD.NumAzimuthSamples)
			coef, err := fitRing(samples, x, y, radius, height, d.cfg.GBVTD)
			if err != nil {
				return 0, false
			}
			return coef.VTC0, true
		}
		return obj, oob
	}
}

// windProfile runs the final, sequential GBVTDRing fits at the chosen
// center across every radius in the search annulus, at the RMW
// reporting altitude, to build the reported tangential-wind structure.
// Unlike the simplex search's concurrent evaluations, this runs on a
// single goroutine after a winning center has already been picked, so
// it uses the stateful, RefPoint-based PolarSample.
func (d *Driver) windProfile(field *griddedfield.Field, centerX, centerY float64) []WindPoint {
	field.RefPoint = geom.Point{X: centerX, Y: centerY}
	height := d.cfg.Weights.ReferenceAltitude

	var profile []WindPoint
	for r := d.cfg.Simplex.InnerRadius; r <= d.cfg.Simplex.OuterRadius+1e-9; r += d.cfg.Simplex.RingWidth {
		samples := field.PolarSample(griddedfield.Velocity, r, height, d.cfg.GBVTD.NumAzimuthSamples)
		coef, err := fitRing(samples, centerX, centerY, r, height, d.cfg.GBVTD)
		if err != nil {
			failure := &vortracerr.RingFitFailure{Detail: err.Error()}
			d.log.Warnf("gbvtd", "radius %.1fkm: %v", r, failure)
			continue
		}
		profile = append(profile, WindPoint{RadiusKM: r, VTC0: coef.VTC0})
	}
	return profile
}

// fitRing converts a slice of polar samples into a GBVTDRing fit at the
// given candidate center. The radar sits at grid-coordinate origin
// (0,0) because Gridder builds every CAPPI in radar-centered
// coordinates, so RadarOffset is always the zero point.
func fitRing(samples []griddedfield.PolarSample, centerX, centerY, radius, height float64, tuning GBVTDTuning) (*gbvtd.Coefficients, error) {
	vtdSamples := make([]gbvtd.Sample, len(samples))
	for i, s := range samples {
		vtdSamples[i] = gbvtd.Sample{Azimuth: s.Azimuth, Vr: s.Value}
	}
	cfg := gbvtd.Config{
		Closure:   tuning.Closure,
		MaxWave:   tuning.MaxWave,
		Radius:    radius,
		Height:    height,
		MaxGapDeg: tuning.MaxGapDeg,
	}
	cfg.Center.X, cfg.Center.Y = centerX, centerY
	return gbvtd.Fit(vtdSamples, cfg)
}

// radarCenteredToLatLon converts a radar-centered (x,y) km offset back
// to a lat/lon, using an equirectangular approximation anchored at the
// radar's own position (adequate over the tens-of-km span of a single
// CAPPI; spec §4.1 does not require a geodesic-exact inverse).
func radarCenteredToLatLon(radarLat, radarLon, x, y float64) (lat, lon float64) {
	lat = radarLat + y/kmPerDegreeLat
	lon = radarLon + x/(kmPerDegreeLat*math.Cos(radarLat*math.Pi/180))
	return lat, lon
}
