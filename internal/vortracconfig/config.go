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

// Package vortracconfig loads the hierarchical run configuration
// (sections radar, cappi, center, vtd, choosecenter, pressure) the way
// inmaputil's Cfg type loads InMAP's, via a viper.Viper wrapped with
// section builders that translate into each stage's native Config type
// (spec §9).
package vortracconfig

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lnashier/viper"
	"github.com/spf13/cast"

	"github.com/vortrac/vortrac/internal/analysis"
	"github.com/vortrac/vortrac/internal/center"
	"github.com/vortrac/vortrac/internal/gbvtd"
	"github.com/vortrac/vortrac/internal/gridder"
	"github.com/vortrac/vortrac/internal/ingest"
	"github.com/vortrac/vortrac/internal/pressure"
	"github.com/vortrac/vortrac/internal/simplex"
	"github.com/vortrac/vortrac/internal/vortracerr"
)

// Cfg wraps a viper.Viper the way inmaputil.Cfg does, with the
// VORTRAC-specific section builders hung off it.
type Cfg struct {
	*viper.Viper
}

// New returns an empty Cfg; defaults are filled in by the section
// builders below, not by viper.SetDefault, so that a missing required
// key is always caught explicitly rather than silently defaulting.
func New() *Cfg {
	return &Cfg{Viper: viper.New()}
}

// LoadFile reads path as the active configuration file. Unknown keys are
// not an error here; warn-on-unknown is the caller's job once it knows
// which sections it actually consumes (see WarnUnknownKeys).
func (c *Cfg) LoadFile(path string) error {
	c.SetConfigFile(path)
	if err := c.ReadInConfig(); err != nil {
		return &vortracerr.ConfigError{Key: path, Err: err}
	}
	return nil
}

// WarnUnknownKeys logs, via warn, any top-level section in the loaded
// config that isn't one of the recognized sections.
func (c *Cfg) WarnUnknownKeys(warn func(key string)) {
	known := map[string]bool{
		"radar": true, "cappi": true, "center": true,
		"vtd": true, "choosecenter": true, "pressure": true,
		"config": true,
	}
	for _, k := range c.AllKeys() {
		section := strings.SplitN(k, ".", 2)[0]
		if !known[section] {
			warn(k)
		}
	}
}

func requireFloat(c *Cfg, key string) (float64, error) {
	if !c.IsSet(key) {
		return 0, &vortracerr.ConfigError{Key: key, Err: fmt.Errorf("required configuration key is missing")}
	}
	return c.GetFloat64(key), nil
}

func requireInt(c *Cfg, key string) (int, error) {
	if !c.IsSet(key) {
		return 0, &vortracerr.ConfigError{Key: key, Err: fmt.Errorf("required configuration key is missing")}
	}
	return c.GetInt(key), nil
}

func requireString(c *Cfg, key string) (string, error) {
	v := c.GetString(key)
	if v == "" {
		return "", &vortracerr.ConfigError{Key: key, Err: fmt.Errorf("required configuration key is missing")}
	}
	return v, nil
}

// RadarConfig is the fixed radar-site metadata NewFromCDF needs to build
// a Volume out of the narrow NetCDF convention.
type RadarConfig struct {
	Lat, Lon, AltKM    float64
	NumRays, NumGates  int
}

// BuildRadarConfig reads the radar-site metadata from the "radar"
// section.
func BuildRadarConfig(c *Cfg) (RadarConfig, error) {
	var r RadarConfig
	floatKeys := map[string]*float64{"radar.Lat": &r.Lat, "radar.Lon": &r.Lon, "radar.AltKM": &r.AltKM}
	for key, dst := range floatKeys {
		v, err := requireFloat(c, key)
		if err != nil {
			return r, err
		}
		*dst = v
	}
	numRays, err := requireInt(c, "radar.NumRays")
	if err != nil {
		return r, err
	}
	r.NumRays = numRays
	numGates, err := requireInt(c, "radar.NumGates")
	if err != nil {
		return r, err
	}
	r.NumGates = numGates
	return r, nil
}

// IngestConfig builds the directory to watch and its admission window
// from the "radar" section.
func IngestConfig(c *Cfg) (dir string, window ingest.Window, err error) {
	dir, err = requireString(c, "radar.Directory")
	if err != nil {
		return "", ingest.Window{}, err
	}
	var start, end time.Time
	if s := c.GetString("radar.WindowStart"); s != "" {
		start, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return "", ingest.Window{}, &vortracerr.ConfigError{Key: "radar.WindowStart", Err: err}
		}
	}
	if s := c.GetString("radar.WindowEnd"); s != "" {
		end, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return "", ingest.Window{}, &vortracerr.ConfigError{Key: "radar.WindowEnd", Err: err}
		}
	}
	return dir, ingest.Window{Start: start, End: end}, nil
}

// GridderConfig builds a gridder.Config from the "cappi" and "radar"
// sections.
func GridderConfig(c *Cfg) (gridder.Config, error) {
	var g gridder.Config
	keys := map[string]*int{"cappi.IDim": &g.IDim, "cappi.JDim": &g.JDim, "cappi.KDim": &g.KDim}
	for key, dst := range keys {
		v, err := requireInt(c, key)
		if err != nil {
			return g, err
		}
		*dst = v
	}
	floatKeys := map[string]*float64{
		"cappi.ISp": &g.ISp, "cappi.JSp": &g.JSp, "cappi.KSp": &g.KSp,
		"cappi.Xmin": &g.Xmin, "cappi.Ymin": &g.Ymin, "cappi.Zmin": &g.Zmin,
	}
	for key, dst := range floatKeys {
		v, err := requireFloat(c, key)
		if err != nil {
			return g, err
		}
		*dst = v
	}
	return g, nil
}

// SimplexConfig builds a simplex.Config from the "center" section.
func SimplexConfig(c *Cfg) (simplex.Config, error) {
	var s simplex.Config
	floatKeys := map[string]*float64{
		"center.BottomLevel": &s.BottomLevel, "center.TopLevel": &s.TopLevel,
		"center.InnerRadius": &s.InnerRadius, "center.OuterRadius": &s.OuterRadius,
		"center.RingWidth": &s.RingWidth, "center.BoxDiameter": &s.BoxDiameter,
		"center.RadiusOfInfluence": &s.RadiusOfInfluence, "center.ConvergenceTol": &s.ConvergenceTol,
	}
	for key, dst := range floatKeys {
		v, err := requireFloat(c, key)
		if err != nil {
			return s, err
		}
		*dst = v
	}
	n, err := requireInt(c, "center.NumPoints")
	if err != nil {
		return s, err
	}
	s.NumPoints = n
	iters, err := requireInt(c, "center.MaxIterations")
	if err != nil {
		return s, err
	}
	s.MaxIterations = iters
	return s, nil
}

// GBVTDConfig builds an analysis.GBVTDTuning from the "vtd" section.
func GBVTDConfig(c *Cfg) (analysis.GBVTDTuning, error) {
	var t analysis.GBVTDTuning
	closureStr := c.GetString("vtd.Closure")
	switch strings.ToLower(closureStr) {
	case "", "original":
		t.Closure = gbvtd.Original
	case "zerovtc2":
		t.Closure = gbvtd.ZeroVTC2
	case "zerovtc2andvrs1":
		t.Closure = gbvtd.ZeroVTC2AndVRS1
	default:
		return t, &vortracerr.ConfigError{Key: "vtd.Closure", Err: fmt.Errorf("unrecognized closure assumption %q", closureStr)}
	}
	maxWave, err := requireInt(c, "vtd.MaxWave")
	if err != nil {
		return t, err
	}
	t.MaxWave = maxWave
	samples, err := requireInt(c, "vtd.NumAzimuthSamples")
	if err != nil {
		return t, err
	}
	t.NumAzimuthSamples = samples

	raw := cast.ToStringMap(c.Get("vtd.MaxGapDeg"))
	t.MaxGapDeg = make(map[int]float64, len(raw))
	for k, v := range raw {
		n, err := strconv.Atoi(k)
		if err != nil {
			return t, &vortracerr.ConfigError{Key: "vtd.MaxGapDeg." + k, Err: err}
		}
		t.MaxGapDeg[n] = cast.ToFloat64(v)
	}
	return t, nil
}

// ChooseCenterWeights builds center.Weights from the "choosecenter" and
// "center" sections (the latter for BottomLevel, shared with the
// simplex lattice).
func ChooseCenterWeights(c *Cfg) (center.Weights, error) {
	var w center.Weights
	floatKeys := map[string]*float64{
		"choosecenter.WStd": &w.WStd, "choosecenter.WCount": &w.WCount,
		"choosecenter.WVT": &w.WVT, "choosecenter.WPeak": &w.WPeak,
		"choosecenter.WPersistence": &w.WPersistence,
		"choosecenter.LowerFitLevel": &w.LowerFitLevel, "choosecenter.UpperFitLevel": &w.UpperFitLevel,
		"choosecenter.ReferenceAltitude": &w.ReferenceAltitude,
	}
	for key, dst := range floatKeys {
		v, err := requireFloat(c, key)
		if err != nil {
			return w, err
		}
		*dst = v
	}
	bottom, err := requireFloat(c, "center.BottomLevel")
	if err != nil {
		return w, err
	}
	w.BottomLevel = bottom
	return w, nil
}

// PressureConfig builds a pressure.Config from the "pressure" section.
func PressureConfig(c *Cfg) (pressure.Config, error) {
	var p pressure.Config
	p.Rho = c.GetFloat64("pressure.Rho") // 0 means use the package default
	radialExtent, err := requireFloat(c, "pressure.RadialExtentKM")
	if err != nil {
		return p, err
	}
	p.RadialExtentKM = radialExtent
	windowMinutes, err := requireFloat(c, "pressure.TimeWindowMinutes")
	if err != nil {
		return p, err
	}
	p.TimeWindow = time.Duration(windowMinutes * float64(time.Minute))
	p.ClimatologyHPa = c.GetFloat64("pressure.ClimatologyHPa")
	return p, nil
}
