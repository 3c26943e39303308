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

package vortracconfig

import (
	"testing"

	"github.com/vortrac/vortrac/internal/gbvtd"
)

func radarFilledCfg() *Cfg {
	c := New()
	c.Set("radar.Lat", 25.6)
	c.Set("radar.Lon", -80.4)
	c.Set("radar.AltKM", 0.004)
	c.Set("radar.NumRays", 360)
	c.Set("radar.NumGates", 920)
	return c
}

func TestBuildRadarConfigReadsAllKeys(t *testing.T) {
	c := radarFilledCfg()
	r, err := BuildRadarConfig(c)
	if err != nil {
		t.Fatalf("BuildRadarConfig: %v", err)
	}
	if r.Lat != 25.6 || r.Lon != -80.4 || r.NumRays != 360 || r.NumGates != 920 {
		t.Errorf("RadarConfig = %+v, want the configured values", r)
	}
}

func TestBuildRadarConfigMissingKeyErrors(t *testing.T) {
	c := New()
	c.Set("radar.Lat", 25.6)
	if _, err := BuildRadarConfig(c); err == nil {
		t.Fatal("BuildRadarConfig with missing radar.Lon: want error, got nil")
	}
}

func TestGridderConfigReadsIntAndFloatKeys(t *testing.T) {
	c := New()
	c.Set("cappi.IDim", 41)
	c.Set("cappi.JDim", 41)
	c.Set("cappi.KDim", 15)
	c.Set("cappi.ISp", 1.0)
	c.Set("cappi.JSp", 1.0)
	c.Set("cappi.KSp", 1.0)
	c.Set("cappi.Xmin", -20.0)
	c.Set("cappi.Ymin", -20.0)
	c.Set("cappi.Zmin", 0.0)

	g, err := GridderConfig(c)
	if err != nil {
		t.Fatalf("GridderConfig: %v", err)
	}
	if g.IDim != 41 || g.KDim != 15 || g.ISp != 1.0 || g.Xmin != -20.0 {
		t.Errorf("gridder.Config = %+v, want the configured values", g)
	}
}

func TestGBVTDConfigDefaultClosureIsOriginal(t *testing.T) {
	c := New()
	c.Set("vtd.MaxWave", 2)
	c.Set("vtd.NumAzimuthSamples", 36)
	c.Set("vtd.MaxGapDeg", map[string]interface{}{"0": 60.0, "1": 60.0})

	tuning, err := GBVTDConfig(c)
	if err != nil {
		t.Fatalf("GBVTDConfig: %v", err)
	}
	if tuning.Closure != gbvtd.Original {
		t.Errorf("Closure = %v, want Original when vtd.Closure is unset", tuning.Closure)
	}
	if tuning.MaxGapDeg[0] != 60.0 || tuning.MaxGapDeg[1] != 60.0 {
		t.Errorf("MaxGapDeg = %v, want {0:60, 1:60}", tuning.MaxGapDeg)
	}
}

func TestGBVTDConfigUnrecognizedClosureErrors(t *testing.T) {
	c := New()
	c.Set("vtd.Closure", "bogus")
	c.Set("vtd.MaxWave", 2)
	c.Set("vtd.NumAzimuthSamples", 36)
	c.Set("vtd.MaxGapDeg", map[string]interface{}{"0": 60.0})
	if _, err := GBVTDConfig(c); err == nil {
		t.Fatal("GBVTDConfig with an unrecognized closure: want error, got nil")
	}
}

func TestGBVTDConfigZeroVTC2(t *testing.T) {
	c := New()
	c.Set("vtd.Closure", "ZeroVTC2")
	c.Set("vtd.MaxWave", 2)
	c.Set("vtd.NumAzimuthSamples", 36)
	c.Set("vtd.MaxGapDeg", map[string]interface{}{"0": 60.0})
	tuning, err := GBVTDConfig(c)
	if err != nil {
		t.Fatalf("GBVTDConfig: %v", err)
	}
	if tuning.Closure != gbvtd.ZeroVTC2 {
		t.Errorf("Closure = %v, want ZeroVTC2", tuning.Closure)
	}
}

func TestPressureConfigZeroRhoMeansPackageDefault(t *testing.T) {
	c := New()
	c.Set("pressure.RadialExtentKM", 50.0)
	c.Set("pressure.TimeWindowMinutes", 30.0)
	p, err := PressureConfig(c)
	if err != nil {
		t.Fatalf("PressureConfig: %v", err)
	}
	if p.Rho != 0 {
		t.Errorf("Rho = %v, want 0 (package default applies at Solve time)", p.Rho)
	}
	if p.TimeWindow.Minutes() != 30 {
		t.Errorf("TimeWindow = %v, want 30m", p.TimeWindow)
	}
}

func TestIngestConfigParsesWindowBounds(t *testing.T) {
	c := New()
	c.Set("radar.Directory", "/data/radar")
	c.Set("radar.WindowStart", "2005-08-25T06:00:00Z")
	c.Set("radar.WindowEnd", "2005-08-25T07:00:00Z")

	dir, window, err := IngestConfig(c)
	if err != nil {
		t.Fatalf("IngestConfig: %v", err)
	}
	if dir != "/data/radar" {
		t.Errorf("dir = %q, want /data/radar", dir)
	}
	if window.Start.IsZero() || window.End.IsZero() {
		t.Errorf("window = %+v, want both bounds parsed", window)
	}
}

func TestIngestConfigMissingDirectoryErrors(t *testing.T) {
	c := New()
	if _, _, err := IngestConfig(c); err == nil {
		t.Fatal("IngestConfig with no radar.Directory: want error, got nil")
	}
}

func TestWarnUnknownKeysFlagsOnlyUnrecognizedSections(t *testing.T) {
	c := New()
	c.Set("radar.Lat", 25.6)
	c.Set("bogus.Setting", 1)

	var warned []string
	c.WarnUnknownKeys(func(key string) { warned = append(warned, key) })

	if len(warned) != 1 || warned[0] != "bogus.Setting" {
		t.Errorf("warned = %v, want exactly [bogus.Setting]", warned)
	}
}
