package anomaly

import (
	"math"
	"testing"
	"time"

	"arguxai/internal/core/conversion"
	perr "arguxai/internal/platform/errors"
	kit "arguxai/internal/platform/testkit"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func sample(sessions, converted int) conversion.Sample {
	return conversion.Sample{FunnelStep: "login_form", Sessions: sessions, Converted: converted}
}

func TestScenarios(t *testing.T) {
	th := DefaultThresholds()
	cases := []struct {
		name     string
		base     conversion.Sample
		recent   conversion.Sample
		reason   Reason
		severity Severity
		drop     float64
	}{
		{"A large significant drop", sample(1000, 850), sample(1000, 450), ReasonAnomaly, SeverityHigh, 47.0588},
		{"B below min sample", sample(50, 40), sample(50, 20), ReasonInsufficientData, "", 0},
		{"C tiny drop", sample(500, 100), sample(500, 98), ReasonDropBelowThreshold, "", 2},
		{"D total collapse", sample(200, 100), sample(200, 0), ReasonAnomaly, SeverityCritical, 100},
		{"improvement", sample(1000, 400), sample(1000, 600), ReasonNoDrop, "", 0},
		{"flat", sample(1000, 400), sample(1000, 400), ReasonNoDrop, "", 0},
		{"no recent data", sample(1000, 400), sample(0, 0), ReasonInsufficientData, "", 0},
		{"zero baseline rate", sample(1000, 0), sample(1000, 0), ReasonNoDrop, "", 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := Evaluate(tc.base, tc.recent, th, now)
			if d.Reason != tc.reason {
				t.Fatalf("reason = %s, want %s (decision %+v)", d.Reason, tc.reason, d)
			}
			if tc.reason != ReasonAnomaly {
				if d.Anomaly != nil {
					t.Fatalf("unexpected anomaly %+v", d.Anomaly)
				}
				if tc.drop != 0 {
					kit.MustNear(t, "drop", d.DropPercent, tc.drop, 1e-6)
				}
				return
			}
			a := d.Anomaly
			if a == nil || !d.Escalate() {
				t.Fatalf("expected anomaly")
			}
			if a.Severity != tc.severity {
				t.Fatalf("severity = %s, want %s", a.Severity, tc.severity)
			}
			kit.MustNear(t, "drop", a.DropPercent, tc.drop, 1e-3)
			if !a.IsSignificant || a.Sigma < th.SigmaThreshold {
				t.Fatalf("anomaly not significant: %+v", a)
			}
			if !a.DetectedAt.Equal(now) || a.FunnelStep != "login_form" {
				t.Fatalf("anomaly identity = %+v", a)
			}
		})
	}
}

func TestScenarioASigma(t *testing.T) {
	d := Evaluate(sample(1000, 850), sample(1000, 450), DefaultThresholds(), now)
	// unpooled SE = sqrt(.85*.15/1000 + .45*.55/1000)
	want := 0.40 / math.Sqrt(0.1275/1000+0.2475/1000)
	kit.MustNear(t, "sigma", d.Sigma, want, 1e-9)
	if d.Sigma < 18 || d.Sigma > 22 {
		t.Fatalf("sigma %v out of the expected range", d.Sigma)
	}
}

func TestNoisyLargeDropIsSuppressed(t *testing.T) {
	th := DefaultThresholds()
	th.MinSampleSize = 5
	th.SigmaThreshold = 3
	// 60% -> 40% on 10 sessions each: big drop, weak evidence
	d := Evaluate(sample(10, 6), sample(10, 4), th, now)
	if d.Reason != ReasonNotSignificant || d.Escalate() {
		t.Fatalf("decision = %+v", d)
	}
}

func TestAllGatesPassMeansAnomaly(t *testing.T) {
	th := DefaultThresholds()
	for n := th.MinSampleSize; n <= 2000; n += 150 {
		for base := 30; base <= 95; base += 13 {
			for recent := 0; recent < base; recent += 7 {
				b := sample(n, n*base/100)
				r := sample(n, n*recent/100)
				d := Evaluate(b, r, th, now)
				if d.DropPercent >= th.MinDropPercent && d.Sigma >= th.SigmaThreshold && !d.Escalate() {
					t.Fatalf("n=%d base=%d recent=%d: gates pass but no anomaly (%+v)", n, base, recent, d)
				}
				if d.Escalate() && (d.DropPercent < th.MinDropPercent || d.Sigma < th.SigmaThreshold) {
					t.Fatalf("n=%d base=%d recent=%d: anomaly without both gates (%+v)", n, base, recent, d)
				}
			}
		}
	}
}

func TestSigmaSignSymmetry(t *testing.T) {
	pairs := [][4]float64{{0.85, 1000, 0.45, 1000}, {0.2, 500, 0.196, 500}, {0.5, 200, 0, 200}, {0.1, 30, 0.9, 70}}
	for _, p := range pairs {
		a, okA := Sigma(p[0], int(p[1]), p[2], int(p[3]))
		b, okB := Sigma(p[2], int(p[3]), p[0], int(p[1]))
		if !okA || !okB {
			t.Fatalf("%v: expected computable sigma", p)
		}
		kit.MustNear(t, "sigma symmetry", a, -b, 1e-12)
	}
}

func TestSigmaMonotonicInGap(t *testing.T) {
	const n = 400
	prev := math.Inf(-1)
	for gap := 0.0; gap <= 0.5; gap += 0.01 {
		s, ok := Sigma(0.6, n, 0.6-gap, n)
		if !ok {
			t.Fatalf("gap %v: not computable", gap)
		}
		if s < prev {
			t.Fatalf("sigma decreased at gap %v: %v < %v", gap, s, prev)
		}
		prev = s
	}
}

func TestSigmaDegenerate(t *testing.T) {
	if _, ok := Sigma(0, 100, 0, 100); ok {
		t.Fatalf("zero variance should not be computable")
	}
	if _, ok := Sigma(1, 100, 1, 100); ok {
		t.Fatalf("unit proportions should not be computable")
	}
	if se := StdErr(0.5, 0, 0.5, 10); se != 0 {
		t.Fatalf("empty sample SE = %v", se)
	}
	if DropPercent(0, 0) != 0 {
		t.Fatalf("zero base drop should be 0")
	}
}

func TestSeverityBands(t *testing.T) {
	cases := map[float64]Severity{
		0: SeverityLow, 19.99: SeverityLow, 20: SeverityMedium, 39.9: SeverityMedium,
		40: SeverityHigh, 59.99: SeverityHigh, 60: SeverityCritical, 100: SeverityCritical,
	}
	for drop, want := range cases {
		if got := SeverityFor(drop); got != want {
			t.Fatalf("SeverityFor(%v) = %s, want %s", drop, got, want)
		}
	}

	rank := map[Severity]int{SeverityLow: 0, SeverityMedium: 1, SeverityHigh: 2, SeverityCritical: 3}
	last := 0
	for d := 0.0; d <= 100; d += 0.5 {
		r := rank[SeverityFor(d)]
		if r < last {
			t.Fatalf("severity not monotonic at %v", d)
		}
		last = r
	}
}

func TestThresholdsValidate(t *testing.T) {
	if err := DefaultThresholds().Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	mut := []func(*Thresholds){
		func(t *Thresholds) { t.MinDropPercent = 0 },
		func(t *Thresholds) { t.MinDropPercent = math.NaN() },
		func(t *Thresholds) { t.MinSampleSize = -1 },
		func(t *Thresholds) { t.SigmaThreshold = 0 },
		func(t *Thresholds) { t.CooldownMinutes = 0 },
		func(t *Thresholds) { t.Bands = Bands{Medium: 40, High: 20, Critical: 60} },
	}
	for i, m := range mut {
		th := DefaultThresholds()
		m(&th)
		if err := th.Validate(); !perr.IsCode(err, perr.ErrorCodeConfiguration) {
			t.Fatalf("case %d: err = %v", i, err)
		}
	}
	if DefaultThresholds().Cooldown() != 5*time.Minute {
		t.Fatalf("cooldown duration")
	}
}
