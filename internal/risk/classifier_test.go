package risk

import (
	"testing"

	"github.com/jaswa1/arbitrary-rage/internal/config"
	"github.com/jaswa1/arbitrary-rage/internal/models"
)

func testClassifier() *Classifier {
	return NewClassifier(config.RiskConfig{
		LowConfidenceFloor:    0.8,
		LowMarginFloorPct:     50,
		MediumConfidenceFloor: 0.6,
		MediumMarginFloorPct:  30,
	})
}

func TestClassify_Table(t *testing.T) {
	c := testClassifier()
	cases := []struct {
		name       string
		confidence float64
		marginPct  float64
		want       string
	}{
		{"both low floors met", 0.85, 60, models.RiskLow},
		{"exactly on low floors", 0.8, 50, models.RiskLow},
		{"confidence high margin short", 0.9, 40, models.RiskMedium},
		{"margin high confidence short", 0.7, 80, models.RiskMedium},
		{"exactly on medium floors", 0.6, 30, models.RiskMedium},
		{"confidence below medium", 0.5, 90, models.RiskHigh},
		{"margin below medium", 0.95, 20, models.RiskHigh},
		{"both below", 0.1, 5, models.RiskHigh},
	}
	for _, tc := range cases {
		if got := c.Classify(tc.confidence, tc.marginPct); got != tc.want {
			t.Fatalf("%s: Classify(%v, %v)=%s want=%s", tc.name, tc.confidence, tc.marginPct, got, tc.want)
		}
	}
}

func TestClassify_Deterministic(t *testing.T) {
	c := testClassifier()
	first := c.Classify(0.75, 45)
	for i := 0; i < 100; i++ {
		if got := c.Classify(0.75, 45); got != first {
			t.Fatalf("classification changed between calls: %s vs %s", got, first)
		}
	}
}
