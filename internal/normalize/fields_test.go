package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oknozoka/asanasync/internal/asana"
	"github.com/oknozoka/asanasync/internal/config"
)

func fptr(v float64) *float64 { return &v }

func defaultOpts() Options {
	return Options{RateFormula: config.RateDivide}
}

func TestNormalize_UnitInference(t *testing.T) {
	tests := []struct {
		name          string
		fields        []asana.CustomField
		wantEstimated *float64
		wantActual    *float64
	}{
		{
			name: "numeric estimate stays in minutes",
			fields: []asana.CustomField{
				{Name: "Estimated time", NumberValue: fptr(90)},
			},
			wantEstimated: fptr(90),
		},
		{
			name: "hour marker in actual text converts",
			fields: []asana.CustomField{
				{Name: "実績時間", TextValue: "2h"},
			},
			wantActual: fptr(120),
		},
		{
			name: "raw actual minutes kept as-is",
			fields: []asana.CustomField{
				{Name: "actual_time_raw", NumberValue: fptr(45)},
			},
			wantActual: fptr(45),
		},
		{
			name: "japanese hour marker in estimate",
			fields: []asana.CustomField{
				{Name: "見積もり", TextValue: "1.5時間"},
			},
			wantEstimated: fptr(90),
		},
		{
			name: "minute marker kept",
			fields: []asana.CustomField{
				{Name: "Estimated time", TextValue: "30分"},
			},
			wantEstimated: fptr(30),
		},
		{
			name: "min marker kept",
			fields: []asana.CustomField{
				{Name: "tracked time", DisplayValue: "45 min"},
			},
			wantActual: fptr(45),
		},
		{
			name: "hours-denominated actual name multiplies",
			fields: []asana.CustomField{
				{Name: "Actual hours", NumberValue: fptr(2)},
			},
			wantActual: fptr(120),
		},
		{
			name: "enum payload is parsed",
			fields: []asana.CustomField{
				{Name: "Estimate", EnumValue: &asana.EnumValue{Name: "2h"}},
			},
			wantEstimated: fptr(120),
		},
		{
			name: "unrelated fields ignored",
			fields: []asana.CustomField{
				{Name: "Priority", NumberValue: fptr(3)},
				{Name: "Sprint", TextValue: "24Q2"},
			},
		},
		{
			name: "first match wins within a category",
			fields: []asana.CustomField{
				{Name: "Estimated time", NumberValue: fptr(60)},
				{Name: "estimate", NumberValue: fptr(999)},
			},
			wantEstimated: fptr(60),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.fields, defaultOpts())
			assert.Equal(t, tt.wantEstimated, got.EstimatedMinutes)
			assert.Equal(t, tt.wantActual, got.ActualMinutes)
		})
	}
}

func TestNormalize_MalformedFieldsSkipped(t *testing.T) {
	fields := []asana.CustomField{
		{Name: "Estimated time", TextValue: "unknown"},
		{Name: "Estimated time", TextValue: ""},
		{Name: "Estimated time", NumberValue: fptr(25)},
		{Name: "実績", TextValue: "---"},
	}

	got := Normalize(fields, defaultOpts())
	assert.Equal(t, fptr(25), got.EstimatedMinutes)
	assert.Nil(t, got.ActualMinutes, "no usable actual value must stay nil, never zero")
}

func TestNormalize_AchievementRateFallback(t *testing.T) {
	tests := []struct {
		name       string
		estimated  float64
		rate       float64
		wantActual *float64
	}{
		{name: "ratio divides", estimated: 120, rate: 1.5, wantActual: fptr(80)},
		{name: "percentage normalized then divides", estimated: 120, rate: 75, wantActual: fptr(160)},
		{name: "zero rate leaves actual nil", estimated: 120, rate: 0},
		{name: "negative rate invalid", estimated: 120, rate: -2},
		{name: "absurd rate invalid", estimated: 120, rate: 5000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := []asana.CustomField{
				{Name: "Estimated time", NumberValue: fptr(tt.estimated)},
				{Name: "時間達成率", NumberValue: fptr(tt.rate)},
			}
			got := Normalize(fields, defaultOpts())
			assert.Equal(t, tt.wantActual, got.ActualMinutes)
		})
	}
}

// The two parser revisions in the workspace history disagree on whether the
// rate fallback multiplies or divides. Both formulas are therefore exposed
// as a config choice, and both are pinned down here.
func TestNormalize_RateFallbackFormula(t *testing.T) {
	fields := []asana.CustomField{
		{Name: "Estimated time", NumberValue: fptr(120)},
		{Name: "時間達成率", NumberValue: fptr(1.5)},
	}

	divided := Normalize(fields, Options{RateFormula: config.RateDivide})
	assert.Equal(t, fptr(80), divided.ActualMinutes)

	multiplied := Normalize(fields, Options{RateFormula: config.RateMultiply})
	assert.Equal(t, fptr(180), multiplied.ActualMinutes)
}

func TestNormalize_RateIgnoredWhenActualPresent(t *testing.T) {
	fields := []asana.CustomField{
		{Name: "Estimated time", NumberValue: fptr(120)},
		{Name: "actual_time_raw", NumberValue: fptr(100)},
		{Name: "時間達成率", NumberValue: fptr(2)},
	}

	got := Normalize(fields, defaultOpts())
	assert.Equal(t, fptr(100), got.ActualMinutes, "direct actual field wins over rate fallback")
}

func TestNormalize_RateWithoutEstimate(t *testing.T) {
	fields := []asana.CustomField{
		{Name: "時間達成率", NumberValue: fptr(1.2)},
	}

	got := Normalize(fields, defaultOpts())
	assert.Nil(t, got.ActualMinutes)
	assert.Nil(t, got.EstimatedMinutes)
}

func TestNormalize_OrderIndependentAcrossCategories(t *testing.T) {
	a := []asana.CustomField{
		{Name: "時間達成率", NumberValue: fptr(1.5)},
		{Name: "Estimated time", NumberValue: fptr(120)},
	}
	b := []asana.CustomField{
		{Name: "Estimated time", NumberValue: fptr(120)},
		{Name: "時間達成率", NumberValue: fptr(1.5)},
	}

	assert.Equal(t, Normalize(a, defaultOpts()), Normalize(b, defaultOpts()))
}
