package factory

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/payroll-leave/leave"
)

func TestParsePolicy(t *testing.T) {
	f := NewPolicyFactory()

	p, err := f.ParsePolicy(`{"name":"standard","max_paid_days_per_month":2,"annual_allotment":18}`)
	require.NoError(t, err)

	assert.Equal(t, "standard", p.Name)
	assert.True(t, p.MaxPaidDaysPerMonth.Equal(decimal.NewFromInt(2)))
	assert.True(t, p.AnnualAllotment.Equal(decimal.NewFromInt(18)))
}

func TestParsePolicy_DefaultsName(t *testing.T) {
	p, err := NewPolicyFactory().ParsePolicy(`{"max_paid_days_per_month":"1.5"}`)
	require.NoError(t, err)
	assert.Equal(t, "default", p.Name)
	assert.True(t, p.AnnualAllotment.IsZero())
}

func TestParsePolicy_Rejects(t *testing.T) {
	f := NewPolicyFactory()

	_, err := f.ParsePolicy(`{"max_paid_days_per_month":0}`)
	assert.ErrorIs(t, err, leave.ErrInvalidPolicy)

	_, err = f.ParsePolicy(`{"max_paid_days_per_month":1,"annual_allotment":-3}`)
	assert.ErrorIs(t, err, leave.ErrInvalidPolicy)

	_, err = f.ParsePolicy(`not json`)
	assert.Error(t, err)
}

func TestDefaultPolicyJSON_RoundTrips(t *testing.T) {
	p, err := NewPolicyFactory().ParsePolicy(DefaultPolicyJSON())
	require.NoError(t, err)
	assert.True(t, p.MaxPaidDaysPerMonth.Equal(leave.DefaultMaxPaidDaysPerMonth))
}

func TestLoadPolicyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"name":"file","max_paid_days_per_month":3}`), 0o600))

	p, err := NewPolicyFactory().LoadPolicyFile(path)
	require.NoError(t, err)
	assert.Equal(t, "file", p.Name)

	_, err = NewPolicyFactory().LoadPolicyFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
