package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 8080, cfg.Port)
	assert.InDelta(t, 0.7, cfg.Registration.PaymentThreshold, 1e-9)
	assert.Equal(t, 15*time.Minute, cfg.Cache.CatalogTTL)
	assert.Equal(t, "X-Actor-Role", cfg.Actor.RoleHeader)
	assert.Equal(t, 2, cfg.Grades.PublishWorkers)
}

func TestThresholdOutOfRangeFallsBack(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("REGISTRATION_PAYMENT_THRESHOLD", 1.5)
	assert.InDelta(t, DefaultPaymentThreshold, fromViper(v).Registration.PaymentThreshold, 1e-9)

	v.Set("REGISTRATION_PAYMENT_THRESHOLD", 0.5)
	assert.InDelta(t, 0.5, fromViper(v).Registration.PaymentThreshold, 1e-9)
}

func TestSplitAndTrim(t *testing.T) {
	assert.Nil(t, splitAndTrim(""))
	assert.Equal(t, []string{"a", "b"}, splitAndTrim(" a, ,b "))
}

func TestParseDurationFallback(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("bogus", time.Minute))
	assert.Equal(t, 2*time.Second, parseDuration("2s", time.Minute))
}
