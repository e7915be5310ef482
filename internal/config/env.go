package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/shaiso/Polyglot/internal/domain"
)

// stageURLEnv — переменные окружения с адресами этапов.
var stageURLEnv = map[string]string{
	domain.StageLanguageAnalysis:      "POLYGLOT_LANGUAGE_URL",
	domain.StageStatistics:            "POLYGLOT_STATISTICS_URL",
	domain.StageOptimization:          "POLYGLOT_OPTIMIZATION_URL",
	domain.StageNumericalOptimization: "POLYGLOT_NUMERICAL_URL",
}

// applyEnv накладывает переменные окружения на конфигурацию.
func (c *Config) applyEnv() error {
	c.Port = getEnv("API_PORT", c.Port)
	c.ModelID = getEnv("POLYGLOT_MODEL_ID", c.ModelID)
	c.DatabaseURL = getEnv("DB_URL", c.DatabaseURL)
	c.AMQPURL = getEnv("AMQP_URL", c.AMQPURL)
	c.Cache.PurgeCron = getEnv("POLYGLOT_CACHE_PURGE_CRON", c.Cache.PurgeCron)

	var err error
	if c.Dimensions, err = getEnvInt("POLYGLOT_DIMENSIONS", c.Dimensions); err != nil {
		return err
	}
	if c.BatchSize, err = getEnvInt("POLYGLOT_BATCH_SIZE", c.BatchSize); err != nil {
		return err
	}
	if c.Cache.Enabled, err = getEnvBool("POLYGLOT_CACHE_ENABLED", c.Cache.Enabled); err != nil {
		return err
	}

	ttl, err := getEnvDuration("POLYGLOT_CACHE_TTL", c.Cache.TTL.Duration())
	if err != nil {
		return err
	}
	c.Cache.TTL = Duration(ttl)

	// Общие для всех этапов таймаут и количество повторов
	timeout, hasTimeout := os.LookupEnv("POLYGLOT_STAGE_TIMEOUT")
	retries, hasRetries := os.LookupEnv("POLYGLOT_STAGE_MAX_RETRIES")

	for i := range c.Stages {
		s := &c.Stages[i]

		if key, ok := stageURLEnv[s.Name]; ok {
			s.Endpoint = getEnv(key, s.Endpoint)
		}

		if hasTimeout {
			d, err := time.ParseDuration(timeout)
			if err != nil {
				return fmt.Errorf("%w: POLYGLOT_STAGE_TIMEOUT: %v", ErrInvalidConfig, err)
			}
			s.Timeout = Duration(d)
		}

		if hasRetries {
			n, err := strconv.Atoi(retries)
			if err != nil {
				return fmt.Errorf("%w: POLYGLOT_STAGE_MAX_RETRIES: %v", ErrInvalidConfig, err)
			}
			s.MaxRetries = intPtr(n)
		}
	}

	return nil
}

// getEnv возвращает значение переменной окружения или значение по умолчанию.
func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// getEnvInt читает целое число из переменной окружения.
func getEnvInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, key, err)
	}
	return n, nil
}

// getEnvBool читает bool из переменной окружения.
func getEnvBool(key string, defaultVal bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, key, err)
	}
	return b, nil
}

// getEnvDuration читает длительность из переменной окружения.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, key, err)
	}
	return d, nil
}
