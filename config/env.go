package config

import (
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const EnvPrefix = "SPOTTRADER_"

// ApplyEnv loads the given dotenv files (".env" when none) without
// overriding variables already set, then copies every SPOTTRADER_* variable
// onto c. Missing dotenv files are ignored.
func (c *Config) ApplyEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return errors.Wrapf(err, "load %s", f)
		}
	}

	setStr(&c.Exchange.APIKey, "API_KEY")
	setStr(&c.Exchange.APISecret, "API_SECRET")
	setStr(&c.Exchange.BaseURL, "BASE_URL")
	setStr(&c.Trading.Symbol, "SYMBOL")
	setStr(&c.Trading.OrderType, "ORDER_TYPE")
	setStr(&c.Trading.AllocationPct, "ALLOCATION_PCT")
	setStr(&c.Trading.ProfitPct, "PROFIT_PCT")
	setStr(&c.Trading.LossPct, "LOSS_PCT")
	setStr(&c.Trading.LimitPrice, "LIMIT_PRICE")
	setStr(&c.Session.Interval, "INTERVAL")
	setStr(&c.Session.FillTimeout, "FILL_TIMEOUT")
	setStr(&c.Journal.Driver, "JOURNAL_DRIVER")
	setStr(&c.Journal.Path, "JOURNAL_PATH")
	setStr(&c.Log.Level, "LOG_LEVEL")
	setStr(&c.Log.File, "LOG_FILE")

	if err := setInt64(&c.Exchange.RecvWindow, "RECV_WINDOW"); err != nil {
		return err
	}
	if err := setInt(&c.Trading.MaxLossCount, "MAX_LOSS_COUNT"); err != nil {
		return err
	}
	return setBool(&c.Session.RetryReentry, "RETRY_REENTRY")
}

func setStr(dst *string, key string) {
	if v := os.Getenv(EnvPrefix + key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(EnvPrefix + key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return invalid(EnvPrefix+key, v, "is not an integer")
	}
	*dst = n
	return nil
}

func setInt64(dst *int64, key string) error {
	v := os.Getenv(EnvPrefix + key)
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return invalid(EnvPrefix+key, v, "is not an integer")
	}
	*dst = n
	return nil
}

func setBool(dst *bool, key string) error {
	v := os.Getenv(EnvPrefix + key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return invalid(EnvPrefix+key, v, "is not a boolean")
	}
	*dst = b
	return nil
}
