package config

import (
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/openhaus/atrium/internal/adjustment"
	"github.com/spf13/viper"
)

// RatesHolder serves the brokerage-wide default adjustment rate table. The
// table is read from an optional rates.yml and hot-reloaded on change; new
// reports copy the current snapshot, so an edit never mutates a report that
// was already configured.
type RatesHolder struct {
	current atomic.Value // holds adjustment.Rates
}

// NewRatesHolder loads rates.yml (if present) and watches it for changes.
// Missing files and missing keys fall back to the stock defaults.
func NewRatesHolder() (*RatesHolder, error) {
	v := viper.New()

	v.SetConfigName("rates")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/atrium")
	v.AddConfigPath(".")

	v.SetEnvPrefix("ATRIUM_RATES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	holder := &RatesHolder{}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		holder.current.Store(adjustment.DefaultRates())
		return holder, nil
	}

	holder.current.Store(ratesFromViper(v))

	v.OnConfigChange(func(_ fsnotify.Event) {
		if err := v.ReadInConfig(); err != nil {
			log.Printf("rates config reload failed: %v", err)
			return
		}
		holder.current.Store(ratesFromViper(v))
	})
	v.WatchConfig()

	return holder, nil
}

// NewStaticRatesHolder returns a holder pinned to a fixed table. No file is
// read or watched.
func NewStaticRatesHolder(rates adjustment.Rates) *RatesHolder {
	holder := &RatesHolder{}
	holder.current.Store(rates)
	return holder
}

// Current returns the active default rate table.
func (h *RatesHolder) Current() adjustment.Rates {
	if rates, ok := h.current.Load().(adjustment.Rates); ok {
		return rates
	}
	return adjustment.DefaultRates()
}

func ratesFromViper(v *viper.Viper) adjustment.Rates {
	rates := adjustment.DefaultRates()
	if v.IsSet("sqft") {
		rates.SquareFeet = v.GetFloat64("sqft")
	}
	if v.IsSet("bedroom") {
		rates.Bedroom = v.GetFloat64("bedroom")
	}
	if v.IsSet("bathroom") {
		rates.Bathroom = v.GetFloat64("bathroom")
	}
	if v.IsSet("pool") {
		rates.Pool = v.GetFloat64("pool")
	}
	if v.IsSet("garage") {
		rates.Garage = v.GetFloat64("garage")
	}
	if v.IsSet("year_built") {
		rates.YearBuilt = v.GetFloat64("year_built")
	}
	if v.IsSet("lot_size") {
		rates.LotSize = v.GetFloat64("lot_size")
	}
	return rates
}
