package main

import "time"

type simulatorConfig struct {
	AuthorityURL    string        `env:"AUTHORITY_URL" envDefault:"http://localhost:8080"`
	InitData        string        `env:"INIT_DATA" envDefault:"local-dev"`
	ReferrerID      int64         `env:"REFERRER_ID" envDefault:"0"`
	TuningFile      string        `env:"TUNING_FILE" envDefault:""`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	ClickRate       time.Duration `env:"CLICK_RATE" envDefault:"250ms"`
	StatsEvery      time.Duration `env:"STATS_EVERY" envDefault:"5s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}
