package config

import (
	"os"
	"time"

	"github.com/caarlos0/env/v10"

	"github.com/copyleftdev/brainwall/internal/errors"
)

type Config struct {
	Environment string `env:"ENV" envDefault:"development"`
	HTTP        struct {
		Port            int           `env:"HTTP_PORT" envDefault:"8080"`
		ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
		WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
		IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
		ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	}
	Logging struct {
		Level  string `env:"LOG_LEVEL" envDefault:"info"`
		Format string `env:"LOG_FORMAT" envDefault:"json"`
		Output string `env:"LOG_OUTPUT" envDefault:"stderr"`
	}
	Solver struct {
		// Strategy used when a request does not name one: "anneal" or "hillclimb".
		Strategy         string        `env:"SOLVER_STRATEGY" envDefault:"anneal"`
		Seed             int64         `env:"SOLVER_SEED" envDefault:"0"`
		MoveBudget       int           `env:"SOLVER_MOVE_BUDGET" envDefault:"3000000"`
		Patience         int           `env:"SOLVER_PATIENCE" envDefault:"30000"`
		MaxRounds        int           `env:"SOLVER_MAX_ROUNDS" envDefault:"0"`
		MaxMoves         int           `env:"SOLVER_MAX_MOVES" envDefault:"0"`
		Cycles           int           `env:"SOLVER_CYCLES" envDefault:"1000000"`
		RelaxationRounds int           `env:"SOLVER_RELAXATION_ROUNDS" envDefault:"300"`
		MaxGridCells     int           `env:"SOLVER_MAX_GRID_CELLS" envDefault:"1048576"`
		WorkerCount      int           `env:"SOLVER_WORKER_COUNT" envDefault:"4"`
		JobTimeout       time.Duration `env:"SOLVER_JOB_TIMEOUT" envDefault:"10m"`
		// JobRetention is how long finished jobs stay queryable; 0 keeps them forever.
		JobRetention time.Duration `env:"SOLVER_JOB_RETENTION" envDefault:"1h"`
	}
}

func Load() (*Config, error) {
	cfg := &Config{}

	// Parse environment variables
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, "parse environment").WithComponent("config").WithOperation("load")
	}

	// Set default logging level based on environment
	if cfg.Environment == "development" && cfg.Logging.Level == "" {
		cfg.Logging.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the solver settings that env tags cannot express.
func (c *Config) Validate() error {
	invalid := func(format string, args ...interface{}) error {
		return errors.Errorf(format, args...).WithComponent("config").WithOperation("validate")
	}
	switch c.Solver.Strategy {
	case "anneal", "hillclimb":
	default:
		return invalid("unknown solver strategy %q", c.Solver.Strategy)
	}
	if c.Solver.WorkerCount < 1 {
		return invalid("worker count must be positive, got %d", c.Solver.WorkerCount)
	}
	if c.Solver.MoveBudget < 0 || c.Solver.Patience < 0 || c.Solver.Cycles < 0 {
		return invalid("negative solver budget")
	}
	if c.Solver.MaxRounds < 0 || c.Solver.MaxMoves < 0 || c.Solver.RelaxationRounds < 0 || c.Solver.MaxGridCells < 0 {
		return invalid("negative solver limit")
	}
	if c.Solver.JobTimeout < 0 {
		return invalid("negative job timeout %s", c.Solver.JobTimeout)
	}
	if c.Solver.JobRetention < 0 {
		return invalid("negative job retention %s", c.Solver.JobRetention)
	}
	return nil
}

// GetEnv returns the value of the environment variable or the default value
func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
