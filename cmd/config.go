package cmd

import (
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Config holds every setting of a workload run.
type Config struct {
	Name            string
	Capacity        int
	Tasks           int
	BlockEvery      int
	BlockDuration   time.Duration
	WorkDuration    time.Duration
	FailTask        int
	ShutdownTimeout time.Duration
	MetricsAddr     string
	LogLevel        string
}

// NewConfig returns the defaults used by the CLI.
func NewConfig() *Config {
	return &Config{
		Name:          "blockpool",
		Capacity:      4,
		Tasks:         100,
		BlockEvery:    4,
		BlockDuration: 20 * time.Millisecond,
		WorkDuration:  time.Millisecond,
		FailTask:      -1,
		LogLevel:      "info",
	}
}

// Flags registers c's fields on fs, using their current values as defaults.
func (c *Config) Flags(fs *pflag.FlagSet) {
	fs.StringVar(&c.Name, "name", c.Name, "Pool name used in logs and metric labels.")
	fs.IntVar(&c.Capacity, "capacity", c.Capacity, "Maximum number of concurrently working tasks.")
	fs.IntVar(&c.Tasks, "tasks", c.Tasks, "Number of tasks to submit.")
	fs.IntVar(&c.BlockEvery, "block-every", c.BlockEvery, "Every Nth task blocks (0 disables blocking).")
	fs.DurationVar(&c.BlockDuration, "block-duration", c.BlockDuration, "How long a blocking task stays blocked.")
	fs.DurationVar(&c.WorkDuration, "work-duration", c.WorkDuration, "How long each task works while holding its slot.")
	fs.IntVar(&c.FailTask, "fail-task", c.FailTask, "Index of a task that fails (-1 for none).")
	fs.DurationVar(&c.ShutdownTimeout, "shutdown-timeout", c.ShutdownTimeout, "Bound on waiting for workers after the run (0 waits forever).")
	fs.StringVar(&c.MetricsAddr, "metrics-addr", c.MetricsAddr, "Serve Prometheus metrics on this address during the run.")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level: debug, info, warn or error.")
}

// Validate reports settings the pool or workload cannot run with.
func (c *Config) Validate() error {
	if c.Tasks < 0 {
		return errors.Errorf("tasks must not be negative, got %d", c.Tasks)
	}
	if c.BlockEvery < 0 {
		return errors.Errorf("block-every must not be negative, got %d", c.BlockEvery)
	}
	if c.BlockDuration < 0 || c.WorkDuration < 0 || c.ShutdownTimeout < 0 {
		return errors.New("durations must not be negative")
	}
	return nil
}

// yamlConfig is the rendered form of Config; its keys match the flag names.
type yamlConfig struct {
	Name            string `yaml:"name"`
	Capacity        int    `yaml:"capacity"`
	Tasks           int    `yaml:"tasks"`
	BlockEvery      int    `yaml:"block-every"`
	BlockDuration   string `yaml:"block-duration"`
	WorkDuration    string `yaml:"work-duration"`
	FailTask        int    `yaml:"fail-task"`
	ShutdownTimeout string `yaml:"shutdown-timeout"`
	MetricsAddr     string `yaml:"metrics-addr"`
	LogLevel        string `yaml:"log-level"`
}

// MarshalYAML renders durations as strings so the output reads back as a
// configuration file.
func (c Config) MarshalYAML() (interface{}, error) {
	return yamlConfig{
		Name:            c.Name,
		Capacity:        c.Capacity,
		Tasks:           c.Tasks,
		BlockEvery:      c.BlockEvery,
		BlockDuration:   c.BlockDuration.String(),
		WorkDuration:    c.WorkDuration.String(),
		FailTask:        c.FailTask,
		ShutdownTimeout: c.ShutdownTimeout.String(),
		MetricsAddr:     c.MetricsAddr,
		LogLevel:        c.LogLevel,
	}, nil
}

func newConfigCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	conf := NewConfig()
	confCmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration.",
		Long: `config prints the configuration that run would use, after applying the
config file, the environment and flags, as YAML to stdout.
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			enc := yaml.NewEncoder(stdout)
			enc.SetIndent(2)
			if err := enc.Encode(conf); err != nil {
				return errors.Wrap(err, "encoding configuration")
			}
			return enc.Close()
		},
	}
	conf.Flags(confCmd.Flags())
	return confCmd
}
