package container

// Options configures the service. Fields map to CLI flags and
// environment variables through humacli.
type Options struct {
	Port         int    `default:"8888"           help:"Port to listen on"                                     short:"p"`
	RedisAddr    string `default:"localhost:6379" help:"Redis server address"                                  short:"r"`
	PostgresDSN  string `default:""               help:"PostgreSQL connection string (postgres backend only)"`
	Backend      string `default:"redis"          help:"Rate limit store backend (memory, redis, postgres)"    short:"b"`
	MaxAttempts  int64  `default:"60"             help:"Attempts allowed per key per window"`
	DecaySeconds int    `default:"60"             help:"Window length in seconds"`
	PruneSeconds int    `default:"60"             help:"Interval between expired-record sweeps"`
	EventsSink   string `default:"redis"          help:"Where the consumer persists throttle events (redis, log)"`
	LogFormat    string `default:"console"        help:"Log output format (console, json)"`
	ServiceName  string `default:"throttle"       help:"Service name reported in the API description"`
}
