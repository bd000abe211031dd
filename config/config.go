package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/notnil/chess"
	"github.com/spf13/viper"

	"foresightbot/bots"
)

const EnvPrefix = "FORESIGHT"

type BotConfig struct {
	MoveBudget     time.Duration  `mapstructure:"move_budget"`
	StrictDeadline bool           `mapstructure:"strict_deadline"`
	ThreatCheck    bool           `mapstructure:"threat_check"`
	SmoothAdvance  bool           `mapstructure:"smooth_advance"`
	PieceValues    map[string]int `mapstructure:"piece_values"`
}

type ArenaConfig struct {
	Games         int           `mapstructure:"games"`
	Parallelism   int           `mapstructure:"parallelism"`
	MaxPlies      int           `mapstructure:"max_plies"`
	StartFEN      string        `mapstructure:"start_fen"`
	Opponent      string        `mapstructure:"opponent"`
	UCIEnginePath string        `mapstructure:"uci_engine_path"`
	UCIMoveTime   time.Duration `mapstructure:"uci_movetime"`
	PGNOut        string        `mapstructure:"pgn_out"`
	ReportOut     string        `mapstructure:"report_out"`
}

type Config struct {
	LogLevel string      `mapstructure:"log_level"`
	Bot      BotConfig   `mapstructure:"bot"`
	Arena    ArenaConfig `mapstructure:"arena"`
}

var pieceNames = map[string]chess.PieceType{
	"pawn":   chess.Pawn,
	"knight": chess.Knight,
	"bishop": chess.Bishop,
	"rook":   chess.Rook,
	"queen":  chess.Queen,
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")

	v.SetDefault("bot.move_budget", "1s")
	v.SetDefault("bot.strict_deadline", false)
	v.SetDefault("bot.threat_check", true)
	v.SetDefault("bot.smooth_advance", false)
	material := bots.DefaultMaterial()
	for name, pt := range pieceNames {
		v.SetDefault("bot.piece_values."+name, material[pt])
	}

	v.SetDefault("arena.games", 10)
	v.SetDefault("arena.parallelism", 4)
	v.SetDefault("arena.max_plies", 200)
	v.SetDefault("arena.start_fen", chess.StartingPosition().String())
	v.SetDefault("arena.opponent", "newborn")
	v.SetDefault("arena.uci_engine_path", "stockfish")
	v.SetDefault("arena.uci_movetime", "100ms")
	v.SetDefault("arena.pgn_out", "")
	v.SetDefault("arena.report_out", "")
}

// Default returns the configuration with no file and no environment applied.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		panic(err)
	}
	return cfg
}

// Load reads defaults, then the optional YAML file at path, then
// FORESIGHT_* environment variables (FORESIGHT_BOT_MOVE_BUDGET etc).
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Arena.Games < 0 {
		return errors.New("arena.games must not be negative")
	}
	if c.Arena.Parallelism < 1 {
		return errors.New("arena.parallelism must be at least 1")
	}
	if c.Arena.MaxPlies < 1 {
		return errors.New("arena.max_plies must be at least 1")
	}
	if _, err := c.Material(); err != nil {
		return err
	}
	return nil
}

// Material converts the configured piece values into a material table.
func (c *Config) Material() (bots.MaterialTable, error) {
	table := bots.MaterialTable{}
	for name, value := range c.Bot.PieceValues {
		pt, ok := pieceNames[strings.ToLower(name)]
		if !ok {
			return nil, fmt.Errorf("bot.piece_values: unknown piece %q", name)
		}
		table[pt] = value
	}
	for name, pt := range pieceNames {
		if _, ok := table[pt]; !ok {
			return nil, fmt.Errorf("bot.piece_values: missing %s", name)
		}
	}
	return table, nil
}

// BotOptions builds the options handed to bots.New.
func (c *Config) BotOptions() (bots.Options, error) {
	material, err := c.Material()
	if err != nil {
		return bots.Options{}, err
	}
	return bots.Options{
		Budget:         c.Bot.MoveBudget,
		ThreatCheck:    c.Bot.ThreatCheck,
		StrictDeadline: c.Bot.StrictDeadline,
		SmoothAdvance:  c.Bot.SmoothAdvance,
		Material:       material,
		UCIPath:        c.Arena.UCIEnginePath,
		UCIMoveTime:    c.Arena.UCIMoveTime,
	}, nil
}
