package bots

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/samber/lo"
)

var ErrUnknownBot = errors.New("unknown bot")

// Options configures the bots built by New.
type Options struct {
	Budget         time.Duration
	ThreatCheck    bool
	StrictDeadline bool
	SmoothAdvance  bool
	Material       MaterialTable
	UCIPath        string
	UCIMoveTime    time.Duration
}

func DefaultOptions() Options {
	return Options{
		Budget:      time.Second,
		ThreatCheck: true,
		Material:    DefaultMaterial(),
		UCIMoveTime: 100 * time.Millisecond,
	}
}

var constructors = map[string]func(Options) (ChessBot, error){
	"foresight": func(o Options) (ChessBot, error) {
		bot, err := NewForesightBotWithOptions(o)
		if err != nil {
			return nil, err
		}
		return bot, nil
	},
	"newborn": func(Options) (ChessBot, error) {
		return NewNewbornBot(), nil
	},
	"random": func(Options) (ChessBot, error) {
		return NewRandomBot(), nil
	},
	"uci": func(o Options) (ChessBot, error) {
		if o.UCIPath == "" {
			return nil, errors.New("uci bot needs an engine path")
		}
		bot, err := NewUCIBot(o.UCIPath, o.UCIMoveTime)
		if err != nil {
			return nil, err
		}
		return bot, nil
	},
}

func NewForesightBotWithOptions(o Options) (*ForesightBot, error) {
	eval, err := NewEvaluator(o.Material, o.SmoothAdvance)
	if err != nil {
		return nil, err
	}
	return &ForesightBot{
		Evaluator:      eval,
		Budget:         o.Budget,
		ThreatCheck:    o.ThreatCheck,
		StrictDeadline: o.StrictDeadline,
	}, nil
}

// New builds the bot registered under name.
func New(name string, opts Options) (ChessBot, error) {
	ctor, ok := constructors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (have %v)", ErrUnknownBot, name, Names())
	}
	return ctor(opts)
}

// Names lists the registered bot names in sorted order.
func Names() []string {
	names := lo.Keys(constructors)
	slices.Sort(names)
	return names
}
