package config

import (
	"sort"

	"github.com/san-kum/wheelsim/internal/experiment"
)

func preset(mutate func(p *experiment.Params)) *Config {
	cfg := DefaultConfig()
	mutate(&cfg.Params)
	return cfg
}

var Presets = map[string]*Config{
	"gentle": preset(func(p *experiment.Params) {
		p.Kp, p.Ki, p.Kd = 0.4, 0.2, 0.0
		p.OmegaSet = 1.0
	}),
	"spinup": preset(func(p *experiment.Params) {
		p.Kp, p.Ki, p.Kd = 1.0, 0.5, 0.01
		p.OmegaSet = 10.0
		p.B = 0.01
	}),
	"disturbed": preset(func(p *experiment.Params) {
		p.Kp, p.Ki, p.Kd = 0.8, 0.6, 0.005
		p.OmegaSet = 5.0
		p.B = 0.02
		p.Disturbance = 0.1
	}),
	"heavy": preset(func(p *experiment.Params) {
		p.Kp, p.Ki, p.Kd = 2.0, 0.4, 0.0
		p.OmegaSet = 3.0
		p.Mass = 5.0
		p.Radius = 0.8
		p.MaxMoment = 2.0
	}),
	"reverse": preset(func(p *experiment.Params) {
		p.Kp, p.Ki, p.Kd = 0.5, 0.3, 0.0
		p.OmegaSet = -2.0
		p.B = 0.05
	}),
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	c := *cfg
	return &c
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
