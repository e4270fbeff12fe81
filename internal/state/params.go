// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package state

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/relabs-tech/iio_attitude/internal/config"
)

// Parameter names accepted from clients.
const (
	ParamKp         = "kp"
	ParamKi         = "ki"
	ParamGyroThresh = "gyro_thresh"
	ParamAccGThresh = "acc_g_thresh"
	ParamBiasAlpha  = "bias_alpha"
	ParamUseDynKp   = "use_dyn_kp"
)

var (
	ErrUnknownParameter = errors.New("unknown parameter")
	ErrInvalidValue     = errors.New("invalid parameter value")
	ErrOutOfRange       = errors.New("parameter out of range")
)

// FilterParams are the runtime tunables of the attitude filter.
type FilterParams struct {
	Kp         float64 `json:"kp"`
	Ki         float64 `json:"ki"`
	GyroThresh float64 `json:"gyro_thresh"`  // rad/s
	AccGThresh float64 `json:"acc_g_thresh"` // fraction of g
	BiasAlpha  float64 `json:"bias_alpha"`
	UseDynKp   bool    `json:"use_dyn_kp"`
}

// DefaultFilterParams returns the built-in tuning.
func DefaultFilterParams() FilterParams {
	return FilterParams{
		Kp:         0.5,
		Ki:         0.001,
		GyroThresh: 0.02,
		AccGThresh: 0.06,
		BiasAlpha:  0.002,
		UseDynKp:   true,
	}
}

// FilterParamsFromConfig returns the startup tuning from the config file.
func FilterParamsFromConfig(cfg *config.Config) FilterParams {
	return FilterParams{
		Kp:         cfg.FilterKp,
		Ki:         cfg.FilterKi,
		GyroThresh: cfg.GyroThresh,
		AccGThresh: cfg.AccGThresh,
		BiasAlpha:  cfg.BiasAlpha,
		UseDynKp:   cfg.UseDynKp,
	}
}

type floatParam struct {
	lo, hi float64
	field  func(*FilterParams) *float64
}

var floatParams = map[string]floatParam{
	ParamKp:         {0, 20, func(p *FilterParams) *float64 { return &p.Kp }},
	ParamKi:         {0, 5, func(p *FilterParams) *float64 { return &p.Ki }},
	ParamGyroThresh: {0, 10, func(p *FilterParams) *float64 { return &p.GyroThresh }},
	ParamAccGThresh: {0, 1, func(p *FilterParams) *float64 { return &p.AccGThresh }},
	ParamBiasAlpha:  {0, 1, func(p *FilterParams) *float64 { return &p.BiasAlpha }},
}

// ParamStore holds the live FilterParams. The estimation loop reads a
// copy once per cycle; transports write through Apply.
type ParamStore struct {
	mu sync.RWMutex
	p  FilterParams
}

// NewParamStore returns a store seeded with p.
func NewParamStore(p FilterParams) *ParamStore {
	return &ParamStore{p: p}
}

// Get returns a copy of the current parameters.
func (s *ParamStore) Get() FilterParams {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.p
}

// Apply validates and sets a single parameter. Rejected updates leave
// the store unchanged.
func (s *ParamStore) Apply(name string, value any) error {
	if name == ParamUseDynKp {
		b, err := toBool(value)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		s.mu.Lock()
		s.p.UseDynKp = b
		s.mu.Unlock()
		return nil
	}

	fp, ok := floatParams[name]
	if !ok {
		return fmt.Errorf("%q: %w", name, ErrUnknownParameter)
	}
	v, err := toFloat(value)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if v < fp.lo || v > fp.hi {
		return fmt.Errorf("%s=%g not in [%g, %g]: %w", name, v, fp.lo, fp.hi, ErrOutOfRange)
	}

	s.mu.Lock()
	*fp.field(&s.p) = v
	s.mu.Unlock()
	return nil
}

// ApplyAll applies every entry of a params payload in name order and
// returns the rejected ones keyed by name. Accepted entries take effect
// even when others fail.
func (s *ParamStore) ApplyAll(values map[string]any) map[string]error {
	names := make([]string, 0, len(values))
	for k := range values {
		names = append(names, k)
	}
	sort.Strings(names)

	var rejected map[string]error
	for _, name := range names {
		if err := s.Apply(name, values[name]); err != nil {
			if rejected == nil {
				rejected = make(map[string]error)
			}
			rejected[name] = err
		}
	}
	return rejected
}

func toFloat(value any) (float64, error) {
	var v float64
	switch x := value.(type) {
	case float64:
		v = x
	case float32:
		v = float64(x)
	case int:
		v = float64(x)
	case int64:
		v = float64(x)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, fmt.Errorf("%q: %w", x, ErrInvalidValue)
		}
		v = f
	default:
		return 0, fmt.Errorf("%T: %w", value, ErrInvalidValue)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%v: %w", v, ErrInvalidValue)
	}
	return v, nil
}

func toBool(value any) (bool, error) {
	switch x := value.(type) {
	case bool:
		return x, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true", "1":
			return true, nil
		case "false", "0":
			return false, nil
		}
		return false, fmt.Errorf("%q: %w", x, ErrInvalidValue)
	}
	f, err := toFloat(value)
	if err != nil {
		return false, err
	}
	switch f {
	case 0:
		return false, nil
	case 1:
		return true, nil
	}
	return false, fmt.Errorf("%v: %w", value, ErrInvalidValue)
}
