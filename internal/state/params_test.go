package state

import (
	"errors"
	"testing"

	"go.viam.com/test"

	"github.com/relabs-tech/iio_attitude/internal/config"
)

func TestDefaultFilterParamsMatchConfig(t *testing.T) {
	test.That(t, FilterParamsFromConfig(config.Default()), test.ShouldResemble, DefaultFilterParams())
}

func TestApplyFloat(t *testing.T) {
	s := NewParamStore(DefaultFilterParams())

	test.That(t, s.Apply(ParamKp, 0.8), test.ShouldBeNil)
	test.That(t, s.Get().Kp, test.ShouldEqual, 0.8)

	test.That(t, s.Apply(ParamKi, 2), test.ShouldBeNil)
	test.That(t, s.Get().Ki, test.ShouldEqual, 2.0)

	test.That(t, s.Apply(ParamBiasAlpha, "0.01"), test.ShouldBeNil)
	test.That(t, s.Get().BiasAlpha, test.ShouldEqual, 0.01)

	// bounds are inclusive
	test.That(t, s.Apply(ParamKp, 20.0), test.ShouldBeNil)
	test.That(t, s.Apply(ParamAccGThresh, 0.0), test.ShouldBeNil)
}

func TestApplyRejects(t *testing.T) {
	s := NewParamStore(DefaultFilterParams())
	before := s.Get()

	for _, tc := range []struct {
		name  string
		value any
		want  error
	}{
		{"gain", 1.0, ErrUnknownParameter},
		{"", 1.0, ErrUnknownParameter},
		{ParamKp, -0.1, ErrOutOfRange},
		{ParamKp, 20.5, ErrOutOfRange},
		{ParamKi, 6.0, ErrOutOfRange},
		{ParamAccGThresh, 1.5, ErrOutOfRange},
		{ParamKp, "fast", ErrInvalidValue},
		{ParamKp, []any{1.0}, ErrInvalidValue},
		{ParamKp, nil, ErrInvalidValue},
		{ParamUseDynKp, "maybe", ErrInvalidValue},
		{ParamUseDynKp, 2.0, ErrInvalidValue},
	} {
		err := s.Apply(tc.name, tc.value)
		test.That(t, errors.Is(err, tc.want), test.ShouldBeTrue)
	}
	test.That(t, s.Get(), test.ShouldResemble, before)
}

func TestApplyUseDynKp(t *testing.T) {
	s := NewParamStore(DefaultFilterParams())

	for _, tc := range []struct {
		value any
		want  bool
	}{
		{false, false},
		{true, true},
		{0.0, false},
		{1.0, true},
		{"false", false},
		{"TRUE", true},
		{"0", false},
		{"1", true},
	} {
		test.That(t, s.Apply(ParamUseDynKp, tc.value), test.ShouldBeNil)
		test.That(t, s.Get().UseDynKp, test.ShouldEqual, tc.want)
	}
}

func TestApplyAll(t *testing.T) {
	s := NewParamStore(DefaultFilterParams())

	rejected := s.ApplyAll(map[string]any{
		ParamKp:       1.5,
		ParamUseDynKp: false,
		"bogus":       3.0,
		ParamKi:       -1.0,
	})
	test.That(t, rejected, test.ShouldHaveLength, 2)
	test.That(t, errors.Is(rejected["bogus"], ErrUnknownParameter), test.ShouldBeTrue)
	test.That(t, errors.Is(rejected[ParamKi], ErrOutOfRange), test.ShouldBeTrue)

	p := s.Get()
	test.That(t, p.Kp, test.ShouldEqual, 1.5)
	test.That(t, p.UseDynKp, test.ShouldBeFalse)
	test.That(t, p.Ki, test.ShouldEqual, DefaultFilterParams().Ki)

	test.That(t, s.ApplyAll(map[string]any{ParamGyroThresh: 0.05}), test.ShouldBeNil)
}
