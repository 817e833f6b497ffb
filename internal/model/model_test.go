package model_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mealy/internal/actor"
	"github.com/roach88/mealy/internal/actors"
	"github.com/roach88/mealy/internal/ir"
	"github.com/roach88/mealy/internal/model"
)

var (
	inc3   = actor.Envelope{Src: 0, Dst: 1, Msg: actors.IncrementRequest{N: 3}}
	report = actor.Envelope{Src: 0, Dst: 1, Msg: actors.ReportRequest{}}
)

// pair builds supervisor@0 and counter@1.
func pair(t *testing.T, cfg actors.SupervisorConfig, opts ...model.Option) *model.Model {
	t.Helper()
	m := model.New(actors.NewCodec(), opts...)
	m.AddActor(actors.NewSupervisor(cfg))
	m.AddActor(actors.NewCounter(0))
	return m
}

func threshold(n int64) actors.SupervisorConfig {
	cfg := actors.DefaultSupervisorConfig()
	cfg.Threshold = n
	return cfg
}

func initState(t *testing.T, m *model.Model) model.State {
	t.Helper()
	states, err := m.InitStates()
	require.NoError(t, err)
	require.Len(t, states, 1)
	return states[0]
}

func step(t *testing.T, m *model.Model, s model.State, a model.Action) model.State {
	t.Helper()
	next, err := m.Next(s, a)
	require.NoError(t, err, "step %s", a)
	return next
}

func supervisorOf(t *testing.T, s model.State) actors.SupervisorState {
	t.Helper()
	st, ok := s.ActorState(0)
	require.True(t, ok)
	sup, ok := st.(actors.SupervisorState)
	require.True(t, ok)
	return sup
}

func TestManualStepping(t *testing.T) {
	m := pair(t, threshold(3), model.WithInitNetwork(inc3, report))
	s0 := initState(t, m)

	s1 := step(t, m, s0, model.Deliver(inc3))
	count, ok := actors.CounterValue(s1, 1)
	require.True(t, ok)
	assert.Equal(t, int64(3), count)
	assert.Equal(t, 0, s1.NetworkCount(inc3), "delivery removes the envelope")

	s2 := step(t, m, s1, model.Deliver(report))
	reply := actor.Envelope{Src: 1, Dst: 0, Msg: actors.ReplyCount{N: 3}}
	assert.Equal(t, 1, s2.NetworkCount(reply))
	assert.False(t, supervisorOf(t, s2).Success)

	entries := s2.Network()
	require.Len(t, entries, 1)
	s3 := step(t, m, s2, model.Deliver(entries[0].Env))
	assert.True(t, supervisorOf(t, s3).Success)
	assert.Zero(t, s3.NetworkLen())

	// The parent is untouched.
	assert.Equal(t, 1, s2.NetworkCount(reply))
	assert.False(t, supervisorOf(t, s2).Success)
}

func TestNextRejectsDisabledActions(t *testing.T) {
	m := pair(t, threshold(3), model.WithInitNetwork(inc3))
	s0 := initState(t, m)

	tests := []struct {
		name   string
		action model.Action
	}{
		{"absent envelope", model.Deliver(report)},
		{"redeliver without duplication", model.Redeliver(inc3)},
		{"drop without loss", model.Drop(inc3)},
		{"timer not pending", model.FireTimer(actor.TimerHandle{Owner: 0, Kind: actors.TimerPoll})},
		{"unknown kind", model.Action{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Next(s0, tt.action)
			require.Error(t, err)
			assert.True(t, model.IsActionDisabled(err))
			assert.False(t, model.IsConfigError(err))

			var re *model.RuntimeError
			require.ErrorAs(t, err, &re)
			assert.Equal(t, s0.Hash(), re.StateHash)
			assert.Equal(t, tt.action.String(), re.Action)
		})
	}
}

func TestDuplicatingNetworkRedelivers(t *testing.T) {
	m := pair(t, threshold(3), model.WithDuplicatingNetwork(), model.WithInitNetwork(inc3))
	s0 := initState(t, m)

	assert.Equal(t, []model.Action{model.Deliver(inc3), model.Redeliver(inc3)}, m.Actions(s0))

	s1 := step(t, m, s0, model.Redeliver(inc3))
	s2 := step(t, m, s1, model.Redeliver(inc3))

	count, _ := actors.CounterValue(s2, 1)
	assert.Equal(t, int64(6), count)
	assert.Equal(t, 1, s2.NetworkCount(inc3), "redelivery keeps the envelope in flight")
}

func TestLossyNetworkDrops(t *testing.T) {
	m := pair(t, threshold(3), model.WithLossyNetwork(), model.WithInitNetwork(inc3, inc3))
	s0 := initState(t, m)
	assert.Equal(t, 2, s0.NetworkCount(inc3))
	assert.Equal(t, []model.Action{model.Deliver(inc3), model.Drop(inc3)}, m.Actions(s0),
		"one action per distinct entry, not per copy")

	s1 := step(t, m, s0, model.Drop(inc3))
	assert.Equal(t, 1, s1.NetworkCount(inc3))
	count, _ := actors.CounterValue(s1, 1)
	assert.Zero(t, count, "a dropped message is never handled")
}

func TestActionOrder(t *testing.T) {
	m := model.New(actors.NewCodec(), model.WithInitNetwork(report, inc3))
	cfg := threshold(3)
	cfg.Poll = true
	m.AddActor(actors.NewSupervisor(cfg))
	m.AddActor(actors.NewCounter(0))
	m.AddActor(actors.NewStimulus(actors.StimulusConfig{Target: 1, Step: 3, Limit: 1}))

	s0 := initState(t, m)
	assert.Equal(t, []model.Action{
		model.Deliver(inc3),
		model.Deliver(report),
		model.FireTimer(actor.TimerHandle{Owner: 0, Kind: actors.TimerPoll}),
		model.FireTimer(actor.TimerHandle{Owner: 2, Kind: actors.TimerTick}),
	}, m.Actions(s0))
}

func TestHashIndependentOfConstructionOrder(t *testing.T) {
	m := pair(t, threshold(3),
		model.WithInitNetwork(inc3, report),
		model.WithInitNetwork(report, inc3),
	)
	states, err := m.InitStates()
	require.NoError(t, err)
	require.Len(t, states, 2)
	assert.True(t, states[0].Equal(states[1]))

	// Reaching the same state along different paths gives the same hash.
	a := step(t, m, step(t, m, states[0], model.Deliver(inc3)), model.Deliver(report))
	b := step(t, m, step(t, m, states[0], model.Deliver(report)), model.Deliver(inc3))
	assert.NotEqual(t, a.Hash(), b.Hash(), "report before increment replies 0")

	c := step(t, m, states[1], model.Deliver(inc3))
	d := step(t, m, states[0], model.Deliver(inc3))
	assert.Equal(t, c.Hash(), d.Hash())
}

func TestTimerFiringAndRearm(t *testing.T) {
	m := model.New(actors.NewCodec())
	m.AddActor(actors.NewStimulus(actors.StimulusConfig{Target: 1, Step: 2, Limit: 2}))
	m.AddActor(actors.NewCounter(0))

	tick := actor.TimerHandle{Owner: 0, Kind: actors.TimerTick}
	s0 := initState(t, m)
	assert.Equal(t, []actor.TimerHandle{tick}, s0.Timers())

	s1 := step(t, m, s0, model.FireTimer(tick))
	assert.True(t, s1.TimerPending(tick), "re-armed while sends remain")
	s2 := step(t, m, s1, model.FireTimer(tick))
	assert.False(t, s2.TimerPending(tick))

	inc2 := actor.Envelope{Src: 0, Dst: 1, Msg: actors.IncrementRequest{N: 2}}
	assert.Equal(t, 2, s2.NetworkCount(inc2))
}

func TestUnknownAddressIsConfigError(t *testing.T) {
	t.Run("send", func(t *testing.T) {
		cfg := threshold(3)
		cfg.Counter = 7
		cfg.Poll = true
		m := pair(t, cfg)
		s0 := initState(t, m)

		_, err := m.Next(s0, model.FireTimer(actor.TimerHandle{Owner: 0, Kind: actors.TimerPoll}))
		require.Error(t, err)
		assert.True(t, model.IsConfigError(err))
		assert.Contains(t, err.Error(), "address 7")
	})

	t.Run("initial network", func(t *testing.T) {
		m := pair(t, threshold(3), model.WithInitNetwork(actor.Envelope{Src: 0, Dst: 9, Msg: actors.ReportRequest{}}))
		_, err := m.InitStates()
		require.Error(t, err)
		assert.True(t, model.IsConfigError(err))
	})
}

type explosive struct{}

func (explosive) Kind() string { return "counter" }

func (explosive) OnStart(actor.Address, *actor.Out) actor.State { return actors.CounterState{} }

func (explosive) OnMsg(actor.Address, actor.State, actor.Address, actor.Message, *actor.Out) actor.State {
	panic("boom")
}

func (explosive) OnTimeout(_ actor.Address, s actor.State, _ actor.TimerKind, _ *actor.Out) actor.State {
	return s
}

func TestTransitionPanicIsReported(t *testing.T) {
	m := model.New(actors.NewCodec(), model.WithInitNetwork(inc3))
	m.AddActor(actors.NewSupervisor(threshold(3)))
	m.AddActor(explosive{})
	s0 := initState(t, m)

	_, err := m.Next(s0, model.Deliver(inc3))
	require.Error(t, err)
	assert.True(t, model.HasCode(err, model.ErrCodeTransitionPanic))
	assert.Contains(t, err.Error(), "boom")
}

func TestEvaluate(t *testing.T) {
	m := pair(t, threshold(3))
	s0 := initState(t, m)

	ok, err := m.Evaluate(model.Property{
		Name: "counter_zero",
		Condition: func(_ *model.Model, s model.State) bool {
			n, _ := actors.CounterValue(s, 1)
			return n == 0
		},
	}, s0)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = m.Evaluate(model.Property{
		Name:      "bad",
		Condition: func(*model.Model, model.State) bool { panic("predicate bug") },
	}, s0)
	require.Error(t, err)
	assert.True(t, model.HasCode(err, model.ErrCodePredicatePanic))

	var re *model.RuntimeError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, s0.Hash(), re.StateHash)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cfg := threshold(3)
	cfg.Poll = true
	m := pair(t, cfg, model.WithInitNetwork(inc3, inc3, report))
	s0 := initState(t, m)
	s1 := step(t, m, s0, model.Deliver(inc3))

	data, err := m.Encode(s1)
	require.NoError(t, err)

	decoded, err := m.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, s1.Hash(), decoded.Hash())
	assert.Equal(t, s1.Network(), decoded.Network())
	assert.Equal(t, s1.Timers(), decoded.Timers())
	assert.Equal(t, s1.Actors(), decoded.Actors())
}

func TestDecodeRejectsMismatchedModel(t *testing.T) {
	m := pair(t, threshold(3))
	data, err := m.Encode(initState(t, m))
	require.NoError(t, err)

	other := model.New(actors.NewCodec())
	other.AddActor(actors.NewCounter(0))
	other.AddActor(actors.NewCounter(0))
	_, err = other.Decode(data)
	require.Error(t, err)
	assert.True(t, model.HasCode(err, model.ErrCodeDecode))

	_, err = m.Decode([]byte(`{"actors": 1.5}`))
	assert.Error(t, err)
}

func TestDecodeRejectsUnknownAddress(t *testing.T) {
	m := pair(t, threshold(3))
	data, err := m.Encode(initState(t, m))
	require.NoError(t, err)

	msg := ir.IRObject{"tag": ir.IRString("increment_request"), "n": ir.IRInt(1)}
	tests := []struct {
		name   string
		mutate func(ir.IRObject)
		want   string
	}{
		{
			name: "envelope src",
			mutate: func(obj ir.IRObject) {
				obj["network"] = ir.IRArray{ir.IRObject{"src": ir.IRInt(7), "dst": ir.IRInt(1), "msg": msg, "count": ir.IRInt(1)}}
			},
			want: "src: UNKNOWN_ADDRESS",
		},
		{
			name: "envelope dst",
			mutate: func(obj ir.IRObject) {
				obj["network"] = ir.IRArray{ir.IRObject{"src": ir.IRInt(0), "dst": ir.IRInt(9), "msg": msg, "count": ir.IRInt(1)}}
			},
			want: "dst: UNKNOWN_ADDRESS",
		},
		{
			name: "timer owner",
			mutate: func(obj ir.IRObject) {
				obj["timers"] = ir.IRArray{ir.IRObject{"owner": ir.IRInt(42), "kind": ir.IRString("tick")}}
			},
			want: "owner: UNKNOWN_ADDRESS",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var obj ir.IRObject
			require.NoError(t, json.Unmarshal(data, &obj))
			tt.mutate(obj)
			bad, err := ir.MarshalCanonical(obj)
			require.NoError(t, err)

			_, err = m.Decode(bad)
			require.Error(t, err)
			assert.True(t, model.HasCode(err, model.ErrCodeDecode))
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	_, err = m.DecodeAction(model.FireTimer(actor.TimerHandle{Owner: 5, Kind: actors.TimerTick}).Canonical())
	assert.True(t, model.HasCode(err, model.ErrCodeDecode))
	_, err = m.DecodeAction(model.Deliver(actor.Envelope{Src: 0, Dst: 3, Msg: actors.ReportRequest{}}).Canonical())
	assert.True(t, model.HasCode(err, model.ErrCodeDecode))
}

func TestActionCanonicalRoundTrip(t *testing.T) {
	m := pair(t, threshold(3))
	for _, a := range []model.Action{
		model.Deliver(inc3),
		model.Redeliver(report),
		model.Drop(inc3),
		model.FireTimer(actor.TimerHandle{Owner: 0, Kind: actors.TimerPoll}),
	} {
		t.Run(a.String(), func(t *testing.T) {
			decoded, err := m.DecodeAction(a.Canonical())
			require.NoError(t, err)
			assert.Equal(t, a, decoded)

			id, err := a.ID()
			require.NoError(t, err)
			assert.Len(t, id, 64)
		})
	}

	_, err := m.DecodeAction(ir.IRObject{"kind": ir.IRString("teleport")})
	assert.True(t, model.HasCode(err, model.ErrCodeDecode))
}

func TestActionString(t *testing.T) {
	assert.Equal(t, "Deliver{src: 0, dst: 1, msg: IncrementRequest(3)}", model.Deliver(inc3).String())
	assert.Equal(t, "Drop{src: 0, dst: 1, msg: ReportRequest}", model.Drop(report).String())
	assert.Equal(t, "FireTimer{owner: 0, timer: poll}",
		model.FireTimer(actor.TimerHandle{Owner: 0, Kind: actors.TimerPoll}).String())
}

func TestBoundary(t *testing.T) {
	below := func(_ *model.Model, s model.State) bool {
		n, _ := actors.CounterValue(s, 1)
		return n < 3
	}
	m := pair(t, threshold(3), model.WithBoundary(below), model.WithInitNetwork(inc3))
	s0 := initState(t, m)
	assert.True(t, m.Within(s0))
	assert.False(t, m.Within(step(t, m, s0, model.Deliver(inc3))))

	unbounded := pair(t, threshold(3))
	assert.True(t, unbounded.Within(initState(t, unbounded)))
}

func TestParseExpectation(t *testing.T) {
	for _, exp := range []model.Expectation{model.Always, model.Sometimes, model.Eventually} {
		parsed, err := model.ParseExpectation(exp.String())
		require.NoError(t, err)
		assert.Equal(t, exp, parsed)
	}
	_, err := model.ParseExpectation("never")
	assert.Error(t, err)
}
