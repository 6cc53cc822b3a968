package procedure_test

import (
	"fmt"
	"testing"

	"github.com/l1jgo/origin/internal/procedure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type journal []string

type stage struct {
	procedure.Base
	name     string
	log      *journal
	onUpdate func(d procedure.Driver)
}

func (s *stage) Name() string { return s.name }
func (s *stage) OnInit(procedure.Driver) {
	*s.log = append(*s.log, "init "+s.name)
}
func (s *stage) OnEnter(procedure.Driver) {
	*s.log = append(*s.log, "enter "+s.name)
}
func (s *stage) OnUpdate(d procedure.Driver, _, _ float64) {
	if s.onUpdate != nil {
		s.onUpdate(d)
	}
}
func (s *stage) OnLeave(_ procedure.Driver, shutdown bool) {
	*s.log = append(*s.log, fmt.Sprintf("leave %s %v", s.name, shutdown))
}
func (s *stage) OnDestroy(procedure.Driver) {
	*s.log = append(*s.log, "destroy "+s.name)
}

type bare struct {
	procedure.Base
}

func (bare) Name() string { return "bare" }

func TestProcedureLifecycle(t *testing.T) {
	var log journal
	launch := &stage{name: "launch", log: &log}
	login := &stage{name: "login", log: &log}
	launch.onUpdate = func(d procedure.Driver) { require.NoError(t, d.Change("login")) }

	s := procedure.NewSystem(nil)
	require.NoError(t, s.Init())
	require.NoError(t, s.Initialize(launch, login))
	require.NoError(t, s.Start("launch"))

	s.Update(0.5, 0.5)
	cur, err := s.Current()
	require.NoError(t, err)
	assert.Equal(t, "login", cur.Name())

	s.Update(0.25, 0.25)
	elapsed, err := s.CurrentTime()
	require.NoError(t, err)
	assert.Equal(t, 0.25, elapsed)

	s.Shutdown()
	assert.Equal(t, journal{
		"init launch", "init login",
		"enter launch",
		"leave launch false", "enter login",
		"leave login true",
		"destroy launch", "destroy login",
	}, log)

	_, err = s.Current()
	assert.ErrorIs(t, err, procedure.ErrNotInitialized)
}

func TestProcedureErrors(t *testing.T) {
	s := procedure.NewSystem(nil)

	_, err := s.Current()
	assert.ErrorIs(t, err, procedure.ErrNotInitialized)
	assert.ErrorIs(t, s.Start("x"), procedure.ErrNotInitialized)
	assert.ErrorIs(t, s.Restart(bare{}), procedure.ErrNotInitialized)
	_, err = s.Has("x")
	assert.ErrorIs(t, err, procedure.ErrNotInitialized)

	assert.ErrorIs(t, s.Initialize(), procedure.ErrNoProcedures)
	assert.ErrorIs(t, s.Initialize(nil), procedure.ErrInvalidProcedure)
	assert.ErrorIs(t, s.Initialize(bare{}, bare{}), procedure.ErrDuplicateProcedure)

	require.NoError(t, s.Initialize(bare{}))
	assert.ErrorIs(t, s.Initialize(bare{}), procedure.ErrAlreadyInitialized)
	assert.ErrorIs(t, s.Change("bare"), procedure.ErrNotStarted)
	_, err = s.CurrentTime()
	assert.ErrorIs(t, err, procedure.ErrNotStarted)
	assert.ErrorIs(t, s.Start("missing"), procedure.ErrUnknownProcedure)

	require.NoError(t, s.Start("bare"))
	assert.ErrorIs(t, s.Start("bare"), procedure.ErrAlreadyStarted)
	assert.ErrorIs(t, s.Change("missing"), procedure.ErrUnknownProcedure)
	_, err = s.Get("missing")
	assert.ErrorIs(t, err, procedure.ErrUnknownProcedure)

	ok, err := s.Has("bare")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRestartStartsFirstProcedure(t *testing.T) {
	var log journal
	s := procedure.NewSystem(nil)
	require.NoError(t, s.Initialize(&stage{name: "old", log: &log}))
	require.NoError(t, s.Start("old"))

	log = log[:0]
	require.NoError(t, s.Restart(&stage{name: "a", log: &log}, &stage{name: "b", log: &log}))
	assert.Equal(t, journal{"leave old true", "destroy old", "init a", "init b", "enter a"}, log)

	ok, _ := s.Has("old")
	assert.False(t, ok)
	assert.ErrorIs(t, s.Restart(), procedure.ErrNoProcedures)
}

func TestUpdateBeforeStartIsNoop(t *testing.T) {
	s := procedure.NewSystem(nil)
	require.NoError(t, s.Initialize(bare{}))
	s.Update(1, 1)
	_, err := s.CurrentTime()
	assert.ErrorIs(t, err, procedure.ErrNotStarted)
}
