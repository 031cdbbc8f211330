package task

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTask struct {
	name     string
	startErr error
	events   *[]string
}

func (f *fakeTask) Name() string { return f.name }
func (f *fakeTask) Start(ctx context.Context) error {
	if f.startErr != nil {
		return f.startErr
	}
	*f.events = append(*f.events, "start:"+f.name)
	return nil
}
func (f *fakeTask) Stop() error {
	*f.events = append(*f.events, "stop:"+f.name)
	return nil
}

func TestStartStopOrder(t *testing.T) {
	t.Cleanup(Reset)
	var events []string
	Register(&fakeTask{name: "a", events: &events})
	Register(&fakeTask{name: "b", events: &events})

	require.NoError(t, StartAll(context.Background()))
	StopAll()

	assert.Equal(t, []string{"start:a", "start:b", "stop:b", "stop:a"}, events)
	assert.Equal(t, []string{"a", "b"}, Names())
}

func TestStartAllRollsBackOnFailure(t *testing.T) {
	t.Cleanup(Reset)
	var events []string
	Register(&fakeTask{name: "a", events: &events})
	Register(&fakeTask{name: "b", events: &events, startErr: errors.New("boom")})

	err := StartAll(context.Background())
	require.Error(t, err)
	assert.Equal(t, []string{"start:a", "stop:a"}, events)
}
