package events_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/okr-api/internal/infrastructure/events"
)

type fakeConn struct {
	subjects []string
	data     [][]byte
	err      error
	drained  int
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.subjects = append(f.subjects, subject)
	f.data = append(f.data, data)
	return nil
}

func (f *fakeConn) Drain() error {
	f.drained++
	return nil
}

func TestNATSPublisher_PublicaConPrefijo(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	fc := &fakeConn{}
	p := events.NewNATSPublisherForTest(fc, "okr.", now)

	err := p.Publish(context.Background(), "onboarding.completed", map[string]string{"userId": "u1"})
	require.NoError(t, err)
	require.Len(t, fc.subjects, 1)
	assert.Equal(t, "okr.onboarding.completed", fc.subjects[0])

	var env struct {
		Event      string            `json:"event"`
		OccurredAt time.Time         `json:"occurredAt"`
		Payload    map[string]string `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(fc.data[0], &env))
	assert.Equal(t, "onboarding.completed", env.Event)
	assert.True(t, now.Equal(env.OccurredAt))
	assert.Equal(t, "u1", env.Payload["userId"])
}

func TestNATSPublisher_ContextoCancelado(t *testing.T) {
	fc := &fakeConn{}
	p := events.NewNATSPublisherForTest(fc, "okr", time.Now())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Publish(ctx, "x", nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, fc.subjects)
}

func TestNATSPublisher_ErrorYCierre(t *testing.T) {
	fc := &fakeConn{err: errors.New("no responders")}
	p := events.NewNATSPublisherForTest(fc, "", time.Now())

	err := p.Publish(context.Background(), "x", nil)
	require.Error(t, err)
	assert.Equal(t, "x", p.Subject("x"))

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	assert.Equal(t, 1, fc.drained)
	fc.err = nil
	assert.Error(t, p.Publish(context.Background(), "x", nil))
}

func TestLogPublisher(t *testing.T) {
	var buf bytes.Buffer
	p := events.NewLogPublisher(zerolog.New(&buf))

	require.NoError(t, p.Publish(context.Background(), "invitation.created", map[string]string{"email": "a@b.co"}))
	assert.Contains(t, buf.String(), `"event":"invitation.created"`)
	assert.Contains(t, buf.String(), "a@b.co")
}
