package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInfoWritesFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithOutput(&buf, logrus.DebugLevel)

	l.Info("rendition completed", map[string]interface{}{"asset_uuid": "a-1", "profile": "720p"})

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "rendition completed", line["msg"])
	assert.Equal(t, "a-1", line["asset_uuid"])
	assert.Equal(t, "720p", line["profile"])
}

func TestLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithOutput(&buf, logrus.WarnLevel)

	l.Infof("skipped %d", 1)
	assert.Zero(t, buf.Len())

	l.Warnf("kept %d", 2)
	assert.Contains(t, buf.String(), "kept 2")
}
