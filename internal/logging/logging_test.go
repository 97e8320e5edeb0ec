package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewParsesLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, New("svc", "DEBUG", "json").GetLevel())
	assert.Equal(t, logrus.InfoLevel, New("svc", "chatty", "json").GetLevel())
}

func TestNewTagsService(t *testing.T) {
	logger := New("store-ratings", "info", "json")
	var buf bytes.Buffer
	logger.SetOutput(&buf)

	logger.WithField("store_id", 7).Info("rating submitted")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "store-ratings", entry["service"])
	assert.Equal(t, "rating submitted", entry["msg"])
	assert.EqualValues(t, 7, entry["store_id"])
}

func TestNewTextFormatter(t *testing.T) {
	logger := New("svc", "info", "text")
	_, ok := logger.Formatter.(*logrus.TextFormatter)
	assert.True(t, ok)
}
