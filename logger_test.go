package recipeadapter

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileRunLogger(t *testing.T) {
	t.Run("buffers stages and flushes as one document", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewFileRunLogger(&buf)

		require.NoError(t, logger.LogStage(StageLog{Stage: StagePlanning, Timestamp: time.Now(), LLMInput: "plan it"}))
		require.NoError(t, logger.LogStage(StageLog{Stage: StageConverting, Timestamp: time.Now(), Notes: []ConversionNote{"converted"}}))
		require.NoError(t, logger.LogStage(StageLog{Stage: StageDone, Timestamp: time.Now()}))

		assert.Zero(t, buf.Len(), "nothing is written before Flush")
		require.NoError(t, logger.Flush())

		var doc struct {
			AdaptationRun struct {
				Stages []StageLog `json:"stages"`
			} `json:"adaptation_run"`
		}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
		require.Len(t, doc.AdaptationRun.Stages, 3)
		assert.Equal(t, StagePlanning, doc.AdaptationRun.Stages[0].Stage)
		assert.Equal(t, StageDone, doc.AdaptationRun.Stages[2].Stage)
	})

	t.Run("flush clears the buffer", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewFileRunLogger(&buf)

		require.NoError(t, logger.LogStage(StageLog{Stage: StagePlanning, Timestamp: time.Now()}))
		require.NoError(t, logger.Flush())

		buf.Reset()
		require.NoError(t, logger.Flush())

		var doc struct {
			AdaptationRun struct {
				Stages []StageLog `json:"stages"`
			} `json:"adaptation_run"`
		}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
		assert.Empty(t, doc.AdaptationRun.Stages)
	})

	t.Run("nil writer flushes without error", func(t *testing.T) {
		logger := NewFileRunLogger(nil)
		require.NoError(t, logger.LogStage(StageLog{Stage: StagePlanning, Timestamp: time.Now()}))
		assert.NoError(t, logger.Flush())
	})

	t.Run("write failure surfaces from Flush", func(t *testing.T) {
		logger := NewFileRunLogger(failWriter{})
		require.NoError(t, logger.LogStage(StageLog{Stage: StagePlanning, Timestamp: time.Now()}))
		assert.Error(t, logger.Flush())
	})
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestNewRunLogFilePath(t *testing.T) {
	path := NewRunLogFilePath("us.anthropic.claude-3-7-sonnet-20250219-v1:0")
	assert.Contains(t, path, "./logs/")
	assert.Contains(t, path, "us.anthropic.claude-3-7-sonnet-20250219-v1_0")
	assert.NotContains(t, path, ":")
}
