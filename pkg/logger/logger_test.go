package logger

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestReplace(t *testing.T) {
	before := Root()
	t.Cleanup(func() { Replace(before) })

	core, logs := observer.New(zapcore.InfoLevel)
	Replace(zap.New(core).Sugar())

	MustNamed("search").Infow("product search", "keyword", "WidgetX")

	entries := logs.TakeAll()
	require.Len(t, entries, 1)
	assert.Equal(t, "search", entries[0].LoggerName)
	assert.Equal(t, "WidgetX", entries[0].ContextMap()["keyword"])
}

func TestReplaceWhileLogging(t *testing.T) {
	before := Root()
	t.Cleanup(func() { Replace(before) })

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%2 == 0 {
				Replace(zap.NewNop().Sugar())
				return
			}
			MustNamed("worker").Debugw("tick")
		}()
	}
	wg.Wait()
	assert.NotNil(t, Root())
}

func TestMustNamedRejectsEmptyName(t *testing.T) {
	assert.Panics(t, func() { MustNamed("") })
}
