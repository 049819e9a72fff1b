package session

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ffmpeg-architect/internal/command"
	"ffmpeg-architect/internal/domain"
)

// TestUpdateRecordsAndUndoes checks patches flow through history.
func TestUpdateRecordsAndUndoes(t *testing.T) {
	s := New(domain.DefaultConfiguration())

	cfg, err := s.Update([]byte(`{"inputFiles":["a.mp4"],"videoCodec":"copy"}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"a.mp4"}, cfg.InputFiles)

	_, err = s.Update([]byte(`{"videoFilters":"scale=1280:720"}`))
	require.NoError(t, err)

	preview := s.Preview()
	assert.Equal(t, "ffmpeg -i a.mp4 -c:v copy -vf scale=1280:720 output.mp4", preview.Command)
	assert.Contains(t, preview.Warnings, `Video filters (-vf) will be ignored when using "copy" codec.`)
	assert.True(t, preview.CanUndo)
	assert.False(t, preview.CanRedo)

	cfg, moved := s.Undo()
	require.True(t, moved)
	assert.Empty(t, cfg.VideoFilters)
	assert.Equal(t, "copy", cfg.VideoCodec)
	assert.True(t, s.Preview().CanRedo)
}

// TestUpdateNoopIsNotRecorded checks identical patches do not add history.
func TestUpdateNoopIsNotRecorded(t *testing.T) {
	s := New(domain.DefaultConfiguration())
	_, err := s.Update([]byte(`{"outputFile":"output.mp4"}`))
	require.NoError(t, err)
	assert.False(t, s.Preview().CanUndo)
}

// TestUpdateInvalidPatch keeps the current state.
func TestUpdateInvalidPatch(t *testing.T) {
	s := New(domain.DefaultConfiguration())
	_, err := s.Update([]byte(`{"stats":"nope"`))
	assert.Error(t, err)
	assert.True(t, s.State().Equal(domain.DefaultConfiguration()))
}

// TestResetKeepsSettingsMirrors checks reset is undoable and keeps AI selection.
func TestResetKeepsSettingsMirrors(t *testing.T) {
	initial := domain.DefaultConfiguration()
	initial.AISource = domain.AISourceOllama
	initial.OllamaModel = "llama3"
	s := New(initial)
	_, err := s.Update([]byte(`{"videoCodec":"libx264"}`))
	require.NoError(t, err)
	s.SetAdvice(domain.AIAdvice{Command: "ffmpeg -i a b"})

	cfg := s.Reset()
	assert.Empty(t, cfg.VideoCodec)
	assert.Equal(t, domain.AISourceOllama, cfg.AISource)
	assert.Equal(t, "llama3", cfg.OllamaModel)
	_, ok := s.Advice()
	assert.False(t, ok)

	cfg, moved := s.Undo()
	require.True(t, moved)
	assert.Equal(t, "libx264", cfg.VideoCodec)
}

// TestLoadPreset checks presets replace state and are undoable.
func TestLoadPreset(t *testing.T) {
	s := New(domain.DefaultConfiguration())
	_, err := s.Update([]byte(`{"audioCodec":"aac"}`))
	require.NoError(t, err)

	saved := domain.DefaultConfiguration()
	saved.VideoCodec = "libx265"
	doc, err := saved.MarshalDocument()
	require.NoError(t, err)

	cfg, err := s.LoadPreset(domain.Preset{Name: "hevc", ConfigJSON: string(doc)})
	require.NoError(t, err)
	assert.Equal(t, "libx265", cfg.VideoCodec)
	assert.Empty(t, cfg.AudioCodec)

	cfg, _ = s.Undo()
	assert.Equal(t, "aac", cfg.AudioCodec)

	_, err = s.LoadPreset(domain.Preset{Name: "broken", ConfigJSON: "{"})
	assert.Error(t, err)
}

// TestApplyAdviceOverride checks full override mode.
func TestApplyAdviceOverride(t *testing.T) {
	s := New(domain.DefaultConfiguration())
	_, err := s.ApplyAdvice(true)
	assert.ErrorIs(t, err, ErrNoAdvice)

	s.SetAdvice(domain.AIAdvice{Command: "ffmpeg -i a.mp4 b.mp4"})
	cfg, err := s.ApplyAdvice(true)
	require.NoError(t, err)
	assert.True(t, cfg.AIOverride)
	assert.Equal(t, []string{"-i", "a.mp4", "b.mp4"}, s.Preview().Args)

	_, ok := s.Advice()
	assert.False(t, ok, "advice is consumed")
}

// TestApplyAdviceSuggestedState checks partial merge clears override.
func TestApplyAdviceSuggestedState(t *testing.T) {
	initial := domain.DefaultConfiguration()
	initial.AIOverride = true
	initial.AICommand = "ffmpeg -i x y"
	s := New(initial)

	s.SetAdvice(domain.AIAdvice{
		Command:        "ffmpeg -i in.mp4 -c:v libx264 out.mp4",
		SuggestedState: json.RawMessage(`{"videoCodec":"libx264","videoFilters":"scale=1280:720"}`),
	})
	cfg, err := s.ApplyAdvice(false)
	require.NoError(t, err)
	assert.False(t, cfg.AIOverride)
	assert.Equal(t, "libx264", cfg.VideoCodec)
	assert.Equal(t, "scale=1280:720", cfg.VideoFilters)
	assert.True(t, s.Preview().CanUndo)

	s.SetAdvice(domain.AIAdvice{Command: "ffmpeg -i a b"})
	before := s.State()
	cfg, err = s.ApplyAdvice(false)
	require.NoError(t, err)
	assert.True(t, cfg.Equal(before), "advice without suggested state changes nothing")
}

// TestCurrentPairsConfigurationWithPreview checks concurrent edits never
// yield a preview of a different snapshot.
func TestCurrentPairsConfigurationWithPreview(t *testing.T) {
	s := New(domain.DefaultConfiguration())

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			_, _ = s.Update([]byte(fmt.Sprintf(`{"outputFile":"out_%d.mp4"}`, i)))
			if i%3 == 0 {
				s.Undo()
			}
		}
	}()

	mismatches := 0
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			cfg, preview := s.Current()
			if preview.Command != command.Display(cfg) {
				mismatches++
			}
		}
	}()
	wg.Wait()

	assert.Zero(t, mismatches)
	cfg, preview := s.Current()
	assert.Equal(t, command.Display(cfg), preview.Command)
	assert.Equal(t, cfg.OutputFile, preview.Args[len(preview.Args)-1])
}
