package graph

import (
	"os"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/nowsound/engine/pkg/backend"
	"github.com/nowsound/engine/pkg/pluginhost"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	return logrus.NewEntry(l)
}

func testConfig() Config {
	return Config{
		SampleRate:             48000,
		BlockSize:              64,
		InitialBPM:             120,
		BeatsPerMeasure:        4,
		InputChannelCount:      1,
		BufferLength:           256,
		BufferCount:            8,
		PreRecordWindowSamples: 128,
		HistogramCapacity:      16,
		FFTOutputBinCount:      4,
		FFTCentralFrequency:    440,
		FFTOctaveDivisions:     4,
		FFTCentralBinIndex:     2,
		FFTSize:                64,
	}
}

func newTestGraph(t *testing.T) (*Graph, *backend.Fake) {
	t.Helper()
	fake := backend.NewFake()
	g := New(testConfig(), fake, pluginhost.New(), testLogger())
	if err := g.Initialize(); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	return g, fake
}

func TestInitializeReachesRunning(t *testing.T) {
	g, _ := newTestGraph(t)
	if g.State() != Running {
		t.Fatalf("expected state Running, got %v", g.State())
	}
}

func TestCreateRecordingTrackAndFinish(t *testing.T) {
	g, fake := newTestGraph(t)

	trackID := g.CreateRecordingTrack(1)

	in := [2][]float32{make([]float32, 64), make([]float32, 64)}
	for i := range in[0] {
		in[0][i] = 0.5
		in[1][i] = 0.5
	}

	// Drive enough blocks to grow the quantized beat duration past 1.
	samplesPerBeat := 48000 * 60 / 120 // 24000 samples/beat at 120bpm
	blocks := samplesPerBeat/64 + 2
	for i := 0; i < blocks; i++ {
		fake.Drive(in)
	}

	info := g.TrackInfo(trackID)
	if info.IsLooping {
		t.Fatalf("expected track still recording")
	}

	g.FinishRecording(trackID)

	// Drive until the track transitions to Looping.
	for i := 0; i < blocks*2; i++ {
		fake.Drive(in)
		if g.TrackInfo(trackID).IsLooping {
			break
		}
	}

	info = g.TrackInfo(trackID)
	if !info.IsLooping {
		t.Fatalf("expected track to have transitioned to Looping")
	}

	g.DeleteTrack(trackID)
}


func TestOutputSignalInfoReflectsDrivenAudio(t *testing.T) {
	g, fake := newTestGraph(t)

	in := [2][]float32{make([]float32, 64), make([]float32, 64)}
	for i := range in[0] {
		in[0][i] = 0.25
		in[1][i] = 0.25
	}
	out := fake.Drive(in)
	_ = out

	info := g.OutputSignalInfo()
	if info.Max == 0 {
		t.Fatalf("expected nonzero output signal after driving input")
	}
}

func TestAddPluginInstanceOnTrackRejectsUnknownID(t *testing.T) {
	g, _ := newTestGraph(t)

	trackID := g.CreateRecordingTrack(1)
	probe := Probe{Track: trackID}

	// No plugins registered on this graph's own registry, so instantiation
	// of an unknown ID must fail cleanly rather than panic.
	_, err := g.AddPluginInstance(probe, pluginhost.ID(999), pluginhost.ProgramID(1), 100)
	if err == nil {
		t.Fatalf("expected error instantiating unregistered plugin id")
	}
}

func TestShutdownReleasesTracks(t *testing.T) {
	g, _ := newTestGraph(t)
	g.CreateRecordingTrack(1)
	if err := g.Shutdown(); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	if g.State() != Shut {
		t.Fatalf("expected state Shut, got %v", g.State())
	}
}
