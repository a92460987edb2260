// Command nowsoundctl is a small interactive CLI that exercises the
// engine end to end against real audio hardware: initialize, record a
// track, finish it, inspect it, and shut down. Grounded in structure on
// the teacher's examples/*/main.go entry points (each a single-purpose
// main wiring one concrete processor into a runnable program) and on
// iamprashant-voice-ai's config/config.go viper pattern for environment-
// driven configuration (env-first, defaults via SetDefault).
package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/nowsound/engine/pkg/backend"
	"github.com/nowsound/engine/pkg/graph"
	"github.com/nowsound/engine/pkg/pluginhost"
)

func loadConfig() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("NOWSOUND")
	v.AutomaticEnv()

	v.SetDefault("SAMPLE_RATE", 48000.0)
	v.SetDefault("BLOCK_SIZE", 512)
	v.SetDefault("INITIAL_BPM", 120.0)
	v.SetDefault("BEATS_PER_MEASURE", 4)
	v.SetDefault("INPUT_CHANNEL_COUNT", 2)
	v.SetDefault("PRE_RECORD_WINDOW_SECONDS", 0.5)
	v.SetDefault("HISTOGRAM_CAPACITY", 100)
	v.SetDefault("FFT_OUTPUT_BIN_COUNT", 64)
	v.SetDefault("FFT_CENTRAL_FREQUENCY", 440.0)
	v.SetDefault("FFT_OCTAVE_DIVISIONS", 12)
	v.SetDefault("FFT_CENTRAL_BIN_INDEX", 32)
	v.SetDefault("FFT_SIZE", 2048)
	v.SetDefault("LOG_LEVEL", "info")

	return v
}

func configToGraphConfig(v *viper.Viper) graph.Config {
	sampleRate := v.GetFloat64("SAMPLE_RATE")
	return graph.Config{
		SampleRate:             sampleRate,
		BlockSize:              v.GetInt("BLOCK_SIZE"),
		InitialBPM:             v.GetFloat64("INITIAL_BPM"),
		BeatsPerMeasure:        v.GetInt("BEATS_PER_MEASURE"),
		InputChannelCount:      v.GetInt("INPUT_CHANNEL_COUNT"),
		BufferLength:           int(sampleRate),
		BufferCount:            64,
		PreRecordWindowSamples: int64(v.GetFloat64("PRE_RECORD_WINDOW_SECONDS") * sampleRate),
		HistogramCapacity:      v.GetInt("HISTOGRAM_CAPACITY"),
		FFTOutputBinCount:      v.GetInt("FFT_OUTPUT_BIN_COUNT"),
		FFTCentralFrequency:    v.GetFloat64("FFT_CENTRAL_FREQUENCY"),
		FFTOctaveDivisions:     v.GetInt("FFT_OCTAVE_DIVISIONS"),
		FFTCentralBinIndex:     v.GetInt("FFT_CENTRAL_BIN_INDEX"),
		FFTSize:                v.GetInt("FFT_SIZE"),
	}
}

func main() {
	v := loadConfig()

	log := logrus.New()
	if lvl, err := logrus.ParseLevel(v.GetString("LOG_LEVEL")); err == nil {
		log.SetLevel(lvl)
	}
	entry := logrus.NewEntry(log)

	g := graph.New(configToGraphConfig(v), backend.NewPortAudioBackend(entry), pluginhost.NewWithBuiltins(), entry)
	if err := g.Initialize(); err != nil {
		entry.WithError(err).Fatal("nowsoundctl: failed to initialize graph")
	}
	entry.Info("nowsoundctl: running; type 'help' for commands")

	runCommandLoop(g)

	if err := g.Shutdown(); err != nil {
		entry.WithError(err).Error("nowsoundctl: error during shutdown")
	}
}

func runCommandLoop(g *graph.Graph) {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("nowsound> ")
		if !scanner.Scan() {
			return
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "help":
			printHelp()

		case "record":
			inputID, err := parseInt32(fields, 1)
			if err != nil {
				fmt.Println(err)
				continue
			}
			id := g.CreateRecordingTrack(graph.AudioInputID(inputID))
			fmt.Printf("created track %d\n", id)

		case "finish":
			trackID, err := parseInt32(fields, 1)
			if err != nil {
				fmt.Println(err)
				continue
			}
			g.FinishRecording(graph.TrackID(trackID))

		case "delete":
			trackID, err := parseInt32(fields, 1)
			if err != nil {
				fmt.Println(err)
				continue
			}
			g.DeleteTrack(graph.TrackID(trackID))

		case "info":
			trackID, err := parseInt32(fields, 1)
			if err != nil {
				fmt.Println(err)
				continue
			}
			printTrackInfo(g, graph.TrackID(trackID))

		case "time":
			t := g.TimeInfo()
			fmt.Printf("samples=%d beat=%.2f bpm=%.1f beat_in_measure=%.2f\n", t.TimeSamples, t.ExactBeat, t.BPM, t.BeatInMeasure)

		case "quit", "exit":
			return

		default:
			fmt.Printf("unknown command %q; type 'help'\n", fields[0])
		}
	}
}

func printHelp() {
	fmt.Println(`commands:
  record <inputID>   start recording a new track from inputID
  finish <trackID>   stop recording, begin looping once quantized
  delete <trackID>   remove a track
  info <trackID>     print a track's current snapshot
  time               print the graph's current time/beat position
  quit               shut down and exit`)
}

func printTrackInfo(g *graph.Graph, id graph.TrackID) {
	info := g.TrackInfo(id)
	fmt.Printf("looping=%v beat_duration=%d local_beat=%.2f pan=%.2f volume=%.2f\n",
		info.IsLooping, info.BeatDuration, info.CurrentLocalBeat, info.Pan, info.Volume)
}

func parseInt32(fields []string, index int) (int32, error) {
	if index >= len(fields) {
		return 0, fmt.Errorf("missing argument")
	}
	n, err := strconv.ParseInt(fields[index], 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", fields[index])
	}
	return int32(n), nil
}
