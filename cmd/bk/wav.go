package main

import (
	"os"
	"sync"

	"github.com/davecheney/bk/clock"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	sampleRate = 44100
	bitDepth   = 16

	speakerHigh = 8192
	speakerLow  = -8192
)

type speakerEdge struct {
	at int64
	on bool
}

// speakerRecorder collects speaker transitions and renders them as a mono
// square wave.
type speakerRecorder struct {
	mu    sync.Mutex
	freq  clock.Frequency
	start int64
	edges []speakerEdge
}

func newSpeakerRecorder(freq clock.Frequency) *speakerRecorder {
	return &speakerRecorder{freq: freq, start: -1}
}

func (r *speakerRecorder) SpeakerChanged(cpuTime int64, on bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.start < 0 {
		r.start = cpuTime
	}
	r.edges = append(r.edges, speakerEdge{at: cpuTime, on: on})
}

// samples renders the recording up to cpuTime.
func (r *speakerRecorder) samples(cpuTime int64) []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.start < 0 || cpuTime <= r.start {
		return nil
	}
	n := int(r.freq.TicksToNanos(cpuTime-r.start) * sampleRate / 1e9)
	data := make([]int, n)
	level, e := speakerLow, 0
	for i := range data {
		t := r.start + r.freq.NanosToTicks(int64(i)*1e9/sampleRate)
		for e < len(r.edges) && r.edges[e].at <= t {
			level = speakerLow
			if r.edges[e].on {
				level = speakerHigh
			}
			e++
		}
		data[i] = level
	}
	return data
}

// WriteFile writes the recording up to cpuTime to path.
func (r *speakerRecorder) WriteFile(path string, cpuTime int64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := wav.NewEncoder(f, sampleRate, bitDepth, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           r.samples(cpuTime),
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		f.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
