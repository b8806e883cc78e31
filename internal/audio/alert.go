package audio

import (
	"math"
	"time"

	"github.com/gopxl/beep/v2"
)

// AlertTone describes the short tick played in place of message sounds
// while another application is producing audio.
type AlertTone struct {
	Frequency float64
	Duration  time.Duration
}

// DefaultAlertTone is a snappy 1.2 kHz tick.
var DefaultAlertTone = AlertTone{
	Frequency: 1200,
	Duration:  120 * time.Millisecond,
}

// alertDecay is the exponential envelope rate, per second.
const alertDecay = 40.0

// Buffer renders the tone into a buffer at the given sample rate.
func (t AlertTone) Buffer(sampleRate beep.SampleRate) *beep.Buffer {
	format := beep.Format{SampleRate: sampleRate, NumChannels: 2, Precision: 2}
	buffer := beep.NewBuffer(format)
	buffer.Append(t.streamer(sampleRate))
	return buffer
}

// streamer generates the tone sample by sample.
func (t AlertTone) streamer(sampleRate beep.SampleRate) beep.Streamer {
	total := sampleRate.N(t.Duration)
	pos := 0

	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if pos >= total {
			return 0, false
		}
		n := 0
		for i := range samples {
			if pos >= total {
				break
			}
			secs := float64(pos) / float64(sampleRate)
			v := 0.5 * math.Exp(-secs*alertDecay) * math.Sin(2*math.Pi*t.Frequency*secs)
			samples[i][0] = v
			samples[i][1] = v
			pos++
			n++
		}
		return n, true
	})
}
