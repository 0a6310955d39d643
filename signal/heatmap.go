// Binned-activity signals for darshan's HEATMAP module.
//
// A heatmap record is a pair of time series, HEATMAP_READ_BIN_<i> and HEATMAP_WRITE_BIN_<i>,
// plus the bin width in seconds.  The bin count is whatever the largest mentioned index implies;
// unmentioned bins are zero.  Without a bin width none of the time-denominated signals mean
// anything, so a missing or zero width short-circuits the whole block.

package signal

import (
	"math"
	"strconv"
	"strings"

	"darsig/darlog"
)

// MT: Constant after initialization; thread-safe
var heatmapBinWidth = darlog.StringToSym("HEATMAP_F_BIN_WIDTH_SECONDS")

const (
	heatmapReadBin  = "HEATMAP_READ_BIN_"
	heatmapWriteBin = "HEATMAP_WRITE_BIN_"
)

func deriveHeatmap(c counters, sig map[string]Value) {
	binWidth, ok := c.raw(heatmapBinWidth)
	if !ok || binWidth == 0 {
		sig["heatmap_bin_width"] = NA(NoBinWidth)
		return
	}
	sig["heatmap_bin_width"] = Num(binWidth)

	maxBin := -1
	for k := range c.m {
		if ix, ok := binIndex(k.String()); ok && ix > maxBin {
			maxBin = ix
		}
	}
	n := maxBin + 1
	if n == 0 {
		return
	}

	readBins := make([]float64, n)
	writeBins := make([]float64, n)
	for k, v := range c.m {
		if !v.IsNumeric() {
			continue
		}
		name := k.String()
		ix, ok := binIndex(name)
		if !ok || ix < 0 || ix >= n {
			continue
		}
		if strings.HasPrefix(name, heatmapReadBin) {
			readBins[ix] = v.Num
		} else {
			writeBins[ix] = v.Num
		}
	}

	activity := make([]float64, n)
	totalRead := 0.0
	totalWrite := 0.0
	for i := 0; i < n; i++ {
		activity[i] = readBins[i] + writeBins[i]
		totalRead += readBins[i]
		totalWrite += writeBins[i]
	}
	sig["total_read_events"] = Num(totalRead)
	sig["total_write_events"] = Num(totalWrite)

	activeBins := 0
	firstActive := -1
	lastActive := -1
	for i, a := range activity {
		if a > 0 {
			activeBins++
			if firstActive == -1 {
				firstActive = i
			}
			lastActive = i
		}
	}
	sig["active_bins"] = Num(float64(activeBins))
	sig["active_time"] = Num(float64(activeBins) * binWidth)
	if firstActive >= 0 {
		sig["activity_span"] = Num(float64(lastActive-firstActive+1) * binWidth)
	} else {
		sig["activity_span"] = Num(0)
	}

	// First argmax wins on ties.
	peak := 0
	for i := 1; i < n; i++ {
		if activity[i] > activity[peak] {
			peak = i
		}
	}
	sig["peak_activity_bin"] = Num(float64(peak))
	sig["peak_activity_value"] = Num(activity[peak])

	sig["read_activity_entropy_norm"] = Num(normalizedEntropy(readBins, totalRead, n))
	sig["write_activity_entropy_norm"] = Num(normalizedEntropy(writeBins, totalWrite, n))

	totalActivity := 0.0
	for _, a := range activity {
		totalActivity += a
	}
	if totalActivity > 0 {
		sig["top1_share"] = Num(activity[peak] / totalActivity)
	} else {
		sig["top1_share"] = Num(0)
	}
}

// binIndex extracts the trailing bin number of a HEATMAP_{READ,WRITE}_BIN_<i> counter name.

func binIndex(name string) (int, bool) {
	if !strings.HasPrefix(name, heatmapReadBin) && !strings.HasPrefix(name, heatmapWriteBin) {
		return 0, false
	}
	ix, err := strconv.Atoi(name[strings.LastIndexByte(name, '_')+1:])
	if err != nil {
		return 0, false
	}
	return ix, true
}

// normalizedEntropy is the Shannon entropy of the nonzero bins, normalized to [0,1] by ln(N).
// An empty distribution, or one over a single bin, carries no information and reads as 0.

func normalizedEntropy(bins []float64, total float64, n int) float64 {
	if total <= 0 || n <= 1 {
		return 0
	}
	h := 0.0
	for _, b := range bins {
		if b > 0 {
			p := b / total
			h -= p * math.Log(p)
		}
	}
	return h / math.Log(float64(n))
}
