/*
Copyright 2023 Alexander Bartolomey (github@alexanderbartolomey.de)

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package erf

import (
	"fmt"
	"time"
)

const nsPerSecond = 1_000_000_000

// erfSplit converts the unsigned ERF fixed point format, seconds in the upper 32 bits and a binary
// fraction of a second in the lower 32 bits, into seconds and nanoseconds. The fraction is rounded
// to the nearest nanosecond.
func erfSplit(ts uint64) (secs int64, nsecs int64) {
	secs = int64(ts >> 32)
	frac := (ts & 0xffffffff) * nsPerSecond
	frac += (frac & 0x80000000) << 1
	nsecs = int64(frac >> 32)
	if nsecs >= nsPerSecond {
		nsecs -= nsPerSecond
		secs++
	}
	return secs, nsecs
}

// ERFTime converts an absolute ERF timestamp into a time.Time.
func ERFTime(ts uint64) time.Time {
	secs, nsecs := erfSplit(ts)
	return time.Unix(secs, nsecs).UTC()
}

// ERFDuration converts a relative ERF timestamp, which is signed, into a time.Duration.
func ERFDuration(ts int64) time.Duration {
	abs := uint64(ts)
	if ts < 0 {
		abs = uint64(-ts)
	}
	secs, nsecs := erfSplit(abs)
	d := time.Duration(secs)*time.Second + time.Duration(nsecs)
	if ts < 0 {
		return -d
	}
	return d
}

// PTPTimeInterval converts a PTP TimeInterval, nanoseconds scaled by 2^16, into a time.Duration
// rounded to the nearest nanosecond.
func PTPTimeInterval(ti int64) time.Duration {
	abs := uint64(ti)
	if ti < 0 {
		abs = uint64(-ti)
	}
	abs += (abs & 0x8000) << 1
	d := time.Duration(abs >> 16)
	if ti < 0 {
		return -d
	}
	return d
}

const absoluteTimeLayout = "2006-01-02 15:04:05.000000000 UTC"

func formatAbsoluteTime(t time.Time) string {
	return t.UTC().Format(absoluteTimeLayout)
}

// formatRelativeTime prints durations below a millisecond in nanoseconds and everything else in
// seconds with nanosecond precision.
func formatRelativeTime(d time.Duration) string {
	if d > -time.Millisecond && d < time.Millisecond {
		return fmt.Sprintf("%d nanoseconds", int64(d))
	}
	sign := ""
	if d < 0 {
		sign = "-"
		d = -d
	}
	return fmt.Sprintf("%s%d.%09d seconds", sign, int64(d/time.Second), int64(d%time.Second))
}
